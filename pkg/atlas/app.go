// Package atlas assembles the robot from configuration: drivers, camera,
// perception, planner, speech and the mission loop.
package atlas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/teslashibe/go-atlas/internal/config"
	"github.com/teslashibe/go-atlas/pkg/camera"
	"github.com/teslashibe/go-atlas/pkg/mission"
	"github.com/teslashibe/go-atlas/pkg/navigation"
	"github.com/teslashibe/go-atlas/pkg/planner"
	"github.com/teslashibe/go-atlas/pkg/robot"
	"github.com/teslashibe/go-atlas/pkg/search"
	"github.com/teslashibe/go-atlas/pkg/speech"
	"github.com/teslashibe/go-atlas/pkg/tracking"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
	"github.com/teslashibe/go-atlas/pkg/web"
	"golang.org/x/sync/errgroup"
)

// Options are run-time choices that come from the command line rather
// than the config file.
type Options struct {
	Stdin  io.Reader // command console; nil disables it
	Stdout io.Writer // operator notices; defaults to os.Stdout
}

// App is the main ATLAS application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	cfg  *config.Config
	opts Options
	log  *slog.Logger
	clk  clock.Clock

	// Robot control
	platform robot.Platform

	// Vision
	source   camera.Source
	lease    *camera.Lease
	pipeline *detection.Pipeline

	planner planner.Planner

	// Operator I/O
	inbox    *speech.Inbox
	commands speech.CommandSource
	queue    *speech.Queue
	notifier speech.Notifier

	machine   *mission.Machine
	webServer *web.Server
}

// New validates cfg and creates an uninitialised App.
func New(cfg *config.Config, opts Options, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:  cfg,
		opts: opts,
		log:  logger,
		clk:  clock.New(),
	}, nil
}

// Init builds every component. Call it after New and before Run.
func (a *App) Init(ctx context.Context) error {
	fmt.Fprintln(a.opts.Stdout, "🤖 ATLAS Robot Assistant")
	fmt.Fprintln(a.opts.Stdout, "========================")

	a.initRobot()

	if err := a.initCamera(); err != nil {
		return fmt.Errorf("camera init: %w", err)
	}

	a.initPerception()

	if err := a.initPlanner(ctx); err != nil {
		return fmt.Errorf("planner init: %w", err)
	}

	if err := a.initSpeech(); err != nil {
		return fmt.Errorf("speech init: %w", err)
	}

	if err := a.initMission(); err != nil {
		return fmt.Errorf("mission init: %w", err)
	}

	if a.cfg.Dashboard.Enabled {
		a.initDashboard()
	}
	return nil
}

func (a *App) initRobot() {
	rc := a.cfg.Robot
	switch rc.Driver {
	case config.RobotDriverHTTP:
		a.platform = robot.NewHTTPController(rc.URL, rc.Timeout)
		fmt.Fprintf(a.opts.Stdout, "🔌 Hardware: robot daemon at %s\n", rc.URL)
	default:
		sc := robot.DefaultSimConfig()
		sc.BaseSpeed = rc.BaseSpeed
		sc.TurnRate = rc.TurnRate
		sc.SafeDistance = rc.SafeDistance
		sc.SimulateMotion = rc.SimulateMotion
		sc.Seed = rc.ObstacleSeed
		sc.GripSuccessRate = rc.GripSuccessRate
		a.platform = robot.NewSim(sc, a.clk, a.log)
		fmt.Fprintln(a.opts.Stdout, "🧪 Hardware: SIMULATION MODE")
	}
}

func (a *App) initCamera() error {
	cc := a.cfg.Camera
	src, err := OpenCamera(cc, a.clk, a.log)
	if err != nil {
		return err
	}
	a.source = src
	a.lease = camera.NewLease(a.source, a.log)
	fmt.Fprintf(a.opts.Stdout, "📷 Camera: device %d (%dx%d)\n", cc.Device, cc.Width, cc.Height)
	return nil
}

func (a *App) initPerception() {
	a.pipeline = NewPerception(a.cfg.Perception, a.log)
	kind := "colour"
	if a.pipeline.HasObjectDetector() {
		kind = "YOLO + colour"
	}
	fmt.Fprintf(a.opts.Stdout, "👁️  Perception: %s\n", kind)
}

func (a *App) initPlanner(ctx context.Context) error {
	p, err := BuildPlanner(ctx, a.cfg.Planner, a.log)
	if err != nil {
		return err
	}
	a.planner = p
	fmt.Fprintf(a.opts.Stdout, "🧠 Planner: %s\n", p.Name())
	return nil
}

// BuildPlanner returns the configured planner, falling back to the keyword
// planner when Gemini is unavailable and fallback is enabled.
func BuildPlanner(ctx context.Context, pc config.PlannerConfig, logger *slog.Logger) (planner.Planner, error) {
	keyword := planner.NewKeyword()
	if pc.Provider == config.PlannerKeyword {
		return keyword, nil
	}

	gemini, err := planner.NewGemini(ctx, planner.GeminiConfig{
		APIKey:  pc.APIKey,
		Model:   pc.Model,
		Timeout: pc.Timeout,
		Logger:  logger,
	})
	switch {
	case err != nil && pc.Fallback:
		logger.Warn("gemini planner unavailable, using keyword planner", "error", err)
		return keyword, nil
	case err != nil:
		return nil, err
	case pc.Fallback:
		return planner.NewChainWithLogger(logger, gemini, keyword)
	default:
		return gemini, nil
	}
}

func (a *App) initSpeech() error {
	mc := a.cfg.Mission

	console := speech.NewConsole(a.opts.Stdout)
	a.notifier = console
	if mc.Voice && mc.SpeakCommand != "" {
		spk, err := speech.ParseExecSpeaker(mc.SpeakCommand)
		if err != nil {
			return err
		}
		a.queue = speech.NewQueue(spk, speech.DefaultQueueSize, a.log)
		a.notifier = speech.Multi{console, a.queue}
	}

	a.inbox = speech.NewInbox(8)
	a.commands = a.inbox
	mode := "DISABLED (text input)"
	if mc.Voice {
		a.commands = &speech.WakeWordSource{Source: a.inbox, Word: mc.WakeWord, Notifier: a.notifier}
		mode = fmt.Sprintf("ENABLED (wake word %q)", mc.WakeWord)
	}
	fmt.Fprintf(a.opts.Stdout, "🎤 Voice Control: %s\n", mode)
	return nil
}

func (a *App) initMission() error {
	sc := a.cfg.Search
	mode, err := search.ParseMode(sc.Mode)
	if err != nil {
		return err
	}
	searcher, err := search.New(search.Config{
		Mode:          mode,
		Area:          navigation.Area{Width: sc.AreaWidth, Height: sc.AreaHeight},
		Step:          sc.Step,
		PollInterval:  sc.PollInterval,
		FeedbackEvery: sc.FeedbackEvery,
		ReverseFor:    sc.ReverseFor,
		AvoidTurnDeg:  sc.AvoidTurnDeg,
	}, a.pipeline, a.platform, a.platform, a.clk, a.log)
	if err != nil {
		return err
	}
	searcher.OnFeedback = func(msg string) {
		a.notifier.Notify(context.Background(), msg)
	}

	vc := a.cfg.Servo
	servo, err := tracking.New(tracking.Config{
		CenterTolerancePx: vc.CenterTolerancePx,
		TurnGain:          vc.TurnGain,
		MaxTurnDeg:        vc.MaxTurnDeg,
		TargetDistanceCm:  vc.TargetDistanceCm,
		MaxIterations:     vc.MaxIterations,
		ForwardDuration:   vc.ForwardDuration,
		SettleDelay:       vc.SettleDelay,
	}, a.pipeline, a.platform, a.clk, a.log)
	if err != nil {
		return err
	}

	a.machine, err = mission.New(mission.Config{
		TickInterval:  a.cfg.Mission.TickInterval,
		GraspAttempts: a.cfg.Mission.GraspAttempts,
	}, mission.Deps{
		Commands:   a.commands,
		Planner:    a.planner,
		Perception: a.pipeline,
		Search:     searcher,
		Servo:      servo,
		Drive:      a.platform,
		Arm:        a.platform,
		Camera:     a.lease,
		Notifier:   a.notifier,
		Clock:      a.clk,
		Logger:     a.log,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.opts.Stdout, "🗺️  Search: %s over %.1fx%.1f m\n", mode, sc.AreaWidth, sc.AreaHeight)
	return nil
}

func (a *App) initDashboard() {
	dc := a.cfg.Dashboard
	a.webServer = web.NewServer(web.Options{
		Addr:         dc.Addr,
		CommandRate:  dc.CommandRate,
		CommandBurst: dc.CommandBurst,
	}, a.machine, a.inbox, a.log)
	a.machine.Subscribe(a.webServer)
	fmt.Fprintf(a.opts.Stdout, "🌐 Web dashboard: http://localhost%s\n", dc.Addr)
}

// Machine returns the mission state machine.
func (a *App) Machine() *mission.Machine {
	return a.machine
}

// Inbox returns the command inbox shared by the console and dashboard.
func (a *App) Inbox() *speech.Inbox {
	return a.inbox
}

// Run starts the mission loop, the console and the dashboard. It returns
// when the operator quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.opts.Stdout, "\nType a command (e.g. \"bring me the red ball\"), \"abort\" to cancel, \"quit\" to exit.")

	g, gctx := errgroup.WithContext(ctx)
	loopCtx, stopAux := context.WithCancel(gctx)

	g.Go(func() error {
		// The mission loop ending (quit) stops everything else.
		defer stopAux()
		return a.machine.Run(gctx)
	})

	if a.opts.Stdin != nil {
		g.Go(func() error {
			err := speech.Pump(loopCtx, a.opts.Stdin, a.inbox, speech.PumpHooks{
				OnAbort: func() { a.machine.Abort() },
				OnBusy: func(line string) {
					a.log.Warn("command inbox full, dropped line", "line", line)
					a.notifier.Notify(loopCtx, "I'm busy, please try that again in a moment.")
				},
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if a.webServer != nil {
		g.Go(func() error {
			return a.webServer.Run(loopCtx)
		})
	}

	err := g.Wait()
	stopAux()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown releases devices and flushes queued speech.
func (a *App) Shutdown() {
	if a.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.queue.Close(ctx); err != nil {
			a.log.Warn("speech queue did not drain", "error", err)
		}
		cancel()
	}
	if a.pipeline != nil {
		a.pipeline.Close()
	}
	if a.lease != nil {
		if err := a.lease.Close(); err != nil {
			a.log.Warn("camera close", "error", err)
		}
	}
	fmt.Fprintln(a.opts.Stdout, "\n👋 Shutdown complete. Goodbye!")
}
