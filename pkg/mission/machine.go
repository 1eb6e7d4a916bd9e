package mission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/teslashibe/go-atlas/pkg/camera"
	"github.com/teslashibe/go-atlas/pkg/navigation"
	"github.com/teslashibe/go-atlas/pkg/planner"
	"github.com/teslashibe/go-atlas/pkg/robot"
	"github.com/teslashibe/go-atlas/pkg/search"
	"github.com/teslashibe/go-atlas/pkg/speech"
	"github.com/teslashibe/go-atlas/pkg/tracking"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
)

// shutdownTimeout bounds the teardown sequence.
const shutdownTimeout = 10 * time.Second

// Searcher locates the target. *search.Controller implements it.
type Searcher interface {
	Run(ctx context.Context, cam camera.Reader, trail *navigation.Trail) search.Result
}

// Approacher closes in on the target. *tracking.Servo implements it.
type Approacher interface {
	Approach(ctx context.Context, cam camera.Reader) tracking.Result
}

// Config holds state machine policy.
type Config struct {
	TickInterval  time.Duration // pause after every tick
	GraspAttempts int           // grasp tries before giving up
}

// DefaultConfig returns a one-second tick and one grasp retry.
func DefaultConfig() Config {
	return Config{TickInterval: time.Second, GraspAttempts: 2}
}

// Deps are the collaborators a Machine drives. Clock, Logger and Notifier
// are optional.
type Deps struct {
	Commands   speech.CommandSource
	Planner    planner.Planner
	Perception detection.Perception
	Search     Searcher
	Servo      Approacher
	Drive      robot.Drivetrain
	Arm        robot.Arm
	Camera     *camera.Lease
	Notifier   speech.Notifier
	Clock      clock.Clock
	Logger     *slog.Logger
}

func (d Deps) validate() error {
	var missing []string
	if d.Commands == nil {
		missing = append(missing, "commands")
	}
	if d.Planner == nil {
		missing = append(missing, "planner")
	}
	if d.Perception == nil {
		missing = append(missing, "perception")
	}
	if d.Search == nil {
		missing = append(missing, "search")
	}
	if d.Servo == nil {
		missing = append(missing, "servo")
	}
	if d.Drive == nil {
		missing = append(missing, "drivetrain")
	}
	if d.Arm == nil {
		missing = append(missing, "arm")
	}
	if d.Camera == nil {
		missing = append(missing, "camera")
	}
	if len(missing) > 0 {
		return fmt.Errorf("mission: missing dependencies %v", missing)
	}
	return nil
}

// Machine is the mission state machine.
type Machine struct {
	cfg Config
	d   Deps

	clock clock.Clock
	log   *slog.Logger
	abort AbortSwitch

	state State
	mctx  *Context
	ticks uint64

	status atomic.Pointer[Status]

	obsMu     sync.RWMutex
	observers []Observer

	shutdownOnce sync.Once
}

// New creates a machine in IDLE.
func New(cfg Config, d Deps) (*Machine, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if cfg.GraspAttempts < 1 {
		cfg.GraspAttempts = 1
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Notifier == nil {
		d.Notifier = speech.Nop{}
	}
	m := &Machine{
		cfg:   cfg,
		d:     d,
		clock: d.Clock,
		log:   d.Logger.With("component", "mission"),
		state: Idle,
		mctx:  newContext(),
	}
	m.publish()
	return m, nil
}

// Subscribe registers an observer for transitions and notices.
func (m *Machine) Subscribe(o Observer) {
	m.obsMu.Lock()
	m.observers = append(m.observers, o)
	m.obsMu.Unlock()
}

// Abort cancels a running search or approach. It reports false when no
// abortable phase is active.
func (m *Machine) Abort() bool {
	ok := m.abort.Trigger()
	if ok {
		m.log.Info("abort requested")
	}
	return ok
}

// State returns the current state. Only safe on the mission goroutine;
// other goroutines use Status.
func (m *Machine) State() State {
	return m.state
}

// Mission returns the live mission context. Only safe on the mission
// goroutine.
func (m *Machine) Mission() *Context {
	return m.mctx
}

// Status returns the latest published snapshot. Safe from any goroutine.
func (m *Machine) Status() Status {
	return *m.status.Load()
}

// Run ticks until shutdown, pausing TickInterval between ticks, then runs
// the teardown sequence. It returns nil for a requested shutdown and ctx's
// error when interrupted.
func (m *Machine) Run(ctx context.Context) error {
	m.log.Info("mission loop started", "tick", m.cfg.TickInterval)
	m.notify(ctx, "ATLAS is online. Awaiting commands.")

	defer m.Shutdown(ctx)

	for {
		if err := m.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}
		if err := m.sleep(ctx, m.cfg.TickInterval); err != nil {
			return err
		}
	}
}

func (m *Machine) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := m.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick runs the current state's handler once and applies the transition.
// It returns ErrShutdown when the loop should end; every other failure is
// absorbed into a return to IDLE.
func (m *Machine) Tick(ctx context.Context) error {
	if ctx.Err() != nil {
		return ErrShutdown
	}

	from := m.state
	m.ticks++
	sig, err := m.dispatch(ctx, from)

	switch {
	case errors.Is(err, ErrShutdown):
		return ErrShutdown
	case err != nil && ctx.Err() != nil:
		return ErrShutdown
	case err != nil:
		m.log.Error("tick failed", "state", from.String(), "mission_id", m.mctx.ID, "error", err)
		m.notify(ctx, "Something went wrong. Returning to idle.")
		sig = Fault
	}

	m.transition(ctx, from, Next(from, sig), sig)
	return nil
}

// dispatch runs one handler, converting a panic into an error.
func (m *Machine) dispatch(ctx context.Context, s State) (sig Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("panic in state handler", "state", s.String(), "panic", r, "stack", string(debug.Stack()))
			sig, err = Fault, fmt.Errorf("mission: panic in %s: %v", s, r)
		}
	}()

	switch s {
	case Idle:
		return m.idle(ctx)
	case Planning:
		return m.planning(ctx)
	case Searching:
		return m.searching(ctx)
	case Approaching:
		return m.approaching(ctx)
	case Grasping:
		return m.grasping(ctx)
	case Returning:
		return m.returning(ctx)
	case TaskComplete:
		return m.taskComplete(ctx)
	default:
		return Fault, fmt.Errorf("mission: undefined state %d", int(s))
	}
}

func (m *Machine) transition(ctx context.Context, from, to State, sig Signal) {
	// Leaving a mission for IDLE by any route other than completion drops
	// the camera and forgets the intent.
	if to == Idle && from != Idle && from != TaskComplete {
		if m.d.Camera.ReleaseAny() {
			m.log.Debug("camera released on abandon", "from", from.String())
		}
		m.mctx.Reset()
	}

	m.state = to
	if from != to {
		m.log.Info("transition",
			"from", from.String(),
			"to", to.String(),
			"signal", sig.String(),
			"mission_id", m.mctx.ID)
	}
	m.publish()
	m.emit(Event{Kind: EventTransition, From: from, To: to, Signal: sig.String()})
}

// notify sends a user-facing notice without waiting for delivery.
func (m *Machine) notify(ctx context.Context, msg string) {
	m.log.Info("notice", "state", m.state.String(), "text", msg)
	m.d.Notifier.Notify(ctx, msg)
	m.emit(Event{Kind: EventNotice, From: m.state, To: m.state, Message: msg})
}

func (m *Machine) emit(e Event) {
	e.MissionID = m.mctx.ID
	e.Intent = m.mctx.Intent
	e.At = m.clock.Now()

	m.obsMu.RLock()
	obs := m.observers
	m.obsMu.RUnlock()
	for _, o := range obs {
		o.OnEvent(e)
	}
}

func (m *Machine) publish() {
	s := Status{
		State:     m.state,
		MissionID: m.mctx.ID,
		Command:   m.mctx.Command,
		TrailLen:  m.mctx.Trail.Len(),
		Camera:    m.d.Camera.Holder(),
		Started:   m.mctx.Started,
		Ticks:     m.ticks,
	}
	if m.mctx.Intent != nil {
		in := *m.mctx.Intent
		s.Intent = &in
	}
	m.status.Store(&s)
}

// Shutdown runs the teardown sequence once: stop the drivetrain, home the
// arm, release the camera and say goodbye. It ignores ctx cancellation.
func (m *Machine) Shutdown(ctx context.Context) {
	m.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		m.log.Info("shutting down", "state", m.state.String())
		m.abort.Trigger()

		if err := m.d.Drive.Stop(ctx); err != nil {
			m.log.Warn("stop failed during shutdown", "error", err)
		}
		if err := m.d.Arm.ReturnHome(ctx); err != nil {
			m.log.Warn("arm home failed during shutdown", "error", err)
		}
		m.d.Camera.ReleaseAny()

		m.notify(ctx, "Shutting down. Goodbye!")

		from := m.state
		m.mctx.Reset()
		m.state = Idle
		m.publish()
		m.emit(Event{Kind: EventShutdown, From: from, To: Idle})
	})
}
