package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/teslashibe/go-atlas/pkg/camera"
	"github.com/teslashibe/go-atlas/pkg/robot"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
)

// Outcome is how an approach ended.
type Outcome int

const (
	Reached Outcome = iota
	LostTarget
	Timeout
	Aborted
	Fault
)

func (o Outcome) String() string {
	switch o {
	case Reached:
		return "reached"
	case LostTarget:
		return "lost_target"
	case Timeout:
		return "timeout"
	case Aborted:
		return "aborted"
	case Fault:
		return "fault"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the terminal value of Approach. Err carries context for
// logging only; callers branch on Outcome.
type Result struct {
	Outcome    Outcome
	Iterations int
	Last       *detection.Detection
	Err        error
}

// OK reports whether the target was reached.
func (r Result) OK() bool {
	return r.Outcome == Reached
}

// Servo drives the base toward the current perception target.
type Servo struct {
	cfg        Config
	perception detection.Perception
	drive      robot.Drivetrain
	clock      clock.Clock
	log        *slog.Logger
}

// New creates a servo controller. clk and logger may be nil. It rejects a
// config that Validate reports problems for.
func New(cfg Config, perception detection.Perception, drive robot.Drivetrain, clk clock.Clock, logger *slog.Logger) (*Servo, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("tracking: invalid config: %s", strings.Join(errs, "; "))
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Servo{
		cfg:        cfg,
		perception: perception,
		drive:      drive,
		clock:      clk,
		log:        logger.With("component", "tracking"),
	}, nil
}

// Config returns the active configuration.
func (s *Servo) Config() Config {
	return s.cfg
}

// Approach runs the servo loop on frames from cam. Every outcome other than
// Reached stops the drivetrain before returning; Reached stops it too.
//
// A single frame without a detection ends the approach with LostTarget.
func (s *Servo) Approach(ctx context.Context, cam camera.Reader) Result {
	res := s.run(ctx, cam)
	// Stop even if ctx is done; the stop command must still go out.
	if err := s.drive.Stop(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn("stop failed", "error", err)
	}
	s.log.Info("approach finished", "outcome", res.Outcome.String(), "iterations", res.Iterations)
	return res
}

func (s *Servo) run(ctx context.Context, cam camera.Reader) Result {
	var last *detection.Detection

	for i := 1; i <= s.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{Outcome: Aborted, Iterations: i - 1, Last: last, Err: err}
		}

		frame, err := cam.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Outcome: Aborted, Iterations: i, Last: last, Err: err}
			}
			return Result{Outcome: LostTarget, Iterations: i, Last: last, Err: fmt.Errorf("read frame: %w", err)}
		}

		det, err := s.perception.Detect(ctx, frame)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return Result{Outcome: Aborted, Iterations: i, Last: last, Err: err}
			}
			return Result{Outcome: LostTarget, Iterations: i, Last: last, Err: fmt.Errorf("detect: %w", err)}
		}
		if det == nil {
			return Result{Outcome: LostTarget, Iterations: i, Last: last}
		}
		if !det.HasDistance {
			det.Distance, det.HasDistance = s.perception.DistanceOf(*det)
		}
		last = det

		e := ComputeError(*det, frame)
		if e.HasDistance && e.Distance <= s.cfg.TargetDistanceCm {
			return Result{Outcome: Reached, Iterations: i, Last: last}
		}

		cmd := Decide(e, s.cfg)
		s.log.Debug("servo step",
			"iteration", i,
			"error_x", e.X,
			"distance_cm", e.Distance,
			"has_distance", e.HasDistance,
			"action", cmd.Action.String(),
			"degrees", cmd.Degrees)

		if err := s.execute(ctx, cmd); err != nil {
			return Result{Outcome: Fault, Iterations: i, Last: last, Err: err}
		}

		if s.cfg.SettleDelay > 0 {
			s.clock.Sleep(s.cfg.SettleDelay)
		}
	}

	return Result{Outcome: Timeout, Iterations: s.cfg.MaxIterations, Last: last}
}

func (s *Servo) execute(ctx context.Context, cmd Command) error {
	switch cmd.Action {
	case TurnLeft:
		return s.drive.TurnLeft(ctx, cmd.Degrees)
	case TurnRight:
		return s.drive.TurnRight(ctx, cmd.Degrees)
	default:
		return s.drive.MoveForward(ctx, s.cfg.ForwardDuration)
	}
}
