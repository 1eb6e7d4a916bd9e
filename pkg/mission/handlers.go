package mission

import (
	"context"
	"errors"
	"fmt"

	"github.com/teslashibe/go-atlas/pkg/navigation"
	"github.com/teslashibe/go-atlas/pkg/search"
	"github.com/teslashibe/go-atlas/pkg/speech"
	"github.com/teslashibe/go-atlas/pkg/tracking"
)

// Camera holder names are the owning state's name.
var (
	holderSearch   = Searching.String()
	holderApproach = Approaching.String()
	holderGrasp    = Grasping.String()
)

func (m *Machine) idle(ctx context.Context) (Signal, error) {
	cmd, err := m.d.Commands.Next(ctx)
	switch {
	case err != nil && (ctx.Err() != nil || errors.Is(err, speech.ErrClosed)):
		return Failure, ErrShutdown
	case err != nil:
		return Failure, fmt.Errorf("read command: %w", err)
	case speech.IsQuit(cmd):
		m.log.Info("quit requested")
		return Failure, ErrShutdown
	case speech.IsAbort(cmd):
		// Nothing to abort while idle.
		return Failure, nil
	}

	m.mctx.begin(cmd, m.clock.Now())
	m.log.Info("command received", "mission_id", m.mctx.ID, "command", cmd)
	return Success, nil
}

func (m *Machine) planning(ctx context.Context) (Signal, error) {
	m.notify(ctx, "Planning: "+m.mctx.Command)

	intent, err := m.d.Planner.Plan(ctx, m.mctx.Command)
	if ctx.Err() != nil {
		return Failure, ErrShutdown
	}
	if err != nil || intent == nil {
		m.log.Warn("planning failed", "mission_id", m.mctx.ID, "planner", m.d.Planner.Name(), "error", err)
		m.notify(ctx, "Sorry, I couldn't work out what to do with that command.")
		return Failure, nil
	}

	m.mctx.Intent = intent
	m.d.Perception.SetTarget(m.mctx.Target())
	m.log.Info("plan ready", "mission_id", m.mctx.ID, "intent", intent.String())
	m.notify(ctx, fmt.Sprintf("Okay, I'll %s %s.", intent.Action, m.mctx.describe()))
	return Success, nil
}

func (m *Machine) searching(ctx context.Context) (Signal, error) {
	if err := m.d.Camera.Acquire(holderSearch); err != nil {
		return Fault, err
	}
	m.notify(ctx, "Searching for "+m.mctx.describe()+".")

	pctx, done := m.abort.Begin(ctx)
	res := m.d.Search.Run(pctx, m.d.Camera.Reader(holderSearch), m.mctx.Trail)
	done()
	m.publish()

	if res.Outcome == search.Found {
		m.mctx.Detection = res.Detection
		if err := m.d.Camera.Transfer(holderSearch, holderApproach); err != nil {
			return Fault, err
		}
		m.notify(ctx, "Found "+m.mctx.describe()+"!")
		return Success, nil
	}

	if err := m.d.Camera.Release(holderSearch); err != nil {
		m.log.Warn("camera release after search", "error", err)
	}

	switch res.Outcome {
	case search.Aborted:
		if ctx.Err() != nil {
			return Failure, ErrShutdown
		}
		m.notify(ctx, "Search aborted.")
		return Abort, nil
	case search.CameraError:
		m.log.Error("camera failed during search", "mission_id", m.mctx.ID, "error", res.Err)
		m.notify(ctx, "My camera isn't working, so I have to stop searching.")
		return Failure, nil
	default:
		m.notify(ctx, "I couldn't find "+m.mctx.describe()+".")
		return Failure, nil
	}
}

func (m *Machine) approaching(ctx context.Context) (Signal, error) {
	if err := m.d.Camera.Acquire(holderApproach); err != nil {
		return Fault, err
	}
	m.mctx.Approaches++
	m.notify(ctx, "Approaching "+m.mctx.describe()+".")

	pctx, done := m.abort.Begin(ctx)
	res := m.d.Servo.Approach(pctx, m.d.Camera.Reader(holderApproach))
	done()

	if res.Outcome == tracking.Reached {
		if err := m.d.Camera.Transfer(holderApproach, holderGrasp); err != nil {
			return Fault, err
		}
		m.notify(ctx, "In position.")
		return Success, nil
	}

	if err := m.d.Camera.Release(holderApproach); err != nil {
		m.log.Warn("camera release after approach", "error", err)
	}
	m.log.Info("approach failed",
		"mission_id", m.mctx.ID,
		"outcome", res.Outcome.String(),
		"iterations", res.Iterations,
		"error", res.Err)

	if res.Outcome == tracking.Aborted {
		if ctx.Err() != nil {
			return Failure, ErrShutdown
		}
		m.notify(ctx, "Approach aborted.")
		return Abort, nil
	}
	m.notify(ctx, "I lost sight of "+m.mctx.describe()+". Searching again.")
	return Failure, nil
}

func (m *Machine) grasping(ctx context.Context) (Signal, error) {
	m.notify(ctx, "Grasping "+m.mctx.describe()+".")

	attempts, err := Retry(ctx, m.cfg.GraspAttempts, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			m.notify(ctx, "Grip failed. Trying once more.")
		}
		if err := m.d.Arm.Grasp(ctx); err != nil {
			return err
		}
		ok, err := m.d.Arm.CheckGrip(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrGripFailed
		}
		return nil
	})
	m.mctx.GraspAttempts = attempts

	if ctx.Err() != nil {
		return Failure, ErrShutdown
	}
	if err != nil {
		m.log.Warn("grasp failed", "mission_id", m.mctx.ID, "attempts", attempts, "error", err)
		if rerr := m.d.Arm.Release(ctx); rerr != nil {
			m.log.Warn("release after failed grasp", "error", rerr)
		}
		if herr := m.d.Arm.ReturnHome(ctx); herr != nil {
			m.log.Warn("arm home after failed grasp", "error", herr)
		}
		m.notify(ctx, "I couldn't get a grip on "+m.mctx.describe()+".")
		return Failure, nil
	}

	m.log.Info("grasp verified", "mission_id", m.mctx.ID, "attempts", attempts)
	return Success, nil
}

func (m *Machine) returning(ctx context.Context) (Signal, error) {
	if err := m.d.Camera.Release(holderGrasp); err != nil {
		m.log.Warn("camera release entering return", "error", err)
		m.d.Camera.ReleaseAny()
	}
	m.publish()

	path := m.mctx.Trail.ReturnPath()
	if len(path) == 0 {
		path = append(path, navigation.Origin)
	}
	m.notify(ctx, "Heading back.")
	m.log.Info("returning", "mission_id", m.mctx.ID, "waypoints", len(path))

	for i, p := range path {
		if ctx.Err() != nil {
			return Failure, ErrShutdown
		}
		if err := m.d.Drive.NavigateTo(ctx, p.X, p.Y); err != nil {
			m.log.Warn("return leg failed", "leg", i+1, "x", p.X, "y", p.Y, "error", err)
		}
	}
	return Success, nil
}

func (m *Machine) taskComplete(ctx context.Context) (Signal, error) {
	if m.mctx.Intent != nil && m.mctx.Intent.Action.Carries() {
		if err := m.d.Arm.Present(ctx); err != nil {
			m.log.Warn("present failed", "error", err)
		}
	}
	if err := m.d.Arm.Release(ctx); err != nil {
		m.log.Warn("release failed", "error", err)
	}
	if err := m.d.Arm.ReturnHome(ctx); err != nil {
		m.log.Warn("arm home failed", "error", err)
	}

	m.log.Info("mission complete",
		"mission_id", m.mctx.ID,
		"elapsed", m.clock.Since(m.mctx.Started),
		"approaches", m.mctx.Approaches,
		"grasp_attempts", m.mctx.GraspAttempts)
	m.notify(ctx, "Task complete!")
	m.mctx.Reset()
	return Success, nil
}
