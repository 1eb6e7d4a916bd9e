package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/teslashibe/go-atlas/pkg/camera"
	"github.com/teslashibe/go-atlas/pkg/navigation"
	"github.com/teslashibe/go-atlas/pkg/robot"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
	"golang.org/x/time/rate"
)

// Controller runs searches.
type Controller struct {
	cfg        Config
	perception detection.Perception
	drive      robot.Drivetrain
	obstacles  robot.ObstacleSensor
	clock      clock.Clock
	log        *slog.Logger
	feedback   *rate.Sometimes

	// OnFeedback, when set, receives throttled progress notices.
	OnFeedback func(msg string)
}

// New creates a search controller. drive and obstacles are only used in
// waypoint mode and may be nil for continuous search.
func New(cfg Config, perception detection.Perception, drive robot.Drivetrain, obstacles robot.ObstacleSensor, clk clock.Clock, logger *slog.Logger) (*Controller, error) {
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if cfg.Mode == Waypoint && (drive == nil || obstacles == nil) {
		return nil, errors.New("search: waypoint mode needs a drivetrain and obstacle sensor")
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:        cfg,
		perception: perception,
		drive:      drive,
		obstacles:  obstacles,
		clock:      clk,
		log:        logger.With("component", "search", "mode", string(cfg.Mode)),
		feedback:   &rate.Sometimes{Interval: cfg.FeedbackEvery},
	}, nil
}

// Mode returns the configured mode.
func (c *Controller) Mode() Mode {
	return c.cfg.Mode
}

// Run searches until the target is found or the search ends. trail receives
// every waypoint reached in waypoint mode and is ignored otherwise.
func (c *Controller) Run(ctx context.Context, cam camera.Reader, trail *navigation.Trail) Result {
	var res Result
	if c.cfg.Mode == Waypoint {
		res = c.runWaypoints(ctx, cam, trail)
	} else {
		res = c.runContinuous(ctx, cam)
	}
	c.log.Info("search finished",
		"outcome", res.Outcome.String(),
		"frames", res.Frames,
		"waypoints", res.Waypoints,
		"dropped", res.Dropped)
	return res
}

func (c *Controller) notify(msg string) {
	c.feedback.Do(func() {
		c.log.Info(msg)
		if c.OnFeedback != nil {
			c.OnFeedback(msg)
		}
	})
}

func (c *Controller) runContinuous(ctx context.Context, cam camera.Reader) Result {
	var res Result

	for {
		if err := ctx.Err(); err != nil {
			res.Outcome, res.Err = Aborted, err
			return res
		}

		frame, err := cam.Read(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				res.Outcome, res.Err = Aborted, ctx.Err()
				return res
			case camera.IsTransient(err):
				res.Dropped++
				c.pause()
				continue
			default:
				res.Outcome, res.Err = CameraError, err
				return res
			}
		}
		res.Frames++

		det, err := c.detect(ctx, frame)
		if err != nil {
			res.Outcome, res.Err = Aborted, err
			return res
		}
		if det != nil {
			res.Outcome, res.Detection = Found, det
			return res
		}

		c.notify("still searching")
		c.pause()
	}
}

func (c *Controller) runWaypoints(ctx context.Context, cam camera.Reader, trail *navigation.Trail) Result {
	var res Result

	path, err := navigation.Lawnmower(c.cfg.Area, c.cfg.Step)
	if err != nil {
		res.Outcome, res.Err = NotFound, err
		return res
	}
	c.log.Info("sweeping", "waypoints", len(path), "width", c.cfg.Area.Width, "height", c.cfg.Area.Height)

	for i, wp := range path {
		if err := ctx.Err(); err != nil {
			res.Outcome, res.Err = Aborted, err
			return res
		}

		clear, err := c.obstacles.IsClear(ctx, robot.Front)
		if err != nil {
			c.log.Warn("front sensor failed, treating as blocked", "error", err)
		}
		if err != nil || !clear {
			maneuver := c.Avoid(ctx)
			res.Avoided++
			c.log.Info("obstacle avoided", "waypoint", i, "maneuver", maneuver)
		}

		if err := c.drive.NavigateTo(ctx, wp.X, wp.Y); err != nil {
			c.log.Warn("navigate failed, skipping waypoint", "waypoint", i, "error", err)
			continue
		}
		res.Waypoints++
		if trail != nil {
			trail.Record(wp)
		}

		frame, err := cam.Read(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				res.Outcome, res.Err = Aborted, ctx.Err()
				return res
			case camera.IsTransient(err):
				res.Dropped++
				continue
			default:
				res.Outcome, res.Err = CameraError, err
				return res
			}
		}
		res.Frames++

		det, err := c.detect(ctx, frame)
		if err != nil {
			res.Outcome, res.Err = Aborted, err
			return res
		}
		if det != nil {
			res.Outcome, res.Detection = Found, det
			return res
		}
		c.notify(fmt.Sprintf("searched %d of %d waypoints", i+1, len(path)))
	}

	res.Outcome = NotFound
	return res
}

// detect runs perception. Detector faults count as "not found" for this
// frame; only cancellation is returned.
func (c *Controller) detect(ctx context.Context, frame camera.Frame) (*detection.Detection, error) {
	det, err := c.perception.Detect(ctx, frame)
	if err == nil {
		return det, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	c.log.Warn("detection failed", "error", err)
	return nil, nil
}

func (c *Controller) pause() {
	if c.cfg.PollInterval > 0 {
		c.clock.Sleep(c.cfg.PollInterval)
	}
}
