package robot

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
)

// SimConfig configures the simulated platform.
type SimConfig struct {
	BaseSpeed       float64 // m/s
	TurnRate        float64 // deg/s
	SafeDistance    float64 // m
	MinRange        float64 // simulated sensor minimum, m
	MaxRange        float64 // simulated sensor maximum, m
	GripSuccessRate float64 // probability a grasp holds, 0-1
	SimulateMotion  bool    // sleep for the duration of each motion
	Seed            int64
	ServoSettle     time.Duration
}

// DefaultSimConfig returns the simulator defaults.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		BaseSpeed:       0.5,
		TurnRate:        45,
		SafeDistance:    0.3,
		MinRange:        0.1,
		MaxRange:        2.0,
		GripSuccessRate: 1.0,
		SimulateMotion:  true,
		Seed:            1,
		ServoSettle:     100 * time.Millisecond,
	}
}

// navigateTurnThreshold is the heading error below which NavigateTo skips turning.
const navigateTurnThreshold = 5.0

// Sim is an in-process platform that tracks pose and arm state.
type Sim struct {
	cfg   SimConfig
	clock clock.Clock
	log   *slog.Logger

	mu       sync.Mutex
	pose     Pose
	armPose  string
	holding  bool
	moving   bool
	rng      *rand.Rand
	commands []string
}

// NewSim creates a simulated platform at the origin facing +x.
func NewSim(cfg SimConfig, clk clock.Clock, logger *slog.Logger) *Sim {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseSpeed <= 0 {
		cfg.BaseSpeed = 0.5
	}
	if cfg.TurnRate <= 0 {
		cfg.TurnRate = 45
	}
	if cfg.MaxRange <= cfg.MinRange {
		cfg.MaxRange = cfg.MinRange + 2
	}
	return &Sim{
		cfg:     cfg,
		clock:   clk,
		log:     logger.With("component", "robot.sim"),
		armPose: PoseHome,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Pose returns the current base pose.
func (s *Sim) Pose() Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pose
}

// ArmPose returns the current named arm pose.
func (s *Sim) ArmPose() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armPose
}

// Holding reports whether the gripper holds an object.
func (s *Sim) Holding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holding
}

// Commands returns the issued primitive log, oldest first.
func (s *Sim) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *Sim) record(format string, args ...any) {
	cmd := fmt.Sprintf(format, args...)
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()
	s.log.Debug("command", "cmd", cmd)
}

func (s *Sim) wait(d time.Duration) {
	if s.cfg.SimulateMotion && d > 0 {
		s.clock.Sleep(d)
	}
}

func (s *Sim) translate(dist float64) {
	s.mu.Lock()
	rad := s.pose.Heading * math.Pi / 180
	s.pose.Position = s.pose.Position.Add(r2.Point{X: math.Cos(rad), Y: math.Sin(rad)}.Mul(dist))
	s.mu.Unlock()
}

// MoveForward drives forward at base speed for d.
func (s *Sim) MoveForward(_ context.Context, d time.Duration) error {
	s.record("forward %s", d)
	s.setMoving(true)
	s.wait(d)
	s.translate(s.cfg.BaseSpeed * d.Seconds())
	s.setMoving(false)
	return nil
}

// MoveBackward drives backward at base speed for d.
func (s *Sim) MoveBackward(_ context.Context, d time.Duration) error {
	s.record("backward %s", d)
	s.setMoving(true)
	s.wait(d)
	s.translate(-s.cfg.BaseSpeed * d.Seconds())
	s.setMoving(false)
	return nil
}

// TurnLeft rotates counter-clockwise in place.
func (s *Sim) TurnLeft(_ context.Context, degrees float64) error {
	s.record("left %.1f", degrees)
	s.rotate(degrees)
	return nil
}

// TurnRight rotates clockwise in place.
func (s *Sim) TurnRight(_ context.Context, degrees float64) error {
	s.record("right %.1f", degrees)
	s.rotate(-degrees)
	return nil
}

func (s *Sim) rotate(delta float64) {
	s.setMoving(true)
	s.wait(time.Duration(math.Abs(delta) / s.cfg.TurnRate * float64(time.Second)))
	s.mu.Lock()
	s.pose.Heading = NormalizeDegrees(s.pose.Heading + delta)
	s.mu.Unlock()
	s.setMoving(false)
}

func (s *Sim) setMoving(v bool) {
	s.mu.Lock()
	s.moving = v
	s.mu.Unlock()
}

// Stop halts the drivetrain.
func (s *Sim) Stop(_ context.Context) error {
	s.record("stop")
	s.setMoving(false)
	return nil
}

// NavigateTo turns toward (x, y) and drives there in a straight line.
func (s *Sim) NavigateTo(ctx context.Context, x, y float64) error {
	target := r2.Point{X: x, Y: y}
	s.record("navigate %.2f,%.2f", x, y)

	pose := s.Pose()
	dist := target.Sub(pose.Position).Norm()
	if dist < 1e-6 {
		return nil
	}

	diff := NormalizeDegrees(Bearing(pose.Position, target) - pose.Heading)
	if math.Abs(diff) > navigateTurnThreshold {
		if diff > 0 {
			_ = s.TurnLeft(ctx, diff)
		} else {
			_ = s.TurnRight(ctx, -diff)
		}
	}

	_ = s.MoveForward(ctx, time.Duration(dist/s.cfg.BaseSpeed*float64(time.Second)))

	// Snap to the target so rounding does not accumulate across legs.
	s.mu.Lock()
	s.pose.Position = target
	s.mu.Unlock()
	return nil
}

func (s *Sim) moveArm(pose string) {
	s.mu.Lock()
	s.armPose = pose
	s.mu.Unlock()
	s.wait(s.cfg.ServoSettle)
}

// Grasp runs ready_to_grab, grab, lift. Whether the grip holds is decided by
// GripSuccessRate.
func (s *Sim) Grasp(_ context.Context) error {
	s.record("grasp")
	s.moveArm(PoseReadyToGrab)
	s.moveArm(PoseGrab)

	s.mu.Lock()
	s.holding = s.rng.Float64() < s.cfg.GripSuccessRate
	s.mu.Unlock()

	s.moveArm(PoseLift)
	return nil
}

// CheckGrip reports the gripper state.
func (s *Sim) CheckGrip(_ context.Context) (bool, error) {
	s.record("check_grip")
	return s.Holding(), nil
}

// Release opens the gripper.
func (s *Sim) Release(_ context.Context) error {
	s.record("release")
	s.mu.Lock()
	s.holding = false
	s.mu.Unlock()
	s.wait(s.cfg.ServoSettle)
	return nil
}

// Present moves the arm to the hand-over pose.
func (s *Sim) Present(_ context.Context) error {
	s.record("present")
	s.moveArm(PosePresent)
	return nil
}

// ReturnHome moves the arm to its rest pose.
func (s *Sim) ReturnHome(_ context.Context) error {
	s.record("home")
	s.moveArm(PoseHome)
	return nil
}

// Distance simulates an ultrasonic reading in meters.
func (s *Sim) Distance(dir Direction) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.MinRange + s.rng.Float64()*(s.cfg.MaxRange-s.cfg.MinRange)
}

// IsClear reports whether the reading exceeds the safe distance.
func (s *Sim) IsClear(_ context.Context, dir Direction) (bool, error) {
	d := s.Distance(dir)
	clear := d > s.cfg.SafeDistance
	if !clear {
		s.log.Info("obstacle detected", "sensor", dir.String(), "distance_m", d)
	}
	return clear, nil
}
