package tracking

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/teslashibe/go-atlas/pkg/camera"
	"github.com/teslashibe/go-atlas/pkg/robot"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SettleDelay = 0
	cfg.MaxIterations = 10
	return cfg
}

func newServo(t *testing.T, cfg Config, perc detection.Perception, drive robot.Drivetrain) *Servo {
	t.Helper()
	s, err := New(cfg, perc, drive, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func at(x int, dist float64) *detection.Detection {
	return &detection.Detection{
		Centroid:    image.Pt(x, 240),
		Bounds:      image.Rect(x-20, 220, x+20, 260),
		Distance:    dist,
		HasDistance: dist > 0,
	}
}

func TestApproach_ReachedImmediately(t *testing.T) {
	drive := robot.NewMock()
	perc := detection.NewMock(at(320, 25))
	s := newServo(t, testConfig(), perc, drive)

	res := s.Approach(context.Background(), camera.NewMock())
	if res.Outcome != Reached || res.Iterations != 1 {
		t.Fatalf("result = %+v, want reached on iteration 1", res)
	}
	if drive.Count("forward") != 0 || drive.Count("left") != 0 || drive.Count("right") != 0 {
		t.Errorf("no motion expected, got %v", drive.Calls())
	}
	if drive.Count("stop") != 1 {
		t.Errorf("stop count = %d, want 1", drive.Count("stop"))
	}
}

func TestApproach_TurnsThenDrivesThenReaches(t *testing.T) {
	drive := robot.NewMock()
	perc := detection.NewMock(
		at(520, 120), // 200px right -> turn right 20
		at(330, 80),  // centred -> forward
		at(320, 30),  // at threshold -> reached
	)
	s := newServo(t, testConfig(), perc, drive)

	res := s.Approach(context.Background(), camera.NewMock())
	if res.Outcome != Reached || res.Iterations != 3 {
		t.Fatalf("result = %+v", res)
	}

	want := []string{"right 20.0", "forward 500ms", "stop"}
	got := drive.Calls()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestApproach_LostTargetOnIterationThree(t *testing.T) {
	drive := robot.NewMock()
	perc := detection.NewMock(at(320, 100), at(320, 90), nil, at(320, 10))
	s := newServo(t, testConfig(), perc, drive)

	res := s.Approach(context.Background(), camera.NewMock())
	if res.Outcome != LostTarget {
		t.Fatalf("outcome = %s, want lost_target", res.Outcome)
	}
	if res.Iterations != 3 {
		t.Errorf("iterations = %d, want 3", res.Iterations)
	}
	if perc.Calls() != 3 {
		t.Errorf("detect calls = %d, want 3 (no coasting)", perc.Calls())
	}
	calls := drive.Calls()
	if calls[len(calls)-1] != "stop" {
		t.Errorf("last call = %q, want stop", calls[len(calls)-1])
	}
}

func TestApproach_TimeoutWithoutDistance(t *testing.T) {
	drive := robot.NewMock()
	perc := &detection.Mock{Default: at(320, 0)} // never has a distance
	cfg := testConfig()
	cfg.MaxIterations = 4
	s := newServo(t, cfg, perc, drive)

	res := s.Approach(context.Background(), camera.NewMock())
	if res.Outcome != Timeout || res.Iterations != 4 {
		t.Fatalf("result = %+v, want timeout after 4", res)
	}
	if drive.Count("forward") != 4 {
		t.Errorf("forward count = %d, want 4", drive.Count("forward"))
	}
	if drive.Count("stop") != 1 {
		t.Errorf("stop count = %d, want 1", drive.Count("stop"))
	}
}

func TestApproach_Aborted(t *testing.T) {
	drive := robot.NewMock()
	ctx, cancel := context.WithCancel(context.Background())
	perc := &detection.Mock{DetectFunc: func(context.Context, camera.Frame) (*detection.Detection, error) {
		cancel()
		return at(600, 200), nil
	}}
	s := newServo(t, testConfig(), perc, drive)

	res := s.Approach(ctx, camera.NewMock())
	if res.Outcome != Aborted {
		t.Fatalf("outcome = %s, want aborted", res.Outcome)
	}
	if drive.Count("stop") != 1 {
		t.Errorf("aborted approach must stop, calls %v", drive.Calls())
	}
}

func TestApproach_CameraFailureLosesTarget(t *testing.T) {
	drive := robot.NewMock()
	cam := camera.NewMock()
	cam.ReadFunc = func(context.Context) (camera.Frame, error) {
		return camera.Frame{}, camera.ErrClosed
	}
	s := newServo(t, testConfig(), detection.NewMock(), drive)

	res := s.Approach(context.Background(), cam)
	if res.Outcome != LostTarget || !errors.Is(res.Err, camera.ErrClosed) {
		t.Fatalf("result = %+v", res)
	}
}

func TestApproach_ActuationFault(t *testing.T) {
	drive := robot.NewMock()
	drive.MoveForwardFunc = func(context.Context, time.Duration) error {
		return errors.New("motor stalled")
	}
	s := newServo(t, testConfig(), &detection.Mock{Default: at(320, 100)}, drive)

	res := s.Approach(context.Background(), camera.NewMock())
	if res.Outcome != Fault || res.Err == nil {
		t.Fatalf("result = %+v, want fault", res)
	}
	if drive.Count("stop") != 1 {
		t.Errorf("fault must stop, calls %v", drive.Calls())
	}
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{
		Reached: "reached", LostTarget: "lost_target", Timeout: "timeout", Aborted: "aborted", Fault: "fault",
	} {
		if o.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(o), o.String(), want)
		}
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative gain", func(c *Config) { c.TurnGain = -0.2 }},
		{"zero forward step", func(c *Config) { c.ForwardDuration = 0 }},
		{"no iterations", func(c *Config) { c.MaxIterations = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if s, err := New(cfg, detection.NewMock(), robot.NewMock(), nil, nil); err == nil || s != nil {
				t.Errorf("New accepted %+v", cfg)
			}
		})
	}
}
