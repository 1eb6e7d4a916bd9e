package search

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-atlas/pkg/camera"
	"github.com/teslashibe/go-atlas/pkg/navigation"
	"github.com/teslashibe/go-atlas/pkg/robot"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
)

func testConfig(mode Mode) Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.PollInterval = 0
	cfg.Area = navigation.Area{Width: 2, Height: 1}
	return cfg
}

var hit = &detection.Detection{Centroid: image.Pt(320, 240), Distance: 25, HasDistance: true}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("waypoint")
	require.NoError(t, err)
	assert.Equal(t, Waypoint, m)

	_, err = ParseMode("spiral")
	assert.Error(t, err)
}

func TestNew_WaypointNeedsMobility(t *testing.T) {
	_, err := New(testConfig(Waypoint), detection.NewMock(), nil, nil, nil, nil)
	assert.Error(t, err)

	_, err = New(testConfig(Continuous), detection.NewMock(), nil, nil, nil, nil)
	assert.NoError(t, err)
}

func TestContinuous_FirstDetectionWins(t *testing.T) {
	perc := detection.NewMock(nil, nil, hit)
	c, err := New(testConfig(Continuous), perc, nil, nil, nil, nil)
	require.NoError(t, err)

	res := c.Run(context.Background(), camera.NewMock(), nil)
	assert.Equal(t, Found, res.Outcome)
	assert.Equal(t, 3, res.Frames)
	require.NotNil(t, res.Detection)
	assert.Equal(t, 25.0, res.Detection.Distance)
	assert.Equal(t, 3, perc.Calls())
}

func TestContinuous_SkipsDroppedFrames(t *testing.T) {
	cam := camera.NewMock()
	reads := 0
	cam.ReadFunc = func(context.Context) (camera.Frame, error) {
		reads++
		if reads <= 2 {
			return camera.Frame{}, camera.ErrFrameDropped
		}
		return camera.Frame{Width: 640, Height: 480}, nil
	}
	c, err := New(testConfig(Continuous), detection.NewMock(hit), nil, nil, nil, nil)
	require.NoError(t, err)

	res := c.Run(context.Background(), cam, nil)
	assert.Equal(t, Found, res.Outcome)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, 1, res.Frames)
}

func TestContinuous_CameraFailureIsFatal(t *testing.T) {
	cam := camera.NewMock()
	cam.ReadFunc = func(context.Context) (camera.Frame, error) {
		return camera.Frame{}, camera.ErrClosed
	}
	perc := detection.NewMock()
	c, err := New(testConfig(Continuous), perc, nil, nil, nil, nil)
	require.NoError(t, err)

	res := c.Run(context.Background(), cam, nil)
	assert.Equal(t, CameraError, res.Outcome)
	assert.ErrorIs(t, res.Err, camera.ErrClosed)
	assert.Equal(t, 0, perc.Calls(), "no retry after a fatal camera error")
}

func TestContinuous_Abort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	perc := &detection.Mock{DetectFunc: func(context.Context, camera.Frame) (*detection.Detection, error) {
		cancel()
		return nil, nil
	}}
	c, err := New(testConfig(Continuous), perc, nil, nil, nil, nil)
	require.NoError(t, err)

	res := c.Run(ctx, camera.NewMock(), nil)
	assert.Equal(t, Aborted, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestContinuous_DetectorErrorsAreNotFatal(t *testing.T) {
	calls := 0
	perc := &detection.Mock{DetectFunc: func(context.Context, camera.Frame) (*detection.Detection, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("bad jpeg")
		}
		return hit, nil
	}}
	c, err := New(testConfig(Continuous), perc, nil, nil, nil, nil)
	require.NoError(t, err)

	res := c.Run(context.Background(), camera.NewMock(), nil)
	assert.Equal(t, Found, res.Outcome)
	assert.Equal(t, 2, res.Frames)
}

func TestWaypoint_ExhaustsPathAndRecordsTrail(t *testing.T) {
	drive := robot.NewMock()
	trail := navigation.NewTrail()
	c, err := New(testConfig(Waypoint), detection.NewMock(), drive, drive, nil, nil)
	require.NoError(t, err)

	res := c.Run(context.Background(), camera.NewMock(), trail)
	assert.Equal(t, NotFound, res.Outcome)

	want, _ := navigation.Lawnmower(navigation.Area{Width: 2, Height: 1}, 0.5)
	assert.Equal(t, len(want), res.Waypoints)
	assert.Equal(t, want, trail.Points())
	assert.Equal(t, len(want), drive.Count("navigate"))
	assert.Equal(t, 0, res.Avoided)
}

func TestWaypoint_StopsAtFirstDetection(t *testing.T) {
	drive := robot.NewMock()
	trail := navigation.NewTrail()
	perc := detection.NewMock(nil, nil, hit)
	c, err := New(testConfig(Waypoint), perc, drive, drive, nil, nil)
	require.NoError(t, err)

	res := c.Run(context.Background(), camera.NewMock(), trail)
	assert.Equal(t, Found, res.Outcome)
	assert.Equal(t, 3, res.Waypoints)
	assert.Equal(t, []r2.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 0.5}}, trail.Points())
}

func TestWaypoint_AbortBetweenLegs(t *testing.T) {
	drive := robot.NewMock()
	ctx, cancel := context.WithCancel(context.Background())
	drive.NavigateToFunc = func(context.Context, float64, float64) error {
		cancel()
		return nil
	}
	trail := navigation.NewTrail()
	c, err := New(testConfig(Waypoint), detection.NewMock(), drive, drive, nil, nil)
	require.NoError(t, err)

	res := c.Run(ctx, camera.NewMock(), trail)
	assert.Equal(t, Aborted, res.Outcome)
	assert.Equal(t, 1, drive.Count("navigate"), "navigation already issued runs to completion")
}

func TestAvoid(t *testing.T) {
	tests := []struct {
		name     string
		left     bool
		right    bool
		want     string
		wantTurn string
	}{
		{"both clear prefers left", true, true, AvoidLeft, "left 45.0"},
		{"only left", true, false, AvoidLeft, "left 45.0"},
		{"only right", false, true, AvoidRight, "right 45.0"},
		{"boxed in", false, false, AvoidTurnAround, "right 180.0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			drive := robot.NewMock()
			drive.IsClearFunc = func(_ context.Context, dir robot.Direction) (bool, error) {
				switch dir {
				case robot.Left:
					return tc.left, nil
				case robot.Right:
					return tc.right, nil
				default:
					return false, nil
				}
			}
			c, err := New(testConfig(Waypoint), detection.NewMock(), drive, drive, nil, nil)
			require.NoError(t, err)

			got := c.Avoid(context.Background())
			assert.Equal(t, tc.want, got)
			assert.Equal(t, []string{
				"stop",
				"backward 500ms",
				"clear? left",
				"clear? right",
				tc.wantTurn,
			}, drive.Calls())
		})
	}
}

func TestWaypoint_BlockedLegTriggersAvoidance(t *testing.T) {
	drive := robot.NewMock()
	fronts := 0
	drive.IsClearFunc = func(_ context.Context, dir robot.Direction) (bool, error) {
		if dir == robot.Front {
			fronts++
			return fronts != 2, nil // second leg blocked
		}
		return true, nil
	}
	c, err := New(testConfig(Waypoint), detection.NewMock(), drive, drive, nil, nil)
	require.NoError(t, err)

	res := c.Run(context.Background(), camera.NewMock(), navigation.NewTrail())
	assert.Equal(t, NotFound, res.Outcome)
	assert.Equal(t, 1, res.Avoided)
	assert.Equal(t, 1, drive.Count("backward"))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "aborted", Aborted.String())
	assert.Equal(t, "camera_error", CameraError.String())
}
