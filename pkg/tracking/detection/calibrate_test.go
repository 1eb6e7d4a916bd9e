package detection

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/teslashibe/go-atlas/pkg/camera"
)

func TestFocalLength(t *testing.T) {
	// Inverse of Estimate: 20 cm box at 175 cm spanning 80 px -> f = 700.
	f, err := FocalLength(80, 175, 20)
	if err != nil {
		t.Fatalf("FocalLength: %v", err)
	}
	if math.Abs(f-700) > 1e-9 {
		t.Errorf("f = %v, want 700", f)
	}

	e := NewDistanceEstimator(f, map[string]float64{"box": 20})
	if d, ok := e.Estimate("box", 80); !ok || math.Abs(d-175) > 1e-9 {
		t.Errorf("round trip distance = %v (ok=%v), want 175", d, ok)
	}

	for _, bad := range []struct {
		px   int
		d, w float64
	}{{0, 30, 6.5}, {100, 0, 6.5}, {100, 30, -1}} {
		if _, err := FocalLength(bad.px, bad.d, bad.w); err == nil {
			t.Errorf("FocalLength(%d, %v, %v) should fail", bad.px, bad.d, bad.w)
		}
	}
}

func box(width int) *Detection {
	return &Detection{Bounds: image.Rect(100, 100, 100+width, 150)}
}

func TestCalibrate_AveragesSamples(t *testing.T) {
	perc := NewMock(nil, box(60), box(70), nil, box(80))
	cfg := CalibrationConfig{DistanceCm: 30, RealWidthCm: 6, Samples: 3, MaxFrames: 10}

	cal, err := Calibrate(context.Background(), camera.NewMock(), perc, cfg, nil)
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if cal.Frames != 5 {
		t.Errorf("frames = %d, want 5", cal.Frames)
	}
	if len(cal.PixelWidths) != 3 {
		t.Fatalf("samples = %v, want 3", cal.PixelWidths)
	}
	// mean of 60, 70, 80 px * 30 / 6
	if math.Abs(cal.FocalPx-350) > 1e-9 {
		t.Errorf("focal = %v, want 350", cal.FocalPx)
	}
}

func TestCalibrate_SkipsDroppedFramesAndDetectorErrors(t *testing.T) {
	reads := 0
	cam := camera.NewMock()
	cam.ReadFunc = func(ctx context.Context) (camera.Frame, error) {
		reads++
		if reads == 1 {
			return camera.Frame{}, camera.ErrFrameDropped
		}
		return camera.Frame{Width: 640, Height: 480}, nil
	}
	detects := 0
	perc := &Mock{DetectFunc: func(ctx context.Context, f camera.Frame) (*Detection, error) {
		detects++
		if detects == 1 {
			return nil, errors.New("decode failed")
		}
		return box(100), nil
	}}

	cal, err := Calibrate(context.Background(), cam, perc, CalibrationConfig{DistanceCm: 50, RealWidthCm: 10, Samples: 1}, nil)
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if cal.Frames != 3 || math.Abs(cal.FocalPx-500) > 1e-9 {
		t.Errorf("cal = %+v, want 3 frames and focal 500", cal)
	}
}

func TestCalibrate_Failures(t *testing.T) {
	ctx := context.Background()
	cfg := CalibrationConfig{DistanceCm: 30, RealWidthCm: 6, Samples: 2, MaxFrames: 4}

	cal, err := Calibrate(ctx, camera.NewMock(), NewMock(), cfg, nil)
	if !errors.Is(err, ErrNoSamples) || cal.Frames != 4 {
		t.Errorf("never seen: cal=%+v err=%v", cal, err)
	}

	cam := camera.NewMock()
	cam.Close()
	if _, err := Calibrate(ctx, cam, NewMock(box(10)), cfg, nil); !errors.Is(err, camera.ErrClosed) {
		t.Errorf("closed camera: err = %v, want ErrClosed", err)
	}

	bad := cfg
	bad.RealWidthCm = 0
	if _, err := Calibrate(ctx, camera.NewMock(), NewMock(box(10)), bad, nil); err == nil {
		t.Error("zero width should be rejected")
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Calibrate(cctx, camera.NewMock(), NewMock(), cfg, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v", err)
	}
}
