package detection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-atlas/pkg/camera"
)

// ErrNoSamples is returned when calibration never saw the target.
var ErrNoSamples = errors.New("detection: target never detected during calibration")

// FocalLength inverts the pinhole model for an object of realWidthCm seen
// pixelWidth pixels wide at distanceCm.
func FocalLength(pixelWidth int, distanceCm, realWidthCm float64) (float64, error) {
	if pixelWidth <= 0 {
		return 0, fmt.Errorf("detection: pixel width must be positive, got %d", pixelWidth)
	}
	if distanceCm <= 0 || realWidthCm <= 0 {
		return 0, fmt.Errorf("detection: distance and width must be positive, got %v cm and %v cm", distanceCm, realWidthCm)
	}
	return float64(pixelWidth) * distanceCm / realWidthCm, nil
}

// CalibrationConfig describes one focal-length calibration run. The target
// must already be set on the Perception passed to Calibrate.
type CalibrationConfig struct {
	DistanceCm  float64 // camera to object
	RealWidthCm float64 // physical object width
	Samples     int     // detections to average
	MaxFrames   int     // give up after this many frames
}

// Calibration is the outcome of Calibrate.
type Calibration struct {
	PixelWidths []int
	Frames      int
	FocalPx     float64 // mean over PixelWidths
}

// Calibrate reads frames from cam until cfg.Samples detections have been
// measured or cfg.MaxFrames frames were read, and averages the focal length.
// Dropped frames and detector errors are skipped.
func Calibrate(ctx context.Context, cam camera.Reader, perc Perception, cfg CalibrationConfig, logger *slog.Logger) (Calibration, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "calibrate")

	if _, err := FocalLength(1, cfg.DistanceCm, cfg.RealWidthCm); err != nil {
		return Calibration{}, err
	}
	if cfg.Samples < 1 {
		cfg.Samples = 1
	}
	if cfg.MaxFrames < cfg.Samples {
		cfg.MaxFrames = cfg.Samples
	}

	var cal Calibration
	var sum float64
	for cal.Frames < cfg.MaxFrames && len(cal.PixelWidths) < cfg.Samples {
		if err := ctx.Err(); err != nil {
			return cal, err
		}
		frame, err := cam.Read(ctx)
		cal.Frames++
		if err != nil {
			if camera.IsTransient(err) {
				continue
			}
			return cal, fmt.Errorf("detection: calibration read: %w", err)
		}

		det, err := perc.Detect(ctx, frame)
		if err != nil {
			log.Debug("detect failed", "frame", cal.Frames, "error", err)
			continue
		}
		if det == nil || det.Bounds.Dx() <= 0 {
			continue
		}

		px := det.Bounds.Dx()
		f, _ := FocalLength(px, cfg.DistanceCm, cfg.RealWidthCm)
		cal.PixelWidths = append(cal.PixelWidths, px)
		sum += f
		log.Info("calibration sample", "pixel_width", px, "focal_px", f)
	}

	if len(cal.PixelWidths) == 0 {
		return cal, ErrNoSamples
	}
	cal.FocalPx = sum / float64(len(cal.PixelWidths))
	return cal, nil
}
