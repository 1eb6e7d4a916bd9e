package atlas

import (
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/teslashibe/go-atlas/internal/config"
	"github.com/teslashibe/go-atlas/pkg/camera"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
)

// OpenCamera opens the configured device. A negative device yields blank
// frames so the simulator can run without hardware.
func OpenCamera(cc config.CameraConfig, clk clock.Clock, logger *slog.Logger) (camera.Source, error) {
	if cc.Device < 0 {
		logger.Warn("camera disabled, using blank frames", "device", cc.Device)
		m := camera.NewMock()
		m.Frame.Width, m.Frame.Height = cc.Width, cc.Height
		return m, nil
	}
	return camera.OpenGoCV(camera.Config{
		Device:    cc.Device,
		Width:     cc.Width,
		Height:    cc.Height,
		Framerate: cc.Framerate,
		Quality:   cc.Quality,
	}, clk)
}

// NewPerception builds the detection pipeline. A YOLO model that fails to
// load leaves colour-only detection in place.
func NewPerception(pc config.PerceptionConfig, logger *slog.Logger) *detection.Pipeline {
	var objects detection.ObjectDetector
	if pc.Detector == config.DetectorYOLO {
		yc := detection.DefaultYOLOConfig()
		yc.ModelPath = pc.ModelPath
		yc.ConfidenceThresh = float32(pc.Confidence)
		yolo, err := detection.NewYOLO(yc)
		if err != nil {
			logger.Warn("object detection disabled", "error", err)
		} else {
			objects = yolo
		}
	}

	cfg := detection.DefaultPipelineConfig()
	cfg.MinArea = pc.MinArea
	cfg.ColorMatch = pc.ColorMatch
	cfg.FocalLengthPx = pc.FocalLengthPx
	if len(pc.KnownWidthsCm) > 0 {
		cfg.KnownWidthsCm = pc.KnownWidthsCm
	}
	cfg.ColorRanges = colorRanges(pc.ColorRanges)
	return detection.NewPipeline(cfg, objects, logger)
}

// colorRanges converts validated config bands to detector ranges.
func colorRanges(in map[string][]config.ColorBand) map[string][]detection.HSVRange {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]detection.HSVRange, len(in))
	for name, bands := range in {
		for _, b := range bands {
			out[name] = append(out[name], detection.HSVRange{
				Lower: [3]float64(b.Lower),
				Upper: [3]float64(b.Upper),
			})
		}
	}
	return out
}
