package detection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/teslashibe/go-atlas/pkg/camera"
	"gocv.io/x/gocv"
)

var _ ObjectDetector = (*YOLODetector)(nil)

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	MinArea       float64            // smallest colour blob accepted, px²
	ColorMatch    float64            // fraction of box pixels that must match the colour
	FocalLengthPx float64            // for distance estimation
	KnownWidthsCm map[string]float64 // size priors
	DefaultColor  string             // colour used when none was requested and no object detector is set

	// ColorRanges overrides or extends DefaultColorRanges per colour.
	ColorRanges map[string][]HSVRange
}

// DefaultPipelineConfig returns the tuned defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MinArea:       500,
		ColorMatch:    0.15,
		FocalLengthPx: DefaultFocalLengthPx,
		KnownWidthsCm: DefaultKnownWidthsCm,
		DefaultColor:  "red",
	}
}

// Pipeline implements Perception. With an object detector it finds the
// requested class and filters by colour; without one it falls back to
// colour-only blob detection.
type Pipeline struct {
	objects  ObjectDetector
	colors   *ColorDetector
	distance DistanceEstimator
	cfg      PipelineConfig
	log      *slog.Logger

	mu     sync.RWMutex
	target Target
}

// NewPipeline creates a pipeline. objects may be nil.
func NewPipeline(cfg PipelineConfig, objects ObjectDetector, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultColor == "" {
		cfg.DefaultColor = "red"
	}
	colors := NewColorDetector(cfg.MinArea)
	colors.Ranges = MergeColorRanges(DefaultColorRanges, cfg.ColorRanges)
	return &Pipeline{
		objects:  objects,
		colors:   colors,
		distance: NewDistanceEstimator(cfg.FocalLengthPx, cfg.KnownWidthsCm),
		cfg:      cfg,
		log:      logger.With("component", "perception"),
	}
}

// SetTarget replaces the current target.
func (p *Pipeline) SetTarget(t Target) {
	t.Color = strings.ToLower(strings.TrimSpace(t.Color))
	t.ObjectType = strings.ToLower(strings.TrimSpace(t.ObjectType))

	p.mu.Lock()
	p.target = t
	p.mu.Unlock()

	p.log.Info("target set", "object", t.ObjectType, "color", t.Color, "description", t.Description)
	if p.objects == nil && t.HasColor() && !p.colors.Supports(t.Color) {
		p.log.Warn("no HSV range for requested colour, target cannot be detected", "color", t.Color)
	}
}

// HasObjectDetector reports whether class detection is available.
func (p *Pipeline) HasObjectDetector() bool {
	return p.objects != nil
}

// Target returns the current target.
func (p *Pipeline) Target() Target {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.target
}

// Detect decodes frame and returns the best match for the current target.
func (p *Pipeline) Detect(ctx context.Context, frame camera.Frame) (*Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(frame.Data) == 0 {
		return nil, ErrEmptyFrame
	}

	img, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("detection: decode frame: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, ErrEmptyFrame
	}

	return p.DetectMat(img)
}

// DetectMat runs detection on an already decoded BGR image.
func (p *Pipeline) DetectMat(img gocv.Mat) (*Detection, error) {
	target := p.Target()

	var det *Detection
	var err error
	if p.objects != nil {
		det, err = p.detectObjects(img, target)
	} else {
		det, err = p.detectColor(img, target)
	}
	if err != nil || det == nil {
		return nil, err
	}

	typ := target.ObjectType
	if !target.HasType() {
		typ = det.Label
	}
	det.Distance, det.HasDistance = p.distance.Estimate(typ, det.Bounds.Dx())
	return det, nil
}

func (p *Pipeline) detectObjects(img gocv.Mat, target Target) (*Detection, error) {
	all, err := p.objects.Detect(img)
	if err != nil {
		return nil, err
	}

	var candidates []Detection
	for _, od := range FilterClass(all, target.ObjectType) {
		if !p.colors.Match(img, od.Box, target.Color, p.cfg.ColorMatch) {
			continue
		}
		candidates = append(candidates, Detection{
			Centroid:   od.Box.Min.Add(od.Box.Size().Div(2)),
			Bounds:     od.Box,
			Area:       float64(od.Box.Dx() * od.Box.Dy()),
			Confidence: od.Confidence,
			Label:      od.ClassName,
		})
	}

	best := SelectBest(candidates)
	if best == nil {
		return nil, nil
	}
	out := *best
	return &out, nil
}

func (p *Pipeline) detectColor(img gocv.Mat, target Target) (*Detection, error) {
	if !target.HasColor() {
		return p.colors.Find(img, p.cfg.DefaultColor)
	}
	if !p.colors.Supports(target.Color) {
		return nil, nil
	}
	return p.colors.Find(img, target.Color)
}

// DistanceOf returns the range estimate for d.
func (p *Pipeline) DistanceOf(d Detection) (float64, bool) {
	if d.HasDistance {
		return d.Distance, true
	}
	typ := p.Target().ObjectType
	if !known(typ) {
		typ = d.Label
	}
	return p.distance.Estimate(typ, d.Bounds.Dx())
}

// Close releases the object detector, if any.
func (p *Pipeline) Close() error {
	if p.objects == nil {
		return nil
	}
	return p.objects.Close()
}
