// Package detection provides target detection for the visual servo and
// search controllers.
//
// A Perception finds the single best match for the current Target in one
// frame. It is stateless per call: nothing carries over between frames.
package detection

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/teslashibe/go-atlas/pkg/camera"
)

// Unknown is the placeholder for an unspecified colour or type.
const Unknown = "unknown"

// ErrEmptyFrame is returned when a frame cannot be decoded.
var ErrEmptyFrame = errors.New("detection: empty frame")

// Detection is one frame's match for the current target.
type Detection struct {
	Centroid   image.Point     // pixel coordinates
	Bounds     image.Rectangle // bounding box in pixels
	Area       float64         // contour or box area in pixels²
	Confidence float64         // 0-1; 1 for colour-only matches
	Label      string          // class name or colour

	// Distance is the estimated range in centimetres. Valid only when
	// HasDistance is set; there is no estimate without a size prior.
	Distance    float64
	HasDistance bool
}

// DistanceCm returns the estimated distance, if known.
func (d Detection) DistanceCm() (float64, bool) {
	return d.Distance, d.HasDistance
}

// Target describes what to look for.
type Target struct {
	Description string
	Color       string
	ObjectType  string
}

// HasColor reports whether a specific colour was requested.
func (t Target) HasColor() bool {
	return known(t.Color)
}

// HasType reports whether a specific object type was requested.
func (t Target) HasType() bool {
	return known(t.ObjectType)
}

func known(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s != "" && s != Unknown
}

// Perception finds the current target in frames.
type Perception interface {
	// SetTarget replaces the current target.
	SetTarget(t Target)

	// Detect returns the best match in frame, or (nil, nil) when the target
	// is not visible.
	Detect(ctx context.Context, frame camera.Frame) (*Detection, error)

	// DistanceOf returns the range estimate for d, if a size prior exists.
	DistanceOf(d Detection) (float64, bool)
}

// SelectBest picks the best detection from multiple candidates.
// Priority: confidence * 0.7 + normalized area * 0.3.
func SelectBest(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}

	if len(dets) == 1 {
		return &dets[0]
	}

	// Find max area for normalization
	maxArea := 0.0
	for _, d := range dets {
		if d.Area > maxArea {
			maxArea = d.Area
		}
	}
	if maxArea == 0 {
		maxArea = 1
	}

	bestScore := -1.0
	var best *Detection

	for i := range dets {
		score := dets[i].Confidence*0.7 + (dets[i].Area/maxArea)*0.3
		if score > bestScore {
			bestScore = score
			best = &dets[i]
		}
	}

	return best
}

// polygonCentroid returns the area centroid of a closed contour, falling back
// to the bounding-box centre for degenerate shapes.
func polygonCentroid(pts []image.Point) image.Point {
	if len(pts) == 0 {
		return image.Point{}
	}

	var a, cx, cy float64
	for i := range pts {
		p, q := pts[i], pts[(i+1)%len(pts)]
		cross := float64(p.X*q.Y - q.X*p.Y)
		a += cross
		cx += float64(p.X+q.X) * cross
		cy += float64(p.Y+q.Y) * cross
	}

	if a == 0 {
		r := image.Rectangle{Min: pts[0], Max: pts[0]}
		for _, p := range pts[1:] {
			r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
		}
		return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
	}

	a *= 0.5
	return image.Pt(int(cx/(6*a)), int(cy/(6*a)))
}
