package detection

import "strings"

// DefaultFocalLengthPx is the calibrated focal length for the 640x480 webcam.
const DefaultFocalLengthPx = 700.0

// DefaultKnownWidthsCm are real-world widths used for pinhole ranging.
var DefaultKnownWidthsCm = map[string]float64{
	"phone":  15,
	"book":   20,
	"pen":    1.5,
	"ball":   10,
	"cup":    8,
	"bottle": 7,
	"tool":   15,
	"box":    20,
}

// DistanceEstimator ranges objects with the pinhole model:
// distance = real_width * focal_length / pixel_width.
type DistanceEstimator struct {
	FocalLengthPx float64
	KnownWidthsCm map[string]float64
}

// NewDistanceEstimator copies widths so callers can't mutate it.
func NewDistanceEstimator(focal float64, widths map[string]float64) DistanceEstimator {
	if focal <= 0 {
		focal = DefaultFocalLengthPx
	}
	if widths == nil {
		widths = DefaultKnownWidthsCm
	}
	cp := make(map[string]float64, len(widths))
	for k, v := range widths {
		cp[strings.ToLower(k)] = v
	}
	return DistanceEstimator{FocalLengthPx: focal, KnownWidthsCm: cp}
}

// RealWidth looks up the size prior for objectType. COCO class names are
// mapped back to their short names ("cell phone" -> "phone").
func (e DistanceEstimator) RealWidth(objectType string) (float64, bool) {
	key := strings.ToLower(strings.TrimSpace(objectType))
	if w, ok := e.KnownWidthsCm[key]; ok && w > 0 {
		return w, true
	}
	for short, class := range cocoSynonyms {
		if class == key {
			if w, ok := e.KnownWidthsCm[short]; ok && w > 0 {
				return w, true
			}
		}
	}
	return 0, false
}

// Estimate returns the range in centimetres for an object spanning
// pixelWidth pixels. ok is false when no prior exists.
func (e DistanceEstimator) Estimate(objectType string, pixelWidth int) (float64, bool) {
	if pixelWidth <= 0 {
		return 0, false
	}
	w, ok := e.RealWidth(objectType)
	if !ok {
		return 0, false
	}
	return w * e.FocalLengthPx / float64(pixelWidth), true
}
