package detection

import (
	"fmt"
	"image"
	"strings"

	"gocv.io/x/gocv"
)

// HSVRange is an inclusive OpenCV HSV band (H 0-180, S and V 0-255).
type HSVRange struct {
	Lower [3]float64
	Upper [3]float64
}

// DefaultColorRanges maps colour names to HSV bands. Red wraps around the
// hue circle so it needs two.
var DefaultColorRanges = map[string][]HSVRange{
	"red": {
		{Lower: [3]float64{0, 50, 50}, Upper: [3]float64{10, 255, 255}},
		{Lower: [3]float64{170, 50, 50}, Upper: [3]float64{180, 255, 255}},
	},
	"blue":   {{Lower: [3]float64{90, 50, 50}, Upper: [3]float64{130, 255, 255}}},
	"green":  {{Lower: [3]float64{35, 40, 40}, Upper: [3]float64{85, 255, 255}}},
	"yellow": {{Lower: [3]float64{20, 80, 80}, Upper: [3]float64{35, 255, 255}}},
	"orange": {{Lower: [3]float64{8, 80, 80}, Upper: [3]float64{25, 255, 255}}},
	"purple": {{Lower: [3]float64{125, 50, 50}, Upper: [3]float64{165, 255, 255}}},
	"pink":   {{Lower: [3]float64{140, 50, 50}, Upper: [3]float64{175, 255, 255}}},
	"white":  {{Lower: [3]float64{0, 0, 180}, Upper: [3]float64{180, 40, 255}}},
	"black":  {{Lower: [3]float64{0, 0, 0}, Upper: [3]float64{180, 255, 40}}},
}

// ColorDetector finds coloured blobs with HSV thresholding.
type ColorDetector struct {
	Ranges  map[string][]HSVRange
	MinArea float64
}

// NewColorDetector creates a detector using DefaultColorRanges.
func NewColorDetector(minArea float64) *ColorDetector {
	return &ColorDetector{Ranges: DefaultColorRanges, MinArea: minArea}
}

// MergeColorRanges returns base with each colour in overrides replaced or
// added. Names are lower-cased. Neither input is modified.
func MergeColorRanges(base, overrides map[string][]HSVRange) map[string][]HSVRange {
	out := make(map[string][]HSVRange, len(base)+len(overrides))
	for name, bands := range base {
		out[strings.ToLower(name)] = bands
	}
	for name, bands := range overrides {
		if len(bands) == 0 {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(name))] = append([]HSVRange(nil), bands...)
	}
	return out
}

// Supports reports whether color has an HSV range.
func (c *ColorDetector) Supports(color string) bool {
	_, ok := c.Ranges[strings.ToLower(color)]
	return ok
}

// mask returns the binary mask of img (BGR) pixels inside color's bands.
// The caller must close the returned Mat.
func (c *ColorDetector) mask(img gocv.Mat, color string) (gocv.Mat, error) {
	bands, ok := c.Ranges[strings.ToLower(color)]
	if !ok || len(bands) == 0 {
		return gocv.Mat{}, fmt.Errorf("detection: no HSV range for colour %q", color)
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	out := gocv.NewMat()
	band := gocv.NewMat()
	defer band.Close()

	for i, r := range bands {
		lo := gocv.NewScalar(r.Lower[0], r.Lower[1], r.Lower[2], 0)
		hi := gocv.NewScalar(r.Upper[0], r.Upper[1], r.Upper[2], 0)
		if i == 0 {
			gocv.InRangeWithScalar(hsv, lo, hi, &out)
			continue
		}
		gocv.InRangeWithScalar(hsv, lo, hi, &band)
		gocv.BitwiseOr(out, band, &out)
	}
	return out, nil
}

// Find returns the largest blob of color above MinArea, or nil.
func (c *ColorDetector) Find(img gocv.Mat, color string) (*Detection, error) {
	mask, err := c.mask(img, color)
	if err != nil {
		return nil, err
	}
	defer mask.Close()

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best := -1
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 || bestArea <= c.MinArea {
		return nil, nil
	}

	contour := contours.At(best)
	return &Detection{
		Centroid:   polygonCentroid(contour.ToPoints()),
		Bounds:     gocv.BoundingRect(contour),
		Area:       bestArea,
		Confidence: 1,
		Label:      strings.ToLower(color),
	}, nil
}

// Match reports whether at least threshold of the pixels inside box fall in
// color's bands. An unspecified colour always matches.
func (c *ColorDetector) Match(img gocv.Mat, box image.Rectangle, color string, threshold float64) bool {
	if !known(color) {
		return true
	}
	if !c.Supports(color) {
		return true
	}

	box = box.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	if box.Empty() {
		return false
	}

	roi := img.Region(box)
	defer roi.Close()

	mask, err := c.mask(roi, color)
	if err != nil {
		return false
	}
	defer mask.Close()

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return false
	}
	return float64(gocv.CountNonZero(mask))/float64(total) > threshold
}
