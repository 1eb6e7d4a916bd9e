package detection

import (
	"math"
	"testing"
)

func TestDistanceEstimator(t *testing.T) {
	e := NewDistanceEstimator(700, nil)

	tests := []struct {
		name       string
		objectType string
		pixelWidth int
		want       float64
		wantOK     bool
	}{
		{"box at 20cm width", "box", 560, 25, true},
		{"cup", "cup", 80, 70, true},
		{"coco class name", "cell phone", 150, 70, true},
		{"case insensitive", "BOOK", 700, 20, true},
		{"no prior", "giraffe", 100, 0, false},
		{"unknown type", Unknown, 100, 0, false},
		{"zero width", "box", 0, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := e.Estimate(tc.objectType, tc.pixelWidth)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("distance = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewDistanceEstimator_CopiesWidths(t *testing.T) {
	widths := map[string]float64{"Widget": 5}
	e := NewDistanceEstimator(0, widths)
	widths["Widget"] = 50

	if e.FocalLengthPx != DefaultFocalLengthPx {
		t.Errorf("focal = %v, want default", e.FocalLengthPx)
	}
	if w, ok := e.RealWidth("widget"); !ok || w != 5 {
		t.Errorf("RealWidth(widget) = %v, %v", w, ok)
	}
}
