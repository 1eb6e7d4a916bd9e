package detection

import (
	"image"
	"testing"
)

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name       string
		detections []Detection
		expectNil  bool
		expectIdx  int // Expected index of best detection
	}{
		{
			name:       "empty list",
			detections: []Detection{},
			expectNil:  true,
		},
		{
			name: "single detection",
			detections: []Detection{
				{Area: 400, Confidence: 0.9},
			},
			expectIdx: 0,
		},
		{
			name: "high confidence beats larger area",
			detections: []Detection{
				{Area: 1600, Confidence: 0.5, Label: "big"},
				{Area: 400, Confidence: 0.95, Label: "sure"},
			},
			expectIdx: 1, // 0.95*0.7 + 0.25*0.3 = 0.74 vs 0.5*0.7 + 1.0*0.3 = 0.65
		},
		{
			name: "similar confidence picks larger",
			detections: []Detection{
				{Area: 2500, Confidence: 0.8, Label: "big"},
				{Area: 100, Confidence: 0.8, Label: "small"},
			},
			expectIdx: 0,
		},
		{
			name: "zero areas fall back to confidence",
			detections: []Detection{
				{Confidence: 0.2, Label: "a"},
				{Confidence: 0.6, Label: "b"},
			},
			expectIdx: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			best := SelectBest(tc.detections)
			if tc.expectNil {
				if best != nil {
					t.Errorf("SelectBest: expected nil, got %+v", best)
				}
				return
			}

			if best == nil {
				t.Fatal("SelectBest: expected non-nil, got nil")
			}

			expected := &tc.detections[tc.expectIdx]
			if best != expected {
				t.Errorf("SelectBest: got %+v, want %+v", best, expected)
			}
		})
	}
}

func TestPolygonCentroid(t *testing.T) {
	tests := []struct {
		name string
		pts  []image.Point
		want image.Point
	}{
		{
			name: "square",
			pts:  []image.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
			want: image.Pt(5, 5),
		},
		{
			name: "offset rectangle",
			pts:  []image.Point{{100, 50}, {140, 50}, {140, 70}, {100, 70}},
			want: image.Pt(120, 60),
		},
		{
			name: "degenerate line",
			pts:  []image.Point{{0, 0}, {10, 0}},
			want: image.Pt(5, 0),
		},
		{
			name: "empty",
			pts:  nil,
			want: image.Point{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := polygonCentroid(tc.pts); got != tc.want {
				t.Errorf("polygonCentroid = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTargetKnownFields(t *testing.T) {
	tests := []struct {
		target    Target
		wantColor bool
		wantType  bool
	}{
		{Target{Color: "red", ObjectType: "box"}, true, true},
		{Target{Color: "unknown", ObjectType: "Unknown"}, false, false},
		{Target{Color: " ", ObjectType: ""}, false, false},
		{Target{Color: "Blue"}, true, false},
	}
	for _, tc := range tests {
		if got := tc.target.HasColor(); got != tc.wantColor {
			t.Errorf("%+v HasColor = %v", tc.target, got)
		}
		if got := tc.target.HasType(); got != tc.wantType {
			t.Errorf("%+v HasType = %v", tc.target, got)
		}
	}
}

func TestClassMatches(t *testing.T) {
	tests := []struct {
		objectType string
		className  string
		want       bool
	}{
		{"phone", "cell phone", true},
		{"ball", "sports ball", true},
		{"cup", "cup", true},
		{"bottle", "cup", false},
		{"unknown", "person", true},
		{"", "book", true},
		{"Book", "book", true},
		{"mug", "cup", true},
	}
	for _, tc := range tests {
		if got := ClassMatches(tc.objectType, tc.className); got != tc.want {
			t.Errorf("ClassMatches(%q, %q) = %v, want %v", tc.objectType, tc.className, got, tc.want)
		}
	}
}

func TestFilterClass(t *testing.T) {
	dets := []ObjectDetection{
		{ClassName: "cell phone"},
		{ClassName: "cup"},
		{ClassName: "book"},
	}
	got := FilterClass(dets, "phone")
	if len(got) != 1 || got[0].ClassName != "cell phone" {
		t.Errorf("FilterClass(phone) = %+v", got)
	}
	if len(FilterClass(dets, "unknown")) != 3 {
		t.Error("unknown type should keep all detections")
	}
}

func TestDefaultYOLOConfig(t *testing.T) {
	cfg := DefaultYOLOConfig()

	if cfg.ModelPath == "" {
		t.Error("DefaultYOLOConfig: ModelPath should not be empty")
	}
	if cfg.ConfidenceThresh <= 0 || cfg.ConfidenceThresh > 1 {
		t.Errorf("DefaultYOLOConfig: ConfidenceThresh should be 0-1, got %f", cfg.ConfidenceThresh)
	}
	if cfg.InputWidth <= 0 || cfg.InputHeight <= 0 {
		t.Errorf("DefaultYOLOConfig: input size should be positive, got %dx%d", cfg.InputWidth, cfg.InputHeight)
	}
}

func TestNewYOLO_MissingModel(t *testing.T) {
	cfg := DefaultYOLOConfig()
	cfg.ModelPath = "/nonexistent/yolo.onnx"
	if _, err := NewYOLO(cfg); err == nil {
		t.Error("expected error for missing model")
	}
}

func TestDecodeYOLOv8(t *testing.T) {
	// 3 anchors, 4 box channels + 2 classes, channel-major.
	const anchors = 3
	data := []float32{
		/* cx */ 100, 300, 50,
		/* cy */ 100, 200, 50,
		/* w  */ 40, 20, 10,
		/* h  */ 20, 20, 10,
		/* c0 */ 0.9, 0.1, 0.2,
		/* c1 */ 0.3, 0.7, 0.4,
	}

	got := decodeYOLOv8(data, 6, anchors, 0.5, 0.5, 1)
	if len(got) != 2 {
		t.Fatalf("decodeYOLOv8: got %d candidates, want 2 (third is below threshold)", len(got))
	}

	if got[0].class != 0 || got[0].score != 0.9 {
		t.Errorf("anchor 0: class=%d score=%v, want class 0 score 0.9", got[0].class, got[0].score)
	}
	if want := image.Rect(40, 90, 60, 110); got[0].box != want {
		t.Errorf("anchor 0: box=%v, want %v", got[0].box, want)
	}
	if got[1].class != 1 {
		t.Errorf("anchor 1: class=%d, want 1", got[1].class)
	}
	if want := image.Rect(145, 190, 155, 210); got[1].box != want {
		t.Errorf("anchor 1: box=%v, want %v", got[1].box, want)
	}
}

func TestDecodeYOLOv8_ShortBuffer(t *testing.T) {
	if got := decodeYOLOv8(make([]float32, 5), 6, 3, 0.1, 1, 1); got != nil {
		t.Errorf("short buffer should decode to nothing, got %v", got)
	}
	if got := decodeYOLOv8(nil, 4, 3, 0.1, 1, 1); got != nil {
		t.Errorf("no class channels should decode to nothing, got %v", got)
	}
}

func TestClassName(t *testing.T) {
	if got := className(67); got != "cell phone" {
		t.Errorf("className(67) = %q, want cell phone", got)
	}
	if got := className(len(COCOClasses)); got != "class_80" {
		t.Errorf("className(out of range) = %q", got)
	}
}
