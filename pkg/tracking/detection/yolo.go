package detection

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// ObjectDetection is one labelled box from an object detector.
type ObjectDetection struct {
	Box        image.Rectangle // source-image pixels
	Confidence float64
	ClassID    int
	ClassName  string
}

// ObjectDetector finds labelled objects in a decoded BGR image.
type ObjectDetector interface {
	Detect(img gocv.Mat) ([]ObjectDetection, error)
	Close() error
}

// YOLOConfig configures the ONNX object detector.
type YOLOConfig struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
}

// DefaultYOLOConfig targets the yolov8n export at 640x640.
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// YOLODetector runs a YOLOv8 ONNX model through the OpenCV DNN module.
// Detect is serialised; gocv.Net is not safe for concurrent use.
type YOLODetector struct {
	mu   sync.Mutex
	net  gocv.Net
	cfg  YOLOConfig
	size image.Point
}

// NewYOLO loads the model at cfg.ModelPath.
func NewYOLO(cfg YOLOConfig) (*YOLODetector, error) {
	if _, err := os.Stat(cfg.ModelPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("detection: yolo model %s: %w", cfg.ModelPath, err)
	}
	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("detection: cannot load yolo model %s", cfg.ModelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("detection: yolo backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("detection: yolo target: %w", err)
	}
	return &YOLODetector{
		net:  net,
		cfg:  cfg,
		size: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// DetectJPEG decodes an encoded frame and runs Detect.
func (d *YOLODetector) DetectJPEG(jpeg []byte) ([]ObjectDetection, error) {
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("detection: decode frame: %w", err)
	}
	defer img.Close()
	return d.Detect(img)
}

// Detect runs one forward pass and returns boxes surviving NMS, clipped to
// the image.
func (d *YOLODetector) Detect(img gocv.Mat) ([]ObjectDetection, error) {
	if img.Empty() {
		return nil, ErrEmptyFrame
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()
	d.net.SetInput(blob, "")

	out := d.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("detection: read yolo output: %w", err)
	}

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	// Output is [1, 4+classes, anchors]: rows are channels, cols are anchors.
	cands := decodeYOLOv8(data, out.Rows(), out.Cols(), d.cfg.ConfidenceThresh,
		float32(bounds.Dx())/float32(d.cfg.InputWidth),
		float32(bounds.Dy())/float32(d.cfg.InputHeight))
	if len(cands) == 0 {
		return nil, nil
	}

	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		boxes[i] = c.box
		scores[i] = c.score
	}

	var dets []ObjectDetection
	for _, idx := range gocv.NMSBoxes(boxes, scores, d.cfg.ConfidenceThresh, d.cfg.NMSThresh) {
		box := boxes[idx].Intersect(bounds)
		if box.Empty() {
			continue
		}
		dets = append(dets, ObjectDetection{
			Box:        box,
			Confidence: float64(scores[idx]),
			ClassID:    cands[idx].class,
			ClassName:  className(cands[idx].class),
		})
	}
	return dets, nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

type candidate struct {
	box   image.Rectangle
	score float32
	class int
}

// decodeYOLOv8 reads a channel-major YOLOv8 head: channels 0..3 hold
// cx, cy, w, h in model-input pixels, the rest are per-class scores.
// sx and sy scale model-input pixels to source pixels.
func decodeYOLOv8(data []float32, channels, anchors int, thresh, sx, sy float32) []candidate {
	if channels <= 4 || anchors <= 0 || len(data) < channels*anchors {
		return nil
	}
	at := func(ch, a int) float32 { return data[ch*anchors+a] }

	var out []candidate
	for a := 0; a < anchors; a++ {
		best, class := float32(0), -1
		for ch := 4; ch < channels; ch++ {
			if s := at(ch, a); s > best {
				best, class = s, ch-4
			}
		}
		if class < 0 || best < thresh {
			continue
		}
		cx, cy, w, h := at(0, a), at(1, a), at(2, a), at(3, a)
		out = append(out, candidate{
			box: image.Rect(
				int((cx-w/2)*sx), int((cy-h/2)*sy),
				int((cx+w/2)*sx), int((cy+h/2)*sy),
			),
			score: best,
			class: class,
		})
	}
	return out
}

func className(id int) string {
	if id < 0 || id >= len(COCOClasses) {
		return fmt.Sprintf("class_%d", id)
	}
	return COCOClasses[id]
}

// FilterClass keeps detections whose class satisfies objectType.
func FilterClass(dets []ObjectDetection, objectType string) []ObjectDetection {
	var kept []ObjectDetection
	for _, d := range dets {
		if ClassMatches(objectType, d.ClassName) {
			kept = append(kept, d)
		}
	}
	return kept
}

// ClassMatches reports whether a COCO class satisfies a requested object
// type. An unspecified type matches everything.
func ClassMatches(objectType, class string) bool {
	want := strings.ToLower(strings.TrimSpace(objectType))
	if !known(want) {
		return true
	}
	class = strings.ToLower(class)
	if alias, ok := cocoSynonyms[want]; ok && alias == class {
		return true
	}
	return strings.Contains(class, want)
}

// COCOClasses are the 80 labels of the COCO-trained YOLO exports, by id.
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

var cocoSynonyms = map[string]string{
	"phone":      "cell phone",
	"cellphone":  "cell phone",
	"mobile":     "cell phone",
	"ball":       "sports ball",
	"television": "tv",
	"monitor":    "tv",
	"sofa":       "couch",
	"table":      "dining table",
	"plant":      "potted plant",
	"mug":        "cup",
	"computer":   "laptop",
	"teddy":      "teddy bear",
}
