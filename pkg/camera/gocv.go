package camera

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"gocv.io/x/gocv"
)

// GoCVSource captures frames from a local video device through OpenCV.
type GoCVSource struct {
	cfg   Config
	clock clock.Clock

	mu  sync.Mutex
	vc  *gocv.VideoCapture
	mat gocv.Mat
	seq uint64
}

// OpenGoCV opens the configured device.
func OpenGoCV(cfg Config, clk clock.Clock) (*GoCVSource, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}
	if clk == nil {
		clk = clock.New()
	}

	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("camera: open device %d: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera: device %d not available", cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	return &GoCVSource{
		cfg:   cfg,
		clock: clk,
		vc:    vc,
		mat:   gocv.NewMat(),
	}, nil
}

// Read grabs the next frame and encodes it as JPEG.
func (s *GoCVSource) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vc == nil {
		return Frame{}, ErrClosed
	}
	if ok := s.vc.Read(&s.mat); !ok {
		if !s.vc.IsOpened() {
			return Frame{}, ErrClosed
		}
		return Frame{}, ErrFrameDropped
	}
	if s.mat.Empty() {
		return Frame{}, ErrFrameDropped
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, s.mat, []int{gocv.IMWriteJpegQuality, s.cfg.Quality})
	if err != nil {
		return Frame{}, fmt.Errorf("camera: encode: %w", err)
	}
	// GetBytes aliases native memory.
	data := bytes.Clone(buf.GetBytes())
	buf.Close()

	s.seq++
	return Frame{
		Data:   data,
		Width:  s.mat.Cols(),
		Height: s.mat.Rows(),
		Seq:    s.seq,
		At:     s.clock.Now(),
	}, nil
}

// Close releases the device.
func (s *GoCVSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vc == nil {
		return nil
	}
	err := s.vc.Close()
	s.vc = nil
	s.mat.Close()
	return err
}
