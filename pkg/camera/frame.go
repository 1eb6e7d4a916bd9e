package camera

import (
	"context"
	"errors"
	"image"
	"time"
)

var (
	// ErrFrameDropped is a transient capture miss; the next read may succeed.
	ErrFrameDropped = errors.New("camera: frame dropped")

	// ErrClosed is returned after the source has been closed or the device
	// went away. It is not transient.
	ErrClosed = errors.New("camera: closed")
)

// Frame is one captured image, JPEG encoded.
type Frame struct {
	Data   []byte
	Width  int
	Height int
	Seq    uint64
	At     time.Time
}

// Center returns the pixel coordinates of the frame centre.
func (f Frame) Center() image.Point {
	return image.Pt(f.Width/2, f.Height/2)
}

// Reader yields frames one at a time.
type Reader interface {
	Read(ctx context.Context) (Frame, error)
}

// Source is a camera device.
type Source interface {
	Reader
	Close() error
}

// IsTransient reports whether err is a capture hiccup worth skipping.
func IsTransient(err error) bool {
	return errors.Is(err, ErrFrameDropped)
}
