package camera

import (
	"context"
	"sync"
)

// Mock is a scripted Source for testing.
type Mock struct {
	// ReadFunc overrides Read when set.
	ReadFunc func(ctx context.Context) (Frame, error)

	// Frame is returned by Read when ReadFunc is nil.
	Frame Frame

	mu     sync.Mutex
	reads  int
	closed bool
}

// NewMock creates a mock that returns a blank 640x480 frame.
func NewMock() *Mock {
	return &Mock{Frame: Frame{Width: 640, Height: 480}}
}

// Read returns the scripted frame.
func (m *Mock) Read(ctx context.Context) (Frame, error) {
	m.mu.Lock()
	m.reads++
	seq := uint64(m.reads)
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return Frame{}, ErrClosed
	}
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx)
	}
	f := m.Frame
	f.Seq = seq
	return f, nil
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Reads returns the number of Read calls.
func (m *Mock) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
