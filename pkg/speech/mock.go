package speech

import (
	"context"
	"slices"
	"sync"
)

// Mock records notices and spoken text for tests.
type Mock struct {
	SpeakFunc func(ctx context.Context, text string) error

	mu      sync.Mutex
	notices []string
}

// NewMock creates an empty recorder.
func NewMock() *Mock {
	return &Mock{}
}

// Notify records text.
func (m *Mock) Notify(_ context.Context, text string) {
	m.mu.Lock()
	m.notices = append(m.notices, text)
	m.mu.Unlock()
}

// Speak records text and calls SpeakFunc when set.
func (m *Mock) Speak(ctx context.Context, text string) error {
	m.Notify(ctx, text)
	if m.SpeakFunc != nil {
		return m.SpeakFunc(ctx, text)
	}
	return nil
}

// Notices returns everything recorded so far.
func (m *Mock) Notices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.notices)
}

// Said reports whether text was recorded.
func (m *Mock) Said(text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.notices, text)
}

// Reset clears recorded notices.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.notices = nil
	m.mu.Unlock()
}

var (
	_ Notifier = (*Mock)(nil)
	_ Speaker  = (*Mock)(nil)
)
