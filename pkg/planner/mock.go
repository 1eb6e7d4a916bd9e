package planner

import (
	"context"
	"sync"
)

// Mock implements Planner for testing.
type Mock struct {
	// PlanFunc is called when Plan is invoked.
	PlanFunc func(ctx context.Context, text string) (*Intent, error)

	mu    sync.Mutex
	calls []string
}

// NewMock creates a mock that always returns intent.
func NewMock(intent *Intent) *Mock {
	return &Mock{
		PlanFunc: func(context.Context, string) (*Intent, error) {
			if intent == nil {
				return nil, nil
			}
			cp := *intent
			return &cp, nil
		},
	}
}

// WithError creates a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		PlanFunc: func(context.Context, string) (*Intent, error) {
			return nil, err
		},
	}
}

// Name returns "mock".
func (m *Mock) Name() string {
	return "mock"
}

// Plan calls PlanFunc and records the command.
func (m *Mock) Plan(ctx context.Context, text string) (*Intent, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.PlanFunc != nil {
		return m.PlanFunc(ctx, text)
	}
	return nil, WrapError("mock", ErrNoIntent)
}

// Calls returns the commands received.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

var _ Planner = (*Mock)(nil)
