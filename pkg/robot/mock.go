package robot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Mock is a Platform that records calls and delegates to optional func fields.
// A nil func field succeeds; CheckGrip defaults to true and IsClear to clear.
type Mock struct {
	MoveForwardFunc  func(ctx context.Context, d time.Duration) error
	MoveBackwardFunc func(ctx context.Context, d time.Duration) error
	TurnLeftFunc     func(ctx context.Context, degrees float64) error
	TurnRightFunc    func(ctx context.Context, degrees float64) error
	StopFunc         func(ctx context.Context) error
	NavigateToFunc   func(ctx context.Context, x, y float64) error
	GraspFunc        func(ctx context.Context) error
	CheckGripFunc    func(ctx context.Context) (bool, error)
	ReleaseFunc      func(ctx context.Context) error
	PresentFunc      func(ctx context.Context) error
	ReturnHomeFunc   func(ctx context.Context) error
	IsClearFunc      func(ctx context.Context, dir Direction) (bool, error)

	mu    sync.Mutex
	calls []string
}

// NewMock creates a mock whose primitives all succeed.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) record(format string, args ...any) {
	m.mu.Lock()
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

// Calls returns the recorded calls in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Count returns how many recorded calls start with prefix.
func (m *Mock) Count(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

func (m *Mock) MoveForward(ctx context.Context, d time.Duration) error {
	m.record("forward %s", d)
	if m.MoveForwardFunc != nil {
		return m.MoveForwardFunc(ctx, d)
	}
	return nil
}

func (m *Mock) MoveBackward(ctx context.Context, d time.Duration) error {
	m.record("backward %s", d)
	if m.MoveBackwardFunc != nil {
		return m.MoveBackwardFunc(ctx, d)
	}
	return nil
}

func (m *Mock) TurnLeft(ctx context.Context, degrees float64) error {
	m.record("left %.1f", degrees)
	if m.TurnLeftFunc != nil {
		return m.TurnLeftFunc(ctx, degrees)
	}
	return nil
}

func (m *Mock) TurnRight(ctx context.Context, degrees float64) error {
	m.record("right %.1f", degrees)
	if m.TurnRightFunc != nil {
		return m.TurnRightFunc(ctx, degrees)
	}
	return nil
}

func (m *Mock) Stop(ctx context.Context) error {
	m.record("stop")
	if m.StopFunc != nil {
		return m.StopFunc(ctx)
	}
	return nil
}

func (m *Mock) NavigateTo(ctx context.Context, x, y float64) error {
	m.record("navigate %.2f,%.2f", x, y)
	if m.NavigateToFunc != nil {
		return m.NavigateToFunc(ctx, x, y)
	}
	return nil
}

func (m *Mock) Grasp(ctx context.Context) error {
	m.record("grasp")
	if m.GraspFunc != nil {
		return m.GraspFunc(ctx)
	}
	return nil
}

func (m *Mock) CheckGrip(ctx context.Context) (bool, error) {
	m.record("check_grip")
	if m.CheckGripFunc != nil {
		return m.CheckGripFunc(ctx)
	}
	return true, nil
}

func (m *Mock) Release(ctx context.Context) error {
	m.record("release")
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx)
	}
	return nil
}

func (m *Mock) Present(ctx context.Context) error {
	m.record("present")
	if m.PresentFunc != nil {
		return m.PresentFunc(ctx)
	}
	return nil
}

func (m *Mock) ReturnHome(ctx context.Context) error {
	m.record("home")
	if m.ReturnHomeFunc != nil {
		return m.ReturnHomeFunc(ctx)
	}
	return nil
}

func (m *Mock) IsClear(ctx context.Context, dir Direction) (bool, error) {
	m.record("clear? %s", dir)
	if m.IsClearFunc != nil {
		return m.IsClearFunc(ctx, dir)
	}
	return true, nil
}

var _ Platform = (*Mock)(nil)
