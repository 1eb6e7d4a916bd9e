package mission

import (
	"context"
	"sync"
)

// AbortSwitch is the out-of-band operator cancel. A phase that honours
// aborts derives its context from Begin; Trigger cancels that context only,
// leaving the process context alone so the mission unwinds to IDLE without
// a shutdown.
type AbortSwitch struct {
	mu     sync.Mutex
	cancel context.CancelCauseFunc
}

// Begin returns a context that Trigger can cancel, plus the func that ends
// the phase. Only one phase is armed at a time.
func (a *AbortSwitch) Begin(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)

	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	return ctx, func() {
		a.mu.Lock()
		a.cancel = nil
		a.mu.Unlock()
		cancel(nil)
	}
}

// Trigger cancels the armed phase. It reports false when nothing abortable
// is running.
func (a *AbortSwitch) Trigger() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel == nil {
		return false
	}
	a.cancel(ErrAborted)
	a.cancel = nil
	return true
}

// Armed reports whether an abortable phase is running.
func (a *AbortSwitch) Armed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}
