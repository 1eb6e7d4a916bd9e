// Package speech carries operator I/O: spoken or printed notices going out
// and text commands coming in.
package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Notifier delivers a user-facing notice without blocking the caller on
// delivery. Implementations may speak synchronously or queue.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Speaker synthesizes text, blocking until done.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Nop discards notices.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, string) {}

// Console prints notices with the robot's prefix.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole writes to out, or stdout when nil.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

// Notify prints the notice.
func (c *Console) Notify(_ context.Context, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "🤖 ATLAS: %s\n", text)
}

// Speak implements Speaker so a console can back a Queue.
func (c *Console) Speak(ctx context.Context, text string) error {
	c.Notify(ctx, text)
	return nil
}

// Multi fans a notice out to several notifiers in order.
type Multi []Notifier

// Notify forwards to every notifier.
func (m Multi) Notify(ctx context.Context, text string) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, text)
		}
	}
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, text string)

// Notify calls f.
func (f Func) Notify(ctx context.Context, text string) {
	f(ctx, text)
}

var (
	_ Notifier = Nop{}
	_ Notifier = (*Console)(nil)
	_ Notifier = Multi(nil)
	_ Notifier = Func(nil)
	_ Speaker  = (*Console)(nil)
)
