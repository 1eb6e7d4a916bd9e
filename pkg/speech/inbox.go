package speech

import (
	"context"
	"errors"
	"strings"
)

// Quit is the command that ends the mission loop.
const Quit = "quit"

// ErrClosed is returned by Next after the inbox is closed and drained.
var ErrClosed = errors.New("speech: inbox closed")

// CommandSource yields operator commands one at a time.
type CommandSource interface {
	// Next blocks until a command arrives or ctx ends.
	Next(ctx context.Context) (string, error)
}

// Inbox is a buffered command queue shared by the console, the dashboard
// and tests.
type Inbox struct {
	ch chan string
}

// NewInbox creates an inbox holding up to size pending commands.
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = 8
	}
	return &Inbox{ch: make(chan string, size)}
}

// Push queues a command. It reports false when the inbox is full.
func (in *Inbox) Push(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	select {
	case in.ch <- text:
		return true
	default:
		return false
	}
}

// Next returns the oldest pending command.
func (in *Inbox) Next(ctx context.Context) (string, error) {
	select {
	case text, ok := <-in.ch:
		if !ok {
			return "", ErrClosed
		}
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Pending returns the number of queued commands.
func (in *Inbox) Pending() int {
	return len(in.ch)
}

// IsQuit reports whether text asks the robot to shut down.
func IsQuit(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case Quit, "exit", "shutdown":
		return true
	default:
		return false
	}
}

// IsAbort reports whether text is the out-of-band abort signal.
func IsAbort(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "abort", "stop", "cancel":
		return true
	default:
		return false
	}
}

var _ CommandSource = (*Inbox)(nil)
