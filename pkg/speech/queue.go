package speech

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultQueueSize bounds pending notices.
const DefaultQueueSize = 16

// Queue speaks notices on a background worker so callers never wait for
// synthesis. Notices are spoken in order; when the queue is full new
// notices are dropped.
type Queue struct {
	speaker Speaker
	log     *slog.Logger

	items chan string
	done  chan struct{}

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewQueue starts a worker speaking through speaker.
func NewQueue(speaker Speaker, size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		speaker: speaker,
		log:     logger.With("component", "speech.queue"),
		items:   make(chan string, size),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for text := range q.items {
		// Each notice is spoken to completion even if the mission moved on.
		if err := q.speaker.Speak(context.Background(), text); err != nil {
			q.log.Warn("speak failed", "error", err)
		}
	}
}

// Notify enqueues text. It never blocks.
func (q *Queue) Notify(_ context.Context, text string) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}
	select {
	case q.items <- text:
	default:
		q.log.Warn("speech queue full, dropping notice", "text", text)
	}
}

// Close stops accepting notices and waits until queued ones are spoken or
// ctx ends.
func (q *Queue) Close(ctx context.Context) error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.items)
		q.mu.Unlock()
	})

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Notifier = (*Queue)(nil)
