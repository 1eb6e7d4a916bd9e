package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrCameraBusy means another holder already owns the camera.
	ErrCameraBusy = errors.New("camera: already held")

	// ErrNotHeld means the caller does not own the camera.
	ErrNotHeld = errors.New("camera: not held by caller")
)

// Lease enforces single ownership of a camera source. Frames can only be
// read by the current holder; ownership moves with Transfer and ends with
// Release.
type Lease struct {
	src Source
	log *slog.Logger

	mu     sync.Mutex
	holder string
}

// NewLease wraps src. logger may be nil.
func NewLease(src Source, logger *slog.Logger) *Lease {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lease{src: src, log: logger.With("component", "camera")}
}

// Acquire takes ownership for holder. Re-acquiring by the current holder is
// a no-op.
func (l *Lease) Acquire(holder string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.holder {
	case "":
		l.holder = holder
		l.log.Debug("camera acquired", "holder", holder)
		return nil
	case holder:
		return nil
	default:
		return fmt.Errorf("%w: %s wants it, %s holds it", ErrCameraBusy, holder, l.holder)
	}
}

// Transfer hands ownership from one holder to another.
func (l *Lease) Transfer(from, to string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holder != from {
		return fmt.Errorf("%w: %s cannot hand off (holder %q)", ErrNotHeld, from, l.holder)
	}
	l.holder = to
	l.log.Debug("camera transferred", "from", from, "to", to)
	return nil
}

// Release gives up ownership. Releasing a camera the caller does not hold
// returns ErrNotHeld.
func (l *Lease) Release(holder string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holder != holder {
		return fmt.Errorf("%w: %s (holder %q)", ErrNotHeld, holder, l.holder)
	}
	l.holder = ""
	l.log.Debug("camera released", "holder", holder)
	return nil
}

// ReleaseAny drops ownership regardless of holder. Used on failure and
// shutdown paths. Reports whether anything was held.
func (l *Lease) ReleaseAny() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holder == "" {
		return false
	}
	l.log.Debug("camera force released", "holder", l.holder)
	l.holder = ""
	return true
}

// Holder returns the current owner, or "" when free.
func (l *Lease) Holder() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder
}

// Read reads a frame on behalf of holder.
func (l *Lease) Read(ctx context.Context, holder string) (Frame, error) {
	l.mu.Lock()
	owner := l.holder
	l.mu.Unlock()

	if owner != holder {
		return Frame{}, fmt.Errorf("%w: %s (holder %q)", ErrNotHeld, holder, owner)
	}
	return l.src.Read(ctx)
}

// Reader returns a Reader bound to holder.
func (l *Lease) Reader(holder string) Reader {
	return leaseReader{lease: l, holder: holder}
}

// Close closes the underlying source.
func (l *Lease) Close() error {
	l.ReleaseAny()
	return l.src.Close()
}

type leaseReader struct {
	lease  *Lease
	holder string
}

func (r leaseReader) Read(ctx context.Context) (Frame, error) {
	return r.lease.Read(ctx, r.holder)
}
