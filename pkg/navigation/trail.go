package navigation

import (
	"slices"
	"sync"

	"github.com/golang/geo/r2"
)

// Trail is the ordered breadcrumb history of visited waypoints.
// It is append-only while searching and read back in reverse when returning.
type Trail struct {
	mu     sync.RWMutex
	points []r2.Point
}

// NewTrail creates an empty trail.
func NewTrail() *Trail {
	return &Trail{}
}

// Record appends a visited position.
func (t *Trail) Record(p r2.Point) {
	t.mu.Lock()
	t.points = append(t.points, p)
	t.mu.Unlock()
}

// Points returns a copy of the recorded positions in visit order.
func (t *Trail) Points() []r2.Point {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.points)
}

// ReturnPath returns the recorded positions in reverse order.
// It is empty iff nothing was recorded.
func (t *Trail) ReturnPath() []r2.Point {
	path := t.Points()
	slices.Reverse(path)
	return path
}

// Last returns the most recent position, if any.
func (t *Trail) Last() (r2.Point, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.points) == 0 {
		return r2.Point{}, false
	}
	return t.points[len(t.points)-1], true
}

// Len returns the number of recorded positions.
func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.points)
}

// Clear drops every recorded position.
func (t *Trail) Clear() {
	t.mu.Lock()
	t.points = nil
	t.mu.Unlock()
}
