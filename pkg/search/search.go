// Package search locates the target before the approach begins.
//
// Two modes exist and the choice is fixed at construction: continuous
// polling for a stationary camera and a lawnmower waypoint sweep for a
// mobile base.
package search

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-atlas/pkg/navigation"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
)

// Mode selects the search strategy.
type Mode string

const (
	Continuous Mode = "continuous"
	Waypoint   Mode = "waypoint"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Continuous, Waypoint:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("search: unknown mode %q", s)
	}
}

// Outcome is how a search ended.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	Aborted
	CameraError
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Aborted:
		return "aborted"
	case CameraError:
		return "camera_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the terminal value of a search.
type Result struct {
	Outcome   Outcome
	Detection *detection.Detection // set when Found
	Waypoints int                  // waypoints reached (waypoint mode)
	Frames    int                  // frames examined
	Dropped   int                  // transient frame drops skipped
	Avoided   int                  // avoidance maneuvers run
	Err       error                // context for CameraError and config faults
}

// Config holds search parameters.
type Config struct {
	Mode          Mode
	Area          navigation.Area
	Step          float64       // lawnmower row spacing, meters
	PollInterval  time.Duration // pause between continuous-mode frames
	FeedbackEvery time.Duration // minimum spacing of "still searching" notices
	ReverseFor    time.Duration // avoidance back-off
	AvoidTurnDeg  float64       // avoidance turn toward the clear side
}

// DefaultConfig returns the default continuous search over a 5x3 m area.
func DefaultConfig() Config {
	return Config{
		Mode:          Continuous,
		Area:          navigation.Area{Width: 5, Height: 3},
		Step:          0.5,
		PollInterval:  30 * time.Millisecond,
		FeedbackEvery: 2 * time.Second,
		ReverseFor:    500 * time.Millisecond,
		AvoidTurnDeg:  45,
	}
}
