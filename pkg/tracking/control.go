package tracking

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/teslashibe/go-atlas/pkg/camera"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
)

// ServoingError is the target's offset from the frame centre.
// Positive X means the target is right of centre, positive Y below.
type ServoingError struct {
	X, Y        float64
	Distance    float64 // cm, valid when HasDistance
	HasDistance bool
}

// ComputeError derives the servoing error for det in frame.
func ComputeError(det detection.Detection, frame camera.Frame) ServoingError {
	c := frame.Center()
	return ServoingError{
		X:           float64(det.Centroid.X - c.X),
		Y:           float64(det.Centroid.Y - c.Y),
		Distance:    det.Distance,
		HasDistance: det.HasDistance,
	}
}

// Action is the kind of motion a Command issues.
type Action int

const (
	Forward Action = iota
	TurnLeft
	TurnRight
)

func (a Action) String() string {
	switch a {
	case Forward:
		return "forward"
	case TurnLeft:
		return "turn_left"
	case TurnRight:
		return "turn_right"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Command is one control-law output.
type Command struct {
	Action  Action
	Degrees float64 // turn magnitude, zero for Forward
}

// TurnAngle is the signed, clamped turn for errX: positive turns right.
func TurnAngle(errX float64, cfg Config) float64 {
	return lo.Clamp(errX*cfg.TurnGain, -cfg.MaxTurnDeg, cfg.MaxTurnDeg)
}

// Decide applies the proportional control law. A centred target (|X| within
// tolerance) always yields a forward step.
func Decide(e ServoingError, cfg Config) Command {
	if math.Abs(e.X) <= cfg.CenterTolerancePx {
		return Command{Action: Forward}
	}

	angle := TurnAngle(e.X, cfg)
	switch {
	case angle > 0:
		return Command{Action: TurnRight, Degrees: angle}
	case angle < 0:
		return Command{Action: TurnLeft, Degrees: -angle}
	default:
		return Command{Action: Forward}
	}
}
