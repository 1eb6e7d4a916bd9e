// Package tracking implements closed-loop visual servoing: each iteration
// turns the latest detection into one motion command until the robot is in
// grasping range.
package tracking

import "time"

// Config holds all tunable parameters for the approach.
type Config struct {
	// Control law
	CenterTolerancePx float64 // |error_x| at or below this counts as centred
	TurnGain          float64 // degrees of turn per pixel of error
	MaxTurnDeg        float64 // turn magnitude clamp

	// Termination
	TargetDistanceCm float64 // stop once the estimate is at or below this
	MaxIterations    int     // give up after this many iterations

	// Timing
	ForwardDuration time.Duration // length of one forward step
	SettleDelay     time.Duration // pause after each command before the next frame
}

// DefaultConfig returns the recommended configuration for a 640x480 camera.
func DefaultConfig() Config {
	return Config{
		CenterTolerancePx: 50,
		TurnGain:          0.1,
		MaxTurnDeg:        30,

		TargetDistanceCm: 30,
		MaxIterations:    100,

		ForwardDuration: 500 * time.Millisecond,
		SettleDelay:     100 * time.Millisecond,
	}
}

// Validate checks parameters and returns a list of problems, or nil.
func (c Config) Validate() []string {
	var errs []string
	if c.CenterTolerancePx < 0 {
		errs = append(errs, "center tolerance must be >= 0")
	}
	if c.TurnGain <= 0 {
		errs = append(errs, "turn gain must be positive")
	}
	if c.MaxTurnDeg <= 0 {
		errs = append(errs, "max turn must be positive")
	}
	if c.TargetDistanceCm <= 0 {
		errs = append(errs, "target distance must be positive")
	}
	if c.MaxIterations <= 0 {
		errs = append(errs, "max iterations must be positive")
	}
	if c.ForwardDuration <= 0 {
		errs = append(errs, "forward duration must be positive")
	}
	return errs
}
