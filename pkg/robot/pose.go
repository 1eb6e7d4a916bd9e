package robot

import (
	"math"

	"github.com/golang/geo/r2"
)

// Pose is the base position in meters and heading in degrees
// (0 = +x axis, counter-clockwise positive).
type Pose struct {
	Position r2.Point `json:"position"`
	Heading  float64  `json:"heading"`
}

// ArmPose is a named set of servo angles in degrees.
type ArmPose struct {
	Base     float64 `json:"base"`
	Shoulder float64 `json:"shoulder"`
	Elbow    float64 `json:"elbow"`
	Wrist    float64 `json:"wrist"`
	Gripper  float64 `json:"gripper"` // 0 open, 180 closed
}

// Named arm poses.
const (
	PoseHome        = "home"
	PoseReadyToGrab = "ready_to_grab"
	PoseGrab        = "grab"
	PoseLift        = "lift"
	PosePresent     = "present"
)

// ArmPoses is the pose table used by the simulated arm.
var ArmPoses = map[string]ArmPose{
	PoseHome:        {Base: 90, Shoulder: 90, Elbow: 90, Wrist: 90, Gripper: 0},
	PoseReadyToGrab: {Base: 90, Shoulder: 45, Elbow: 45, Wrist: 0, Gripper: 0},
	PoseGrab:        {Base: 90, Shoulder: 45, Elbow: 45, Wrist: 0, Gripper: 180},
	PoseLift:        {Base: 90, Shoulder: 90, Elbow: 90, Wrist: 45, Gripper: 180},
	PosePresent:     {Base: 90, Shoulder: 135, Elbow: 45, Wrist: 90, Gripper: 180},
}

// NormalizeDegrees wraps an angle into (-180, 180].
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}

// Bearing returns the heading in degrees from p toward target.
func Bearing(p, target r2.Point) float64 {
	d := target.Sub(p)
	return math.Atan2(d.Y, d.X) * 180 / math.Pi
}
