// Package robot provides interfaces and implementations for the mobile
// manipulator's drivetrain, arm and obstacle sensors.
//
// This package follows the Interface Segregation Principle (ISP) by defining
// small, focused interfaces that can be composed as needed. Consumers should
// depend only on the interfaces they actually use.
//
// Every primitive blocks until the motion completes. Once issued, a motion
// runs to completion; callers cannot cancel a turn halfway.
package robot

import (
	"context"
	"time"
)

// Direction names an ultrasonic sensor.
type Direction int

const (
	Front Direction = iota
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Front:
		return "front"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Drivetrain provides base motion.
type Drivetrain interface {
	MoveForward(ctx context.Context, d time.Duration) error
	MoveBackward(ctx context.Context, d time.Duration) error
	TurnLeft(ctx context.Context, degrees float64) error
	TurnRight(ctx context.Context, degrees float64) error
	Stop(ctx context.Context) error
	NavigateTo(ctx context.Context, x, y float64) error
}

// Arm provides the manipulator and gripper.
type Arm interface {
	// Grasp runs the full pick sequence: ready, close gripper, lift.
	Grasp(ctx context.Context) error
	// CheckGrip reports whether the gripper is holding something.
	CheckGrip(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
	Present(ctx context.Context) error
	ReturnHome(ctx context.Context) error
}

// ObstacleSensor reports path clearance.
type ObstacleSensor interface {
	IsClear(ctx context.Context, dir Direction) (bool, error)
}

// Platform is the composite interface for full robot control.
type Platform interface {
	Drivetrain
	Arm
	ObstacleSensor
}

// Ensure implementations satisfy Platform
var (
	_ Platform = (*HTTPController)(nil)
	_ Platform = (*Sim)(nil)
)
