package search

import (
	"context"

	"github.com/teslashibe/go-atlas/pkg/robot"
)

// Avoidance maneuvers.
const (
	AvoidLeft       = "left"
	AvoidRight      = "right"
	AvoidTurnAround = "turn_around"
)

// Avoid backs away from an obstacle and turns toward the clearer side:
// stop, reverse, probe left then right, then turn. Left wins when both are
// clear; when neither is, the base turns around.
func (c *Controller) Avoid(ctx context.Context) string {
	if err := c.drive.Stop(ctx); err != nil {
		c.log.Warn("stop failed", "error", err)
	}
	if err := c.drive.MoveBackward(ctx, c.cfg.ReverseFor); err != nil {
		c.log.Warn("reverse failed", "error", err)
	}

	leftClear := c.probe(ctx, robot.Left)
	rightClear := c.probe(ctx, robot.Right)

	var maneuver string
	var err error
	switch {
	case leftClear:
		maneuver = AvoidLeft
		err = c.drive.TurnLeft(ctx, c.cfg.AvoidTurnDeg)
	case rightClear:
		maneuver = AvoidRight
		err = c.drive.TurnRight(ctx, c.cfg.AvoidTurnDeg)
	default:
		maneuver = AvoidTurnAround
		err = c.drive.TurnRight(ctx, 180)
	}
	if err != nil {
		c.log.Warn("avoid turn failed", "maneuver", maneuver, "error", err)
	}
	return maneuver
}

func (c *Controller) probe(ctx context.Context, dir robot.Direction) bool {
	clear, err := c.obstacles.IsClear(ctx, dir)
	if err != nil {
		c.log.Warn("sensor failed", "sensor", dir.String(), "error", err)
		return false
	}
	return clear
}
