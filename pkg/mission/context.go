package mission

import (
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-atlas/pkg/navigation"
	"github.com/teslashibe/go-atlas/pkg/planner"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
)

// Context is the state carried between phases of one mission. It is owned
// by the Machine goroutine.
type Context struct {
	ID        string
	Command   string
	Intent    *planner.Intent
	Trail     *navigation.Trail
	Detection *detection.Detection // last detection handed from search to approach
	Started   time.Time

	GraspAttempts int
	Approaches    int
}

func newContext() *Context {
	return &Context{Trail: navigation.NewTrail()}
}

// begin starts a new mission for cmd.
func (c *Context) begin(cmd string, now time.Time) {
	c.Reset()
	c.ID = uuid.NewString()
	c.Command = cmd
	c.Started = now
}

// Reset clears the intent, trail and counters.
func (c *Context) Reset() {
	c.ID = ""
	c.Command = ""
	c.Intent = nil
	c.Detection = nil
	c.Started = time.Time{}
	c.GraspAttempts = 0
	c.Approaches = 0
	c.Trail.Clear()
}

// Target returns the perception target for the current intent.
func (c *Context) Target() detection.Target {
	if c.Intent == nil {
		return detection.Target{}
	}
	return detection.Target{
		Description: c.Intent.ObjectDescription,
		Color:       c.Intent.ObjectColor,
		ObjectType:  c.Intent.ObjectType,
	}
}

// describe names the object for notices.
func (c *Context) describe() string {
	if c.Intent == nil || c.Intent.ObjectDescription == "" || c.Intent.ObjectDescription == planner.Unknown {
		return "the object"
	}
	return "the " + c.Intent.ObjectDescription
}
