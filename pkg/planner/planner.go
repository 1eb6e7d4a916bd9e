// Package planner turns a free-text command into a structured Intent.
//
// Providers implement Planner; Chain tries them in order so an offline
// keyword planner can back up a model-based one.
package planner

import (
	"context"
	"fmt"
	"strings"
)

// Unknown fills intent fields the command did not specify.
const Unknown = "unknown"

// Action is the skill an intent asks for.
type Action string

const (
	Fetch   Action = "fetch"
	Find    Action = "find"
	Deliver Action = "deliver"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case Fetch, Find, Deliver:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// Carries reports whether the action ends with handing an object over.
func (a Action) Carries() bool {
	return a == Fetch || a == Deliver
}

// Intent is the structured request derived from one command.
type Intent struct {
	Action            Action `json:"action"`
	ObjectDescription string `json:"object_description"`
	ObjectColor       string `json:"object_color"`
	ObjectType        string `json:"object_type"`
}

// String renders the intent for logs and notices.
func (i Intent) String() string {
	return fmt.Sprintf("%s %q (color=%s type=%s)", i.Action, i.ObjectDescription, i.ObjectColor, i.ObjectType)
}

// Planner maps free text to an Intent.
type Planner interface {
	Plan(ctx context.Context, text string) (*Intent, error)
	Name() string
}
