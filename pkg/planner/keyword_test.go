package planner

import (
	"context"
	"errors"
	"testing"
)

func TestKeyword_Plan(t *testing.T) {
	tests := []struct {
		command string
		want    Intent
	}{
		{"Hey ATLAS, I need you to retrieve the red toolbox", Intent{Fetch, "red box", "red", "box"}},
		{"ATLAS, can you find my phone?", Intent{Find, "phone", Unknown, "phone"}},
		{"Get me the blue book", Intent{Fetch, "blue book", "blue", "book"}},
		{"find and bring the green ball", Intent{Fetch, "green ball", "green", "ball"}},
		{"deliver the cup to the kitchen", Intent{Deliver, "cup", Unknown, "cup"}},
		{"hand me that thing", Intent{Fetch, "object", Unknown, "object"}},
	}

	k := NewKeyword()
	for _, tc := range tests {
		t.Run(tc.command, func(t *testing.T) {
			got, err := k.Plan(context.Background(), tc.command)
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if *got != tc.want {
				t.Errorf("intent = %+v, want %+v", *got, tc.want)
			}
		})
	}
}

func TestKeyword_Empty(t *testing.T) {
	_, err := NewKeyword().Plan(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("err = %v, want ErrEmptyCommand", err)
	}
}
