package planner

import (
	"context"
	"errors"
	"testing"
)

func TestChainFallback(t *testing.T) {
	ctx := context.Background()

	failing := WithError(errors.New("no connectivity"))
	working := NewMock(&Intent{Fetch, "red box", "red", "box"})

	chain, err := NewChain(failing, working)
	if err != nil {
		t.Fatalf("Failed to create chain: %v", err)
	}

	intent, err := chain.Plan(ctx, "bring the red box")
	if err != nil {
		t.Fatalf("Chain plan failed: %v", err)
	}
	if intent.ObjectType != "box" {
		t.Errorf("Unexpected intent: %+v", intent)
	}
	if len(failing.Calls()) != 1 || len(working.Calls()) != 1 {
		t.Errorf("calls = %d/%d, want 1/1", len(failing.Calls()), len(working.Calls()))
	}
}

func TestChainAllFail(t *testing.T) {
	ctx := context.Background()

	chain, _ := NewChain(WithError(errors.New("p1")), NewMock(nil))

	_, err := chain.Plan(ctx, "test")
	if err == nil {
		t.Fatal("Expected error when all providers fail")
	}

	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("Expected ChainError, got %T", err)
	}
	if len(chainErr.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(chainErr.Errors))
	}
	if !errors.Is(err, ErrNoIntent) {
		t.Errorf("empty plan should surface ErrNoIntent, got %v", err)
	}
}

func TestChainStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &Mock{PlanFunc: func(context.Context, string) (*Intent, error) {
		cancel()
		return nil, context.Canceled
	}}
	second := NewMock(&Intent{Find, "cup", Unknown, "cup"})

	chain, _ := NewChain(first, second)
	if _, err := chain.Plan(ctx, "find cup"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(second.Calls()) != 0 {
		t.Error("second provider should not run after cancellation")
	}
}

func TestNewChain_Empty(t *testing.T) {
	if _, err := NewChain(); !errors.Is(err, ErrNoProviders) {
		t.Errorf("err = %v, want ErrNoProviders", err)
	}
}

func TestChainName(t *testing.T) {
	chain, _ := NewChain(NewKeyword(), NewMock(nil))
	if got := chain.Name(); got != "keyword>mock" {
		t.Errorf("Name = %q", got)
	}
}
