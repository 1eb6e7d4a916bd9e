package planner

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when a model provider has no credentials.
	ErrNoAPIKey = errors.New("planner: API key required")

	// ErrEmptyCommand is returned for blank input.
	ErrEmptyCommand = errors.New("planner: empty command")

	// ErrNoIntent is returned when a reply contains no JSON object.
	ErrNoIntent = errors.New("planner: no intent in response")

	// ErrUnknownAction is returned for actions other than fetch, find, deliver.
	ErrUnknownAction = errors.New("planner: unknown action")

	// ErrNoProviders is returned by an empty chain.
	ErrNoProviders = errors.New("planner: no providers")
)

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("planner [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// ChainError aggregates errors from all providers in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "planner chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("planner chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("planner chain: all %d providers failed, last error: %v",
		len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns the last error in the chain.
func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}
