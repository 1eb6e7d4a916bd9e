package planner

import (
	"context"
	"log/slog"
	"strings"
)

// Chain tries multiple planners in order until one succeeds.
type Chain struct {
	providers []Planner
	logger    *slog.Logger
}

// NewChain creates a planner chain.
// At least one provider is required.
func NewChain(providers ...Planner) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	return &Chain{
		providers: providers,
		logger:    slog.Default().With("component", "planner.chain"),
	}, nil
}

// NewChainWithLogger creates a planner chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, providers ...Planner) (*Chain, error) {
	chain, err := NewChain(providers...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "planner.chain")
	return chain, nil
}

// Name lists the providers.
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, ">")
}

// Plan tries each provider until one succeeds.
func (c *Chain) Plan(ctx context.Context, text string) (*Intent, error) {
	var errors []error

	for i, p := range c.providers {
		intent, err := p.Plan(ctx, text)
		if err == nil && intent != nil {
			if i > 0 {
				c.logger.Info("fallback planner succeeded",
					"provider", p.Name(),
					"provider_index", i,
				)
			}
			return intent, nil
		}
		if err == nil {
			err = WrapError(p.Name(), ErrNoIntent)
		}

		errors = append(errors, err)
		c.logger.Warn("planner failed, trying next",
			"provider", p.Name(),
			"provider_index", i,
			"error", err,
		)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &ChainError{Errors: errors}
}

// Providers returns the list of providers in the chain.
func (c *Chain) Providers() []Planner {
	return c.providers
}

// Verify Chain implements Planner at compile time.
var _ Planner = (*Chain)(nil)
