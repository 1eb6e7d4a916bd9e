package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"google.golang.org/genai"
)

const providerGemini = "gemini"

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the subset of *genai.Models the planner needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini planner.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Gemini plans with Google's Gemini models through the genai SDK.
type Gemini struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGemini creates a Gemini planner.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, WrapError(providerGemini, ErrNoAPIKey)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("create client: %w", err))
	}
	return newGemini(client.Models, cfg), nil
}

func newGemini(models contentGenerator, cfg GeminiConfig) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Gemini{
		models:  models,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  cfg.Logger.With("component", "planner.gemini"),
	}
}

// Name returns the provider name.
func (g *Gemini) Name() string {
	return providerGemini
}

// Plan asks the model for a JSON intent.
func (g *Gemini) Plan(ctx context.Context, text string) (*Intent, error) {
	if text == "" {
		return nil, WrapError(providerGemini, ErrEmptyCommand)
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	temperature := float32(0)
	resp, err := g.models.GenerateContent(ctx, g.model,
		genai.Text(Prompt+strconv.Quote(text)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      &temperature,
		})
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}

	intent, err := ParseIntent(resp.Text())
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}

	g.logger.Debug("plan received",
		"model", g.model,
		"intent", intent.String(),
		"duration", time.Since(start))
	return intent, nil
}

var _ Planner = (*Gemini)(nil)
