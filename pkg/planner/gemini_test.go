package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	reply  string
	err    error
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func TestGemini_Plan(t *testing.T) {
	fake := &fakeModels{reply: `{"action":"fetch","object_description":"red box","object_color":"red","object_type":"box"}`}
	g := newGemini(fake, GeminiConfig{})

	intent, err := g.Plan(context.Background(), "ATLAS, get the red box")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if *intent != (Intent{Fetch, "red box", "red", "box"}) {
		t.Errorf("intent = %+v", intent)
	}
	if fake.model != DefaultGeminiModel {
		t.Errorf("model = %q", fake.model)
	}
	if !strings.HasPrefix(fake.prompt, Prompt) || !strings.HasSuffix(fake.prompt, `"ATLAS, get the red box"`) {
		t.Errorf("prompt does not embed the quoted command: %q", fake.prompt)
	}
	if fake.config == nil || fake.config.ResponseMIMEType != "application/json" {
		t.Errorf("expected JSON response MIME type, got %+v", fake.config)
	}
}

func TestGemini_Errors(t *testing.T) {
	g := newGemini(&fakeModels{err: errors.New("quota exceeded")}, GeminiConfig{Model: "gemini-test"})
	_, err := g.Plan(context.Background(), "find the cup")

	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Provider != "gemini" {
		t.Errorf("expected gemini ProviderError, got %v", err)
	}

	g = newGemini(&fakeModels{reply: "no idea"}, GeminiConfig{})
	if _, err := g.Plan(context.Background(), "find the cup"); !errors.Is(err, ErrNoIntent) {
		t.Errorf("err = %v, want ErrNoIntent", err)
	}

	if _, err := g.Plan(context.Background(), ""); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("err = %v, want ErrEmptyCommand", err)
	}
}

func TestNewGemini_RequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), GeminiConfig{}); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}
