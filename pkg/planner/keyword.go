package planner

import (
	"context"
	"strings"
)

const providerKeyword = "keyword"

var (
	keywordColors = []string{
		"red", "blue", "green", "yellow", "orange", "purple", "black", "white", "brown", "pink",
	}
	keywordObjects = []string{
		"phone", "book", "pen", "pencil", "cup", "bottle", "box", "ball", "tool",
		"hammer", "screwdriver", "wrench", "notebook", "marker", "eraser",
	}
)

// Keyword is an offline planner that spots colour and object words.
// It never fails on non-empty input.
type Keyword struct{}

// NewKeyword creates a keyword planner.
func NewKeyword() *Keyword {
	return &Keyword{}
}

// Name returns the provider name.
func (k *Keyword) Name() string {
	return providerKeyword
}

// Plan extracts an intent from keywords. "find" without "bring" is a find;
// everything else is a fetch.
func (k *Keyword) Plan(_ context.Context, text string) (*Intent, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil, WrapError(providerKeyword, ErrEmptyCommand)
	}

	color := Unknown
	for _, c := range keywordColors {
		if strings.Contains(lower, c) {
			color = c
			break
		}
	}

	object := "object"
	for _, o := range keywordObjects {
		if strings.Contains(lower, o) {
			object = o
			break
		}
	}

	action := Fetch
	switch {
	case strings.Contains(lower, "deliver"):
		action = Deliver
	case strings.Contains(lower, "find") && !strings.Contains(lower, "bring"):
		action = Find
	}

	desc := object
	if color != Unknown {
		desc = color + " " + object
	}

	return &Intent{
		Action:            action,
		ObjectDescription: desc,
		ObjectColor:       color,
		ObjectType:        object,
	}, nil
}

var _ Planner = (*Keyword)(nil)
