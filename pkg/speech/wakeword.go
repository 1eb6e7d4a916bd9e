package speech

import (
	"context"
	"strings"
	"unicode"
)

// DefaultWakeWord is the robot's name.
const DefaultWakeWord = "atlas"

// StripWakeWord reports whether text starts with word (ignoring case,
// leading "hey" and punctuation) and returns the remainder.
func StripWakeWord(text, word string) (string, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return strings.TrimSpace(text), true
	}

	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '!' || r == '.' || r == '?'
	})
	if len(fields) > 0 && (fields[0] == "hey" || fields[0] == "ok" || fields[0] == "okay") {
		fields = fields[1:]
	}
	if len(fields) == 0 || fields[0] != word {
		return "", false
	}

	// The command keeps its casing.
	idx := strings.Index(strings.ToLower(text), word)
	rest := strings.TrimLeftFunc(text[idx+len(word):], func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return strings.TrimSpace(rest), true
}

// WakeWordSource filters a command source, passing through only
// utterances addressed to the robot. Quit is always honoured.
type WakeWordSource struct {
	Source   CommandSource
	Word     string
	Notifier Notifier
}

// Next returns the next addressed command with the wake word removed.
func (w *WakeWordSource) Next(ctx context.Context) (string, error) {
	for {
		text, err := w.Source.Next(ctx)
		if err != nil {
			return "", err
		}
		if IsQuit(text) {
			return text, nil
		}
		cmd, ok := StripWakeWord(text, w.Word)
		if !ok {
			continue
		}
		if cmd == "" {
			// Wake word alone: acknowledge and wait for the command.
			if w.Notifier != nil {
				w.Notifier.Notify(ctx, "Yes, I'm listening")
			}
			next, err := w.Source.Next(ctx)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(next), nil
		}
		return cmd, nil
	}
}

var _ CommandSource = (*WakeWordSource)(nil)
