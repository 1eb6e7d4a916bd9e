package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecSpeaker speaks through an external TTS program such as espeak or say.
// The text is passed as the final argument.
type ExecSpeaker struct {
	Name string
	Args []string
}

// ParseExecSpeaker splits a command line like "espeak -s 150".
func ParseExecSpeaker(cmdline string) (*ExecSpeaker, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, fmt.Errorf("speech: empty speak command")
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}
	return &ExecSpeaker{Name: fields[0], Args: fields[1:]}, nil
}

// Speak runs the program and waits for it to exit.
func (e *ExecSpeaker) Speak(ctx context.Context, text string) error {
	args := append(append([]string(nil), e.Args...), text)
	out, err := exec.CommandContext(ctx, e.Name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("speech: %s: %w (%s)", e.Name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

var _ Speaker = (*ExecSpeaker)(nil)
