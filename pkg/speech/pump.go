package speech

import (
	"bufio"
	"context"
	"io"
)

// PumpHooks receive console events that bypass the inbox. Nil funcs are
// skipped.
type PumpHooks struct {
	// OnAbort runs for abort words so a running search or approach can be
	// cancelled without waiting for the inbox.
	OnAbort func()
	// OnBusy runs when the inbox is full and line was dropped.
	OnBusy func(line string)
}

// Pump reads commands line by line from r into inbox. End of input queues a
// quit.
func Pump(ctx context.Context, r io.Reader, inbox *Inbox, hooks PumpHooks) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	push := func(line string) {
		if !inbox.Push(line) && hooks.OnBusy != nil {
			hooks.OnBusy(line)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			push(Quit)
			return err
		case line := <-lines:
			if IsAbort(line) {
				if hooks.OnAbort != nil {
					hooks.OnAbort()
				}
				continue
			}
			push(line)
		}
	}
}
