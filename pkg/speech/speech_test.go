package speech

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestConsole_Prefix(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Notify(context.Background(), "Searching for red ball")
	if got := buf.String(); got != "🤖 ATLAS: Searching for red ball\n" {
		t.Errorf("console output = %q", got)
	}
}

func TestMulti_FansOut(t *testing.T) {
	a, b := NewMock(), NewMock()
	Multi{a, nil, b}.Notify(context.Background(), "hello")
	if !a.Said("hello") || !b.Said("hello") {
		t.Errorf("notice not delivered to all: %v %v", a.Notices(), b.Notices())
	}
}

func TestQueue_SpeaksInOrderAndDrains(t *testing.T) {
	m := NewMock()
	q := NewQueue(m, 8, nil)
	for _, s := range []string{"one", "two", "three"} {
		q.Notify(context.Background(), s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := m.Notices()
	want := []string{"one", "two", "three"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("spoken = %v, want %v", got, want)
	}

	// After close notices are ignored and Close stays safe.
	q.Notify(context.Background(), "late")
	if err := q.Close(ctx); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if m.Said("late") {
		t.Error("notice accepted after Close")
	}
}

func TestQueue_NotifyDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	var spoken atomic.Int32
	m := NewMock()
	m.SpeakFunc = func(context.Context, string) error {
		<-release
		spoken.Add(1)
		return nil
	}
	q := NewQueue(m, 1, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			q.Notify(context.Background(), "busy")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a slow speaker")
	}

	close(release)
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := spoken.Load(); n < 1 || n > 2 {
		t.Errorf("spoken %d notices, want 1 or 2 (rest dropped)", n)
	}
}

func TestQueue_SpeakErrorKeepsWorking(t *testing.T) {
	m := NewMock()
	m.SpeakFunc = func(_ context.Context, text string) error {
		if text == "bad" {
			return errors.New("no audio device")
		}
		return nil
	}
	q := NewQueue(m, 4, nil)
	q.Notify(context.Background(), "bad")
	q.Notify(context.Background(), "good")
	if err := q.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !m.Said("good") {
		t.Error("worker stopped after a speak error")
	}
}

func TestInbox(t *testing.T) {
	in := NewInbox(2)
	if !in.Push("fetch the red ball") {
		t.Fatal("push failed")
	}
	in.Push("   ") // ignored
	if in.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", in.Pending())
	}
	in.Push("quit")
	if in.Push("overflow") {
		t.Error("push into full inbox should report false")
	}

	ctx := context.Background()
	if got, _ := in.Next(ctx); got != "fetch the red ball" {
		t.Errorf("Next = %q", got)
	}
	if got, _ := in.Next(ctx); !IsQuit(got) {
		t.Errorf("Next = %q, want quit", got)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := in.Next(cctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next on cancelled ctx = %v", err)
	}
}

func TestPump(t *testing.T) {
	in := NewInbox(8)
	var aborts atomic.Int32
	r := strings.NewReader("fetch the red ball\nabort\n\nfind my keys\n")

	err := Pump(context.Background(), r, in, PumpHooks{OnAbort: func() { aborts.Add(1) }})
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if aborts.Load() != 1 {
		t.Errorf("aborts = %d, want 1", aborts.Load())
	}

	var got []string
	for in.Pending() > 0 {
		s, _ := in.Next(context.Background())
		got = append(got, s)
	}
	want := []string{"fetch the red ball", "find my keys", Quit}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("inbox = %v, want %v", got, want)
	}
}

func TestPump_ReportsDroppedLines(t *testing.T) {
	in := NewInbox(1)
	r := strings.NewReader("fetch the red ball\nfind my keys\n")

	var dropped []string
	err := Pump(context.Background(), r, in, PumpHooks{
		OnBusy: func(line string) { dropped = append(dropped, line) },
	})
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}

	want := []string{"find my keys", Quit}
	if strings.Join(dropped, "|") != strings.Join(want, "|") {
		t.Errorf("dropped = %v, want %v", dropped, want)
	}
	if got, _ := in.Next(context.Background()); got != "fetch the red ball" {
		t.Errorf("queued = %q, want the first command", got)
	}
}

func TestStripWakeWord(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Atlas, fetch the red ball", "fetch the red ball", true},
		{"hey atlas find my keys", "find my keys", true},
		{"ATLAS!", "", true},
		{"fetch the red ball", "", false},
		{"atlases are maps", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := StripWakeWord(tc.in, DefaultWakeWord)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("StripWakeWord(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestWakeWordSource(t *testing.T) {
	in := NewInbox(8)
	for _, s := range []string{"random chatter", "atlas", "bring me the cup", "quit"} {
		in.Push(s)
	}
	m := NewMock()
	src := &WakeWordSource{Source: in, Word: DefaultWakeWord, Notifier: m}

	ctx := context.Background()
	got, err := src.Next(ctx)
	if err != nil || got != "bring me the cup" {
		t.Fatalf("Next = %q, %v", got, err)
	}
	if !m.Said("Yes, I'm listening") {
		t.Error("bare wake word should be acknowledged")
	}
	if got, _ := src.Next(ctx); got != Quit {
		t.Errorf("quit should pass the filter, got %q", got)
	}
}
