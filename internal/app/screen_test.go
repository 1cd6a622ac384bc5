package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/chordpack/internal/config/watcher"
	"github.com/dshills/chordpack/internal/input/key"
	"github.com/dshills/chordpack/internal/input/term"
)

func TestClip(t *testing.T) {
	tests := []struct {
		s     string
		width int
		want  string
	}{
		{"hello", 3, "hel"},
		{"hello", 10, "hello"},
		{"日本語", 5, "日本"},
		{"日本語", 1, ""},
		{"éx", 1, "é"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := Clip(tt.s, tt.width); got != tt.want {
			t.Errorf("Clip(%q, %d) = %q, want %q", tt.s, tt.width, got, tt.want)
		}
	}
}

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return screen
}

func postKeys(t *testing.T, screen tcell.Screen, spec string) {
	t.Helper()
	for _, k := range key.MustParse(key.PC, spec) {
		if err := screen.PostEvent(term.ToTcell(key.EventFor(k))); err != nil {
			t.Fatalf("PostEvent(%s) error = %v", k, err)
		}
	}
}

func TestRunKeysQuit(t *testing.T) {
	kt := newTester(t, testConfig())
	screen := newSimScreen(t)
	postKeys(t, screen, "h i C-X C-C")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := RunKeys(ctx, kt, screen, nil); err != nil {
		t.Fatalf("RunKeys() error = %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("RunKeys() returned on timeout, want quit")
	}
	if got := kt.Text(); got != "hi" {
		t.Errorf("Text() = %q, want hi", got)
	}
	if line := lastLine(kt); !strings.Contains(line, "save-buffers-kill") {
		t.Errorf("history line = %q, want save-buffers-kill", line)
	}
}

func TestRunKeysCancelled(t *testing.T) {
	kt := newTester(t, testConfig())
	screen := newSimScreen(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RunKeys(ctx, kt, screen, nil); err != nil {
		t.Errorf("RunKeys(cancelled) error = %v, want nil", err)
	}
}

func TestRunKeysReload(t *testing.T) {
	kt := newTester(t, testConfig())
	screen := newSimScreen(t)

	changes := make(chan watcher.Event, 1)
	changes <- watcher.Event{Path: "extra.toml", Op: watcher.OpWrite, Time: time.Now()}
	close(changes)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := RunKeys(ctx, kt, screen, changes); err != nil {
		t.Fatalf("RunKeys() error = %v", err)
	}
	if kt.Status() != "Reloaded keymaps" {
		t.Errorf("Status() = %q, want Reloaded keymaps", kt.Status())
	}
}

func TestDraw(t *testing.T) {
	kt := newTester(t, testConfig())
	screen := newSimScreen(t)

	press(t, kt, "a", "C-X C-S", "C-X")
	draw(screen, kt)

	width, height := screen.Size()
	if got := rowText(screen, 0, width); !strings.HasPrefix(got, "chordpack key tester") {
		t.Errorf("title row = %q", got)
	}
	if got := rowText(screen, 1, width); !strings.Contains(got, "save-buffer") {
		t.Errorf("history row = %q, want save-buffer", got)
	}
	if got := strings.TrimRight(rowText(screen, height-2, width), " "); got != "> a" {
		t.Errorf("text row = %q, want %q", got, "> a")
	}
	if got := strings.TrimRight(rowText(screen, height-1, width), " "); got != "C-X" {
		t.Errorf("status row = %q, want C-X", got)
	}
}

func rowText(screen tcell.Screen, y, width int) string {
	var b strings.Builder
	for x := 0; x < width; x++ {
		r, _, _, _ := screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	return b.String()
}
