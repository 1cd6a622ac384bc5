package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/chordpack/internal/config/watcher"
	"github.com/dshills/chordpack/internal/input/term"
)

var (
	titleStyle  = tcell.StyleDefault.Bold(true)
	textStyle   = tcell.StyleDefault
	statusStyle = tcell.StyleDefault.Reverse(true)
)

// RunKeys drives t from an initialized screen until the quit command
// runs or ctx is done. Keymap changes arriving on changes trigger a
// reload; changes may be nil.
func RunKeys(ctx context.Context, t *KeyTester, screen tcell.Screen, changes <-chan watcher.Event) error {
	done := make(chan struct{})
	defer close(done)
	events := pollEvents(screen, done)

	draw(screen, t)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if _, err := t.HandleKey(term.FromTcell(ev)); errors.Is(err, ErrQuit) {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case ch, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			t.log.Info("%s changed (%s), reloading keymaps", ch.Path, ch.Op)
			if err := t.Reload(); err != nil {
				t.log.Warn("reload failed: %v", err)
				t.setStatus(err.Error())
			} else {
				t.setStatus("Reloaded keymaps")
			}
		}
		draw(screen, t)
	}
}

// pollEvents forwards screen events until done is closed or the screen is
// finalized. The goroutine may stay blocked in PollEvent until Fini.
func pollEvents(screen tcell.Screen, done <-chan struct{}) <-chan tcell.Event {
	events := make(chan tcell.Event, 64)
	go func() {
		defer close(events)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()
	return events
}

// draw renders the title, the history, the inserted text and the status
// line.
func draw(screen tcell.Screen, t *KeyTester) {
	screen.Clear()
	width, height := screen.Size()
	if height < 4 {
		drawStatus(screen, height-1, width, t.Status())
		screen.Show()
		return
	}

	title := fmt.Sprintf("chordpack key tester (%s) - C-X C-C quits", t.cache.Platform())
	drawText(screen, 0, 0, width, title, titleStyle)

	// Rows 1..height-3 hold the newest history lines.
	rows := height - 3
	history := t.History()
	if len(history) > rows {
		history = history[len(history)-rows:]
	}
	for i, line := range history {
		drawText(screen, 0, 1+i, width, line, textStyle)
	}

	drawText(screen, 0, height-2, width, "> "+t.Text(), textStyle)
	drawStatus(screen, height-1, width, t.Status())
	screen.Show()
}

// drawText writes s at (x, y), clipped to width cells, and returns the
// column after it.
func drawText(screen tcell.Screen, x, y, width int, s string, style tcell.Style) int {
	for _, c := range clipCells(s, width) {
		screen.SetContent(x, y, c.runes[0], c.runes[1:], style)
		x += c.width
	}
	return x
}

// drawStatus writes the status line across the full width of row y.
func drawStatus(screen tcell.Screen, y, width int, s string) {
	for x := drawText(screen, 0, y, width, s, statusStyle); x < width; x++ {
		screen.SetContent(x, y, ' ', nil, statusStyle)
	}
}

type cell struct {
	runes []rune
	width int
}

// clipCells splits s into grapheme clusters and keeps those that fit in
// width terminal cells.
func clipCells(s string, width int) []cell {
	var cells []cell
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if w == 0 {
			continue
		}
		if used+w > width {
			break
		}
		cells = append(cells, cell{runes: g.Runes(), width: w})
		used += w
	}
	return cells
}

// Clip returns the longest prefix of s that fits in width terminal cells
// without splitting a grapheme cluster.
func Clip(s string, width int) string {
	var out []rune
	for _, c := range clipCells(s, width) {
		out = append(out, c.runes...)
	}
	return string(out)
}
