// Package term converts terminal key events from tcell into key events.
package term

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/chordpack/internal/input/key"
)

// specialKeys maps tcell's named keys. The Ctrl-letter codes that share a
// value with a named key (Tab, Enter, Escape) resolve to the named key.
// tcell's KeyBackspace is the ^H code that Ctrl-H sends, so it is left to
// the Ctrl-letter range; the Backspace key itself arrives as KeyBackspace2.
var specialKeys = map[tcell.Key]key.Key{
	tcell.KeyEscape:     key.KeyEscape,
	tcell.KeyEnter:      key.KeyEnter,
	tcell.KeyTab:        key.KeyTab,
	tcell.KeyBackspace2: key.KeyBackspace,
	tcell.KeyDelete:     key.KeyDelete,
	tcell.KeyInsert:     key.KeyInsert,
	tcell.KeyHome:       key.KeyHome,
	tcell.KeyEnd:        key.KeyEnd,
	tcell.KeyPgUp:       key.KeyPageUp,
	tcell.KeyPgDn:       key.KeyPageDown,
	tcell.KeyUp:         key.KeyUp,
	tcell.KeyDown:       key.KeyDown,
	tcell.KeyLeft:       key.KeyLeft,
	tcell.KeyRight:      key.KeyRight,
	tcell.KeyPause:      key.KeyPause,
	tcell.KeyPrint:      key.KeyPrintScreen,
}

func init() {
	for i := 0; i < 24; i++ {
		specialKeys[tcell.KeyF1+tcell.Key(i)] = key.KeyF1 + key.Key(i)
	}
}

// FromTcell converts a tcell key event. Upper-case runes gain Shift, and
// the Ctrl-letter codes become Ctrl plus the letter.
func FromTcell(ev *tcell.EventKey) key.Event {
	mods := fromTcellMod(ev.Modifiers())
	out := key.Event{Modifiers: mods, Timestamp: ev.When()}

	k := ev.Key()
	switch {
	case k == tcell.KeyRune:
		r := ev.Rune()
		switch {
		case r > 0 && r < ' ':
			out.Key = key.KeyRune
			out.Rune = 'a' + r - 1
			out.Modifiers |= key.ModCtrl
		case r == ' ':
			out.Key = key.KeySpace
		default:
			out.Key = key.KeyRune
			out.Rune = r
			if unicode.IsUpper(r) {
				out.Modifiers |= key.ModShift
			}
		}
	case k == tcell.KeyBacktab:
		out.Key = key.KeyTab
		out.Modifiers |= key.ModShift
	case k == tcell.KeyCtrlSpace:
		out.Key = key.KeySpace
		out.Modifiers |= key.ModCtrl
	default:
		if named, ok := specialKeys[k]; ok {
			out.Key = named
			break
		}
		if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
			out.Key = key.KeyRune
			out.Rune = 'a' + rune(k-tcell.KeyCtrlA)
			out.Modifiers |= key.ModCtrl
			break
		}
		out.Key = key.KeyNone
	}
	return out
}

// ToTcell converts an event back to tcell, for posting synthetic keys to
// a screen.
func ToTcell(ev key.Event) *tcell.EventKey {
	mods := toTcellMod(ev.Modifiers)
	switch ev.Key {
	case key.KeyRune:
		if ev.Modifiers.HasCtrl() && ev.Rune >= 'a' && ev.Rune <= 'z' {
			return tcell.NewEventKey(tcell.KeyCtrlA+tcell.Key(ev.Rune-'a'), 0, mods)
		}
		return tcell.NewEventKey(tcell.KeyRune, ev.Rune, mods)
	case key.KeySpace:
		if ev.Modifiers.HasCtrl() {
			return tcell.NewEventKey(tcell.KeyCtrlSpace, 0, mods)
		}
		return tcell.NewEventKey(tcell.KeyRune, ' ', mods)
	}
	for tk, k := range specialKeys {
		if k == ev.Key {
			return tcell.NewEventKey(tk, 0, mods)
		}
	}
	return tcell.NewEventKey(tcell.KeyRune, 0, mods)
}

// fromTcellMod converts a tcell modifier mask.
func fromTcellMod(m tcell.ModMask) key.Modifier {
	var result key.Modifier
	if m&tcell.ModShift != 0 {
		result |= key.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= key.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= key.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= key.ModMeta
	}
	return result
}

// toTcellMod converts a modifier mask to tcell.
func toTcellMod(m key.Modifier) tcell.ModMask {
	var result tcell.ModMask
	if m.HasShift() {
		result |= tcell.ModShift
	}
	if m.HasCtrl() {
		result |= tcell.ModCtrl
	}
	if m.HasAlt() {
		result |= tcell.ModAlt
	}
	if m.HasMeta() {
		result |= tcell.ModMeta
	}
	return result
}
