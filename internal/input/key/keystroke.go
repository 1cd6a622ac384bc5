package key

import (
	"strings"
	"unicode"
)

// Keystroke is one chord: a modifier set and a base key. Letters are
// stored upper case, so "C-x" and "C-X" are the same chord. Keystrokes are
// comparable and may be used as map keys.
type Keystroke struct {
	Mods Modifier
	Key  Key
	Rune rune
}

// NewKeystroke builds a keystroke for a named key.
func NewKeystroke(mods Modifier, k Key) Keystroke {
	return Keystroke{Mods: mods, Key: k}
}

// RuneKeystroke builds a keystroke for a character key. A space becomes
// the SPACE key.
func RuneKeystroke(mods Modifier, r rune) Keystroke {
	if r == ' ' {
		return Keystroke{Mods: mods, Key: KeySpace}
	}
	return Keystroke{Mods: mods, Key: KeyRune, Rune: unicode.ToUpper(r)}
}

// Decode converts a raw key-down event into the keystroke it stands for
// on platform p.
func Decode(p Platform, ev Event) Keystroke {
	mods := p.Normalize(ev.Modifiers)
	if ev.Key == KeyRune {
		return RuneKeystroke(mods, ev.Rune)
	}
	return NewKeystroke(mods, ev.Key)
}

// IsZero reports whether k is the zero keystroke.
func (k Keystroke) IsZero() bool {
	return k == Keystroke{}
}

// IsModifierKey reports whether k is a bare modifier key press.
func (k Keystroke) IsModifierKey() bool {
	return k.Key.IsModifierKey()
}

// Digit returns the value of a digit key whatever its modifiers, or -1.
func (k Keystroke) Digit() int {
	if k.Key == KeyRune && k.Rune >= '0' && k.Rune <= '9' {
		return int(k.Rune - '0')
	}
	if k.Key >= KeyKP0 && k.Key <= KeyKP9 {
		return int(k.Key - KeyKP0)
	}
	return -1
}

// IsMinus reports whether k is the minus key, on the keyboard or keypad.
func (k Keystroke) IsMinus() bool {
	return (k.Key == KeyRune && k.Rune == '-') || k.Key == KeyKPSubtract
}

// WithMods returns k with extra modifiers.
func (k Keystroke) WithMods(m Modifier) Keystroke {
	k.Mods = k.Mods.With(m)
	return k
}

// WithoutMods returns k with modifiers removed.
func (k Keystroke) WithoutMods(m Modifier) Keystroke {
	k.Mods = k.Mods.Without(m)
	return k
}

func (k Keystroke) keyText() string {
	if k.Key == KeyRune {
		return string(k.Rune)
	}
	return k.Key.Name()
}

// Emacs returns the accelerator text of k, e.g. "C-X" or "M-ESCAPE".
func (k Keystroke) Emacs(p Platform) string {
	return p.emacsModifiers(k.Mods) + k.keyText()
}

// Menu returns the text shown next to a menu item, e.g. "Ctrl+X".
func (k Keystroke) Menu(p Platform) string {
	text := k.keyText()
	if k.Key != KeyRune {
		text = k.Key.String()
	}
	return p.menuModifiers(k.Mods) + text
}

// String returns the PC accelerator text.
func (k Keystroke) String() string {
	return k.Emacs(PC)
}

// Sequence is an ordered list of keystrokes.
type Sequence []Keystroke

// Emacs returns the accelerator text, chords separated by spaces.
func (s Sequence) Emacs(p Platform) string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = k.Emacs(p)
	}
	return strings.Join(parts, " ")
}

// Menu returns the menu text of every chord separated by spaces.
func (s Sequence) Menu(p Platform) string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = k.Menu(p)
	}
	return strings.Join(parts, " ")
}

// String returns the PC accelerator text.
func (s Sequence) String() string {
	return s.Emacs(PC)
}

// Equal returns true if two sequences are identical.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix returns true if s starts with prefix.
func (s Sequence) HasPrefix(prefix Sequence) bool {
	if len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)].Equal(prefix)
}

// Clone returns a copy of the sequence.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	return append(Sequence(nil), s...)
}

// MenuLabel returns the accelerator suffix of a menu item bound to seq: a
// tab and the menu text for a single chord, or padding and the accelerator
// text for a multi-chord binding, which menus cannot display natively.
func MenuLabel(p Platform, seq Sequence) string {
	switch len(seq) {
	case 0:
		return ""
	case 1:
		return "\t" + seq[0].Menu(p)
	}
	return "    " + seq.Emacs(p)
}
