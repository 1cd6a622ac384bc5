package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse parses accelerator text into a keystroke sequence.
//
// Each chord is any number of modifier prefixes followed by a key:
//
//	"C-X C-S"        Control-X then Control-S (Command on the Mac)
//	"^-X"            Control-X on every platform
//	"M-ESCAPE"       Alt-Escape
//	"Ctrl+Shift+F1"  long modifier names
//	"^X^Z"           single-character chords may run together
//	"^"              the caret key when nothing follows it
//
// Chords are separated by spaces or tabs. Named keys (RETURN, TAB, F12,
// PAGEUP and the aliases RET, SPC, ESC, DEL, BS) match longest first and
// must end at a chord boundary; anything else is one literal character.
// Matching is case-insensitive.
func Parse(p Platform, spec string) (Sequence, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, ErrEmptySpec
	}

	var seq Sequence
	rest := spec
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			break
		}
		k, n, err := parseChord(p, rest)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", spec, err)
		}
		seq = append(seq, k)
		rest = rest[n:]
	}
	return seq, nil
}

// ParseKeystroke parses accelerator text holding exactly one chord.
func ParseKeystroke(p Platform, spec string) (Keystroke, error) {
	seq, err := Parse(p, spec)
	if err != nil {
		return Keystroke{}, err
	}
	if len(seq) != 1 {
		return Keystroke{}, fmt.Errorf("%w: %q holds %d keystrokes", ErrInvalidSpec, spec, len(seq))
	}
	return seq[0], nil
}

// MustParse parses accelerator text and panics on error.
// Use only for known-valid specs in initialization code.
func MustParse(p Platform, spec string) Sequence {
	seq, err := Parse(p, spec)
	if err != nil {
		panic("invalid key specification: " + err.Error())
	}
	return seq
}

// parseChord parses the chord at the start of s and returns it with the
// number of bytes consumed.
func parseChord(p Platform, s string) (Keystroke, int, error) {
	var mods Modifier
	i := 0
	for {
		n, m := matchModifier(p, asciiUpper(s[i:]))
		if n == 0 {
			break
		}
		// A caret with nothing after it is the ^ key itself.
		if s[i] == '^' && atBoundary(s[i+n:]) {
			break
		}
		mods = mods.With(m)
		i += n
	}

	rest := s[i:]
	if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
		return Keystroke{}, 0, fmt.Errorf("%w: modifier without a key", ErrInvalidSpec)
	}

	if k, n := matchKeyName(rest); n > 0 {
		return NewKeystroke(mods, k), i + n, nil
	}

	r, n := utf8.DecodeRuneInString(rest)
	if r == utf8.RuneError && n <= 1 {
		return Keystroke{}, 0, fmt.Errorf("%w: invalid UTF-8", ErrInvalidSpec)
	}
	if !unicode.IsPrint(r) {
		return Keystroke{}, 0, fmt.Errorf("%w: unprintable key %U", ErrInvalidSpec, r)
	}
	return RuneKeystroke(mods, r), i + n, nil
}

func atBoundary(s string) bool {
	return s == "" || s[0] == ' ' || s[0] == '\t'
}

// matchKeyName returns the longest key name at the start of s that ends at
// a chord boundary.
func matchKeyName(s string) (Key, int) {
	upper := asciiUpper(s)
	for _, name := range namesByLength {
		if !strings.HasPrefix(upper, name) {
			continue
		}
		if len(upper) == len(name) || upper[len(name)] == ' ' || upper[len(name)] == '\t' {
			return keyNames[name], len(name)
		}
	}
	return KeyNone, 0
}

// asciiUpper upper-cases ASCII letters only, so byte offsets into the
// result are offsets into s.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
