package key

import (
	"fmt"
	"sort"
)

// Key represents a keyboard key.
// For character keys, use KeyRune and set the Rune field in Event.
type Key uint16

const (
	// KeyNone represents no key.
	KeyNone Key = iota

	// Special keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
	KeyF21
	KeyF22
	KeyF23
	KeyF24

	// Other special keys
	KeySpace
	KeyPause
	KeyPrintScreen
	KeyScrollLock
	KeyNumLock
	KeyCapsLock

	// Keypad keys
	KeyKP0
	KeyKP1
	KeyKP2
	KeyKP3
	KeyKP4
	KeyKP5
	KeyKP6
	KeyKP7
	KeyKP8
	KeyKP9
	KeyKPAdd
	KeyKPSubtract
	KeyKPMultiply
	KeyKPDivide
	KeyKPDecimal
	KeyKPEnter

	// Modifier keys. Some platforms report these as key presses of their
	// own; they never form a chord.
	KeyShift
	KeyControl
	KeyAlt
	KeyCommand

	// KeyRune is used for character keys (letters, numbers, punctuation).
	// The actual character is stored in Event.Rune.
	KeyRune
)

// keyInfo holds the accelerator name and the menu label of a named key.
type keyInfo struct {
	name string
	menu string
}

var keyInfos = map[Key]keyInfo{
	KeyEscape:      {"ESCAPE", "Esc"},
	KeyEnter:       {"RETURN", "Enter"},
	KeyTab:         {"TAB", "Tab"},
	KeyBackspace:   {"BACK", "Backspace"},
	KeyDelete:      {"DELETE", "Del"},
	KeyInsert:      {"INSERT", "Ins"},
	KeyHome:        {"HOME", "Home"},
	KeyEnd:         {"END", "End"},
	KeyPageUp:      {"PAGEUP", "PgUp"},
	KeyPageDown:    {"PAGEDOWN", "PgDn"},
	KeyUp:          {"UP", "Up"},
	KeyDown:        {"DOWN", "Down"},
	KeyLeft:        {"LEFT", "Left"},
	KeyRight:       {"RIGHT", "Right"},
	KeySpace:       {"SPACE", "Space"},
	KeyPause:       {"PAUSE", "Pause"},
	KeyPrintScreen: {"SNAPSHOT", "PrintScreen"},
	KeyScrollLock:  {"SCROLL", "ScrollLock"},
	KeyNumLock:     {"NUMLOCK", "NumLock"},
	KeyCapsLock:    {"CAPITAL", "CapsLock"},
	KeyKPAdd:       {"NUMPAD_ADD", "Num+"},
	KeyKPSubtract:  {"NUMPAD_SUBTRACT", "Num-"},
	KeyKPMultiply:  {"NUMPAD_MULTIPLY", "Num*"},
	KeyKPDivide:    {"NUMPAD_DIVIDE", "Num/"},
	KeyKPDecimal:   {"NUMPAD_DECIMAL", "Num."},
	KeyKPEnter:     {"NUMPAD_ENTER", "NumEnter"},
	KeyShift:       {"SHIFT", "Shift"},
	KeyControl:     {"CONTROL", "Ctrl"},
	KeyAlt:         {"ALT", "Alt"},
	KeyCommand:     {"COMMAND", "Cmd"},
}

func init() {
	for k := KeyF1; k <= KeyF24; k++ {
		n := fmt.Sprintf("F%d", k-KeyF1+1)
		keyInfos[k] = keyInfo{n, n}
	}
	for k := KeyKP0; k <= KeyKP9; k++ {
		d := int(k - KeyKP0)
		keyInfos[k] = keyInfo{fmt.Sprintf("NUMPAD%d", d), fmt.Sprintf("Num%d", d)}
	}

	keyNames = make(map[string]Key, len(keyInfos)+len(keyAliases))
	for k, info := range keyInfos {
		keyNames[info.name] = k
	}
	for alias, k := range keyAliases {
		keyNames[alias] = k
	}
	namesByLength = make([]string, 0, len(keyNames))
	for n := range keyNames {
		namesByLength = append(namesByLength, n)
	}
	sort.Slice(namesByLength, func(i, j int) bool {
		a, b := namesByLength[i], namesByLength[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
}

// keyAliases are accepted in accelerator text but never produced.
var keyAliases = map[string]Key{
	"RET":       KeyEnter,
	"ENTER":     KeyEnter,
	"SPC":       KeySpace,
	"ESC":       KeyEscape,
	"DEL":       KeyDelete,
	"BS":        KeyBackspace,
	"BACKSPACE": KeyBackspace,
	"INS":       KeyInsert,
	"PRIOR":     KeyPageUp,
	"NEXT":      KeyPageDown,
	"PGUP":      KeyPageUp,
	"PGDN":      KeyPageDown,
	"CTRL":      KeyControl,
}

var (
	// keyNames maps upper-case accelerator names and aliases to keys.
	keyNames map[string]Key

	// namesByLength lists keyNames longest first.
	namesByLength []string
)

// Name returns the accelerator name of a named key ("RETURN", "F1"), or
// "" for KeyNone and KeyRune.
func (k Key) Name() string {
	return keyInfos[k].name
}

// String returns a human-readable name for the key.
func (k Key) String() string {
	switch k {
	case KeyNone:
		return "None"
	case KeyRune:
		return "Rune"
	}
	if info, ok := keyInfos[k]; ok {
		return info.menu
	}
	return fmt.Sprintf("Key(%d)", k)
}

// IsSpecial returns true if this is a special (non-character) key.
func (k Key) IsSpecial() bool {
	return k != KeyNone && k != KeyRune
}

// IsFunctionKey returns true if this is a function key (F1-F24).
func (k Key) IsFunctionKey() bool {
	return k >= KeyF1 && k <= KeyF24
}

// IsArrowKey returns true if this is an arrow key.
func (k Key) IsArrowKey() bool {
	return k >= KeyUp && k <= KeyRight
}

// IsNavigationKey returns true if this is a navigation key.
func (k Key) IsNavigationKey() bool {
	return k.IsArrowKey() || k == KeyHome || k == KeyEnd || k == KeyPageUp || k == KeyPageDown
}

// IsKeypadKey returns true if this is a keypad key.
func (k Key) IsKeypadKey() bool {
	return k >= KeyKP0 && k <= KeyKPEnter
}

// IsModifierKey returns true for the Shift, Control, Alt and Command keys.
func (k Key) IsModifierKey() bool {
	return k >= KeyShift && k <= KeyCommand
}

// KeyFromName returns the Key for an accelerator name or alias, which
// must be upper case. Returns KeyNone if the name is not recognized.
func KeyFromName(name string) Key {
	return keyNames[name]
}
