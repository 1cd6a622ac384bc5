package key

import "strings"

// Modifier represents keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModMeta indicates the Command key on macOS.
	ModMeta
)

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// HasShift returns true if Shift is pressed.
func (m Modifier) HasShift() bool {
	return m.Has(ModShift)
}

// HasCtrl returns true if Control is pressed.
func (m Modifier) HasCtrl() bool {
	return m.Has(ModCtrl)
}

// HasAlt returns true if Alt is pressed.
func (m Modifier) HasAlt() bool {
	return m.Has(ModAlt)
}

// HasMeta returns true if Meta is pressed.
func (m Modifier) HasMeta() bool {
	return m.Has(ModMeta)
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// String returns a human-readable representation like "Ctrl+Alt".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}

	var parts []string
	if m.HasCtrl() {
		parts = append(parts, "Ctrl")
	}
	if m.HasAlt() {
		parts = append(parts, "Alt")
	}
	if m.HasShift() {
		parts = append(parts, "Shift")
	}
	if m.HasMeta() {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

// modifierToken is one modifier prefix of the accelerator grammar. A
// command token means Command on the Mac and Control elsewhere.
type modifierToken struct {
	text    string
	mod     Modifier
	command bool
}

// modifierTokens is ordered so that no token is shadowed by a shorter one
// sharing its prefix.
var modifierTokens = []modifierToken{
	{text: "COMMAND-", command: true},
	{text: "COMMAND+", command: true},
	{text: "APPLE-", command: true},
	{text: "APPLE+", command: true},
	{text: "CMD-", command: true},
	{text: "CMD+", command: true},
	{text: "C-", command: true},
	{text: "CONTROL-", mod: ModCtrl},
	{text: "CONTROL+", mod: ModCtrl},
	{text: "CTRL-", mod: ModCtrl},
	{text: "CTRL+", mod: ModCtrl},
	{text: "^-", mod: ModCtrl},
	{text: "^", mod: ModCtrl},
	{text: "SHIFT-", mod: ModShift},
	{text: "SHIFT+", mod: ModShift},
	{text: "S-", mod: ModShift},
	{text: "OPTION-", mod: ModAlt},
	{text: "OPTION+", mod: ModAlt},
	{text: "OPT-", mod: ModAlt},
	{text: "OPT+", mod: ModAlt},
	{text: "META-", mod: ModAlt},
	{text: "META+", mod: ModAlt},
	{text: "ALT-", mod: ModAlt},
	{text: "ALT+", mod: ModAlt},
	{text: "M-", mod: ModAlt},
	{text: "A-", mod: ModAlt},
}

// matchModifier returns the length and meaning of the modifier prefix at
// the start of upper, or 0 if there is none.
func matchModifier(p Platform, upper string) (int, Modifier) {
	for _, tok := range modifierTokens {
		if strings.HasPrefix(upper, tok.text) {
			if tok.command {
				return len(tok.text), p.Command()
			}
			return len(tok.text), tok.mod
		}
	}
	return 0, ModNone
}
