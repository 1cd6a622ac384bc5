package key

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform selects what the accelerator modifiers mean.
type Platform uint8

const (
	// PC treats C- and ^- as Control and has no Command key.
	PC Platform = iota

	// Mac treats C- as Command and ^- as Control.
	Mac
)

// DefaultPlatform returns the platform of the running system.
func DefaultPlatform() Platform {
	if runtime.GOOS == "darwin" {
		return Mac
	}
	return PC
}

// ParsePlatform parses "pc", "mac" or "auto".
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DefaultPlatform(), nil
	case "pc", "linux", "windows":
		return PC, nil
	case "mac", "darwin", "macos":
		return Mac, nil
	}
	return PC, fmt.Errorf("unknown platform %q", s)
}

func (p Platform) String() string {
	if p == Mac {
		return "mac"
	}
	return "pc"
}

// Command returns the modifier the C- prefix stands for.
func (p Platform) Command() Modifier {
	if p == Mac {
		return ModMeta
	}
	return ModCtrl
}

// Normalize folds modifiers the platform does not distinguish. On a PC
// the Command key is Control.
func (p Platform) Normalize(m Modifier) Modifier {
	if p == PC && m.HasMeta() {
		return m.Without(ModMeta).With(ModCtrl)
	}
	return m
}

type modifierText struct {
	mod   Modifier
	emacs string
	menu  string
}

var (
	pcModifiers = []modifierText{
		{ModCtrl, "C-", "Ctrl+"},
		{ModShift, "S-", "Shift+"},
		{ModAlt, "M-", "Alt+"},
	}
	macModifiers = []modifierText{
		{ModCtrl, "^-", "Ctrl+"},
		{ModMeta, "C-", "Cmd+"},
		{ModShift, "S-", "Shift+"},
		{ModAlt, "M-", "Opt+"},
	}
)

func (p Platform) modifiers() []modifierText {
	if p == Mac {
		return macModifiers
	}
	return pcModifiers
}

func (p Platform) emacsModifiers(m Modifier) string {
	m = p.Normalize(m)
	var sb strings.Builder
	for _, mt := range p.modifiers() {
		if m.Has(mt.mod) {
			sb.WriteString(mt.emacs)
		}
	}
	return sb.String()
}

func (p Platform) menuModifiers(m Modifier) string {
	m = p.Normalize(m)
	var sb strings.Builder
	for _, mt := range p.modifiers() {
		if m.Has(mt.mod) {
			sb.WriteString(mt.menu)
		}
	}
	return sb.String()
}
