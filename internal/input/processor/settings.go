package processor

import (
	"errors"
	"fmt"

	"github.com/dshills/chordpack/internal/input/key"
)

// Settings configures a Processor.
type Settings struct {
	// Platform decides how accelerator modifiers are read.
	Platform key.Platform

	// Abort cancels any sequence or argument in progress.
	// Default: "C-G"
	Abort string

	// StickyMeta is the key that, pressed alone, makes the next keystroke
	// act as if Alt were held. It is only active when the global keymap
	// has a binding starting with Alt plus this key.
	// Default: "ESCAPE"
	StickyMeta string

	// UniversalArgument starts a numeric argument.
	// Default: "C-U"
	UniversalArgument string

	// DefaultArgument is the argument used when the universal argument
	// key is not followed by digits.
	// Default: 4
	DefaultArgument int
}

// DefaultSettings returns Emacs-style settings for the default platform.
func DefaultSettings() Settings {
	return Settings{
		Platform:          key.DefaultPlatform(),
		Abort:             "C-G",
		StickyMeta:        "ESCAPE",
		UniversalArgument: "C-U",
		DefaultArgument:   4,
	}
}

// ErrInvalidSettings is returned by Validate.
var ErrInvalidSettings = errors.New("invalid processor settings")

// keys holds the parsed special keystrokes.
type keys struct {
	abort     key.Keystroke
	sticky    key.Keystroke
	metaStick key.Keystroke
	universal key.Keystroke
}

func (s Settings) parse(cache *key.Cache) (keys, error) {
	var k keys
	if s.DefaultArgument <= 0 {
		return k, fmt.Errorf("%w: default argument %d must be positive", ErrInvalidSettings, s.DefaultArgument)
	}
	fields := []struct {
		name string
		spec string
		dst  *key.Keystroke
	}{
		{"abort", s.Abort, &k.abort},
		{"sticky meta", s.StickyMeta, &k.sticky},
		{"universal argument", s.UniversalArgument, &k.universal},
	}
	for _, f := range fields {
		ks, err := cache.Keystroke(f.spec)
		if err != nil {
			return k, fmt.Errorf("%w: %s: %w", ErrInvalidSettings, f.name, err)
		}
		*f.dst = ks
	}
	k.metaStick = k.sticky.WithMods(key.ModAlt)
	return k, nil
}

// Validate checks that every key setting parses.
func (s Settings) Validate() error {
	_, err := s.parse(key.NewCache(s.Platform, nil))
	return err
}
