package config

import (
	"errors"
	"path/filepath"

	"github.com/dshills/chordpack/internal/input/key"
	"github.com/dshills/chordpack/internal/input/processor"
	"github.com/dshills/chordpack/internal/logging"
	"github.com/dshills/chordpack/internal/record"
)

// Config is the typed application configuration.
type Config struct {
	Log   LogConfig   `toml:"log"`
	Keys  KeysConfig  `toml:"keys"`
	Codec CodecConfig `toml:"codec"`

	// Path is the file the configuration was read from, if any.
	Path string `toml:"-"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
}

// KeysConfig configures the keystroke processor.
type KeysConfig struct {
	// Platform is "pc", "mac" or "auto".
	Platform string `toml:"platform"`

	Abort             string `toml:"abort"`
	StickyMeta        string `toml:"sticky_meta"`
	UniversalArgument string `toml:"universal_argument"`
	DefaultArgument   int    `toml:"default_argument"`

	// Keymaps are keymap files loaded on top of the built-in bindings.
	// Relative paths are resolved against the config file's directory.
	Keymaps []string `toml:"keymaps"`

	// Watch reloads keymap files when they change.
	Watch bool `toml:"watch"`
}

// CodecConfig configures the record codec.
type CodecConfig struct {
	// Partial tolerates truncated input when decoding.
	Partial bool `toml:"partial"`

	// Conversion overrides every adapter's failure policy with
	// "substitute" or "fail". Empty keeps each adapter's own policy.
	Conversion string `toml:"conversion"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Keys: KeysConfig{
			Platform:          "auto",
			Abort:             "C-G",
			StickyMeta:        "ESCAPE",
			UniversalArgument: "C-U",
			DefaultArgument:   4,
			Keymaps:           []string{},
		},
	}
}

// defaults is Default as a layer map.
func defaults() map[string]any {
	return map[string]any{
		"log": map[string]any{
			"level": "info",
		},
		"keys": map[string]any{
			"platform":           "auto",
			"abort":              "C-G",
			"sticky_meta":        "ESCAPE",
			"universal_argument": "C-U",
			"default_argument":   int64(4),
			"keymaps":            []any{},
			"watch":              false,
		},
		"codec": map[string]any{
			"partial":    false,
			"conversion": "",
		},
	}
}

// Validate checks every setting and returns all problems joined.
// Each problem is a *ValidationError.
func (c *Config) Validate() error {
	var errs []error
	add := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	if !logging.ValidLevel(c.Log.Level) {
		add("log.level", "unknown log level", c.Log.Level)
	}

	platform, err := key.ParsePlatform(c.Keys.Platform)
	if err != nil {
		add("keys.platform", err.Error(), c.Keys.Platform)
	}
	keySettings := []struct {
		path string
		spec string
	}{
		{"keys.abort", c.Keys.Abort},
		{"keys.sticky_meta", c.Keys.StickyMeta},
		{"keys.universal_argument", c.Keys.UniversalArgument},
	}
	for _, ks := range keySettings {
		if _, err := key.ParseKeystroke(platform, ks.spec); err != nil {
			add(ks.path, err.Error(), ks.spec)
		}
	}
	if c.Keys.DefaultArgument <= 0 {
		add("keys.default_argument", "must be positive", c.Keys.DefaultArgument)
	}
	for i, p := range c.Keys.Keymaps {
		if p == "" {
			add("keys.keymaps", "empty path", i)
		}
	}

	if _, err := record.ParseConversionPolicy(c.Codec.Conversion); err != nil {
		add("codec.conversion", err.Error(), c.Codec.Conversion)
	}

	return errors.Join(errs...)
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

// Platform returns the configured key platform. Invalid names fall back
// to the default platform; Validate reports them.
func (c *Config) Platform() key.Platform {
	p, err := key.ParsePlatform(c.Keys.Platform)
	if err != nil {
		return key.DefaultPlatform()
	}
	return p
}

// Settings returns the processor settings.
func (c *Config) Settings() processor.Settings {
	return processor.Settings{
		Platform:          c.Platform(),
		Abort:             c.Keys.Abort,
		StickyMeta:        c.Keys.StickyMeta,
		UniversalArgument: c.Keys.UniversalArgument,
		DefaultArgument:   c.Keys.DefaultArgument,
	}
}

// Conversion returns the codec conversion override and whether one is set.
func (c *Config) Conversion() (record.ConversionPolicy, bool) {
	if c.Codec.Conversion == "" {
		return record.Substitute, false
	}
	p, err := record.ParseConversionPolicy(c.Codec.Conversion)
	return p, err == nil
}

// KeymapPaths returns the keymap files with relative paths resolved
// against the directory of the config file.
func (c *Config) KeymapPaths() []string {
	paths := make([]string, 0, len(c.Keys.Keymaps))
	for _, p := range c.Keys.Keymaps {
		if !filepath.IsAbs(p) && c.Path != "" {
			p = filepath.Join(filepath.Dir(c.Path), p)
		}
		paths = append(paths, p)
	}
	return paths
}
