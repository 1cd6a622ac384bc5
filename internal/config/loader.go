package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "CHORDPACK_"

// sections are the top-level tables environment variables may target.
var sections = map[string]bool{"log": true, "keys": true, "codec": true}

// listKeys are settings whose environment value is a path list.
var listKeys = map[string]bool{"keys.keymaps": true}

// Loader assembles a Config from defaults, a TOML file and the environment.
type Loader struct {
	path    string
	environ func() []string
}

// NewLoader creates a loader for the TOML file at path. An empty path
// skips the file layer.
func NewLoader(path string) *Loader {
	return &Loader{path: path, environ: os.Environ}
}

// Load reads the configuration file at path, applies the environment and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Load merges the layers and decodes the result.
func (l *Loader) Load() (*Config, error) {
	merged := defaults()

	if l.path != "" {
		file, err := l.loadFile(l.path)
		if err != nil {
			return nil, err
		}
		merged = DeepMerge(merged, file)
	}

	merged = DeepMerge(merged, l.loadEnv())

	cfg, err := decode(merged)
	if err != nil {
		return nil, err
	}
	if l.path != "" {
		if abs, err := filepath.Abs(l.path); err == nil {
			cfg.Path = abs
		} else {
			cfg.Path = l.path
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile reads the TOML layer. A missing file yields an empty layer.
func (l *Loader) loadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return parse(path, data)
}

// LoadReader decodes a configuration from r on top of the defaults. The
// environment is not consulted.
func LoadReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	layer, err := parse("<reader>", data)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(DeepMerge(defaults(), layer))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse parses TOML data into a map.
func parse(source string, data []byte) (map[string]any, error) {
	var layer map[string]any
	if err := toml.Unmarshal(data, &layer); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return nil, pe
	}
	return layer, nil
}

// decode converts the merged layers into a Config, rejecting unknown keys.
func decode(merged map[string]any) (*Config, error) {
	data, err := toml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg := &Config{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// loadEnv reads CHORDPACK_* variables into a layer. Variables that do not
// name a known section are ignored.
func (l *Loader) loadEnv() map[string]any {
	layer := make(map[string]any)
	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		section, setting, ok := envToPath(name)
		if !ok {
			continue
		}
		path := section + "." + setting
		var v any
		if listKeys[path] {
			v = parseList(value)
		} else {
			v = parseValue(value)
		}
		SetByPath(layer, path, v)
	}
	return layer
}

// envToPath converts CHORDPACK_KEYS_STICKY_META to ("keys", "sticky_meta").
func envToPath(env string) (section, setting string, ok bool) {
	name := strings.ToLower(strings.TrimPrefix(env, EnvPrefix))
	section, setting, ok = strings.Cut(name, "_")
	if !ok || setting == "" || !sections[section] {
		return "", "", false
	}
	return section, setting, true
}

// parseValue interprets an environment value as a bool, an integer or a
// string.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return s
}

// parseList splits a path list, dropping empty entries.
func parseList(s string) []any {
	out := []any{}
	for _, p := range filepath.SplitList(s) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DeepMerge recursively merges src into dst.
// Values in src override values in dst.
// Maps are merged recursively; other types are replaced.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	if src == nil {
		return dst
	}

	for key, srcVal := range src {
		dstVal, exists := dst[key]
		if !exists {
			dst[key] = cloneValue(srcVal)
			continue
		}

		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dstVal.(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
		} else {
			dst[key] = cloneValue(srcVal)
		}
	}

	return dst
}

// cloneValue creates a deep copy of a value.
func cloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		dst := make(map[string]any, len(v))
		for k, e := range v {
			dst[k] = cloneValue(e)
		}
		return dst
	case []any:
		dst := make([]any, len(v))
		for i, e := range v {
			dst[i] = cloneValue(e)
		}
		return dst
	default:
		return val
	}
}

// GetByPath retrieves a value from a nested map using a dot-separated path.
func GetByPath(data map[string]any, path string) (any, bool) {
	current := any(data)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		val, exists := m[part]
		if !exists {
			return nil, false
		}
		current = val
	}
	return current, true
}

// SetByPath sets a value in a nested map using a dot-separated path.
// Creates intermediate maps as needed.
func SetByPath(data map[string]any, path string, value any) {
	if data == nil {
		return
	}
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
