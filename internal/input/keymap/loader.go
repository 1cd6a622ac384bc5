package keymap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/chordpack/internal/logging"
)

// ErrUnknownCommand is returned when a keymap file names an action that is
// not registered.
var ErrUnknownCommand = errors.New("unknown command")

// Format selects the encoding of a keymap file.
type Format int

const (
	FormatTOML Format = iota
	FormatJSON
)

// FormatForPath picks the format from a file extension. Anything other
// than .json is read as TOML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatTOML
}

// File is the decoded form of a keymap file.
type File struct {
	Name     string       `toml:"name" json:"name"`
	Strict   bool         `toml:"strict,omitempty" json:"strict,omitempty"`
	Bindings []BindingDef `toml:"bindings" json:"bindings"`

	// Path is the file the definition was read from, if any.
	Path string `toml:"-" json:"-"`
}

// Validate checks that every binding names keys and an action.
func (f *File) Validate() error {
	for i, b := range f.Bindings {
		if b.Keys == "" {
			return fmt.Errorf("binding %d: empty keys", i)
		}
		if b.Action == "" {
			return fmt.Errorf("binding %d (%s): empty action", i, b.Keys)
		}
	}
	return nil
}

// Apply defines every binding of f on km, resolving action names through
// commands.
func (f *File) Apply(km *KeyMap, commands *Commands) error {
	for i, b := range f.Bindings {
		action, ok := commands.Lookup(b.Action)
		if !ok {
			return fmt.Errorf("binding %d (%s): %w %q", i, b.Keys, ErrUnknownCommand, b.Action)
		}
		if err := km.Define(b.Keys, action); err != nil {
			return fmt.Errorf("binding %d: %w", i, err)
		}
	}
	return nil
}

// Build creates a keymap named after f and applies its bindings.
func (f *File) Build(commands *Commands, opts ...Option) (*KeyMap, error) {
	opts = append(opts, WithStrict(f.Strict))
	km := New(f.Name, opts...)
	if err := f.Apply(km, commands); err != nil {
		return nil, fmt.Errorf("keymap %s: %w", f.Name, err)
	}
	return km, nil
}

// Loader loads keymaps from configuration files.
type Loader struct {
	// searchPaths are directories to search for keymap files.
	searchPaths []string
	log         *logging.Logger
}

// NewLoader creates a new keymap loader.
func NewLoader(log *logging.Logger) *Loader {
	return &Loader{
		searchPaths: make([]string, 0),
		log:         log,
	}
}

// AddSearchPath adds a directory to search for keymap files.
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// LoadFile loads a keymap definition from a TOML or JSON file.
func (l *Loader) LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keymap file: %w", err)
	}
	defer f.Close()

	def, err := l.LoadReader(f, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def.Path = path
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}

// LoadReader decodes a keymap definition.
func (l *Loader) LoadReader(r io.Reader, format Format) (*File, error) {
	var def File
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("decoding keymap: %w", err)
		}
	default:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading keymap: %w", err)
		}
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return nil, fmt.Errorf("decoding keymap at line %d, column %d: %w", row, col, err)
			}
			return nil, fmt.Errorf("decoding keymap: %w", err)
		}
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadAll loads every keymap file found in the search paths. Files that
// fail to load are logged and skipped.
func (l *Loader) LoadAll() ([]*File, error) {
	files := make([]*File, 0)

	for _, dir := range l.searchPaths {
		var matches []string
		for _, pattern := range []string{"*.toml", "*.json"} {
			m, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, err
			}
			matches = append(matches, m...)
		}

		for _, path := range matches {
			def, err := l.LoadFile(path)
			if err != nil {
				l.log.Warn("skipping keymap: %v", err)
				continue
			}
			files = append(files, def)
		}
	}

	return files, nil
}

// LoadAndRegister loads all keymaps, builds them against commands and
// registers them.
func (l *Loader) LoadAndRegister(registry *Registry, commands *Commands, opts ...Option) error {
	files, err := l.LoadAll()
	if err != nil {
		return err
	}

	for _, def := range files {
		km, err := def.Build(commands, opts...)
		if err != nil {
			return err
		}
		registry.Register(km)
	}

	return nil
}

// Marshal encodes f in the given format.
func (f *File) Marshal(format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(f, "", "  ")
	}
	return toml.Marshal(f)
}
