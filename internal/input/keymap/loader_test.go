package keymap

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/chordpack/internal/input/key"
)

const globalTOML = `
name = "global"
strict = true

[[bindings]]
keys = "C-X C-S"
action = "save-buffer"
description = "Save the current buffer"

[[bindings]]
keys = "M-x"
action = "execute-extended-command"
`

const globalJSON = `{
  "name": "global",
  "bindings": [
    {"keys": "C-X C-S", "action": "save-buffer"},
    {"keys": "M-x", "action": "execute-extended-command"}
  ]
}`

func testCommands(t *testing.T) *Commands {
	t.Helper()
	c := NewCommands()
	for _, name := range []string{
		CmdSaveBuffer, CmdFindFile, CmdQuit, CmdExecuteExtended,
		CmdQuotedInsert, CmdDescribeKey, CmdDescribeBindings, CmdKeyboardQuit,
	} {
		if err := c.Register(NewAction(name, nil)); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}
	return c
}

func TestLoadReader(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
		strict bool
	}{
		{"toml", globalTOML, FormatTOML, true},
		{"json", globalJSON, FormatJSON, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := NewLoader(nil).LoadReader(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("LoadReader() error = %v", err)
			}
			if def.Name != "global" || def.Strict != tt.strict || len(def.Bindings) != 2 {
				t.Fatalf("LoadReader() = %+v", def)
			}

			km, err := def.Build(testCommands(t), WithCache(key.NewCache(key.PC, nil)))
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if km.Name() != "global" || km.Strict() != tt.strict {
				t.Errorf("Build() = %s strict=%v", km.Name(), km.Strict())
			}
			actions, ok := km.Find("M-X")
			if !ok || actions[0].Name() != CmdExecuteExtended {
				t.Errorf("Find(M-X) = %v, %v", actions, ok)
			}
		})
	}
}

func TestLoadReaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
		want   string
	}{
		{"unknown field", "name = \"x\"\ncolour = 1\n", FormatTOML, "decoding keymap"},
		{"bad toml", "name = \n", FormatTOML, "line 1"},
		{"bad json", "{", FormatJSON, "decoding keymap"},
		{"empty keys", "[[bindings]]\naction = \"x\"\n", FormatTOML, "empty keys"},
		{"empty action", "[[bindings]]\nkeys = \"a\"\n", FormatTOML, "empty action"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(nil).LoadReader(strings.NewReader(tt.input), tt.format)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadReader() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestApplyUnknownCommand(t *testing.T) {
	def := &File{Name: "x", Bindings: []BindingDef{{Keys: "C-A", Action: "no-such-command"}}}
	_, err := def.Build(NewCommands())
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Build() error = %v, want ErrUnknownCommand", err)
	}
}

func TestApplyStrictConflict(t *testing.T) {
	def := &File{
		Name:   "x",
		Strict: true,
		Bindings: []BindingDef{
			{Keys: "C-X", Action: CmdSaveBuffer},
			{Keys: "C-X C-S", Action: CmdSaveBuffer},
		},
	}
	_, err := def.Build(testCommands(t))
	var dup *DuplicatePrefixError
	if !errors.As(err, &dup) {
		t.Errorf("Build() error = %v, want *DuplicatePrefixError", err)
	}
}

func TestLoadFileAndLoadAll(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	tomlPath := write("emacs.toml", strings.Replace(globalTOML, "name = \"global\"\n", "", 1))
	write("vi.json", globalJSON)
	write("broken.toml", "[[bindings]\n")

	def, err := NewLoader(nil).LoadFile(tomlPath)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if def.Name != "emacs" {
		t.Errorf("Name = %q, want the file name", def.Name)
	}
	if def.Path != tomlPath {
		t.Errorf("Path = %q, want %q", def.Path, tomlPath)
	}

	if _, err := NewLoader(nil).LoadFile(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("LoadFile(missing) succeeded")
	}

	l := NewLoader(nil)
	l.AddSearchPath(dir)
	files, err := l.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("LoadAll() = %d files, want 2 (broken skipped)", len(files))
	}

	reg := NewRegistry()
	if err := l.LoadAndRegister(reg, testCommands(t)); err != nil {
		t.Fatalf("LoadAndRegister() error = %v", err)
	}
	if names := reg.Names(); len(names) != 2 || names[0] != "emacs" || names[1] != "global" {
		t.Errorf("Names() = %v, want [emacs global]", names)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatJSON} {
		data, err := DefaultGlobal().Marshal(format)
		if err != nil {
			t.Fatalf("Marshal(%d) error = %v", format, err)
		}
		def, err := NewLoader(nil).LoadReader(strings.NewReader(string(data)), format)
		if err != nil {
			t.Fatalf("LoadReader(%d) error = %v\n%s", format, err, data)
		}
		if len(def.Bindings) != len(DefaultGlobal().Bindings) {
			t.Errorf("format %d: %d bindings, want %d", format, len(def.Bindings), len(DefaultGlobal().Bindings))
		}
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"keys.toml", FormatTOML},
		{"keys.JSON", FormatJSON},
		{"keys", FormatTOML},
	}
	for _, tt := range tests {
		if got := FormatForPath(tt.path); got != tt.want {
			t.Errorf("FormatForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDefaultGlobalBuilds(t *testing.T) {
	km, err := DefaultGlobal().Build(testCommands(t), WithCache(key.NewCache(key.PC, nil)))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if km.Len() != len(DefaultGlobal().Bindings) {
		t.Errorf("Len() = %d, want %d", km.Len(), len(DefaultGlobal().Bindings))
	}
	if !km.HasRootPrefix(key.MustParse(key.PC, "M-ESC")[0]) {
		t.Error("default global map should enable sticky meta")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	first := New("global")
	if old := r.Register(first); old != nil {
		t.Errorf("Register() replaced %v", old)
	}
	if old := r.Register(New("global")); old != first {
		t.Error("Register() did not return the replaced keymap")
	}
	if _, ok := r.Get("global"); !ok {
		t.Error("Get(global) not found")
	}
	r.Unregister("global")
	if _, ok := r.Get("global"); ok {
		t.Error("Get() found an unregistered keymap")
	}
}

func TestCommands(t *testing.T) {
	c := NewCommands()
	if err := c.Register(NewAction("a", nil), NewAction("b", nil)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := c.Register(NewAction("a", nil)); err == nil {
		t.Error("Register(duplicate) succeeded")
	}
	if _, ok := c.Lookup("b"); !ok {
		t.Error("Lookup(b) not found")
	}
	if names := c.Names(); len(names) != 2 || names[0] != "a" {
		t.Errorf("Names() = %v", names)
	}
}
