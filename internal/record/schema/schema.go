// Package schema compiles declarative TOML schema files into records.
//
// A schema file names its root record and describes every record as an
// ordered array of field tables:
//
//	root = "header"
//
//	[constants]
//	MAGIC = 0x4b50
//
//	[[records.header.fields]]
//	name = "magic"
//	type = "u16be"
//
//	[[records.header.fields]]
//	name = "count"
//	type = "u8"
//
//	[[records.header.fields]]
//	name = "items"
//	type = "list"
//	count = "count"
//	of = { type = "u16le" }
//
// Computed attributes (length, count, max, when, on, offset, value,
// decode, encode) are Lua expressions evaluated against the instance
// being decoded or encoded.
package schema

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/chordpack/internal/logging"
	"github.com/dshills/chordpack/internal/record"
	"github.com/dshills/chordpack/internal/script"
)

// File is the decoded form of a schema file.
type File struct {
	Root      string               `toml:"root"`
	Constants map[string]any       `toml:"constants"`
	Records   map[string]RecordDef `toml:"records"`
}

// RecordDef describes one record.
type RecordDef struct {
	Fields []FieldDef `toml:"fields"`
}

// FieldDef describes one field. Which attributes apply depends on Type.
type FieldDef struct {
	Name    string `toml:"name"`
	Type    string `toml:"type"`
	Default any    `toml:"default"`

	Format string `toml:"format"`
	Text   bool   `toml:"text"`
	Pad    int    `toml:"pad"`
	Record string `toml:"record"`
	Anchor string `toml:"anchor"`
	Order  string `toml:"order"`
	Policy string `toml:"policy"`
	Dir    string `toml:"direction"`

	Length string `toml:"length"`
	Count  string `toml:"count"`
	Max    string `toml:"max"`
	When   string `toml:"when"`
	On     string `toml:"on"`
	Offset string `toml:"offset"`
	Value  string `toml:"value"`
	Decode string `toml:"decode"`
	Encode string `toml:"encode"`

	Of          *FieldDef           `toml:"of"`
	Else        *FieldDef           `toml:"else"`
	Cases       map[string]FieldDef `toml:"cases"`
	DefaultCase *FieldDef           `toml:"default_case"`
}

// Schema is a compiled schema file.
type Schema struct {
	Path    string
	Root    *record.Record
	records map[string]*record.Record
	engine  *script.Engine
}

// Record returns the named record.
func (s *Schema) Record(name string) (*record.Record, bool) {
	r, ok := s.records[name]
	return r, ok
}

// Names returns the record names in sorted order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.records))
	for n := range s.records {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close releases the expression engine.
func (s *Schema) Close() error {
	return s.engine.Close()
}

// ParseError reports a malformed schema file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Option configures compilation.
type Option func(*options)

type options struct {
	log     *logging.Logger
	scripts []script.Option
}

// WithLogger traces compilation and expression evaluation.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.log = l
		o.scripts = append(o.scripts, script.WithLogger(l))
	}
}

// WithScriptOptions passes options to the expression engine.
func WithScriptOptions(opts ...script.Option) Option {
	return func(o *options) {
		o.scripts = append(o.scripts, opts...)
	}
}

// Load reads and compiles the schema file at path.
func Load(path string, opts ...Option) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	return Parse(path, data, opts...)
}

// LoadReader reads and compiles a schema from r.
func LoadReader(r io.Reader, opts ...Option) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	return Parse("<reader>", data, opts...)
}

// Parse compiles schema source. path is used in error messages.
func Parse(path string, data []byte, opts ...Option) (*Schema, error) {
	var file File
	if err := toml.Unmarshal(data, &file); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return nil, pe
	}
	return Compile(path, &file, opts...)
}

// Compile builds every record of a decoded schema file.
func Compile(path string, file *File, opts ...Option) (*Schema, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if file.Root == "" {
		return nil, fmt.Errorf("%s: %w", path, &record.SchemaError{Reason: "schema has no root record"})
	}

	eng, err := script.New(o.scripts...)
	if err != nil {
		return nil, err
	}
	for name, v := range file.Constants {
		if err := eng.Define(name, v); err != nil {
			eng.Close()
			return nil, err
		}
	}

	c := &compiler{
		file:     file,
		engine:   eng,
		log:      o.log,
		built:    make(map[string]*record.Record),
		building: make(map[string]bool),
	}
	names := make([]string, 0, len(file.Records))
	for n := range file.Records {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, err := c.record(n); err != nil {
			eng.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	root, ok := c.built[file.Root]
	if !ok {
		eng.Close()
		return nil, fmt.Errorf("%s: %w", path, &record.SchemaError{Record: file.Root, Reason: "root record is not defined"})
	}
	o.log.Debug("compiled schema %s: %d records, root %s", path, len(c.built), file.Root)
	return &Schema{Path: path, Root: root, records: c.built, engine: eng}, nil
}
