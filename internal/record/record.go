package record

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/chordpack/internal/logging"
)

// Record is an ordered typedef of fields. A Record is itself a Field: placed
// inside another record it stores a child Instance under its name.
type Record struct {
	name   string
	fields []Field
	names  []string

	postUnpack MutateFunc
	prePack    MutateFunc
}

// NewRecord validates the typedef and returns the record. Validation runs
// once here; the returned record is immutable and safe for concurrent use.
func NewRecord(name string, fields ...Field) (*Record, error) {
	if strings.HasPrefix(name, "_") {
		return nil, &SchemaError{Record: name, Reason: `record names starting with "_" are reserved`}
	}
	if len(fields) == 0 {
		return nil, &SchemaError{Record: name, Reason: "typedef is empty"}
	}

	r := &Record{name: name, fields: append([]Field(nil), fields...)}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f == nil {
			return nil, &SchemaError{Record: name, Reason: fmt.Sprintf("field %d is nil", i)}
		}
		n := f.Name()
		if n != "" {
			if seen[n] {
				return nil, &SchemaError{Record: name, Field: n, Reason: "duplicate field name"}
			}
			seen[n] = true
			r.names = append(r.names, n)
		}
		if err := validateField(name, f, dirBoth, ""); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustRecord is like NewRecord but panics on a schema error.
func MustRecord(name string, fields ...Field) *Record {
	r, err := NewRecord(name, fields...)
	if err != nil {
		panic(err)
	}
	return r
}

// validateField walks f and its proxies. outer is the kind of the closest
// repetition, adapter or indirection above f, or "" at the top.
func validateField(rec string, f Field, dir direction, outer string) error {
	if f == nil {
		return &SchemaError{Record: rec, Reason: "nil proxy"}
	}
	name := f.Name()
	if strings.HasPrefix(name, "_") {
		return &SchemaError{Record: rec, Field: name, Reason: `field names starting with "_" are reserved`}
	}
	if err := f.check(); err != nil {
		return &SchemaError{Record: rec, Field: name, Reason: err.Error()}
	}
	if _, ok := f.(*Record); ok {
		// nested records were validated by their own constructor
		return nil
	}

	kind := f.Kind()
	if kind == KindComputed && outer != "" {
		return &SchemaError{Record: rec, Field: name, Reason: fmt.Sprintf("computed field cannot be placed under a %s", outer)}
	}
	if d := f.direction(); d != dirBoth {
		if dir != dirBoth && d != dir {
			return &SchemaError{Record: rec, Field: name, Reason: fmt.Sprintf("%s field inside a %s filter", d, dir)}
		}
		dir = d
	}
	switch kind {
	case KindRepetition, KindAdapter, KindIndirection:
		outer = kind.String()
	}
	for _, p := range f.proxies() {
		if err := validateField(rec, p, dir, outer); err != nil {
			return err
		}
	}
	return nil
}

// WithPostUnpack returns a copy of r that runs fn after every successful
// unpack of an instance.
func (r *Record) WithPostUnpack(fn MutateFunc) *Record {
	c := *r
	c.postUnpack = fn
	return &c
}

// WithPrePack returns a copy of r that runs fn before every pack of an
// instance.
func (r *Record) WithPrePack(fn MutateFunc) *Record {
	c := *r
	c.prePack = fn
	return &c
}

// Renamed returns a copy of r stored under name when nested in another
// record.
func (r *Record) Renamed(name string) *Record {
	c := *r
	c.name = name
	return &c
}

// Name returns the record name.
func (r *Record) Name() string { return r.name }

// Kind returns KindRecord.
func (r *Record) Kind() Kind { return KindRecord }

// Fields returns the typedef.
func (r *Record) Fields() []Field { return append([]Field(nil), r.fields...) }

// New returns a top-level instance with every default materialized.
func (r *Record) New() *Instance {
	return r.newChild(nil)
}

// NewWith returns a top-level instance with defaults materialized and then
// overridden by the given values.
func (r *Record) NewWith(defaults map[string]Value) *Instance {
	inst := r.New()
	for k, v := range defaults {
		inst.Set(k, adopt(v.Clone(), inst))
	}
	return inst
}

func (r *Record) newChild(parent *Instance) *Instance {
	inst := newInstance(r, parent)
	for _, f := range r.fields {
		f.StoreDefault(inst)
	}
	return inst
}

// child returns the instance stored under r's name, replacing it with a
// fresh default one when it is missing or belongs to another schema.
func (r *Record) child(inst *Instance) *Instance {
	c := inst.Child(r.name)
	if c == nil || c.schema != r {
		c = r.newChild(inst)
		inst.Set(r.name, RecordValue(c))
	}
	return c
}

// Size returns the encoded size of the nested instance.
func (r *Record) Size(inst *Instance) (int, error) {
	c := inst.Child(r.name)
	if c == nil {
		return 0, &EncodingError{Field: r.name, Reason: "nested record is not set"}
	}
	return r.SizeOf(c)
}

// Unpack decodes the nested instance.
func (r *Record) Unpack(s *Stream, inst *Instance) error {
	return r.UnpackInstance(s, r.child(inst))
}

// Pack encodes the nested instance.
func (r *Record) Pack(s *Stream, inst *Instance) error {
	c := inst.Child(r.name)
	if c == nil {
		return &EncodingError{Field: r.name, Reason: "nested record is not set"}
	}
	return r.PackInstance(s, c)
}

// StoreDefault stores a fresh default child instance.
func (r *Record) StoreDefault(inst *Instance) {
	inst.Set(r.name, RecordValue(r.newChild(inst)))
}

func (r *Record) rename(name string) Field { return r.Renamed(name) }

func (r *Record) proxies() []Field     { return nil }
func (r *Record) direction() direction { return dirBoth }
func (r *Record) check() error         { return nil }

// UnpackInstance decodes every field of the typedef from s into inst.
func (r *Record) UnpackInstance(s *Stream, inst *Instance) error {
	log := s.logger()
	trace := log.Enabled(logging.LevelDebug)
	for _, f := range r.fields {
		var pos int64
		if trace {
			pos, _ = s.Tell()
		}
		if err := f.Unpack(s, inst); err != nil {
			return wrapField(f.Name(), err)
		}
		if n := f.Name(); n != "" && trace {
			log.Debug("unpack %s.%s @%d = %s", r.name, n, pos, inst.Get(n))
		}
	}
	if r.postUnpack != nil {
		if err := r.postUnpack(inst); err != nil {
			return fmt.Errorf("%s post-unpack: %w", r.name, err)
		}
	}
	return nil
}

// PackInstance encodes every field of the typedef from inst into s.
func (r *Record) PackInstance(s *Stream, inst *Instance) error {
	if r.prePack != nil {
		if err := r.prePack(inst); err != nil {
			return fmt.Errorf("%s pre-pack: %w", r.name, err)
		}
	}
	log := s.logger()
	trace := log.Enabled(logging.LevelDebug)
	for _, f := range r.fields {
		var pos int64
		if trace {
			pos, _ = s.Tell()
		}
		if err := f.Pack(s, inst); err != nil {
			return wrapField(f.Name(), err)
		}
		if n := f.Name(); n != "" && trace {
			log.Debug("pack %s.%s @%d = %s", r.name, n, pos, inst.Get(n))
		}
	}
	return nil
}

// SizeOf returns the number of bytes inst encodes to.
func (r *Record) SizeOf(inst *Instance) (int, error) {
	return sizeFields(r.fields, inst)
}

// SizeSubset returns the encoded size of the fields from start through
// end, both included. An empty start begins at the first field; an empty end
// runs to the last.
func (r *Record) SizeSubset(inst *Instance, start, end string) (int, error) {
	from, to := 0, len(r.fields)
	if start != "" {
		from = r.indexOf(start)
		if from < 0 {
			return 0, fmt.Errorf("record %s has no field %q", r.name, start)
		}
	}
	if end != "" {
		idx := r.indexOf(end)
		if idx < 0 {
			return 0, fmt.Errorf("record %s has no field %q", r.name, end)
		}
		to = idx + 1
	}
	if to <= from {
		return 0, fmt.Errorf("record %s: field %q comes after %q", r.name, start, end)
	}
	return sizeFields(r.fields[from:to], inst)
}

func (r *Record) indexOf(name string) int {
	for i, f := range r.fields {
		if f.Name() == name {
			return i
		}
	}
	return -1
}

func sizeFields(fields []Field, inst *Instance) (int, error) {
	total := 0
	for _, f := range fields {
		n, err := f.Size(inst)
		if err != nil {
			return 0, wrapField(f.Name(), err)
		}
		total += n
	}
	return total, nil
}

// Unserialize decodes a new top-level instance from r.
func (r *Record) Unserialize(rs io.ReadSeeker, opts ...Option) (*Instance, error) {
	inst := r.New()
	if err := r.UnserializeInto(rs, inst, opts...); err != nil {
		return nil, err
	}
	return inst, nil
}

// UnserializeInto decodes into an existing instance. In partial mode a
// truncated input leaves the fields decoded so far in place and records the
// error on the instance.
func (r *Record) UnserializeInto(rs io.ReadSeeker, inst *Instance, opts ...Option) error {
	s := NewReader(rs, opts...)
	inst.incomplete = nil
	err := r.UnpackInstance(s, inst)
	if err != nil && s.opts.partial && errors.Is(err, ErrTruncatedInput) {
		s.logger().Warn("%s: partial decode stopped: %v", r.name, err)
		inst.incomplete = err
		return nil
	}
	return err
}

// Serialize encodes inst into w. In partial mode an encoding failure stops
// the output at the failing field and is recorded on the instance.
func (r *Record) Serialize(w io.WriteSeeker, inst *Instance, opts ...Option) error {
	s := NewWriter(w, opts...)
	inst.incomplete = nil
	err := r.PackInstance(s, inst)
	if err != nil && s.opts.partial && errors.Is(err, ErrEncoding) {
		s.logger().Warn("%s: partial encode stopped: %v", r.name, err)
		inst.incomplete = err
		return nil
	}
	return err
}

// Unmarshal decodes a new instance from data.
func (r *Record) Unmarshal(data []byte, opts ...Option) (*Instance, error) {
	return r.Unserialize(bytes.NewReader(data), opts...)
}

// Marshal encodes inst and returns the bytes.
func (r *Record) Marshal(inst *Instance, opts ...Option) ([]byte, error) {
	buf := NewBuffer(nil)
	if err := r.Serialize(buf, inst, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
