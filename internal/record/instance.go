package record

import "sort"

// Instance is the attribute bag of one decoded record. It holds one Value
// per field name, a non-owning reference to its parent instance and its
// position when it is a list element.
type Instance struct {
	schema *Record
	values map[string]Value
	parent *Instance
	index  int

	incomplete error
}

func newInstance(schema *Record, parent *Instance) *Instance {
	return &Instance{
		schema: schema,
		values: make(map[string]Value),
		parent: parent,
		index:  -1,
	}
}

// newScope returns the element scope used for primitive list elements.
func newScope(parent *Instance, index int) *Instance {
	return &Instance{
		values: make(map[string]Value, 1),
		parent: parent,
		index:  index,
	}
}

// Schema returns the record that materialized this instance, or nil for an
// element scope.
func (in *Instance) Schema() *Record { return in.schema }

// Parent returns the enclosing instance, or nil at the top level.
func (in *Instance) Parent() *Instance { return in.parent }

// Index returns the zero-based list position, or -1 if the instance is not
// a list element.
func (in *Instance) Index() int { return in.index }

// Root walks parent references to the top-level instance.
func (in *Instance) Root() *Instance {
	r := in
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Get returns the value stored under name, or nil.
func (in *Instance) Get(name string) Value {
	return in.values[name]
}

// Has reports whether a value is stored under name.
func (in *Instance) Has(name string) bool {
	_, ok := in.values[name]
	return ok
}

// Set stores v under name.
func (in *Instance) Set(name string, v Value) {
	in.values[name] = v
}

// Int returns the named value as an int64.
func (in *Instance) Int(name string) int64 { return in.values[name].Int() }

// Uint returns the named value as a uint64.
func (in *Instance) Uint(name string) uint64 { return in.values[name].Uint() }

// Float returns the named value as a float64.
func (in *Instance) Float(name string) float64 { return in.values[name].Float() }

// Str returns the named value as text.
func (in *Instance) Str(name string) string { return in.values[name].Str() }

// Bytes returns the named value as raw bytes.
func (in *Instance) Bytes(name string) []byte { return in.values[name].Bytes() }

// List returns the elements of the named list value.
func (in *Instance) List(name string) []Value { return in.values[name].List() }

// Child returns the named nested record instance, or nil.
func (in *Instance) Child(name string) *Instance { return in.values[name].Record() }

// Append adds v to the named list. Record elements are adopted: their
// parent becomes in and their index their list position.
func (in *Instance) Append(name string, v Value) {
	list := in.values[name].List()
	if rec := v.Record(); rec != nil {
		rec.parent = in
		rec.index = len(list)
	}
	in.values[name] = ListValue(append(list, v)...)
}

// Names returns the stored field names, schema fields first in declared
// order, then any other names sorted.
func (in *Instance) Names() []string {
	names := make([]string, 0, len(in.values))
	seen := make(map[string]bool, len(in.values))
	if in.schema != nil {
		for _, n := range in.schema.names {
			if _, ok := in.values[n]; ok && !seen[n] {
				names = append(names, n)
				seen[n] = true
			}
		}
	}
	var extra []string
	for n := range in.values {
		if !seen[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Incomplete returns the error that stopped a partial unserialize or
// serialize, or nil if the operation completed.
func (in *Instance) Incomplete() error { return in.incomplete }

// Clone deep-copies the instance. Nested record values are re-parented to
// the copy; the copy keeps the original's parent and index.
func (in *Instance) Clone() *Instance {
	c := &Instance{
		schema: in.schema,
		values: make(map[string]Value, len(in.values)),
		parent: in.parent,
		index:  in.index,
	}
	for k, v := range in.values {
		c.values[k] = adopt(v.Clone(), c)
	}
	return c
}

// adopt points record values (and record list elements) at parent.
func adopt(v Value, parent *Instance) Value {
	switch v.Kind() {
	case ValueRecord:
		if r := v.Record(); r != nil {
			r.parent = parent
		}
	case ValueList:
		for _, e := range v.List() {
			if r := e.Record(); r != nil {
				r.parent = parent
			}
		}
	}
	return v
}

// Equal reports whether two instances hold equal values under the same names.
func (in *Instance) Equal(o *Instance) bool {
	if in == nil || o == nil {
		return in == o
	}
	if len(in.values) != len(o.values) {
		return false
	}
	for k, v := range in.values {
		ov, ok := o.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
