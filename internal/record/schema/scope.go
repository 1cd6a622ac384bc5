package schema

import (
	"math"

	"github.com/dshills/chordpack/internal/record"
	"github.com/dshills/chordpack/internal/script"
)

// instanceScope exposes an instance to expressions. Sibling fields are
// globals, "_" is the parent instance and "_index" the list position.
// Element scopes of primitive lists fall through to the containing record.
type instanceScope struct {
	inst *record.Instance
}

func scopeOf(inst *record.Instance) script.Scope {
	if inst == nil {
		return nil
	}
	return instanceScope{inst}
}

func (s instanceScope) Lookup(name string) (any, bool) {
	switch name {
	case "_":
		if p := s.inst.Parent(); p != nil {
			return instanceScope{p}, true
		}
		return nil, true
	case "_index":
		return int64(s.inst.Index()), true
	}
	if s.inst.Has(name) {
		return fromValue(s.inst.Get(name)), true
	}
	if s.inst.Schema() == nil && s.inst.Parent() != nil {
		return instanceScope{s.inst.Parent()}.Lookup(name)
	}
	return nil, false
}

// overlay binds extra names in front of a scope.
type overlay struct {
	vars script.MapScope
	next script.Scope
}

func (o overlay) Lookup(name string) (any, bool) {
	if v, ok := o.vars[name]; ok {
		return v, true
	}
	if o.next == nil {
		return nil, false
	}
	return o.next.Lookup(name)
}

func fromValue(v record.Value) any {
	switch v.Kind() {
	case record.ValueInt:
		return v.Int()
	case record.ValueUint:
		return v.Uint()
	case record.ValueFloat:
		return v.Float()
	case record.ValueString:
		return v.Str()
	case record.ValueBytes:
		return v.Bytes()
	case record.ValueList:
		elems := v.List()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = fromValue(e)
		}
		return out
	case record.ValueRecord:
		if r := v.Record(); r != nil {
			return instanceScope{r}
		}
	}
	return nil
}

// toValue converts a TOML default or an expression result. Integral
// floats become integers because Lua numbers are always floats.
func toValue(v any) record.Value {
	switch v := v.(type) {
	case nil:
		return record.NilValue()
	case bool:
		if v {
			return record.IntValue(1)
		}
		return record.IntValue(0)
	case int64:
		return record.IntValue(v)
	case int:
		return record.IntValue(int64(v))
	case uint64:
		return record.UintValue(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<63 {
			return record.IntValue(int64(v))
		}
		return record.FloatValue(v)
	case string:
		return record.StringValue(v)
	case []byte:
		return record.BytesValue(v)
	case []any:
		vals := make([]record.Value, len(v))
		for i, e := range v {
			vals[i] = toValue(e)
		}
		return record.ListValue(vals...)
	}
	return record.NilValue()
}
