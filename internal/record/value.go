package record

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies the variant held by a Value.
type ValueKind uint8

const (
	ValueNil ValueKind = iota
	ValueInt
	ValueUint
	ValueFloat
	ValueString
	ValueBytes
	ValueList
	ValueRecord
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case ValueNil:
		return "nil"
	case ValueInt:
		return "int"
	case ValueUint:
		return "uint"
	case ValueFloat:
		return "float"
	case ValueString:
		return "string"
	case ValueBytes:
		return "bytes"
	case ValueList:
		return "list"
	case ValueRecord:
		return "record"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is a decoded field value. The zero Value is nil.
type Value struct {
	kind ValueKind
	num  uint64
	f    float64
	s    string
	b    []byte
	list []Value
	rec  *Instance
}

// NilValue returns the nil value.
func NilValue() Value { return Value{} }

// IntValue returns a signed integer value.
func IntValue(v int64) Value { return Value{kind: ValueInt, num: uint64(v)} }

// UintValue returns an unsigned integer value.
func UintValue(v uint64) Value { return Value{kind: ValueUint, num: v} }

// FloatValue returns a floating point value.
func FloatValue(v float64) Value { return Value{kind: ValueFloat, f: v} }

// StringValue returns a string value.
func StringValue(v string) Value { return Value{kind: ValueString, s: v} }

// BytesValue returns a raw byte value. The slice is not copied.
func BytesValue(v []byte) Value { return Value{kind: ValueBytes, b: v} }

// ListValue returns a list of values.
func ListValue(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: ValueList, list: vs}
}

// RecordValue wraps a record instance.
func RecordValue(inst *Instance) Value { return Value{kind: ValueRecord, rec: inst} }

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNil reports whether v holds nothing.
func (v Value) IsNil() bool { return v.kind == ValueNil }

// IsNumber reports whether v is an integer or float.
func (v Value) IsNumber() bool {
	return v.kind == ValueInt || v.kind == ValueUint || v.kind == ValueFloat
}

// Int returns v as an int64. Non-numeric values yield 0.
func (v Value) Int() int64 {
	switch v.kind {
	case ValueInt, ValueUint:
		return int64(v.num)
	case ValueFloat:
		return int64(v.f)
	default:
		return 0
	}
}

// Uint returns v as a uint64. Non-numeric values yield 0.
func (v Value) Uint() uint64 {
	switch v.kind {
	case ValueInt, ValueUint:
		return v.num
	case ValueFloat:
		return uint64(v.f)
	default:
		return 0
	}
}

// Float returns v as a float64. Non-numeric values yield 0.
func (v Value) Float() float64 {
	switch v.kind {
	case ValueInt:
		return float64(int64(v.num))
	case ValueUint:
		return float64(v.num)
	case ValueFloat:
		return v.f
	default:
		return 0
	}
}

// Str returns the text of a string or bytes value, and "" otherwise.
func (v Value) Str() string {
	switch v.kind {
	case ValueString:
		return v.s
	case ValueBytes:
		return string(v.b)
	default:
		return ""
	}
}

// Bytes returns the raw bytes of a bytes or string value.
func (v Value) Bytes() []byte {
	switch v.kind {
	case ValueBytes:
		return v.b
	case ValueString:
		return []byte(v.s)
	default:
		return nil
	}
}

// List returns the elements of a list value.
func (v Value) List() []Value {
	if v.kind != ValueList {
		return nil
	}
	return v.list
}

// Record returns the instance of a record value.
func (v Value) Record() *Instance {
	if v.kind != ValueRecord {
		return nil
	}
	return v.rec
}

// Len returns the length of a string, bytes or list value.
func (v Value) Len() int {
	switch v.kind {
	case ValueString:
		return len(v.s)
	case ValueBytes:
		return len(v.b)
	case ValueList:
		return len(v.list)
	default:
		return 0
	}
}

// Clone returns a deep copy of v. Record instances are cloned with their
// parent reference left in place.
func (v Value) Clone() Value {
	switch v.kind {
	case ValueBytes:
		if v.b == nil {
			return v
		}
		b := make([]byte, len(v.b))
		copy(b, v.b)
		return BytesValue(b)
	case ValueList:
		list := make([]Value, len(v.list))
		for i, e := range v.list {
			list[i] = e.Clone()
		}
		return Value{kind: ValueList, list: list}
	case ValueRecord:
		if v.rec == nil {
			return v
		}
		return RecordValue(v.rec.Clone())
	default:
		return v
	}
}

// Equal reports whether v and o hold the same data. Integers compare by
// numeric value regardless of signedness.
func (v Value) Equal(o Value) bool {
	switch {
	case (v.kind == ValueInt || v.kind == ValueUint) && (o.kind == ValueInt || o.kind == ValueUint):
		if v.kind != o.kind && (v.num > math.MaxInt64 || o.num > math.MaxInt64) {
			return false
		}
		return v.num == o.num
	case v.kind != o.kind:
		return false
	}

	switch v.kind {
	case ValueNil:
		return true
	case ValueFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case ValueString:
		return v.s == o.s
	case ValueBytes:
		return bytes.Equal(v.b, o.b)
	case ValueList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case ValueRecord:
		return v.rec.Equal(o.rec)
	}
	return false
}

// String returns a printable representation used by dumps.
func (v Value) String() string {
	switch v.kind {
	case ValueNil:
		return "nil"
	case ValueInt:
		return strconv.FormatInt(int64(v.num), 10)
	case ValueUint:
		return strconv.FormatUint(v.num, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case ValueString:
		return strconv.Quote(v.s)
	case ValueBytes:
		return strconv.Quote(string(v.b))
	case ValueList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ValueRecord:
		if v.rec == nil || v.rec.schema == nil {
			return "<record>"
		}
		return "<" + v.rec.schema.name + ">"
	}
	return "?"
}
