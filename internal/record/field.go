package record

import "fmt"

// Kind classifies a Field.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindRecord
	KindConditional
	KindRepetition
	KindIndirection
	KindAdapter
	KindComputed
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindRecord:
		return "record"
	case KindConditional:
		return "conditional"
	case KindRepetition:
		return "repetition"
	case KindIndirection:
		return "indirection"
	case KindAdapter:
		return "adapter"
	case KindComputed:
		return "computed"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Field is one element of a typedef. The set of implementations is closed;
// schemas are built from the constructors in this package.
type Field interface {
	// Name returns the attribute the field stores its value under.
	// Padding and hook fields are anonymous.
	Name() string

	// Kind classifies the field.
	Kind() Kind

	// Size returns the encoded length given the current instance state.
	Size(inst *Instance) (int, error)

	// Unpack reads the field at the stream position and stores its value.
	Unpack(s *Stream, inst *Instance) error

	// Pack encodes the stored value at the stream position.
	Pack(s *Stream, inst *Instance) error

	// StoreDefault stores a fresh copy of the field's default value.
	StoreDefault(inst *Instance)

	rename(name string) Field
	proxies() []Field
	direction() direction
	check() error
}

// direction records which pass a field participates in.
type direction uint8

const (
	dirBoth direction = iota
	dirUnpack
	dirPack
)

func (d direction) String() string {
	switch d {
	case dirUnpack:
		return "unpack-only"
	case dirPack:
		return "pack-only"
	default:
		return "unpack and pack"
	}
}

// LengthFunc computes a byte or element count from the instance.
type LengthFunc func(inst *Instance) (int, error)

// OffsetFunc computes an absolute stream offset from the instance.
type OffsetFunc func(inst *Instance) (int64, error)

// Predicate selects a conditional branch.
type Predicate func(inst *Instance) (bool, error)

// ComputeFunc derives a value from the instance.
type ComputeFunc func(inst *Instance) (Value, error)

// MutateFunc runs against the instance without producing a value.
type MutateFunc func(inst *Instance) error

// Fixed returns a LengthFunc that always yields n.
func Fixed(n int) LengthFunc {
	return func(*Instance) (int, error) { return n, nil }
}

// FieldLen returns a LengthFunc that reads a previously decoded sibling.
func FieldLen(name string) LengthFunc {
	return func(inst *Instance) (int, error) {
		if !inst.Has(name) {
			return 0, fmt.Errorf("length field %q is not set", name)
		}
		v := inst.Get(name)
		if !v.IsNumber() {
			return 0, fmt.Errorf("length field %q is %s, not a number", name, v.Kind())
		}
		return int(v.Int()), nil
	}
}

// FieldOffset returns an OffsetFunc that reads a previously decoded sibling.
func FieldOffset(name string) OffsetFunc {
	return func(inst *Instance) (int64, error) {
		n, err := FieldLen(name)(inst)
		return int64(n), err
	}
}

// named is embedded by every field to carry its name.
type named struct {
	name string
}

func (n named) Name() string { return n.name }

// leaf is embedded by fields without proxies that run in both directions.
type leaf struct{}

func (leaf) proxies() []Field     { return nil }
func (leaf) direction() direction { return dirBoth }
