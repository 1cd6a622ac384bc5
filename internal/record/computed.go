package record

import (
	"encoding/binary"
	"fmt"
)

// ModifyField runs a function against the instance and occupies no bytes.
type ModifyField struct {
	leaf
	fn  MutateFunc
	dir direction
}

// Modify runs fn at its position during both unpack and pack.
func Modify(fn MutateFunc) *ModifyField { return &ModifyField{fn: fn, dir: dirBoth} }

// ModifyUnpack runs fn at its position during unpack only.
func ModifyUnpack(fn MutateFunc) *ModifyField { return &ModifyField{fn: fn, dir: dirUnpack} }

// ModifyPack runs fn at its position during pack only.
func ModifyPack(fn MutateFunc) *ModifyField { return &ModifyField{fn: fn, dir: dirPack} }

func (f *ModifyField) Name() string                  { return "" }
func (f *ModifyField) Kind() Kind                    { return KindComputed }
func (f *ModifyField) Size(*Instance) (int, error)   { return 0, nil }
func (f *ModifyField) StoreDefault(*Instance)        {}
func (f *ModifyField) rename(string) Field           { return f }
func (f *ModifyField) direction() direction          { return f.dir }
func (f *ModifyField) check() error                  { return nil }

func (f *ModifyField) Unpack(_ *Stream, inst *Instance) error {
	if f.dir == dirPack {
		return nil
	}
	return f.fn(inst)
}

func (f *ModifyField) Pack(_ *Stream, inst *Instance) error {
	if f.dir == dirUnpack {
		return nil
	}
	return f.fn(inst)
}

// ComputeUnpackField derives a value while unpacking.
type ComputeUnpackField struct {
	named
	leaf
	fn  ComputeFunc
	def Value
}

// ComputeUnpack stores fn(inst) under name when unpacking. It occupies no
// bytes and is never written.
func ComputeUnpack(name string, fn ComputeFunc) *ComputeUnpackField {
	return &ComputeUnpackField{named: named{name}, fn: fn}
}

// WithDefault returns a copy of the field with a default value.
func (f *ComputeUnpackField) WithDefault(v Value) *ComputeUnpackField {
	c := *f
	c.def = v
	return &c
}

func (f *ComputeUnpackField) Kind() Kind                    { return KindComputed }
func (f *ComputeUnpackField) Size(*Instance) (int, error)   { return 0, nil }
func (f *ComputeUnpackField) Pack(*Stream, *Instance) error { return nil }
func (f *ComputeUnpackField) StoreDefault(inst *Instance)   { inst.Set(f.name, f.def.Clone()) }
func (f *ComputeUnpackField) direction() direction          { return dirUnpack }
func (f *ComputeUnpackField) check() error                  { return nil }

func (f *ComputeUnpackField) Unpack(_ *Stream, inst *Instance) error {
	v, err := f.fn(inst)
	if err != nil {
		return err
	}
	inst.Set(f.name, v)
	return nil
}

func (f *ComputeUnpackField) rename(name string) Field {
	c := *f
	c.name = name
	return &c
}

// ComputePackField decodes its proxy normally but recomputes the value
// before sizing and packing.
type ComputePackField struct {
	wrapped
	fn ComputeFunc
}

// ComputePack wraps proxy so that fn(inst) replaces the stored value
// whenever the record is sized or packed. Count and length prefixes are
// the usual use.
func ComputePack(proxy Field, fn ComputeFunc) *ComputePackField {
	return &ComputePackField{wrapped: wrapped{proxy}, fn: fn}
}

func (f *ComputePackField) Kind() Kind { return KindComputed }

func (f *ComputePackField) compute(inst *Instance) error {
	v, err := f.fn(inst)
	if err != nil {
		return err
	}
	inst.Set(f.Name(), v)
	return nil
}

func (f *ComputePackField) Size(inst *Instance) (int, error) {
	if err := f.compute(inst); err != nil {
		return 0, err
	}
	return f.proxy.Size(inst)
}

func (f *ComputePackField) Pack(s *Stream, inst *Instance) error {
	if err := f.compute(inst); err != nil {
		return err
	}
	return f.proxy.Pack(s, inst)
}

func (f *ComputePackField) rename(name string) Field {
	return ComputePack(f.proxy.rename(name), f.fn)
}

// AnchorField records the stream offset at its position.
type AnchorField struct {
	named
	leaf
}

// Anchor stores the absolute stream offset under name during unpack and
// pack. It occupies no bytes.
func Anchor(name string) *AnchorField {
	return &AnchorField{named: named{name}}
}

func (f *AnchorField) Kind() Kind                  { return KindComputed }
func (f *AnchorField) Size(*Instance) (int, error) { return 0, nil }
func (f *AnchorField) StoreDefault(inst *Instance) { inst.Set(f.name, IntValue(0)) }
func (f *AnchorField) direction() direction        { return dirBoth }
func (f *AnchorField) check() error                { return nil }
func (f *AnchorField) rename(name string) Field    { return Anchor(name) }

func (f *AnchorField) Unpack(s *Stream, inst *Instance) error { return f.mark(s, inst) }
func (f *AnchorField) Pack(s *Stream, inst *Instance) error   { return f.mark(s, inst) }

func (f *AnchorField) mark(s *Stream, inst *Instance) error {
	pos, err := s.Tell()
	if err != nil {
		return err
	}
	inst.Set(f.name, IntValue(pos))
	return nil
}

// ChecksumField computes a 32-bit word checksum while unpacking.
type ChecksumField struct {
	named
	leaf
	anchor string
	order  binary.ByteOrder
}

// UBInt32Checksum sums the big-endian 32-bit words between the offset
// stored by the named Anchor and the current position, and stores the
// two's complement of the sum, so a block whose embedded checksum is
// correct yields 0 when the checksum word is included.
func UBInt32Checksum(name, anchor string) *ChecksumField {
	return &ChecksumField{named: named{name}, anchor: anchor, order: binary.BigEndian}
}

// ULInt32Checksum is UBInt32Checksum over little-endian words.
func ULInt32Checksum(name, anchor string) *ChecksumField {
	return &ChecksumField{named: named{name}, anchor: anchor, order: binary.LittleEndian}
}

func (f *ChecksumField) Kind() Kind                    { return KindComputed }
func (f *ChecksumField) Size(*Instance) (int, error)   { return 0, nil }
func (f *ChecksumField) Pack(*Stream, *Instance) error { return nil }
func (f *ChecksumField) StoreDefault(inst *Instance)   { inst.Set(f.name, UintValue(0)) }
func (f *ChecksumField) direction() direction          { return dirUnpack }
func (f *ChecksumField) check() error                  { return nil }

func (f *ChecksumField) rename(name string) Field {
	c := *f
	c.name = name
	return &c
}

func (f *ChecksumField) Unpack(s *Stream, inst *Instance) error {
	if !inst.Has(f.anchor) {
		return fmt.Errorf("checksum anchor %q is not set", f.anchor)
	}
	start := inst.Int(f.anchor)
	end, err := s.Tell()
	if err != nil {
		return err
	}
	span := end - start
	if span < 0 || span%4 != 0 {
		return &EncodingError{Field: f.name, Value: span, Reason: "checksum span is not a whole number of 32-bit words"}
	}
	if err := s.SeekTo(start); err != nil {
		return err
	}
	data, err := s.Read(f.name, int(span))
	if err != nil {
		return err
	}
	inst.Set(f.name, UintValue(uint64(Checksum32(data, f.order))))
	return nil
}

// Checksum32 returns the two's complement of the sum of the 32-bit words
// in data, which must be a multiple of four bytes long.
func Checksum32(data []byte, order binary.ByteOrder) uint32 {
	var sum uint32
	for i := 0; i+4 <= len(data); i += 4 {
		sum += order.Uint32(data[i:])
	}
	return ^sum + 1
}
