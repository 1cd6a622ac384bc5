package record

import (
	"bytes"
	"fmt"
)

// FormatField decodes a struct-style format string. The fixed-width number
// constructors are FormatFields with a single code.
type FormatField struct {
	named
	leaf
	spec formatSpec
	err  error
	def  *Value
}

// Format returns a field described by a struct-style format string, for
// example "<I", ">2h" or "8s". Several values decode into a list; "Ns"
// strings are space padded or truncated when packed.
func Format(name, format string) *FormatField {
	spec, err := parseFormat(format)
	return &FormatField{named: named{name}, spec: spec, err: err}
}

// WithDefault returns a copy of the field with a default value.
func (f *FormatField) WithDefault(v Value) *FormatField {
	c := *f
	c.def = &v
	return &c
}

func (f *FormatField) Kind() Kind { return KindPrimitive }

func (f *FormatField) Size(*Instance) (int, error) { return f.spec.size, nil }

func (f *FormatField) Unpack(s *Stream, inst *Instance) error {
	data, err := s.Read(f.name, f.spec.size)
	if err != nil {
		return err
	}
	inst.Set(f.name, f.spec.decode(data))
	return nil
}

func (f *FormatField) Pack(s *Stream, inst *Instance) error {
	data, err := f.spec.encode(f.name, inst.Get(f.name))
	if err != nil {
		return err
	}
	return s.Write(f.name, data)
}

func (f *FormatField) StoreDefault(inst *Instance) {
	if f.def != nil {
		inst.Set(f.name, f.def.Clone())
		return
	}
	inst.Set(f.name, f.spec.zero())
}

func (f *FormatField) rename(name string) Field {
	c := *f
	c.name = name
	return &c
}

func (f *FormatField) check() error { return f.err }

// fixedSize reports the encoded width, used by CookedInt's default format.
func (f *FormatField) fixedSize() int { return f.spec.size }

// zero returns the default for a field without one.
func (spec formatSpec) zero() Value {
	vals := make([]Value, 0, spec.values)
	for _, it := range spec.items {
		if it.code == 's' {
			vals = append(vals, StringValue(""))
			continue
		}
		for n := 0; n < it.count; n++ {
			switch it.code {
			case 'x':
			case 'c':
				vals = append(vals, StringValue("\x00"))
			case 'B', 'H', 'I', 'L', 'Q':
				vals = append(vals, UintValue(0))
			case 'f', 'd':
				vals = append(vals, FloatValue(0))
			default:
				vals = append(vals, IntValue(0))
			}
		}
	}
	switch len(vals) {
	case 0:
		return NilValue()
	case 1:
		return vals[0]
	default:
		return ListValue(vals...)
	}
}

func number(name, format string) *FormatField { return Format(name, format) }

// Fixed-width integers: S/U for signedness, L/B for byte order.
func SLInt8(name string) *FormatField { return number(name, "<b") }
func ULInt8(name string) *FormatField { return number(name, "<B") }
func SBInt8(name string) *FormatField { return number(name, ">b") }
func UBInt8(name string) *FormatField { return number(name, ">B") }
func SLInt16(name string) *FormatField { return number(name, "<h") }
func ULInt16(name string) *FormatField { return number(name, "<H") }
func SBInt16(name string) *FormatField { return number(name, ">h") }
func UBInt16(name string) *FormatField { return number(name, ">H") }
func SLInt32(name string) *FormatField { return number(name, "<i") }
func ULInt32(name string) *FormatField { return number(name, "<I") }
func SBInt32(name string) *FormatField { return number(name, ">i") }
func UBInt32(name string) *FormatField { return number(name, ">I") }
func SLInt64(name string) *FormatField { return number(name, "<q") }
func ULInt64(name string) *FormatField { return number(name, "<Q") }
func SBInt64(name string) *FormatField { return number(name, ">q") }
func UBInt64(name string) *FormatField { return number(name, ">Q") }

// IEEE 754 floats.
func LFloat32(name string) *FormatField { return number(name, "<f") }
func BFloat32(name string) *FormatField { return number(name, ">f") }
func LFloat64(name string) *FormatField { return number(name, "<d") }
func BFloat64(name string) *FormatField { return number(name, ">d") }

// CStringField is a NUL-terminated string.
type CStringField struct {
	named
	leaf
	maxLen LengthFunc
	def    string
}

// CString returns a NUL-terminated string field. With a nil maxLen the
// string is read up to its terminator and packs as the value plus one NUL.
// With maxLen the field always occupies maxLen bytes: unpack stops the value
// at the first NUL, pack truncates to maxLen-1 bytes and pads with NULs.
func CString(name string, maxLen LengthFunc) *CStringField {
	return &CStringField{named: named{name}, maxLen: maxLen}
}

// WithDefault returns a copy of the field with a default string.
func (f *CStringField) WithDefault(s string) *CStringField {
	c := *f
	c.def = s
	return &c
}

func (f *CStringField) Kind() Kind { return KindPrimitive }

func (f *CStringField) Size(inst *Instance) (int, error) {
	if f.maxLen != nil {
		return f.max(inst)
	}
	return len(inst.Str(f.name)) + 1, nil
}

func (f *CStringField) max(inst *Instance) (int, error) {
	n, err := f.maxLen(inst)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative max length %d", n)
	}
	return n, nil
}

func (f *CStringField) Unpack(s *Stream, inst *Instance) error {
	if f.maxLen != nil {
		n, err := f.max(inst)
		if err != nil {
			return err
		}
		data, err := s.Read(f.name, n)
		if err != nil {
			return err
		}
		if i := bytes.IndexByte(data, 0); i >= 0 {
			data = data[:i]
		}
		inst.Set(f.name, StringValue(string(data)))
		return nil
	}

	var buf bytes.Buffer
	for {
		c, err := s.Read(f.name, 1)
		if err != nil {
			if te, ok := err.(*TruncatedInputError); ok {
				te.Want = buf.Len() + 1
				te.Got = buf.Len()
			}
			return err
		}
		if c[0] == 0 {
			break
		}
		buf.WriteByte(c[0])
	}
	inst.Set(f.name, StringValue(buf.String()))
	return nil
}

func (f *CStringField) Pack(s *Stream, inst *Instance) error {
	value := inst.Str(f.name)
	if f.maxLen == nil {
		return s.Write(f.name, append([]byte(value), 0))
	}
	n, err := f.max(inst)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	if len(value) >= n {
		value = value[:n-1]
	}
	copy(out, value)
	return s.Write(f.name, out)
}

func (f *CStringField) StoreDefault(inst *Instance) {
	inst.Set(f.name, StringValue(f.def))
}

func (f *CStringField) rename(name string) Field {
	c := *f
	c.name = name
	return &c
}

func (f *CStringField) check() error { return nil }

// BytesField is a raw block whose length comes from the instance.
type BytesField struct {
	named
	leaf
	length LengthFunc
	text   bool
	def    *Value
}

// Bytes returns a raw byte block of length(inst) bytes.
func Bytes(name string, length LengthFunc) *BytesField {
	return &BytesField{named: named{name}, length: length}
}

// String returns a fixed-length text block of length(inst) bytes. Unlike
// CString no terminator is interpreted.
func String(name string, length LengthFunc) *BytesField {
	return &BytesField{named: named{name}, length: length, text: true}
}

// WithDefault returns a copy of the field with a default value.
func (f *BytesField) WithDefault(v Value) *BytesField {
	c := *f
	c.def = &v
	return &c
}

func (f *BytesField) Kind() Kind { return KindPrimitive }

func (f *BytesField) Size(inst *Instance) (int, error) {
	n, err := f.length(inst)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative length %d", n)
	}
	return n, nil
}

func (f *BytesField) Unpack(s *Stream, inst *Instance) error {
	n, err := f.Size(inst)
	if err != nil {
		return err
	}
	data, err := s.Read(f.name, n)
	if err != nil {
		return err
	}
	if f.text {
		inst.Set(f.name, StringValue(string(data)))
	} else {
		inst.Set(f.name, BytesValue(data))
	}
	return nil
}

func (f *BytesField) Pack(s *Stream, inst *Instance) error {
	n, err := f.Size(inst)
	if err != nil {
		return err
	}
	data := inst.Bytes(f.name)
	if len(data) != n {
		return &EncodingError{Field: f.name, Value: len(data),
			Reason: fmt.Sprintf("block is %d bytes, field declares %d", len(data), n)}
	}
	return s.Write(f.name, data)
}

func (f *BytesField) StoreDefault(inst *Instance) {
	switch {
	case f.def != nil:
		inst.Set(f.name, f.def.Clone())
	case f.text:
		inst.Set(f.name, StringValue(""))
	default:
		inst.Set(f.name, BytesValue([]byte{}))
	}
}

func (f *BytesField) rename(name string) Field {
	c := *f
	c.name = name
	return &c
}

func (f *BytesField) check() error { return nil }

// SkipField is anonymous padding.
type SkipField struct {
	leaf
	length LengthFunc
	pad    byte
	writer func(inst *Instance, n int) ([]byte, error)
}

// Skip returns padding of length(inst) bytes. Unpack seeks past it; pack
// writes pad bytes.
func Skip(length LengthFunc, pad byte) *SkipField {
	return &SkipField{length: length, pad: pad}
}

// SkipWith returns padding whose packed bytes come from writer, which must
// return exactly n bytes.
func SkipWith(length LengthFunc, writer func(inst *Instance, n int) ([]byte, error)) *SkipField {
	return &SkipField{length: length, writer: writer}
}

func (f *SkipField) Name() string { return "" }
func (f *SkipField) Kind() Kind { return KindPrimitive }

func (f *SkipField) Size(inst *Instance) (int, error) {
	n, err := f.length(inst)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative skip length %d", n)
	}
	return n, nil
}

func (f *SkipField) Unpack(s *Stream, inst *Instance) error {
	n, err := f.Size(inst)
	if err != nil {
		return err
	}
	return s.Skip("skip", n)
}

func (f *SkipField) Pack(s *Stream, inst *Instance) error {
	n, err := f.Size(inst)
	if err != nil {
		return err
	}
	if f.writer == nil {
		return s.Write("skip", bytes.Repeat([]byte{f.pad}, n))
	}
	data, err := f.writer(inst, n)
	if err != nil {
		return err
	}
	if len(data) != n {
		return &EncodingError{Field: "skip", Value: len(data),
			Reason: fmt.Sprintf("padding writer returned %d bytes, want %d", len(data), n)}
	}
	return s.Write("skip", data)
}

func (f *SkipField) StoreDefault(*Instance) {}

func (f *SkipField) rename(string) Field { return f }

func (f *SkipField) check() error { return nil }

// NoOpField occupies no bytes and stores nil.
type NoOpField struct {
	named
	leaf
}

// NoOp returns a zero-width field. It is the fallback branch of If and
// Switch.
func NoOp(name string) *NoOpField {
	return &NoOpField{named: named{name}}
}

func (f *NoOpField) Kind() Kind { return KindPrimitive }
func (f *NoOpField) Size(*Instance) (int, error) { return 0, nil }

func (f *NoOpField) Unpack(_ *Stream, inst *Instance) error {
	if f.name != "" {
		inst.Set(f.name, NilValue())
	}
	return nil
}

func (f *NoOpField) Pack(*Stream, *Instance) error { return nil }

func (f *NoOpField) StoreDefault(inst *Instance) {
	if f.name != "" {
		inst.Set(f.name, NilValue())
	}
}

func (f *NoOpField) rename(name string) Field { return NoOp(name) }

func (f *NoOpField) check() error { return nil }

// AbortField fails whenever it is reached.
type AbortField struct {
	named
	leaf
}

// Abort returns a field that stops unpacking and packing with ErrAbort.
// It marks layouts that are known but unsupported.
func Abort(name string) *AbortField {
	return &AbortField{named: named{name}}
}

func (f *AbortField) Kind() Kind { return KindPrimitive }
func (f *AbortField) Size(*Instance) (int, error) { return 0, nil }
func (f *AbortField) Unpack(*Stream, *Instance) error { return ErrAbort }
func (f *AbortField) Pack(*Stream, *Instance) error { return ErrAbort }
func (f *AbortField) StoreDefault(inst *Instance) { inst.Set(f.name, NilValue()) }
func (f *AbortField) rename(name string) Field { return Abort(name) }
func (f *AbortField) check() error { return nil }
