package record

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// formatItem is one code of a struct-style format with its repeat count.
type formatItem struct {
	code  byte
	count int
}

// formatSpec is a parsed struct-style format string such as "<2Hi4s".
// Sizes are the standard (unaligned) sizes for every byte-order prefix;
// a missing prefix means little-endian.
type formatSpec struct {
	text   string
	order  binary.ByteOrder
	items  []formatItem
	size   int
	values int
}

func codeSize(c byte) (int, bool) {
	switch c {
	case 'x', 'c', 'b', 'B', '?', 's':
		return 1, true
	case 'h', 'H':
		return 2, true
	case 'i', 'I', 'l', 'L', 'f':
		return 4, true
	case 'q', 'Q', 'd':
		return 8, true
	}
	return 0, false
}

func parseFormat(text string) (formatSpec, error) {
	spec := formatSpec{text: text, order: binary.LittleEndian}
	rest := text
	if rest != "" {
		switch rest[0] {
		case '<', '=', '@':
			rest = rest[1:]
		case '>', '!':
			spec.order = binary.BigEndian
			rest = rest[1:]
		}
	}

	for i := 0; i < len(rest); {
		c := rest[i]
		if c == ' ' || c == '\t' {
			i++
			continue
		}
		count := -1
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			if count < 0 {
				count = 0
			}
			count = count*10 + int(rest[i]-'0')
			if count > 1<<24 {
				return spec, fmt.Errorf("format %q: repeat count too large", text)
			}
			i++
		}
		if i >= len(rest) {
			return spec, fmt.Errorf("format %q: repeat count without a code", text)
		}
		c = rest[i]
		i++
		size, ok := codeSize(c)
		if !ok {
			return spec, fmt.Errorf("format %q: unknown code %q", text, c)
		}
		if count < 0 {
			count = 1
		}
		spec.items = append(spec.items, formatItem{code: c, count: count})
		spec.size += size * count
		switch c {
		case 'x':
		case 's':
			spec.values++
		default:
			spec.values += count
		}
	}
	if len(spec.items) == 0 {
		return spec, fmt.Errorf("format %q: no codes", text)
	}
	return spec, nil
}

// decode turns exactly spec.size bytes into a value. A single value is
// returned as a scalar, several as a list, none as nil.
func (spec formatSpec) decode(data []byte) Value {
	vals := make([]Value, 0, spec.values)
	o := spec.order
	off := 0
	for _, it := range spec.items {
		if it.code == 's' {
			vals = append(vals, StringValue(string(data[off:off+it.count])))
			off += it.count
			continue
		}
		for n := 0; n < it.count; n++ {
			switch it.code {
			case 'x':
				off++
			case 'c':
				vals = append(vals, StringValue(string(data[off:off+1])))
				off++
			case 'b':
				vals = append(vals, IntValue(int64(int8(data[off]))))
				off++
			case 'B':
				vals = append(vals, UintValue(uint64(data[off])))
				off++
			case '?':
				var b int64
				if data[off] != 0 {
					b = 1
				}
				vals = append(vals, IntValue(b))
				off++
			case 'h':
				vals = append(vals, IntValue(int64(int16(o.Uint16(data[off:])))))
				off += 2
			case 'H':
				vals = append(vals, UintValue(uint64(o.Uint16(data[off:]))))
				off += 2
			case 'i', 'l':
				vals = append(vals, IntValue(int64(int32(o.Uint32(data[off:])))))
				off += 4
			case 'I', 'L':
				vals = append(vals, UintValue(uint64(o.Uint32(data[off:]))))
				off += 4
			case 'q':
				vals = append(vals, IntValue(int64(o.Uint64(data[off:]))))
				off += 8
			case 'Q':
				vals = append(vals, UintValue(o.Uint64(data[off:])))
				off += 8
			case 'f':
				vals = append(vals, FloatValue(float64(math.Float32frombits(o.Uint32(data[off:])))))
				off += 4
			case 'd':
				vals = append(vals, FloatValue(math.Float64frombits(o.Uint64(data[off:]))))
				off += 8
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

// encode turns v into exactly spec.size bytes.
func (spec formatSpec) encode(field string, v Value) ([]byte, error) {
	var vals []Value
	switch spec.values {
	case 0:
	case 1:
		vals = []Value{v}
	default:
		if v.Kind() != ValueList || v.Len() != spec.values {
			return nil, &EncodingError{Field: field, Value: v,
				Reason: fmt.Sprintf("format %q takes %d values, got %s of length %d", spec.text, spec.values, v.Kind(), v.Len())}
		}
		vals = v.List()
	}

	out := make([]byte, spec.size)
	o := spec.order
	off := 0
	vi := 0
	next := func() Value {
		val := vals[vi]
		vi++
		return val
	}
	fail := func(val Value, reason string) error {
		return &EncodingError{Field: field, Value: val, Reason: reason}
	}

	for _, it := range spec.items {
		if it.code == 's' {
			val := next()
			if val.Kind() != ValueString && val.Kind() != ValueBytes {
				return nil, fail(val, "expected text for 's' format")
			}
			s := val.Str()
			if len(s) > it.count {
				s = s[:it.count]
			} else if len(s) < it.count {
				s += strings.Repeat(" ", it.count-len(s))
			}
			copy(out[off:], s)
			off += it.count
			continue
		}
		for n := 0; n < it.count; n++ {
			switch it.code {
			case 'x':
				off++
			case 'c':
				val := next()
				if val.Len() != 1 || (val.Kind() != ValueString && val.Kind() != ValueBytes) {
					return nil, fail(val, "'c' format requires a single character")
				}
				out[off] = val.Str()[0]
				off++
			case '?':
				val := next()
				if !val.IsNumber() {
					return nil, fail(val, "expected a number")
				}
				if val.Float() != 0 {
					out[off] = 1
				}
				off++
			case 'f', 'd':
				val := next()
				if !val.IsNumber() {
					return nil, fail(val, "expected a number")
				}
				f := val.Float()
				if it.code == 'f' {
					if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
						return nil, fail(val, "float too large for 'f' format")
					}
					o.PutUint32(out[off:], math.Float32bits(float32(f)))
					off += 4
				} else {
					o.PutUint64(out[off:], math.Float64bits(f))
					off += 8
				}
			default:
				val := next()
				size, _ := codeSize(it.code)
				signed := it.code == 'b' || it.code == 'h' || it.code == 'i' || it.code == 'l' || it.code == 'q'
				bits, err := intBits(val, size*8, signed)
				if err != nil {
					return nil, fail(val, fmt.Sprintf("format %q: %v", string(it.code), err))
				}
				switch size {
				case 1:
					out[off] = byte(bits)
				case 2:
					o.PutUint16(out[off:], uint16(bits))
				case 4:
					o.PutUint32(out[off:], uint32(bits))
				case 8:
					o.PutUint64(out[off:], bits)
				}
				off += size
			}
		}
	}
	return out, nil
}

// intBits range-checks an integer value against a width and returns its
// two's complement bit pattern.
func intBits(v Value, bits int, signed bool) (uint64, error) {
	switch v.Kind() {
	case ValueInt:
		n := v.Int()
		if signed {
			lo, hi := -(int64(1) << (bits - 1)), int64(1)<<(bits-1)-1
			if bits == 64 {
				lo, hi = math.MinInt64, math.MaxInt64
			}
			if n < lo || n > hi {
				return 0, fmt.Errorf("%d out of range for %d-bit signed", n, bits)
			}
			return uint64(n), nil
		}
		if n < 0 {
			return 0, fmt.Errorf("%d out of range for %d-bit unsigned", n, bits)
		}
		if bits < 64 && uint64(n) > uint64(1)<<bits-1 {
			return 0, fmt.Errorf("%d out of range for %d-bit unsigned", n, bits)
		}
		return uint64(n), nil
	case ValueUint:
		n := v.Uint()
		var limit uint64 = math.MaxUint64
		if signed {
			limit = uint64(1)<<(bits-1) - 1
		} else if bits < 64 {
			limit = uint64(1)<<bits - 1
		}
		if n > limit {
			return 0, fmt.Errorf("%d out of range for %d-bit", n, bits)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %s", v.Kind())
	}
}
