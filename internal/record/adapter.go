package record

import (
	"fmt"
	"strconv"
	"strings"
)

// ConversionPolicy decides what an adapter does when a conversion fails.
type ConversionPolicy uint8

const (
	// Substitute logs the failure and stores (or writes) a zero value.
	Substitute ConversionPolicy = iota
	// Fail turns the failure into an EncodingError wrapping ErrConversion.
	Fail
)

// String returns the policy name used in configuration files.
func (p ConversionPolicy) String() string {
	switch p {
	case Substitute:
		return "substitute"
	case Fail:
		return "fail"
	default:
		return fmt.Sprintf("ConversionPolicy(%d)", p)
	}
}

// ParseConversionPolicy parses "substitute" or "fail".
func ParseConversionPolicy(s string) (ConversionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "substitute", "":
		return Substitute, nil
	case "fail":
		return Fail, nil
	}
	return Substitute, fmt.Errorf("unknown conversion policy %q", s)
}

// Converter maps between the raw value a proxy stores and an application value.
type Converter func(v Value, inst *Instance) (Value, error)

// AdapterField converts its proxy's raw value after unpack and before pack.
type AdapterField struct {
	wrapped
	decode Converter
	encode Converter
	policy ConversionPolicy
	zero   Value
	err    error
}

// Adapter wraps proxy with a decode and encode pair. Decode failures
// substitute zero, encode failures substitute the proxy's default, unless
// the policy is Fail.
func Adapter(proxy Field, decode, encode Converter, zero Value) *AdapterField {
	return &AdapterField{wrapped: wrapped{proxy}, decode: decode, encode: encode, zero: zero}
}

// WithPolicy returns a copy of the adapter using policy p.
func (f *AdapterField) WithPolicy(p ConversionPolicy) *AdapterField {
	c := *f
	c.policy = p
	return &c
}

func (f *AdapterField) Kind() Kind   { return KindAdapter }
func (f *AdapterField) check() error { return f.err }

func (f *AdapterField) effective(s *Stream) ConversionPolicy {
	if s != nil && s.opts.conversion != nil {
		return *s.opts.conversion
	}
	return f.policy
}

func (f *AdapterField) failure(s *Stream, op string, v Value, err error) error {
	if f.effective(s) == Fail {
		return &EncodingError{Field: f.Name(), Value: v, Reason: op,
			Err: fmt.Errorf("%w: %v", ErrConversion, err)}
	}
	if s != nil {
		s.logger().Warn("%s %q failed, substituting zero: %v", op, f.Name(), err)
	}
	return nil
}

// rawDefault returns the proxy's default raw value.
func (f *AdapterField) rawDefault(inst *Instance) Value {
	scope := newScope(inst, -1)
	f.proxy.StoreDefault(scope)
	return scope.Get(f.Name())
}

// withRaw swaps the encoded value in for the duration of fn.
func (f *AdapterField) withRaw(s *Stream, inst *Instance, fn func() error) error {
	name := f.Name()
	saved := inst.Get(name)
	raw, err := f.encode(saved, inst)
	if err != nil {
		if ferr := f.failure(s, "encode", saved, err); ferr != nil {
			return ferr
		}
		raw = f.rawDefault(inst)
	}
	inst.Set(name, raw)
	defer inst.Set(name, saved)
	return fn()
}

func (f *AdapterField) Size(inst *Instance) (int, error) {
	var n int
	err := f.withRaw(nil, inst, func() error {
		var err error
		n, err = f.proxy.Size(inst)
		return err
	})
	return n, err
}

func (f *AdapterField) Unpack(s *Stream, inst *Instance) error {
	if err := f.proxy.Unpack(s, inst); err != nil {
		return err
	}
	raw := inst.Get(f.Name())
	v, err := f.decode(raw, inst)
	if err != nil {
		if ferr := f.failure(s, "decode", raw, err); ferr != nil {
			return ferr
		}
		v = f.zero.Clone()
	}
	inst.Set(f.Name(), v)
	return nil
}

func (f *AdapterField) Pack(s *Stream, inst *Instance) error {
	return f.withRaw(s, inst, func() error { return f.proxy.Pack(s, inst) })
}

func (f *AdapterField) StoreDefault(inst *Instance) {
	raw := f.rawDefault(inst)
	v, err := f.decode(raw, inst)
	if err != nil {
		v = f.zero.Clone()
	}
	inst.Set(f.Name(), v)
}

func (f *AdapterField) rename(name string) Field {
	c := *f
	c.proxy = f.proxy.rename(name)
	return &c
}

// fixedSizer is implemented by fields whose width never depends on the instance.
type fixedSizer interface {
	fixedSize() int
}

// CookedInt stores a decimal number held as text in proxy. With an empty
// format the number is zero padded to the proxy's fixed width ("%0Nd").
func CookedInt(proxy Field, format string) *AdapterField {
	var err error
	if format == "" {
		if fs, ok := proxy.(fixedSizer); ok {
			format = "%0" + strconv.Itoa(fs.fixedSize()) + "d"
		} else {
			err = fmt.Errorf("cooked int %q needs a format for a variable-width proxy", proxy.Name())
		}
	}
	decode := func(v Value, _ *Instance) (Value, error) {
		n, err := strconv.ParseInt(trimCooked(v.Str()), 10, 64)
		if err != nil {
			return IntValue(0), err
		}
		return IntValue(n), nil
	}
	encode := func(v Value, _ *Instance) (Value, error) {
		if !v.IsNumber() {
			return NilValue(), fmt.Errorf("%s is not a number", v.Kind())
		}
		return StringValue(fmt.Sprintf(format, v.Int())), nil
	}
	f := Adapter(proxy, decode, encode, IntValue(0))
	f.err = err
	return f
}

// CookedFloat stores a floating point number held as text in proxy,
// formatted with format when packed.
func CookedFloat(proxy Field, format string) *AdapterField {
	var err error
	if format == "" {
		err = fmt.Errorf("cooked float %q needs a format", proxy.Name())
	}
	decode := func(v Value, _ *Instance) (Value, error) {
		x, err := strconv.ParseFloat(trimCooked(v.Str()), 64)
		if err != nil {
			return FloatValue(0), err
		}
		return FloatValue(x), nil
	}
	encode := func(v Value, _ *Instance) (Value, error) {
		if !v.IsNumber() {
			return NilValue(), fmt.Errorf("%s is not a number", v.Kind())
		}
		return StringValue(fmt.Sprintf(format, v.Float())), nil
	}
	f := Adapter(proxy, decode, encode, FloatValue(0))
	f.err = err
	return f
}

func trimCooked(s string) string {
	return strings.Trim(s, " \t\r\n\x00")
}
