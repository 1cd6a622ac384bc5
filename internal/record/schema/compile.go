package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dshills/chordpack/internal/logging"
	"github.com/dshills/chordpack/internal/record"
	"github.com/dshills/chordpack/internal/script"
)

var numbers = map[string]func(string) *record.FormatField{
	"u8":    record.UBInt8,
	"s8":    record.SBInt8,
	"u16le": record.ULInt16,
	"u16be": record.UBInt16,
	"s16le": record.SLInt16,
	"s16be": record.SBInt16,
	"u32le": record.ULInt32,
	"u32be": record.UBInt32,
	"s32le": record.SLInt32,
	"s32be": record.SBInt32,
	"u64le": record.ULInt64,
	"u64be": record.UBInt64,
	"s64le": record.SLInt64,
	"s64be": record.SBInt64,
	"f32le": record.LFloat32,
	"f32be": record.BFloat32,
	"f64le": record.LFloat64,
	"f64be": record.BFloat64,
}

type compiler struct {
	file     *File
	engine   *script.Engine
	log      *logging.Logger
	built    map[string]*record.Record
	building map[string]bool
}

func (c *compiler) record(name string) (*record.Record, error) {
	if r, ok := c.built[name]; ok {
		return r, nil
	}
	if c.building[name] {
		return nil, &record.SchemaError{Record: name, Reason: "record contains itself"}
	}
	def, ok := c.file.Records[name]
	if !ok {
		return nil, &record.SchemaError{Record: name, Reason: "unknown record"}
	}
	c.building[name] = true
	defer delete(c.building, name)

	fields := make([]record.Field, 0, len(def.Fields))
	for i := range def.Fields {
		f, err := c.field(name, &def.Fields[i])
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	r, err := record.NewRecord(name, fields...)
	if err != nil {
		return nil, err
	}
	c.built[name] = r
	return r, nil
}

func (c *compiler) fail(rec string, fd *FieldDef, format string, args ...any) error {
	return &record.SchemaError{Record: rec, Field: fd.Name, Reason: fmt.Sprintf(format, args...)}
}

func (c *compiler) field(rec string, fd *FieldDef) (record.Field, error) {
	typ := strings.ToLower(fd.Type)
	if ctor, ok := numbers[typ]; ok {
		f := ctor(fd.Name)
		if fd.Default != nil {
			f = f.WithDefault(toValue(fd.Default))
		}
		return f, nil
	}

	switch typ {
	case "format":
		if fd.Format == "" {
			return nil, c.fail(rec, fd, "format field needs a format")
		}
		f := record.Format(fd.Name, fd.Format)
		if fd.Default != nil {
			f = f.WithDefault(toValue(fd.Default))
		}
		return f, nil

	case "cstring":
		var maxLen record.LengthFunc
		if fd.Max != "" {
			x, err := c.expr(rec, fd, "max", fd.Max)
			if err != nil {
				return nil, err
			}
			maxLen = lengthFunc(x)
		}
		f := record.CString(fd.Name, maxLen)
		if s, ok := fd.Default.(string); ok {
			f = f.WithDefault(s)
		}
		return f, nil

	case "bytes":
		length, err := c.length(rec, fd, "length", fd.Length)
		if err != nil {
			return nil, err
		}
		var f *record.BytesField
		if fd.Text {
			f = record.String(fd.Name, length)
		} else {
			f = record.Bytes(fd.Name, length)
		}
		if fd.Default != nil {
			f = f.WithDefault(toValue(fd.Default))
		}
		return f, nil

	case "skip":
		length, err := c.length(rec, fd, "length", fd.Length)
		if err != nil {
			return nil, err
		}
		if fd.Pad < 0 || fd.Pad > 255 {
			return nil, c.fail(rec, fd, "pad byte %d out of range", fd.Pad)
		}
		return record.Skip(length, byte(fd.Pad)), nil

	case "noop":
		return record.NoOp(fd.Name), nil

	case "abort":
		return record.Abort(fd.Name), nil

	case "record":
		ref := fd.Record
		if ref == "" {
			ref = fd.Name
		}
		r, err := c.record(ref)
		if err != nil {
			return nil, err
		}
		if fd.Name != "" && fd.Name != ref {
			r = r.Renamed(fd.Name)
		}
		return r, nil

	case "list":
		proxy, err := c.proxy(rec, fd)
		if err != nil {
			return nil, err
		}
		if n, err := strconv.Atoi(strings.TrimSpace(fd.Count)); err == nil {
			return record.List(proxy, n), nil
		}
		count, err := c.length(rec, fd, "count", fd.Count)
		if err != nil {
			return nil, err
		}
		return record.MetaList(proxy, count), nil

	case "sizelist":
		proxy, err := c.proxy(rec, fd)
		if err != nil {
			return nil, err
		}
		length, err := c.length(rec, fd, "length", fd.Length)
		if err != nil {
			return nil, err
		}
		return record.MetaSizeList(proxy, length), nil

	case "if":
		then, err := c.proxy(rec, fd)
		if err != nil {
			return nil, err
		}
		x, err := c.expr(rec, fd, "when", fd.When)
		if err != nil {
			return nil, err
		}
		var els record.Field
		if fd.Else != nil {
			if els, err = c.field(rec, inherit(fd.Else, fd.Name)); err != nil {
				return nil, err
			}
		}
		return record.IfElse(predicate(x), then, els), nil

	case "switch":
		return c.switchField(rec, fd)

	case "pointer":
		proxy, err := c.proxy(rec, fd)
		if err != nil {
			return nil, err
		}
		x, err := c.expr(rec, fd, "offset", fd.Offset)
		if err != nil {
			return nil, err
		}
		return record.Pointer(proxy, func(inst *record.Instance) (int64, error) {
			return x.Int(scopeOf(inst))
		}), nil

	case "readahead":
		proxy, err := c.proxy(rec, fd)
		if err != nil {
			return nil, err
		}
		return record.ReadAhead(proxy), nil

	case "adapter":
		return c.adapter(rec, fd)

	case "cookedint", "cookedfloat":
		proxy, err := c.proxy(rec, fd)
		if err != nil {
			return nil, err
		}
		var f *record.AdapterField
		if typ == "cookedint" {
			f = record.CookedInt(proxy, fd.Format)
		} else {
			f = record.CookedFloat(proxy, fd.Format)
		}
		return c.withPolicy(rec, fd, f)

	case "compute":
		x, err := c.expr(rec, fd, "value", fd.Value)
		if err != nil {
			return nil, err
		}
		f := record.ComputeUnpack(fd.Name, computeFunc(x))
		if fd.Default != nil {
			f = f.WithDefault(toValue(fd.Default))
		}
		return f, nil

	case "computepack":
		proxy, err := c.proxy(rec, fd)
		if err != nil {
			return nil, err
		}
		x, err := c.expr(rec, fd, "value", fd.Value)
		if err != nil {
			return nil, err
		}
		return record.ComputePack(proxy, computeFunc(x)), nil

	case "anchor":
		return record.Anchor(fd.Name), nil

	case "checksum":
		if fd.Anchor == "" {
			return nil, c.fail(rec, fd, "checksum needs an anchor")
		}
		switch strings.ToLower(fd.Order) {
		case "", "be", "big":
			return record.UBInt32Checksum(fd.Name, fd.Anchor), nil
		case "le", "little":
			return record.ULInt32Checksum(fd.Name, fd.Anchor), nil
		}
		return nil, c.fail(rec, fd, "unknown byte order %q", fd.Order)

	case "unpackonly", "packonly":
		proxy, err := c.proxy(rec, fd)
		if err != nil {
			return nil, err
		}
		if typ == "unpackonly" {
			return record.UnpackOnly(proxy), nil
		}
		return record.PackOnly(proxy), nil

	case "modify":
		return c.modify(rec, fd)

	case "":
		return nil, c.fail(rec, fd, "field has no type")
	}
	return nil, c.fail(rec, fd, "unknown type %q", fd.Type)
}

// inherit returns a copy of def named name when def has no name of its own.
func inherit(def *FieldDef, name string) *FieldDef {
	cp := *def
	if cp.Name == "" {
		cp.Name = name
	}
	return &cp
}

func (c *compiler) proxy(rec string, fd *FieldDef) (record.Field, error) {
	if fd.Of == nil {
		return nil, c.fail(rec, fd, "%s field needs an \"of\" table", fd.Type)
	}
	return c.field(rec, inherit(fd.Of, fd.Name))
}

func (c *compiler) expr(rec string, fd *FieldDef, attr, src string) (*script.Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, c.fail(rec, fd, "missing attribute %q", attr)
	}
	x, err := c.engine.Compile(src)
	if err != nil {
		return nil, c.fail(rec, fd, "%s: %v", attr, err)
	}
	return x, nil
}

func (c *compiler) length(rec string, fd *FieldDef, attr, src string) (record.LengthFunc, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(src)); err == nil {
		return record.Fixed(n), nil
	}
	x, err := c.expr(rec, fd, attr, src)
	if err != nil {
		return nil, err
	}
	return lengthFunc(x), nil
}

func lengthFunc(x *script.Expr) record.LengthFunc {
	return func(inst *record.Instance) (int, error) {
		n, err := x.Int(scopeOf(inst))
		return int(n), err
	}
}

func predicate(x *script.Expr) record.Predicate {
	return func(inst *record.Instance) (bool, error) {
		return x.Bool(scopeOf(inst))
	}
}

func computeFunc(x *script.Expr) record.ComputeFunc {
	return func(inst *record.Instance) (record.Value, error) {
		v, err := x.Value(scopeOf(inst))
		if err != nil {
			return record.NilValue(), err
		}
		return toValue(v), nil
	}
}

func (c *compiler) switchField(rec string, fd *FieldDef) (record.Field, error) {
	x, err := c.expr(rec, fd, "on", fd.On)
	if err != nil {
		return nil, err
	}
	if len(fd.Cases) == 0 {
		return nil, c.fail(rec, fd, "switch has no cases")
	}
	cases := make(map[string]record.Field, len(fd.Cases))
	for k, cd := range fd.Cases {
		f, err := c.field(rec, inherit(&cd, fd.Name))
		if err != nil {
			return nil, err
		}
		cases[k] = f
	}
	var def record.Field
	if fd.DefaultCase != nil {
		if def, err = c.field(rec, inherit(fd.DefaultCase, fd.Name)); err != nil {
			return nil, err
		}
	}
	key := func(inst *record.Instance) (string, error) {
		v, err := x.Value(scopeOf(inst))
		if err != nil {
			return "", err
		}
		return caseKey(v), nil
	}
	return record.Switch(fd.Name, key, cases, def), nil
}

// caseKey renders a switch value the way TOML table keys spell it.
func caseKey(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<63 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

func (c *compiler) adapter(rec string, fd *FieldDef) (record.Field, error) {
	proxy, err := c.proxy(rec, fd)
	if err != nil {
		return nil, err
	}
	dec, err := c.expr(rec, fd, "decode", fd.Decode)
	if err != nil {
		return nil, err
	}
	enc, err := c.expr(rec, fd, "encode", fd.Encode)
	if err != nil {
		return nil, err
	}
	convert := func(x *script.Expr) record.Converter {
		return func(v record.Value, inst *record.Instance) (record.Value, error) {
			out, err := x.Value(overlay{vars: script.MapScope{"value": fromValue(v)}, next: scopeOf(inst)})
			if err != nil {
				return record.NilValue(), err
			}
			return toValue(out), nil
		}
	}
	f := record.Adapter(proxy, convert(dec), convert(enc), toValue(fd.Default))
	return c.withPolicy(rec, fd, f)
}

func (c *compiler) withPolicy(rec string, fd *FieldDef, f *record.AdapterField) (record.Field, error) {
	if fd.Policy == "" {
		return f, nil
	}
	p, err := record.ParseConversionPolicy(fd.Policy)
	if err != nil {
		return nil, c.fail(rec, fd, "%v", err)
	}
	return f.WithPolicy(p), nil
}

func (c *compiler) modify(rec string, fd *FieldDef) (record.Field, error) {
	if fd.Name == "" {
		return nil, c.fail(rec, fd, "modify needs the name of the value it sets")
	}
	x, err := c.expr(rec, fd, "value", fd.Value)
	if err != nil {
		return nil, err
	}
	target := fd.Name
	fn := func(inst *record.Instance) error {
		v, err := x.Value(scopeOf(inst))
		if err != nil {
			return err
		}
		inst.Set(target, toValue(v))
		return nil
	}
	switch strings.ToLower(fd.Dir) {
	case "", "both":
		return record.Modify(fn), nil
	case "unpack":
		return record.ModifyUnpack(fn), nil
	case "pack":
		return record.ModifyPack(fn), nil
	}
	return nil, c.fail(rec, fd, "unknown direction %q", fd.Dir)
}
