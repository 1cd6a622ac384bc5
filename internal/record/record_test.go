package record

import (
	"bytes"
	"errors"
	"testing"
)

func headerRecord() *Record {
	return MustRecord("hdr",
		ULInt32("a"),
		CString("b", Fixed(8)),
	)
}

func TestRecordRoundTrip(t *testing.T) {
	rec := headerRecord()
	data := []byte{0x01, 0x00, 0x00, 0x00, 'h', 'i', 0, 0, 0, 0, 0, 0}

	inst, err := rec.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := inst.Uint("a"); got != 1 {
		t.Errorf("a = %d, want 1", got)
	}
	if got := inst.Str("b"); got != "hi" {
		t.Errorf("b = %q, want %q", got, "hi")
	}

	size, err := rec.SizeOf(inst)
	if err != nil {
		t.Fatalf("SizeOf() error = %v", err)
	}
	if size != 12 {
		t.Errorf("SizeOf() = %d, want 12", size)
	}

	out, err := rec.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Marshal() = % x, want % x", out, data)
	}
}

func TestRecordSizeMatchesMarshal(t *testing.T) {
	rec := MustRecord("mixed",
		UBInt16("kind"),
		CString("name", nil),
		Format("pair", "<2H"),
		LFloat64("ratio"),
		Skip(Fixed(3), 0),
	)
	inst := rec.New()
	inst.Set("name", StringValue("chord"))
	inst.Set("pair", ListValue(UintValue(1), UintValue(2)))
	inst.Set("ratio", FloatValue(0.5))

	size, err := rec.SizeOf(inst)
	if err != nil {
		t.Fatalf("SizeOf() error = %v", err)
	}
	out, err := rec.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if size != len(out) {
		t.Errorf("SizeOf() = %d, Marshal() wrote %d bytes", size, len(out))
	}
	if size != 2+6+4+8+3 {
		t.Errorf("SizeOf() = %d, want %d", size, 2+6+4+8+3)
	}
}

func TestDirectionFieldSize(t *testing.T) {
	rec := MustRecord("dir",
		UBInt8("a"),
		UnpackOnly(UBInt32("b")),
		PackOnly(UBInt8("c")),
	)
	inst, err := rec.Unmarshal([]byte{1, 0, 0, 0, 2})
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := inst.Uint("b"); got != 2 {
		t.Errorf("b = %d, want 2", got)
	}
	inst.Set("c", UintValue(7))

	size, err := rec.SizeOf(inst)
	if err != nil {
		t.Fatalf("SizeOf() error = %v", err)
	}
	out, err := rec.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if size != len(out) {
		t.Errorf("SizeOf() = %d, Marshal() wrote %d bytes", size, len(out))
	}
	if want := []byte{1, 7}; !bytes.Equal(out, want) {
		t.Errorf("Marshal() = % x, want % x", out, want)
	}
}

func TestRecordDefaults(t *testing.T) {
	rec := MustRecord("d",
		UBInt8("version").WithDefault(UintValue(3)),
		CString("label", nil).WithDefault("none"),
		List(UBInt8("v"), 2),
	)
	inst := rec.New()
	if got := inst.Uint("version"); got != 3 {
		t.Errorf("version = %d, want 3", got)
	}
	if got := inst.Str("label"); got != "none" {
		t.Errorf("label = %q, want %q", got, "none")
	}
	if got := len(inst.List("v")); got != 2 {
		t.Errorf("len(v) = %d, want 2", got)
	}

	other := rec.NewWith(map[string]Value{"version": UintValue(9)})
	if got := other.Uint("version"); got != 9 {
		t.Errorf("NewWith version = %d, want 9", got)
	}
	if got := inst.Uint("version"); got != 3 {
		t.Errorf("defaults shared between instances: version = %d", got)
	}
}

func TestComputePackCount(t *testing.T) {
	rec := MustRecord("msg",
		ComputePack(UBInt8("count"), func(inst *Instance) (Value, error) {
			return IntValue(int64(len(inst.List("items")))), nil
		}),
		MetaList(UBInt16("items"), FieldLen("count")),
	)

	inst, err := rec.Unmarshal([]byte{0x02, 0x00, 0x05, 0x00, 0x07})
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	items := inst.List("items")
	if len(items) != 2 || items[0].Uint() != 5 || items[1].Uint() != 7 {
		t.Fatalf("items = %v, want [5, 7]", inst.Get("items"))
	}

	inst.Append("items", UintValue(9))
	out, err := rec.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := []byte{0x03, 0x00, 0x05, 0x00, 0x07, 0x00, 0x09}
	if !bytes.Equal(out, want) {
		t.Errorf("Marshal() = % x, want % x", out, want)
	}
}

func TestFixedListLengthMismatch(t *testing.T) {
	rec := MustRecord("r", List(UBInt8("v"), 2))
	inst := rec.New()
	inst.Set("v", ListValue(UintValue(1)))

	_, err := rec.Marshal(inst)
	if !errors.Is(err, ErrEncoding) {
		t.Errorf("Marshal() error = %v, want ErrEncoding", err)
	}
}

func TestSwitch(t *testing.T) {
	rec := MustRecord("msg",
		UBInt8("tag"),
		Switch("body", func(inst *Instance) (uint64, error) {
			return inst.Uint("tag"), nil
		}, map[uint64]Field{
			1: UBInt16("x"),
			2: CString("y", nil),
		}, nil),
	)

	tests := []struct {
		data []byte
		want Value
	}{
		{[]byte{0x01, 0x00, 0x2a}, UintValue(42)},
		{[]byte{0x02, 'h', 'i', 0x00}, StringValue("hi")},
		{[]byte{0x03}, NilValue()},
	}

	for _, tt := range tests {
		inst, err := rec.Unmarshal(tt.data)
		if err != nil {
			t.Errorf("Unmarshal(% x) error = %v", tt.data, err)
			continue
		}
		if got := inst.Get("body"); !got.Equal(tt.want) {
			t.Errorf("Unmarshal(% x) body = %v, want %v", tt.data, got, tt.want)
		}
		out, err := rec.Marshal(inst)
		if err != nil {
			t.Errorf("Marshal(% x) error = %v", tt.data, err)
			continue
		}
		if !bytes.Equal(out, tt.data) {
			t.Errorf("Marshal() = % x, want % x", out, tt.data)
		}
	}
}

func TestSwitchRecordBranches(t *testing.T) {
	point := MustRecord("point", SBInt16("x"), SBInt16("y"))
	label := MustRecord("label", CString("text", nil))
	rec := MustRecord("shape",
		UBInt8("tag"),
		Switch("data", func(inst *Instance) (uint64, error) {
			return inst.Uint("tag"), nil
		}, map[uint64]Field{1: point, 2: label}, nil),
	)

	inst := rec.New()
	inst.Set("tag", UintValue(2))
	data := []byte{0x02, 'o', 'k', 0x00}
	if err := rec.UnserializeInto(bytes.NewReader(data), inst); err != nil {
		t.Fatalf("UnserializeInto() error = %v", err)
	}
	child := inst.Child("data")
	if child == nil {
		t.Fatal("data child is nil")
	}
	if got := child.Str("text"); got != "ok" {
		t.Errorf("data.text = %q, want %q", got, "ok")
	}
	if child.Parent() != inst {
		t.Error("data child parent is not the shape instance")
	}
}

func TestIf(t *testing.T) {
	rec := MustRecord("opt",
		UBInt8("flag"),
		If(func(inst *Instance) (bool, error) {
			return inst.Uint("flag") != 0, nil
		}, UBInt8("extra")),
	)

	inst, err := rec.Unmarshal([]byte{0x00})
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !inst.Get("extra").IsNil() {
		t.Errorf("extra = %v, want nil", inst.Get("extra"))
	}

	inst, err = rec.Unmarshal([]byte{0x01, 0x05})
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := inst.Uint("extra"); got != 5 {
		t.Errorf("extra = %d, want 5", got)
	}
}

func TestPointer(t *testing.T) {
	rec := MustRecord("p",
		UBInt8("off"),
		Pointer(UBInt8("val"), FieldOffset("off")),
		UBInt8("next"),
	)

	inst, err := rec.Unmarshal([]byte{0x03, 0xaa, 0xbb, 0x7f})
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := inst.Uint("val"); got != 0x7f {
		t.Errorf("val = %#x, want 0x7f", got)
	}
	if got := inst.Uint("next"); got != 0xaa {
		t.Errorf("next = %#x, want 0xaa", got)
	}
}

func TestReadAhead(t *testing.T) {
	rec := MustRecord("ra",
		ReadAhead(UBInt8("peek")),
		UBInt16("word"),
	)
	data := []byte{0x01, 0x02}

	inst, err := rec.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := inst.Uint("peek"); got != 1 {
		t.Errorf("peek = %d, want 1", got)
	}
	if got := inst.Uint("word"); got != 0x0102 {
		t.Errorf("word = %#x, want 0x0102", got)
	}

	out, err := rec.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Marshal() = % x, want % x", out, data)
	}
}

func TestChecksum(t *testing.T) {
	rec := MustRecord("blk",
		Anchor("start"),
		UBInt32("a"),
		UBInt32("b"),
		UBInt32Checksum("sum", "start"),
	)
	data := []byte{0, 0, 0, 1, 0, 0, 0, 2}

	inst, err := rec.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := inst.Uint("sum"); got != 0xfffffffd {
		t.Errorf("sum = %#x, want 0xfffffffd", got)
	}
	if got := inst.Int("start"); got != 0 {
		t.Errorf("start = %d, want 0", got)
	}

	out, err := rec.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Marshal() = % x, want % x", out, data)
	}
}

func TestChecksumUnalignedSpan(t *testing.T) {
	rec := MustRecord("blk",
		Anchor("start"),
		UBInt8("a"),
		ULInt32Checksum("sum", "start"),
	)
	_, err := rec.Unmarshal([]byte{0x01})
	if !errors.Is(err, ErrEncoding) {
		t.Errorf("Unmarshal() error = %v, want ErrEncoding", err)
	}
}

func TestCookedInt(t *testing.T) {
	rec := MustRecord("c", CookedInt(Format("n", "4s"), ""))

	inst, err := rec.Unmarshal([]byte("0042"))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := inst.Int("n"); got != 42 {
		t.Errorf("n = %d, want 42", got)
	}
	inst.Set("n", IntValue(7))
	out, err := rec.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != "0007" {
		t.Errorf("Marshal() = %q, want %q", out, "0007")
	}
}

func TestCookedIntConversionPolicy(t *testing.T) {
	rec := MustRecord("c", CookedInt(Format("n", "4s"), ""))

	inst, err := rec.Unmarshal([]byte("ab12"))
	if err != nil {
		t.Fatalf("Unmarshal() with Substitute error = %v", err)
	}
	if got := inst.Get("n"); !got.Equal(IntValue(0)) {
		t.Errorf("n = %v, want 0", got)
	}

	_, err = rec.Unmarshal([]byte("ab12"), WithConversion(Fail))
	if !errors.Is(err, ErrConversion) {
		t.Errorf("Unmarshal() with Fail error = %v, want ErrConversion", err)
	}

	strict := MustRecord("c", CookedInt(Format("n", "4s"), "").WithPolicy(Fail))
	if _, err := strict.Unmarshal([]byte("zz")); !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("Unmarshal(short) error = %v, want ErrTruncatedInput", err)
	}
	if _, err := strict.Unmarshal([]byte("zzzz")); !errors.Is(err, ErrConversion) {
		t.Errorf("Unmarshal() with WithPolicy(Fail) error = %v, want ErrConversion", err)
	}
}

func TestCookedIntNeedsFormat(t *testing.T) {
	_, err := NewRecord("c", CookedInt(String("n", Fixed(4)), ""))
	if !errors.Is(err, ErrSchema) {
		t.Errorf("NewRecord() error = %v, want ErrSchema", err)
	}
}

func TestMetaSizeList(t *testing.T) {
	rec := MustRecord("sl",
		UBInt8("len"),
		MetaSizeList(CString("names", nil), FieldLen("len")),
		UBInt8("tail"),
	)
	data := []byte{0x05, 'a', 0x00, 'b', 'c', 0x00, 0xff}

	inst, err := rec.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := ListValue(StringValue("a"), StringValue("bc"))
	if got := inst.Get("names"); !got.Equal(want) {
		t.Errorf("names = %v, want %v", got, want)
	}
	if got := inst.Uint("tail"); got != 0xff {
		t.Errorf("tail = %#x, want 0xff", got)
	}

	out, err := rec.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Marshal() = % x, want % x", out, data)
	}
}

func TestMetaSizeListRecordsKeepAbsoluteOffsets(t *testing.T) {
	entry := MustRecord("entry", Anchor("at"), UBInt8("v"))
	rec := MustRecord("outer",
		UBInt8("len"),
		MetaSizeList(entry, FieldLen("len")),
	)

	inst, err := rec.Unmarshal([]byte{0x02, 0x0a, 0x0b})
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	entries := inst.List("entry")
	if len(entries) != 2 {
		t.Fatalf("len(entry) = %d, want 2", len(entries))
	}
	for i, want := range []int64{1, 2} {
		e := entries[i].Record()
		if got := e.Int("at"); got != want {
			t.Errorf("entry[%d].at = %d, want %d", i, got, want)
		}
		if e.Index() != i {
			t.Errorf("entry[%d].Index() = %d", i, e.Index())
		}
		if e.Parent() != inst {
			t.Errorf("entry[%d].Parent() is not the outer instance", i)
		}
	}
}

func TestSkip(t *testing.T) {
	rec := MustRecord("s",
		UBInt8("a"),
		Skip(Fixed(2), 0xee),
		UBInt8("b"),
	)
	inst, err := rec.Unmarshal([]byte{0x01, 0x00, 0x00, 0x02})
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if inst.Uint("a") != 1 || inst.Uint("b") != 2 {
		t.Errorf("a, b = %d, %d, want 1, 2", inst.Uint("a"), inst.Uint("b"))
	}
	out, err := rec.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := []byte{0x01, 0xee, 0xee, 0x02}
	if !bytes.Equal(out, want) {
		t.Errorf("Marshal() = % x, want % x", out, want)
	}
}

func TestAbort(t *testing.T) {
	rec := MustRecord("a", UBInt8("x"), Abort("unsupported"))
	_, err := rec.Unmarshal([]byte{0x01})
	if !errors.Is(err, ErrAbort) {
		t.Errorf("Unmarshal() error = %v, want ErrAbort", err)
	}
}

func TestNewRecordSchemaErrors(t *testing.T) {
	compute := func(*Instance) (Value, error) { return IntValue(1), nil }
	tests := []struct {
		name  string
		build func() (*Record, error)
	}{
		{"empty", func() (*Record, error) { return NewRecord("r") }},
		{"reserved record name", func() (*Record, error) { return NewRecord("_r", UBInt8("a")) }},
		{"reserved field name", func() (*Record, error) { return NewRecord("r", UBInt8("_a")) }},
		{"duplicate", func() (*Record, error) { return NewRecord("r", UBInt8("a"), UBInt16("a")) }},
		{"bad format", func() (*Record, error) { return NewRecord("r", Format("f", "Z")) }},
		{"computed in list", func() (*Record, error) {
			return NewRecord("r", List(ComputeUnpack("c", compute), 2))
		}},
		{"computed in pointer", func() (*Record, error) {
			return NewRecord("r", Pointer(ComputePack(UBInt8("c"), compute), FieldOffset("c")))
		}},
		{"direction conflict", func() (*Record, error) {
			return NewRecord("r", PackOnly(ComputeUnpack("c", compute)))
		}},
	}

	for _, tt := range tests {
		_, err := tt.build()
		if !errors.Is(err, ErrSchema) {
			t.Errorf("%s: error = %v, want ErrSchema", tt.name, err)
		}
	}
}

func TestMustRecordPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRecord() did not panic on an empty typedef")
		}
	}()
	MustRecord("empty")
}

func TestTruncatedInput(t *testing.T) {
	rec := MustRecord("p", UBInt8("a"), UBInt32("b"))

	_, err := rec.Unmarshal([]byte{0x01, 0x02})
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("Unmarshal() error = %v, want ErrTruncatedInput", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Path != "b" {
		t.Errorf("Unmarshal() error path = %v, want b", err)
	}
	var te *TruncatedInputError
	if !errors.As(err, &te) {
		t.Fatalf("Unmarshal() error = %v, want *TruncatedInputError", err)
	}
	if te.Offset != 1 || te.Want != 4 || te.Got != 1 {
		t.Errorf("TruncatedInputError = %+v, want offset 1, want 4, got 1", te)
	}
}

func TestPartialUnserialize(t *testing.T) {
	rec := MustRecord("p", UBInt8("a"), UBInt16("b"))

	inst, err := rec.Unmarshal([]byte{0x01}, WithPartial())
	if err != nil {
		t.Fatalf("Unmarshal(WithPartial) error = %v", err)
	}
	if got := inst.Uint("a"); got != 1 {
		t.Errorf("a = %d, want 1", got)
	}
	if !errors.Is(inst.Incomplete(), ErrTruncatedInput) {
		t.Errorf("Incomplete() = %v, want ErrTruncatedInput", inst.Incomplete())
	}
}

func TestPartialSerialize(t *testing.T) {
	rec := MustRecord("p", UBInt8("a"), UBInt8("b"))
	inst := rec.New()
	inst.Set("a", UintValue(1))
	inst.Set("b", IntValue(300))

	if _, err := rec.Marshal(inst); !errors.Is(err, ErrEncoding) {
		t.Fatalf("Marshal() error = %v, want ErrEncoding", err)
	}
	out, err := rec.Marshal(inst, WithPartial())
	if err != nil {
		t.Fatalf("Marshal(WithPartial) error = %v", err)
	}
	if !bytes.Equal(out, []byte{0x01}) {
		t.Errorf("Marshal(WithPartial) = % x, want 01", out)
	}
	if !errors.Is(inst.Incomplete(), ErrEncoding) {
		t.Errorf("Incomplete() = %v, want ErrEncoding", inst.Incomplete())
	}
}

func TestNestedErrorPath(t *testing.T) {
	entry := MustRecord("entry", UBInt8("k"), UBInt16("v"))
	rec := MustRecord("outer",
		UBInt8("n"),
		MetaList(entry, FieldLen("n")),
	)

	_, err := rec.Unmarshal([]byte{0x02, 0x01, 0x00, 0x01, 0x02})
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("Unmarshal() error = %v, want *FieldError", err)
	}
	if fe.Path != "entry[1].v" {
		t.Errorf("error path = %q, want %q", fe.Path, "entry[1].v")
	}
}

func TestHooks(t *testing.T) {
	rec := MustRecord("h", UBInt8("version")).
		WithPostUnpack(func(inst *Instance) error {
			inst.Set("loaded", IntValue(1))
			return nil
		}).
		WithPrePack(func(inst *Instance) error {
			inst.Set("version", UintValue(inst.Uint("version")+1))
			return nil
		})

	inst, err := rec.Unmarshal([]byte{0x04})
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := inst.Int("loaded"); got != 1 {
		t.Errorf("loaded = %d, want 1", got)
	}
	out, err := rec.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(out, []byte{0x05}) {
		t.Errorf("Marshal() = % x, want 05", out)
	}
}

func TestSizeSubset(t *testing.T) {
	rec := MustRecord("s",
		UBInt8("a"),
		UBInt16("b"),
		UBInt32("c"),
		UBInt64("d"),
	)
	inst := rec.New()

	tests := []struct {
		start, end string
		want       int
	}{
		{"", "", 15},
		{"b", "c", 6},
		{"b", "d", 14},
		{"c", "c", 4},
		{"c", "", 12},
		{"", "c", 7},
	}
	for _, tt := range tests {
		got, err := rec.SizeSubset(inst, tt.start, tt.end)
		if err != nil {
			t.Errorf("SizeSubset(%q, %q) error = %v", tt.start, tt.end, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SizeSubset(%q, %q) = %d, want %d", tt.start, tt.end, got, tt.want)
		}
	}

	if _, err := rec.SizeSubset(inst, "missing", ""); err == nil {
		t.Error("SizeSubset(missing) error = nil")
	}
	if _, err := rec.SizeSubset(inst, "c", "b"); err == nil {
		t.Error("SizeSubset(c, b) error = nil, want out-of-order error")
	}
}
