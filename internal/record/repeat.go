package record

import (
	"bytes"
	"fmt"
)

// ListField repeats its proxy a fixed or computed number of times.
type ListField struct {
	wrapped
	count LengthFunc
	fixed int
}

// List repeats proxy exactly n times. Packing a list of any other length
// is an EncodingError.
func List(proxy Field, n int) *ListField {
	return &ListField{wrapped: wrapped{proxy}, count: Fixed(n), fixed: n}
}

// Tuple is List.
func Tuple(proxy Field, n int) *ListField { return List(proxy, n) }

// MetaList repeats proxy count(inst) times, typically reading a count
// field decoded earlier in the record.
func MetaList(proxy Field, count LengthFunc) *ListField {
	return &ListField{wrapped: wrapped{proxy}, count: count, fixed: -1}
}

func (f *ListField) Kind() Kind { return KindRepetition }

func (f *ListField) n(inst *Instance) (int, error) {
	n, err := f.count(inst)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative element count %d", n)
	}
	return n, nil
}

func (f *ListField) Size(inst *Instance) (int, error) {
	return sizeElements(f.proxy, inst, inst.List(f.Name()))
}

func (f *ListField) Unpack(s *Stream, inst *Instance) error {
	n, err := f.n(inst)
	if err != nil {
		return err
	}
	vals := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		v, err := unpackElement(f.proxy, s, inst, i)
		if err != nil {
			inst.Set(f.Name(), ListValue(vals...))
			return wrapIndex(i, err)
		}
		vals = append(vals, v)
	}
	inst.Set(f.Name(), ListValue(vals...))
	return nil
}

func (f *ListField) Pack(s *Stream, inst *Instance) error {
	n, err := f.n(inst)
	if err != nil {
		return err
	}
	elems := inst.List(f.Name())
	if len(elems) != n {
		return &EncodingError{Field: f.Name(), Value: len(elems),
			Reason: fmt.Sprintf("list has %d elements, count is %d", len(elems), n)}
	}
	for i, v := range elems {
		if err := packElement(f.proxy, s, inst, i, v); err != nil {
			return wrapIndex(i, err)
		}
	}
	return nil
}

func (f *ListField) StoreDefault(inst *Instance) {
	n := 0
	if f.fixed > 0 {
		n = f.fixed
	}
	vals := make([]Value, n)
	for i := range vals {
		vals[i] = defaultElement(f.proxy, inst, i)
	}
	inst.Set(f.Name(), ListValue(vals...))
}

func (f *ListField) rename(name string) Field {
	c := *f
	c.proxy = f.proxy.rename(name)
	return &c
}

// SizeListField decodes elements until a byte budget is consumed.
type SizeListField struct {
	wrapped
	length LengthFunc
}

// MetaSizeList decodes proxy elements from the next length(inst) bytes.
// Packing writes however many elements are present; its size is their
// encoded size, so a length field ahead of it should be a ComputePack
// over this field's Size.
func MetaSizeList(proxy Field, length LengthFunc) *SizeListField {
	return &SizeListField{wrapped: wrapped{proxy}, length: length}
}

func (f *SizeListField) Kind() Kind { return KindRepetition }

func (f *SizeListField) Size(inst *Instance) (int, error) {
	return sizeElements(f.proxy, inst, inst.List(f.Name()))
}

func (f *SizeListField) Unpack(s *Stream, inst *Instance) error {
	n, err := f.length(inst)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("negative byte length %d", n)
	}
	start, err := s.Tell()
	if err != nil {
		return err
	}
	data, err := s.Read(f.Name(), n)
	if err != nil {
		return err
	}

	sub := s.sub(bytes.NewReader(data), start)
	var vals []Value
	for i := 0; ; i++ {
		pos, err := sub.Tell()
		if err != nil {
			return err
		}
		if pos-start >= int64(n) {
			break
		}
		v, err := unpackElement(f.proxy, sub, inst, i)
		if err != nil {
			inst.Set(f.Name(), ListValue(vals...))
			return wrapIndex(i, err)
		}
		vals = append(vals, v)
		after, err := sub.Tell()
		if err != nil {
			return err
		}
		if after == pos {
			return wrapIndex(i, fmt.Errorf("element consumed no bytes"))
		}
	}
	inst.Set(f.Name(), ListValue(vals...))
	return nil
}

func (f *SizeListField) Pack(s *Stream, inst *Instance) error {
	for i, v := range inst.List(f.Name()) {
		if err := packElement(f.proxy, s, inst, i, v); err != nil {
			return wrapIndex(i, err)
		}
	}
	return nil
}

func (f *SizeListField) StoreDefault(inst *Instance) {
	inst.Set(f.Name(), ListValue())
}

func (f *SizeListField) rename(name string) Field {
	c := *f
	c.proxy = f.proxy.rename(name)
	return &c
}

// Record proxies produce independent child instances whose parent is the
// list's instance. Other proxies run in an element scope and yield the
// value they store.

func unpackElement(p Field, s *Stream, parent *Instance, i int) (Value, error) {
	if rec, ok := p.(*Record); ok {
		child := rec.newChild(parent)
		child.index = i
		err := rec.UnpackInstance(s, child)
		return RecordValue(child), err
	}
	scope := newScope(parent, i)
	err := p.Unpack(s, scope)
	return scope.Get(p.Name()), err
}

func packElement(p Field, s *Stream, parent *Instance, i int, v Value) error {
	if rec, ok := p.(*Record); ok {
		child := v.Record()
		if child == nil {
			return &EncodingError{Field: rec.name, Value: v.Kind(), Reason: "list element is not a record"}
		}
		return rec.PackInstance(s, child)
	}
	scope := newScope(parent, i)
	scope.Set(p.Name(), v)
	return p.Pack(s, scope)
}

func sizeElements(p Field, parent *Instance, elems []Value) (int, error) {
	total := 0
	for i, v := range elems {
		var n int
		var err error
		if rec, ok := p.(*Record); ok {
			child := v.Record()
			if child == nil {
				return 0, &EncodingError{Field: rec.name, Value: v.Kind(), Reason: "list element is not a record"}
			}
			n, err = rec.SizeOf(child)
		} else {
			scope := newScope(parent, i)
			scope.Set(p.Name(), v)
			n, err = p.Size(scope)
		}
		if err != nil {
			return 0, wrapIndex(i, err)
		}
		total += n
	}
	return total, nil
}

func defaultElement(p Field, parent *Instance, i int) Value {
	if rec, ok := p.(*Record); ok {
		child := rec.newChild(parent)
		child.index = i
		return RecordValue(child)
	}
	scope := newScope(parent, i)
	p.StoreDefault(scope)
	return scope.Get(p.Name())
}
