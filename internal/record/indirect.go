package record

import "fmt"

// PointerField reads or writes its proxy at an absolute offset and then
// returns to where it was.
type PointerField struct {
	wrapped
	offset OffsetFunc
}

// Pointer delegates to proxy at offset(inst). Its size is the proxy's, so
// the bytes written out of line still count toward the record total.
func Pointer(proxy Field, offset OffsetFunc) *PointerField {
	return &PointerField{wrapped: wrapped{proxy}, offset: offset}
}

func (f *PointerField) Kind() Kind { return KindIndirection }

func (f *PointerField) Unpack(s *Stream, inst *Instance) error {
	return f.at(s, inst, func() error { return f.proxy.Unpack(s, inst) })
}

func (f *PointerField) Pack(s *Stream, inst *Instance) error {
	return f.at(s, inst, func() error { return f.proxy.Pack(s, inst) })
}

func (f *PointerField) at(s *Stream, inst *Instance, fn func() error) error {
	off, err := f.offset(inst)
	if err != nil {
		return err
	}
	if off < 0 {
		return fmt.Errorf("negative offset %d", off)
	}
	saved, err := s.Tell()
	if err != nil {
		return err
	}
	if err := s.SeekTo(off); err != nil {
		return err
	}
	ferr := fn()
	if err := s.SeekTo(saved); err != nil && ferr == nil {
		ferr = err
	}
	return ferr
}

func (f *PointerField) rename(name string) Field {
	return Pointer(f.proxy.rename(name), f.offset)
}

// ReadAheadField peeks at its proxy without consuming bytes.
type ReadAheadField struct {
	wrapped
}

// ReadAhead unpacks proxy at the current position and rewinds. It
// occupies no bytes and writes nothing when packing.
func ReadAhead(proxy Field) *ReadAheadField {
	return &ReadAheadField{wrapped{proxy}}
}

func (f *ReadAheadField) Kind() Kind { return KindIndirection }

func (f *ReadAheadField) Size(*Instance) (int, error) { return 0, nil }

func (f *ReadAheadField) Unpack(s *Stream, inst *Instance) error {
	saved, err := s.Tell()
	if err != nil {
		return err
	}
	ferr := f.proxy.Unpack(s, inst)
	if err := s.SeekTo(saved); err != nil && ferr == nil {
		ferr = err
	}
	return ferr
}

func (f *ReadAheadField) Pack(*Stream, *Instance) error { return nil }

func (f *ReadAheadField) rename(name string) Field {
	return ReadAhead(f.proxy.rename(name))
}
