package record

// wrapped is embedded by fields that own a single proxy and delegate to it.
type wrapped struct {
	proxy Field
}

func (w wrapped) Name() string                              { return w.proxy.Name() }
func (w wrapped) Size(inst *Instance) (int, error)          { return w.proxy.Size(inst) }
func (w wrapped) Unpack(s *Stream, inst *Instance) error    { return w.proxy.Unpack(s, inst) }
func (w wrapped) Pack(s *Stream, inst *Instance) error      { return w.proxy.Pack(s, inst) }
func (w wrapped) StoreDefault(inst *Instance)               { w.proxy.StoreDefault(inst) }
func (w wrapped) proxies() []Field                          { return []Field{w.proxy} }
func (w wrapped) direction() direction                      { return dirBoth }
func (w wrapped) check() error                              { return nil }

// Proxy returns the wrapped field.
func (w wrapped) Proxy() Field { return w.proxy }

// WrapField delegates everything to its proxy.
type WrapField struct {
	wrapped
}

// Wrap returns a transparent proxy around f.
func Wrap(f Field) *WrapField {
	return &WrapField{wrapped{f}}
}

func (f *WrapField) Kind() Kind { return f.proxy.Kind() }

func (f *WrapField) rename(name string) Field {
	return Wrap(f.proxy.rename(name))
}

// IfElseField selects one of two proxies with a predicate.
type IfElseField struct {
	pred Predicate
	then Field
	els  Field
}

// IfElse unpacks and packs then when pred holds and els otherwise. Both
// branches store under then's name.
func IfElse(pred Predicate, then, els Field) *IfElseField {
	if els == nil {
		els = NoOp(then.Name())
	} else if els.Name() != then.Name() {
		els = els.rename(then.Name())
	}
	return &IfElseField{pred: pred, then: then, els: els}
}

// If is IfElse with a zero-width else branch.
func If(pred Predicate, then Field) *IfElseField {
	return IfElse(pred, then, nil)
}

func (f *IfElseField) choose(inst *Instance) (Field, error) {
	ok, err := f.pred(inst)
	if err != nil {
		return nil, err
	}
	if ok {
		return f.then, nil
	}
	return f.els, nil
}

func (f *IfElseField) Name() string { return f.then.Name() }
func (f *IfElseField) Kind() Kind   { return KindConditional }

func (f *IfElseField) Size(inst *Instance) (int, error) {
	p, err := f.choose(inst)
	if err != nil {
		return 0, err
	}
	return p.Size(inst)
}

func (f *IfElseField) Unpack(s *Stream, inst *Instance) error {
	p, err := f.choose(inst)
	if err != nil {
		return err
	}
	return p.Unpack(s, inst)
}

func (f *IfElseField) Pack(s *Stream, inst *Instance) error {
	p, err := f.choose(inst)
	if err != nil {
		return err
	}
	return p.Pack(s, inst)
}

// StoreDefault stores the default of the branch the predicate selects
// against the partially defaulted instance, or of then if it cannot be
// evaluated yet.
func (f *IfElseField) StoreDefault(inst *Instance) {
	p, err := f.choose(inst)
	if err != nil {
		p = f.then
	}
	p.StoreDefault(inst)
}

func (f *IfElseField) rename(name string) Field {
	return &IfElseField{pred: f.pred, then: f.then.rename(name), els: f.els.rename(name)}
}

func (f *IfElseField) proxies() []Field     { return []Field{f.then, f.els} }
func (f *IfElseField) direction() direction { return dirBoth }
func (f *IfElseField) check() error         { return nil }

// SwitchField selects a proxy by a key computed from the instance.
type SwitchField[K comparable] struct {
	named
	key   func(inst *Instance) (K, error)
	cases map[K]Field
	def   Field
}

// Switch selects cases[key(inst)], falling back to def (a NoOp when nil).
// Every branch is renamed to name.
func Switch[K comparable](name string, key func(inst *Instance) (K, error), cases map[K]Field, def Field) *SwitchField[K] {
	renamed := make(map[K]Field, len(cases))
	for k, f := range cases {
		if f.Name() != name {
			f = f.rename(name)
		}
		renamed[k] = f
	}
	if def == nil {
		def = NoOp(name)
	} else if def.Name() != name {
		def = def.rename(name)
	}
	return &SwitchField[K]{named: named{name}, key: key, cases: renamed, def: def}
}

func (f *SwitchField[K]) choose(inst *Instance) (Field, error) {
	k, err := f.key(inst)
	if err != nil {
		return nil, err
	}
	if p, ok := f.cases[k]; ok {
		return p, nil
	}
	return f.def, nil
}

func (f *SwitchField[K]) Kind() Kind { return KindConditional }

func (f *SwitchField[K]) Size(inst *Instance) (int, error) {
	p, err := f.choose(inst)
	if err != nil {
		return 0, err
	}
	return p.Size(inst)
}

func (f *SwitchField[K]) Unpack(s *Stream, inst *Instance) error {
	p, err := f.choose(inst)
	if err != nil {
		return err
	}
	return p.Unpack(s, inst)
}

func (f *SwitchField[K]) Pack(s *Stream, inst *Instance) error {
	p, err := f.choose(inst)
	if err != nil {
		return err
	}
	return p.Pack(s, inst)
}

func (f *SwitchField[K]) StoreDefault(inst *Instance) {
	p, err := f.choose(inst)
	if err != nil {
		p = f.def
	}
	p.StoreDefault(inst)
}

func (f *SwitchField[K]) rename(name string) Field {
	return Switch(name, f.key, f.cases, f.def)
}

func (f *SwitchField[K]) proxies() []Field {
	out := make([]Field, 0, len(f.cases)+1)
	for _, p := range f.cases {
		out = append(out, p)
	}
	return append(out, f.def)
}

func (f *SwitchField[K]) direction() direction { return dirBoth }
func (f *SwitchField[K]) check() error         { return nil }

// DirectionField runs its proxy in one direction only.
type DirectionField struct {
	wrapped
	dir direction
}

// UnpackOnly decodes the proxy but writes nothing when packing. Its size is
// zero.
func UnpackOnly(f Field) *DirectionField {
	return &DirectionField{wrapped: wrapped{f}, dir: dirUnpack}
}

// PackOnly encodes the proxy but reads nothing when unpacking.
func PackOnly(f Field) *DirectionField {
	return &DirectionField{wrapped: wrapped{f}, dir: dirPack}
}

func (f *DirectionField) Kind() Kind { return KindConditional }

func (f *DirectionField) Size(inst *Instance) (int, error) {
	if f.dir == dirUnpack {
		return 0, nil
	}
	return f.proxy.Size(inst)
}

func (f *DirectionField) Unpack(s *Stream, inst *Instance) error {
	if f.dir == dirPack {
		return nil
	}
	return f.proxy.Unpack(s, inst)
}

func (f *DirectionField) Pack(s *Stream, inst *Instance) error {
	if f.dir == dirUnpack {
		return nil
	}
	return f.proxy.Pack(s, inst)
}

func (f *DirectionField) rename(name string) Field {
	return &DirectionField{wrapped: wrapped{f.proxy.rename(name)}, dir: f.dir}
}

func (f *DirectionField) direction() direction { return f.dir }
