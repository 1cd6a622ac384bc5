package processor

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dshills/chordpack/internal/input/key"
	"github.com/dshills/chordpack/internal/input/keymap"
	"github.com/dshills/chordpack/internal/logging"
)

const maxArgument = math.MaxInt32

// Status receives the text shown while a sequence is pending and the
// messages produced when one ends.
type Status interface {
	SetStatus(text string)
}

// StatusFunc adapts a function to Status.
type StatusFunc func(text string)

// SetStatus calls f(text).
func (f StatusFunc) SetStatus(text string) { f(text) }

// Option configures a Processor.
type Option func(*Processor)

// WithCache parses the settings' keys through c.
func WithCache(c *key.Cache) Option {
	return func(p *Processor) {
		p.cache = c
	}
}

// WithLogger sets the processor's logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Processor) {
		p.log = l
	}
}

// WithStatus sets the status sink.
func WithStatus(s Status) Option {
	return func(p *Processor) {
		p.status = s
	}
}

// WithDefaultAction sets the action run for printable keys that no map
// binds, typically self-insert.
func WithDefaultAction(a keymap.Action) Option {
	return func(p *Processor) {
		p.defaultAction = a
	}
}

// WithMetrics records outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// argument is the numeric argument being entered or attached.
type argument struct {
	active bool // still accepting digits
	set    bool
	digits bool
	minus  bool
	value  int
	base   int
	keys   key.Sequence
}

// Processor resolves a stream of key events against an ordered set of
// keymaps. It keeps state between calls and must be driven from a single
// goroutine.
type Processor struct {
	settings Settings
	keys     keys
	cache    *key.Cache
	log      *logging.Logger
	status   Status
	metrics  *Metrics

	minor  []*keymap.KeyMap
	local  *keymap.KeyMap
	global *keymap.KeyMap

	maps    []*keymap.KeyMap
	cursors []*keymap.Cursor

	sticky   bool
	metaNext bool
	sofar    key.Sequence
	arg      argument
	shown    bool

	quoted        func(key.Event)
	report        func(key.Sequence, keymap.Action)
	defaultAction keymap.Action
}

// New creates a processor with no keymaps.
func New(settings Settings, opts ...Option) (*Processor, error) {
	p := &Processor{settings: settings}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = key.NewCache(settings.Platform, p.log)
	}
	k, err := settings.parse(p.cache)
	if err != nil {
		return nil, err
	}
	p.keys = k
	p.log = p.log.WithComponent("keys")
	p.rebuild()
	return p, nil
}

// Settings returns the processor's settings.
func (p *Processor) Settings() Settings { return p.settings }

// AddMinorKeyMap activates a minor-mode keymap. Minor maps are consulted
// in activation order, before the local and global maps.
func (p *Processor) AddMinorKeyMap(km *keymap.KeyMap) {
	for _, m := range p.minor {
		if m == km {
			return
		}
	}
	p.minor = append(p.minor, km)
	p.rebuild()
}

// RemoveMinorKeyMap deactivates a minor-mode keymap. It reports whether
// the map was active.
func (p *Processor) RemoveMinorKeyMap(km *keymap.KeyMap) bool {
	for i, m := range p.minor {
		if m == km {
			p.minor = append(p.minor[:i], p.minor[i+1:]...)
			p.rebuild()
			return true
		}
	}
	return false
}

// ClearMinorKeyMaps deactivates every minor-mode keymap.
func (p *Processor) ClearMinorKeyMaps() {
	p.minor = nil
	p.rebuild()
}

// SetLocalKeyMap sets the keymap consulted after the minor modes.
func (p *Processor) SetLocalKeyMap(km *keymap.KeyMap) {
	p.local = km
	p.rebuild()
}

// ClearLocalKeyMap removes the local keymap.
func (p *Processor) ClearLocalKeyMap() { p.SetLocalKeyMap(nil) }

// SetGlobalKeyMap sets the keymap consulted last. Sticky meta follows the
// global map's bindings.
func (p *Processor) SetGlobalKeyMap(km *keymap.KeyMap) {
	p.global = km
	p.rebuild()
}

// ClearGlobalKeyMap removes the global keymap.
func (p *Processor) ClearGlobalKeyMap() { p.SetGlobalKeyMap(nil) }

// KeyMaps returns the active keymaps in priority order.
func (p *Processor) KeyMaps() []*keymap.KeyMap {
	out := make([]*keymap.KeyMap, len(p.maps))
	copy(out, p.maps)
	return out
}

// StickyMeta reports whether the sticky meta key is active.
func (p *Processor) StickyMeta() bool { return p.sticky }

func (p *Processor) rebuild() {
	p.maps = p.maps[:0]
	p.maps = append(p.maps, p.minor...)
	if p.local != nil {
		p.maps = append(p.maps, p.local)
	}
	if p.global != nil {
		p.maps = append(p.maps, p.global)
	}

	p.cursors = make([]*keymap.Cursor, len(p.maps))
	for i, km := range p.maps {
		p.cursors[i] = km.NewCursor()
	}

	p.sticky = p.global != nil && p.global.HasRootPrefix(p.keys.metaStick)

	if p.log.Enabled(logging.LevelDebug) {
		for _, c := range p.Conflicts() {
			p.log.Debug("%s is bound in %s; %s wins", c.Keys, strings.Join(c.Maps, ", "), c.Maps[0])
		}
	}
	p.reset("")
}

// Conflict is a sequence bound in more than one active keymap.
type Conflict struct {
	Keys key.Sequence
	// Maps names the keymaps binding Keys, highest priority first.
	Maps []string
}

// Conflicts lists sequences bound in more than one active keymap. Only the
// first map's binding is ever dispatched.
func (p *Processor) Conflicts() []Conflict {
	byKeys := make(map[string]*Conflict)
	for _, km := range p.maps {
		for _, b := range km.Bindings() {
			text := b.Keys.String()
			c, ok := byKeys[text]
			if !ok {
				c = &Conflict{Keys: b.Keys}
				byKeys[text] = c
			}
			c.Maps = append(c.Maps, km.Name())
		}
	}

	var out []Conflict
	for _, c := range byKeys {
		if len(c.Maps) > 1 {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Keys.String() < out[j].Keys.String()
	})
	return out
}

// State returns the current state.
func (p *Processor) State() State {
	switch {
	case p.arg.active:
		return PendingArgument
	case len(p.sofar) > 0 || p.metaNext:
		return PendingPrefix
	default:
		return Idle
	}
}

// PendingText returns the text shown while a sequence is pending.
func (p *Processor) PendingText() string {
	var parts []string
	if len(p.arg.keys) > 0 {
		parts = append(parts, p.arg.keys.Emacs(p.settings.Platform))
	}
	if len(p.sofar) > 0 {
		parts = append(parts, p.sofar.Emacs(p.settings.Platform))
	}
	if p.metaNext {
		parts = append(parts, "M-")
	}
	return strings.Join(parts, " ")
}

// GetNextKeystroke arranges for the next event to be passed to fn instead
// of being resolved.
func (p *Processor) GetNextKeystroke(fn func(key.Event)) {
	p.quoted = fn
}

// ReportNext arranges for the next complete sequence to be passed to fn
// instead of dispatched. The action is nil when the sequence is unbound.
func (p *Processor) ReportNext(fn func(key.Sequence, keymap.Action)) {
	p.report = fn
}

// QuotedInsert returns an action that passes the next event to insert with
// the argument of the quoting keystroke.
func (p *Processor) QuotedInsert(name string, insert func(ev key.Event, count int)) keymap.Action {
	return keymap.NewAction(name, func(inv keymap.Invocation) {
		p.setStatus(inv.Keys.Emacs(p.settings.Platform) + "-")
		count := inv.Count
		p.GetNextKeystroke(func(ev key.Event) {
			insert(ev, count)
		})
	})
}

// DescribeKey returns an action that reports the next sequence to describe.
func (p *Processor) DescribeKey(name string, describe func(keys key.Sequence, action keymap.Action)) keymap.Action {
	return keymap.NewAction(name, func(keymap.Invocation) {
		p.setStatus("Describe key: ")
		p.ReportNext(describe)
	})
}

// Process resolves one key-down event.
func (p *Processor) Process(ev key.Event) Result {
	start := time.Now()
	res := p.process(ev)
	p.metrics.Record(res.Outcome, time.Since(start))
	return res
}

func (p *Processor) process(ev key.Event) Result {
	k := key.Decode(p.settings.Platform, ev)

	// Abort wins over everything, pending quoted inserts included.
	if k == p.keys.abort {
		p.quoted = nil
		p.report = nil
		p.reset("Quit")
		return Result{Outcome: Aborted, Keys: key.Sequence{k}}
	}

	if k.IsModifierKey() {
		return Result{Outcome: Propagate, Keys: key.Sequence{k}}
	}

	if fn := p.quoted; fn != nil {
		p.quoted = nil
		p.reset("")
		fn(ev)
		return Result{Outcome: Quoted, Keys: key.Sequence{k}}
	}

	// M-ESC ESC quits even when no map binds it.
	if p.sticky && !p.metaNext && k == p.keys.sticky &&
		len(p.sofar) == 1 && p.sofar[0] == p.keys.metaStick {
		if res := p.walk(ev, k); res.Outcome != Undefined {
			return res
		}
		p.reset("Quit")
		return Result{Outcome: Aborted, Keys: key.Sequence{p.keys.metaStick, k}}
	}

	if p.sticky && !p.metaNext && k == p.keys.sticky {
		p.arg.active = false
		p.metaNext = true
		p.show()
		return Result{Outcome: Pending, Keys: p.sofar.Clone()}
	}
	if p.metaNext {
		p.metaNext = false
		k = k.WithMods(key.ModAlt)
	}

	if len(p.sofar) == 0 {
		if k == p.keys.universal {
			p.universal(k)
			return Result{Outcome: Pending, Keys: p.arg.keys.Clone()}
		}
		if !p.arg.active && p.ctrlDigit(k) && !p.bound(k) {
			p.arg = argument{active: true, set: true, base: 1}
		}
		if p.arg.active {
			if p.fold(k) {
				p.show()
				return Result{Outcome: Pending, Keys: p.arg.keys.Clone()}
			}
			p.arg.active = false
		}
	}

	return p.walk(ev, k)
}

// ctrlDigit reports whether k is a digit or minus typed with Ctrl.
func (p *Processor) ctrlDigit(k key.Keystroke) bool {
	return k.Mods == key.ModCtrl && (k.Digit() >= 0 || k.IsMinus())
}

// bound reports whether any active map has a binding starting with k.
func (p *Processor) bound(k key.Keystroke) bool {
	for _, km := range p.maps {
		if km.HasRootPrefix(k) {
			return true
		}
	}
	return false
}

func (p *Processor) universal(k key.Keystroke) {
	switch {
	case !p.arg.active:
		p.arg = argument{active: true, set: true, base: p.settings.DefaultArgument}
	case !p.arg.digits && !p.arg.minus && p.arg.base <= maxArgument/p.settings.DefaultArgument:
		// C-U C-U multiplies
		p.arg.base *= p.settings.DefaultArgument
	}
	p.arg.keys = append(p.arg.keys, k)
	p.show()
}

// fold adds k to the argument being entered and reports whether it was
// taken.
func (p *Processor) fold(k key.Keystroke) bool {
	if k.Mods != 0 && k.Mods != key.ModCtrl {
		return false
	}
	if d := k.Digit(); d >= 0 {
		if p.arg.value > (maxArgument-d)/10 {
			p.log.Debug("argument overflow, ignoring %s", k)
		} else {
			p.arg.value = p.arg.value*10 + d
		}
		p.arg.digits = true
		p.arg.keys = append(p.arg.keys, k)
		return true
	}
	if k.IsMinus() && !p.arg.digits && !p.arg.minus {
		p.arg.minus = true
		p.arg.keys = append(p.arg.keys, k)
		return true
	}
	return false
}

// count returns the argument passed to actions.
func (p *Processor) count() int {
	if !p.arg.set {
		return 1
	}
	v := p.arg.base
	if p.arg.digits {
		v = p.arg.value
	}
	if p.arg.minus {
		v = -v
	}
	return v
}

// walk feeds k to every cursor and acts on the combined answer.
func (p *Processor) walk(ev key.Event, k key.Keystroke) Result {
	p.sofar = append(p.sofar, k)

	processed, unknown := 0, 0
	var found keymap.Action
	for _, c := range p.cursors {
		if c.Add(k) {
			processed++
		}
		if c.IsUnknown() {
			unknown++
		} else if found == nil && c.Action() != nil {
			found = c.Action()
		}
	}

	keys := p.sofar.Clone()
	if found != nil {
		return p.dispatch(ev, k, keys, found)
	}

	if unknown == len(p.cursors) {
		if len(keys) == 1 {
			return p.notOurs(ev, k, keys)
		}
		text := keys.Emacs(p.settings.Platform)
		err := &UnknownSequenceError{Keys: keys, Text: text}
		p.log.Debug("%s", err)
		if fn := p.report; fn != nil {
			p.report = nil
			p.reset("")
			fn(keys, nil)
			return Result{Outcome: Described, Keys: keys}
		}
		p.reset(err.Error())
		return Result{Outcome: Undefined, Keys: keys, Err: err}
	}

	if processed == 0 {
		return p.notOurs(ev, k, keys)
	}
	p.show()
	return Result{Outcome: Pending, Keys: keys}
}

func (p *Processor) invocation(ev key.Event, k key.Keystroke, keys key.Sequence) keymap.Invocation {
	return keymap.Invocation{
		Keys:      keys,
		Event:     ev,
		Count:     p.count(),
		HasCount:  p.arg.set,
		Printable: len(keys) == 1 && ev.IsPrintable() && k.Mods.Without(key.ModShift).IsEmpty(),
	}
}

func (p *Processor) dispatch(ev key.Event, k key.Keystroke, keys key.Sequence, action keymap.Action) Result {
	inv := p.invocation(ev, k, keys)
	if fn := p.report; fn != nil {
		p.report = nil
		p.reset("")
		fn(keys, action)
		return Result{Outcome: Described, Keys: keys, Action: action}
	}

	p.reset("")
	p.log.Debug("%s runs %s (count %d)", keys, action.Name(), inv.Count)
	action.Invoke(inv)
	return Result{Outcome: Dispatched, Keys: keys, Action: action, Count: inv.Count}
}

// notOurs handles a first keystroke no map engages with.
func (p *Processor) notOurs(ev key.Event, k key.Keystroke, keys key.Sequence) Result {
	if fn := p.report; fn != nil {
		p.report = nil
		p.reset("")
		fn(keys, p.printableDefault(ev, k))
		return Result{Outcome: Described, Keys: keys}
	}
	if a := p.printableDefault(ev, k); a != nil {
		return p.dispatch(ev, k, keys, a)
	}
	p.reset("")
	return Result{Outcome: Propagate, Keys: keys}
}

func (p *Processor) printableDefault(ev key.Event, k key.Keystroke) keymap.Action {
	if p.defaultAction == nil || !ev.IsPrintable() || !k.Mods.Without(key.ModShift).IsEmpty() {
		return nil
	}
	return p.defaultAction
}

// Reset abandons any sequence or argument in progress.
func (p *Processor) Reset() {
	p.reset("")
}

func (p *Processor) reset(message string) {
	for _, c := range p.cursors {
		c.Reset()
	}
	p.sofar = nil
	p.arg = argument{}
	p.metaNext = false

	switch {
	case message != "":
		p.setStatus(message)
	case p.shown:
		p.setStatus("")
	}
}

func (p *Processor) show() {
	p.setStatus(p.PendingText())
}

func (p *Processor) setStatus(text string) {
	if p.status == nil {
		return
	}
	p.status.SetStatus(text)
	p.shown = text != ""
}
