package keymap

import (
	"fmt"
	"sort"

	"github.com/dshills/chordpack/internal/input/key"
	"github.com/dshills/chordpack/internal/logging"
)

// node is one level of the trie. A node holds either children or an
// action, never both.
type node struct {
	children map[key.Keystroke]*node
	action   Action
}

func (n *node) leaf() bool { return n.action != nil }

// DuplicatePrefixError reports a binding that would shadow or be shadowed
// by an existing one.
type DuplicatePrefixError struct {
	Map      string
	Keys     key.Sequence
	Existing key.Sequence
}

func (e *DuplicatePrefixError) Error() string {
	if e.Keys.Equal(e.Existing) {
		return fmt.Sprintf("keymap %s: %s is already bound", e.Map, e.Keys)
	}
	return fmt.Sprintf("keymap %s: %s conflicts with existing binding %s", e.Map, e.Keys, e.Existing)
}

// KeyMap is a trie from keystroke sequences to actions.
//
// A KeyMap is populated once and then only read. Walking it through
// cursors is safe from several goroutines; Define is not safe to call
// concurrently with anything else.
type KeyMap struct {
	name    string
	cache   *key.Cache
	strict  bool
	replace bool
	log     *logging.Logger

	root     *node
	bindings int
	cursor   Cursor
}

// Option configures a KeyMap.
type Option func(*KeyMap)

// WithCache parses accelerator text through c. Without one a private
// cache for the default platform is used.
func WithCache(c *key.Cache) Option {
	return func(km *KeyMap) {
		km.cache = c
	}
}

// WithStrict makes Define fail with a *DuplicatePrefixError instead of
// dropping bindings that share a prefix with the new one.
func WithStrict(strict bool) Option {
	return func(km *KeyMap) {
		km.strict = strict
	}
}

// WithReplace controls whether binding an already bound sequence replaces
// its action (the default) or fails.
func WithReplace(replace bool) Option {
	return func(km *KeyMap) {
		km.replace = replace
	}
}

// WithLogger sets the logger used to trace definitions.
func WithLogger(l *logging.Logger) Option {
	return func(km *KeyMap) {
		km.log = l
	}
}

// New creates an empty keymap.
func New(name string, opts ...Option) *KeyMap {
	km := &KeyMap{
		name:    name,
		replace: true,
		root:    &node{},
	}
	for _, opt := range opts {
		opt(km)
	}
	if km.cache == nil {
		km.cache = key.NewCache(key.DefaultPlatform(), km.log)
	}
	km.cursor = Cursor{km: km, cur: km.root}
	return km
}

// Name returns the keymap name.
func (km *KeyMap) Name() string { return km.name }

// Strict reports whether prefix conflicts are errors.
func (km *KeyMap) Strict() bool { return km.strict }

// Cache returns the accelerator cache the keymap parses with.
func (km *KeyMap) Cache() *key.Cache { return km.cache }

// Len returns the number of bindings.
func (km *KeyMap) Len() int { return km.bindings }

// Define binds accelerator text such as "C-X C-S" to action.
func (km *KeyMap) Define(spec string, action Action) error {
	seq, err := km.cache.Parse(spec)
	if err != nil {
		return err
	}
	return km.DefineSequence(seq, action)
}

// CreateKeybinding binds every accelerator in specs to action.
func (km *KeyMap) CreateKeybinding(action Action, specs ...string) error {
	for _, spec := range specs {
		if err := km.Define(spec, action); err != nil {
			return err
		}
	}
	return nil
}

// DefineSequence binds seq to action. Outside strict mode a binding that is
// a prefix of seq, or that seq is a prefix of, is removed first.
func (km *KeyMap) DefineSequence(seq key.Sequence, action Action) error {
	if len(seq) == 0 {
		return fmt.Errorf("keymap %s: %w", km.name, key.ErrEmptySpec)
	}
	if action == nil {
		return fmt.Errorf("keymap %s: nil action for %s", km.name, seq)
	}

	n := km.root
	for i, k := range seq[:len(seq)-1] {
		child := n.children[k]
		switch {
		case child == nil:
			child = &node{}
			if n.children == nil {
				n.children = make(map[key.Keystroke]*node)
			}
			n.children[k] = child
		case child.leaf():
			existing := seq[:i+1].Clone()
			if km.strict {
				return &DuplicatePrefixError{Map: km.name, Keys: seq.Clone(), Existing: existing}
			}
			km.log.Debug("keymap %s: %s replaces %s (%s)", km.name, seq, existing, child.action.Name())
			child.action = nil
			km.bindings--
		}
		n = child
	}

	last := seq[len(seq)-1]
	if existing := n.children[last]; existing != nil {
		if !existing.leaf() {
			if km.strict {
				below := existing.first(seq.Clone())
				return &DuplicatePrefixError{Map: km.name, Keys: seq.Clone(), Existing: below}
			}
			dropped := existing.count()
			km.log.Debug("keymap %s: %s replaces %d longer bindings", km.name, seq, dropped)
			km.bindings -= dropped
		} else {
			if !km.replace {
				return &DuplicatePrefixError{Map: km.name, Keys: seq.Clone(), Existing: seq.Clone()}
			}
			km.bindings--
		}
	}
	if n.children == nil {
		n.children = make(map[key.Keystroke]*node)
	}
	n.children[last] = &node{action: action}
	km.bindings++
	return nil
}

// count returns the number of bindings at or below n.
func (n *node) count() int {
	if n.leaf() {
		return 1
	}
	total := 0
	for _, c := range n.children {
		total += c.count()
	}
	return total
}

// first returns the lexically first bound sequence below n.
func (n *node) first(prefix key.Sequence) key.Sequence {
	var found []Binding
	n.collect(prefix, &found)
	sortBindings(found)
	if len(found) == 0 {
		return prefix
	}
	return found[0].Keys
}

func (n *node) collect(prefix key.Sequence, out *[]Binding) {
	if n.leaf() {
		*out = append(*out, Binding{Keys: prefix.Clone(), Action: n.action})
		return
	}
	for k, c := range n.children {
		c.collect(append(prefix, k), out)
	}
}

func sortBindings(bs []Binding) {
	sort.Slice(bs, func(i, j int) bool {
		return bs[i].Keys.String() < bs[j].Keys.String()
	})
}

// lookup walks seq from the root and returns the node reached, or nil.
func (km *KeyMap) lookup(seq key.Sequence) *node {
	n := km.root
	for _, k := range seq {
		if n.leaf() {
			return nil
		}
		n = n.children[k]
		if n == nil {
			return nil
		}
	}
	return n
}

// Find returns the action bound to spec, or every action bound below spec
// when it is a prefix. The bool is false when nothing is bound.
func (km *KeyMap) Find(spec string) ([]Action, bool) {
	seq, err := km.cache.Parse(spec)
	if err != nil {
		return nil, false
	}
	return km.FindSequence(seq)
}

// FindSequence is Find for a parsed sequence.
func (km *KeyMap) FindSequence(seq key.Sequence) ([]Action, bool) {
	n := km.lookup(seq)
	if n == nil || (n == km.root && !n.leaf() && len(n.children) == 0) {
		return nil, false
	}
	if n.leaf() {
		return []Action{n.action}, true
	}
	var found []Binding
	n.collect(seq.Clone(), &found)
	if len(found) == 0 {
		return nil, false
	}
	sortBindings(found)
	actions := make([]Action, len(found))
	for i, b := range found {
		actions[i] = b.Action
	}
	return actions, true
}

// Bindings lists every binding sorted by accelerator text.
func (km *KeyMap) Bindings() []Binding {
	var found []Binding
	km.root.collect(nil, &found)
	sortBindings(found)
	return found
}

// HasRootPrefix reports whether any binding starts with k.
func (km *KeyMap) HasRootPrefix(k key.Keystroke) bool {
	_, ok := km.root.children[k]
	return ok
}

// NewCursor returns an independent cursor at the root of the trie.
func (km *KeyMap) NewCursor() *Cursor {
	return &Cursor{km: km, cur: km.root}
}

// Add feeds k to the keymap's built-in cursor. See Cursor.Add.
func (km *KeyMap) Add(k key.Keystroke) bool { return km.cursor.Add(k) }

// Reset returns the built-in cursor to the root.
func (km *KeyMap) Reset() { km.cursor.Reset() }

// IsUnknown reports whether the built-in cursor has fallen off the trie.
func (km *KeyMap) IsUnknown() bool { return km.cursor.IsUnknown() }

// Action returns the action the built-in cursor reached, or nil.
func (km *KeyMap) Action() Action { return km.cursor.Action() }

// Cursor tracks a partial match through a KeyMap.
type Cursor struct {
	km    *KeyMap
	cur   *node
	depth int
	dead  bool
	found Action
}

// Add advances the cursor by k and reports whether the keymap took part in
// the sequence. A miss on the first keystroke returns false: the map never
// engaged. A miss later in the sequence marks the cursor unknown and still
// returns true. Reaching a binding records its action.
func (c *Cursor) Add(k key.Keystroke) bool {
	if c.dead {
		return c.depth > 0
	}
	if c.found != nil {
		// a complete binding takes no further keys
		c.dead = true
		return true
	}
	next := c.cur.children[k]
	if next == nil {
		c.dead = true
		return c.depth > 0
	}
	c.depth++
	if next.leaf() {
		c.found = next.action
		c.cur = c.km.root
		return true
	}
	c.cur = next
	return true
}

// Reset returns the cursor to the root.
func (c *Cursor) Reset() {
	c.cur = c.km.root
	c.depth = 0
	c.dead = false
	c.found = nil
}

// IsUnknown reports whether the sequence fed so far matches nothing.
func (c *Cursor) IsUnknown() bool { return c.dead }

// Action returns the action reached, or nil.
func (c *Cursor) Action() Action { return c.found }

// Depth returns the number of keystrokes matched so far.
func (c *Cursor) Depth() int { return c.depth }

// KeyMap returns the keymap the cursor walks.
func (c *Cursor) KeyMap() *KeyMap { return c.km }
