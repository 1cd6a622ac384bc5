package keymap

import (
	"github.com/dshills/chordpack/internal/input/key"
)

// Invocation carries the context a dispatched action runs with.
type Invocation struct {
	// Keys is the complete sequence that selected the action.
	Keys key.Sequence

	// Event is the raw event of the final keystroke.
	Event key.Event

	// Count is the numeric argument, 1 when none was entered.
	Count int

	// HasCount reports whether a numeric argument was entered.
	HasCount bool

	// Printable reports whether the final keystroke was a plain printable
	// character, letting self-insert actions tell typing from commands.
	Printable bool
}

// Action is the target of a binding.
type Action interface {
	Name() string
	Invoke(inv Invocation)
}

type funcAction struct {
	name string
	fn   func(Invocation)
}

func (a *funcAction) Name() string { return a.name }

func (a *funcAction) Invoke(inv Invocation) {
	if a.fn != nil {
		a.fn(inv)
	}
}

// NewAction returns an Action that calls fn. A nil fn does nothing.
func NewAction(name string, fn func(Invocation)) Action {
	return &funcAction{name: name, fn: fn}
}

// Binding is one entry of a keymap listing.
type Binding struct {
	Keys   key.Sequence
	Action Action
}

// BindingDef is a binding as written in a keymap file.
type BindingDef struct {
	// Keys is the accelerator text, e.g. "C-X C-S" or "Ctrl+S".
	Keys string `toml:"keys" json:"keys"`

	// Action names a command registered in Commands.
	Action string `toml:"action" json:"action"`

	// Description documents the binding.
	Description string `toml:"description,omitempty" json:"description,omitempty"`

	// Category groups bindings for display.
	Category string `toml:"category,omitempty" json:"category,omitempty"`
}

// BindingCategory is one heading of a bindings listing.
type BindingCategory struct {
	Name     string
	Bindings []BindingDef
}

// Categories groups the bindings of files under their categories in
// first-seen order. A binding without a category is listed under the name
// of the file it came from.
func Categories(files ...*File) []BindingCategory {
	index := make(map[string]int)
	var out []BindingCategory
	for _, f := range files {
		for _, b := range f.Bindings {
			name := b.Category
			if name == "" {
				name = f.Name
			}
			i, ok := index[name]
			if !ok {
				i = len(out)
				index[name] = i
				out = append(out, BindingCategory{Name: name})
			}
			out[i].Bindings = append(out[i].Bindings, b)
		}
	}
	return out
}
