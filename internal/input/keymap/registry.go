package keymap

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds named keymaps. The application registers the global map,
// local maps and minor-mode maps here and hands them to processors.
type Registry struct {
	mu      sync.RWMutex
	keymaps map[string]*KeyMap
}

// NewRegistry creates an empty keymap registry.
func NewRegistry() *Registry {
	return &Registry{
		keymaps: make(map[string]*KeyMap),
	}
}

// Register adds km under its name, replacing any keymap of the same name.
// It returns the replaced keymap, or nil.
func (r *Registry) Register(km *KeyMap) *KeyMap {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.keymaps[km.Name()]
	r.keymaps[km.Name()] = km
	return old
}

// Unregister removes a keymap from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keymaps, name)
}

// Get returns a keymap by name.
func (r *Registry) Get(name string) (*KeyMap, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	km, ok := r.keymaps[name]
	return km, ok
}

// Names returns the registered keymap names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.keymaps))
	for name := range r.keymaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Commands maps command names to actions. Keymap files refer to actions
// by these names.
type Commands struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewCommands creates an empty command table.
func NewCommands() *Commands {
	return &Commands{
		actions: make(map[string]Action),
	}
}

// Register adds actions by name. Registering a name twice is an error.
func (c *Commands) Register(actions ...Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range actions {
		if _, exists := c.actions[a.Name()]; exists {
			return fmt.Errorf("command %q already registered", a.Name())
		}
		c.actions[a.Name()] = a
	}
	return nil
}

// Lookup returns the action registered under name.
func (c *Commands) Lookup(name string) (Action, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.actions[name]
	return a, ok
}

// Names returns the registered command names in sorted order.
func (c *Commands) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.actions))
	for name := range c.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
