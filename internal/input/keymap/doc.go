// Package keymap maps keystroke sequences to actions.
//
// A KeyMap is a trie whose levels are keyed by key.Keystroke. Interior
// nodes continue a sequence and leaves hold an Action:
//
//	km := keymap.New("global", keymap.WithCache(cache))
//	km.Define("C-X C-S", save)
//	km.Define("C-X C-F", find)
//
// A Cursor walks the trie one keystroke at a time. Add reports whether the
// map took part in the sequence: a miss on the first keystroke returns
// false, a miss later marks the cursor unknown and returns true. The
// processor package drives several cursors in lock-step.
//
// # Conflicts
//
// A binding that is a prefix of another makes the longer one unreachable.
// By default Define removes the shorter or longer bindings it conflicts
// with. A strict keymap returns a *DuplicatePrefixError instead.
//
// # Files
//
// Keymap files are TOML or JSON:
//
//	name = "global"
//	strict = true
//
//	[[bindings]]
//	keys = "C-X C-S"
//	action = "save-buffer"
//	description = "Save the current buffer"
//
// Action names are resolved through a Commands table.
package keymap
