// Package key provides keystrokes and accelerator text for the keystroke
// engine.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Key: a named key (RETURN, F1, PAGEUP) or KeyRune for characters
//   - Modifier: the Shift, Ctrl, Alt and Meta bits
//   - Event: one raw key-down from the terminal or window system
//   - Keystroke: one normalized chord, usable as a map key
//   - Sequence: the keystrokes of a multi-chord binding
//
// # Accelerator Text
//
// Bindings are written the Emacs way, with modifier prefixes in front of
// each key and chords separated by whitespace:
//
//	"C-X C-S"   save
//	"M-X"       execute command
//	"^-G"       Control-G on every platform
//	"S-F3"      Shift-F3
//
// What C- means depends on the Platform: Control on a PC, Command on the
// Mac, where ^- is Control. Use a Cache to parse accelerator text that is
// seen repeatedly.
package key
