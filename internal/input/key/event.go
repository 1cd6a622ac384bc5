package key

import (
	"fmt"
	"time"
	"unicode"
)

// Event represents a single raw key-down as delivered by the terminal or
// windowing system.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events, in the case typed.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewEvent creates a key event with the current timestamp.
func NewEvent(key Key, r rune, mods Modifier) Event {
	return Event{
		Key:       key,
		Rune:      r,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return NewEvent(KeyRune, r, mods)
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return NewEvent(key, 0, mods)
}

// EventFor returns an event that decodes to k. It is used to replay
// keystrokes, so letters are lower case unless Shift is held.
func EventFor(k Keystroke) Event {
	if k.Key != KeyRune {
		return NewSpecialEvent(k.Key, k.Mods)
	}
	r := k.Rune
	if !k.Mods.HasShift() {
		r = unicode.ToLower(r)
	}
	return NewRuneEvent(r, k.Mods)
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsChar returns true if this is a printable character.
func (e Event) IsChar() bool {
	return e.IsRune() && unicode.IsPrint(e.Rune)
}

// IsModified returns true if any modifier is pressed.
// For character events, Shift alone is not considered modified
// (since Shift changes the character itself).
func (e Event) IsModified() bool {
	if e.IsRune() {
		return e.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0
	}
	return e.Modifiers != ModNone
}

// IsPrintable reports whether the event would insert its character: a
// printable rune or the space bar with at most Shift held.
func (e Event) IsPrintable() bool {
	if e.Key == KeySpace {
		return e.Modifiers&(ModCtrl|ModAlt|ModMeta) == 0
	}
	return e.IsChar() && !e.IsModified()
}

// Text returns the character the event inserts, or 0.
func (e Event) Text() rune {
	switch {
	case e.Key == KeySpace:
		return ' '
	case e.IsRune():
		return e.Rune
	}
	return 0
}

// String returns the PC accelerator text of the event.
func (e Event) String() string {
	return Decode(PC, e).String()
}

// Equals returns true if two events represent the same key press.
// Timestamps are not compared.
func (e Event) Equals(other Event) bool {
	return e.Key == other.Key &&
		e.Rune == other.Rune &&
		e.Modifiers == other.Modifiers
}

// WithModifier returns a copy with the specified modifier added.
func (e Event) WithModifier(mod Modifier) Event {
	e.Modifiers = e.Modifiers.With(mod)
	return e
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Key: %s, Rune: %q, Modifiers: %s}",
		e.Key.String(), e.Rune, e.Modifiers.String())
}
