// Package processor resolves live key events against a stack of keymaps.
//
// A Processor holds minor-mode keymaps, a local keymap and a global keymap
// and walks a cursor through each of them in lock-step. The first map to
// complete a binding wins. A keystroke that no map engages with is
// returned as Propagate so the caller can pass it on; a longer sequence
// that every map has given up on is reported as Undefined.
//
// On top of the keymap walk the processor handles:
//
//   - the abort key (C-G), which cancels anything in progress
//   - the universal argument (C-U, optionally followed by digits and a
//     leading minus) and Ctrl-digit arguments
//   - sticky meta: when the global map binds something starting with
//     M-ESC, a lone ESC makes the next keystroke an Alt keystroke, and
//     M-ESC ESC quits
//   - quoted insert and describe-key through GetNextKeystroke and
//     ReportNext
//
// A Processor is not safe for concurrent use. Keymaps may be shared
// between processors because each processor walks them with its own
// cursors.
package processor
