package app

import (
	"fmt"
	"strings"

	"github.com/dshills/chordpack/internal/config"
	"github.com/dshills/chordpack/internal/input/key"
	"github.com/dshills/chordpack/internal/input/keymap"
	"github.com/dshills/chordpack/internal/input/processor"
	"github.com/dshills/chordpack/internal/logging"
)

// CmdSelfInsert inserts the typed character. It is the processor's
// default action for printable keys.
const CmdSelfInsert = "self-insert-command"

const (
	maxHistory = 200
	maxRepeat  = 1000
)

// KeyTester feeds key events through a Processor and keeps what the
// terminal front end shows: a history of dispatched commands, the text
// typed so far and the status line.
type KeyTester struct {
	cfg *config.Config
	log *logging.Logger

	cache    *key.Cache
	proc     *processor.Processor
	metrics  *processor.Metrics
	commands *keymap.Commands
	registry *keymap.Registry
	loader   *keymap.Loader
	files    []*keymap.File

	status  string
	history []string
	text    []rune
	quit    bool
}

// NewKeyTester builds the processor, the demo commands and the keymaps
// named by cfg.
func NewKeyTester(cfg *config.Config, log *logging.Logger) (*KeyTester, error) {
	t := &KeyTester{
		cfg:      cfg,
		log:      log.WithComponent("tester"),
		cache:    key.NewCache(cfg.Platform(), log),
		metrics:  processor.NewMetrics(),
		commands: keymap.NewCommands(),
		registry: keymap.NewRegistry(),
		loader:   keymap.NewLoader(log),
	}

	selfInsert := keymap.NewAction(CmdSelfInsert, t.selfInsert)
	proc, err := processor.New(cfg.Settings(),
		processor.WithCache(t.cache),
		processor.WithLogger(log),
		processor.WithStatus(processor.StatusFunc(t.setStatus)),
		processor.WithDefaultAction(selfInsert),
		processor.WithMetrics(t.metrics),
	)
	if err != nil {
		return nil, NewOperationError("configure", "keys", err)
	}
	t.proc = proc

	err = t.commands.Register(
		selfInsert,
		t.command(keymap.CmdSaveBuffer, "Wrote nothing; the key tester has no buffer"),
		t.command(keymap.CmdFindFile, "Find file is not available here"),
		t.command(keymap.CmdExecuteExtended, "M-x is not available here"),
		t.command(keymap.CmdKeyboardQuit, "Quit"),
		keymap.NewAction(keymap.CmdQuit, func(inv keymap.Invocation) {
			t.record(inv, keymap.CmdQuit)
			t.quit = true
		}),
		proc.QuotedInsert(keymap.CmdQuotedInsert, t.quotedInsert),
		proc.DescribeKey(keymap.CmdDescribeKey, t.describe),
		keymap.NewAction(keymap.CmdDescribeBindings, t.describeBindings),
	)
	if err != nil {
		return nil, NewOperationError("configure", "commands", err)
	}

	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload rebuilds the global keymap from the built-in bindings and every
// configured keymap file. A file named "global" extends the global map;
// any other file becomes a minor map. On error the current maps stay in
// place.
func (t *KeyTester) Reload() error {
	opts := []keymap.Option{keymap.WithCache(t.cache), keymap.WithLogger(t.log)}

	builtin := keymap.DefaultGlobal()
	global, err := builtin.Build(t.commands, opts...)
	if err != nil {
		return NewOperationError("build", "global keymap", err)
	}

	files := []*keymap.File{builtin}
	var minors []*keymap.KeyMap
	for _, path := range t.cfg.KeymapPaths() {
		file, err := t.loader.LoadFile(path)
		if err != nil {
			return NewOperationError("load", path, err)
		}
		files = append(files, file)
		if file.Name == global.Name() {
			if err := file.Apply(global, t.commands); err != nil {
				return NewOperationError("load", path, err)
			}
			continue
		}
		km, err := file.Build(t.commands, opts...)
		if err != nil {
			return NewOperationError("load", path, err)
		}
		minors = append(minors, km)
	}

	for _, name := range t.registry.Names() {
		t.registry.Unregister(name)
	}
	t.registry.Register(global)
	t.proc.ClearMinorKeyMaps()
	for _, km := range minors {
		t.registry.Register(km)
		t.proc.AddMinorKeyMap(km)
	}
	t.proc.SetGlobalKeyMap(global)
	t.files = files

	t.log.Info("loaded %d keymaps (%d global bindings)", len(minors)+1, global.Len())
	return nil
}

// HandleKey processes one key-down event. It returns ErrQuit once the
// quit command has run.
func (t *KeyTester) HandleKey(ev key.Event) (processor.Result, error) {
	res := t.proc.Process(ev)
	if res.Outcome == processor.Propagate {
		t.addLine(fmt.Sprintf("%-12s (not bound)", res.Keys.Emacs(t.cache.Platform())))
	}
	if t.quit {
		return res, ErrQuit
	}
	return res, nil
}

// Status returns the status line.
func (t *KeyTester) Status() string { return t.status }

// History returns the command history, oldest first.
func (t *KeyTester) History() []string { return t.history }

// Text returns the text inserted so far.
func (t *KeyTester) Text() string { return string(t.text) }

// Processor returns the underlying processor.
func (t *KeyTester) Processor() *processor.Processor { return t.proc }

// Registry returns the loaded keymaps by name.
func (t *KeyTester) Registry() *keymap.Registry { return t.registry }

// Metrics returns the processor counters.
func (t *KeyTester) Metrics() processor.Snapshot { return t.metrics.Snapshot() }

func (t *KeyTester) setStatus(text string) {
	t.status = text
}

func (t *KeyTester) addLine(line string) {
	t.history = append(t.history, line)
	if n := len(t.history); n > maxHistory {
		t.history = append(t.history[:0], t.history[n-maxHistory:]...)
	}
}

func (t *KeyTester) record(inv keymap.Invocation, name string) {
	line := fmt.Sprintf("%-12s %s", inv.Keys.Emacs(t.cache.Platform()), name)
	if inv.HasCount {
		line += fmt.Sprintf(" (arg %d)", inv.Count)
	}
	t.addLine(line)
}

// command returns a demo action that records itself and shows message.
func (t *KeyTester) command(name, message string) keymap.Action {
	return keymap.NewAction(name, func(inv keymap.Invocation) {
		t.record(inv, name)
		t.setStatus(message)
	})
}

func (t *KeyTester) insert(s string, count int) {
	count = min(max(count, 0), maxRepeat)
	t.text = append(t.text, []rune(strings.Repeat(s, count))...)
}

func (t *KeyTester) selfInsert(inv keymap.Invocation) {
	if r := inv.Event.Text(); r != 0 {
		t.insert(string(r), inv.Count)
	}
}

// quotedInsert inserts the character of ev, or its key name in angle
// brackets when it has none.
func (t *KeyTester) quotedInsert(ev key.Event, count int) {
	s := string(ev.Text())
	if ev.Text() == 0 {
		s = "<" + key.Decode(t.cache.Platform(), ev).String() + ">"
	}
	t.insert(s, count)
	t.addLine(fmt.Sprintf("%-12s quoted %s", "", s))
}

func (t *KeyTester) describe(keys key.Sequence, action keymap.Action) {
	text := keys.Emacs(t.cache.Platform())
	if action == nil {
		t.setStatus(text + " is undefined")
	} else {
		t.setStatus(fmt.Sprintf("%s runs the command %s", text, action.Name()))
	}
	t.addLine(t.status)
}

// describeBindings lists every loaded binding under its category.
func (t *KeyTester) describeBindings(inv keymap.Invocation) {
	t.record(inv, keymap.CmdDescribeBindings)
	groups := keymap.Categories(t.files...)
	n := 0
	for _, g := range groups {
		t.addLine(g.Name + ":")
		for _, b := range g.Bindings {
			line := fmt.Sprintf("  %-12s %s", b.Keys, b.Action)
			if b.Description != "" {
				line += "  " + b.Description
			}
			t.addLine(line)
			n++
		}
	}
	t.setStatus(fmt.Sprintf("%d bindings in %d categories", n, len(groups)))
}
