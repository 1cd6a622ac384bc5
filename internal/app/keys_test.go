package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dshills/chordpack/internal/config"
	"github.com/dshills/chordpack/internal/input/key"
	"github.com/dshills/chordpack/internal/input/keymap"
	"github.com/dshills/chordpack/internal/input/processor"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Keys.Platform = "pc"
	return cfg
}

func newTester(t *testing.T, cfg *config.Config) *KeyTester {
	t.Helper()
	kt, err := NewKeyTester(cfg, nil)
	if err != nil {
		t.Fatalf("NewKeyTester() error = %v", err)
	}
	return kt
}

// press feeds each keystroke of specs and returns the last result.
func press(t *testing.T, kt *KeyTester, specs ...string) (processor.Result, error) {
	t.Helper()
	var res processor.Result
	var err error
	for _, spec := range specs {
		for _, k := range key.MustParse(key.PC, spec) {
			res, err = kt.HandleKey(key.EventFor(k))
		}
	}
	return res, err
}

func lastLine(kt *KeyTester) string {
	h := kt.History()
	if len(h) == 0 {
		return ""
	}
	return h[len(h)-1]
}

func TestKeyTesterDispatch(t *testing.T) {
	kt := newTester(t, testConfig())

	res, _ := press(t, kt, "C-X")
	if res.Outcome != processor.Pending {
		t.Fatalf("C-X outcome = %v, want pending", res.Outcome)
	}
	if kt.Status() != "C-X" {
		t.Errorf("Status() = %q, want C-X", kt.Status())
	}

	res, err := press(t, kt, "C-S")
	if err != nil || res.Outcome != processor.Dispatched {
		t.Fatalf("C-X C-S = %v, %v, want dispatched", res.Outcome, err)
	}
	if line := lastLine(kt); !strings.Contains(line, "C-X C-S") || !strings.Contains(line, keymap.CmdSaveBuffer) {
		t.Errorf("history line = %q, want C-X C-S save-buffer", line)
	}
	if !strings.HasPrefix(kt.Status(), "Wrote nothing") {
		t.Errorf("Status() = %q, want save message", kt.Status())
	}
}

func TestKeyTesterArgument(t *testing.T) {
	kt := newTester(t, testConfig())

	press(t, kt, "C-U C-X C-S")
	if line := lastLine(kt); !strings.HasSuffix(line, "(arg 4)") {
		t.Errorf("history line = %q, want (arg 4)", line)
	}

	press(t, kt, "C-U 3 x")
	if got := kt.Text(); got != "xxx" {
		t.Errorf("Text() = %q, want xxx", got)
	}
}

func TestKeyTesterSelfInsert(t *testing.T) {
	kt := newTester(t, testConfig())

	press(t, kt, "a", "S-B", "SPC", "c")
	if got := kt.Text(); got != "aB c" {
		t.Errorf("Text() = %q, want %q", got, "aB c")
	}
	if len(kt.History()) != 0 {
		t.Errorf("History() = %v, want self-insert to stay out of history", kt.History())
	}
}

func TestKeyTesterQuotedInsert(t *testing.T) {
	kt := newTester(t, testConfig())

	press(t, kt, "C-Q")
	if kt.Status() != "C-Q-" {
		t.Errorf("Status() after C-Q = %q, want C-Q-", kt.Status())
	}
	res, _ := press(t, kt, "C-X")
	if res.Outcome != processor.Quoted {
		t.Errorf("quoted outcome = %v, want quoted", res.Outcome)
	}
	press(t, kt, "C-Q", "q")

	if got := kt.Text(); got != "<C-X>q" {
		t.Errorf("Text() = %q, want <C-X>q", got)
	}
	if line := lastLine(kt); !strings.Contains(line, "quoted q") {
		t.Errorf("history line = %q, want quoted q", line)
	}
}

func TestKeyTesterDescribe(t *testing.T) {
	kt := newTester(t, testConfig())

	tests := []struct {
		keys string
		want string
	}{
		{"C-X C-S", "C-X C-S runs the command save-buffer"},
		{"C-X C-Q", "C-X C-Q is undefined"},
		{"z", "Z runs the command " + CmdSelfInsert},
		{"F5", "F5 is undefined"},
	}
	for _, tt := range tests {
		press(t, kt, "C-H K")
		if kt.Status() != "Describe key: " {
			t.Errorf("Status() after C-H K = %q, want prompt", kt.Status())
		}
		res, _ := press(t, kt, tt.keys)
		if res.Outcome != processor.Described {
			t.Errorf("describe %s outcome = %v, want described", tt.keys, res.Outcome)
		}
		if kt.Status() != tt.want {
			t.Errorf("describe %s: Status() = %q, want %q", tt.keys, kt.Status(), tt.want)
		}
	}
	if kt.Text() != "" {
		t.Errorf("Text() = %q, want nothing inserted while describing", kt.Text())
	}
}

func TestKeyTesterDescribeBindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.toml")
	writeKeymap(t, path, `
name = "extra"

[[bindings]]
keys = "C-C B"
action = "find-file"
`)
	cfg := testConfig()
	cfg.Keys.Keymaps = []string{path}
	kt := newTester(t, cfg)

	res, _ := press(t, kt, "C-H B")
	if res.Outcome != processor.Dispatched {
		t.Fatalf("C-H B outcome = %v, want dispatched", res.Outcome)
	}

	want := len(keymap.DefaultGlobal().Bindings) + 1
	if got, wantStatus := kt.Status(), fmt.Sprintf("%d bindings in 5 categories", want); got != wantStatus {
		t.Errorf("Status() = %q, want %q", got, wantStatus)
	}
	history := strings.Join(kt.History(), "\n")
	for _, s := range []string{"Files:", "Help:", "extra:", "C-C B", keymap.CmdDescribeBindings} {
		if !strings.Contains(history, s) {
			t.Errorf("History() missing %q:\n%s", s, history)
		}
	}
	found := false
	for _, line := range kt.History() {
		if strings.Contains(line, "C-X C-S") && strings.Contains(line, keymap.CmdSaveBuffer) {
			found = true
		}
	}
	if !found {
		t.Errorf("History() has no C-X C-S save-buffer line:\n%s", history)
	}
}

func TestKeyTesterUndefinedAndPropagate(t *testing.T) {
	kt := newTester(t, testConfig())

	res, _ := press(t, kt, "C-X C-Q")
	if res.Outcome != processor.Undefined {
		t.Errorf("C-X C-Q outcome = %v, want undefined", res.Outcome)
	}
	if kt.Status() != "C-X C-Q not defined." {
		t.Errorf("Status() = %q, want not defined", kt.Status())
	}

	res, _ = press(t, kt, "F5")
	if res.Outcome != processor.Propagate {
		t.Errorf("F5 outcome = %v, want propagate", res.Outcome)
	}
	if line := lastLine(kt); !strings.HasPrefix(line, "F5") || !strings.HasSuffix(line, "(not bound)") {
		t.Errorf("history line = %q, want F5 (not bound)", line)
	}
}

func TestKeyTesterQuit(t *testing.T) {
	kt := newTester(t, testConfig())

	if _, err := press(t, kt, "C-X"); err != nil {
		t.Fatalf("C-X error = %v", err)
	}
	if _, err := press(t, kt, "C-C"); !errors.Is(err, ErrQuit) {
		t.Errorf("C-X C-C error = %v, want ErrQuit", err)
	}
}

func TestKeyTesterAbort(t *testing.T) {
	kt := newTester(t, testConfig())

	res, _ := press(t, kt, "C-X C-G")
	if res.Outcome != processor.Aborted {
		t.Errorf("C-X C-G outcome = %v, want aborted", res.Outcome)
	}
	if kt.Status() != "Quit" {
		t.Errorf("Status() = %q, want Quit", kt.Status())
	}
}

func TestKeyTesterMetrics(t *testing.T) {
	kt := newTester(t, testConfig())

	press(t, kt, "C-X C-S", "a")
	snap := kt.Metrics()
	if snap.Events != 3 {
		t.Errorf("Metrics().Events = %d, want 3", snap.Events)
	}
	if snap.Outcomes[processor.Dispatched] != 2 || snap.Outcomes[processor.Pending] != 1 {
		t.Errorf("Metrics().Outcomes = %v, want 2 dispatched and 1 pending", snap.Outcomes)
	}
}

func writeKeymap(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestKeyTesterKeymapFiles(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.toml")
	extraPath := filepath.Join(dir, "extra.toml")
	writeKeymap(t, globalPath, `
name = "global"

[[bindings]]
keys = "C-C A"
action = "save-buffer"
`)
	writeKeymap(t, extraPath, `
name = "extra"

[[bindings]]
keys = "C-C B"
action = "find-file"
`)

	cfg := testConfig()
	cfg.Keys.Keymaps = []string{globalPath, extraPath}
	kt := newTester(t, cfg)

	if got, want := kt.Registry().Names(), []string{"extra", "global"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Registry().Names() = %v, want %v", got, want)
	}

	press(t, kt, "C-C A")
	if line := lastLine(kt); !strings.Contains(line, keymap.CmdSaveBuffer) {
		t.Errorf("C-C A ran %q, want save-buffer", line)
	}
	press(t, kt, "C-C B")
	if line := lastLine(kt); !strings.Contains(line, keymap.CmdFindFile) {
		t.Errorf("C-C B ran %q, want find-file", line)
	}
	// Built-in bindings are still there.
	press(t, kt, "C-X C-F")
	if line := lastLine(kt); !strings.Contains(line, "C-X C-F") {
		t.Errorf("C-X C-F ran %q, want find-file", line)
	}
}

func TestKeyTesterReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.toml")
	writeKeymap(t, path, `
name = "extra"

[[bindings]]
keys = "C-C B"
action = "find-file"
`)

	cfg := testConfig()
	cfg.Keys.Keymaps = []string{path}
	kt := newTester(t, cfg)

	writeKeymap(t, path, `
name = "extra"

[[bindings]]
keys = "C-C B"
action = "no-such-command"
`)
	err := kt.Reload()
	if !errors.Is(err, keymap.ErrUnknownCommand) {
		t.Fatalf("Reload() error = %v, want ErrUnknownCommand", err)
	}
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Target != path {
		t.Errorf("Reload() error = %v, want OperationError for %s", err, path)
	}

	// The failed reload keeps the previous maps.
	press(t, kt, "C-C B")
	if line := lastLine(kt); !strings.Contains(line, keymap.CmdFindFile) {
		t.Errorf("C-C B ran %q after failed reload, want find-file", line)
	}

	writeKeymap(t, path, `
name = "extra"

[[bindings]]
keys = "C-C B"
action = "save-buffer"
`)
	if err := kt.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	press(t, kt, "C-C B")
	if line := lastLine(kt); !strings.Contains(line, keymap.CmdSaveBuffer) {
		t.Errorf("C-C B ran %q after reload, want save-buffer", line)
	}
	if got := len(kt.Processor().KeyMaps()); got != 2 {
		t.Errorf("len(KeyMaps()) = %d, want 2", got)
	}
}

func TestNewKeyTesterErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Keys.Abort = "C-X C-S"
	if _, err := NewKeyTester(cfg, nil); !errors.Is(err, processor.ErrInvalidSettings) {
		t.Errorf("NewKeyTester(bad abort) error = %v, want ErrInvalidSettings", err)
	}

	cfg = testConfig()
	cfg.Keys.Keymaps = []string{filepath.Join(t.TempDir(), "missing.toml")}
	if _, err := NewKeyTester(cfg, nil); err == nil {
		t.Error("NewKeyTester(missing keymap) error = nil, want error")
	}
}

func TestHistoryIsBounded(t *testing.T) {
	kt := newTester(t, testConfig())
	for i := 0; i < maxHistory+10; i++ {
		kt.addLine("line")
	}
	if got := len(kt.History()); got != maxHistory {
		t.Errorf("len(History()) = %d, want %d", got, maxHistory)
	}
}
