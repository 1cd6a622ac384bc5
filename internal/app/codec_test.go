package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/chordpack/internal/config"
	"github.com/dshills/chordpack/internal/record"
)

const testSchema = `
root = "header"

[[records.header.fields]]
name = "magic"
type = "u16be"
default = 0x4b50

[[records.header.fields]]
name = "count"
type = "u8"

[[records.header.fields]]
name = "items"
type = "list"
count = "count"
of = { type = "u16le" }
`

var testData = []byte{0x4b, 0x50, 0x02, 0x01, 0x00, 0x02, 0x00}

func writeTestFiles(t *testing.T, data []byte) (schemaPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()
	schemaPath = filepath.Join(dir, "header.toml")
	dataPath = filepath.Join(dir, "header.bin")
	if err := os.WriteFile(schemaPath, []byte(testSchema), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dataPath, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return schemaPath, dataPath
}

func TestDump(t *testing.T) {
	schemaPath, dataPath := writeTestFiles(t, testData)

	var out bytes.Buffer
	if err := Dump(&out, schemaPath, dataPath, CodecOptions{}); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	for _, want := range []string{"header:", "count = 2", "items = ["} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Dump() output missing %q:\n%s", want, out.String())
		}
	}
}

func TestDumpDotted(t *testing.T) {
	schemaPath, dataPath := writeTestFiles(t, testData)

	var out bytes.Buffer
	if err := Dump(&out, schemaPath, dataPath, CodecOptions{Dotted: true}); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	for _, want := range []string{"magic = 19280", "items[0] = 1", "items[1] = 2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Dump(dotted) output missing %q:\n%s", want, out.String())
		}
	}
}

func TestDumpPartial(t *testing.T) {
	schemaPath, dataPath := writeTestFiles(t, []byte{0x4b, 0x50, 0x03, 0x01, 0x00})

	err := Dump(&bytes.Buffer{}, schemaPath, dataPath, CodecOptions{})
	if !errors.Is(err, record.ErrTruncatedInput) {
		t.Fatalf("Dump() error = %v, want ErrTruncatedInput", err)
	}
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Op != "decode" || opErr.Target != dataPath {
		t.Errorf("Dump() error = %v, want decode OperationError for %s", err, dataPath)
	}

	var out bytes.Buffer
	if err := Dump(&out, schemaPath, dataPath, CodecOptions{Partial: true}); err != nil {
		t.Fatalf("Dump(partial) error = %v", err)
	}
	if !strings.Contains(out.String(), "incomplete:") {
		t.Errorf("Dump(partial) output missing incomplete marker:\n%s", out.String())
	}
}

func TestRoundTrip(t *testing.T) {
	schemaPath, dataPath := writeTestFiles(t, testData)

	var out bytes.Buffer
	if err := RoundTrip(&out, schemaPath, dataPath, CodecOptions{}); err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}
	if !strings.Contains(out.String(), "7 bytes") {
		t.Errorf("RoundTrip() output = %q, want byte count", out.String())
	}
}

func TestRoundTripMismatch(t *testing.T) {
	schemaPath, dataPath := writeTestFiles(t, append(append([]byte{}, testData...), 0xff))

	err := RoundTrip(&bytes.Buffer{}, schemaPath, dataPath, CodecOptions{})
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("RoundTrip() error = %v, want ErrMismatch", err)
	}
	if !strings.Contains(err.Error(), "offset 7") {
		t.Errorf("RoundTrip() error = %q, want offset 7", err)
	}
}

func TestCodecErrors(t *testing.T) {
	schemaPath, dataPath := writeTestFiles(t, testData)
	dir := filepath.Dir(dataPath)

	tests := []struct {
		name   string
		schema string
		data   string
		opts   CodecOptions
		op     string
	}{
		{"missing schema", filepath.Join(dir, "none.toml"), dataPath, CodecOptions{}, "load"},
		{"missing data", schemaPath, filepath.Join(dir, "none.bin"), CodecOptions{}, "read"},
		{"unknown record", schemaPath, dataPath, CodecOptions{Record: "footer"}, "load"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Dump(&bytes.Buffer{}, tt.schema, tt.data, tt.opts)
			var opErr *OperationError
			if !errors.As(err, &opErr) || opErr.Op != tt.op {
				t.Errorf("Dump() error = %v, want %s OperationError", err, tt.op)
			}
		})
	}

	err := Dump(&bytes.Buffer{}, schemaPath, dataPath, CodecOptions{Record: "footer"})
	if !errors.Is(err, ErrNoRecord) {
		t.Errorf("Dump(footer) error = %v, want ErrNoRecord", err)
	}
}

func TestFirstDiff(t *testing.T) {
	tests := []struct {
		a, b []byte
		want int
	}{
		{[]byte{1, 2, 3}, []byte{1, 2, 3}, 3},
		{[]byte{1, 2, 3}, []byte{1, 9, 3}, 1},
		{[]byte{1, 2}, []byte{1, 2, 3}, 2},
		{nil, []byte{1}, 0},
	}
	for _, tt := range tests {
		if got := firstDiff(tt.a, tt.b); got != tt.want {
			t.Errorf("firstDiff(% x, % x) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCodecOptionsFrom(t *testing.T) {
	cfg := config.Default()
	opts := CodecOptionsFrom(cfg, nil)
	if opts.Partial || opts.Conversion != nil {
		t.Errorf("CodecOptionsFrom(default) = %+v, want no overrides", opts)
	}

	cfg.Codec.Partial = true
	cfg.Codec.Conversion = "fail"
	opts = CodecOptionsFrom(cfg, nil)
	if !opts.Partial || opts.Conversion == nil || *opts.Conversion != record.Fail {
		t.Errorf("CodecOptionsFrom() = %+v, want partial with fail policy", opts)
	}
}
