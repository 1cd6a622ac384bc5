package app

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/dshills/chordpack/internal/config"
	"github.com/dshills/chordpack/internal/logging"
	"github.com/dshills/chordpack/internal/record"
	"github.com/dshills/chordpack/internal/record/schema"
)

// CodecOptions configures Dump and RoundTrip.
type CodecOptions struct {
	// Record names the record to decode with. Empty uses the schema root.
	Record string

	// Partial keeps the fields decoded before a truncation.
	Partial bool

	// Dotted prints one "path = value" line per leaf.
	Dotted bool

	// All prints every list element instead of eliding long lists.
	All bool

	// Conversion overrides adapter failure policies when set.
	Conversion *record.ConversionPolicy

	Logger *logging.Logger
}

// CodecOptionsFrom returns the options cfg implies.
func CodecOptionsFrom(cfg *config.Config, log *logging.Logger) CodecOptions {
	opts := CodecOptions{Partial: cfg.Codec.Partial, Logger: log}
	if p, ok := cfg.Conversion(); ok {
		opts.Conversion = &p
	}
	return opts
}

func (o CodecOptions) recordOptions(partial bool) []record.Option {
	opts := []record.Option{record.WithLogger(o.Logger)}
	if partial {
		opts = append(opts, record.WithPartial())
	}
	if o.Conversion != nil {
		opts = append(opts, record.WithConversion(*o.Conversion))
	}
	return opts
}

// load compiles the schema and selects the record to decode with. The
// caller closes the schema.
func load(schemaPath string, opts CodecOptions) (*schema.Schema, *record.Record, error) {
	sch, err := schema.Load(schemaPath, schema.WithLogger(opts.Logger))
	if err != nil {
		return nil, nil, NewOperationError("load", schemaPath, err)
	}
	if opts.Record == "" {
		return sch, sch.Root, nil
	}
	rec, ok := sch.Record(opts.Record)
	if !ok {
		sch.Close()
		return nil, nil, NewOperationError("load", schemaPath, fmt.Errorf("%w %q", ErrNoRecord, opts.Record))
	}
	return sch, rec, nil
}

// decode reads dataPath and decodes it with rec.
func decode(rec *record.Record, dataPath string, opts CodecOptions, partial bool) (*record.Instance, []byte, error) {
	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, nil, NewOperationError("read", dataPath, err)
	}
	inst, err := rec.Unmarshal(data, opts.recordOptions(partial)...)
	if err != nil {
		return nil, nil, NewOperationError("decode", dataPath, err)
	}
	return inst, data, nil
}

// Dump decodes dataPath with the schema at schemaPath and writes the
// decoded fields to w.
func Dump(w io.Writer, schemaPath, dataPath string, opts CodecOptions) error {
	sch, rec, err := load(schemaPath, opts)
	if err != nil {
		return err
	}
	defer sch.Close()

	inst, _, err := decode(rec, dataPath, opts, opts.Partial)
	if err != nil {
		return err
	}

	if opts.Dotted {
		fmt.Fprintln(w, record.Dotted(inst, ""))
	} else {
		fmt.Fprintln(w, record.Dump(inst, opts.All))
	}
	if err := inst.Incomplete(); err != nil {
		fmt.Fprintf(w, "incomplete: %v\n", err)
	}
	return nil
}

// RoundTrip decodes dataPath, encodes the result again and checks that
// the bytes are unchanged. Partial decoding is never used.
func RoundTrip(w io.Writer, schemaPath, dataPath string, opts CodecOptions) error {
	sch, rec, err := load(schemaPath, opts)
	if err != nil {
		return err
	}
	defer sch.Close()

	inst, data, err := decode(rec, dataPath, opts, false)
	if err != nil {
		return err
	}

	out, err := rec.Marshal(inst, opts.recordOptions(false)...)
	if err != nil {
		return NewOperationError("encode", dataPath, err)
	}
	if !bytes.Equal(data, out) {
		return NewOperationError("roundtrip", dataPath, fmt.Errorf("%w at offset %d (read %d bytes, wrote %d)",
			ErrMismatch, firstDiff(data, out), len(data), len(out)))
	}

	fmt.Fprintf(w, "%s: %d bytes round-trip unchanged\n", dataPath, len(data))
	return nil
}

// firstDiff returns the offset of the first differing byte.
func firstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
