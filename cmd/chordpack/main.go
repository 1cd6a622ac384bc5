// Package main is the entry point for the chordpack tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/chordpack/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	switch args[0] {
	case "keys":
		return runKeys(args[1:])
	case "dump":
		return runDump(args[1:])
	case "roundtrip":
		return runRoundTrip(args[1:])
	case "version", "-v", "-version", "--version":
		fmt.Printf("chordpack %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return 0
	case "help", "-h", "-help", "--help":
		usage()
		return 0
	}

	fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
	usage()
	return 2
}

func usage() {
	fmt.Fprintf(os.Stderr, "chordpack - Emacs-style key sequences and schema-driven binary records\n\n")
	fmt.Fprintf(os.Stderr, "Usage: chordpack <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  keys        Interactive key sequence tester\n")
	fmt.Fprintf(os.Stderr, "  dump        Decode a binary file with a schema and print it\n")
	fmt.Fprintf(os.Stderr, "  roundtrip   Decode and re-encode a binary file, checking the bytes\n")
	fmt.Fprintf(os.Stderr, "  version     Show version information\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  chordpack keys -c chordpack.toml\n")
	fmt.Fprintf(os.Stderr, "  chordpack dump -schema header.toml -dotted header.bin\n")
	fmt.Fprintf(os.Stderr, "  chordpack roundtrip -schema header.toml header.bin\n")
}

// commonFlags registers the flags every command shares.
func commonFlags(fs *flag.FlagSet, opts *app.Options) {
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func runKeys(args []string) int {
	var opts app.Options
	var logPath string
	fs := flag.NewFlagSet("keys", flag.ContinueOnError)
	commonFlags(fs, &opts)
	fs.StringVar(&logPath, "log", "", "Write log output to this file while the screen is active")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// The screen owns the terminal; logs go to a file or nowhere.
	opts.LogOutput = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		opts.LogOutput = f
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Keys(ctx, screen); err != nil && !errors.Is(err, app.ErrQuit) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// codecFlags parses the flags shared by dump and roundtrip. A non-zero
// exit code means the command should stop.
func codecFlags(name string, args []string, extra func(*flag.FlagSet, *app.CodecOptions)) (schemaPath, dataPath string, codec app.CodecOptions, code int) {
	var opts app.Options
	var recordName string
	var partial bool

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	commonFlags(fs, &opts)
	fs.StringVar(&schemaPath, "schema", "", "Schema file describing the records (required)")
	fs.StringVar(&recordName, "record", "", "Record to decode with (default: the schema root)")
	fs.BoolVar(&partial, "partial", false, "Keep the fields decoded before a truncation")
	if extra != nil {
		extra(fs, &codec)
	}
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: chordpack %s -schema <schema> [options] <file>\n\n", name)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return "", "", codec, 2
	}
	if schemaPath == "" || fs.NArg() != 1 {
		fs.Usage()
		return "", "", codec, 2
	}

	opts.LogOutput = os.Stderr
	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return "", "", codec, 1
	}

	// Flags refine what the configuration sets.
	fromConfig := application.CodecOptions()
	fromConfig.Record = recordName
	fromConfig.Partial = fromConfig.Partial || partial
	fromConfig.Dotted = codec.Dotted
	fromConfig.All = codec.All
	return schemaPath, fs.Arg(0), fromConfig, 0
}

func runDump(args []string) int {
	schemaPath, dataPath, opts, code := codecFlags("dump", args, func(fs *flag.FlagSet, c *app.CodecOptions) {
		fs.BoolVar(&c.Dotted, "dotted", false, "Print one \"path = value\" line per field")
		fs.BoolVar(&c.All, "all", false, "Print every list element")
	})
	if code != 0 {
		return code
	}
	if err := app.Dump(os.Stdout, schemaPath, dataPath, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runRoundTrip(args []string) int {
	schemaPath, dataPath, opts, code := codecFlags("roundtrip", args, nil)
	if code != 0 {
		return code
	}
	if err := app.RoundTrip(os.Stdout, schemaPath, dataPath, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
