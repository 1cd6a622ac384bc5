// Package app wires configuration, logging, the keystroke processor and
// the record codec into the chordpack commands.
package app

import (
	"context"
	"io"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/chordpack/internal/config"
	"github.com/dshills/chordpack/internal/config/watcher"
	"github.com/dshills/chordpack/internal/logging"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer
}

// Application holds the loaded configuration and logger.
type Application struct {
	cfg *config.Config
	log *logging.Logger
}

// New loads the configuration and sets up logging.
func New(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, NewOperationError("load", opts.ConfigPath, err)
	}
	if opts.LogLevel != "" {
		if !logging.ValidLevel(opts.LogLevel) {
			return nil, NewOperationError("configure", "log level", &config.ValidationError{
				Path: "log.level", Message: "unknown log level", Value: opts.LogLevel,
			})
		}
		cfg.Log.Level = opts.LogLevel
	}

	log := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: opts.LogOutput,
		Prefix: "chordpack",
	})
	logging.SetDefault(log)

	if cfg.Path != "" {
		log.Debug("configuration loaded from %s", cfg.Path)
	}
	return &Application{cfg: cfg, log: log}, nil
}

// Config returns the loaded configuration.
func (a *Application) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *Application) Logger() *logging.Logger { return a.log }

// CodecOptions returns the codec options implied by the configuration.
func (a *Application) CodecOptions() CodecOptions {
	return CodecOptionsFrom(a.cfg, a.log.WithComponent("codec"))
}

// Keys runs the key tester on screen, which it initializes and
// finalizes. When keys.watch is set the configured keymap files are
// reloaded as they change.
func (a *Application) Keys(ctx context.Context, screen tcell.Screen) error {
	t, err := NewKeyTester(a.cfg, a.log)
	if err != nil {
		return err
	}

	if err := screen.Init(); err != nil {
		return NewOperationError("init", "screen", err)
	}
	defer screen.Fini()

	var changes <-chan watcher.Event
	if paths := a.cfg.KeymapPaths(); a.cfg.Keys.Watch && len(paths) > 0 {
		w, err := watcher.New(watcher.WithLogger(a.log.WithComponent("watcher")))
		if err != nil {
			return NewOperationError("watch", "keymaps", err)
		}
		defer w.Close()
		for _, p := range paths {
			if err := w.Watch(p); err != nil {
				a.log.Warn("not watching %s: %v", p, err)
			}
		}
		changes = w.Events()
	}

	return RunKeys(ctx, t, screen, changes)
}
