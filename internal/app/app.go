// Package app wires the shell together: configuration, logging, the
// command registry and its groups, scripts, the data store and the
// command loop.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/config"
	"github.com/dshills/patternshell/internal/console"
	"github.com/dshills/patternshell/internal/history"
	"github.com/dshills/patternshell/internal/logging"
	"github.com/dshills/patternshell/internal/repl"
	"github.com/dshills/patternshell/internal/script"
	"github.com/dshills/patternshell/internal/store"
)

// Application is the central coordinator of the shell's components.
type Application struct {
	mu sync.RWMutex

	// Infrastructure
	config config.Config
	loader *config.Loader
	log    logging.Logger

	// Shell components
	printer  *console.Printer
	registry *command.Registry
	history  *history.Manager
	metrics  *repl.Metrics
	loop     *repl.Loop

	// Extensions
	scripts *script.Engine
	people  *store.Service[store.Person]
	watcher *config.Watcher

	shutdownOnce sync.Once
	closed       bool

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty uses defaults and the
	// environment only.
	ConfigPath string

	// Group overrides the configured start group.
	Group string

	// LogLevel overrides the configured log level.
	LogLevel string

	// NoColor disables colored output.
	NoColor bool

	// Watch reloads the configuration file when it changes.
	Watch bool

	// Input and Output default to os.Stdin and os.Stdout.
	Input  io.Reader
	Output io.Writer

	// Guard is the process-wide "loop running" flag. A private guard is
	// used if nil.
	Guard *repl.Guard

	// Environ supplies environment overrides; os.Environ if nil.
	Environ func() []string
}

// New creates and bootstraps an Application.
func New(opts Options) (*Application, error) {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}
	if opts.Guard == nil {
		opts.Guard = repl.NewGuard()
	}

	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

// Run runs the command loop until the input ends, ctx is cancelled or
// the user exits.
func (app *Application) Run(ctx context.Context) error {
	app.mu.RLock()
	closed := app.closed
	app.mu.RUnlock()
	if closed {
		return ErrShutDown
	}

	if app.watcher != nil {
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go app.watcher.Run(wctx)
	}

	return app.loop.Run(ctx)
}

// Shutdown releases the store, scripts and watcher. It is safe to call
// more than once.
func (app *Application) Shutdown() error {
	var errs []error
	app.shutdownOnce.Do(func() {
		app.mu.Lock()
		app.closed = true
		app.mu.Unlock()

		if app.loop != nil {
			app.loop.Exit()
		}
		if app.watcher != nil {
			if err := app.watcher.Close(); err != nil {
				errs = append(errs, &CloseError{Component: "watcher", Err: err})
			}
		}
		if app.scripts != nil {
			app.scripts.Close()
		}
		if app.people != nil {
			if err := app.people.Close(); err != nil {
				errs = append(errs, &CloseError{Component: "store", Err: err})
			}
		}
		if app.log != nil {
			_ = app.log.Sync()
		}
	})
	return errors.Join(errs...)
}

// Config returns the active configuration.
func (app *Application) Config() config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.config
}

// Registry returns the command registry.
func (app *Application) Registry() *command.Registry {
	return app.registry
}

// Loop returns the command loop.
func (app *Application) Loop() *repl.Loop {
	return app.loop
}

// History returns the undo/redo manager.
func (app *Application) History() *history.Manager {
	return app.history
}

// Logger returns the application logger.
func (app *Application) Logger() logging.Logger {
	return app.log
}
