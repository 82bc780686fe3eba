package app

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"
	"gorm.io/gorm/logger"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/config"
	"github.com/dshills/patternshell/internal/console"
	"github.com/dshills/patternshell/internal/history"
	"github.com/dshills/patternshell/internal/logging"
	"github.com/dshills/patternshell/internal/patterns"
	"github.com/dshills/patternshell/internal/repl"
	"github.com/dshills/patternshell/internal/script"
	"github.com/dshills/patternshell/internal/store"
)

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Configuration: defaults, file, environment, flags
	app.loader = config.NewLoaderWithFS(config.OSFS{}, app.opts.Environ)
	cfg, err := app.loader.Load(app.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	cfg = app.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.config = cfg

	// 2. Logging
	log, err := logging.New(logging.Config{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		JSON:  cfg.Log.JSON,
	})
	if err != nil {
		return &InitError{Component: "logging", Err: err}
	}
	app.log = log

	// 3. Console
	app.printer = console.New(app.opts.Output, cfg.Color.Enabled, console.Palette(cfg.Color.Palette))

	// 4. Command infrastructure
	app.registry = command.NewRegistry()
	app.history = history.NewManager(cfg.History.MaxEntries)
	app.metrics = repl.NewMetrics()

	// 5. Data store (optional)
	if cfg.Store.Enabled() {
		db, err := store.Open(app.storeConfig(cfg.Store), &store.Person{})
		if err != nil {
			return &InitError{Component: "store", Err: err}
		}
		app.people = store.NewService[store.Person](db)
	}

	// 6. Command groups
	env := patterns.Env{Printer: app.printer, Logger: app.log}
	if app.people != nil {
		env.People = app.people
	}
	if err := patterns.Register(app.registry, env); err != nil {
		return &InitError{Component: "patterns", Err: err}
	}
	if err := app.registerBuiltins(); err != nil {
		return &InitError{Component: "builtins", Err: err}
	}

	// 7. Scripts; a broken script does not stop the shell
	app.scripts = script.NewEngine(app.registry, app.printer, app.log)
	_ = app.loadScripts(cfg.Scripts)

	// 8. Command loop
	if len(app.registry.List(cfg.Group)) == 0 {
		return &InitError{Component: "repl", Err: fmt.Errorf("%w: %q", ErrUnknownGroup, cfg.Group)}
	}
	app.loop, err = repl.NewLoop(repl.Options{
		Input:         app.opts.Input,
		Printer:       app.printer,
		Catalog:       app.registry,
		History:       app.history,
		Guard:         app.opts.Guard,
		Metrics:       app.metrics,
		Logger:        app.log,
		Group:         cfg.Group,
		Fallback:      repl.ShellGroup,
		Prompt:        cfg.Prompt,
		Banner:        cfg.Banner,
		RecoverPanics: cfg.RecoverPanics,
	})
	if err != nil {
		return &InitError{Component: "repl", Err: err}
	}

	// 9. Config watcher (optional, non-fatal)
	if app.opts.Watch && app.opts.ConfigPath != "" {
		w, err := config.NewWatcher(app.opts.ConfigPath,
			config.WithLoader(app.loader),
			config.WithErrorHandler(func(err error) {
				app.log.Warnw("config reload failed", "error", err)
			}),
		)
		if err != nil {
			app.log.Warnw("config watcher disabled", "path", app.opts.ConfigPath, "error", err)
		} else {
			w.OnChange(app.applyConfig)
			app.watcher = w
		}
	}

	app.log.Debugw("application bootstrapped",
		"group", cfg.Group,
		"commands", app.registry.Count(),
		"store", cfg.Store.Enabled(),
		"scripts", len(app.scripts.Files()),
	)
	return nil
}

// applyOverrides applies the command-line options on top of cfg.
func (app *Application) applyOverrides(cfg config.Config) config.Config {
	if app.opts.Group != "" {
		cfg.Group = app.opts.Group
	}
	if app.opts.LogLevel != "" {
		cfg.Log.Level = app.opts.LogLevel
	}
	if app.opts.NoColor {
		cfg.Color.Enabled = false
	}
	return cfg
}

func (app *Application) storeConfig(sc config.StoreConfig) store.Config {
	cfg := store.DefaultConfig(sc.Driver, sc.DSN)
	cfg.AutoMigrate = sc.AutoMigrate
	cfg.MaxIdleConns = sc.MaxIdleConns
	cfg.MaxOpenConns = sc.MaxOpenConns
	cfg.ConnMaxLifetime = sc.ConnMaxLifetime.Duration

	storeLog := logging.Component(app.log, "store")
	cfg.Logf = storeLog.Infof
	cfg.LogLevel = logger.Warn
	if lvl, err := logging.ParseLevel(app.config.Log.Level); err == nil && lvl == zapcore.DebugLevel {
		cfg.LogLevel = logger.Info
	}
	return cfg
}

// loadScripts loads the configured script directory and files.
func (app *Application) loadScripts(sc config.ScriptsConfig) error {
	var errs []error
	if sc.Dir != "" {
		errs = append(errs, app.scripts.LoadDir(sc.Dir))
	}
	for _, f := range sc.Files {
		errs = append(errs, app.scripts.LoadFile(f))
	}

	err := errors.Join(errs...)
	if err != nil {
		app.log.Warnw("script load failed", "error", err)
		app.printer.Warnf("%v", err)
	}
	return err
}

// reloadScripts unloads every script and loads sc again.
func (app *Application) reloadScripts(sc config.ScriptsConfig) error {
	for _, f := range app.scripts.Files() {
		app.scripts.Unload(f)
	}
	return app.loadScripts(sc)
}

// applyConfig applies a reloaded configuration. The start group, logging
// and store settings take effect on the next start only.
func (app *Application) applyConfig(cfg config.Config) {
	cfg = app.applyOverrides(cfg)

	app.mu.Lock()
	app.config = cfg
	app.mu.Unlock()

	app.loop.SetPrompt(cfg.Prompt)
	app.loop.SetRecoverPanics(cfg.RecoverPanics)
	app.printer.Configure(cfg.Color.Enabled && console.IsTerminal(app.opts.Output), console.Palette(cfg.Color.Palette))
	app.history.SetMaxEntries(cfg.History.MaxEntries)
	_ = app.reloadScripts(cfg.Scripts)

	app.log.Infow("configuration reloaded", "path", app.opts.ConfigPath)
}
