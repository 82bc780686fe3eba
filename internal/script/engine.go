package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
	"github.com/dshills/patternshell/internal/logging"
)

// SourcePrefix prefixes the Source of every descriptor registered by a
// script; the rest is the script's path.
const SourcePrefix = "script:"

// ErrClosed is returned by a closed engine.
var ErrClosed = errors.New("script engine closed")

// LoadError reports a script that failed to load.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load script %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Registrar is the part of the command registry the engine needs.
type Registrar interface {
	Register(desc command.Descriptor, factory command.Factory) error
	UnregisterBySource(source string) int
}

// Engine runs Lua scripts in a single sandboxed state.
//
// gopher-lua states are not goroutine-safe; every entry into Lua goes
// through mu.
type Engine struct {
	reg     Registrar
	printer *console.Printer
	log     logging.Logger

	mu     sync.Mutex
	L      *lua.LState
	source string          // source of the script being loaded
	files  map[string]bool // loaded script paths
	closed bool
}

// NewEngine creates an engine registering commands into reg.
func NewEngine(reg Registrar, printer *console.Printer, logger logging.Logger) *Engine {
	e := &Engine{
		reg:     reg,
		printer: printer,
		log:     logging.Component(logger, "script"),
		L:       newState(),
		files:   make(map[string]bool),
	}
	e.installAPI()
	return e
}

// LoadFile runs the script at path, registering its commands.
func (e *Engine) LoadFile(path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{File: path, Err: err}
	}
	return e.load(path, string(code))
}

// LoadString runs code as if it were the script named name.
func (e *Engine) LoadString(name, code string) error {
	return e.load(name, code)
}

// LoadDir loads every *.lua file in dir in name order. Loading continues
// past failures; all errors are returned joined.
func (e *Engine) LoadDir(dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return err
	}
	sort.Strings(paths)

	var errs []error
	for _, p := range paths {
		if err := e.LoadFile(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reload drops the commands of the script at path and loads it again.
func (e *Engine) Reload(path string) error {
	n := e.reg.UnregisterBySource(SourcePrefix + path)
	e.log.Debugw("script unloaded", "file", path, "commands", n)

	e.mu.Lock()
	delete(e.files, path)
	e.mu.Unlock()

	return e.LoadFile(path)
}

// Unload drops the commands of a script.
func (e *Engine) Unload(path string) int {
	e.mu.Lock()
	delete(e.files, path)
	e.mu.Unlock()
	return e.reg.UnregisterBySource(SourcePrefix + path)
}

// Files returns the loaded script names, sorted.
func (e *Engine) Files() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.files))
	for f := range e.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Close releases the Lua state. Commands already registered fail on
// execution afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.L.Close()
}

func (e *Engine) load(name, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	e.source = SourcePrefix + name
	defer func() { e.source = "" }()

	err := protect(func() error { return e.L.DoString(code) })
	if err != nil {
		// Keep what registered before the failure out of the registry.
		e.reg.UnregisterBySource(SourcePrefix + name)
		return &LoadError{File: name, Err: err}
	}

	e.files[name] = true
	e.log.Infow("script loaded", "file", name)
	return nil
}

// call invokes fn with an args table, bounded by ctx.
func (e *Engine) call(ctx context.Context, fn *lua.LFunction, args map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	tbl := e.L.NewTable()
	for k, v := range args {
		tbl.RawSetString(k, toLua(v))
	}

	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	top := e.L.GetTop()
	err := protect(func() error {
		return e.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, tbl)
	})
	e.L.SetTop(top)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return scriptError(err)
	}
	return nil
}

// scriptError trims the Lua traceback from err.
func scriptError(err error) error {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return errors.New(strings.TrimSpace(apiErr.Object.String()))
	}
	return err
}
