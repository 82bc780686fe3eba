package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
	"github.com/dshills/patternshell/internal/history"
	"github.com/dshills/patternshell/internal/logging"
)

// ShellGroup is the group of built-in commands reachable from every group.
const ShellGroup = "shell"

// DefaultPrompt is used when Options.Prompt is empty.
const DefaultPrompt = "{group}> "

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// Options configures a Loop.
type Options struct {
	// Input is read line by line. Required.
	Input io.Reader

	// Printer receives prompts, messages and command output. Required.
	Printer *console.Printer

	// Catalog holds the commands. Required.
	Catalog command.Catalog

	// History records undoable commands. A new manager is created if nil.
	History *history.Manager

	// Guard is shared by all loops of a process. A private guard is
	// created if nil.
	Guard *Guard

	Metrics *Metrics
	Logger  logging.Logger

	// Group is the initial current group. Required.
	Group string

	// Fallback is tried when a name is not found in the current group.
	// Defaults to ShellGroup; set to "-" to disable.
	Fallback string

	// Prompt is printed before each line; "{group}" expands to the
	// current group.
	Prompt string

	Banner        string
	RecoverPanics bool
}

// PanicError reports a recovered command panic.
type PanicError struct {
	Command string
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command %s panicked: %v", e.Command, e.Value)
}

// Loop is an interactive read-resolve-execute loop.
type Loop struct {
	in       io.Reader
	printer  *console.Printer
	resolver *command.Resolver
	history  *history.Manager
	guard    *Guard
	metrics  *Metrics
	log      logging.Logger
	fallback string
	banner   string

	mu            sync.RWMutex
	state         State
	group         string
	prompt        string
	recoverPanics bool
	cancel        context.CancelFunc
}

// NewLoop creates a loop in the Idle state.
func NewLoop(opts Options) (*Loop, error) {
	switch {
	case opts.Input == nil:
		return nil, &command.ArgumentError{Arg: "Input", Message: "cannot be nil"}
	case opts.Printer == nil:
		return nil, &command.ArgumentError{Arg: "Printer", Message: "cannot be nil"}
	case opts.Catalog == nil:
		return nil, &command.ArgumentError{Arg: "Catalog", Message: "cannot be nil"}
	case opts.Group == "":
		return nil, &command.ArgumentError{Arg: "Group", Message: "cannot be empty"}
	}

	l := &Loop{
		in:            opts.Input,
		printer:       opts.Printer,
		resolver:      command.NewResolver(opts.Catalog),
		history:       opts.History,
		guard:         opts.Guard,
		metrics:       opts.Metrics,
		log:           logging.Component(opts.Logger, "repl"),
		fallback:      opts.Fallback,
		banner:        opts.Banner,
		state:         Idle,
		group:         opts.Group,
		prompt:        opts.Prompt,
		recoverPanics: opts.RecoverPanics,
	}
	if l.history == nil {
		l.history = history.NewManager(history.DefaultMaxEntries)
	}
	if l.guard == nil {
		l.guard = NewGuard()
	}
	if l.metrics == nil {
		l.metrics = NewMetrics()
	}
	switch l.fallback {
	case "":
		l.fallback = ShellGroup
	case "-":
		l.fallback = ""
	}
	if l.prompt == "" {
		l.prompt = DefaultPrompt
	}
	return l, nil
}

// Run reads and executes commands until the input ends, ctx is cancelled
// or Exit is called. A loop runs at most once.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.state != Idle {
		st := l.state
		l.mu.Unlock()
		return fmt.Errorf("%w: loop is %s", command.ErrInvalidOperation, st)
	}
	if err := l.guard.Acquire(); err != nil {
		l.mu.Unlock()
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.state = Running
	group := l.group
	l.mu.Unlock()

	defer l.finish()

	l.log.Infow("command loop started", "group", group)
	if l.banner != "" {
		l.printer.Println(console.RoleBanner, l.banner)
	}

	lines := readLines(ctx, l.in)
	for {
		if ctx.Err() != nil || l.State() == Cancelling {
			l.setCancelling()
			return nil
		}

		l.printer.Print(console.RolePrompt, l.renderPrompt())

		select {
		case <-ctx.Done():
			l.setCancelling()
			l.printer.Println(console.RolePlain, "")
			return nil

		case res, ok := <-lines:
			if !ok {
				// EOF
				l.printer.Println(console.RolePlain, "")
				return nil
			}
			if res.err != nil {
				return fmt.Errorf("reading input: %w", res.err)
			}
			l.dispatch(ctx, res.line)
		}
	}
}

func (l *Loop) finish() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.state = Stopped
	l.mu.Unlock()

	l.guard.Release()
	l.log.Infow("command loop stopped")
}

// Exit asks a running loop to stop after the current iteration.
func (l *Loop) Exit() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != Running {
		return
	}
	l.state = Cancelling
	if l.cancel != nil {
		l.cancel()
	}
}

func (l *Loop) setCancelling() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Running {
		l.state = Cancelling
	}
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Group returns the current group.
func (l *Loop) Group() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.group
}

// SetGroup switches the current group. The group must have commands.
func (l *Loop) SetGroup(group string) error {
	if group == "" {
		return &command.ArgumentError{Arg: "group", Message: "cannot be empty"}
	}
	if len(l.resolver.Names(group)) == 0 {
		return fmt.Errorf("%w: unknown group %q", command.ErrInvalidArgument, group)
	}

	l.mu.Lock()
	prev := l.group
	l.group = group
	l.mu.Unlock()

	l.log.Debugw("group changed", "from", prev, "to", group)
	return nil
}

// SetPrompt replaces the prompt template.
func (l *Loop) SetPrompt(prompt string) {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompt = prompt
}

// SetRecoverPanics toggles panic recovery.
func (l *Loop) SetRecoverPanics(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recoverPanics = on
}

// History returns the undo/redo manager.
func (l *Loop) History() *history.Manager {
	return l.history
}

// Stats returns a snapshot of the dispatch metrics.
func (l *Loop) Stats() Stats {
	return l.metrics.Snapshot()
}

func (l *Loop) renderPrompt() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return strings.ReplaceAll(l.prompt, "{group}", l.group)
}

// dispatch handles one input line.
func (l *Loop) dispatch(ctx context.Context, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	p, err := command.Parse(line)
	if err != nil {
		l.printer.Errorf("%v", err)
		return
	}

	cmd, group, err := l.resolve(p)
	if err != nil {
		l.reportResolve(p, err)
		return
	}

	name := group + "." + p.Name
	if desc, ok := l.resolver.Descriptor(group, p.Name); ok {
		name = group + "." + desc.Name
	}

	start := time.Now()
	err = l.execute(ctx, name, cmd)
	l.metrics.Record(name, time.Since(start), err)

	if err != nil {
		l.log.Debugw("command failed", "command", name, "error", err)
		l.printer.Errorf("error: %v", err)
	}
}

// resolve tries the current group, then the fallback group.
func (l *Loop) resolve(p command.Parsed) (command.Command, string, error) {
	group := l.Group()
	cmd, err := l.resolver.Resolve(group, p)
	if err == nil {
		return cmd, group, nil
	}
	if !errors.Is(err, command.ErrCommandNotFound) || l.fallback == "" || l.fallback == group {
		return nil, group, err
	}

	cmd, ferr := l.resolver.Resolve(l.fallback, p)
	switch {
	case ferr == nil:
		return cmd, l.fallback, nil
	case errors.Is(ferr, command.ErrCommandNotFound):
		return nil, group, err
	default:
		return nil, l.fallback, ferr
	}
}

func (l *Loop) reportResolve(p command.Parsed, err error) {
	var rerr *command.ResolveError
	if errors.As(err, &rerr) && l.resolver.Known(rerr.Group, rerr.Name) {
		reason := rerr.Reason
		if rerr.Err != nil {
			reason += ": " + rerr.Err.Error()
		}
		l.printer.Errorf("invalid arguments: %s", reason)
		if desc, ok := l.resolver.Descriptor(rerr.Group, rerr.Name); ok {
			l.printer.Println(console.RoleMuted, "usage: "+command.Usage(desc))
		}
		return
	}

	if errors.Is(err, command.ErrCommandNotFound) || errors.Is(err, command.ErrResolveFailed) {
		l.printer.Errorf("invalid command: %s", p.Name)
		if s := l.suggest(p.Name); len(s) > 0 {
			l.printer.Println(console.RoleMuted, "did you mean: "+strings.Join(s, ", ")+"?")
		}
		return
	}

	l.printer.Errorf("error: %v", err)
}

func (l *Loop) suggest(name string) []string {
	candidates := l.resolver.Names(l.Group())
	if l.fallback != "" && l.fallback != l.Group() {
		candidates = append(candidates, l.resolver.Names(l.fallback)...)
	}
	return command.Suggest(name, candidates)
}

// execute runs cmd, routing undoable commands through the history.
func (l *Loop) execute(ctx context.Context, name string, cmd command.Command) (err error) {
	l.mu.RLock()
	recoverPanics := l.recoverPanics
	l.mu.RUnlock()

	if recoverPanics {
		defer func() {
			if r := recover(); r != nil {
				stack := make([]byte, 4096)
				n := runtime.Stack(stack, false)

				l.metrics.RecordPanic(name)
				l.log.Errorw("command panic", "command", name, "panic", r, "stack", string(stack[:n]))
				err = &PanicError{Command: name, Value: r, Stack: stack[:n]}
			}
		}()
	}

	if u, ok := cmd.(command.Undoable); ok {
		return l.history.Execute(ctx, u)
	}
	return cmd.Execute(ctx)
}

type readResult struct {
	line string
	err  error
}

// readLines scans r in a goroutine. The channel is closed at EOF; a read
// error is delivered as the last value.
func readLines(ctx context.Context, r io.Reader) <-chan readResult {
	ch := make(chan readResult)
	go func() {
		defer close(ch)

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 4096), maxLineSize)
		for sc.Scan() {
			select {
			case ch <- readResult{line: sc.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			select {
			case ch <- readResult{err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}
