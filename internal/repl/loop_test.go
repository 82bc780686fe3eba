package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
	"github.com/dshills/patternshell/internal/history"
)

type echoCmd struct {
	out  io.Writer
	Text string
}

func (c *echoCmd) Execute(context.Context) error {
	_, err := io.WriteString(c.out, c.Text+"\n")
	return err
}

type incCmd struct {
	counter *int
	By      int
}

func (c *incCmd) Execute(context.Context) error {
	*c.counter += c.By
	return nil
}

func (c *incCmd) Undo(context.Context) error {
	*c.counter -= c.By
	return nil
}

type fixture struct {
	registry *command.Registry
	history  *history.Manager
	out      *bytes.Buffer
	printer  *console.Printer
	counter  int
	loop     *Loop
}

func newFixture(t *testing.T, input string) *fixture {
	t.Helper()
	f := &fixture{
		registry: command.NewRegistry(),
		history:  history.NewManager(10),
		out:      &bytes.Buffer{},
	}
	f.printer = console.New(f.out, false, nil)

	f.registry.MustRegister(command.Descriptor{
		Group: "main",
		Name:  "echo",
		Help:  "print text",
		Params: []command.Parameter{
			command.NewParameter("text", command.String, func(c *echoCmd, v string) { c.Text = v }).
				WithHelp("text to print"),
		},
	}, func() (command.Command, error) { return &echoCmd{out: f.printer.Writer()}, nil })

	f.registry.MustRegister(command.Descriptor{
		Group:   "main",
		Name:    "inc",
		Aliases: []string{"+"},
		Params: []command.Parameter{
			command.NewParameter("by", command.Int, func(c *incCmd, v int) { c.By = v }).Optional(1),
		},
	}, func() (command.Command, error) { return &incCmd{counter: &f.counter}, nil })

	f.registry.MustRegister(command.Descriptor{Group: "main", Name: "fail"},
		func() (command.Command, error) {
			return command.Func(func(context.Context) error { return errors.New("kaput") }), nil
		})

	f.registry.MustRegister(command.Descriptor{Group: "main", Name: "boom"},
		func() (command.Command, error) {
			return command.Func(func(context.Context) error { panic("kaboom") }), nil
		})

	f.registry.MustRegister(command.Descriptor{Group: "main", Name: "broken"},
		func() (command.Command, error) { return nil, errors.New("no parts") })

	f.registry.MustRegister(command.Descriptor{Group: "other", Name: "ping"},
		func() (command.Command, error) {
			return command.Func(func(context.Context) error {
				f.printer.Println(console.RolePlain, "pong")
				return nil
			}), nil
		})

	f.registry.MustRegister(command.Descriptor{Group: ShellGroup, Name: "exit", Aliases: []string{"quit"}},
		func() (command.Command, error) {
			return command.Func(func(context.Context) error {
				f.loop.Exit()
				return nil
			}), nil
		})

	f.registry.MustRegister(command.Descriptor{Group: ShellGroup, Name: "use",
		Params: []command.Parameter{
			command.NewParameter("group", command.String, func(c *useCmd, v string) { c.group = v }),
		}},
		func() (command.Command, error) { return &useCmd{loop: f.loop}, nil })

	loop, err := NewLoop(Options{
		Input:         strings.NewReader(input),
		Printer:       f.printer,
		Catalog:       f.registry,
		History:       f.history,
		Logger:        zaptest.NewLogger(t).Sugar(),
		Group:         "main",
		Prompt:        "{group}> ",
		RecoverPanics: true,
	})
	require.NoError(t, err)
	f.loop = loop
	return f
}

type useCmd struct {
	loop  *Loop
	group string
}

func (c *useCmd) Execute(context.Context) error {
	return c.loop.SetGroup(c.group)
}

func (f *fixture) run(t *testing.T) string {
	t.Helper()
	require.NoError(t, f.loop.Run(context.Background()))
	return f.out.String()
}

func TestNewLoopValidation(t *testing.T) {
	p := console.New(&bytes.Buffer{}, false, nil)
	reg := command.NewRegistry()

	tests := map[string]Options{
		"no input":   {Printer: p, Catalog: reg, Group: "g"},
		"no printer": {Input: strings.NewReader(""), Catalog: reg, Group: "g"},
		"no catalog": {Input: strings.NewReader(""), Printer: p, Group: "g"},
		"no group":   {Input: strings.NewReader(""), Printer: p, Catalog: reg},
	}
	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewLoop(opts)
			assert.ErrorIs(t, err, command.ErrInvalidArgument)
		})
	}
}

func TestLoopExecutesLinesInOrder(t *testing.T) {
	f := newFixture(t, "echo one\n\n   \necho two\necho three")
	out := f.run(t)

	one := strings.Index(out, "one\n")
	two := strings.Index(out, "two\n")
	three := strings.Index(out, "three\n")
	require.True(t, one >= 0 && two > one && three > two, out)
	assert.Equal(t, Stopped, f.loop.State())
	assert.Equal(t, uint64(3), f.loop.Stats().Dispatches)
}

func TestLoopPromptShowsGroup(t *testing.T) {
	f := newFixture(t, "use other\nping\n")
	out := f.run(t)

	assert.Contains(t, out, "main> ")
	assert.Contains(t, out, "other> ")
	assert.Contains(t, out, "pong")
	assert.Equal(t, "other", f.loop.Group())
}

func TestLoopBanner(t *testing.T) {
	f := newFixture(t, "")
	f.loop.banner = "hello there"
	out := f.run(t)
	assert.True(t, strings.HasPrefix(out, "hello there\n"), out)
}

func TestLoopInvalidCommand(t *testing.T) {
	f := newFixture(t, "ecko hi\n")
	out := f.run(t)

	assert.Contains(t, out, "invalid command: ecko")
	assert.Contains(t, out, "did you mean: echo")
}

func TestLoopInvalidArguments(t *testing.T) {
	f := newFixture(t, "inc lots\necho\n")
	out := f.run(t)

	assert.Contains(t, out, "invalid arguments: invalid value for by")
	assert.Contains(t, out, "usage: inc [by=1]")
	assert.Contains(t, out, "invalid arguments: missing required argument text")
	assert.Contains(t, out, "usage: echo <text>")
	assert.Zero(t, f.counter)
}

func TestLoopConstructionFailureIsInvalidArguments(t *testing.T) {
	f := newFixture(t, "broken\n")
	out := f.run(t)
	assert.Contains(t, out, "invalid arguments: construction failed: no parts")
}

func TestLoopCommandErrorContinues(t *testing.T) {
	f := newFixture(t, "fail\necho after\n")
	out := f.run(t)

	assert.Contains(t, out, "error: kaput")
	assert.Contains(t, out, "after\n")

	stats, ok := f.loop.metrics.Command("main.fail")
	require.True(t, ok)
	assert.Equal(t, uint64(1), stats.Errors)
}

func TestLoopRecoversPanics(t *testing.T) {
	f := newFixture(t, "boom\necho still-here\n")
	out := f.run(t)

	assert.Contains(t, out, "command main.boom panicked: kaboom")
	assert.Contains(t, out, "still-here\n")
	assert.NotContains(t, out, "invalid arguments")
	assert.Equal(t, uint64(1), f.loop.Stats().Panics)

	boom, ok := f.loop.metrics.Command("main.boom")
	require.True(t, ok)
	assert.Equal(t, uint64(1), boom.Count)
	assert.Equal(t, boom.MaxDuration, boom.MinDuration)
}

func TestLoopPanicsWithoutRecovery(t *testing.T) {
	f := newFixture(t, "boom\n")
	f.loop.SetRecoverPanics(false)

	assert.Panics(t, func() { _ = f.loop.Run(context.Background()) })
	assert.Equal(t, Stopped, f.loop.State())
	assert.False(t, f.loop.guard.Held())
}

func TestLoopUndoableThroughHistory(t *testing.T) {
	f := newFixture(t, "inc 5\n+ 2\n")
	f.run(t)

	assert.Equal(t, 7, f.counter)
	assert.Equal(t, 2, f.history.UndoCount())

	require.NoError(t, f.history.Undo(context.Background()))
	assert.Equal(t, 5, f.counter)

	// Aliases are recorded under the canonical name.
	stats, ok := f.loop.metrics.Command("main.inc")
	require.True(t, ok)
	assert.Equal(t, uint64(2), stats.Count)
}

func TestLoopFallbackGroup(t *testing.T) {
	f := newFixture(t, "echo before\nquit\necho after\n")
	out := f.run(t)

	assert.Contains(t, out, "before")
	assert.NotContains(t, out, "after")
	assert.Equal(t, Stopped, f.loop.State())
}

func TestLoopFallbackDisabled(t *testing.T) {
	f := newFixture(t, "")
	loop, err := NewLoop(Options{
		Input:    strings.NewReader("exit\n"),
		Printer:  f.printer,
		Catalog:  f.registry,
		Group:    "main",
		Fallback: "-",
	})
	require.NoError(t, err)
	require.NoError(t, loop.Run(context.Background()))
	assert.Contains(t, f.out.String(), "invalid command: exit")
}

func TestLoopSetGroupUnknown(t *testing.T) {
	f := newFixture(t, "use nowhere\n")
	out := f.run(t)
	assert.Contains(t, out, `unknown group "nowhere"`)
	assert.Equal(t, "main", f.loop.Group())

	assert.ErrorIs(t, f.loop.SetGroup(""), command.ErrInvalidArgument)
}

func TestLoopRunsOnce(t *testing.T) {
	f := newFixture(t, "")
	f.run(t)

	err := f.loop.Run(context.Background())
	assert.ErrorIs(t, err, command.ErrInvalidOperation)
}

func TestLoopContextCancel(t *testing.T) {
	f := newFixture(t, "")
	pr, pw := io.Pipe()
	defer pw.Close()
	f.loop.in = pr

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.loop.Run(ctx) }()

	require.Eventually(t, func() bool { return f.loop.State() == Running }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
	assert.Equal(t, Stopped, f.loop.State())
}

func TestLoopExitFromOutside(t *testing.T) {
	f := newFixture(t, "")
	pr, pw := io.Pipe()
	defer pw.Close()
	f.loop.in = pr

	done := make(chan error, 1)
	go func() { done <- f.loop.Run(context.Background()) }()

	require.Eventually(t, func() bool { return f.loop.State() == Running }, time.Second, 5*time.Millisecond)
	f.loop.Exit()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after Exit")
	}
	assert.Equal(t, Stopped, f.loop.State())
}

func TestLoopSecondRunningLoopFails(t *testing.T) {
	guard := NewGuard()
	f := newFixture(t, "")
	pr, pw := io.Pipe()
	defer pw.Close()
	f.loop.in = pr
	f.loop.guard = guard

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.loop.Run(ctx) }()
	require.Eventually(t, func() bool { return f.loop.State() == Running }, time.Second, 5*time.Millisecond)

	second, err := NewLoop(Options{
		Input:   strings.NewReader(""),
		Printer: console.New(&bytes.Buffer{}, false, nil),
		Catalog: f.registry,
		Guard:   guard,
		Group:   "main",
	})
	require.NoError(t, err)
	err = second.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.ErrorIs(t, err, command.ErrInvalidOperation)
	assert.Equal(t, Idle, second.State())

	cancel()
	require.NoError(t, <-done)
	assert.False(t, guard.Held())

	// Once the first loop stopped, another may run.
	require.NoError(t, second.Run(context.Background()))
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("tty gone") }

func TestLoopReadError(t *testing.T) {
	f := newFixture(t, "")
	f.loop.in = errReader{}

	err := f.loop.Run(context.Background())
	assert.ErrorContains(t, err, "tty gone")
	assert.Equal(t, Stopped, f.loop.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "cancelling", Cancelling.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestGuard(t *testing.T) {
	var g Guard
	require.NoError(t, g.Acquire())
	assert.True(t, g.Held())
	assert.ErrorIs(t, g.Acquire(), ErrAlreadyRunning)
	g.Release()
	assert.False(t, g.Held())
	assert.NoError(t, g.Acquire())
}
