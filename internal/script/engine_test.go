package script

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
	"github.com/dshills/patternshell/internal/history"
)

const greetScript = `
shell.register{
    group = "tools",
    name = "greet",
    aliases = {"hi"},
    help = "say hello",
    params = {
        {name = "who", help = "who to greet"},
        {name = "times", type = "int", default = 1},
    },
    execute = function(args)
        for i = 1, args.times do
            shell.print("hello", args.who)
        end
    end,
}
`

const counterScript = `
local count = 0

shell.register{
    name = "bump",
    params = {{name = "by", type = "number", default = 1}},
    execute = function(args) count = count + args.by end,
    undo = function(args) count = count - args.by end,
}

shell.register{
    name = "count",
    execute = function() shell.print(count) end,
}

shell.register{
    name = "fail",
    execute = function() error("no luck") end,
}

shell.register{
    name = "spin",
    execute = function() while true do end end,
}
`

func newEngine(t *testing.T) (*Engine, *command.Registry, *bytes.Buffer) {
	t.Helper()
	reg := command.NewRegistry()
	out := &bytes.Buffer{}
	e := NewEngine(reg, console.New(out, false, nil), zaptest.NewLogger(t).Sugar())
	t.Cleanup(e.Close)
	return e, reg, out
}

func resolve(t *testing.T, reg *command.Registry, group, line string) command.Command {
	t.Helper()
	p, err := command.Parse(line)
	require.NoError(t, err)
	cmd, err := command.NewResolver(reg).Resolve(group, p)
	require.NoError(t, err)
	return cmd
}

func TestRegisterAndExecute(t *testing.T) {
	e, reg, out := newEngine(t)
	require.NoError(t, e.LoadString("greet.lua", greetScript))

	desc, ok := reg.Descriptor("tools", "hi")
	require.True(t, ok)
	assert.Equal(t, "greet", desc.Name)
	assert.Equal(t, "script:greet.lua", desc.Source)
	assert.Equal(t, "greet <who> [times=1]", command.Synopsis(desc))

	cmd := resolve(t, reg, "tools", "greet world 2")
	_, undoable := cmd.(command.Undoable)
	assert.False(t, undoable)

	require.NoError(t, cmd.Execute(context.Background()))
	assert.Equal(t, "hello\tworld\nhello\tworld\n", out.String())
	assert.Equal(t, "greet times=2 who=world", command.Describe(cmd, ""))
	assert.Equal(t, []string{"greet.lua"}, e.Files())
}

func TestUndoableScriptCommand(t *testing.T) {
	e, reg, out := newEngine(t)
	require.NoError(t, e.LoadString("counter.lua", counterScript))
	ctx := context.Background()
	hist := history.NewManager(0)

	bump := resolve(t, reg, DefaultGroup, "bump 2.5")
	u, ok := bump.(command.Undoable)
	require.True(t, ok)
	require.NoError(t, hist.Execute(ctx, u))
	require.NoError(t, hist.Execute(ctx, resolve(t, reg, DefaultGroup, "bump").(command.Undoable)))

	require.NoError(t, resolve(t, reg, DefaultGroup, "count").Execute(ctx))
	assert.Equal(t, "3.5\n", out.String())
	out.Reset()

	require.NoError(t, hist.Undo(ctx))
	require.NoError(t, hist.Undo(ctx))
	require.NoError(t, resolve(t, reg, DefaultGroup, "count").Execute(ctx))
	assert.Equal(t, "0\n", out.String())
}

func TestScriptErrorIsReturned(t *testing.T) {
	e, reg, _ := newEngine(t)
	require.NoError(t, e.LoadString("counter.lua", counterScript))

	err := resolve(t, reg, DefaultGroup, "fail").Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no luck")
}

func TestScriptHonorsContext(t *testing.T) {
	e, reg, _ := newEngine(t)
	require.NoError(t, e.LoadString("counter.lua", counterScript))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := resolve(t, reg, DefaultGroup, "spin").Execute(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The state is still usable afterwards.
	require.NoError(t, resolve(t, reg, DefaultGroup, "bump").Execute(context.Background()))
}

func TestArgumentConversion(t *testing.T) {
	e, reg, _ := newEngine(t)
	require.NoError(t, e.LoadString("greet.lua", greetScript))

	p, err := command.Parse("greet world many")
	require.NoError(t, err)
	_, err = command.NewResolver(reg).Resolve("tools", p)
	var rerr *command.ResolveError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "invalid value for times", rerr.Reason)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":       `shell.register{`,
		"no name":      `shell.register{execute = function() end}`,
		"no execute":   `shell.register{name = "x"}`,
		"bad undo":     `shell.register{name = "x", execute = function() end, undo = 3}`,
		"bad type":     `shell.register{name = "x", execute = function() end, params = {{name = "a", type = "date"}}}`,
		"bad default":  `shell.register{name = "x", execute = function() end, params = {{name = "a", type = "int", default = "z"}}}`,
		"param order":  `shell.register{name = "x", execute = function() end, params = {{name = "a", default = "z"}, {name = "b"}}}`,
		"req+default":  `shell.register{name = "x", execute = function() end, params = {{name = "a", required = true, default = "z"}}}`,
		"params table": `shell.register{name = "x", execute = function() end, params = "a"}`,
	}
	for name, code := range tests {
		t.Run(name, func(t *testing.T) {
			e, reg, _ := newEngine(t)
			err := e.LoadString("bad.lua", code)
			var lerr *LoadError
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, "bad.lua", lerr.File)
			assert.Zero(t, reg.Count())
			assert.Empty(t, e.Files())
		})
	}
}

func TestFailedLoadDropsPartialRegistrations(t *testing.T) {
	e, reg, _ := newEngine(t)
	err := e.LoadString("half.lua", `
shell.register{name = "ok", execute = function() end}
error("stop here")
`)
	require.Error(t, err)
	assert.False(t, reg.Has(DefaultGroup, "ok"))
}

func TestSandbox(t *testing.T) {
	e, _, _ := newEngine(t)
	for _, code := range []string{
		`os.exit(1)`,
		`io.write("x")`,
		`dofile("/etc/passwd")`,
		`require("os")`,
	} {
		assert.Error(t, e.LoadString("evil.lua", code), code)
	}
	assert.NoError(t, e.LoadString("ok.lua", `local s = string.upper("a") .. math.floor(1.5) .. table.concat({"x"})`))
}

func TestRegisterOnlyWhileLoading(t *testing.T) {
	e, reg, _ := newEngine(t)
	require.NoError(t, e.LoadString("late.lua", `
shell.register{name = "late", execute = function()
    shell.register{name = "later", execute = function() end}
end}
`))
	err := resolve(t, reg, DefaultGroup, "late").Execute(context.Background())
	assert.ErrorContains(t, err, "only allowed while a script is loading")
	assert.False(t, reg.Has(DefaultGroup, "later"))
}

func TestReloadFile(t *testing.T) {
	e, reg, out := newEngine(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "say.lua")

	write := func(word string) {
		require.NoError(t, os.WriteFile(path, []byte(`
shell.register{name = "say", execute = function() shell.print("`+word+`") end}
shell.register{name = "`+word+`", execute = function() end}
`), 0o644))
	}

	write("one")
	require.NoError(t, e.LoadFile(path))
	require.NoError(t, resolve(t, reg, DefaultGroup, "say").Execute(context.Background()))
	assert.True(t, reg.Has(DefaultGroup, "one"))

	write("two")
	require.NoError(t, e.Reload(path))
	require.NoError(t, resolve(t, reg, DefaultGroup, "say").Execute(context.Background()))
	assert.Equal(t, "one\ntwo\n", out.String())
	assert.False(t, reg.Has(DefaultGroup, "one"))
	assert.True(t, reg.Has(DefaultGroup, "two"))

	assert.Equal(t, 2, e.Unload(path))
	assert.Empty(t, e.Files())
}

func TestLoadDir(t *testing.T) {
	e, reg, _ := newEngine(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`shell.register{name = "a", execute = function() end}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`broken(`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o644))

	err := e.LoadDir(dir)
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, filepath.Join(dir, "b.lua"), lerr.File)
	assert.True(t, reg.Has(DefaultGroup, "a"))
	assert.Equal(t, []string{filepath.Join(dir, "a.lua")}, e.Files())
}

func TestLoadMissingFile(t *testing.T) {
	e, _, _ := newEngine(t)
	err := e.LoadFile(filepath.Join(t.TempDir(), "nope.lua"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClosedEngine(t *testing.T) {
	e, reg, _ := newEngine(t)
	require.NoError(t, e.LoadString("counter.lua", counterScript))
	cmd := resolve(t, reg, DefaultGroup, "count")

	e.Close()
	assert.ErrorIs(t, e.LoadString("x.lua", ""), ErrClosed)
	assert.ErrorIs(t, cmd.Execute(context.Background()), ErrClosed)
}
