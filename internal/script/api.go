package script

import (
	"context"
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
)

// DefaultGroup receives script commands registered without a group.
const DefaultGroup = "script"

// installAPI sets the global shell table.
func (e *Engine) installAPI() {
	mod := e.L.NewTable()
	e.L.SetField(mod, "register", e.L.NewFunction(e.luaRegister))
	e.L.SetField(mod, "print", e.L.NewFunction(e.luaPrint))
	e.L.SetGlobal("shell", mod)
}

// shell.print(...) writes its arguments separated by tabs.
func (e *Engine) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	if e.printer != nil {
		e.printer.Println(console.RolePlain, strings.Join(parts, "\t"))
	}
	return 0
}

// shell.register(opts) registers a command.
// opts: name, execute (required); group, help, aliases, params, undo.
func (e *Engine) luaRegister(L *lua.LState) int {
	opts := L.CheckTable(1)

	if e.source == "" {
		L.RaiseError("register: only allowed while a script is loading")
		return 0
	}

	name := lua.LVAsString(L.GetField(opts, "name"))
	if name == "" {
		L.ArgError(1, "name is required")
		return 0
	}
	group := lua.LVAsString(L.GetField(opts, "group"))
	if group == "" {
		group = DefaultGroup
	}

	execute, ok := L.GetField(opts, "execute").(*lua.LFunction)
	if !ok {
		L.ArgError(1, "execute must be a function")
		return 0
	}
	var undo *lua.LFunction
	switch v := L.GetField(opts, "undo").(type) {
	case *lua.LFunction:
		undo = v
	case *lua.LNilType:
	default:
		L.ArgError(1, "undo must be a function")
		return 0
	}

	params, err := parseParams(L.GetField(opts, "params"))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}

	desc := command.Descriptor{
		Group:   group,
		Name:    name,
		Aliases: stringList(L.GetField(opts, "aliases")),
		Help:    lua.LVAsString(L.GetField(opts, "help")),
		Params:  params,
		Source:  e.source,
	}

	factory := func() (command.Command, error) {
		c := &scriptCmd{
			engine:  e,
			name:    name,
			execute: execute,
			args:    make(map[string]any),
		}
		if undo != nil {
			return &undoableScriptCmd{scriptCmd: c, undo: undo}, nil
		}
		return c, nil
	}

	if err := e.reg.Register(desc, factory); err != nil {
		L.RaiseError("register %s.%s: %v", group, name, err)
		return 0
	}
	e.log.Debugw("script command registered", "group", group, "name", name, "source", e.source)
	return 0
}

// parseParams reads the params list:
//
//	{ {name=, type=, required=, default=, help=}, ... }
//
// type is one of string (default), int, number, bool. A parameter with a
// default is optional; otherwise required defaults to true.
func parseParams(v lua.LValue) ([]command.Parameter, error) {
	if v == lua.LNil {
		return nil, nil
	}
	list, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("params must be a list")
	}

	var params []command.Parameter
	for i := 1; i <= list.Len(); i++ {
		entry, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("params[%d] must be a table", i)
		}

		name := lua.LVAsString(entry.RawGetString("name"))
		if name == "" {
			return nil, fmt.Errorf("params[%d]: name is required", i)
		}
		typ := lua.LVAsString(entry.RawGetString("type"))
		if typ == "" {
			typ = "string"
		}
		conv, err := converter(typ)
		if err != nil {
			return nil, fmt.Errorf("params[%d]: %w", i, err)
		}
		def, err := fromLua(typ, entry.RawGetString("default"))
		if err != nil {
			return nil, fmt.Errorf("params[%d]: %w", i, err)
		}

		required := def == nil
		if r := entry.RawGetString("required"); r != lua.LNil {
			required = lua.LVAsBool(r)
		}
		if required && def != nil {
			return nil, fmt.Errorf("params[%d]: required parameter %s cannot have a default", i, name)
		}

		params = append(params, command.Parameter{
			Name:     name,
			Required: required,
			Help:     lua.LVAsString(entry.RawGetString("help")),
			Convert:  conv,
			Default:  def,
			Set:      setArg(name),
		})
	}
	return params, nil
}

func converter(typ string) (command.Converter, error) {
	switch typ {
	case "string":
		return func(raw string) (any, error) { return command.String(raw) }, nil
	case "int":
		return func(raw string) (any, error) { return command.Int(raw) }, nil
	case "number":
		return func(raw string) (any, error) { return command.Float(raw) }, nil
	case "bool":
		return func(raw string) (any, error) { return command.Bool(raw) }, nil
	default:
		return nil, fmt.Errorf("unknown parameter type %q", typ)
	}
}

func setArg(name string) command.Setter {
	return func(cmd command.Command, value any) error {
		sc, ok := cmd.(interface{ setArg(string, any) })
		if !ok {
			return fmt.Errorf("parameter %q: command is %T", name, cmd)
		}
		sc.setArg(name, value)
		return nil
	}
}

func stringList(v lua.LValue) []string {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.Len(); i++ {
		if s := lua.LVAsString(tbl.RawGetInt(i)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// scriptCmd is a command implemented by a Lua function.
type scriptCmd struct {
	engine  *Engine
	name    string
	execute *lua.LFunction
	args    map[string]any
}

func (c *scriptCmd) setArg(name string, v any) {
	c.args[name] = v
}

func (c *scriptCmd) Execute(ctx context.Context) error {
	return c.engine.call(ctx, c.execute, c.args)
}

func (c *scriptCmd) Description() string {
	if len(c.args) == 0 {
		return c.name
	}
	keys := make([]string, 0, len(c.args))
	for k := range c.args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := []string{c.name}
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, c.args[k]))
	}
	return strings.Join(parts, " ")
}

// undoableScriptCmd is a script command with an undo function.
type undoableScriptCmd struct {
	*scriptCmd
	undo *lua.LFunction
}

func (c *undoableScriptCmd) Undo(ctx context.Context) error {
	return c.engine.call(ctx, c.undo, c.args)
}
