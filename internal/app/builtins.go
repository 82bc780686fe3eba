package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
	"github.com/dshills/patternshell/internal/repl"
)

// builtinSource marks descriptors of the shell group.
const builtinSource = "builtin:shell"

// registerBuiltins adds the shell group, reachable from every group.
func (app *Application) registerBuiltins() error {
	var errs []error
	add := func(desc command.Descriptor, factory command.Factory) {
		desc.Group = repl.ShellGroup
		desc.Source = builtinSource
		errs = append(errs, app.registry.Register(desc, factory))
	}

	add(command.Descriptor{
		Name:    "help",
		Aliases: []string{"?"},
		Help:    "list commands, or show the usage of one",
		Params: []command.Parameter{
			command.NewParameter("command", command.String, func(c *helpCmd, v string) { c.Name = v }).
				Optional(nil).WithHelp("command to describe"),
		},
	}, func() (command.Command, error) { return &helpCmd{app: app}, nil })

	add(command.Descriptor{
		Name: "groups",
		Help: "list command groups",
	}, app.simple(app.listGroups))

	add(command.Descriptor{
		Name: "use",
		Help: "switch the current group",
		Params: []command.Parameter{
			command.NewParameter("group", command.String, func(c *useCmd, v string) { c.Group = v }),
		},
	}, func() (command.Command, error) { return &useCmd{app: app}, nil })

	add(command.Descriptor{
		Name: "undo",
		Help: "undo the last undoable command",
	}, app.simple(func(ctx context.Context) error {
		info, ok := app.history.PeekUndo()
		if err := app.history.Undo(ctx); err != nil {
			return err
		}
		if ok {
			app.printer.Successf("undid: %s", info.Description)
		}
		return nil
	}))

	add(command.Descriptor{
		Name: "redo",
		Help: "redo the last undone command",
	}, app.simple(func(ctx context.Context) error {
		info, ok := app.history.PeekRedo()
		if err := app.history.Redo(ctx); err != nil {
			return err
		}
		if ok {
			app.printer.Successf("redid: %s", info.Description)
		}
		return nil
	}))

	add(command.Descriptor{
		Name: "history",
		Help: "show the undo and redo stacks",
	}, app.simple(app.showHistory))

	add(command.Descriptor{
		Name: "stats",
		Help: "show command execution statistics",
	}, app.simple(app.showStats))

	add(command.Descriptor{
		Name: "reload",
		Help: "reload scripts",
	}, app.simple(func(context.Context) error {
		if err := app.reloadScripts(app.Config().Scripts); err != nil {
			return err
		}
		app.printer.Successf("%d script(s) loaded", len(app.scripts.Files()))
		return nil
	}))

	add(command.Descriptor{
		Name:    "exit",
		Aliases: []string{"quit"},
		Help:    "leave the shell",
	}, app.simple(func(context.Context) error {
		app.loop.Exit()
		return nil
	}))

	return errors.Join(errs...)
}

// simple wraps fn as a factory of parameterless commands.
func (app *Application) simple(fn func(ctx context.Context) error) command.Factory {
	return func() (command.Command, error) {
		return command.Func(fn), nil
	}
}

type helpCmd struct {
	app  *Application
	Name string
}

func (c *helpCmd) Execute(context.Context) error {
	app := c.app
	group := app.loop.Group()

	if c.Name != "" {
		for _, g := range []string{group, repl.ShellGroup} {
			if desc, ok := app.registry.Descriptor(g, c.Name); ok {
				app.printer.Println(console.RolePlain, command.Usage(desc))
				return nil
			}
		}
		return &command.NotFoundError{Group: group, Name: c.Name}
	}

	if group != repl.ShellGroup {
		app.printer.Println(console.RoleInfo, group+" commands:")
		app.printer.Println(console.RolePlain, command.Summary(app.registry.List(group)))
	}
	app.printer.Println(console.RoleInfo, "shell commands:")
	app.printer.Println(console.RolePlain, command.Summary(app.registry.List(repl.ShellGroup)))
	return nil
}

type useCmd struct {
	app   *Application
	Group string
}

func (c *useCmd) Execute(context.Context) error {
	if err := c.app.loop.SetGroup(c.Group); err != nil {
		return err
	}
	c.app.printer.Successf("using %s", c.Group)
	return nil
}

func (app *Application) listGroups(context.Context) error {
	current := app.loop.Group()
	for _, g := range app.registry.Groups() {
		marker := " "
		if g == current {
			marker = "*"
		}
		app.printer.Printf(console.RolePlain, "%s %-10s %d commands", marker, g, len(app.registry.List(g)))
	}
	return nil
}

func (app *Application) showHistory(context.Context) error {
	undo := app.history.UndoInfo()
	redo := app.history.RedoInfo()
	if len(undo) == 0 && len(redo) == 0 {
		app.printer.Println(console.RoleMuted, "(history is empty)")
		return nil
	}

	// Most recent first.
	for i := len(undo) - 1; i >= 0; i-- {
		app.printer.Printf(console.RolePlain, "  undo  %s  %s", undo[i].Timestamp.Format(time.TimeOnly), undo[i].Description)
	}
	for i := len(redo) - 1; i >= 0; i-- {
		app.printer.Printf(console.RoleMuted, "  redo  %s  %s", redo[i].Timestamp.Format(time.TimeOnly), redo[i].Description)
	}
	return nil
}

func (app *Application) showStats(context.Context) error {
	s := app.loop.Stats()

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tRUNS\tERRORS\tPANICS\tAVG\tMAX")
	for _, cs := range s.Commands {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\n",
			cs.Name, cs.Count, cs.Errors, cs.Panics, cs.Average().Round(time.Microsecond), cs.MaxDuration.Round(time.Microsecond))
	}
	_ = tw.Flush()

	app.printer.Print(console.RolePlain, b.String())
	app.printer.Printf(console.RoleMuted, "%d dispatched, %d failed, %d panicked", s.Dispatches, s.Errors, s.Panics)
	return nil
}
