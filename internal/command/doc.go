// Package command provides the named-command machinery behind the shell.
//
// A command line goes through three steps before anything runs:
//
//	parsed, err := command.Parse("move 5 10")   // name + positional args
//	cmd, err := resolver.Resolve("main", parsed) // registry lookup + binding
//	err = cmd.Execute(ctx)
//
// # Registration
//
// Commands are registered explicitly. A Descriptor names the command, its
// group and its parameters; a Factory builds a fresh instance for every
// resolution:
//
//	reg := command.NewRegistry()
//	reg.Register(command.Descriptor{
//	    Group: "main",
//	    Name:  "move",
//	    Params: []command.Parameter{
//	        command.NewParameter("x", command.Int, func(c *Move, v int) { c.X = v }),
//	        command.NewParameter("y", command.Int, func(c *Move, v int) { c.Y = v }).Optional(0),
//	    },
//	}, func() (command.Command, error) { return &Move{}, nil })
//
// # Binding
//
// The Resolver converts each positional argument with its parameter's
// Converter and hands the typed value to the parameter's Setter. Optional
// parameters fall back to their default. Too many arguments, a missing
// required argument or a failed conversion yield a ResolveError.
package command
