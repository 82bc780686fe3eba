package command

import "fmt"

// Converter turns a raw argument into a typed value.
type Converter func(raw string) (any, error)

// Setter assigns a converted value onto a command instance.
type Setter func(cmd Command, value any) error

// Parameter describes one positional argument of a command.
type Parameter struct {
	// Index is the argument position. The registry assigns it from the
	// parameter's position in Descriptor.Params.
	Index int

	// Name identifies the parameter in usage and error text.
	Name string

	// Required indicates the argument must be supplied.
	Required bool

	// Help explains the parameter.
	Help string

	// Convert parses the raw argument.
	Convert Converter

	// Default is used when an optional argument is omitted.
	Default any

	// Set assigns the converted (or default) value to the command.
	Set Setter
}

// NewParameter builds a required parameter whose converter produces a V and
// whose setter assigns it onto a command of concrete type C.
func NewParameter[C Command, V any](name string, conv func(string) (V, error), set func(C, V)) Parameter {
	return Parameter{
		Name:     name,
		Required: true,
		Convert: func(raw string) (any, error) {
			return conv(raw)
		},
		Set: func(cmd Command, value any) error {
			target, ok := cmd.(C)
			if !ok {
				return fmt.Errorf("parameter %q: command is %T", name, cmd)
			}
			v, ok := value.(V)
			if !ok {
				return fmt.Errorf("parameter %q: value %v is %T", name, value, value)
			}
			set(target, v)
			return nil
		},
	}
}

// Optional returns a copy of p that is not required and defaults to def.
func (p Parameter) Optional(def any) Parameter {
	p.Required = false
	p.Default = def
	return p
}

// WithHelp returns a copy of p with help text set.
func (p Parameter) WithHelp(help string) Parameter {
	p.Help = help
	return p
}

// Descriptor is the metadata of a registered command.
type Descriptor struct {
	// Group is the namespace the command is registered under.
	Group string

	// Name is the command name typed by the user.
	Name string

	// Aliases are alternative names resolving to the same command.
	Aliases []string

	// Help is a one-line description.
	Help string

	// Params are the positional parameters, in argument order.
	Params []Parameter

	// Source records who registered the command ("builtin", "script:x.lua").
	Source string
}

// Parameter returns the parameter with the given name.
func (d Descriptor) Parameter(name string) (Parameter, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// RequiredCount returns the number of required parameters.
func (d Descriptor) RequiredCount() int {
	n := 0
	for _, p := range d.Params {
		if p.Required {
			n++
		}
	}
	return n
}
