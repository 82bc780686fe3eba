package patterns

import (
	"errors"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
	"github.com/dshills/patternshell/internal/logging"
)

// Group names.
const (
	GroupCommand  = "command"
	GroupObserver = "observer"
	GroupStrategy = "strategy"
	GroupTemplate = "template"
	GroupFacade   = "facade"
	GroupVariance = "variance"
	GroupData     = "data"
)

// Source marks descriptors registered by this package.
const Source = "builtin:patterns"

// Env is what the pattern commands need from the shell.
type Env struct {
	Printer *console.Printer
	Logger  logging.Logger

	// People backs the data group; nil leaves the group unregistered.
	People PersonStore
}

// Register adds every pattern group to reg.
func Register(reg *command.Registry, env Env) error {
	if env.Printer == nil {
		return &command.ArgumentError{Arg: "Printer", Message: "cannot be nil"}
	}
	env.Logger = logging.Component(env.Logger, "patterns")

	var errs []error
	add := func(desc command.Descriptor, factory command.Factory) {
		desc.Source = Source
		if err := reg.Register(desc, factory); err != nil {
			errs = append(errs, err)
		}
	}

	registerDocument(add, env)
	registerObserver(add, env)
	registerStrategy(add, env)
	registerTemplate(add, env)
	registerFacade(add, env)
	registerVariance(add, env)
	if env.People != nil {
		registerData(add, env)
	}
	env.Logger.Debugw("pattern groups registered", "data", env.People != nil, "errors", len(errs))
	return errors.Join(errs...)
}

type addFunc func(command.Descriptor, command.Factory)
