package command

import "context"

// Command is an action resolved by name and executed by the shell.
type Command interface {
	// Execute performs the command.
	Execute(ctx context.Context) error
}

// Undoable is a Command that can reverse its own effect.
// Undoable commands are routed through the undo/redo history.
type Undoable interface {
	Command

	// Undo reverses a previous Execute.
	Undo(ctx context.Context) error
}

// Describer is implemented by commands that can describe themselves for
// history listings.
type Describer interface {
	Description() string
}

// Func adapts a plain function to the Command interface.
type Func func(ctx context.Context) error

// Execute calls f.
func (f Func) Execute(ctx context.Context) error {
	return f(ctx)
}

// Describe returns cmd's description, falling back to fallback when cmd
// does not implement Describer.
func Describe(cmd Command, fallback string) string {
	if d, ok := cmd.(Describer); ok {
		if s := d.Description(); s != "" {
			return s
		}
	}
	return fallback
}
