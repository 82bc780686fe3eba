// Package history provides undo/redo for shell commands.
//
// The Manager executes command.Undoable values and keeps two stacks:
//
//	h := history.NewManager(100) // keep at most 100 undo entries
//
//	h.Execute(ctx, cmd) // run, push on undo stack, clear redo stack
//	h.Undo(ctx)         // pop undo stack, cmd.Undo, push on redo stack
//	h.Redo(ctx)         // pop redo stack, cmd.Execute, push on undo stack
//
// Executing a new command after an undo discards the redo history.
// Undo and Redo on an empty stack fail with ErrNothingToUndo and
// ErrNothingToRedo, both matching command.ErrInvalidOperation.
//
// # Command Grouping
//
// Several commands can be recorded as a single undo unit:
//
//	h.Transaction(ctx, "import", func() error {
//	    // ... several h.Execute calls ...
//	})
package history
