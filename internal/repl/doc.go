// Package repl implements the interactive command loop.
//
// A Loop reads one line at a time, parses it, resolves it against the
// current command group (falling back to the built-in shell group) and
// executes the result. Undoable commands are routed through a
// history.Manager so they can be undone and redone later.
//
// Only one loop may run at a time per Guard. The process that creates
// loops owns the Guard and passes it to each of them.
package repl
