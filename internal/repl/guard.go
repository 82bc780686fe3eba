package repl

import (
	"fmt"
	"sync/atomic"

	"github.com/dshills/patternshell/internal/command"
)

// ErrAlreadyRunning is returned when a loop is started while another loop
// sharing the same Guard is running.
var ErrAlreadyRunning = fmt.Errorf("%w: command loop already running", command.ErrInvalidOperation)

// Guard allows at most one running loop among the loops that share it.
// The zero value is ready to use.
type Guard struct {
	running atomic.Bool
}

// NewGuard creates a guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Acquire marks a loop as running.
func (g *Guard) Acquire() error {
	if !g.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	return nil
}

// Release marks the running loop as finished.
func (g *Guard) Release() {
	g.running.Store(false)
}

// Held reports whether a loop is running.
func (g *Guard) Held() bool {
	return g.running.Load()
}
