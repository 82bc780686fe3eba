package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/patternshell/internal/command"
)

// DefaultMaxEntries is used when NewManager is given a non-positive limit.
const DefaultMaxEntries = 1000

// Errors returned by the manager. The first two match
// command.ErrInvalidOperation.
var (
	ErrNothingToUndo = fmt.Errorf("%w: nothing to undo", command.ErrInvalidOperation)
	ErrNothingToRedo = fmt.Errorf("%w: nothing to redo", command.ErrInvalidOperation)
	ErrNilCommand    = &command.ArgumentError{Arg: "cmd", Message: "cannot be nil"}
)

// Info describes an undo or redo entry.
type Info struct {
	ID          uuid.UUID
	Description string
	Timestamp   time.Time
}

type entry struct {
	id   uuid.UUID
	cmd  command.Undoable
	when time.Time
}

func newEntry(cmd command.Undoable) *entry {
	return &entry{id: uuid.New(), cmd: cmd, when: time.Now()}
}

func (e *entry) describe() string {
	return command.Describe(e.cmd, fmt.Sprintf("%T", e.cmd))
}

// stack holds entries with the newest last.
type stack []*entry

func (s *stack) push(e *entry) { *s = append(*s, e) }

func (s *stack) pop() *entry {
	n := len(*s)
	if n == 0 {
		return nil
	}
	e := (*s)[n-1]
	*s = (*s)[:n-1]
	return e
}

func (s stack) top() (Info, bool) {
	if len(s) == 0 {
		return Info{}, false
	}
	e := s[len(s)-1]
	return Info{ID: e.id, Description: e.describe(), Timestamp: e.when}, true
}

func (s stack) list() []Info {
	out := make([]Info, 0, len(s))
	for _, e := range s {
		out = append(out, Info{ID: e.id, Description: e.describe(), Timestamp: e.when})
	}
	return out
}

// trim drops the oldest entries beyond limit.
func (s *stack) trim(limit int) {
	if over := len(*s) - limit; over > 0 {
		*s = append(stack(nil), (*s)[over:]...)
	}
}

// openGroup collects commands between BeginGroup and EndGroup.
type openGroup struct {
	name string
	cmds []command.Undoable
}

// Manager records executed undoable commands and replays them backwards
// (Undo) and forwards (Redo). It is safe for concurrent use; commands run
// without the lock held.
type Manager struct {
	mu     sync.Mutex
	done   stack
	undone stack
	group  *openGroup
	limit  int
}

// NewManager creates a manager keeping at most maxEntries undo entries.
func NewManager(maxEntries int) *Manager {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Manager{limit: maxEntries}
}

// Execute runs cmd and, if it succeeds, records it for undo. Any redo
// history is discarded. A failed command leaves the history untouched.
func (m *Manager) Execute(ctx context.Context, cmd command.Undoable) error {
	if cmd == nil {
		return ErrNilCommand
	}
	if err := cmd.Execute(ctx); err != nil {
		return err
	}
	m.Push(cmd)
	return nil
}

// Push records cmd as executed without running it.
func (m *Manager) Push(cmd command.Undoable) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.undone = nil
	if m.group != nil {
		m.group.cmds = append(m.group.cmds, cmd)
		return
	}
	m.record(cmd)
}

// record appends to the undo stack. Callers hold mu.
func (m *Manager) record(cmd command.Undoable) {
	m.done.push(newEntry(cmd))
	m.undone = nil
	m.done.trim(m.limit)
}

// Undo reverts the newest undo entry and makes it available to Redo.
func (m *Manager) Undo(ctx context.Context) error {
	return m.transfer(&m.done, &m.undone, ErrNothingToUndo, "undo",
		func(e *entry) error { return e.cmd.Undo(ctx) })
}

// Redo executes the newest redo entry again and makes it available to Undo.
func (m *Manager) Redo(ctx context.Context) error {
	return m.transfer(&m.undone, &m.done, ErrNothingToRedo, "redo",
		func(e *entry) error { return e.cmd.Execute(ctx) })
}

// transfer pops from src, runs op unlocked and pushes onto dst. When op
// fails the entry returns to src.
func (m *Manager) transfer(src, dst *stack, empty error, verb string, op func(*entry) error) error {
	m.mu.Lock()
	e := src.pop()
	m.mu.Unlock()
	if e == nil {
		return empty
	}

	err := op(e)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		src.push(e)
		return fmt.Errorf("%s %s: %w", verb, e.describe(), err)
	}
	dst.push(e)
	return nil
}

// CanUndo reports whether Undo has an entry to revert.
func (m *Manager) CanUndo() bool { return m.UndoCount() > 0 }

// CanRedo reports whether Redo has an entry to replay.
func (m *Manager) CanRedo() bool { return m.RedoCount() > 0 }

// UndoCount returns the number of undo entries.
func (m *Manager) UndoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.done)
}

// RedoCount returns the number of redo entries.
func (m *Manager) RedoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undone)
}

// UndoInfo lists the undo entries, oldest first.
func (m *Manager) UndoInfo() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done.list()
}

// RedoInfo lists the redo entries, oldest first.
func (m *Manager) RedoInfo() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.undone.list()
}

// PeekUndo describes the entry the next Undo would revert.
func (m *Manager) PeekUndo() (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done.top()
}

// PeekRedo describes the entry the next Redo would replay.
func (m *Manager) PeekRedo() (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.undone.top()
}

// Clear forgets both stacks and drops any open group.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done, m.undone, m.group = nil, nil, nil
}

// SetMaxEntries changes the undo limit, discarding the oldest entries that
// no longer fit. A non-positive limit restores DefaultMaxEntries.
func (m *Manager) SetMaxEntries(limit int) {
	if limit <= 0 {
		limit = DefaultMaxEntries
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit = limit
	m.done.trim(limit)
}

// MaxEntries returns the undo limit.
func (m *Manager) MaxEntries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limit
}
