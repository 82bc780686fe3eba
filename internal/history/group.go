package history

import (
	"context"
	"fmt"

	"github.com/dshills/patternshell/internal/command"
)

// Compound groups multiple commands as one undo unit.
type Compound struct {
	Name     string
	Commands []command.Undoable
}

// NewCompound creates a new compound command.
func NewCompound(name string, cmds ...command.Undoable) *Compound {
	return &Compound{Name: name, Commands: cmds}
}

// Execute runs all commands in order. If one fails, the ones already run
// are undone.
func (c *Compound) Execute(ctx context.Context) error {
	for i, cmd := range c.Commands {
		if err := cmd.Execute(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.Commands[j].Undo(ctx)
			}
			return fmt.Errorf("compound command '%s' step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Undo reverses all commands in reverse order.
func (c *Compound) Undo(ctx context.Context) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(ctx); err != nil {
			return fmt.Errorf("undo compound command '%s' step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Description returns the compound command's name.
func (c *Compound) Description() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Commands) == 1 {
		return command.Describe(c.Commands[0], "1 operation")
	}
	return fmt.Sprintf("%d operations", len(c.Commands))
}

// BeginGroup opens a group: commands executed until EndGroup become one
// undo entry named name. A group that is already open stays as it is.
func (m *Manager) BeginGroup(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.group == nil {
		m.group = &openGroup{name: name}
	}
}

// EndGroup closes the open group and records its commands as a Compound.
// An empty group records nothing.
func (m *Manager) EndGroup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.group
	m.group = nil
	if g != nil && len(g.cmds) > 0 {
		m.record(NewCompound(g.name, g.cmds...))
	}
}

// CancelGroup closes the open group without recording it. The commands
// keep their effect.
func (m *Manager) CancelGroup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.group = nil
}

// IsGrouping reports whether a group is open.
func (m *Manager) IsGrouping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.group != nil
}

// Transaction runs fn inside a group. If fn fails, the commands it
// executed are undone, newest first, and nothing is recorded.
func (m *Manager) Transaction(ctx context.Context, name string, fn func() error) error {
	m.BeginGroup(name)

	if err := fn(); err != nil {
		m.mu.Lock()
		var cmds []command.Undoable
		if m.group != nil {
			cmds = m.group.cmds
		}
		m.group = nil
		m.mu.Unlock()

		for i := len(cmds) - 1; i >= 0; i-- {
			_ = cmds[i].Undo(ctx)
		}
		return err
	}

	m.EndGroup()
	return nil
}
