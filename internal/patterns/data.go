package patterns

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
	"github.com/dshills/patternshell/internal/store"
)

// PersonStore is the data service used by the data group.
type PersonStore interface {
	Create(ctx context.Context, p *store.Person) error
	Get(ctx context.Context, id uint) (*store.Person, error)
	List(ctx context.Context, limit int) ([]store.Person, error)
	Update(ctx context.Context, p *store.Person) error
	Delete(ctx context.Context, id uint) error
}

// personID parses a positive record id.
func personID(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%q is not a record id", raw)
	}
	return uint(n), nil
}

type addPersonCmd struct {
	people  PersonStore
	printer *console.Printer
	Name    string
	Age     int
	person  *store.Person
}

func (c *addPersonCmd) Execute(ctx context.Context) error {
	if c.Age < 0 {
		return fmt.Errorf("%w: age cannot be negative", command.ErrInvalidArgument)
	}
	if c.person == nil {
		c.person = &store.Person{Name: c.Name, Age: c.Age}
	}
	// On redo the person keeps the id assigned by the first insert.
	if err := c.people.Create(ctx, c.person); err != nil {
		return err
	}
	c.printer.Successf("added #%d %s", c.person.ID, c.person.Name)
	return nil
}

func (c *addPersonCmd) Undo(ctx context.Context) error {
	return c.people.Delete(ctx, c.person.ID)
}

func (c *addPersonCmd) Description() string {
	return fmt.Sprintf("add %s", c.Name)
}

type renamePersonCmd struct {
	people  PersonStore
	printer *console.Printer
	ID      uint
	Name    string
	oldName string
}

func (c *renamePersonCmd) Execute(ctx context.Context) error {
	p, err := c.people.Get(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("#%d: %w", c.ID, err)
	}
	c.oldName = p.Name
	p.Name = c.Name
	if err := c.people.Update(ctx, p); err != nil {
		return err
	}
	c.printer.Successf("renamed #%d %s -> %s", c.ID, c.oldName, c.Name)
	return nil
}

func (c *renamePersonCmd) Undo(ctx context.Context) error {
	p, err := c.people.Get(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("#%d: %w", c.ID, err)
	}
	p.Name = c.oldName
	return c.people.Update(ctx, p)
}

func (c *renamePersonCmd) Description() string {
	return fmt.Sprintf("rename #%d to %s", c.ID, c.Name)
}

type getPersonCmd struct {
	people  PersonStore
	printer *console.Printer
	ID      uint
}

func (c *getPersonCmd) Execute(ctx context.Context) error {
	p, err := c.people.Get(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("#%d: %w", c.ID, err)
	}
	c.printer.Printf(console.RolePlain, "#%d %s (age %d)", p.ID, p.Name, p.Age)
	return nil
}

type removePersonCmd struct {
	people  PersonStore
	printer *console.Printer
	ID      uint
}

func (c *removePersonCmd) Execute(ctx context.Context) error {
	if err := c.people.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("#%d: %w", c.ID, err)
	}
	c.printer.Successf("removed #%d", c.ID)
	return nil
}

func registerData(add addFunc, env Env) {
	people := env.People
	p := env.Printer

	add(command.Descriptor{
		Group: GroupData,
		Name:  "add",
		Help:  "add a person",
		Params: []command.Parameter{
			command.NewParameter("name", command.String, func(c *addPersonCmd, v string) { c.Name = v }),
			command.NewParameter("age", command.Int, func(c *addPersonCmd, v int) { c.Age = v }).Optional(0),
		},
	}, func() (command.Command, error) { return &addPersonCmd{people: people, printer: p}, nil })

	add(command.Descriptor{
		Group:   GroupData,
		Name:    "list",
		Aliases: []string{"ls"},
		Help:    "list people",
	}, func() (command.Command, error) {
		return command.Func(func(ctx context.Context) error {
			all, err := people.List(ctx, 0)
			if err != nil {
				return err
			}
			if len(all) == 0 {
				p.Println(console.RoleMuted, "(no records)")
			}
			for _, person := range all {
				p.Printf(console.RolePlain, "#%d %s (age %d)", person.ID, person.Name, person.Age)
			}
			return nil
		}), nil
	})

	add(command.Descriptor{
		Group: GroupData,
		Name:  "get",
		Help:  "show one person",
		Params: []command.Parameter{
			command.NewParameter("id", personID, func(c *getPersonCmd, v uint) { c.ID = v }),
		},
	}, func() (command.Command, error) { return &getPersonCmd{people: people, printer: p}, nil })

	add(command.Descriptor{
		Group: GroupData,
		Name:  "rename",
		Help:  "rename a person",
		Params: []command.Parameter{
			command.NewParameter("id", personID, func(c *renamePersonCmd, v uint) { c.ID = v }),
			command.NewParameter("name", command.String, func(c *renamePersonCmd, v string) { c.Name = v }),
		},
	}, func() (command.Command, error) { return &renamePersonCmd{people: people, printer: p}, nil })

	add(command.Descriptor{
		Group:   GroupData,
		Name:    "remove",
		Aliases: []string{"rm"},
		Help:    "delete a person",
		Params: []command.Parameter{
			command.NewParameter("id", personID, func(c *removePersonCmd, v uint) { c.ID = v }),
		},
	}, func() (command.Command, error) { return &removePersonCmd{people: people, printer: p}, nil })
}
