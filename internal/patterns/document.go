package patterns

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
)

// Document is a word list edited by undoable commands.
type Document struct {
	mu    sync.Mutex
	words []string
}

// Words returns a copy of the document's words.
func (d *Document) Words() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.words))
	copy(out, d.words)
	return out
}

// String joins the words with spaces.
func (d *Document) String() string {
	return strings.Join(d.Words(), " ")
}

func (d *Document) replace(words []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.words = words
}

type appendCmd struct {
	doc  *Document
	Word string
}

func (c *appendCmd) Execute(context.Context) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	c.doc.words = append(c.doc.words, c.Word)
	return nil
}

func (c *appendCmd) Undo(context.Context) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	n := len(c.doc.words)
	if n == 0 || c.doc.words[n-1] != c.Word {
		return fmt.Errorf("document no longer ends with %q", c.Word)
	}
	c.doc.words = c.doc.words[:n-1]
	return nil
}

func (c *appendCmd) Description() string {
	return fmt.Sprintf("append %q", c.Word)
}

type deleteCmd struct {
	doc     *Document
	Count   int
	removed []string
}

func (c *deleteCmd) Execute(context.Context) error {
	if c.Count < 1 {
		return fmt.Errorf("count must be positive, got %d", c.Count)
	}
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	n := len(c.doc.words)
	if c.Count > n {
		return fmt.Errorf("cannot delete %d words from a document of %d", c.Count, n)
	}
	c.removed = append([]string(nil), c.doc.words[n-c.Count:]...)
	c.doc.words = c.doc.words[:n-c.Count]
	return nil
}

func (c *deleteCmd) Undo(context.Context) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	c.doc.words = append(c.doc.words, c.removed...)
	return nil
}

func (c *deleteCmd) Description() string {
	return fmt.Sprintf("delete %d", c.Count)
}

type upperCmd struct {
	doc    *Document
	before []string
}

func (c *upperCmd) Execute(context.Context) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	c.before = append([]string(nil), c.doc.words...)
	for i, w := range c.doc.words {
		c.doc.words[i] = strings.ToUpper(w)
	}
	return nil
}

func (c *upperCmd) Undo(context.Context) error {
	c.doc.replace(append([]string(nil), c.before...))
	return nil
}

func (c *upperCmd) Description() string { return "upper" }

func registerDocument(add addFunc, env Env) {
	doc := &Document{}

	add(command.Descriptor{
		Group: GroupCommand,
		Name:  "append",
		Help:  "append a word to the document",
		Params: []command.Parameter{
			command.NewParameter("word", command.String, func(c *appendCmd, v string) { c.Word = v }),
		},
	}, func() (command.Command, error) { return &appendCmd{doc: doc}, nil })

	add(command.Descriptor{
		Group:   GroupCommand,
		Name:    "delete",
		Aliases: []string{"del"},
		Help:    "delete the last n words",
		Params: []command.Parameter{
			command.NewParameter("n", command.Int, func(c *deleteCmd, v int) { c.Count = v }).Optional(1),
		},
	}, func() (command.Command, error) { return &deleteCmd{doc: doc}, nil })

	add(command.Descriptor{
		Group: GroupCommand,
		Name:  "upper",
		Help:  "upper-case every word",
	}, func() (command.Command, error) { return &upperCmd{doc: doc}, nil })

	add(command.Descriptor{
		Group: GroupCommand,
		Name:  "show",
		Help:  "print the document",
	}, func() (command.Command, error) {
		return command.Func(func(context.Context) error {
			if s := doc.String(); s != "" {
				env.Printer.Println(console.RolePlain, s)
			} else {
				env.Printer.Println(console.RoleMuted, "(empty)")
			}
			return nil
		}), nil
	})
}
