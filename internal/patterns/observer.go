package patterns

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
)

// Observer receives values published by a Subject.
type Observer[T any] interface {
	Notify(T)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc[T any] func(T)

// Notify calls f.
func (f ObserverFunc[T]) Notify(v T) { f(v) }

// Subject fans values out to named observers in subscription order.
type Subject[T any] struct {
	mu        sync.RWMutex
	observers map[string]Observer[T]
	order     []string
}

// NewSubject creates a subject without observers.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{observers: make(map[string]Observer[T])}
}

// Attach subscribes o under name.
func (s *Subject[T]) Attach(name string, o Observer[T]) error {
	if o == nil {
		return &command.ArgumentError{Arg: "observer", Message: "cannot be nil"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.observers[name]; ok {
		return fmt.Errorf("%w: %q is already subscribed", command.ErrInvalidOperation, name)
	}
	s.observers[name] = o
	s.order = append(s.order, name)
	return nil
}

// Detach removes the observer subscribed under name.
func (s *Subject[T]) Detach(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.observers[name]; !ok {
		return false
	}
	delete(s.observers, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Publish notifies every observer and returns how many were notified.
// Observers are called without the lock held.
func (s *Subject[T]) Publish(v T) int {
	s.mu.RLock()
	targets := make([]Observer[T], 0, len(s.order))
	for _, name := range s.order {
		targets = append(targets, s.observers[name])
	}
	s.mu.RUnlock()

	for _, o := range targets {
		o.Notify(v)
	}
	return len(targets)
}

// Names returns the subscribed names in subscription order.
func (s *Subject[T]) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

type subscribeCmd struct {
	subject *Subject[string]
	printer *console.Printer
	Name    string
}

func (c *subscribeCmd) Execute(context.Context) error {
	name := c.Name
	err := c.subject.Attach(name, ObserverFunc[string](func(msg string) {
		c.printer.Printf(console.RoleInfo, "[%s] received: %s", name, msg)
	}))
	if err != nil {
		return err
	}
	c.printer.Successf("%s subscribed", name)
	return nil
}

type unsubscribeCmd struct {
	subject *Subject[string]
	printer *console.Printer
	Name    string
}

func (c *unsubscribeCmd) Execute(context.Context) error {
	if !c.subject.Detach(c.Name) {
		return fmt.Errorf("%w: %q is not subscribed", command.ErrInvalidOperation, c.Name)
	}
	c.printer.Successf("%s unsubscribed", c.Name)
	return nil
}

type publishCmd struct {
	subject *Subject[string]
	printer *console.Printer
	Message string
}

func (c *publishCmd) Execute(context.Context) error {
	if n := c.subject.Publish(c.Message); n == 0 {
		c.printer.Warnf("no observers")
	}
	return nil
}

func registerObserver(add addFunc, env Env) {
	subject := NewSubject[string]()
	p := env.Printer

	add(command.Descriptor{
		Group:   GroupObserver,
		Name:    "subscribe",
		Aliases: []string{"sub"},
		Help:    "subscribe a named observer",
		Params: []command.Parameter{
			command.NewParameter("name", command.String, func(c *subscribeCmd, v string) { c.Name = v }),
		},
	}, func() (command.Command, error) { return &subscribeCmd{subject: subject, printer: p}, nil })

	add(command.Descriptor{
		Group:   GroupObserver,
		Name:    "unsubscribe",
		Aliases: []string{"unsub"},
		Help:    "remove a named observer",
		Params: []command.Parameter{
			command.NewParameter("name", command.String, func(c *unsubscribeCmd, v string) { c.Name = v }),
		},
	}, func() (command.Command, error) { return &unsubscribeCmd{subject: subject, printer: p}, nil })

	add(command.Descriptor{
		Group:   GroupObserver,
		Name:    "publish",
		Aliases: []string{"pub"},
		Help:    "send a message to every observer",
		Params: []command.Parameter{
			command.NewParameter("message", command.String, func(c *publishCmd, v string) { c.Message = v }),
		},
	}, func() (command.Command, error) { return &publishCmd{subject: subject, printer: p}, nil })

	add(command.Descriptor{
		Group: GroupObserver,
		Name:  "observers",
		Help:  "list subscribed observers",
	}, func() (command.Command, error) {
		return command.Func(func(context.Context) error {
			names := subject.Names()
			if len(names) == 0 {
				p.Println(console.RoleMuted, "(none)")
				return nil
			}
			p.Println(console.RolePlain, strings.Join(names, "\n"))
			return nil
		}), nil
	})
}
