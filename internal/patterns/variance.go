package patterns

import (
	"context"
	"fmt"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
)

// Animal is the common supertype of the demo animals.
type Animal interface {
	Name() string
	Sound() string
}

// Dog is an Animal.
type Dog struct{ name string }

func (d Dog) Name() string  { return d.name }
func (d Dog) Sound() string { return "woof" }

// Cat is an Animal.
type Cat struct{ name string }

func (c Cat) Name() string  { return c.name }
func (c Cat) Sound() string { return "meow" }

// Producer yields values of T. A producer is safe to read as a producer of
// any supertype of T.
type Producer[T any] interface {
	Produce() []T
}

// Consumer accepts values of T. A consumer of T is safe to use as a
// consumer of any subtype of T.
type Consumer[T any] interface {
	Consume(T)
}

// SliceProducer produces a fixed slice.
type SliceProducer[T any] []T

// Produce returns a copy of the slice.
func (s SliceProducer[T]) Produce() []T {
	return append([]T(nil), s...)
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc[T any] func(T)

// Consume calls f.
func (f ConsumerFunc[T]) Consume(v T) { f(v) }

// Widen views a Producer[Sub] as a Producer[Super]. Go generics are
// invariant, so the upcast is passed explicitly.
func Widen[Sub, Super any](p Producer[Sub], up func(Sub) Super) Producer[Super] {
	return widened[Sub, Super]{p: p, up: up}
}

type widened[Sub, Super any] struct {
	p  Producer[Sub]
	up func(Sub) Super
}

func (w widened[Sub, Super]) Produce() []Super {
	in := w.p.Produce()
	out := make([]Super, len(in))
	for i, v := range in {
		out[i] = w.up(v)
	}
	return out
}

// Narrow views a Consumer[Super] as a Consumer[Sub].
func Narrow[Super, Sub any](c Consumer[Super], up func(Sub) Super) Consumer[Sub] {
	return ConsumerFunc[Sub](func(v Sub) { c.Consume(up(v)) })
}

func asAnimal[T Animal](v T) Animal { return v }

type feedCmd struct {
	dogs    Producer[Dog]
	cats    Producer[Cat]
	printer *console.Printer
	Kind    string
}

func (c *feedCmd) Execute(context.Context) error {
	feeder := ConsumerFunc[Animal](func(a Animal) {
		c.printer.Printf(console.RolePlain, "feeding %s (%s)", a.Name(), a.Sound())
	})

	switch c.Kind {
	case "dog":
		dogFeeder := Narrow[Animal, Dog](feeder, asAnimal[Dog])
		for _, d := range c.dogs.Produce() {
			dogFeeder.Consume(d)
		}
	case "cat":
		catFeeder := Narrow[Animal, Cat](feeder, asAnimal[Cat])
		for _, ct := range c.cats.Produce() {
			catFeeder.Consume(ct)
		}
	case "all":
		for _, a := range allAnimals(c.dogs, c.cats) {
			feeder.Consume(a)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", command.ErrInvalidArgument, c.Kind)
	}
	return nil
}

func allAnimals(dogs Producer[Dog], cats Producer[Cat]) []Animal {
	var out []Animal
	out = append(out, Widen(dogs, asAnimal[Dog]).Produce()...)
	out = append(out, Widen(cats, asAnimal[Cat]).Produce()...)
	return out
}

func registerVariance(add addFunc, env Env) {
	dogs := SliceProducer[Dog]{{name: "Rex"}, {name: "Fido"}}
	cats := SliceProducer[Cat]{{name: "Tom"}}
	p := env.Printer

	add(command.Descriptor{
		Group: GroupVariance,
		Name:  "animals",
		Help:  "list dogs and cats as animals",
	}, func() (command.Command, error) {
		return command.Func(func(context.Context) error {
			for _, a := range allAnimals(dogs, cats) {
				p.Printf(console.RolePlain, "%s says %s", a.Name(), a.Sound())
			}
			return nil
		}), nil
	})

	add(command.Descriptor{
		Group: GroupVariance,
		Name:  "feed",
		Help:  "feed animals through an animal feeder",
		Params: []command.Parameter{
			command.NewParameter("kind", command.OneOf("dog", "cat", "all"), func(c *feedCmd, v string) { c.Kind = v }),
		},
	}, func() (command.Command, error) {
		return &feedCmd{dogs: dogs, cats: cats, printer: p}, nil
	})
}
