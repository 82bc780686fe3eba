package patterns

import (
	"context"
	"fmt"
	"slices"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
)

// SortStrategy is one interchangeable sorting algorithm.
type SortStrategy interface {
	Name() string
	Sort([]int) []int
}

// Sorter sorts with whatever strategy it currently holds.
type Sorter struct {
	strategy SortStrategy
}

// NewSorter creates a sorter using s.
func NewSorter(s SortStrategy) *Sorter {
	return &Sorter{strategy: s}
}

// SetStrategy swaps the algorithm.
func (s *Sorter) SetStrategy(strategy SortStrategy) {
	s.strategy = strategy
}

// Sort returns a sorted copy of in.
func (s *Sorter) Sort(in []int) []int {
	return s.strategy.Sort(slices.Clone(in))
}

// BubbleSort is the classic exchange sort.
type BubbleSort struct{}

func (BubbleSort) Name() string { return "bubble" }

func (BubbleSort) Sort(a []int) []int {
	for i := len(a) - 1; i > 0; i-- {
		swapped := false
		for j := 0; j < i; j++ {
			if a[j] > a[j+1] {
				a[j], a[j+1] = a[j+1], a[j]
				swapped = true
			}
		}
		if !swapped {
			break
		}
	}
	return a
}

// InsertionSort builds the sorted prefix one element at a time.
type InsertionSort struct{}

func (InsertionSort) Name() string { return "insertion" }

func (InsertionSort) Sort(a []int) []int {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
	return a
}

// BuiltinSort delegates to the standard library.
type BuiltinSort struct{}

func (BuiltinSort) Name() string { return "builtin" }

func (BuiltinSort) Sort(a []int) []int {
	slices.Sort(a)
	return a
}

// Strategies returns the available sort strategies by name.
func Strategies() []SortStrategy {
	return []SortStrategy{BubbleSort{}, InsertionSort{}, BuiltinSort{}}
}

func strategyNames() []string {
	var names []string
	for _, s := range Strategies() {
		names = append(names, s.Name())
	}
	return names
}

type sortCmd struct {
	printer   *console.Printer
	Algorithm string
	Numbers   []int
}

func (c *sortCmd) Execute(context.Context) error {
	for _, s := range Strategies() {
		if s.Name() == c.Algorithm {
			sorted := NewSorter(s).Sort(c.Numbers)
			c.printer.Printf(console.RolePlain, "%s: %v", s.Name(), sorted)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown algorithm %q", command.ErrInvalidArgument, c.Algorithm)
}

func registerStrategy(add addFunc, env Env) {
	p := env.Printer

	add(command.Descriptor{
		Group: GroupStrategy,
		Name:  "sort",
		Help:  "sort numbers with the chosen algorithm",
		Params: []command.Parameter{
			command.NewParameter("algorithm", command.OneOf(strategyNames()...), func(c *sortCmd, v string) { c.Algorithm = v }).
				WithHelp("bubble, insertion or builtin"),
			command.NewParameter("numbers", command.IntList, func(c *sortCmd, v []int) { c.Numbers = v }).
				WithHelp("comma separated integers, e.g. 3,1,2"),
		},
	}, func() (command.Command, error) { return &sortCmd{printer: p}, nil })

	add(command.Descriptor{
		Group: GroupStrategy,
		Name:  "strategies",
		Help:  "list the sort algorithms",
	}, func() (command.Command, error) {
		return command.Func(func(context.Context) error {
			for _, name := range strategyNames() {
				p.Println(console.RolePlain, name)
			}
			return nil
		}), nil
	})
}
