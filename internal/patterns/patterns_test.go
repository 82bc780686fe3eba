package patterns

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
	"github.com/dshills/patternshell/internal/history"
)

type harness struct {
	reg      *command.Registry
	resolver *command.Resolver
	history  *history.Manager
	out      *bytes.Buffer
}

func newHarness(t *testing.T, people PersonStore) *harness {
	t.Helper()
	h := &harness{
		reg:     command.NewRegistry(),
		history: history.NewManager(0),
		out:     &bytes.Buffer{},
	}
	h.resolver = command.NewResolver(h.reg)
	require.NoError(t, Register(h.reg, Env{
		Printer: console.New(h.out, false, nil),
		People:  people,
	}))
	return h
}

// run resolves line in group and executes it the way the shell does.
func (h *harness) run(t *testing.T, group, line string) error {
	t.Helper()
	p, err := command.Parse(line)
	require.NoError(t, err)
	cmd, err := h.resolver.Resolve(group, p)
	if err != nil {
		return err
	}
	if u, ok := cmd.(command.Undoable); ok {
		return h.history.Execute(context.Background(), u)
	}
	return cmd.Execute(context.Background())
}

func (h *harness) output() string {
	s := h.out.String()
	h.out.Reset()
	return s
}

func TestRegisterGroups(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, []string{
		GroupCommand, GroupFacade, GroupObserver, GroupStrategy, GroupTemplate, GroupVariance,
	}, h.reg.Groups())

	for _, d := range h.reg.List(GroupCommand) {
		assert.Equal(t, Source, d.Source)
	}

	h = newHarness(t, newMemPeople())
	assert.Contains(t, h.reg.Groups(), GroupData)
}

func TestRegisterRequiresPrinter(t *testing.T) {
	err := Register(command.NewRegistry(), Env{})
	assert.ErrorIs(t, err, command.ErrInvalidArgument)
}

func TestDocumentUndoRedo(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.run(t, GroupCommand, "append hello"))
	require.NoError(t, h.run(t, GroupCommand, "append big"))
	require.NoError(t, h.run(t, GroupCommand, "append world"))
	require.NoError(t, h.run(t, GroupCommand, "show"))
	assert.Equal(t, "hello big world\n", h.output())

	require.NoError(t, h.run(t, GroupCommand, "del 2"))
	require.NoError(t, h.run(t, GroupCommand, "upper"))
	require.NoError(t, h.run(t, GroupCommand, "show"))
	assert.Equal(t, "HELLO\n", h.output())
	assert.Equal(t, 5, h.history.UndoCount())

	require.NoError(t, h.history.Undo(ctx))
	require.NoError(t, h.history.Undo(ctx))
	require.NoError(t, h.run(t, GroupCommand, "show"))
	assert.Equal(t, "hello big world\n", h.output())

	require.NoError(t, h.history.Redo(ctx))
	require.NoError(t, h.run(t, GroupCommand, "show"))
	assert.Equal(t, "hello\n", h.output())

	info, ok := h.history.PeekUndo()
	require.True(t, ok)
	assert.Equal(t, "delete 2", info.Description)
}

func TestDocumentDeleteTooMany(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.run(t, GroupCommand, "append one"))

	err := h.run(t, GroupCommand, "delete 3")
	assert.ErrorContains(t, err, "cannot delete 3 words")
	assert.Equal(t, 1, h.history.UndoCount())

	assert.ErrorContains(t, h.run(t, GroupCommand, "delete 0"), "must be positive")
}

func TestDocumentShowEmpty(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.run(t, GroupCommand, "show"))
	assert.Equal(t, "(empty)\n", h.output())
}

func TestObserverCommands(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.run(t, GroupObserver, "publish hi"))
	assert.Contains(t, h.output(), "no observers")

	require.NoError(t, h.run(t, GroupObserver, "subscribe alice"))
	require.NoError(t, h.run(t, GroupObserver, "sub bob"))
	assert.ErrorIs(t, h.run(t, GroupObserver, "subscribe bob"), command.ErrInvalidOperation)
	h.output()

	require.NoError(t, h.run(t, GroupObserver, "publish news"))
	assert.Equal(t, "[alice] received: news\n[bob] received: news\n", h.output())

	require.NoError(t, h.run(t, GroupObserver, "unsubscribe alice"))
	assert.ErrorIs(t, h.run(t, GroupObserver, "unsub alice"), command.ErrInvalidOperation)
	h.output()

	require.NoError(t, h.run(t, GroupObserver, "observers"))
	assert.Equal(t, "bob\n", h.output())
}

func TestSubject(t *testing.T) {
	s := NewSubject[int]()
	var got []int
	require.NoError(t, s.Attach("a", ObserverFunc[int](func(v int) { got = append(got, v) })))
	require.NoError(t, s.Attach("b", ObserverFunc[int](func(v int) { got = append(got, v*10) })))
	assert.Error(t, s.Attach("c", nil))

	assert.Equal(t, 2, s.Publish(3))
	assert.Equal(t, []int{3, 30}, got)

	assert.True(t, s.Detach("a"))
	assert.False(t, s.Detach("a"))
	assert.Equal(t, []string{"b"}, s.Names())
}

func TestSortStrategies(t *testing.T) {
	in := []int{5, -1, 3, 3, 0}
	for _, s := range Strategies() {
		t.Run(s.Name(), func(t *testing.T) {
			got := NewSorter(s).Sort(in)
			assert.Equal(t, []int{-1, 0, 3, 3, 5}, got)
		})
	}
	assert.Equal(t, []int{5, -1, 3, 3, 0}, in, "input must not be modified")

	sorter := NewSorter(BubbleSort{})
	sorter.SetStrategy(InsertionSort{})
	assert.Empty(t, sorter.Sort(nil))
}

func TestSortCommand(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.run(t, GroupStrategy, "sort Insertion 3,1,2"))
	assert.Equal(t, "insertion: [1 2 3]\n", h.output())

	var rerr *command.ResolveError
	require.ErrorAs(t, h.run(t, GroupStrategy, "sort quick 3,1,2"), &rerr)
	assert.Equal(t, "invalid value for algorithm", rerr.Reason)

	require.NoError(t, h.run(t, GroupStrategy, "strategies"))
	assert.Equal(t, "bubble\ninsertion\nbuiltin\n", h.output())
}

func TestRenderReport(t *testing.T) {
	items := []LineItem{{Name: "a", Quantity: 2, Price: 1.5}}

	assert.Equal(t, "name,quantity,price,total\na,2,1.50,3.00\ntotal,,,3.00",
		RenderReport(CSVReport{}, "ignored", items))

	md := RenderReport(MarkdownReport{}, "Sales", items)
	assert.Contains(t, md, "# Sales")
	assert.Contains(t, md, "| a | 2 | 1.50 | 3.00 |")
	assert.Contains(t, md, "| **total** | | | 3.00 |")

	text := RenderReport(TextReport{}, "Sales", items)
	assert.Contains(t, text, "Sales\n=====\n")
}

func TestReportCommand(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.run(t, GroupTemplate, "report markdown Q3"))
	assert.Contains(t, h.output(), "# Q3")

	require.NoError(t, h.run(t, GroupTemplate, "report text"))
	assert.Contains(t, h.output(), "Report\n======")
}

func TestOrderFacade(t *testing.T) {
	f := NewOrderFacade()

	r, err := f.PlaceOrder("book", 2)
	require.NoError(t, err)
	assert.Equal(t, 25.0, r.Amount)
	assert.Equal(t, "TRK-0001", r.Tracking)

	_, err = f.PlaceOrder("book", 10)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = f.PlaceOrder("piano", 1)
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = f.PlaceOrder("lamp", 0)
	assert.ErrorIs(t, err, command.ErrInvalidArgument)

	// Three chairs exceed the payment limit; stock is returned.
	f.Inventory.Release("chair", 2)
	_, err = f.PlaceOrder("chair", 3)
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	_, levels := f.Inventory.Levels()
	assert.Equal(t, 3, levels["chair"])

	f.Cancel(r)
	_, levels = f.Inventory.Levels()
	assert.Equal(t, 5, levels["book"])
	assert.Zero(t, f.Payments.Charged())
}

func TestOrderUndo(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.run(t, GroupFacade, "order lamp"))
	assert.Contains(t, h.output(), "ordered 1 lamp for 30.00")

	require.NoError(t, h.history.Undo(context.Background()))
	assert.Contains(t, h.output(), "cancelled order TRK-0001")

	require.NoError(t, h.run(t, GroupFacade, "stock"))
	out := h.output()
	assert.Contains(t, out, "lamp     2")
	assert.Contains(t, out, "charged: 0.00")
}

func TestVariance(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.run(t, GroupVariance, "animals"))
	assert.Equal(t, "Rex says woof\nFido says woof\nTom says meow\n", h.output())

	require.NoError(t, h.run(t, GroupVariance, "feed cat"))
	assert.Equal(t, "feeding Tom (meow)\n", h.output())

	require.NoError(t, h.run(t, GroupVariance, "feed all"))
	assert.Equal(t, 3, bytes.Count([]byte(h.output()), []byte("feeding")))
}

func TestWidenNarrow(t *testing.T) {
	ints := SliceProducer[int]{1, 2}
	floats := Widen[int, float64](ints, func(v int) float64 { return float64(v) / 2 })
	assert.Equal(t, []float64{0.5, 1}, floats.Produce())

	var seen []float64
	sink := ConsumerFunc[float64](func(v float64) { seen = append(seen, v) })
	intSink := Narrow[float64, int](sink, func(v int) float64 { return float64(v) })
	intSink.Consume(4)
	assert.Equal(t, []float64{4}, seen)
}
