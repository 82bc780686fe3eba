package patterns

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
)

// LineItem is one row of a report.
type LineItem struct {
	Name     string
	Quantity int
	Price    float64
}

// Total returns quantity times price.
func (li LineItem) Total() float64 {
	return float64(li.Quantity) * li.Price
}

// ReportFormat supplies the steps RenderReport fills in.
type ReportFormat interface {
	Header(title string) string
	Row(item LineItem) string
	Footer(total float64) string
}

// RenderReport renders items with the fixed skeleton header, rows, footer.
func RenderReport(f ReportFormat, title string, items []LineItem) string {
	var b strings.Builder
	b.WriteString(f.Header(title))
	var total float64
	for _, it := range items {
		b.WriteString(f.Row(it))
		total += it.Total()
	}
	b.WriteString(f.Footer(total))
	return strings.TrimRight(b.String(), "\n")
}

// TextReport renders aligned plain text.
type TextReport struct{}

func (TextReport) Header(title string) string {
	return fmt.Sprintf("%s\n%s\n", title, strings.Repeat("=", len(title)))
}

func (TextReport) Row(it LineItem) string {
	return fmt.Sprintf("%-12s %4d x %8.2f = %9.2f\n", it.Name, it.Quantity, it.Price, it.Total())
}

func (TextReport) Footer(total float64) string {
	return fmt.Sprintf("%-12s %27.2f\n", "total", total)
}

// CSVReport renders comma separated values.
type CSVReport struct{}

func (CSVReport) Header(string) string { return "name,quantity,price,total\n" }

func (CSVReport) Row(it LineItem) string {
	return fmt.Sprintf("%s,%d,%.2f,%.2f\n", it.Name, it.Quantity, it.Price, it.Total())
}

func (CSVReport) Footer(total float64) string { return fmt.Sprintf("total,,,%.2f\n", total) }

// MarkdownReport renders a markdown table.
type MarkdownReport struct{}

func (MarkdownReport) Header(title string) string {
	return fmt.Sprintf("# %s\n\n| Item | Qty | Price | Total |\n|---|---:|---:|---:|\n", title)
}

func (MarkdownReport) Row(it LineItem) string {
	return fmt.Sprintf("| %s | %d | %.2f | %.2f |\n", it.Name, it.Quantity, it.Price, it.Total())
}

func (MarkdownReport) Footer(total float64) string {
	return fmt.Sprintf("| **total** | | | %.2f |\n", total)
}

var reportFormats = map[string]ReportFormat{
	"text":     TextReport{},
	"csv":      CSVReport{},
	"markdown": MarkdownReport{},
}

// sampleItems is the data every report renders.
var sampleItems = []LineItem{
	{Name: "widget", Quantity: 4, Price: 2.50},
	{Name: "gadget", Quantity: 1, Price: 19.99},
	{Name: "gizmo", Quantity: 10, Price: 0.75},
}

type reportCmd struct {
	printer *console.Printer
	Format  string
	Title   string
}

func (c *reportCmd) Execute(context.Context) error {
	f, ok := reportFormats[c.Format]
	if !ok {
		return fmt.Errorf("%w: unknown format %q", command.ErrInvalidArgument, c.Format)
	}
	c.printer.Println(console.RolePlain, RenderReport(f, c.Title, sampleItems))
	return nil
}

func registerTemplate(add addFunc, env Env) {
	add(command.Descriptor{
		Group: GroupTemplate,
		Name:  "report",
		Help:  "render the sample report",
		Params: []command.Parameter{
			command.NewParameter("format", command.OneOf("text", "csv", "markdown"), func(c *reportCmd, v string) { c.Format = v }),
			command.NewParameter("title", command.String, func(c *reportCmd, v string) { c.Title = v }).Optional("Report"),
		},
	}, func() (command.Command, error) { return &reportCmd{printer: env.Printer}, nil })
}
