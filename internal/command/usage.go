package command

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// Usage renders the synopsis and parameter help of a command:
//
//	move <x> [y=0]
//	  x  horizontal offset
//	  y  vertical offset
func Usage(desc Descriptor) string {
	var b strings.Builder
	b.WriteString(Synopsis(desc))
	if desc.Help != "" {
		b.WriteString("\n  ")
		b.WriteString(desc.Help)
	}
	if len(desc.Aliases) > 0 {
		fmt.Fprintf(&b, "\n  aliases: %s", strings.Join(desc.Aliases, ", "))
	}

	hasHelp := false
	for _, p := range desc.Params {
		if p.Help != "" {
			hasHelp = true
			break
		}
	}
	if !hasHelp {
		return b.String()
	}

	b.WriteString("\n")
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, p := range desc.Params {
		fmt.Fprintf(tw, "    %s\t%s\n", p.Name, p.Help)
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// Synopsis renders the one-line form "name <required> [optional=default]".
func Synopsis(desc Descriptor) string {
	var b strings.Builder
	b.WriteString(desc.Name)
	for _, p := range desc.Params {
		b.WriteByte(' ')
		switch {
		case p.Required:
			fmt.Fprintf(&b, "<%s>", p.Name)
		case p.Default != nil:
			fmt.Fprintf(&b, "[%s=%v]", p.Name, p.Default)
		default:
			fmt.Fprintf(&b, "[%s]", p.Name)
		}
	}
	return b.String()
}

// Summary renders a two-column table of synopsis and help for descs.
func Summary(descs []Descriptor) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 3, ' ', 0)
	for _, d := range descs {
		fmt.Fprintf(tw, "  %s\t%s\n", Synopsis(d), d.Help)
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}
