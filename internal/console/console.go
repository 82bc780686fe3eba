// Package console formats shell output with optional color.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"
)

// Role is the purpose of a piece of output; each role has its own color.
type Role uint8

const (
	RolePlain Role = iota
	RolePrompt
	RoleInfo
	RoleSuccess
	RoleWarn
	RoleError
	RoleMuted
	RoleBanner
)

// String returns the role name used in configuration.
func (r Role) String() string {
	switch r {
	case RolePlain:
		return "plain"
	case RolePrompt:
		return "prompt"
	case RoleInfo:
		return "info"
	case RoleSuccess:
		return "success"
	case RoleWarn:
		return "warn"
	case RoleError:
		return "error"
	case RoleMuted:
		return "muted"
	case RoleBanner:
		return "banner"
	default:
		return "unknown"
	}
}

// Palette maps roles to color names understood by tcell
// ("red", "darkcyan", "#ff8800").
type Palette map[string]string

// DefaultPalette returns the built-in colors.
func DefaultPalette() Palette {
	return Palette{
		"prompt":  "teal",
		"info":    "silver",
		"success": "green",
		"warn":    "yellow",
		"error":   "red",
		"muted":   "gray",
		"banner":  "fuchsia",
	}
}

// Printer writes role-colored text to an output.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	color   bool
	escapes map[Role]string
}

// New creates a printer. Color is used only if enabled is true and out is a
// terminal.
func New(out io.Writer, enabled bool, palette Palette) *Printer {
	p := &Printer{out: out}
	p.Configure(enabled && IsTerminal(out), palette)
	return p
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Configure replaces the color setting and palette. Unknown color names are
// ignored and leave that role uncolored.
func (p *Printer) Configure(color bool, palette Palette) {
	escapes := make(map[Role]string)
	merged := DefaultPalette()
	for k, v := range palette {
		merged[strings.ToLower(k)] = v
	}
	for role := RolePrompt; role <= RoleBanner; role++ {
		if esc, ok := Escape(merged[role.String()]); ok {
			escapes[role] = esc
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.color = color
	p.escapes = escapes
}

// ColorEnabled reports whether escapes are emitted.
func (p *Printer) ColorEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.color
}

// Escape returns the 24-bit ANSI foreground sequence for a color name.
func Escape(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	c := tcell.GetColor(strings.ToLower(name))
	if c == tcell.ColorDefault || !c.Valid() {
		return "", false
	}
	r, g, b := c.RGB()
	if r < 0 {
		return "", false
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b), true
}

const reset = "\x1b[0m"

// Style wraps text in the escape for role when color is enabled.
func (p *Printer) Style(role Role, text string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.styleLocked(role, text)
}

func (p *Printer) styleLocked(role Role, text string) string {
	if !p.color {
		return text
	}
	esc, ok := p.escapes[role]
	if !ok {
		return text
	}
	return esc + text + reset
}

// Print writes text without a trailing newline.
func (p *Printer) Print(role Role, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, p.styleLocked(role, text))
}

// Println writes text followed by a newline.
func (p *Printer) Println(role Role, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, p.styleLocked(role, text)+"\n")
}

// Printf formats and writes a line in the given role.
func (p *Printer) Printf(role Role, format string, args ...any) {
	p.Println(role, fmt.Sprintf(format, args...))
}

// Infof writes an informational line.
func (p *Printer) Infof(format string, args ...any) { p.Printf(RoleInfo, format, args...) }

// Successf writes a success line.
func (p *Printer) Successf(format string, args ...any) { p.Printf(RoleSuccess, format, args...) }

// Warnf writes a warning line.
func (p *Printer) Warnf(format string, args ...any) { p.Printf(RoleWarn, format, args...) }

// Errorf writes an error line.
func (p *Printer) Errorf(format string, args ...any) { p.Printf(RoleError, format, args...) }

// Writer returns an io.Writer writing plain text through the printer.
func (p *Printer) Writer() io.Writer {
	return writerFunc(func(b []byte) (int, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.out.Write(b)
	})
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }
