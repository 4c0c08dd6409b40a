// Package console echoes maintenance progress to the terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Width is the column the status markers are aligned to.
const Width = 60

// Printer writes fixed-width progress lines with colored status markers.
// A disabled Printer writes nothing.
type Printer struct {
	out     io.Writer
	enabled bool
	done    *color.Color
	failed  *color.Color
}

// New creates a printer writing to out. When enabled is false every call is a no-op.
func New(out io.Writer, enabled bool) *Printer {
	return &Printer{
		out:     out,
		enabled: enabled,
		done:    color.New(color.FgGreen),
		failed:  color.New(color.FgRed),
	}
}

// Stdout creates a printer on standard output.
func Stdout(enabled bool) *Printer {
	return New(os.Stdout, enabled)
}

// Discard returns a printer that never writes.
func Discard() *Printer {
	return New(io.Discard, false)
}

// Enabled reports whether the printer writes anything.
func (p *Printer) Enabled() bool {
	return p != nil && p.enabled
}

// Done prints msg followed by a green [DONE] marker.
func (p *Printer) Done(msg string) {
	if !p.Enabled() {
		return
	}
	p.done.Fprintln(p.out, FixedWidth(msg, Width)+"\t[DONE]")
}

// Error prints msg followed by a red [ERROR] marker.
func (p *Printer) Error(msg string) {
	if !p.Enabled() {
		return
	}
	p.failed.Fprintln(p.out, FixedWidth(msg, Width)+"\t[ERROR]")
}

// Line prints msg unchanged.
func (p *Printer) Line(msg string) {
	if !p.Enabled() {
		return
	}
	fmt.Fprintln(p.out, msg)
}

// FixedWidth breaks text into lines of width runes and pads the last line
// with spaces so that a trailing marker lines up.
func FixedWidth(text string, width int) string {
	runes := []rune(text)
	var lines []string
	for len(runes) > width {
		lines = append(lines, string(runes[:width]))
		runes = runes[width:]
	}
	last := strings.TrimLeft(string(runes), " ")
	if pad := width - len([]rune(last)); pad > 0 {
		last += strings.Repeat(" ", pad)
	}
	lines = append(lines, last)
	return strings.Join(lines, "\n")
}
