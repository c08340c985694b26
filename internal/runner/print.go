package runner

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
)

const resultLineWidth = 79

var (
	stylePassed = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Bold(true)
	styleFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
	styleSkip   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
	styleDiff   = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa"))
)

// Printer renders run results in the familiar one-line-per-hook layout.
type Printer struct {
	w       io.Writer
	color   bool
	verbose bool
}

// NewPrinter creates a Printer writing to w. With color false, status words
// are printed plain.
func NewPrinter(w io.Writer, color, verbose bool) *Printer {
	return &Printer{w: w, color: color, verbose: verbose}
}

func (p *Printer) status(res *Result) string {
	switch {
	case res.Skipped:
		return p.render(styleSkip, "Skipped")
	case res.Failed():
		return p.render(styleFailed, "Failed")
	default:
		return p.render(stylePassed, "Passed")
	}
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

// Print writes one result: the name-dots-status line, then in verbose mode or
// on failure the hook's output, modified-file notices and any diffs.
func (p *Printer) Print(res *Result) {
	name := res.Hook.Name
	status := p.status(res)

	dots := resultLineWidth - len(name) - len(statusWord(res))
	if dots < 1 {
		dots = 1
	}
	fmt.Fprintf(p.w, "%s%s%s\n", name, strings.Repeat(".", dots), status)

	verbose := p.verbose || res.Hook.Verbose
	if res.Skipped || (!res.Failed() && !verbose) {
		return
	}

	fmt.Fprintf(p.w, "- hook id: %s\n", res.Hook.ID)
	if res.Code != 0 {
		fmt.Fprintf(p.w, "- exit code: %d\n", res.Code)
	}
	if len(res.ModifiedFiles) > 0 {
		fmt.Fprintf(p.w, "- files were modified by this hook\n")
	}
	if len(res.Output) > 0 {
		fmt.Fprintln(p.w)
		p.w.Write(res.Output)
		if res.Output[len(res.Output)-1] != '\n' {
			fmt.Fprintln(p.w)
		}
	}
	for _, diff := range res.Diffs {
		fmt.Fprint(p.w, p.render(styleDiff, diff))
	}
}

// PrintAll writes every result in order.
func (p *Printer) PrintAll(results []*Result) {
	for _, res := range results {
		p.Print(res)
	}
}

func statusWord(res *Result) string {
	switch {
	case res.Skipped:
		return "Skipped"
	case res.Failed():
		return "Failed"
	default:
		return "Passed"
	}
}
