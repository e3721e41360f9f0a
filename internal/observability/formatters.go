// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-studio/internal/readiness"
	"github.com/jonathan/resume-studio/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintReadiness outputs a human-readable readiness checklist.
func (p *Printer) PrintReadiness(report readiness.Report) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Score: %d%% (%d of %d checks passed)\n\n", report.Percentage, report.Passed, report.Total))
	for _, check := range report.Checks {
		mark := "✗"
		if check.Passed {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", mark, check.Label))
	}

	p.printBox("RESUME READINESS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTailorResults outputs a summary of a tailor analysis.
func (p *Printer) PrintTailorResults(results *types.TailorResults) {
	if results == nil {
		return
	}

	var sb strings.Builder

	if len(results.MissingKeywords) > 0 {
		sb.WriteString("Missing Keywords:\n")
		count := min(len(results.MissingKeywords), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", results.MissingKeywords[i]))
		}
		if len(results.MissingKeywords) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(results.MissingKeywords)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if results.SummarySuggestion != "" {
		sb.WriteString("Summary Suggestion:\n")
		sb.WriteString("  " + results.SummarySuggestion + "\n\n")
	}

	if len(results.BulletSuggestions) > 0 {
		sb.WriteString("Bullet Suggestions:\n")
		for _, s := range results.BulletSuggestions {
			sb.WriteString(fmt.Sprintf("  • %s[%d] bullet %d (%d options)\n", s.Section, s.ItemIndex, s.BulletIndex, len(s.Options)))
		}
	}

	p.printBox("TAILOR RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}
