package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/selah/internal/model"
	"github.com/ppiankov/selah/internal/scripture"
)

const rule = "═══════════════════════════════════════════════════════════"

// Renderer writes reports as JSON, Markdown or a terminal summary
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// WriteJSON writes v as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// RenderJSON writes v to path as JSON. A path of "-" writes to stdout.
func (r *Renderer) RenderJSON(v any, path string) error {
	return writeTo(path, func(w io.Writer) error { return r.WriteJSON(w, v) })
}

// RenderMarkdown writes report to path as Markdown. A path of "-" writes to
// stdout.
func (r *Renderer) RenderMarkdown(report *model.MatchReport, path string) error {
	return writeTo(path, func(w io.Writer) error { return r.WriteMarkdown(w, report) })
}

// WriteMarkdown renders a match report as a Markdown document
func (r *Renderer) WriteMarkdown(w io.Writer, report *model.MatchReport) error {
	var b strings.Builder
	q := report.SearchQuery

	fmt.Fprintf(&b, "# Songs for %s\n\n", q.Reference)
	fmt.Fprintf(&b, "> %s\n\n", q.PassageSnippet)
	if report.Matcher != "" {
		fmt.Fprintf(&b, "Matcher: `%s`", report.Matcher)
		if report.Model != "" {
			fmt.Fprintf(&b, " (`%s`)", report.Model)
		}
		b.WriteString("\n\n")
	}

	if report.TotalMatches == 0 {
		b.WriteString("_No songs matched._\n")
	} else {
		b.WriteString("| # | Song | Score | Themes |\n")
		b.WriteString("|---|------|-------|--------|\n")
		for i, m := range report.Matches {
			fmt.Fprintf(&b, "| %d | %s | %.2f | %s |\n",
				i+1, escapeCell(m.Name), m.Score, escapeCell(strings.Join(m.Themes, ", ")))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSummary prints a short human-readable report
func (r *Renderer) WriteSummary(w io.Writer, report *model.MatchReport) error {
	var b strings.Builder
	q := report.SearchQuery

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "  %s\n", q.Reference)
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "  %s\n\n", q.PassageSnippet)

	if report.TotalMatches == 0 {
		b.WriteString("  No songs matched.\n")
	}
	for i, m := range report.Matches {
		fmt.Fprintf(&b, "  %2d. %-32s %.2f", i+1, m.Name, m.Score)
		if len(m.Themes) > 0 {
			fmt.Fprintf(&b, "  [%s]", strings.Join(m.Themes, ", "))
		}
		b.WriteByte('\n')
	}

	if report.Matcher != "" {
		fmt.Fprintf(&b, "\n  matcher: %s", report.Matcher)
		if report.Model != "" {
			fmt.Fprintf(&b, "/%s", report.Model)
		}
		if report.Cached {
			b.WriteString(" (cached)")
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WritePassage prints a passage under its canonical reference
func (r *Renderer) WritePassage(w io.Writer, p *scripture.Passage) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n", p.Resolved, p.Text)
	return err
}

// WriteBatchSummary prints per-line outcomes followed by totals
func (r *Renderer) WriteBatchSummary(w io.Writer, report *model.BatchReport) error {
	var b strings.Builder
	for _, item := range report.Items {
		if item.Error != "" {
			fmt.Fprintf(&b, "✗ line %d %q: %s\n", item.Line, item.Input, item.Error)
			continue
		}
		fmt.Fprintf(&b, "✓ %s: %s\n", item.Reference, item.Text)
	}

	b.WriteString("\n" + rule + "\n")
	b.WriteString("  Batch Complete\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "  Total:     %d references\n", report.Total)
	fmt.Fprintf(&b, "  Success:   %d\n", report.Succeeded)
	fmt.Fprintf(&b, "  Failures:  %d\n", report.Failed)
	fmt.Fprintf(&b, "  Duration:  %v\n", report.Duration)

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// writeTo opens path (or stdout for "-") and hands it to write
func writeTo(path string, write func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	return write(f)
}
