// Package report renders validation outcomes as text, JSON, HTML, Markdown
// or PDF.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/khanhnv2901/seca-headers/internal/checker"
	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatHTML, FormatMarkdown, FormatPDF}
}

// ParseFormat accepts a format name in any case; "markdown" is an alias for md.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "markdown" {
		name = string(FormatMarkdown)
	}
	for _, f := range Formats() {
		if string(f) == name {
			return f, nil
		}
	}
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return "", fmt.Errorf("%w: %q (use %s)", sharedErrors.ErrUnsupportedFormat, s, strings.Join(names, ", "))
}

// Binary reports whether the format should not be written to a terminal.
func (f Format) Binary() bool { return f == FormatPDF }

// Options tune rendering.
type Options struct {
	// Color enables ANSI colours in text output.
	Color bool
	// GeneratedAt stamps HTML, Markdown and PDF reports. Zero means now.
	GeneratedAt time.Time
}

// Render writes outcomes to w in the given format.
func Render(w io.Writer, format Format, outcomes []checker.Outcome, opts Options) error {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}

	switch format {
	case FormatText:
		return renderText(w, outcomes, opts)
	case FormatJSON:
		return renderJSON(w, outcomes)
	case FormatHTML:
		return renderHTML(w, outcomes, opts)
	case FormatMarkdown:
		return renderMarkdown(w, outcomes, opts)
	case FormatPDF:
		return renderPDF(w, outcomes, opts)
	default:
		return fmt.Errorf("%w: %q", sharedErrors.ErrUnsupportedFormat, format)
	}
}

// renderJSON emits a bare ValidationResult for a single successful target and
// the full outcome list otherwise.
func renderJSON(w io.Writer, outcomes []checker.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if len(outcomes) == 1 && outcomes[0].Result != nil {
		return enc.Encode(outcomes[0].Result)
	}
	if outcomes == nil {
		outcomes = []checker.Outcome{}
	}
	return enc.Encode(outcomes)
}

// label turns an upper-case enum such as "HIGH" into "High".
func label(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// summary counts outcomes by grade.
type summary struct {
	Total   int
	Failed  int
	ByGrade map[checker.Grade]int
}

func summarize(outcomes []checker.Outcome) summary {
	s := summary{Total: len(outcomes), ByGrade: map[checker.Grade]int{}}
	for _, o := range outcomes {
		if o.FetchFailed() {
			s.Failed++
			continue
		}
		s.ByGrade[o.Result.Grade]++
	}
	return s
}
