package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/khanhnv2901/seca-headers/internal/checker"
)

const (
	textRule       = 80
	textSubRule    = 40
	textValueWidth = 50
)

type palette struct {
	pass, warn, fail, info func(a ...interface{}) string
}

func newPalette(enabled bool) palette {
	if !enabled {
		plain := fmt.Sprint
		return palette{pass: plain, warn: plain, fail: plain, info: plain}
	}
	mk := func(attr color.Attribute) func(a ...interface{}) string {
		c := color.New(attr)
		c.EnableColor()
		return c.SprintFunc()
	}
	return palette{
		pass: mk(color.FgGreen),
		warn: mk(color.FgYellow),
		fail: mk(color.FgRed),
		info: mk(color.FgCyan),
	}
}

func (p palette) status(s checker.Status) string {
	switch s {
	case checker.StatusPass:
		return p.pass("✓")
	case checker.StatusWarn:
		return p.warn("⚠")
	default:
		return p.fail("✗")
	}
}

func (p palette) grade(g checker.Grade) string {
	switch g {
	case checker.GradeA, checker.GradeB:
		return p.pass(string(g))
	case checker.GradeC:
		return p.warn(string(g))
	default:
		return p.fail(string(g))
	}
}

func renderText(w io.Writer, outcomes []checker.Outcome, opts Options) error {
	p := newPalette(opts.Color)
	var b strings.Builder

	for i, o := range outcomes {
		if i > 0 {
			b.WriteString("\n")
		}
		writeTextOutcome(&b, o, p)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if len(outcomes) > 1 {
		return writeTextSummary(w, outcomes, p)
	}
	return nil
}

func writeTextOutcome(b *strings.Builder, o checker.Outcome, p palette) {
	rule := strings.Repeat("=", textRule)
	sub := strings.Repeat("-", textSubRule)

	fmt.Fprintln(b, rule)
	fmt.Fprintln(b, "SECURITY HEADERS VALIDATION REPORT")
	fmt.Fprintln(b, rule)

	if o.FetchFailed() {
		fmt.Fprintf(b, "URL: %s\n\n", o.Target)
		fmt.Fprintf(b, "%s %s\n", p.fail("ERROR:"), o.Error)
		fmt.Fprintln(b, rule)
		return
	}

	r := o.Result
	fmt.Fprintf(b, "URL: %s\n", r.URL)
	fmt.Fprintf(b, "Profile: %s\n", r.Profile)
	fmt.Fprintf(b, "Scan Date: %s\n", formatTimestamp(r.Timestamp))
	fmt.Fprintf(b, "Score: %d/%d (%s, Grade: %s)\n", r.Score, r.MaxScore, formatPercent(r.Percentage), p.grade(r.Grade))

	if len(r.PresentFindings) > 0 {
		fmt.Fprintln(b, "\nPRESENT HEADERS:")
		fmt.Fprintln(b, sub)
		for _, f := range r.PresentFindings {
			fmt.Fprintf(b, "%s %s: %s\n", p.status(f.Status), f.Header, truncate(f.Value, textValueWidth))
			for _, issue := range f.Issues {
				fmt.Fprintf(b, "  - %s\n", issue)
			}
		}
	}

	if len(r.MissingFindings) > 0 {
		fmt.Fprintln(b, "\nMISSING HEADERS:")
		fmt.Fprintln(b, sub)
		for _, m := range r.MissingFindings {
			fmt.Fprintf(b, "%s %s (%s)\n", p.fail("✗"), m.Header, m.Severity)
			if m.Description != "" {
				fmt.Fprintf(b, "  %s\n", m.Description)
			}
		}
	}

	if len(r.DangerousFindings) > 0 {
		fmt.Fprintln(b, "\nDANGEROUS HEADERS FOUND:")
		fmt.Fprintln(b, sub)
		for _, d := range r.DangerousFindings {
			fmt.Fprintf(b, "%s %s: %s\n", p.warn("⚠"), d.Header, d.Value)
			fmt.Fprintf(b, "  %s\n", d.Recommendation)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(b, "\nWARNINGS:")
		fmt.Fprintln(b, sub)
		for _, warning := range r.Warnings {
			fmt.Fprintf(b, "%s %s\n", p.warn("⚠"), warning)
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(b, "\nRECOMMENDATIONS:")
		fmt.Fprintln(b, sub)
		for _, rec := range r.Recommendations {
			fmt.Fprintf(b, "[%s] %s\n", rec.Priority, rec.Text)
		}
	}

	fmt.Fprintln(b, rule)
}

func writeTextSummary(w io.Writer, outcomes []checker.Outcome, p palette) error {
	fmt.Fprintf(w, "\n%s\n", p.info("SUMMARY"))
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tGRADE\tSCORE\tSTATUS")
	for _, o := range outcomes {
		if o.FetchFailed() {
			fmt.Fprintf(tw, "%s\t-\t-\tfetch failed\n", o.Target)
			continue
		}
		r := o.Result
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n", r.URL, r.Grade, r.Score, r.MaxScore, formatPercent(r.Percentage))
	}
	return tw.Flush()
}
