package report

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/khanhnv2901/seca-headers/internal/checker"
)

const (
	htmlTemplatePath     = "templates/report.html"
	markdownTemplatePath = "templates/report.md"
)

//go:embed templates/report.html templates/report.md
var reportTemplateFS embed.FS

var gradeColors = map[checker.Grade]string{
	checker.GradeA: "#4CAF50",
	checker.GradeB: "#8BC34A",
	checker.GradeC: "#FFC107",
	checker.GradeD: "#FF9800",
	checker.GradeF: "#F44336",
}

var (
	htmlTemplateFuncs = htmltemplate.FuncMap{
		"gradeColor":    gradeColor,
		"formatTime":    formatTimestamp,
		"percent":       formatPercent,
		"label":         label,
		"lower":         strings.ToLower,
		"severityClass": strings.ToLower,
	}

	markdownTemplateFuncs = texttemplate.FuncMap{
		"formatTime": formatTimestamp,
		"percent":    formatPercent,
		"label":      label,
		"join":       strings.Join,
		"cell":       markdownCell,
	}

	htmlReportTemplate = htmltemplate.Must(
		htmltemplate.New("report.html").Funcs(htmlTemplateFuncs).ParseFS(reportTemplateFS, htmlTemplatePath),
	)
	markdownReportTemplate = texttemplate.Must(
		texttemplate.New("report.md").Funcs(markdownTemplateFuncs).ParseFS(reportTemplateFS, markdownTemplatePath),
	)
)

// templateData is what the HTML and Markdown templates see.
type templateData struct {
	Outcomes    []checker.Outcome
	GeneratedAt time.Time
}

func gradeColor(g checker.Grade) htmltemplate.CSS {
	if c, ok := gradeColors[g]; ok {
		return htmltemplate.CSS(c)
	}
	return htmltemplate.CSS("#999")
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func renderHTML(w io.Writer, outcomes []checker.Outcome, opts Options) error {
	data := templateData{Outcomes: outcomes, GeneratedAt: opts.GeneratedAt}
	if err := htmlReportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute %s template: %w", htmlReportTemplate.Name(), err)
	}
	return nil
}

func renderMarkdown(w io.Writer, outcomes []checker.Outcome, opts Options) error {
	data := templateData{Outcomes: outcomes, GeneratedAt: opts.GeneratedAt}
	if err := markdownReportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute %s template: %w", markdownReportTemplate.Name(), err)
	}
	return nil
}
