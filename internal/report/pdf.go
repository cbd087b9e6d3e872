package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/khanhnv2901/seca-headers/internal/checker"
)

const pdfPageBreakY = 250

var pdfGradeRGB = map[checker.Grade][3]int{
	checker.GradeA: {76, 175, 80},
	checker.GradeB: {139, 195, 74},
	checker.GradeC: {255, 193, 7},
	checker.GradeD: {255, 152, 0},
	checker.GradeF: {244, 67, 54},
}

func renderPDF(w io.Writer, outcomes []checker.Outcome, opts Options) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// The core fonts are cp1252, so the status marks used in text output are spelled out.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Security Headers Validation Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", formatTimestamp(opts.GeneratedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	s := summarize(outcomes)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	grades := make([]string, 0, len(gradeColors))
	for _, g := range []checker.Grade{checker.GradeA, checker.GradeB, checker.GradeC, checker.GradeD, checker.GradeF} {
		grades = append(grades, fmt.Sprintf("%s: %d", g, s.ByGrade[g]))
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Targets: %d | Fetch failures: %d | %s", s.Total, s.Failed, strings.Join(grades, " | ")), "", 1, "", false, 0, "")
	pdf.Ln(5)

	for _, o := range outcomes {
		if pdf.GetY() > pdfPageBreakY {
			pdf.AddPage()
		}

		if o.FetchFailed() {
			pdf.SetFont("Arial", "B", 11)
			pdf.SetFillColor(240, 240, 240)
			pdf.CellFormat(0, 7, tr(o.Target+" - FETCH FAILED"), "", 1, "", true, 0, "")
			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 5, tr(o.Error), "", "", false)
			pdf.Ln(4)
			continue
		}

		r := o.Result
		rgb, ok := pdfGradeRGB[r.Grade]
		if !ok {
			rgb = [3]int{153, 153, 153}
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(rgb[0], rgb[1], rgb[2])
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(12, 7, string(r.Grade), "", 0, "C", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(0, 7, tr(fmt.Sprintf(" %s  (%d/%d, %s, profile %s)", r.URL, r.Score, r.MaxScore, formatPercent(r.Percentage), r.Profile)), "", 1, "", true, 0, "")
		pdf.Ln(1)

		pdf.SetFont("Arial", "", 9)
		for _, f := range r.PresentFindings {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("[%s] %s: %s", f.Status, f.Header, truncate(f.Value, 80))), "", "", false)
			for _, issue := range f.Issues {
				pdf.MultiCell(0, 5, tr("      - "+issue), "", "", false)
			}
		}
		for _, m := range r.MissingFindings {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("[MISSING] %s (%s) - %s", m.Header, label(string(m.Severity)), m.Description)), "", "", false)
		}
		for _, d := range r.DangerousFindings {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("[DANGEROUS] %s: %s", d.Header, d.Value)), "", "", false)
		}
		for _, warning := range r.Warnings {
			pdf.MultiCell(0, 5, tr("[WARNING] "+warning), "", "", false)
		}
		if len(r.Recommendations) > 0 {
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(0, 6, "Recommendations", "", 1, "", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			for _, rec := range r.Recommendations {
				pdf.MultiCell(0, 5, tr(fmt.Sprintf("[%s] %s", rec.Priority, rec.Text)), "", "", false)
			}
		}
		pdf.Ln(4)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
