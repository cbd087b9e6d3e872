package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/khanhnv2901/seca-headers/internal/checker"
)

func TestProgressPrinter_Line(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf, 4)

	p.Observe(checker.Outcome{Result: &checker.ValidationResult{Grade: checker.GradeA}}, 0.5)
	p.Observe(checker.Outcome{Result: &checker.ValidationResult{Grade: checker.GradeF}}, 1.5)
	p.Observe(checker.Outcome{Error: "timeout"}, 1.0)

	want := "[check] 3/4 (75.0%) A-C:1 D-F:1 Errors:1 Avg:1.00s"
	if got := p.line(); got != want {
		t.Fatalf("line() = %q, want %q", got, want)
	}
}

func TestProgressPrinter_StartStop(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf, 0)
	p.Start()
	p.Observe(checker.Outcome{Result: &checker.ValidationResult{Grade: checker.GradeB}}, 0.1)
	p.Stop()
	p.Stop()

	out := buf.String()
	if !strings.Contains(out, "[check] 1/1 (100.0%)") {
		t.Errorf("expected final progress line, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("expected Stop to end the line")
	}
}
