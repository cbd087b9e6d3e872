package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/khanhnv2901/seca-headers/internal/checker"
	"github.com/khanhnv2901/seca-headers/internal/policy"
	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
)

var generatedAt = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

func evaluate(t *testing.T, url string, headers map[string]string) checker.Outcome {
	t.Helper()
	reg, err := policy.Builtin()
	if err != nil {
		t.Fatalf("load profiles: %v", err)
	}
	p, err := reg.Lookup("default")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	e := checker.NewEvaluator(p, checker.WithClock(func() time.Time { return generatedAt }))
	result := e.Evaluate(url, checker.HeadersFromMap(headers))
	return checker.Outcome{ID: "id-1", Target: url, Result: &result}
}

func weakOutcome(t *testing.T) checker.Outcome {
	return evaluate(t, "http://weak.example", map[string]string{
		"Strict-Transport-Security": "max-age=3600",
		"X-Frame-Options":           "ALLOWALL",
		"Server":                    "nginx/1.18",
		"X-Powered-By":              "<script>alert(1)</script>",
		"X-XSS-Protection":          "1; mode=block",
	})
}

func failedOutcome() checker.Outcome {
	return checker.Outcome{ID: "id-2", Target: "https://down.example", Error: "fetch https://down.example: connection refused"}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"text":     FormatText,
		"JSON":     FormatJSON,
		" html ":   FormatHTML,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		"pdf":      FormatPDF,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, sharedErrors.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatText, []checker.Outcome{weakOutcome(t)}, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"SECURITY HEADERS VALIDATION REPORT",
		"URL: http://weak.example",
		"Score: 5/60 (8.3%, Grade: F)",
		"PRESENT HEADERS:",
		"⚠ Strict-Transport-Security: max-age=3600",
		"  - max-age (3600) should be at least 31536000 (1 year)",
		"✗ X-Frame-Options: ALLOWALL",
		"MISSING HEADERS:",
		"✗ X-Content-Type-Options (MEDIUM)",
		"DANGEROUS HEADERS FOUND:",
		"⚠ Server: nginx/1.18",
		"WARNINGS:",
		"X-XSS-Protection is deprecated but still present",
		"[HIGH] Use HTTPS instead of HTTP",
		"[HIGH] Implement 1 critical security headers",
		"[MEDIUM] Remove headers that expose server information",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("expected no ANSI codes when colour is disabled")
	}
	if strings.Contains(out, "SUMMARY") {
		t.Error("expected no summary table for a single target")
	}
}

func TestRenderText_ColorAndSummary(t *testing.T) {
	var buf bytes.Buffer
	outcomes := []checker.Outcome{weakOutcome(t), failedOutcome()}
	if err := Render(&buf, FormatText, outcomes, Options{Color: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "\x1b[") {
		t.Error("expected ANSI codes when colour is enabled")
	}
	for _, want := range []string{"ERROR:", "connection refused", "SUMMARY", "URL", "https://down.example", "fetch failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q", want)
		}
	}
}

func TestRenderJSON_SingleResult(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatJSON, []checker.Outcome{weakOutcome(t)}, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{
		"url", "timestamp", "profile", "score", "max_score", "percentage", "grade",
		"present_findings", "missing_findings", "dangerous_findings", "warnings", "recommendations",
	} {
		if _, ok := doc[key]; !ok {
			t.Errorf("expected key %q in JSON result", key)
		}
	}
	if doc["grade"] != "F" {
		t.Errorf("expected grade F, got %v", doc["grade"])
	}
	recs := doc["recommendations"].([]interface{})
	first := recs[0].(map[string]interface{})
	if first["priority"] != "HIGH" || first["recommendation"] != "Use HTTPS instead of HTTP" {
		t.Errorf("unexpected recommendation shape %v", first)
	}
}

func TestRenderJSON_MultipleOutcomes(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatJSON, []checker.Outcome{weakOutcome(t), failedOutcome()}, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(doc) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(doc))
	}
	if _, ok := doc[0]["result"]; !ok {
		t.Error("expected result for first outcome")
	}
	if doc[1]["error"] == "" || doc[1]["result"] != nil {
		t.Errorf("expected error-only second outcome, got %v", doc[1])
	}
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	outcomes := []checker.Outcome{weakOutcome(t), failedOutcome()}
	if err := Render(&buf, FormatHTML, outcomes, Options{GeneratedAt: generatedAt}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"background-color: #F44336",
		"Score: 5/60",
		`class="warn">WARN`,
		"&lt;script&gt;",
		"Medium",
		"ERROR: fetch https://down.example: connection refused",
		"Generated 2026-05-06T07:08:09Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html report missing %q", want)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Error("expected header values to be escaped")
	}
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	outcomes := []checker.Outcome{weakOutcome(t), failedOutcome()}
	if err := Render(&buf, FormatMarkdown, outcomes, Options{GeneratedAt: generatedAt}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Security Headers Report",
		"## http://weak.example",
		"| **F** | 5/60 |",
		"| X-Frame-Options | FAIL | `ALLOWALL` | Value should be one of: DENY, SAMEORIGIN |",
		"- **X-Content-Type-Options** (Medium):",
		"- **Server**: `nginx/1.18`",
		"- **[HIGH]** Use HTTPS instead of HTTP",
		"## https://down.example",
		"**ERROR:** fetch https://down.example: connection refused",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown report missing %q\n%s", want, out)
		}
	}
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	outcomes := []checker.Outcome{weakOutcome(t), failedOutcome()}
	if err := Render(&buf, FormatPDF, outcomes, Options{GeneratedAt: generatedAt}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("expected PDF output, got %q", buf.Bytes()[:min(16, buf.Len())])
	}
	if !FormatPDF.Binary() || FormatText.Binary() {
		t.Error("only pdf should be binary")
	}
}

func TestLabelAndTruncate(t *testing.T) {
	if got := label("HIGH"); got != "High" {
		t.Errorf("label(HIGH) = %q", got)
	}
	if got := truncate(strings.Repeat("a", 60), 50); got != strings.Repeat("a", 50)+"..." {
		t.Errorf("unexpected truncation %q", got)
	}
	if got := truncate("short", 50); got != "short" {
		t.Errorf("unexpected truncation %q", got)
	}
}
