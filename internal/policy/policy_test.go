package policy

import (
	"errors"
	"strings"
	"testing"

	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
)

func validDefinition() Definition {
	return Definition{
		Name: "test",
		Rules: []Rule{
			{Header: "Strict-Transport-Security", Required: true, Severity: SeverityHigh, Expectation: CustomSemantic{Kind: SemanticHSTS}},
			{Header: "X-Frame-Options", Required: true, Severity: SeverityHigh, Expectation: OneOf{Values: []string{"DENY", "SAMEORIGIN"}}},
			{Header: "X-Content-Type-Options", Required: true, Severity: SeverityMedium, Expectation: ExactValue{Value: "nosniff"}},
			{Header: "X-XSS-Protection", Severity: SeverityLow, Expectation: ExactValue{Value: "1; mode=block"}},
		},
		Deprecated: []string{"X-XSS-Protection"},
		Dangerous:  []string{"Server", "X-Powered-By"},
	}
}

func TestNew_Valid(t *testing.T) {
	p, err := New(validDefinition())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "test" {
		t.Errorf("expected name test, got %s", p.Name())
	}
	if got := len(p.Rules()); got != 4 {
		t.Errorf("expected 4 rules, got %d", got)
	}
	if p.RequiredCount() != 3 {
		t.Errorf("expected 3 required rules, got %d", p.RequiredCount())
	}
	if !p.IsDeprecated("x-xss-protection") {
		t.Error("expected case-insensitive deprecated lookup")
	}
}

func TestNew_NilExpectationBecomesNoConstraint(t *testing.T) {
	def := Definition{
		Name:  "bare",
		Rules: []Rule{{Header: "X-Custom", Severity: SeverityLow}},
	}
	p, err := New(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.Rules()[0].Expectation.(NoConstraint); !ok {
		t.Fatalf("expected NoConstraint, got %T", p.Rules()[0].Expectation)
	}
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
		want   string
	}{
		{
			name:   "empty name",
			mutate: func(d *Definition) { d.Name = " " },
			want:   "profile name cannot be empty",
		},
		{
			name: "duplicate header ignoring case",
			mutate: func(d *Definition) {
				d.Rules = append(d.Rules, Rule{Header: "x-frame-options", Severity: SeverityLow})
			},
			want: "duplicate header rule",
		},
		{
			name: "unknown semantic validator",
			mutate: func(d *Definition) {
				d.Rules[0].Expectation = CustomSemantic{Kind: "expect-ct"}
			},
			want: `no validator for semantic "expect-ct"`,
		},
		{
			name:   "invalid severity",
			mutate: func(d *Definition) { d.Rules[1].Severity = "CRITICAL" },
			want:   "invalid severity",
		},
		{
			name:   "empty one_of",
			mutate: func(d *Definition) { d.Rules[1].Expectation = OneOf{} },
			want:   "needs at least one value",
		},
		{
			name:   "empty exact",
			mutate: func(d *Definition) { d.Rules[2].Expectation = ExactValue{} },
			want:   "exact expectation needs a value",
		},
		{
			name:   "invalid header name",
			mutate: func(d *Definition) { d.Rules[2].Header = "Bad Header" },
			want:   "invalid header name",
		},
		{
			name:   "duplicate dangerous header",
			mutate: func(d *Definition) { d.Dangerous = append(d.Dangerous, "server") },
			want:   "dangerous headers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)
			_, err := New(def)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, sharedErrors.ErrInvalidPolicy) {
				t.Errorf("expected ErrInvalidPolicy, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to mention %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNew_ReportsEveryProblem(t *testing.T) {
	def := validDefinition()
	def.Rules[0].Expectation = CustomSemantic{Kind: "unknown"}
	def.Rules[1].Severity = ""

	_, err := New(def)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "rule 1") || !strings.Contains(err.Error(), "rule 2") {
		t.Errorf("expected both rule problems to be reported, got %v", err)
	}
}

func TestRules_ReturnsCopies(t *testing.T) {
	p, err := New(validDefinition())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rules := p.Rules()
	rules[0].Header = "Mutated"
	rules[1].Expectation.(OneOf).Values[0] = "ALLOWALL"

	again := p.Rules()
	if again[0].Header != "Strict-Transport-Security" {
		t.Errorf("policy rule mutated through Rules(): %s", again[0].Header)
	}
	if again[1].Expectation.(OneOf).Values[0] != "DENY" {
		t.Errorf("policy expectation mutated through Rules(): %v", again[1].Expectation)
	}
}

func TestNew_DoesNotAliasDefinition(t *testing.T) {
	def := validDefinition()
	p, err := New(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def.Rules[1].Expectation.(OneOf).Values[1] = "ALLOWALL"

	rule, ok := p.Rule("X-Frame-Options")
	if !ok {
		t.Fatal("expected rule lookup to succeed")
	}
	if rule.Expectation.(OneOf).Values[1] != "SAMEORIGIN" {
		t.Errorf("policy shares OneOf values with its definition: %v", rule.Expectation)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{in: "high", want: SeverityHigh},
		{in: " Medium ", want: SeverityMedium},
		{in: "LOW", want: SeverityLow},
		{in: "critical", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSeverity(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseSeverity(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestExpectationString(t *testing.T) {
	tests := []struct {
		exp  Expectation
		want string
	}{
		{NoConstraint{}, "any value"},
		{ExactValue{Value: "nosniff"}, `exactly "nosniff"`},
		{OneOf{Values: []string{"DENY", "SAMEORIGIN"}}, "one of DENY, SAMEORIGIN"},
		{CustomSemantic{Kind: SemanticCSP}, "csp validator"},
	}
	for _, tt := range tests {
		if got := tt.exp.String(); got != tt.want {
			t.Errorf("%T.String() = %q, want %q", tt.exp, got, tt.want)
		}
	}
}

func TestView(t *testing.T) {
	p, err := New(validDefinition())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := p.View()
	if v.Name != "test" || v.Required != 3 || len(v.Rules) != 4 {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.Rules[1].Expectation != "one of DENY, SAMEORIGIN" || v.Rules[1].Severity != SeverityHigh {
		t.Errorf("unexpected rule view %+v", v.Rules[1])
	}
	if len(v.Dangerous) != 2 || v.Deprecated[0] != "X-XSS-Protection" {
		t.Errorf("unexpected header lists %v %v", v.Deprecated, v.Dangerous)
	}
}
