package policy

import (
	"errors"
	"strings"
	"testing"

	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
)

func TestBuiltin_LoadsAllProfiles(t *testing.T) {
	reg, err := Builtin()
	if err != nil {
		t.Fatalf("built-in profiles failed validation: %v", err)
	}

	want := []string{"default", "lenient", "strict"}
	got := reg.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected profiles %v, got %v", want, got)
	}
}

func TestBuiltin_DefaultProfileContents(t *testing.T) {
	reg, err := Builtin()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := reg.Lookup(DefaultProfile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	type want struct {
		required bool
		severity Severity
		exp      Expectation
	}
	expected := map[string]want{
		"Strict-Transport-Security":         {true, SeverityHigh, CustomSemantic{Kind: SemanticHSTS}},
		"X-Frame-Options":                   {true, SeverityHigh, OneOf{Values: []string{"DENY", "SAMEORIGIN"}}},
		"X-Content-Type-Options":            {true, SeverityMedium, ExactValue{Value: "nosniff"}},
		"Content-Security-Policy":           {true, SeverityHigh, CustomSemantic{Kind: SemanticCSP}},
		"X-XSS-Protection":                  {false, SeverityLow, ExactValue{Value: "1; mode=block"}},
		"Referrer-Policy":                   {true, SeverityMedium, OneOf{Values: []string{"strict-origin-when-cross-origin", "no-referrer"}}},
		"Permissions-Policy":                {true, SeverityMedium, CustomSemantic{Kind: SemanticPermissionsPolicy}},
		"X-Permitted-Cross-Domain-Policies": {false, SeverityLow, ExactValue{Value: "none"}},
	}

	rules := p.Rules()
	if len(rules) != len(expected) {
		t.Fatalf("expected %d rules, got %d", len(expected), len(rules))
	}
	if rules[0].Header != "Strict-Transport-Security" || rules[len(rules)-1].Header != "X-Permitted-Cross-Domain-Policies" {
		t.Errorf("unexpected rule order: first %s, last %s", rules[0].Header, rules[len(rules)-1].Header)
	}
	for _, rule := range rules {
		w, ok := expected[rule.Header]
		if !ok {
			t.Errorf("unexpected rule %s", rule.Header)
			continue
		}
		if rule.Required != w.required {
			t.Errorf("%s: required = %v, want %v", rule.Header, rule.Required, w.required)
		}
		if rule.Severity != w.severity {
			t.Errorf("%s: severity = %s, want %s", rule.Header, rule.Severity, w.severity)
		}
		if rule.Expectation.String() != w.exp.String() {
			t.Errorf("%s: expectation = %s, want %s", rule.Header, rule.Expectation, w.exp)
		}
	}

	if !p.IsDeprecated("X-XSS-Protection") {
		t.Error("expected X-XSS-Protection to be deprecated")
	}
	dangerous := strings.Join(p.Dangerous(), ",")
	for _, name := range []string{"Server", "X-Powered-By", "X-AspNet-Version", "X-AspNetMvc-Version"} {
		if !strings.Contains(dangerous, name) {
			t.Errorf("expected %s in dangerous headers, got %s", name, dangerous)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	reg, err := Builtin()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p, err := reg.Lookup("STRICT"); err != nil || p.Name() != "strict" {
		t.Errorf("expected case-insensitive lookup of strict, got %v, %v", p, err)
	}
	if p, err := reg.Lookup(""); err != nil || p.Name() != DefaultProfile {
		t.Errorf("expected empty name to select default, got %v, %v", p, err)
	}
	_, err = reg.Lookup("paranoid")
	if !errors.Is(err, sharedErrors.ErrUnknownProfile) {
		t.Errorf("expected ErrUnknownProfile, got %v", err)
	}
}

func TestLoadRegistry_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "empty document",
			yaml: "",
			want: "no profiles defined",
		},
		{
			name: "unknown field",
			yaml: `
profiles:
  - name: typo
    rulez: []
`,
			want: "rulez",
		},
		{
			name: "two expectations",
			yaml: `
profiles:
  - name: double
    rules:
      - header: X-Frame-Options
        severity: high
        expect:
          exact: DENY
          one_of: [DENY]
`,
			want: "only one of",
		},
		{
			name: "unknown semantic",
			yaml: `
profiles:
  - name: misconfigured
    rules:
      - header: Expect-CT
        severity: low
        expect:
          semantic: expect-ct
`,
			want: "no validator",
		},
		{
			name: "bad severity",
			yaml: `
profiles:
  - name: severe
    rules:
      - header: X-Frame-Options
        severity: critical
`,
			want: "unknown severity",
		},
		{
			name: "duplicate profile",
			yaml: `
profiles:
  - name: twin
  - name: TWIN
`,
			want: "defined twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, sharedErrors.ErrInvalidPolicy) {
				t.Errorf("expected ErrInvalidPolicy, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
