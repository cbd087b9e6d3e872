package policy

import (
	"fmt"
	"strings"
)

// Severity is the impact weight of a required header that is missing.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// ParseSeverity accepts any casing of high, medium or low.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToUpper(strings.TrimSpace(s))); sev {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return sev, nil
	default:
		return "", fmt.Errorf("unknown severity %q (use high, medium or low)", s)
	}
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// SemanticKind names the specialised validator that governs a header.
type SemanticKind string

const (
	SemanticHSTS              SemanticKind = "hsts"
	SemanticCSP               SemanticKind = "csp"
	SemanticPermissionsPolicy SemanticKind = "permissions-policy"
)

// SemanticKinds lists every validator family a policy may reference.
func SemanticKinds() []SemanticKind {
	return []SemanticKind{SemanticHSTS, SemanticCSP, SemanticPermissionsPolicy}
}

// Known reports whether a validator exists for k.
func (k SemanticKind) Known() bool {
	for _, known := range SemanticKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Expectation describes what a header value must look like. The set of
// implementations is closed: NoConstraint, ExactValue, OneOf and CustomSemantic.
type Expectation interface {
	fmt.Stringer
	expectation()
}

// NoConstraint accepts any value; presence alone passes.
type NoConstraint struct{}

// ExactValue requires the value to equal Value.
type ExactValue struct {
	Value string
}

// OneOf requires the value to be a member of Values.
type OneOf struct {
	Values []string
}

// CustomSemantic delegates validation to the named specialised validator.
type CustomSemantic struct {
	Kind SemanticKind
}

func (NoConstraint) expectation()   {}
func (ExactValue) expectation()     {}
func (OneOf) expectation()          {}
func (CustomSemantic) expectation() {}

func (NoConstraint) String() string { return "any value" }

func (e ExactValue) String() string { return fmt.Sprintf("exactly %q", e.Value) }

func (e OneOf) String() string { return "one of " + strings.Join(e.Values, ", ") }

func (e CustomSemantic) String() string { return string(e.Kind) + " validator" }

// Rule is one security header of interest.
type Rule struct {
	Header      string
	Required    bool
	Expectation Expectation
	Description string
	Severity    Severity
	// Recommended is the remediation value shown to users; it never affects validation.
	Recommended string
}

func cloneExpectation(e Expectation) Expectation {
	if oneOf, ok := e.(OneOf); ok {
		return OneOf{Values: append([]string(nil), oneOf.Values...)}
	}
	return e
}
