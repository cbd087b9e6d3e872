package checker

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/khanhnv2901/seca-headers/internal/policy"
	consts "github.com/khanhnv2901/seca-headers/internal/shared/constants"
)

// Status is the outcome of validating one present header.
type Status string

const (
	StatusPass Status = "PASS"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

func (s Status) rank() int {
	switch s {
	case StatusFail:
		return 2
	case StatusWarn:
		return 1
	default:
		return 0
	}
}

// worsen never moves a status back towards PASS.
func worsen(current, next Status) Status {
	if next.rank() > current.rank() {
		return next
	}
	return current
}

type semanticValidator func(value string) (Status, []string)

var semanticValidators = map[policy.SemanticKind]semanticValidator{
	policy.SemanticHSTS:              validateHSTS,
	policy.SemanticCSP:               validateCSP,
	policy.SemanticPermissionsPolicy: validatePermissionsPolicy,
}

// validateValue applies an expectation to an observed header value.
func validateValue(exp policy.Expectation, value string) (Status, []string) {
	switch exp := exp.(type) {
	case nil, policy.NoConstraint:
		return StatusPass, []string{}
	case policy.ExactValue:
		if strings.TrimSpace(value) == exp.Value {
			return StatusPass, []string{}
		}
		return StatusFail, []string{fmt.Sprintf("Value should be: %s", exp.Value)}
	case policy.OneOf:
		trimmed := strings.TrimSpace(value)
		for _, allowed := range exp.Values {
			if trimmed == allowed {
				return StatusPass, []string{}
			}
		}
		return StatusFail, []string{fmt.Sprintf("Value should be one of: %s", strings.Join(exp.Values, ", "))}
	case policy.CustomSemantic:
		validator, ok := semanticValidators[exp.Kind]
		if !ok {
			// policy.New rejects unknown kinds, so this only fires for hand-built rules.
			return StatusFail, []string{fmt.Sprintf("No validator available for %s", exp.Kind)}
		}
		return validator(value)
	default:
		return StatusFail, []string{fmt.Sprintf("Unsupported expectation %T", exp)}
	}
}

var hstsMaxAgePattern = regexp.MustCompile(`(?i)max-age\s*=\s*"?(\d+)`)

// validateHSTS checks Strict-Transport-Security.
func validateHSTS(value string) (Status, []string) {
	issues := []string{}
	status := StatusPass

	match := hstsMaxAgePattern.FindStringSubmatch(value)
	if match == nil {
		issues = append(issues, "max-age directive is missing")
		status = worsen(status, StatusFail)
	} else if maxAge := parseMaxAge(match[1]); maxAge < consts.HSTSMinMaxAge {
		issues = append(issues, fmt.Sprintf("max-age (%s) should be at least %d (1 year)", match[1], consts.HSTSMinMaxAge))
		status = worsen(status, StatusWarn)
	}

	directives := hstsDirectives(value)
	if _, ok := directives["includesubdomains"]; !ok {
		issues = append(issues, "Consider adding includeSubDomains")
	}
	if _, ok := directives["preload"]; !ok {
		issues = append(issues, "Consider adding preload directive")
	}

	return status, issues
}

// parseMaxAge saturates instead of failing on values too large for uint64.
func parseMaxAge(digits string) uint64 {
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return math.MaxUint64
	}
	return n
}

func hstsDirectives(value string) map[string]struct{} {
	out := make(map[string]struct{})
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})
	for _, part := range parts {
		name, _, _ := strings.Cut(part, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			out[name] = struct{}{}
		}
	}
	return out
}

type cspPattern struct {
	matches func(lower string, tokens []string) bool
	message string
}

var cspUnsafePatterns = []cspPattern{
	{
		matches: func(lower string, _ []string) bool { return strings.Contains(lower, "unsafe-inline") },
		message: "Avoid unsafe-inline in script-src",
	},
	{
		matches: func(lower string, _ []string) bool { return strings.Contains(lower, "unsafe-eval") },
		message: "Avoid unsafe-eval in script-src",
	},
	{
		matches: func(_ string, tokens []string) bool {
			for _, tok := range tokens {
				if tok == "*" {
					return true
				}
			}
			return false
		},
		message: "Avoid wildcards in CSP directives",
	},
	{
		matches: func(lower string, _ []string) bool { return strings.Contains(lower, "data:") },
		message: "Be cautious with data: URIs",
	},
}

var cspImportantDirectives = []string{"default-src", "script-src", "style-src"}

// validateCSP checks Content-Security-Policy. Unsafe sources only ever warn.
func validateCSP(value string) (Status, []string) {
	issues := []string{}
	status := StatusPass

	lower := strings.ToLower(value)
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ';' || r == ',' || unicode.IsSpace(r)
	})

	for _, p := range cspUnsafePatterns {
		if p.matches(lower, tokens) {
			issues = append(issues, p.message)
			status = worsen(status, StatusWarn)
		}
	}

	for _, directive := range cspImportantDirectives {
		if !strings.Contains(lower, directive) {
			issues = append(issues, fmt.Sprintf("Consider adding %s directive", directive))
		}
	}

	if !strings.Contains(lower, "report-uri") && !strings.Contains(lower, "report-to") {
		issues = append(issues, "Consider adding reporting mechanism")
	}

	return status, issues
}

var sensitiveFeatures = []string{"geolocation", "camera", "microphone", "payment"}

// validatePermissionsPolicy checks Permissions-Policy. Wildcards only ever warn.
func validatePermissionsPolicy(value string) (Status, []string) {
	issues := []string{}
	status := StatusPass

	if strings.Contains(value, "*") {
		issues = append(issues, "Avoid wildcards in Permissions-Policy")
		status = worsen(status, StatusWarn)
	}

	lower := strings.ToLower(value)
	for _, feature := range sensitiveFeatures {
		if !strings.Contains(lower, feature) {
			issues = append(issues, fmt.Sprintf("Consider explicitly restricting %s", feature))
		}
	}

	return status, issues
}
