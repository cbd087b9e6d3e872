package checker

import (
	"fmt"
	"net/http"
	"time"

	"github.com/khanhnv2901/seca-headers/internal/policy"
)

// Evaluator applies one policy to observed headers. It holds no mutable state
// and is safe for concurrent use.
type Evaluator struct {
	policy *policy.Policy
	now    func() time.Time
}

// EvaluatorOption customises an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithClock replaces the timestamp source, mainly for tests.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEvaluator returns an Evaluator for p.
func NewEvaluator(p *policy.Policy, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		policy: p,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the policy the evaluator applies.
func (e *Evaluator) Policy() *policy.Policy { return e.policy }

// Evaluate validates headers observed for url. It never fails: malformed
// values become findings and an empty header set simply grades F.
func (e *Evaluator) Evaluate(url string, headers Headers) ValidationResult {
	present := []HeaderFinding{}
	missing := []MissingFinding{}
	score, maxScore := 0, 0

	for _, rule := range e.policy.Rules() {
		if rule.Required {
			maxScore += pointsFor(StatusPass)
		}

		observed, ok := FindHeader(headers, rule.Header)
		if !ok {
			if rule.Required {
				missing = append(missing, MissingFinding{
					Header:         rule.Header,
					Severity:       rule.Severity,
					Description:    rule.Description,
					Recommendation: addRecommendation(rule),
				})
			}
			continue
		}

		status, issues := validateValue(rule.Expectation, observed.Value)
		if rule.Required {
			score += pointsFor(status)
		}
		present = append(present, HeaderFinding{
			Header:   rule.Header,
			Value:    observed.Value,
			Status:   status,
			Issues:   issues,
			Required: rule.Required,
		})
	}

	warnings := []string{}
	for _, name := range e.policy.Deprecated() {
		if _, ok := FindHeader(headers, name); ok {
			warnings = append(warnings, fmt.Sprintf("%s is deprecated but still present", name))
		}
	}

	dangerous := []DangerousHeaderFinding{}
	for _, name := range e.policy.Dangerous() {
		if observed, ok := FindHeader(headers, name); ok {
			dangerous = append(dangerous, DangerousHeaderFinding{
				Header:         name,
				Value:          observed.Value,
				Recommendation: fmt.Sprintf("Remove %s header to avoid information disclosure", name),
			})
		}
	}

	grade, percentage := calculateGrade(score, maxScore)

	return ValidationResult{
		URL:               url,
		Timestamp:         e.now(),
		Profile:           e.policy.Name(),
		Score:             score,
		MaxScore:          maxScore,
		Percentage:        percentage,
		Grade:             grade,
		PresentFindings:   present,
		MissingFindings:   missing,
		DangerousFindings: dangerous,
		Warnings:          warnings,
		Recommendations:   buildRecommendations(url, missing, dangerous),
	}
}

func addRecommendation(rule policy.Rule) string {
	if rule.Recommended != "" {
		return fmt.Sprintf("Add %s header: %s", rule.Header, rule.Recommended)
	}
	return fmt.Sprintf("Add %s header", rule.Header)
}

// AnalyzeSecurityHeaders evaluates an http.Header against the built-in
// default profile.
func AnalyzeSecurityHeaders(url string, headers http.Header) (ValidationResult, error) {
	reg, err := policy.Builtin()
	if err != nil {
		return ValidationResult{}, err
	}
	p, err := reg.Lookup(policy.DefaultProfile)
	if err != nil {
		return ValidationResult{}, err
	}
	return NewEvaluator(p).Evaluate(url, HeadersFromHTTP(headers)), nil
}
