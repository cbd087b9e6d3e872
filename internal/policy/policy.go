package policy

import (
	"errors"
	"fmt"
	"strings"

	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
	"golang.org/x/net/http/httpguts"
)

// Definition is the raw material for a Policy.
type Definition struct {
	Name        string
	Description string
	Rules       []Rule
	Deprecated  []string
	Dangerous   []string
}

// Policy is a validated, immutable set of header rules. Accessors return
// copies so one Policy can be shared by any number of concurrent evaluations.
type Policy struct {
	name        string
	description string
	rules       []Rule
	deprecated  []string
	dangerous   []string
	ruleIndex   map[string]int
}

// New validates def and returns the resulting Policy. Every problem found is
// reported in the returned error, which wraps ErrInvalidPolicy.
func New(def Definition) (*Policy, error) {
	var problems []error

	name := strings.TrimSpace(def.Name)
	if name == "" {
		problems = append(problems, sharedErrors.ErrEmptyProfile)
	}

	p := &Policy{
		name:        name,
		description: def.Description,
		rules:       make([]Rule, 0, len(def.Rules)),
		ruleIndex:   make(map[string]int, len(def.Rules)),
	}

	for i, rule := range def.Rules {
		rule.Header = strings.TrimSpace(rule.Header)
		if rule.Expectation == nil {
			rule.Expectation = NoConstraint{}
		}
		if err := validateRule(rule); err != nil {
			problems = append(problems, fmt.Errorf("rule %d (%s): %w", i+1, rule.Header, err))
			continue
		}
		key := strings.ToLower(rule.Header)
		if _, dup := p.ruleIndex[key]; dup {
			problems = append(problems, fmt.Errorf("rule %d: %w: %s", i+1, sharedErrors.ErrDuplicateRule, rule.Header))
			continue
		}
		rule.Expectation = cloneExpectation(rule.Expectation)
		p.ruleIndex[key] = len(p.rules)
		p.rules = append(p.rules, rule)
	}

	var err error
	if p.deprecated, err = headerList("deprecated", def.Deprecated); err != nil {
		problems = append(problems, err)
	}
	if p.dangerous, err = headerList("dangerous", def.Dangerous); err != nil {
		problems = append(problems, err)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w %q: %w", sharedErrors.ErrInvalidPolicy, name, errors.Join(problems...))
	}
	return p, nil
}

func validateRule(rule Rule) error {
	if !httpguts.ValidHeaderFieldName(rule.Header) {
		return fmt.Errorf("invalid header name %q", rule.Header)
	}
	if !rule.Severity.Valid() {
		return fmt.Errorf("invalid severity %q", rule.Severity)
	}
	switch exp := rule.Expectation.(type) {
	case NoConstraint:
	case ExactValue:
		if strings.TrimSpace(exp.Value) == "" {
			return errors.New("exact expectation needs a value")
		}
	case OneOf:
		if len(exp.Values) == 0 {
			return errors.New("one_of expectation needs at least one value")
		}
		for _, v := range exp.Values {
			if strings.TrimSpace(v) == "" {
				return errors.New("one_of expectation contains an empty value")
			}
		}
	case CustomSemantic:
		if !exp.Kind.Known() {
			return fmt.Errorf("no validator for semantic %q", exp.Kind)
		}
	default:
		return fmt.Errorf("unsupported expectation %T", exp)
	}
	return nil
}

func headerList(label string, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, fmt.Errorf("%s headers: invalid header name %q", label, name)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%s headers: %w: %s", label, sharedErrors.ErrDuplicateRule, name)
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// Name returns the profile name.
func (p *Policy) Name() string { return p.name }

// Description returns the human-readable profile summary.
func (p *Policy) Description() string { return p.description }

// Rules returns the rules in registry order.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	for i, rule := range p.rules {
		rule.Expectation = cloneExpectation(rule.Expectation)
		out[i] = rule
	}
	return out
}

// Rule looks up a rule by header name, ignoring case.
func (p *Policy) Rule(header string) (Rule, bool) {
	idx, ok := p.ruleIndex[strings.ToLower(strings.TrimSpace(header))]
	if !ok {
		return Rule{}, false
	}
	rule := p.rules[idx]
	rule.Expectation = cloneExpectation(rule.Expectation)
	return rule, true
}

// Deprecated returns headers that produce a warning whenever present.
func (p *Policy) Deprecated() []string { return append([]string(nil), p.deprecated...) }

// Dangerous returns headers that disclose implementation details.
func (p *Policy) Dangerous() []string { return append([]string(nil), p.dangerous...) }

// IsDeprecated reports whether header is on the deprecated list, ignoring case.
func (p *Policy) IsDeprecated(header string) bool {
	for _, name := range p.deprecated {
		if strings.EqualFold(name, header) {
			return true
		}
	}
	return false
}

// RequiredCount is the number of rules that count towards the score.
func (p *Policy) RequiredCount() int {
	count := 0
	for _, rule := range p.rules {
		if rule.Required {
			count++
		}
	}
	return count
}
