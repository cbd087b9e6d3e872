package policy

// RuleView is the serialisable form of a Rule.
type RuleView struct {
	Header      string   `json:"header"`
	Required    bool     `json:"required"`
	Severity    Severity `json:"severity"`
	Expectation string   `json:"expectation"`
	Description string   `json:"description,omitempty"`
	Recommended string   `json:"recommended,omitempty"`
}

// View is the serialisable form of a Policy.
type View struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Required    int        `json:"required_headers"`
	Rules       []RuleView `json:"rules"`
	Deprecated  []string   `json:"deprecated"`
	Dangerous   []string   `json:"dangerous"`
}

// View returns a snapshot of p suitable for JSON output.
func (p *Policy) View() View {
	rules := make([]RuleView, 0, len(p.rules))
	for _, r := range p.rules {
		rules = append(rules, RuleView{
			Header:      r.Header,
			Required:    r.Required,
			Severity:    r.Severity,
			Expectation: r.Expectation.String(),
			Description: r.Description,
			Recommended: r.Recommended,
		})
	}
	return View{
		Name:        p.name,
		Description: p.description,
		Required:    p.RequiredCount(),
		Rules:       rules,
		Deprecated:  p.Deprecated(),
		Dangerous:   p.Dangerous(),
	}
}
