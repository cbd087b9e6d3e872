package checker

import (
	"fmt"
	"strings"

	"github.com/khanhnv2901/seca-headers/internal/policy"
)

// Priority orders recommendations for display.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Recommendation is one prioritised remediation hint.
type Recommendation struct {
	Priority Priority `json:"priority"`
	Text     string   `json:"recommendation"`
}

// buildRecommendations only summarises; per-header advice lives in the findings.
func buildRecommendations(url string, missing []MissingFinding, dangerous []DangerousHeaderFinding) []Recommendation {
	recs := []Recommendation{}

	if isPlainHTTP(url) {
		recs = append(recs, Recommendation{Priority: PriorityHigh, Text: "Use HTTPS instead of HTTP"})
	}

	critical := 0
	for _, m := range missing {
		if m.Severity == policy.SeverityHigh {
			critical++
		}
	}
	if critical > 0 {
		recs = append(recs, Recommendation{
			Priority: PriorityHigh,
			Text:     fmt.Sprintf("Implement %d critical security headers", critical),
		})
	}

	if len(dangerous) > 0 {
		recs = append(recs, Recommendation{Priority: PriorityMedium, Text: "Remove headers that expose server information"})
	}

	return recs
}

func isPlainHTTP(url string) bool {
	scheme, _, ok := strings.Cut(strings.TrimSpace(url), "://")
	return ok && strings.EqualFold(scheme, "http")
}
