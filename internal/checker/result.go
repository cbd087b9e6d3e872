package checker

import (
	"time"

	"github.com/khanhnv2901/seca-headers/internal/policy"
)

// HeaderFinding is the validation outcome for a header that was present.
type HeaderFinding struct {
	Header   string   `json:"header"`
	Value    string   `json:"value"`
	Status   Status   `json:"status"`
	Issues   []string `json:"issues"`
	Required bool     `json:"required"`
}

// MissingFinding records a required header that was absent.
type MissingFinding struct {
	Header         string          `json:"header"`
	Severity       policy.Severity `json:"severity"`
	Description    string          `json:"description"`
	Recommendation string          `json:"recommendation"`
}

// DangerousHeaderFinding records a header that discloses implementation details.
type DangerousHeaderFinding struct {
	Header         string `json:"header"`
	Value          string `json:"value"`
	Recommendation string `json:"recommendation"`
}

// ValidationResult is the complete evaluation of one URL against one profile.
// It is built once by Evaluator.Evaluate and not modified afterwards.
type ValidationResult struct {
	URL               string                   `json:"url"`
	Timestamp         time.Time                `json:"timestamp"`
	Profile           string                   `json:"profile"`
	Score             int                      `json:"score"`
	MaxScore          int                      `json:"max_score"`
	Percentage        float64                  `json:"percentage"`
	Grade             Grade                    `json:"grade"`
	PresentFindings   []HeaderFinding          `json:"present_findings"`
	MissingFindings   []MissingFinding         `json:"missing_findings"`
	DangerousFindings []DangerousHeaderFinding `json:"dangerous_findings"`
	Warnings          []string                 `json:"warnings"`
	Recommendations   []Recommendation         `json:"recommendations"`
}

// Counts returns the number of present findings per status.
func (r ValidationResult) Counts() map[Status]int {
	counts := map[Status]int{StatusPass: 0, StatusWarn: 0, StatusFail: 0}
	for _, f := range r.PresentFindings {
		counts[f.Status]++
	}
	return counts
}
