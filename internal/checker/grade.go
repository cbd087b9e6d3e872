package checker

import consts "github.com/khanhnv2901/seca-headers/internal/shared/constants"

// Grade is the letter band derived from the score percentage.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Failing reports whether the grade should fail a CI run (D or F).
func (g Grade) Failing() bool {
	return g == GradeD || g == GradeF
}

// pointsFor is the score contribution of a present required header.
func pointsFor(status Status) int {
	switch status {
	case StatusPass:
		return consts.PointsPerHeader
	case StatusWarn:
		return consts.PointsForWarning
	default:
		return 0
	}
}

// calculateGrade converts score/maxScore into a percentage and letter grade.
// A policy without required headers grades F at 0%.
func calculateGrade(score, maxScore int) (Grade, float64) {
	if maxScore <= 0 {
		return GradeF, 0
	}
	percentage := float64(score) * 100 / float64(maxScore)

	switch {
	case percentage >= 90:
		return GradeA, percentage
	case percentage >= 80:
		return GradeB, percentage
	case percentage >= 70:
		return GradeC, percentage
	case percentage >= 60:
		return GradeD, percentage
	default:
		return GradeF, percentage
	}
}
