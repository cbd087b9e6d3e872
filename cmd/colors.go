package cmd

import (
	"github.com/fatih/color"
	"github.com/khanhnv2901/seca-headers/internal/checker"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func formatGradeWithColor(grade checker.Grade) string {
	switch grade {
	case checker.GradeA, checker.GradeB:
		return colorSuccess(string(grade))
	case checker.GradeC:
		return colorWarn(string(grade))
	case checker.GradeD, checker.GradeF:
		return colorError(string(grade))
	default:
		return string(grade)
	}
}
