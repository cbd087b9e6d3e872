package cmd

import (
	"testing"

	"github.com/fatih/color"
	"github.com/khanhnv2901/seca-headers/internal/checker"
)

func TestFormatGradeWithColor(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})

	tests := []struct {
		name  string
		grade checker.Grade
		want  string
	}{
		{name: "top", grade: checker.GradeA, want: "A"},
		{name: "middling", grade: checker.GradeC, want: "C"},
		{name: "failing", grade: checker.GradeF, want: "F"},
		{name: "unknown", grade: checker.Grade("?"), want: "?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatGradeWithColor(tt.grade); got != tt.want {
				t.Fatalf("formatGradeWithColor(%q) = %q, want %q", tt.grade, got, tt.want)
			}
		})
	}
}
