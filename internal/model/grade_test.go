package model

import "testing"

func TestClassifyGrade(t *testing.T) {
	tests := []struct {
		period, typ string
		want        GradeKind
	}{
		{"EIND", "grade", GradeKindTermSummary},
		{"eind", "", GradeKindTermSummary},
		{"P1", "grade", GradeKindRegular},
		{"P2", " Grade ", GradeKindRegular},
		{"P1", "werkcijfer", GradeKindOther},
		{"", "", GradeKindOther},
	}
	for _, tt := range tests {
		if got := ClassifyGrade(tt.period, tt.typ); got != tt.want {
			t.Errorf("ClassifyGrade(%q, %q) = %v, want %v", tt.period, tt.typ, got, tt.want)
		}
	}
}

func TestParseGrade(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"7,5", "7.5", true},
		{" 10 ", "10", true},
		{"6.8", "6.8", true},
		{"V", "0", false},
		{"", "0", false},
	}
	for _, tt := range tests {
		got, ok := ParseGrade(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParseGrade(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseGrade(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
