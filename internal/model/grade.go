package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GradeKind classifies a listing entry once at ingestion.
type GradeKind int

const (
	GradeKindOther GradeKind = iota
	GradeKindRegular
	GradeKindTermSummary
)

func (k GradeKind) String() string {
	switch k {
	case GradeKindRegular:
		return "regular"
	case GradeKindTermSummary:
		return "term_summary"
	default:
		return "other"
	}
}

const (
	// TermSummaryPeriod is the period name the portal uses for term-end averages.
	TermSummaryPeriod = "EIND"
	// RegularGradeType is the type name of an individual assignment grade.
	RegularGradeType = "grade"
)

// ClassifyGrade maps the portal's period and type names to a GradeKind.
func ClassifyGrade(periodName, typeName string) GradeKind {
	if strings.EqualFold(strings.TrimSpace(periodName), TermSummaryPeriod) {
		return GradeKindTermSummary
	}
	if strings.EqualFold(strings.TrimSpace(typeName), RegularGradeType) {
		return GradeKindRegular
	}
	return GradeKindOther
}

// ClassRef is the class reference carried by a grade.
type ClassRef struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
}

// ClassInfo describes a class of the current course.
type ClassInfo struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	Description  string `json:"description"`
}

// RawGrade is a grade listing entry as delivered by the portal.
type RawGrade struct {
	Value       string          `json:"value"` // decimal comma, e.g. "7,5"
	Kind        GradeKind       `json:"kind"`
	Class       ClassRef        `json:"class"`
	Description string          `json:"description"`
	Weight      decimal.Decimal `json:"weight"`
	Passed      bool            `json:"passed"`
	FilledIn    time.Time       `json:"filled_in"`
}

// ParseGrade converts a decimal-comma grade string into a decimal.
// Non-numeric grades such as "V" or "G" yield ok == false.
func ParseGrade(s string) (d decimal.Decimal, ok bool) {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
