package grades

import (
	"testing"

	"gradewatch/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAggregate_FallbackTruncates(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"exact", []string{"7,0", "8,0", "6,0"}, "7"},
		{"truncated not rounded", []string{"7,5", "6,8", "8,0"}, "7.4"},
		{"half", []string{"6,9", "7,0"}, "6.9"},
		{"just below", []string{"6,99", "6,99"}, "6.9"},
	}
	core := []string{"ne", "fa", "en", "wi", "gs", "lv", "ak", "bi", "mu", "te"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var term []model.RawGrade
			for i, v := range tt.values {
				term = append(term, summary(core[i], core[i], v))
			}
			avg := Aggregate(term)
			assertDecimal(t, tt.want, avg.Overall)
		})
	}
}

func TestAggregate_AllCoreSubjects(t *testing.T) {
	var term []model.RawGrade
	total := decimal.Zero
	for i, abbr := range DefaultCoreSubjects {
		v := decimal.NewFromFloat(5.5).Add(decimal.NewFromFloat(0.3).Mul(decimal.NewFromInt(int64(i))))
		total = total.Add(v)
		term = append(term, summary(abbr, abbr, v.String()))
	}

	avg := Aggregate(term)

	want := total.Mul(ten).Div(decimal.NewFromInt(int64(len(DefaultCoreSubjects)))).Floor().Div(ten)
	assertDecimal(t, want.String(), avg.Overall)
	assertDecimal(t, total.String(), avg.OverallPoints)
}

func TestAggregate_NoCoreSubjects(t *testing.T) {
	avg := Aggregate([]model.RawGrade{summary("X", "lo", "8,0"), summary("Y", "ckv", "7,0")})

	assert.False(t, avg.Overall.Valid, "overall must be absent, not zero")
	assert.False(t, avg.OverallPoints.Valid)
	assert.Len(t, avg.PerClass, 2)
}

func TestAggregate_Empty(t *testing.T) {
	avg := Aggregate(nil)

	assert.False(t, avg.Overall.Valid)
	assert.Empty(t, avg.PerClass)
}

func TestAggregate_SkipsNonNumeric(t *testing.T) {
	avg := Aggregate([]model.RawGrade{summary("A", "ne", "V"), summary("B", "en", "7,0")})

	assert.False(t, avg.ClassAverage("A").Valid)
	assertDecimal(t, "7", avg.Overall)
}

func TestAggregate_CustomCoreSubjects(t *testing.T) {
	term := []model.RawGrade{summary("A", "ne", "6,0"), summary("B", "lo", "9,0")}

	avg := Aggregate(term, WithCoreSubjects("LO"))

	assertDecimal(t, "9", avg.Overall)
}

func TestAggregator_IgnoresRegularGrades(t *testing.T) {
	agg := NewAggregator()
	assert.False(t, agg.Add(regular("A", "ne", t0)))
	assert.True(t, agg.Add(summary("A", "ne", "7,0")))
}

func TestFallbackAverage(t *testing.T) {
	got := FallbackAverage(decimal.RequireFromString("22.3"), 3)
	assert.Equal(t, "7.4", got.String())
}

func TestAggregate_AbbreviationCaseInsensitive(t *testing.T) {
	avg := Aggregate([]model.RawGrade{summary("N", "NE", "6,0"), summary("W", "Wi", "8,0")})
	assertDecimal(t, "7", avg.Overall)
	assertDecimal(t, "14", avg.OverallPoints)

	avg = Aggregate([]model.RawGrade{summary("G", "GEM", "7,3"), summary("N", "ne", "6,0")})
	assertDecimal(t, "7.3", avg.Overall)
}

func TestAggregate_RepeatedEntryLastWins(t *testing.T) {
	avg := Aggregate([]model.RawGrade{
		summary("G", "gem", "6,0"),
		summary("X", "lo", "5,0"),
		summary("G", "gem", "7,5"),
		summary("X", "lo", "8,0"),
	})

	assertDecimal(t, "7.5", avg.Overall)
	assertDecimal(t, "8", avg.ClassAverage("X"))
}
