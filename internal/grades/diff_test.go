package grades

import (
	"math/rand"
	"testing"
	"time"

	"gradewatch/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func regular(classID, abbr string, filled time.Time) model.RawGrade {
	return model.RawGrade{
		Value:    "6,0",
		Kind:     model.GradeKindRegular,
		Class:    model.ClassRef{ID: classID, Abbreviation: abbr},
		Weight:   decimal.NewFromInt(1),
		Passed:   true,
		FilledIn: filled,
	}
}

func summary(classID, abbr, value string) model.RawGrade {
	return model.RawGrade{
		Value: value,
		Kind:  model.GradeKindTermSummary,
		Class: model.ClassRef{ID: classID, Abbreviation: abbr},
	}
}

func assertDecimal(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	require.True(t, got.Valid, "expected a value, got null")
	assert.True(t, decimal.RequireFromString(want).Equal(got.Decimal), "want %s, got %s", want, got.Decimal)
}

func TestDiff_NewGradeAndClassAverage(t *testing.T) {
	t1 := t0.Add(time.Hour)
	listing := []model.RawGrade{
		regular("A", "ne", t1),
		summary("A", "ne", "7,5"),
	}

	res := Diff(listing, t0)

	require.Len(t, res.Grades, 1)
	assert.Equal(t, "A", res.Grades[0].Class.ID)
	assertDecimal(t, "7.5", res.ClassAverage("A"))
	assert.True(t, res.Watermark.Equal(t1))
}

func TestDiff_GradeAtWatermarkIsSkipped(t *testing.T) {
	res := Diff([]model.RawGrade{regular("A", "ne", t0)}, t0)

	assert.Empty(t, res.Grades)
	assert.True(t, res.Watermark.Equal(t0))
}

func TestDiff_WatermarkIsMaxOfEmitted(t *testing.T) {
	listing := []model.RawGrade{
		regular("A", "ne", t0.Add(3*time.Hour)),
		regular("B", "en", t0.Add(-time.Hour)),
		regular("C", "wi", t0.Add(5*time.Hour)),
		regular("D", "fa", t0.Add(time.Hour)),
	}

	res := Diff(listing, t0)

	require.Len(t, res.Grades, 3)
	// listing order, not time order
	assert.Equal(t, "A", res.Grades[0].Class.ID)
	assert.Equal(t, "C", res.Grades[1].Class.ID)
	assert.Equal(t, "D", res.Grades[2].Class.ID)
	assert.True(t, res.Watermark.Equal(t0.Add(5*time.Hour)))
}

func TestDiff_Idempotent(t *testing.T) {
	listing := []model.RawGrade{
		regular("A", "ne", t0.Add(time.Minute)),
		summary("A", "ne", "8,1"),
		regular("B", "en", t0.Add(2*time.Minute)),
		regular("C", "wi", t0.Add(-time.Minute)),
	}

	first := Diff(listing, t0)
	require.Len(t, first.Grades, 2)
	assert.False(t, first.Watermark.Before(t0))

	second := Diff(listing, first.Watermark)
	assert.Empty(t, second.Grades)
	assert.True(t, second.Watermark.Equal(first.Watermark))
}

func TestDiff_OrderIndependent(t *testing.T) {
	listing := []model.RawGrade{
		regular("A", "ne", t0.Add(time.Minute)),
		summary("A", "ne", "7,0"),
		summary("B", "en", "6,4"),
		{Kind: model.GradeKindOther, Value: "9", FilledIn: t0.Add(time.Hour)},
		regular("B", "en", t0.Add(4*time.Minute)),
		summary("G", "gem", "7,1"),
	}
	want := Diff(listing, t0)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]model.RawGrade(nil), listing...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Diff(shuffled, t0)
		assert.Len(t, got.Grades, len(want.Grades))
		assert.True(t, got.Watermark.Equal(want.Watermark))
		assert.Equal(t, want.Overall.Decimal.String(), got.Overall.Decimal.String())
		assert.Equal(t, len(want.PerClass), len(got.PerClass))
		for id, avg := range want.PerClass {
			assert.True(t, avg.Equal(got.PerClass[id]), "class %s", id)
		}
	}
}

func TestDiff_ExplicitOverallWins(t *testing.T) {
	listing := []model.RawGrade{
		summary("A", "ne", "9,0"),
		summary("B", "en", "5,0"),
		summary("G", "gem", "6,6"),
	}

	res := Diff(listing, t0)

	assertDecimal(t, "6.6", res.Overall)
	assertDecimal(t, "14", res.OverallPoints)
	_, hasPseudo := res.PerClass["G"]
	assert.False(t, hasPseudo, "the average pseudo-class is not a class average")
}

func TestDiff_OtherKindsIgnored(t *testing.T) {
	listing := []model.RawGrade{
		{Kind: model.GradeKindOther, Value: "5,5", FilledIn: t0.Add(time.Hour), Class: model.ClassRef{ID: "A"}},
	}

	res := Diff(listing, t0)

	assert.Empty(t, res.Grades)
	assert.Empty(t, res.PerClass)
	assert.False(t, res.Overall.Valid)
	assert.True(t, res.Watermark.Equal(t0))
}

func TestDiff_DoesNotMutateInput(t *testing.T) {
	listing := []model.RawGrade{regular("A", "ne", t0.Add(time.Hour)), summary("A", "ne", "7,0")}
	before := append([]model.RawGrade(nil), listing...)

	Diff(listing, t0)

	assert.Equal(t, before, listing)
}
