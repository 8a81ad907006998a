package grades

import (
	"time"

	"gradewatch/internal/model"
)

// Result is the outcome of diffing one grade listing against a watermark.
type Result struct {
	Averages

	// Grades holds the regular grades filled in after the input watermark,
	// in listing order.
	Grades []model.RawGrade
	// Watermark is the candidate watermark to commit once the cycle succeeds.
	Watermark time.Time
}

// Diff partitions a full grade listing into new regular grades and
// term averages. It does not mutate its input.
func Diff(all []model.RawGrade, watermark time.Time, opts ...Option) Result {
	agg := NewAggregator(opts...)
	res := Result{Watermark: watermark}

	for _, g := range all {
		switch g.Kind {
		case model.GradeKindTermSummary:
			agg.Add(g)
		case model.GradeKindRegular:
			if !g.FilledIn.After(watermark) {
				continue
			}
			res.Grades = append(res.Grades, g)
			if g.FilledIn.After(res.Watermark) {
				res.Watermark = g.FilledIn
			}
		}
	}

	res.Averages = agg.Result()
	return res
}
