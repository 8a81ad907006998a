package grades

import (
	"strings"

	"gradewatch/internal/model"

	"github.com/shopspring/decimal"
)

// AveragePseudoClass is the class abbreviation under which the portal
// publishes the combined average of all classes.
const AveragePseudoClass = "gem"

// DefaultCoreSubjects lists the class abbreviations whose term averages
// make up the fallback overall average.
var DefaultCoreSubjects = []string{"ne", "fa", "en", "wi", "gs", "lv", "ak", "bi", "mu", "te"}

var ten = decimal.NewFromInt(10)

type options struct {
	coreSubjects map[string]struct{}
}

// Option customizes averaging.
type Option func(*options)

// WithCoreSubjects replaces the core subject table.
func WithCoreSubjects(abbreviations ...string) Option {
	return func(o *options) {
		o.coreSubjects = subjectSet(abbreviations)
	}
}

func newOptions(opts []Option) *options {
	o := &options{coreSubjects: subjectSet(DefaultCoreSubjects)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func subjectSet(abbreviations []string) map[string]struct{} {
	set := make(map[string]struct{}, len(abbreviations))
	for _, a := range abbreviations {
		set[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
	}
	return set
}

// Averages holds the per-class and overall term averages.
type Averages struct {
	PerClass      map[string]decimal.Decimal // keyed by class id
	Overall       decimal.NullDecimal
	OverallPoints decimal.NullDecimal // sum of core subject averages
}

// ClassAverage returns the term average of the given class, if published.
func (a Averages) ClassAverage(classID string) decimal.NullDecimal {
	v, ok := a.PerClass[classID]
	return decimal.NullDecimal{Decimal: v, Valid: ok}
}

// Aggregator accumulates term-summary entries.
type Aggregator struct {
	opts      *options
	perClass  map[string]decimal.Decimal
	overall   decimal.NullDecimal
	coreTotal decimal.Decimal
	coreCount int64
}

// NewAggregator returns an empty Aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	return &Aggregator{
		opts:     newOptions(opts),
		perClass: make(map[string]decimal.Decimal),
	}
}

// Add records a term-summary entry. Entries of another kind and entries
// whose value is not numeric are ignored; the return value reports whether
// g was used. Abbreviations match case-insensitively. A repeated entry for
// the same class or for the average pseudo-class replaces the earlier one.
func (a *Aggregator) Add(g model.RawGrade) bool {
	if g.Kind != model.GradeKindTermSummary {
		return false
	}
	v, ok := model.ParseGrade(g.Value)
	if !ok {
		return false
	}

	abbr := strings.ToLower(g.Class.Abbreviation)
	if abbr == AveragePseudoClass {
		a.overall = decimal.NullDecimal{Decimal: v, Valid: true}
		return true
	}

	a.perClass[g.Class.ID] = v
	if _, core := a.opts.coreSubjects[abbr]; core {
		a.coreTotal = a.coreTotal.Add(v)
		a.coreCount++
	}
	return true
}

// Result returns the averages seen so far. Without an explicit overall
// average it falls back to the core subject mean truncated to one decimal;
// with no core subject entries the overall average stays absent.
func (a *Aggregator) Result() Averages {
	res := Averages{
		PerClass: a.perClass,
		Overall:  a.overall,
	}
	if a.coreCount == 0 {
		return res
	}
	res.OverallPoints = decimal.NullDecimal{Decimal: a.coreTotal, Valid: true}
	if !res.Overall.Valid {
		res.Overall = decimal.NullDecimal{Decimal: FallbackAverage(a.coreTotal, a.coreCount), Valid: true}
	}
	return res
}

// FallbackAverage computes floor(10 * total / count) / 10.
// It truncates rather than rounds. count must be positive.
func FallbackAverage(total decimal.Decimal, count int64) decimal.Decimal {
	return total.Mul(ten).Div(decimal.NewFromInt(count)).Floor().Div(ten)
}

// Aggregate computes averages from a set of term-summary entries.
func Aggregate(termGrades []model.RawGrade, opts ...Option) Averages {
	agg := NewAggregator(opts...)
	for _, g := range termGrades {
		agg.Add(g)
	}
	return agg.Result()
}
