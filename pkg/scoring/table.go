package scoring

import "math"

// FieldScorer maps a numeric measurement to an integer sub-score.
type FieldScorer interface {
	Score(v float64) int
	// Bounds returns the lowest and highest sub-score the scorer can produce
	// for inputs allowed by f. ok is false when the range cannot be derived.
	Bounds(f *FieldDefinition) (lo, hi int, ok bool)
}

// Op is the comparison a Rule applies to the measured value.
type Op int

const (
	OpLess Op = iota
	OpGreater
	OpOtherwise
)

// Rule is one threshold of a piecewise scoring table.
type Rule struct {
	Op    Op
	Bound float64
	Score int
}

func (r Rule) matches(v float64) bool {
	switch r.Op {
	case OpLess:
		return v < r.Bound
	case OpGreater:
		return v > r.Bound
	case OpOtherwise:
		return true
	}
	return false
}

// Below scores s when the value is strictly less than bound.
func Below(bound float64, s int) Rule { return Rule{Op: OpLess, Bound: bound, Score: s} }

// Above scores s when the value is strictly greater than bound.
func Above(bound float64, s int) Rule { return Rule{Op: OpGreater, Bound: bound, Score: s} }

// Otherwise is the open-ended final bracket.
func Otherwise(s int) Rule { return Rule{Op: OpOtherwise, Score: s} }

// Rules is an ordered threshold table. The first matching rule wins; an
// exhausted table scores 0.
type Rules []Rule

func (rs Rules) Score(v float64) int {
	for _, r := range rs {
		if r.matches(v) {
			return r.Score
		}
	}
	return 0
}

func (rs Rules) Bounds(_ *FieldDefinition) (lo, hi int, ok bool) {
	for i, r := range rs {
		if i == 0 || r.Score < lo {
			lo = r.Score
		}
		if i == 0 || r.Score > hi {
			hi = r.Score
		}
	}
	return lo, hi, len(rs) > 0
}

// InverseFrom scores ceiling minus the value, truncated toward zero. It is
// used where a higher measurement means a lower severity (GCS). Results are
// clamped to the int32 range; non-finite input scores 0.
type InverseFrom float64

func (c InverseFrom) Score(v float64) int {
	d := math.Trunc(float64(c) - v)
	switch {
	case math.IsNaN(d):
		return 0
	case d > math.MaxInt32:
		return math.MaxInt32
	case d < -math.MaxInt32:
		return -math.MaxInt32
	}
	return int(d)
}

func (c InverseFrom) Bounds(f *FieldDefinition) (lo, hi int, ok bool) {
	if f == nil || f.Validation == nil || f.Validation.Min == nil || f.Validation.Max == nil {
		return 0, 0, false
	}
	return c.Score(*f.Validation.Max), c.Score(*f.Validation.Min), true
}

// TableSet holds the numeric scorers of one scoring system, keyed by field id.
type TableSet map[string]FieldScorer
