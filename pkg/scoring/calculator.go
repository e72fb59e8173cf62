package scoring

import "fmt"

// SubScore is the contribution of one provided field.
type SubScore struct {
	FieldID string `json:"field_id"`
	Score   int    `json:"score"`
}

// Result is the outcome of scoring one form.
type Result struct {
	TotalScore  int        `json:"total_score"`
	Result      string     `json:"result"`
	Description string     `json:"description,omitempty"`
	Breakdown   []SubScore `json:"breakdown"`
	Warnings    []Issue    `json:"warnings,omitempty"`
}

// Calculator sums sub-scores using the numeric tables of a registry.
type Calculator struct {
	reg    *Registry
	strict bool
}

// CalcOption configures a Calculator.
type CalcOption func(*Calculator)

// WithStrict makes Calculate return a *ValidationError instead of silently
// scoring unknown options, non-numeric input, missing required fields and
// unclassified totals.
func WithStrict(strict bool) CalcOption {
	return func(c *Calculator) { c.strict = strict }
}

func NewCalculator(reg *Registry, opts ...CalcOption) *Calculator {
	c := &Calculator{reg: reg}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Strict reports whether the calculator runs in strict mode.
func (c *Calculator) Strict() bool { return c.strict }

// Calculate scores data against cfg. Fields are visited in declaration
// order. Only the sum method is evaluated; weighted and custom configs are
// summed as well. In lenient mode the error is always nil.
func (c *Calculator) Calculate(cfg *ScoreConfig, data FormData) (Result, error) {
	res := Result{Breakdown: []SubScore{}}

	for i := range cfg.Fields {
		f := &cfg.Fields[i]
		v := data[f.ID]
		if !Provided(v) {
			if f.Required {
				res.Warnings = append(res.Warnings, Issue{FieldID: f.ID, Kind: IssueMissingRequired, Message: "no value submitted"})
			}
			continue
		}

		var score int
		switch {
		case len(f.Options) > 0:
			s, isStr := v.(string)
			opt, ok := f.Option(s)
			if !isStr || !ok {
				res.Warnings = append(res.Warnings, Issue{FieldID: f.ID, Kind: IssueUnknownOption, Message: fmt.Sprintf("value %v matches no option", v)})
				break
			}
			if opt.Score != nil {
				score = *opt.Score
			}
		case f.Type == FieldNumber:
			n, ok := toNumber(v)
			if !ok {
				res.Warnings = append(res.Warnings, Issue{FieldID: f.ID, Kind: IssueNotNumeric, Message: fmt.Sprintf("value %v is not numeric", v)})
				continue
			}
			score, _ = c.reg.ScoreNumeric(cfg.ID, f.ID, n)
		default:
			continue
		}

		res.TotalScore += score
		res.Breakdown = append(res.Breakdown, SubScore{FieldID: f.ID, Score: score})
	}

	cls := Classify(cfg, res.TotalScore)
	res.Result = cls.Label
	res.Description = cls.Description
	if !cls.Matched {
		res.Warnings = append(res.Warnings, Issue{Kind: IssueUnclassified, Message: fmt.Sprintf("total %d falls outside every result range", res.TotalScore)})
	}

	if c.strict && len(res.Warnings) > 0 {
		return res, &ValidationError{ConfigID: cfg.ID, Issues: res.Warnings}
	}
	return res, nil
}

// CalculateByID resolves idOrName and scores data. It wraps
// ErrConfigNotFound when the scoring system is unknown.
func (c *Calculator) CalculateByID(idOrName string, data FormData) (*ScoreConfig, Result, error) {
	cfg, ok := c.reg.Get(idOrName)
	if !ok {
		return nil, Result{}, fmt.Errorf("%w: %q", ErrConfigNotFound, idOrName)
	}
	res, err := c.Calculate(cfg, data)
	return cfg, res, err
}

// Calculate scores data leniently using the registry's tables.
func (r *Registry) Calculate(cfg *ScoreConfig, data FormData) Result {
	res, _ := NewCalculator(r).Calculate(cfg, data)
	return res
}

// Calculate scores data leniently against the default registry.
func Calculate(cfg *ScoreConfig, data FormData) Result {
	return Default().Calculate(cfg, data)
}
