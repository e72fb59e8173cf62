package scoring

import "fmt"

// Method names the aggregation strategy of a ScoreConfig. Only MethodSum is
// evaluated; the others may be declared for future systems.
type Method string

const (
	MethodSum      Method = "sum"
	MethodWeighted Method = "weighted"
	MethodCustom   Method = "custom"
)

func (m Method) Valid() bool {
	switch m {
	case MethodSum, MethodWeighted, MethodCustom:
		return true
	}
	return false
}

// Calculation declares how sub-scores are combined.
type Calculation struct {
	Method  Method `yaml:"method" json:"method"`
	Formula string `yaml:"formula,omitempty" json:"formula,omitempty"`
}

// ResultRange is an inclusive [Min, Max] band of totals.
type ResultRange struct {
	Min         int    `yaml:"min" json:"min"`
	Max         int    `yaml:"max" json:"max"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Contains reports whether total falls inside the band.
func (r ResultRange) Contains(total int) bool {
	return r.Min <= total && total <= r.Max
}

// ScoreConfig is the declarative definition of one clinical scoring system.
type ScoreConfig struct {
	ID           string            `yaml:"id" json:"id"`
	Name         string            `yaml:"name" json:"name"`
	Description  string            `yaml:"description" json:"description"`
	Fields       []FieldDefinition `yaml:"fields" json:"fields"`
	Calculation  Calculation       `yaml:"calculation" json:"calculation"`
	ResultRanges []ResultRange     `yaml:"result_ranges" json:"result_ranges"`
}

// Field returns the field with the given id.
func (c *ScoreConfig) Field(id string) (*FieldDefinition, bool) {
	for i := range c.Fields {
		if c.Fields[i].ID == id {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// Validate enforces the load-time schema rules: unique field ids, a
// well-formed field list, a known calculation method and ordered bands.
func (c *ScoreConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("score config id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("score config %q: name is required", c.ID)
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("score config %q: at least one field is required", c.ID)
	}
	seen := make(map[string]bool, len(c.Fields))
	for i := range c.Fields {
		f := &c.Fields[i]
		if err := f.Validate(); err != nil {
			return fmt.Errorf("score config %q: %w", c.ID, err)
		}
		if seen[f.ID] {
			return fmt.Errorf("score config %q: duplicate field id %q", c.ID, f.ID)
		}
		seen[f.ID] = true
	}
	if !c.Calculation.Method.Valid() {
		return fmt.Errorf("score config %q: unknown calculation method %q", c.ID, c.Calculation.Method)
	}
	for _, r := range c.ResultRanges {
		if r.Min > r.Max {
			return fmt.Errorf("score config %q: result range %q has min %d above max %d", c.ID, r.Label, r.Min, r.Max)
		}
		if r.Label == "" {
			return fmt.Errorf("score config %q: result range [%d, %d] has no label", c.ID, r.Min, r.Max)
		}
	}
	return nil
}
