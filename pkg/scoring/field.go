package scoring

import (
	"fmt"
	"regexp"
)

// FieldType is the closed set of input kinds a scoring form can declare.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldSelect, FieldRadio, FieldCheckbox:
		return true
	}
	return false
}

// IsChoice reports whether values of this type are scored through an option table.
func (t FieldType) IsChoice() bool {
	return t == FieldSelect || t == FieldRadio
}

// NumberType controls how textual input for a number field is parsed.
type NumberType string

const (
	NumberInteger NumberType = "integer"
	NumberDecimal NumberType = "decimal"
)

func (n NumberType) Valid() bool {
	return n == NumberInteger || n == NumberDecimal
}

// Option is one entry of a choice field. A nil Score contributes nothing.
type Option struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
	Score *int   `yaml:"score,omitempty" json:"score,omitempty"`
}

// Validation is advisory input metadata. The engine never enforces it.
type Validation struct {
	Min     *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Pattern string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// FieldDefinition describes one input item of a ScoreConfig.
type FieldDefinition struct {
	ID         string      `yaml:"id" json:"id"`
	Label      string      `yaml:"label" json:"label"`
	Type       FieldType   `yaml:"type" json:"type"`
	Required   bool        `yaml:"required" json:"required"`
	Unit       string      `yaml:"unit,omitempty" json:"unit,omitempty"`
	NumberType NumberType  `yaml:"number_type,omitempty" json:"number_type,omitempty"`
	Options    []Option    `yaml:"options,omitempty" json:"options,omitempty"`
	Validation *Validation `yaml:"validation,omitempty" json:"validation,omitempty"`
}

// EffectiveNumberType returns the declared number type, defaulting to decimal.
func (f *FieldDefinition) EffectiveNumberType() NumberType {
	if f.NumberType == "" {
		return NumberDecimal
	}
	return f.NumberType
}

// Option returns the option whose value equals v.
func (f *FieldDefinition) Option(v string) (*Option, bool) {
	for i := range f.Options {
		if f.Options[i].Value == v {
			return &f.Options[i], true
		}
	}
	return nil, false
}

// Validate checks the structural rules of a field definition.
func (f *FieldDefinition) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("field id is required")
	}
	if !f.Type.Valid() {
		return fmt.Errorf("field %q: unknown type %q", f.ID, f.Type)
	}
	if f.Type.IsChoice() {
		if len(f.Options) == 0 {
			return fmt.Errorf("field %q: %s field must declare options", f.ID, f.Type)
		}
		seen := make(map[string]bool, len(f.Options))
		for _, opt := range f.Options {
			if seen[opt.Value] {
				return fmt.Errorf("field %q: duplicate option value %q", f.ID, opt.Value)
			}
			seen[opt.Value] = true
		}
	} else if len(f.Options) > 0 {
		return fmt.Errorf("field %q: options are only allowed on select and radio fields", f.ID)
	}
	if f.NumberType != "" {
		if f.Type != FieldNumber {
			return fmt.Errorf("field %q: number_type is only meaningful on number fields", f.ID)
		}
		if !f.NumberType.Valid() {
			return fmt.Errorf("field %q: unknown number_type %q", f.ID, f.NumberType)
		}
	}
	if v := f.Validation; v != nil {
		if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
			return fmt.Errorf("field %q: validation min %v exceeds max %v", f.ID, *v.Min, *v.Max)
		}
		if v.Pattern != "" {
			if _, err := regexp.Compile(v.Pattern); err != nil {
				return fmt.Errorf("field %q: invalid pattern: %w", f.ID, err)
			}
		}
	}
	return nil
}

// optionBounds returns the lowest and highest option score, counting a
// missing score as 0.
func (f *FieldDefinition) optionBounds() (lo, hi int) {
	for i, opt := range f.Options {
		s := 0
		if opt.Score != nil {
			s = *opt.Score
		}
		if i == 0 || s < lo {
			lo = s
		}
		if i == 0 || s > hi {
			hi = s
		}
	}
	return lo, hi
}
