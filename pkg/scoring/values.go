package scoring

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FormData maps field ids to submitted values: string, number, bool or
// []string. JSON-decoded forms yield float64 numbers and []any lists.
type FormData map[string]any

// Provided reports whether v counts as a submitted value. nil and "" do not.
func Provided(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	}
	return true
}

// toNumber converts a submitted value the way a loose numeric coercion does:
// numbers pass through, booleans are 1 or 0, strings are parsed after
// trimming (blank is 0). Strings must be plain decimal notation, so "Inf"
// and hex floats are rejected. Lists, NaN and infinities are not numeric.
func toNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		if !decimalNumber.MatchString(s) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var (
	decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	intPrefix     = regexp.MustCompile(`^\s*[+-]?\d+`)
	floatPrefix   = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// parsePrefix reads the longest numeric prefix of s, ignoring trailing
// garbage ("37.5°C" is 37.5). Integer fields stop at the decimal point.
func parsePrefix(s string, nt NumberType) (float64, bool) {
	re := floatPrefix
	if nt == NumberInteger {
		re = intPrefix
	}
	m := re.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Normalize returns a copy of data where string input on number fields is
// parsed according to the field's number type. Unparseable strings are kept
// as submitted; the calculator later skips them.
func Normalize(cfg *ScoreConfig, data FormData) FormData {
	out := make(FormData, len(data))
	for k, v := range data {
		out[k] = v
	}
	for i := range cfg.Fields {
		f := &cfg.Fields[i]
		if f.Type != FieldNumber {
			continue
		}
		s, ok := out[f.ID].(string)
		if !ok || s == "" {
			continue
		}
		if n, ok := parsePrefix(s, f.EffectiveNumberType()); ok {
			out[f.ID] = n
		}
	}
	return out
}

// MissingRequired lists the required fields of cfg that have no submitted
// value, in declaration order.
func MissingRequired(cfg *ScoreConfig, data FormData) []*FieldDefinition {
	var missing []*FieldDefinition
	for i := range cfg.Fields {
		f := &cfg.Fields[i]
		if f.Required && !Provided(data[f.ID]) {
			missing = append(missing, f)
		}
	}
	return missing
}
