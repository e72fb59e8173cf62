package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApacheIITables(t *testing.T) {
	tests := []struct {
		field string
		value float64
		want  int
	}{
		{"age", 0, 0},
		{"age", 44, 0},
		{"age", 45, 2},
		{"age", 54.9, 2},
		{"age", 55, 3},
		{"age", 65, 5},
		{"age", 74, 5},
		{"age", 75, 6},
		{"age", 120, 6},

		{"temperature", 29.8, 4},
		{"temperature", 29.9, 3},
		{"temperature", 31.9, 2},
		{"temperature", 33.9, 1},
		{"temperature", 35.9, 0},
		{"temperature", 37, 0},
		{"temperature", 38.5, 1},
		{"temperature", 38.9, 2},
		{"temperature", 40.9, 3},

		{"meanArterialPressure", 48, 4},
		{"meanArterialPressure", 49, 3},
		{"meanArterialPressure", 69, 2},
		{"meanArterialPressure", 79, 0},
		{"meanArterialPressure", 108, 0},
		{"meanArterialPressure", 109, 2},
		{"meanArterialPressure", 129, 3},
		{"meanArterialPressure", 159, 4},

		{"heartRate", 38, 4},
		{"heartRate", 39, 3},
		{"heartRate", 54, 2},
		{"heartRate", 69, 0},
		{"heartRate", 109, 2},
		{"heartRate", 139, 3},
		{"heartRate", 179, 4},

		{"respiratoryRate", 4, 4},
		{"respiratoryRate", 5, 3},
		{"respiratoryRate", 11, 2},
		{"respiratoryRate", 14, 0},
		{"respiratoryRate", 24, 2},
		{"respiratoryRate", 34, 3},
		{"respiratoryRate", 49, 4},

		{"arterialPh", 7.1, 4},
		{"arterialPh", 7.15, 3},
		{"arterialPh", 7.25, 2},
		{"arterialPh", 7.33, 0},
		{"arterialPh", 7.4, 0},
		{"arterialPh", 7.45, 2},
		{"arterialPh", 7.5, 3},
		{"arterialPh", 7.6, 4},

		{"serumSodium", 109, 4},
		{"serumSodium", 110, 3},
		{"serumSodium", 119, 2},
		{"serumSodium", 129, 0},
		{"serumSodium", 149, 2},
		{"serumSodium", 154, 3},
		{"serumSodium", 159, 4},

		{"serumPotassium", 2.4, 4},
		{"serumPotassium", 2.5, 3},
		{"serumPotassium", 2.9, 2},
		{"serumPotassium", 3.4, 0},
		{"serumPotassium", 5.4, 2},
		{"serumPotassium", 5.9, 3},
		{"serumPotassium", 6.4, 4},

		{"serumCreatinine", 0.5, 4},
		{"serumCreatinine", 0.6, 0},
		{"serumCreatinine", 1.4, 2},
		{"serumCreatinine", 1.9, 3},
		{"serumCreatinine", 3.4, 4},

		{"hematocrit", 29, 4},
		{"hematocrit", 29.9, 0},
		{"hematocrit", 45.9, 2},
		{"hematocrit", 49.9, 4},

		{"whiteBloodCellCount", 0.5, 4},
		{"whiteBloodCellCount", 0.9, 3},
		{"whiteBloodCellCount", 2.9, 0},
		{"whiteBloodCellCount", 14.9, 2},
		{"whiteBloodCellCount", 19.9, 3},
		{"whiteBloodCellCount", 39.9, 4},

		{"glasgowComaScale", 15, 0},
		{"glasgowComaScale", 3, 12},
		{"glasgowComaScale", 10, 5},
		{"glasgowComaScale", 14.5, 0},
	}
	for _, tt := range tests {
		got, ok := Default().ScoreNumeric(ApacheIIID, tt.field, tt.value)
		assert.True(t, ok, "%s has a table", tt.field)
		assert.Equal(t, tt.want, got, "%s(%v)", tt.field, tt.value)
	}
}

func TestChildPughTables(t *testing.T) {
	tests := []struct {
		field string
		value float64
		want  int
	}{
		{"totalBilirubin", 1.9, 1},
		{"totalBilirubin", 2, 2},
		{"totalBilirubin", 2.9, 2},
		{"totalBilirubin", 3, 3},

		{"albumin", 3.6, 1},
		{"albumin", 3.5, 2},
		{"albumin", 2.9, 2},
		{"albumin", 2.8, 3},

		{"prothrombinTime", 0, 1},
		{"prothrombinTime", 3.9, 1},
		{"prothrombinTime", 4, 2},
		{"prothrombinTime", 6, 3},
	}
	for _, tt := range tests {
		got, ok := Default().ScoreNumeric(ChildPughID, tt.field, tt.value)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "%s(%v)", tt.field, tt.value)
	}
}

func TestScoreNumeric_NoTable(t *testing.T) {
	got, ok := Default().ScoreNumeric(ApacheIIID, "oxygenation", 3)
	assert.False(t, ok)
	assert.Equal(t, 0, got)

	got, ok = Default().ScoreNumeric("unknown", "age", 80)
	assert.False(t, ok)
	assert.Equal(t, 0, got)
}

func TestRules_Exhausted(t *testing.T) {
	rs := Rules{Below(10, 2), Above(20, 3)}
	assert.Equal(t, 2, rs.Score(5))
	assert.Equal(t, 0, rs.Score(15))
	assert.Equal(t, 3, rs.Score(25))

	lo, hi, ok := rs.Bounds(nil)
	assert.True(t, ok)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 3, hi)

	_, _, ok = Rules{}.Bounds(nil)
	assert.False(t, ok)
}

func TestInverseFrom_Bounds(t *testing.T) {
	gcs := InverseFrom(15)
	_, _, ok := gcs.Bounds(&FieldDefinition{ID: "gcs", Type: FieldNumber})
	assert.False(t, ok)

	vmin, vmax := 3.0, 15.0
	lo, hi, ok := gcs.Bounds(&FieldDefinition{ID: "gcs", Type: FieldNumber, Validation: &Validation{Min: &vmin, Max: &vmax}})
	assert.True(t, ok)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 12, hi)
}

func TestInverseFrom_ExtremeInput(t *testing.T) {
	gcs := InverseFrom(15)
	assert.Equal(t, -math.MaxInt32, gcs.Score(1e300))
	assert.Equal(t, math.MaxInt32, gcs.Score(-1e300))
	assert.Equal(t, -math.MaxInt32, gcs.Score(math.Inf(1)))
	assert.Equal(t, math.MaxInt32, gcs.Score(math.Inf(-1)))
	assert.Equal(t, 0, gcs.Score(math.NaN()))
}
