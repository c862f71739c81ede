package predictor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weibullCDF(age, shape, scale float64) float64 {
	return 1 - math.Exp(-math.Pow(age/scale, shape))
}

func TestRetirementFraction_ZeroInOrBeforeSaleYear(t *testing.T) {
	p := WeibullParams{Shape: 3.5, Scale: 9}
	for _, current := range []int{2010, 2019, 2020} {
		assert.Equal(t, 0.0, RetirementFraction(2020, current, p), "current=%d", current)
	}
}

func TestRetirementFraction_MatchesClosedForm(t *testing.T) {
	tests := []struct {
		name  string
		shape float64
		scale float64
		age   int
	}{
		{"one year", 3.5, 9, 1},
		{"at scale", 3.5, 9, 9},
		{"past scale", 3.5, 9, 15},
		{"commercial", 3.5, 6.5, 4},
		{"shape one", 1, 5, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RetirementFraction(2000, 2000+tt.age, WeibullParams{Shape: tt.shape, Scale: tt.scale})
			assert.InDelta(t, weibullCDF(float64(tt.age), tt.shape, tt.scale), got, 1e-12)
		})
	}
}

func TestRetirementFraction_MonotoneInCurrentYear(t *testing.T) {
	for _, spec := range PassengerProfile().Classes {
		prev := 0.0
		for year := 2016; year <= 2060; year++ {
			f := RetirementFraction(2016, year, spec.Weibull)
			require.GreaterOrEqual(t, f, prev, "%s year %d", spec.Class, year)
			require.LessOrEqual(t, f, 1.0)
			prev = f
		}
	}
}

func TestWeibullParams_Validate(t *testing.T) {
	assert.NoError(t, WeibullParams{Shape: 3.5, Scale: 9}.Validate())
	assert.Error(t, WeibullParams{Shape: 0, Scale: 9}.Validate())
	assert.Error(t, WeibullParams{Shape: 3.5, Scale: -1}.Validate())
	assert.Error(t, WeibullParams{Shape: math.NaN(), Scale: 9}.Validate())
}
