package predictor

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// WeibullParams is the two-parameter survival curve of a chemistry class.
// Scale is in years.
type WeibullParams struct {
	Shape float64
	Scale float64
}

// Validate rejects non-positive parameters.
func (p WeibullParams) Validate() error {
	if !(p.Shape > 0) || !(p.Scale > 0) {
		return fmt.Errorf("weibull parameters must be positive: shape=%g scale=%g", p.Shape, p.Scale)
	}
	return nil
}

// CDF returns F(age) = 1 - exp(-(age/scale)^shape).
func (p WeibullParams) CDF(age float64) float64 {
	return distuv.Weibull{K: p.Shape, Lambda: p.Scale}.CDF(age)
}

// RetirementFraction is the share of a cohort sold in salesYear that has
// retired by currentYear. Nothing retires in or before the sale year.
func RetirementFraction(salesYear, currentYear int, p WeibullParams) float64 {
	if currentYear <= salesYear {
		return 0
	}
	return p.CDF(float64(currentYear - salesYear))
}
