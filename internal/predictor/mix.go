package predictor

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"eol_simulator/internal/model"
)

// ErrMixSum is returned by MixTable.Validate when a year does not sum to 1.
var ErrMixSum = errors.New("chemistry mix does not sum to 1")

// MixTable maps (year, class) to the share of a year's fleet in that class.
type MixTable struct {
	classes []model.ChemistryClass
	values  map[int]map[model.ChemistryClass]float64
}

// NewMixTable creates an empty table over the given classes.
func NewMixTable(classes []model.ChemistryClass) *MixTable {
	return &MixTable{
		classes: append([]model.ChemistryClass(nil), classes...),
		values:  make(map[int]map[model.ChemistryClass]float64),
	}
}

// Classes returns the table's classes in column order.
func (m *MixTable) Classes() []model.ChemistryClass {
	return m.classes
}

// Set stores the proportion of a class in a year.
func (m *MixTable) Set(year int, c model.ChemistryClass, v float64) {
	row, ok := m.values[year]
	if !ok {
		row = make(map[model.ChemistryClass]float64, len(m.classes))
		m.values[year] = row
	}
	row[c] = v
}

// Proportion returns the share of c in year. ok is false when the table has
// no value for the pair.
func (m *MixTable) Proportion(year int, c model.ChemistryClass) (float64, bool) {
	row, ok := m.values[year]
	if !ok {
		return 0, false
	}
	v, ok := row[c]
	return v, ok
}

// HasYear reports whether any class has a value for year.
func (m *MixTable) HasYear(year int) bool {
	_, ok := m.values[year]
	return ok
}

// Years returns the years present, ascending.
func (m *MixTable) Years() []int {
	years := make([]int, 0, len(m.values))
	for y := range m.values {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Sum returns the sum of all class proportions in year.
func (m *MixTable) Sum(year int) float64 {
	row := m.values[year]
	vals := make([]float64, 0, len(row))
	for _, c := range m.classes {
		if v, ok := row[c]; ok {
			vals = append(vals, v)
		}
	}
	return floats.Sum(vals)
}

// Validate checks every year sums to 1 within tol.
func (m *MixTable) Validate(tol float64) error {
	var bad []string
	for _, y := range m.Years() {
		if s := m.Sum(y); math.Abs(s-1) > tol {
			bad = append(bad, fmt.Sprintf("%d (sum %.9f)", y, s))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrMixSum, strings.Join(bad, ", "))
	}
	return nil
}

// Clone returns a deep copy.
func (m *MixTable) Clone() *MixTable {
	out := NewMixTable(m.classes)
	for y, row := range m.values {
		cp := make(map[model.ChemistryClass]float64, len(row))
		for c, v := range row {
			cp[c] = v
		}
		out.values[y] = cp
	}
	return out
}

// MergeMix pins years at or before cutoff to baseline and takes later years
// from override when it has them. Years the override lacks fall back to the
// baseline. Neither input is modified.
func MergeMix(baseline, override *MixTable, cutoff int) *MixTable {
	out := baseline.Clone()
	if override == nil {
		return out
	}
	for y, row := range override.values {
		if y <= cutoff {
			continue
		}
		cp := make(map[model.ChemistryClass]float64, len(row))
		for c, v := range row {
			cp[c] = v
		}
		out.values[y] = cp
	}
	return out
}
