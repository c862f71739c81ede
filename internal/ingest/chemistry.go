package ingest

import (
	"fmt"

	"eol_simulator/internal/model"
	"eol_simulator/internal/predictor"
)

// ParseChemistryMix reads a yearly chemistry-mix override.
//
// Expected columns:
//
//	Year | <one column per chemistry class, e.g. BPEV_LFP>
//
// Classes without a column are left absent and contribute nothing.
func ParseChemistryMix(s *Sheet, classes []model.ChemistryClass) (*predictor.MixTable, error) {
	if err := s.Require(ColYear); err != nil {
		return nil, err
	}
	var present []model.ChemistryClass
	for _, c := range classes {
		if s.Has(c.String()) {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("sheet %q: %w: no chemistry class columns", s.Name, ErrMissingColumn)
	}

	table := predictor.NewMixTable(classes)
	seen := make(map[int]bool)
	for i := 0; i < s.Len(); i++ {
		if s.Blank(i) {
			continue
		}
		year, err := s.Year(i)
		if err != nil {
			return nil, err
		}
		if seen[year] {
			return nil, fmt.Errorf("line %d: duplicate year %d", s.Line(i), year)
		}
		seen[year] = true

		for _, c := range present {
			v, ok, err := s.Float(i, c.String())
			if err != nil {
				return nil, err
			}
			if ok {
				table.Set(year, c, v)
			}
		}
	}
	return table, nil
}
