package ingest

import (
	"fmt"

	"eol_simulator/internal/model"
)

// ParseImpactFactors reads an impact-factor table.
//
// Expected columns:
//
//	Province | Impact | <one column per process>
//
// Secondary-use columns are optional. Empty cells are skipped; sparse
// tables are expected.
func ParseImpactFactors(s *Sheet) ([]model.ImpactFactorEntry, error) {
	if err := s.Require(ColProvince, "Impact"); err != nil {
		return nil, err
	}
	processes := presentProcesses(s)
	if len(processes) == 0 {
		return nil, fmt.Errorf("sheet %q: %w: no process columns", s.Name, ErrMissingColumn)
	}

	var entries []model.ImpactFactorEntry
	for i := 0; i < s.Len(); i++ {
		if s.Blank(i) {
			continue
		}
		province := s.Cell(i, ColProvince)
		indicator := model.ImpactIndicator(s.Cell(i, "Impact"))
		if indicator == "" {
			return nil, fmt.Errorf("line %d: empty Impact", s.Line(i))
		}
		for _, p := range processes {
			v, ok, err := s.Float(i, string(p))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			entries = append(entries, model.ImpactFactorEntry{
				Province:  province,
				Process:   p,
				Indicator: indicator,
				Value:     v,
			})
		}
	}
	return entries, nil
}
