package ingest

import (
	"fmt"

	"eol_simulator/internal/model"
)

// ProcessMixTable maps a row key to its recycling mix.
type ProcessMixTable map[model.RowKey]model.ProcessMix

// ParseProcessMix reads the recycling-mix table.
//
// Expected columns:
//
//	Year | Province | City | <one column per recycling process>
//
// Empty cells leave the process absent from the row's mix. A key that
// appears twice is an error.
func ParseProcessMix(s *Sheet) (ProcessMixTable, error) {
	if err := s.Require(ColYear, ColProvince, ColCity); err != nil {
		return nil, err
	}
	processes := presentProcesses(s)
	if len(processes) == 0 {
		return nil, fmt.Errorf("sheet %q: %w: no recycling process columns", s.Name, ErrMissingColumn)
	}

	table := make(ProcessMixTable, s.Len())
	lines := make(map[model.RowKey]int, s.Len())
	for i := 0; i < s.Len(); i++ {
		if s.Blank(i) {
			continue
		}
		year, err := s.Year(i)
		if err != nil {
			return nil, err
		}
		key := model.RowKey{Year: year, Province: s.Cell(i, ColProvince), City: s.Cell(i, ColCity)}
		if prev, dup := lines[key]; dup {
			return nil, fmt.Errorf("line %d: duplicate mix row %s (first at line %d)", s.Line(i), key, prev)
		}
		lines[key] = s.Line(i)

		mix := make(model.ProcessMix, len(processes))
		for _, p := range processes {
			v, ok, err := s.Float(i, string(p))
			if err != nil {
				return nil, err
			}
			if ok {
				mix[p] = v
			}
		}
		table[key] = mix
	}
	return table, nil
}

// presentProcesses returns the catalog processes that have a column in s,
// recycling routes first, then secondary use.
func presentProcesses(s *Sheet) []model.RecyclingProcess {
	var out []model.RecyclingProcess
	for _, p := range model.RecyclingProcesses {
		if s.Has(string(p)) {
			out = append(out, p)
		}
	}
	for _, p := range []model.RecyclingProcess{model.SecondUseLFP, model.SecondUseNCM} {
		if s.Has(string(p)) {
			out = append(out, p)
		}
	}
	return out
}
