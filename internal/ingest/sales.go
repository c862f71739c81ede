package ingest

import (
	"fmt"

	"eol_simulator/internal/model"
)

// SalesOptions configures ParseSales.
type SalesOptions struct {
	// RegionColumn names the region column. Defaults to "City".
	RegionColumn string
	// ValueColumn names the sales column. When empty the first column that
	// is not Year, Province or the region column is used.
	ValueColumn string
}

// ParseSales reads a sales forecast table.
//
// Expected columns:
//
//	City | Year | <sales>   (Province optional)
//
// Empty or NaN sales cells are kept as records with Missing set.
func ParseSales(s *Sheet, opts SalesOptions) ([]model.SalesRecord, error) {
	region := opts.RegionColumn
	if region == "" {
		region = "City"
	}
	if err := s.Require(region, "Year"); err != nil {
		return nil, err
	}

	value := opts.ValueColumn
	if value == "" {
		value = detectValueColumn(s, region)
		if value == "" {
			return nil, fmt.Errorf("sheet %q: %w: no sales column", s.Name, ErrMissingColumn)
		}
	} else if err := s.Require(value); err != nil {
		return nil, err
	}

	records := make([]model.SalesRecord, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		if s.Blank(i) {
			continue
		}
		year, err := s.Year(i)
		if err != nil {
			return nil, err
		}
		name := s.Cell(i, region)
		if name == "" {
			return nil, fmt.Errorf("line %d: empty %s", s.Line(i), region)
		}
		sales, ok, err := s.Float(i, value)
		if err != nil {
			return nil, err
		}
		records = append(records, model.SalesRecord{
			Region:   name,
			Province: s.Cell(i, "Province"),
			Year:     year,
			Sales:    sales,
			Missing:  !ok,
		})
	}
	return records, nil
}

func detectValueColumn(s *Sheet, region string) string {
	skip := map[string]bool{
		canonical(region):     true,
		canonical("Year"):     true,
		canonical("Province"): true,
	}
	for _, h := range s.Header() {
		if h != "" && !skip[canonical(h)] {
			return h
		}
	}
	return ""
}
