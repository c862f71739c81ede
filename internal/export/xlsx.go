package export

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"eol_simulator/internal/ingest"
	"eol_simulator/internal/model"
)

// ErrEmptyWorkbook is returned when every sheet of a workbook has no rows.
var ErrEmptyWorkbook = errors.New("workbook has no rows")

const columnWidth = 16

// Sheet is one named table of a workbook.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// ResultSheet is the output of one scenario variant.
type ResultSheet struct {
	Name    string
	Results []model.ScenarioResult
}

// RetirementSheet is one retirement table.
type RetirementSheet struct {
	Name    string
	Records []model.RetirementRecord
}

// ScenarioFileName returns the workbook name for a scenario family title
// such as "BS" or "AR".
func ScenarioFileName(title string) string {
	return fmt.Sprintf("Environmental impact and metal recovery results under %s scenario.xlsx", title)
}

// ScenarioHeader lists the result columns in output order.
func ScenarioHeader() []string {
	h := []string{ingest.ColYear, ingest.ColCity, ingest.ColProvince, ingest.ColScenario, ingest.ColBatteryType}
	for _, ind := range model.ImpactIndicators {
		h = append(h, string(ind))
	}
	for _, m := range model.Metals {
		h = append(h, string(m))
	}
	return h
}

// RetirementHeader lists the retired-table columns; the table reads back
// with ingest.ParseRetired.
func RetirementHeader() []string {
	return []string{
		ingest.ColYear,
		ingest.ColProvince,
		ingest.ColCity,
		ingest.ColScenario,
		ingest.ColBatteryType,
		ingest.ColWeight,
		ingest.ColCapacity,
	}
}

// NewResultSheet lays out results one row each.
func NewResultSheet(name string, results []model.ScenarioResult) Sheet {
	s := Sheet{Name: name, Header: ScenarioHeader(), Rows: make([][]any, 0, len(results))}
	for _, r := range results {
		row := []any{r.Key.Year, r.Key.City, r.Key.Province, r.Scenario, r.BatteryType}
		for _, ind := range model.ImpactIndicators {
			row = append(row, cellValue(r.Impacts[ind]))
		}
		for _, m := range model.Metals {
			row = append(row, cellValue(r.Metals[m]))
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// NewRetirementSheet lays out retirement records one row each.
func NewRetirementSheet(name string, records []model.RetirementRecord) Sheet {
	s := Sheet{Name: name, Header: RetirementHeader(), Rows: make([][]any, 0, len(records))}
	for _, r := range records {
		s.Rows = append(s.Rows, []any{
			r.Key.Year,
			r.Key.Province,
			r.Key.City,
			r.Scenario,
			r.BatteryType,
			cellValue(r.MassKt),
			cellValue(r.EnergyGWh),
		})
	}
	return s
}

// NaN and infinities are written as blank cells.
func cellValue(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// WriteScenarioWorkbook writes one sheet per variant. Variants without rows
// are left out; if none has rows nothing is written and ErrEmptyWorkbook is
// returned.
func WriteScenarioWorkbook(path string, sheets []ResultSheet) error {
	out := make([]Sheet, 0, len(sheets))
	for _, s := range sheets {
		if len(s.Results) == 0 {
			continue
		}
		out = append(out, NewResultSheet(s.Name, s.Results))
	}
	return WriteWorkbook(path, out)
}

// WriteRetirementWorkbook writes one retirement table per sheet.
func WriteRetirementWorkbook(path string, sheets []RetirementSheet) error {
	out := make([]Sheet, 0, len(sheets))
	for _, s := range sheets {
		if len(s.Records) == 0 {
			continue
		}
		out = append(out, NewRetirementSheet(s.Name, s.Records))
	}
	return WriteWorkbook(path, out)
}

// WriteWorkbook saves sheets in order, creating the parent directory.
func WriteWorkbook(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return ErrEmptyWorkbook
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return fmt.Errorf("sheet %q: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("sheet %q: %w", s.Name, err)
		}
		if err := writeSheet(f, s); err != nil {
			return fmt.Errorf("sheet %q: %w", s.Name, err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, s Sheet) error {
	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		return err
	}

	for i, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(s.Name, cell, &r); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(s.Header))
	if err != nil {
		return err
	}
	return f.SetColWidth(s.Name, "A", last, columnWidth)
}
