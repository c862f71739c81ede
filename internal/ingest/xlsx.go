package ingest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing column")

// Sheet is one worksheet read into memory. Columns are addressed by name;
// header matching ignores case and whitespace, so "Weight(thousand t)" and
// "Weight (thousand t)" are the same column.
type Sheet struct {
	Name   string
	header []string
	index  map[string]int
	rows   [][]string
}

// ReadSheet reads a worksheet from an xlsx stream. An empty name selects the
// first sheet.
func ReadSheet(r io.Reader, name string) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	return readSheet(f, name)
}

// ReadSheetFile reads a worksheet from an xlsx file.
func ReadSheetFile(path, name string) (*Sheet, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	s, err := ReadSheet(fh, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func readSheet(f *excelize.File, name string) (*Sheet, error) {
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		name = sheets[0]
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", name)
	}
	return NewSheet(name, rows[0], rows[1:]), nil
}

// NewSheet builds a sheet from a header and data rows. The first occurrence
// of a duplicated header wins.
func NewSheet(name string, header []string, rows [][]string) *Sheet {
	s := &Sheet{
		Name:   name,
		header: make([]string, len(header)),
		index:  make(map[string]int, len(header)),
		rows:   rows,
	}
	for i, h := range header {
		s.header[i] = strings.TrimSpace(h)
		key := canonical(h)
		if key == "" {
			continue
		}
		if _, dup := s.index[key]; !dup {
			s.index[key] = i
		}
	}
	return s
}

func canonical(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), ""))
}

// Header returns the trimmed header cells in sheet order.
func (s *Sheet) Header() []string { return s.header }

// Has reports whether col is present.
func (s *Sheet) Has(col string) bool {
	_, ok := s.index[canonical(col)]
	return ok
}

// Require checks every column is present and lists the ones that are not.
func (s *Sheet) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !s.Has(c) {
			missing = append(missing, strconv.Quote(c))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("sheet %q: %w: %s", s.Name, ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// Len returns the number of data rows.
func (s *Sheet) Len() int { return len(s.rows) }

// Line returns the 1-based spreadsheet line of data row i.
func (s *Sheet) Line(i int) int { return i + 2 }

// Blank reports whether every cell of row i is empty.
func (s *Sheet) Blank(i int) bool {
	for _, c := range s.rows[i] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Cell returns the trimmed value of col in row i, or "" when the column or
// cell is absent.
func (s *Sheet) Cell(i int, col string) string {
	idx, ok := s.index[canonical(col)]
	if !ok {
		return ""
	}
	row := s.rows[i]
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Float parses col in row i. ok is false for an empty or NaN cell.
func (s *Sheet) Float(i int, col string) (v float64, ok bool, err error) {
	raw := s.Cell(i, col)
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("line %d: parsing %s %q: %w", s.Line(i), col, raw, err)
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	return v, true, nil
}

// Year parses the Year column of row i. Integral floats such as "2024.0"
// are accepted.
func (s *Sheet) Year(i int) (int, error) {
	raw := s.Cell(i, "Year")
	y, err := parseYear(raw)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", s.Line(i), err)
	}
	return y, nil
}

func parseYear(raw string) (int, error) {
	if y, err := strconv.Atoi(raw); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return int(f), nil
}
