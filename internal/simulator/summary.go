package simulator

import (
	"sort"

	"eol_simulator/internal/model"
)

// Summarize sums every indicator and metal over results.
func Summarize(results []model.ScenarioResult) Totals {
	t := newTotals()
	for _, r := range results {
		for k, v := range r.Impacts {
			t.Impacts[k] += v
		}
		for k, v := range r.Metals {
			t.Metals[k] += v
		}
	}
	return t
}

// YearTotals is the summary of one calendar year.
type YearTotals struct {
	Year int
	Totals
}

// SummarizeByYear sums results per year, in year order.
func SummarizeByYear(results []model.ScenarioResult) []YearTotals {
	byYear := make(map[int][]model.ScenarioResult)
	for _, r := range results {
		byYear[r.Key.Year] = append(byYear[r.Key.Year], r)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]YearTotals, len(years))
	for i, y := range years {
		out[i] = YearTotals{Year: y, Totals: Summarize(byYear[y])}
	}
	return out
}
