package predictor

import (
	"fmt"
	"sort"

	"eol_simulator/internal/model"
)

// DefaultSensitivityFactors are the density factors swept by Sensitivity.
var DefaultSensitivityFactors = []float64{1.01, 1.02, 1.03, 1.04, 1.05}

// SensitivityRun is the retirement table produced with one density factor.
type SensitivityRun struct {
	Factor  float64
	Records []model.RetirementRecord
}

// SheetName returns the workbook sheet name for the run, e.g. "Factor_1.03".
func (r SensitivityRun) SheetName() string {
	return "Factor_" + model.FormatRatio(r.Factor)
}

// Sensitivity reruns the aggregation once per density factor. Each run gets
// its own parameter table derived from a's, so the seed is shared and only
// the density factor differs.
func Sensitivity(a *Aggregator, src CohortSource, years []int, scenario string, factors []float64) ([]SensitivityRun, error) {
	runs := make([]SensitivityRun, 0, len(factors))
	for _, f := range factors {
		params, err := a.Params.WithDensityFactor(f)
		if err != nil {
			return nil, fmt.Errorf("density factor %g: %w", f, err)
		}
		variant := *a
		variant.Params = params
		runs = append(runs, SensitivityRun{
			Factor:  f,
			Records: variant.Aggregate(src, years, scenario),
		})
	}
	return runs, nil
}

type familyKey struct {
	key      model.RowKey
	scenario string
	family   model.BatteryFamily
}

// RollupFamilies collapses class-level records into one LFP and one NCM row
// per (year, province, city, scenario). Output is sorted by key with LFP
// before NCM.
func RollupFamilies(records []model.RetirementRecord) []model.RetirementRecord {
	sums := make(map[familyKey]*model.RetirementRecord)
	var order []familyKey
	for _, r := range records {
		k := familyKey{key: r.Key, scenario: r.Scenario, family: r.Family}
		agg, ok := sums[k]
		if !ok {
			agg = &model.RetirementRecord{
				Key:         r.Key,
				Scenario:    r.Scenario,
				BatteryType: string(r.Family),
				Family:      r.Family,
			}
			sums[k] = agg
			order = append(order, k)
		}
		agg.MassKt += r.MassKt
		agg.EnergyGWh += r.EnergyGWh
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.key != b.key {
			return a.key.Less(b.key)
		}
		if a.scenario != b.scenario {
			return a.scenario < b.scenario
		}
		return a.family < b.family
	})
	out := make([]model.RetirementRecord, len(order))
	for i, k := range order {
		out[i] = *sums[k]
	}
	return out
}
