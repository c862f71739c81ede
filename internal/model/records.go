package model

import (
	"fmt"
	"strconv"
)

// RowKey identifies a (year, province, city) cell shared by the retired,
// recycling-mix and result tables.
type RowKey struct {
	Year     int
	Province string
	City     string
}

func (k RowKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.Year, k.Province, k.City)
}

// Less orders keys by year, then province, then city.
func (k RowKey) Less(o RowKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	if k.Province != o.Province {
		return k.Province < o.Province
	}
	return k.City < o.City
}

// SalesRecord is one sales cohort of a region. Missing marks a forecast gap:
// the value is unknown, not zero.
type SalesRecord struct {
	Region   string
	Province string
	Year     int
	Sales    float64
	Missing  bool
}

// RetirementRecord is retired battery mass and energy for one row of the
// retired-battery table. BatteryType is either a chemistry class
// ("BPEV_LFP") or a family ("LFP"); Family is always set.
type RetirementRecord struct {
	Key         RowKey
	Scenario    string
	BatteryType string
	Family      BatteryFamily
	MassKt      float64 // thousand tonnes
	EnergyGWh   float64
}

// MassTonnes converts the retired mass to tonnes.
func (r RetirementRecord) MassTonnes() float64 { return r.MassKt * 1e3 }

// EnergyKWh converts the retired energy to kWh.
func (r RetirementRecord) EnergyKWh() float64 { return r.EnergyGWh * 1e6 }

// FlowRow is a retired row joined with its recycling mix.
type FlowRow struct {
	Retirement RetirementRecord
	Mix        ProcessMix
}

// ScenarioResult is one output row of a scenario variant.
type ScenarioResult struct {
	Variant     string
	Key         RowKey
	Scenario    string
	BatteryType string
	Impacts     map[ImpactIndicator]float64
	Metals      map[Metal]float64
}

// NewScenarioResult returns a result with zeroed totals for every
// indicator and metal.
func NewScenarioResult(variant string, r RetirementRecord) ScenarioResult {
	res := ScenarioResult{
		Variant:     variant,
		Key:         r.Key,
		Scenario:    r.Scenario,
		BatteryType: r.BatteryType,
		Impacts:     make(map[ImpactIndicator]float64, len(ImpactIndicators)),
		Metals:      make(map[Metal]float64, len(Metals)),
	}
	for _, ind := range ImpactIndicators {
		res.Impacts[ind] = 0
	}
	for _, m := range Metals {
		res.Metals[m] = 0
	}
	return res
}

// FormatRatio renders a scenario parameter the way sheet names use it.
func FormatRatio(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
