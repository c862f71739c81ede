package simulator

import (
	"fmt"

	"eol_simulator/internal/model"
)

// FactorSource yields the impact of processing one tonne of battery.
type FactorSource interface {
	FactorAt(province string, process model.RecyclingProcess, family model.BatteryFamily, indicator model.ImpactIndicator, year int) float64
}

type factorKey struct {
	province  string
	process   model.RecyclingProcess
	family    model.BatteryFamily
	indicator model.ImpactIndicator
}

// ImpactFactors is an immutable (province, process, family, indicator)
// lookup. The family of each entry comes from the process catalog, so a
// process can only ever be found under its own family.
type ImpactFactors struct {
	values map[factorKey]float64
}

// NewImpactFactors indexes entries. Entries for processes outside the
// catalog are dropped.
func NewImpactFactors(entries []model.ImpactFactorEntry) *ImpactFactors {
	f := &ImpactFactors{values: make(map[factorKey]float64, len(entries))}
	for _, e := range entries {
		if !e.Process.IsKnown() {
			continue
		}
		f.values[factorKey{
			province:  e.Province,
			process:   e.Process,
			family:    e.Process.Family(),
			indicator: e.Indicator,
		}] = e.Value
	}
	return f
}

// Len returns the number of stored factors.
func (f *ImpactFactors) Len() int { return len(f.values) }

// Lookup returns the stored factor. A process asked for under a family it
// does not accept is never found.
func (f *ImpactFactors) Lookup(province string, process model.RecyclingProcess, family model.BatteryFamily, indicator model.ImpactIndicator) (float64, bool) {
	if !process.Accepts(family) {
		return 0, false
	}
	v, ok := f.values[factorKey{province: province, process: process, family: family, indicator: indicator}]
	return v, ok
}

// FactorAt implements FactorSource; the table is the same every year and a
// missing entry contributes nothing.
func (f *ImpactFactors) FactorAt(province string, process model.RecyclingProcess, family model.BatteryFamily, indicator model.ImpactIndicator, _ int) float64 {
	v, _ := f.Lookup(province, process, family, indicator)
	return v
}

// Transition moves linearly from From to To over [Start, End). Before Start
// the From value applies; from End on, exactly the To value.
type Transition struct {
	From  *ImpactFactors
	To    *ImpactFactors
	Start int
	End   int
}

// Validate checks the window and tables.
func (t Transition) Validate() error {
	if t.From == nil || t.To == nil {
		return fmt.Errorf("transition needs both source and destination factors")
	}
	if t.End <= t.Start {
		return fmt.Errorf("transition window [%d, %d) is empty", t.Start, t.End)
	}
	return nil
}

// Interpolate steps from old towards dest by (old-dest)/(End-Start) per
// year elapsed since Start.
func (t Transition) Interpolate(old, dest float64, year int) float64 {
	switch {
	case year < t.Start:
		return old
	case year >= t.End:
		return dest
	}
	step := (old - dest) / float64(t.End-t.Start)
	return old - float64(year-t.Start)*step
}

// FactorAt implements FactorSource.
func (t Transition) FactorAt(province string, process model.RecyclingProcess, family model.BatteryFamily, indicator model.ImpactIndicator, year int) float64 {
	old, _ := t.From.Lookup(province, process, family, indicator)
	dest, _ := t.To.Lookup(province, process, family, indicator)
	return t.Interpolate(old, dest, year)
}

// MetalContent is kg of metal per kWh of capacity, by family.
type MetalContent map[model.BatteryFamily]map[model.Metal]float64

// DefaultMetalContent returns cathode metal loadings for LFP and NCM packs.
func DefaultMetalContent() MetalContent {
	return MetalContent{
		model.FamilyLFP: {
			model.MetalLithium: 0.106,
		},
		model.FamilyNCM: {
			model.MetalNickel:    0.6,
			model.MetalCobalt:    0.23475,
			model.MetalLithium:   0.109879,
			model.MetalManganese: 0.24,
		},
	}
}

// Content returns 0 for unknown pairs.
func (m MetalContent) Content(f model.BatteryFamily, metal model.Metal) float64 {
	return m[f][metal]
}

// RecoveryEfficiency is the recovered fraction of contained metal, by
// process.
type RecoveryEfficiency map[model.RecyclingProcess]map[model.Metal]float64

func uniformNCM(ni, co, li, mn float64) map[model.Metal]float64 {
	return map[model.Metal]float64{
		model.MetalNickel:    ni,
		model.MetalCobalt:    co,
		model.MetalLithium:   li,
		model.MetalManganese: mn,
	}
}

func lithiumOnly(li float64) map[model.Metal]float64 {
	return map[model.Metal]float64{model.MetalLithium: li}
}

// DefaultRecoveryEfficiency covers every process, secondary use included.
func DefaultRecoveryEfficiency() RecoveryEfficiency {
	return RecoveryEfficiency{
		model.OutdatedPyroNCM:  uniformNCM(0.7, 0.7, 0.5, 0.7),
		model.OutdatedPyroLFP:  lithiumOnly(0.5),
		model.OutdatedHydroNCM: uniformNCM(0.75, 0.75, 0.6, 0.75),
		model.HydroNCM:         uniformNCM(0.98, 0.98, 0.9, 0.98),
		model.HydroLFP:         lithiumOnly(0.9),
		model.PyroHydroNCM:     uniformNCM(0.98, 0.98, 0.9, 0.98),
		model.SecondUseLFP:     lithiumOnly(0.8),
		model.SecondUseNCM:     uniformNCM(0.8, 0.8, 0.8, 0.8),
	}
}

// TargetedRecoveryEfficiency is the improved table used with the
// targeted-shift policy.
func TargetedRecoveryEfficiency() RecoveryEfficiency {
	e := DefaultRecoveryEfficiency()
	e[model.OutdatedPyroNCM] = uniformNCM(0.7, 0.7, 0.55, 0.7)
	e[model.OutdatedPyroLFP] = lithiumOnly(0.55)
	e[model.OutdatedHydroNCM] = uniformNCM(0.75, 0.75, 0.65, 0.75)
	e[model.HydroNCM] = uniformNCM(0.983, 0.983, 0.91, 0.983)
	e[model.HydroLFP] = lithiumOnly(0.92)
	e[model.PyroHydroNCM] = uniformNCM(0.985, 0.985, 0.95, 0.985)
	return e
}

// Efficiency returns the recovery fraction of metal for flow of family
// through process. Mismatched families recover nothing.
func (e RecoveryEfficiency) Efficiency(process model.RecyclingProcess, family model.BatteryFamily, metal model.Metal) float64 {
	if !process.Accepts(family) {
		return 0
	}
	return e[process][metal]
}
