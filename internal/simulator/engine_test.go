package simulator

import (
	"bytes"
	"log"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eol_simulator/internal/model"
)

// processFactor is the per-tonne factor used for every indicator in tests.
var processFactor = map[model.RecyclingProcess]float64{
	model.OutdatedPyroNCM:  5,
	model.OutdatedPyroLFP:  3,
	model.OutdatedHydroNCM: 4,
	model.HydroNCM:         2,
	model.HydroLFP:         1,
	model.PyroHydroNCM:     6,
	model.SecondUseLFP:     0.5,
	model.SecondUseNCM:     0.25,
}

func testFactors(province string, scale float64) *ImpactFactors {
	var entries []model.ImpactFactorEntry
	for p, v := range processFactor {
		for _, ind := range model.ImpactIndicators {
			entries = append(entries, model.ImpactFactorEntry{
				Province:  province,
				Process:   p,
				Indicator: ind,
				Value:     v * scale,
			})
		}
	}
	return NewImpactFactors(entries)
}

func quietEngine(factors FactorSource) (*Engine, *bytes.Buffer) {
	var buf bytes.Buffer
	e := NewEngine(factors)
	e.Logger = log.New(&buf, "", 0)
	return e, &buf
}

func TestImpactFactors_DropsUnknownProcesses(t *testing.T) {
	f := NewImpactFactors([]model.ImpactFactorEntry{
		{Province: "Anhui", Process: model.HydroLFP, Indicator: model.ImpactGlobalWarming, Value: 1},
		{Province: "Anhui", Process: "Direct Recycling LFP", Indicator: model.ImpactGlobalWarming, Value: 9},
	})
	assert.Equal(t, 1, f.Len())

	v, ok := f.Lookup("Anhui", model.HydroLFP, model.FamilyLFP, model.ImpactGlobalWarming)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = f.Lookup("Anhui", model.HydroLFP, model.FamilyNCM, model.ImpactGlobalWarming)
	assert.False(t, ok, "a process is never found under the other family")
	_, ok = f.Lookup("Hubei", model.HydroLFP, model.FamilyLFP, model.ImpactGlobalWarming)
	assert.False(t, ok)
}

func TestTransition_Interpolate(t *testing.T) {
	tr := Transition{Start: 2024, End: 2030}

	tests := []struct {
		year int
		want float64
	}{
		{2020, 10},
		{2023, 10},
		{2024, 10},
		{2025, 9},
		{2027, 7},
		{2029, 5},
		{2030, 4},
		{2040, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tr.Interpolate(10, 4, tt.year), "year %d", tt.year)
	}
}

func TestTransition_FactorAt(t *testing.T) {
	tr := Transition{From: testFactors("Anhui", 2), To: testFactors("Anhui", 1), Start: 2024, End: 2030}
	require.NoError(t, tr.Validate())

	// HydroNCM: 4 before the window, 2 from its end on.
	assert.Equal(t, 4.0, tr.FactorAt("Anhui", model.HydroNCM, model.FamilyNCM, model.ImpactAcidification, 2023))
	assert.InDelta(t, 4-2.0/6*3, tr.FactorAt("Anhui", model.HydroNCM, model.FamilyNCM, model.ImpactAcidification, 2027), 1e-12)
	assert.Equal(t, 2.0, tr.FactorAt("Anhui", model.HydroNCM, model.FamilyNCM, model.ImpactAcidification, 2030))
	assert.Zero(t, tr.FactorAt("Anhui", model.HydroNCM, model.FamilyLFP, model.ImpactAcidification, 2030))

	assert.Error(t, Transition{From: tr.From, To: tr.To, Start: 2030, End: 2030}.Validate())
	assert.Error(t, Transition{From: tr.From, Start: 2024, End: 2030}.Validate())
}

func TestRecoveryEfficiency_FamilyGuard(t *testing.T) {
	eff := DefaultRecoveryEfficiency()
	assert.Equal(t, 0.98, eff.Efficiency(model.HydroNCM, model.FamilyNCM, model.MetalNickel))
	assert.Zero(t, eff.Efficiency(model.HydroNCM, model.FamilyLFP, model.MetalLithium))
	assert.Zero(t, eff.Efficiency(model.HydroLFP, model.FamilyLFP, model.MetalNickel))

	targeted := TargetedRecoveryEfficiency()
	assert.Equal(t, 0.92, targeted.Efficiency(model.HydroLFP, model.FamilyLFP, model.MetalLithium))
	assert.Equal(t, 0.9, eff.Efficiency(model.HydroLFP, model.FamilyLFP, model.MetalLithium), "default table unchanged")
}

func TestEngine_Compute(t *testing.T) {
	e, logs := quietEngine(testFactors("Anhui", 1))
	key := model.RowKey{Year: 2025, Province: "Anhui", City: "Hefei"}
	mix := model.ProcessMix{
		model.OutdatedPyroNCM:  0,
		model.OutdatedHydroNCM: 0,
		model.HydroNCM:         1,
		model.PyroHydroNCM:     0,
	}

	got := e.Compute(key, model.FamilyNCM, 1000, 1e6, mix)
	for _, ind := range model.ImpactIndicators {
		assert.Equal(t, 2000.0, got.Impacts[ind], ind)
	}
	assert.InDelta(t, 1e6*0.6*0.98, got.Metals[model.MetalNickel], 1e-6)
	assert.InDelta(t, 1e6*0.23475*0.98, got.Metals[model.MetalCobalt], 1e-6)
	assert.InDelta(t, 1e6*0.109879*0.9, got.Metals[model.MetalLithium], 1e-6)
	assert.InDelta(t, 1e6*0.24*0.98, got.Metals[model.MetalManganese], 1e-6)
	assert.Empty(t, logs.String())
}

func TestEngine_FamilyIsolation(t *testing.T) {
	e, _ := quietEngine(testFactors("Anhui", 1))
	key := model.RowKey{Year: 2025, Province: "Anhui", City: "Hefei"}

	all := model.ProcessMix{}
	for _, p := range model.RecyclingProcesses {
		all[p] = 1
	}

	lfp := e.Compute(key, model.FamilyLFP, 100, 1000, all)
	for _, ind := range model.ImpactIndicators {
		assert.Equal(t, 100*(3.0+1.0), lfp.Impacts[ind], "only LFP routes count for %s", ind)
	}
	assert.Zero(t, lfp.Metals[model.MetalNickel])
	assert.Zero(t, lfp.Metals[model.MetalCobalt])
	assert.InDelta(t, 1000*0.106*(0.5+0.9), lfp.Metals[model.MetalLithium], 1e-9)

	ncmOnly := model.ProcessMix{model.HydroNCM: 1, model.PyroHydroNCM: 1}
	got := e.Compute(key, model.FamilyLFP, 100, 1000, ncmOnly)
	for _, ind := range model.ImpactIndicators {
		assert.Zero(t, got.Impacts[ind])
	}
	for _, m := range model.Metals {
		assert.Zero(t, got.Metals[m])
	}

	ncm := e.Compute(key, model.FamilyNCM, 100, 1000, all)
	assert.Equal(t, 100*(5.0+4.0+2.0+6.0), ncm.Impacts[model.ImpactGlobalWarming])
}

func TestEngine_SkipsInvalidFlows(t *testing.T) {
	e, logs := quietEngine(testFactors("Anhui", 1))
	key := model.RowKey{Year: 2027, Province: "Anhui", City: "Hefei"}
	mix := model.ProcessMix{model.OutdatedPyroLFP: 0.5, model.HydroLFP: 0.5}

	got := e.Compute(key, model.FamilyLFP, -10, 1000, mix)
	assert.Zero(t, got.Impacts[model.ImpactGlobalWarming])
	assert.Zero(t, got.Metals[model.MetalLithium])
	assert.Contains(t, logs.String(), "skipping invalid flow")
	assert.Contains(t, logs.String(), "2027/Anhui/Hefei")

	logs.Reset()
	got = e.Compute(key, model.FamilyLFP, 10, math.NaN(), mix)
	assert.Zero(t, got.Impacts[model.ImpactGlobalWarming])
	assert.False(t, math.IsNaN(got.Metals[model.MetalLithium]))
	assert.Contains(t, logs.String(), "skipping invalid flow")
}

func TestSplit_Conserves(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	amounts := []float64{100, 37.5, 2, 1500, 500000, 2.5e6, 461.3862177205994}
	for range 20000 {
		amounts = append(amounts, rng.Float64()*1e3, rng.Float64()*1e7)
	}

	for _, ratio := range []float64{0.2, 0.4, 0.6} {
		mismatches := 0
		for _, amount := range amounts {
			d, r := Split(amount, ratio)
			if d+r != amount || d < 0 || r < 0 {
				mismatches++
				if mismatches <= 3 {
					t.Errorf("ratio %g amount %v: %v + %v = %v", ratio, amount, d, r, d+r)
				}
			}
			assert.InDelta(t, amount*ratio, d, 1e-9*amount+1e-12)
		}
		assert.Zero(t, mismatches, "ratio %g", ratio)
	}

	d, r := Split(1500, 0)
	assert.Zero(t, d)
	assert.Equal(t, 1500.0, r)

	d, r = Split(1500, 1)
	assert.Equal(t, 1500.0, d)
	assert.Zero(t, r)
}

func TestEngine_ComputeRowDiverts(t *testing.T) {
	e, _ := quietEngine(testFactors("Anhui", 1))
	rec := model.RetirementRecord{
		Key:         model.RowKey{Year: 2026, Province: "Anhui", City: "Hefei"},
		Scenario:    "BS",
		BatteryType: "LFP",
		Family:      model.FamilyLFP,
		MassKt:      1.5,
		EnergyGWh:   0.5,
	}
	res := Resolution{
		Mix:           model.ProcessMix{model.OutdatedPyroLFP: 0, model.HydroLFP: 1},
		DivertRatio:   0.4,
		DivertProcess: model.SecondUseLFP,
	}

	got := e.ComputeRow(rec, res)
	assert.InDelta(t, 600*0.5+900*1, got.Impacts[model.ImpactGlobalWarming], 1e-9)
	assert.InDelta(t, 200000*0.106*0.8+300000*0.106*0.9, got.Metals[model.MetalLithium], 1e-6)

	plain := e.ComputeRow(rec, Resolution{Mix: res.Mix})
	assert.Equal(t, 1500.0, plain.Impacts[model.ImpactGlobalWarming])
}
