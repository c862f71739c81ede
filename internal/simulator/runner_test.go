package simulator

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eol_simulator/internal/model"
	"eol_simulator/internal/store"
)

func testRows() []model.FlowRow {
	return []model.FlowRow{
		{
			Retirement: model.RetirementRecord{
				Key:         model.RowKey{Year: 2025, Province: "Anhui", City: "Hefei"},
				Scenario:    "BS",
				BatteryType: "LFP",
				Family:      model.FamilyLFP,
				MassKt:      1.5,
				EnergyGWh:   0.5,
			},
			Mix: model.ProcessMix{model.OutdatedPyroLFP: 0.5, model.HydroLFP: 0.5},
		},
		{
			Retirement: model.RetirementRecord{
				Key:         model.RowKey{Year: 2026, Province: "Anhui", City: "Wuhu"},
				Scenario:    "XX",
				BatteryType: "NCM",
				Family:      model.FamilyNCM,
				MassKt:      2,
				EnergyGWh:   0.25,
			},
			Mix: model.ProcessMix{
				model.OutdatedPyroNCM:  0,
				model.OutdatedHydroNCM: 0,
				model.HydroNCM:         1,
				model.PyroHydroNCM:     0,
			},
		},
	}
}

func testRunner() (*Runner, *bytes.Buffer) {
	var logs bytes.Buffer
	return &Runner{Workers: 2, Logger: log.New(&logs, "", 0)}, &logs
}

func TestRunner_Run(t *testing.T) {
	rows := testRows()
	before := rows[0].Mix.Clone()

	set := VariantSet{Factors: testFactors("Anhui", 2), Start: 2024}
	variants := set.Baseline()
	variants = append(variants, set.Acceleration([]float64{0.2})...)
	variants = append(variants, set.SecondUse([]float64{0.2})...)
	es, err := set.Pathways([]Pathway{{Name: "SSP1", Factors: testFactors("Anhui", 1)}}, 2024, 2030)
	require.NoError(t, err)
	variants = append(variants, es...)

	r, logs := testRunner()
	buf := store.NewResultBuffer()
	require.NoError(t, r.Run(context.Background(), rows, variants, buf))

	assert.Equal(t, []string{"ar/Adjusted ratio_0.2", "bs/BS", "es/SSP1 scenario", "su/0.2"}, buf.Variants())
	assert.Equal(t, 7, buf.Len())
	assert.Empty(t, logs.String())
	assert.Empty(t, cmp.Diff(before, rows[0].Mix), "shared mixes must not change")

	bs := buf.Sorted("bs/BS")
	require.Len(t, bs, 2)
	assert.Equal(t, "Hefei", bs[0].Key.City)
	assert.Equal(t, 750*6.0+750*2.0, bs[0].Impacts[model.ImpactGlobalWarming])
	assert.Equal(t, 2000*4.0, bs[1].Impacts[model.ImpactGlobalWarming])

	esRes := buf.Sorted("es/SSP1 scenario")
	require.Len(t, esRes, 1, "pathways skip rows outside their scenarios")
	assert.Equal(t, "BS", esRes[0].Scenario)
	assert.InDelta(t, 750*(6-3.0/6)+750*(2-1.0/6), esRes[0].Impacts[model.ImpactGlobalWarming], 1e-9)

	ar := buf.Sorted("ar/Adjusted ratio_0.2")
	require.Len(t, ar, 2)
	// 0.4 outdated / 0.6 hydro after the shift.
	assert.InDelta(t, 600*6.0+900*2.0, ar[0].Impacts[model.ImpactGlobalWarming], 1e-9)

	su := buf.Sorted("su/0.2")
	require.Len(t, su, 2)
	assert.InDelta(t, 300*1.0+600*6.0+600*2.0, su[0].Impacts[model.ImpactGlobalWarming], 1e-9)

	total := Summarize(bs)
	assert.Equal(t, 14000.0, total.Impacts[model.ImpactGlobalWarming])

	byYear := SummarizeByYear(bs)
	require.Len(t, byYear, 2)
	assert.Equal(t, 2025, byYear[0].Year)
	assert.Equal(t, 6000.0, byYear[0].Impacts[model.ImpactGlobalWarming])
	assert.Equal(t, 2026, byYear[1].Year)
	assert.InDelta(t, 250000*0.109879*0.9, byYear[1].Metals[model.MetalLithium], 1e-6)
}

func TestRunner_PropagatesMixErrors(t *testing.T) {
	rows := testRows()
	delete(rows[1].Mix, model.PyroHydroNCM)

	set := VariantSet{Factors: testFactors("Anhui", 1), Start: 2024}
	r, _ := testRunner()
	buf := store.NewResultBuffer()

	err := r.Run(context.Background(), rows, set.Baseline(), buf)
	require.ErrorIs(t, err, ErrMixIntegrity)
	assert.Contains(t, err.Error(), "bs/BS")
	assert.Zero(t, buf.Len())
}

func TestRunner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set := VariantSet{Factors: testFactors("Anhui", 1), Start: 2024}
	r, _ := testRunner()
	err := r.Run(ctx, testRows(), set.Baseline(), store.NewResultBuffer())
	assert.ErrorIs(t, err, context.Canceled)
}
