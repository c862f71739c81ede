package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChemistryClass_RoundTrip(t *testing.T) {
	for _, seg := range []Segment{SegmentPassenger, SegmentCommercial} {
		classes := Classes(seg)
		require.Len(t, classes, 12)
		for _, c := range classes {
			parsed, err := ParseChemistryClass(c.String())
			require.NoError(t, err)
			assert.Equal(t, c, parsed)
		}
	}
	assert.Equal(t, "BPEV_LFP", Classes(SegmentPassenger)[0].String())
	assert.Equal(t, "HCEV_NCA", Classes(SegmentCommercial)[11].String())
}

func TestParseChemistryClass_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no separator", "BPEVLFP"},
		{"bad drive", "XPEV_LFP"},
		{"bad segment", "BXEV_LFP"},
		{"bad chemistry", "BPEV_NMC999"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChemistryClass(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestChemistry_Family(t *testing.T) {
	assert.Equal(t, FamilyLFP, ChemistryLFP.Family())
	for _, c := range []Chemistry{ChemistryNCM111, ChemistryNCM523, ChemistryNCM622, ChemistryNCM811, ChemistryNCA} {
		assert.Equal(t, FamilyNCM, c.Family(), string(c))
	}
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily(" LFP ")
	require.NoError(t, err)
	assert.Equal(t, FamilyLFP, f)

	_, err = ParseFamily("LMO")
	assert.Error(t, err)
}

func TestProcessesFor_FamilyTags(t *testing.T) {
	assert.Equal(t, []RecyclingProcess{OutdatedPyroLFP, HydroLFP}, ProcessesFor(FamilyLFP))
	assert.Equal(t, []RecyclingProcess{OutdatedPyroNCM, OutdatedHydroNCM, HydroNCM, PyroHydroNCM}, ProcessesFor(FamilyNCM))

	for _, f := range Families {
		for _, p := range ProcessesFor(f) {
			assert.True(t, p.Accepts(f))
			assert.False(t, ProcessCatalog[p].SecondaryUse)
		}
	}
	assert.False(t, HydroNCM.Accepts(FamilyLFP))
	assert.False(t, RecyclingProcess("Direct Recycling").Accepts(FamilyNCM))
}

func TestSecondUseProcess(t *testing.T) {
	assert.Equal(t, SecondUseLFP, SecondUseProcess(FamilyLFP))
	assert.Equal(t, SecondUseNCM, SecondUseProcess(FamilyNCM))
	assert.True(t, ProcessCatalog[SecondUseNCM].SecondaryUse)
}

func TestProcessMix_CloneIsIndependent(t *testing.T) {
	m := ProcessMix{HydroLFP: 0.5, OutdatedPyroLFP: 0.5}
	c := m.Clone()
	c[HydroLFP] = 1

	assert.InDelta(t, 0.5, m[HydroLFP], 1e-12)
	assert.InDelta(t, 1.0, m.FamilySum(FamilyLFP), 1e-12)
	assert.InDelta(t, 0, m.FamilySum(FamilyNCM), 1e-12)
}

func TestRowKey_Less(t *testing.T) {
	a := RowKey{Year: 2024, Province: "Anhui", City: "Hefei"}
	b := RowKey{Year: 2024, Province: "Anhui", City: "Wuhu"}
	c := RowKey{Year: 2023, Province: "Zhejiang", City: "Hangzhou"}

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, c.Less(a))
	assert.Equal(t, "2024/Anhui/Hefei", a.String())
}

func TestNewScenarioResult_ZeroedTotals(t *testing.T) {
	r := NewScenarioResult("BS", RetirementRecord{
		Key:         RowKey{Year: 2030, Province: "Guangdong", City: "Shenzhen"},
		Scenario:    "BS",
		BatteryType: "NCM",
		Family:      FamilyNCM,
	})
	assert.Len(t, r.Impacts, len(ImpactIndicators))
	assert.Len(t, r.Metals, len(Metals))
	assert.Equal(t, "NCM", r.BatteryType)
}

func TestRetirementRecord_UnitConversions(t *testing.T) {
	r := RetirementRecord{MassKt: 1.5, EnergyGWh: 0.25}
	assert.InDelta(t, 1500, r.MassTonnes(), 1e-9)
	assert.InDelta(t, 250000, r.EnergyKWh(), 1e-6)
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "0.2", FormatRatio(0.2))
	assert.Equal(t, "1.03", FormatRatio(1.03))
}
