package simulator

import (
	"bytes"
	"log"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eol_simulator/internal/model"
)

func fullMix() model.ProcessMix {
	return model.ProcessMix{
		model.OutdatedPyroNCM:  0.25,
		model.OutdatedHydroNCM: 0.25,
		model.HydroNCM:         0.25,
		model.PyroHydroNCM:     0.25,
		model.OutdatedPyroLFP:  0.25,
		model.HydroLFP:         0.75,
	}
}

func TestBaseline_CopiesMix(t *testing.T) {
	base := fullMix()
	res, err := Baseline{}.Adjust(model.FamilyNCM, 2030, base)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(base, res.Mix))

	res.Mix[model.HydroNCM] = 0
	assert.Equal(t, 0.25, base[model.HydroNCM])
}

func TestAcceleration_RatioZeroIsIdempotent(t *testing.T) {
	base := fullMix()
	policy := Acceleration{Ratio: 0, Start: 2024}

	for _, family := range model.Families {
		once, err := policy.Adjust(family, 2030, base)
		require.NoError(t, err)
		twice, err := policy.Adjust(family, 2030, once.Mix)
		require.NoError(t, err)

		if diff := cmp.Diff(base, twice.Mix); diff != "" {
			t.Errorf("%s: ratio 0 changed the mix (-base +got):\n%s", family, diff)
		}
	}
}

func TestAcceleration_ShiftsOutdatedRoutes(t *testing.T) {
	base := model.ProcessMix{
		model.OutdatedPyroNCM:  0.4,
		model.OutdatedHydroNCM: 0.2,
		model.HydroNCM:         0.3,
		model.PyroHydroNCM:     0.1,
		model.OutdatedPyroLFP:  0.5,
		model.HydroLFP:         0.5,
	}

	ncm, err := Acceleration{Ratio: 0.5, Start: 2024}.Adjust(model.FamilyNCM, 2024, base)
	require.NoError(t, err)
	assert.True(t, ncm.Renormalized)
	assert.InDelta(t, 0.2, ncm.Mix[model.OutdatedPyroNCM], 1e-12)
	assert.InDelta(t, 0.1, ncm.Mix[model.OutdatedHydroNCM], 1e-12)
	assert.InDelta(t, 0.6, ncm.Mix[model.HydroNCM], 1e-12)
	assert.InDelta(t, 0.1, ncm.Mix[model.PyroHydroNCM], 1e-12)
	assert.InDelta(t, 1, ncm.Mix.FamilySum(model.FamilyNCM), 1e-12)
	// The other family's routes are left alone.
	assert.Equal(t, 0.5, ncm.Mix[model.OutdatedPyroLFP])

	lfp, err := Acceleration{Ratio: 0.4, Start: 2024}.Adjust(model.FamilyLFP, 2030, base)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, lfp.Mix[model.OutdatedPyroLFP], 1e-12)
	assert.InDelta(t, 0.7, lfp.Mix[model.HydroLFP], 1e-12)
	assert.Equal(t, 0.4, lfp.Mix[model.OutdatedPyroNCM])

	assert.Equal(t, 0.4, base[model.OutdatedPyroNCM], "base must not change")
}

func TestAcceleration_RenormalizesFamily(t *testing.T) {
	base := model.ProcessMix{model.OutdatedPyroLFP: 0.2, model.HydroLFP: 0.6}
	res, err := Acceleration{Ratio: 0.2, Start: 2024}.Adjust(model.FamilyLFP, 2025, base)
	require.NoError(t, err)
	assert.InDelta(t, 1, res.Mix.FamilySum(model.FamilyLFP), 1e-12)
	assert.InDelta(t, 0.16/0.8, res.Mix[model.OutdatedPyroLFP], 1e-12)
}

func TestAcceleration_BeforeStartUnchanged(t *testing.T) {
	base := model.ProcessMix{model.OutdatedPyroLFP: 0.2, model.HydroLFP: 0.6}
	res, err := Acceleration{Ratio: 0.6, Start: 2024}.Adjust(model.FamilyLFP, 2023, base)
	require.NoError(t, err)
	assert.False(t, res.Renormalized)
	assert.Empty(t, cmp.Diff(base, res.Mix))
}

func TestAcceleration_ZeroSumIsIntegrityError(t *testing.T) {
	base := model.ProcessMix{model.OutdatedPyroLFP: 0, model.HydroLFP: 0}
	_, err := Acceleration{Ratio: 0.2, Start: 2024}.Adjust(model.FamilyLFP, 2025, base)
	assert.ErrorIs(t, err, ErrMixIntegrity)
}

func TestTargeted_ShiftsWithoutRenormalizing(t *testing.T) {
	base := model.ProcessMix{
		model.OutdatedPyroNCM:  0.1,
		model.OutdatedHydroNCM: 0.1,
		model.HydroNCM:         0.5,
		model.PyroHydroNCM:     0.1, // family sums to 0.8
		model.OutdatedPyroLFP:  0.5,
		model.HydroLFP:         0.5,
	}
	res, err := Targeted{Ratio: 0.4, Start: 2024}.Adjust(model.FamilyNCM, 2026, base)
	require.NoError(t, err)
	assert.False(t, res.Renormalized)
	assert.InDelta(t, 0.3, res.Mix[model.HydroNCM], 1e-12)
	assert.InDelta(t, 0.3, res.Mix[model.PyroHydroNCM], 1e-12)
	assert.InDelta(t, 0.8, res.Mix.FamilySum(model.FamilyNCM), 1e-12)
	assert.Equal(t, 0.1, res.Mix[model.OutdatedPyroNCM])

	res, err = Targeted{Ratio: 0.4, Start: 2024}.Adjust(model.FamilyLFP, 2026, base)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, res.Mix[model.OutdatedPyroLFP], 1e-12)
	assert.InDelta(t, 0.7, res.Mix[model.HydroLFP], 1e-12)
}

func TestSecondUse_Diverts(t *testing.T) {
	policy := SecondUse{Ratio: 0.4, Start: 2024}

	res, err := policy.Adjust(model.FamilyLFP, 2023, fullMix())
	require.NoError(t, err)
	assert.Zero(t, res.DivertRatio)

	res, err = policy.Adjust(model.FamilyLFP, 2024, fullMix())
	require.NoError(t, err)
	assert.Equal(t, 0.4, res.DivertRatio)
	assert.Equal(t, model.SecondUseLFP, res.DivertProcess)
	assert.Empty(t, cmp.Diff(fullMix(), res.Mix))

	res, err = policy.Adjust(model.FamilyNCM, 2030, fullMix())
	require.NoError(t, err)
	assert.Equal(t, model.SecondUseNCM, res.DivertProcess)
}

func TestResolver_MissingProportion(t *testing.T) {
	r := &Resolver{Policy: Baseline{}}
	rec := model.RetirementRecord{
		Key:         model.RowKey{Year: 2025, Province: "Anhui", City: "Hefei"},
		BatteryType: "LFP",
		Family:      model.FamilyLFP,
	}
	_, err := r.Resolve(rec, model.ProcessMix{model.HydroLFP: 1})
	require.ErrorIs(t, err, ErrMixIntegrity)
	assert.Contains(t, err.Error(), "2025/Anhui/Hefei")

	// Missing routes of the other family do not matter.
	_, err = r.Resolve(rec, model.ProcessMix{model.HydroLFP: 1, model.OutdatedPyroLFP: 0})
	assert.NoError(t, err)
}

func TestResolver_WarnsOnSumButContinues(t *testing.T) {
	var buf bytes.Buffer
	r := &Resolver{Policy: Baseline{}, Logger: log.New(&buf, "", 0)}
	rec := model.RetirementRecord{
		Key:         model.RowKey{Year: 2026, Province: "Anhui", City: "Wuhu"},
		BatteryType: "NCM",
		Family:      model.FamilyNCM,
	}
	base := fullMix()
	base[model.HydroNCM] = 0.5

	res, err := r.Resolve(rec, base)
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Mix[model.HydroNCM], "as-given proportions are used")
	assert.Contains(t, buf.String(), "2026/Anhui/Wuhu")
	assert.Contains(t, buf.String(), "1.250000")

	buf.Reset()
	_, err = r.Resolve(rec, fullMix())
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestResolver_RenormalizingPolicyDoesNotWarn(t *testing.T) {
	var buf bytes.Buffer
	r := &Resolver{Policy: Acceleration{Ratio: 0.2, Start: 2024}, Logger: log.New(&buf, "", 0)}
	rec := model.RetirementRecord{Key: model.RowKey{Year: 2025}, BatteryType: "LFP", Family: model.FamilyLFP}

	_, err := r.Resolve(rec, model.ProcessMix{model.OutdatedPyroLFP: 0.3, model.HydroLFP: 0.3})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}
