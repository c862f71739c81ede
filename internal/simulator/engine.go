package simulator

import (
	"log"
	"math"

	"eol_simulator/internal/model"
)

// Totals is the environmental impact and recovered metal of one row.
type Totals struct {
	Impacts map[model.ImpactIndicator]float64
	Metals  map[model.Metal]float64 // kg
}

func newTotals() Totals {
	t := Totals{
		Impacts: make(map[model.ImpactIndicator]float64, len(model.ImpactIndicators)),
		Metals:  make(map[model.Metal]float64, len(model.Metals)),
	}
	for _, ind := range model.ImpactIndicators {
		t.Impacts[ind] = 0
	}
	for _, m := range model.Metals {
		t.Metals[m] = 0
	}
	return t
}

// Engine turns mass and energy flows into impact and metal totals.
type Engine struct {
	Factors    FactorSource
	Content    MetalContent
	Efficiency RecoveryEfficiency
	Logger     *log.Logger
}

// NewEngine uses the default metal content and recovery efficiencies.
func NewEngine(factors FactorSource) *Engine {
	return &Engine{
		Factors:    factors,
		Content:    DefaultMetalContent(),
		Efficiency: DefaultRecoveryEfficiency(),
	}
}

func (e *Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

// Compute applies mix to massTonnes and energyKWh for a row of family.
// Only processes tagged with family are visited.
func (e *Engine) Compute(key model.RowKey, family model.BatteryFamily, massTonnes, energyKWh float64, mix model.ProcessMix) Totals {
	t := newTotals()
	e.distribute(&t, key, family, massTonnes, energyKWh, mix)
	return t
}

// ComputeRow evaluates a retired row under a resolved mix, splitting off the
// diverted share first when the resolution asks for it.
func (e *Engine) ComputeRow(rec model.RetirementRecord, res Resolution) Totals {
	t := newTotals()
	mass, energy := rec.MassTonnes(), rec.EnergyKWh()

	if res.DivertRatio > 0 {
		divMass, remMass := Split(mass, res.DivertRatio)
		divEnergy, remEnergy := Split(energy, res.DivertRatio)
		e.accumulate(&t, rec.Key, rec.Family, res.DivertProcess, divMass, divEnergy)
		mass, energy = remMass, remEnergy
	}
	e.distribute(&t, rec.Key, rec.Family, mass, energy, res.Mix)
	return t
}

// Split divides amount into the diverted share and the remainder; the two
// always add back to amount exactly. The smaller share is taken as the
// difference from the larger, which is the one subtraction that cannot round.
func Split(amount, ratio float64) (diverted, remaining float64) {
	if ratio <= 0.5 {
		remaining = amount - amount*ratio
		return amount - remaining, remaining
	}
	diverted = amount * ratio
	return diverted, amount - diverted
}

func (e *Engine) distribute(t *Totals, key model.RowKey, family model.BatteryFamily, mass, energy float64, mix model.ProcessMix) {
	for _, p := range model.ProcessesFor(family) {
		share, ok := mix[p]
		if !ok {
			continue
		}
		e.accumulate(t, key, family, p, mass*share, energy*share)
	}
}

func (e *Engine) accumulate(t *Totals, key model.RowKey, family model.BatteryFamily, p model.RecyclingProcess, mass, energy float64) {
	if !p.Accepts(family) {
		return
	}
	if invalidFlow(mass) || invalidFlow(energy) {
		e.logger().Printf("skipping invalid flow: %s %s via %q: mass %g t, energy %g kWh", key, family, p, mass, energy)
		return
	}
	for _, ind := range model.ImpactIndicators {
		t.Impacts[ind] += mass * e.Factors.FactorAt(key.Province, p, family, ind, key.Year)
	}
	for _, m := range model.Metals {
		t.Metals[m] += energy * e.Content.Content(family, m) * e.Efficiency.Efficiency(p, family, m)
	}
}

func invalidFlow(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}
