package simulator

import (
	"errors"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"

	"eol_simulator/internal/model"
)

// ErrMixIntegrity marks a recycling mix that cannot be used: a required
// proportion is missing, or a family that must be renormalized sums to <= 0.
var ErrMixIntegrity = errors.New("recycling mix integrity")

// DefaultTolerance is the allowed deviation of a family's proportions from 1.
const DefaultTolerance = 1e-6

// Resolution is the mix to apply to one row. When DivertRatio > 0 that share
// of mass and energy goes to DivertProcess first and Mix applies to the
// remainder.
type Resolution struct {
	Mix           model.ProcessMix
	DivertRatio   float64
	DivertProcess model.RecyclingProcess
	Renormalized  bool
}

// Policy derives a row's mix from its base mix. Adjust must not modify
// base.
type Policy interface {
	Adjust(family model.BatteryFamily, year int, base model.ProcessMix) (Resolution, error)
}

// Baseline passes the mix through unchanged.
type Baseline struct{}

func (Baseline) Adjust(_ model.BatteryFamily, _ int, base model.ProcessMix) (Resolution, error) {
	return Resolution{Mix: base.Clone()}, nil
}

// Acceleration moves Ratio of each outdated route to its modern
// counterpart from Start on, then renormalizes the row family.
type Acceleration struct {
	Ratio float64
	Start int
}

func (a Acceleration) Adjust(family model.BatteryFamily, year int, base model.ProcessMix) (Resolution, error) {
	mix := base.Clone()
	if year < a.Start {
		return Resolution{Mix: mix}, nil
	}
	switch family {
	case model.FamilyLFP:
		shift(mix, model.OutdatedPyroLFP, model.HydroLFP, a.Ratio)
	case model.FamilyNCM:
		shift(mix, model.OutdatedPyroNCM, model.HydroNCM, a.Ratio)
		shift(mix, model.OutdatedHydroNCM, model.HydroNCM, a.Ratio)
	}
	if err := Renormalize(mix, family); err != nil {
		return Resolution{}, err
	}
	return Resolution{Mix: mix, Renormalized: true}, nil
}

// Targeted moves Ratio of hydro-NCM to pyro-hydro-NCM and of outdated
// pyro-LFP to hydro-LFP from Start on. Proportions are not renormalized.
type Targeted struct {
	Ratio float64
	Start int
}

func (t Targeted) Adjust(family model.BatteryFamily, year int, base model.ProcessMix) (Resolution, error) {
	mix := base.Clone()
	if year < t.Start {
		return Resolution{Mix: mix}, nil
	}
	switch family {
	case model.FamilyLFP:
		shift(mix, model.OutdatedPyroLFP, model.HydroLFP, t.Ratio)
	case model.FamilyNCM:
		shift(mix, model.HydroNCM, model.PyroHydroNCM, t.Ratio)
	}
	return Resolution{Mix: mix}, nil
}

// SecondUse diverts Ratio of every row from Start on to the family's
// secondary-use route. The recycling mix itself is untouched.
type SecondUse struct {
	Ratio float64
	Start int
}

func (s SecondUse) Adjust(family model.BatteryFamily, year int, base model.ProcessMix) (Resolution, error) {
	res := Resolution{Mix: base.Clone()}
	if year >= s.Start && s.Ratio > 0 {
		res.DivertRatio = s.Ratio
		res.DivertProcess = model.SecondUseProcess(family)
	}
	return res, nil
}

func shift(mix model.ProcessMix, from, to model.RecyclingProcess, ratio float64) {
	moved := mix[from] * ratio
	mix[from] -= moved
	mix[to] += moved
}

// Renormalize scales the family's routes so they sum to 1.
func Renormalize(mix model.ProcessMix, family model.BatteryFamily) error {
	procs := model.ProcessesFor(family)
	vals := make([]float64, len(procs))
	for i, p := range procs {
		vals[i] = mix[p]
	}
	sum := floats.Sum(vals)
	if !(sum > 0) {
		return fmt.Errorf("%w: %s proportions sum to %g", ErrMixIntegrity, family, sum)
	}
	for _, p := range procs {
		mix[p] /= sum
	}
	return nil
}

// Resolver applies a policy to each row and checks the result.
type Resolver struct {
	Policy    Policy
	Tolerance float64
	Logger    *log.Logger
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

// Resolve returns the mix for rec. Missing proportions for the row family
// are an ErrMixIntegrity error. A family sum outside tolerance is logged
// with the row identity and the mix is used as given.
func (r *Resolver) Resolve(rec model.RetirementRecord, base model.ProcessMix) (Resolution, error) {
	for _, p := range model.ProcessesFor(rec.Family) {
		v, ok := base[p]
		if !ok || math.IsNaN(v) {
			return Resolution{}, fmt.Errorf("%w: %s %s: no proportion for %q", ErrMixIntegrity, rec.Key, rec.BatteryType, p)
		}
	}

	res, err := r.Policy.Adjust(rec.Family, rec.Key.Year, base)
	if err != nil {
		return Resolution{}, fmt.Errorf("%s %s: %w", rec.Key, rec.BatteryType, err)
	}

	tol := r.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if sum := res.Mix.FamilySum(rec.Family); math.Abs(sum-1) > tol {
		r.logger().Printf("warning: %s %s: %s process proportions sum to %.6f, not 1", rec.Key, rec.BatteryType, rec.Family, sum)
	}
	return res, nil
}
