package predictor

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"eol_simulator/internal/model"
)

// Range is a closed-open interval for uniform draws.
type Range struct {
	Min float64
	Max float64
}

func (r Range) validate(name string) error {
	if !(r.Min <= r.Max) || r.Min < 0 {
		return fmt.Errorf("%s range [%g, %g) is invalid", name, r.Min, r.Max)
	}
	return nil
}

// DriftConfig controls how unit capacity and mass evolve past the
// historical cutoff.
type DriftConfig struct {
	Cutoff             int
	DensityFactor      float64
	HistoricalCapacity Range
	ProjectedCapacity  Range
	ProjectedMass      Range
	// Drift disables the post-cutoff tables when false: every year uses the
	// historical draw.
	Drift bool
}

// DefaultDrift returns the 2023 cutoff with 3%/year density growth.
func DefaultDrift() DriftConfig {
	return DriftConfig{
		Cutoff:             2023,
		DensityFactor:      1.03,
		HistoricalCapacity: Range{Min: 0.6, Max: 0.8},
		ProjectedCapacity:  Range{Min: 0.7, Max: 0.8},
		ProjectedMass:      Range{Min: 0.95, Max: 1.05},
		Drift:              true,
	}
}

// Validate checks the ranges and density factor.
func (d DriftConfig) Validate() error {
	if !(d.DensityFactor > 0) {
		return fmt.Errorf("density factor must be positive, got %g", d.DensityFactor)
	}
	if err := d.HistoricalCapacity.validate("historical capacity"); err != nil {
		return err
	}
	if err := d.ProjectedCapacity.validate("projected capacity"); err != nil {
		return err
	}
	return d.ProjectedMass.validate("projected mass")
}

// Parameters is the unit capacity and mass of every class for one year.
type Parameters struct {
	Year        int
	CapacityKWh map[model.ChemistryClass]float64
	MassKg      map[model.ChemistryClass]float64
}

// ParameterTable produces per-year unit parameters. Draws are seeded and
// memoized: asking for the same year twice returns the same values, and
// each year's draw depends only on the seed and the year.
type ParameterTable struct {
	profile *Profile
	drift   DriftConfig
	seed    uint64

	mu         sync.Mutex
	historical Parameters
	byYear     map[int]Parameters
}

// NewParameterTable draws the historical table immediately.
func NewParameterTable(p *Profile, drift DriftConfig, seed uint64) (*ParameterTable, error) {
	if err := drift.Validate(); err != nil {
		return nil, err
	}
	t := &ParameterTable{
		profile: p,
		drift:   drift,
		seed:    seed,
		byYear:  make(map[int]Parameters),
	}
	t.historical = t.draw(drift.Cutoff, false)
	return t, nil
}

// WithDensityFactor returns a fresh table with the same seed and profile
// but a different density factor.
func (t *ParameterTable) WithDensityFactor(f float64) (*ParameterTable, error) {
	d := t.drift
	d.DensityFactor = f
	return NewParameterTable(t.profile, d, t.seed)
}

// Drift returns the table's configuration.
func (t *ParameterTable) Drift() DriftConfig { return t.drift }

// DensityFactor is 1 up to the cutoff and factor^(year-cutoff) after.
func (t *ParameterTable) DensityFactor(year int) float64 {
	if year <= t.drift.Cutoff {
		return 1
	}
	return math.Pow(t.drift.DensityFactor, float64(year-t.drift.Cutoff))
}

// ForYear returns the unit parameters for year. The returned maps must not
// be modified.
func (t *ParameterTable) ForYear(year int) Parameters {
	if !t.drift.Drift || year <= t.drift.Cutoff {
		p := t.historical
		p.Year = year
		return p
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.byYear[year]; ok {
		return p
	}
	p := t.draw(year, true)
	t.byYear[year] = p
	return p
}

func (t *ParameterTable) draw(year int, projected bool) Parameters {
	stream := uint64(0)
	capRange := t.drift.HistoricalCapacity
	if projected {
		stream = uint64(year)
		capRange = t.drift.ProjectedCapacity
	}
	src := rand.NewPCG(t.seed, stream)
	capDist := distuv.Uniform{Min: capRange.Min, Max: capRange.Max, Src: src}
	massDist := distuv.Uniform{Min: t.drift.ProjectedMass.Min, Max: t.drift.ProjectedMass.Max, Src: src}
	density := t.DensityFactor(year)

	p := Parameters{
		Year:        year,
		CapacityKWh: make(map[model.ChemistryClass]float64, len(t.profile.Classes)),
		MassKg:      make(map[model.ChemistryClass]float64, len(t.profile.Classes)),
	}
	for _, spec := range t.profile.Classes {
		capacity := spec.NominalCapacityKWh * draw(capDist, capRange)
		mass := spec.NominalMassKg
		if projected {
			capacity *= density
			mass *= draw(massDist, t.drift.ProjectedMass)
		}
		p.CapacityKWh[spec.Class] = capacity
		p.MassKg[spec.Class] = mass
	}
	return p
}

// draw samples u, handling degenerate ranges without touching the source.
func draw(u distuv.Uniform, r Range) float64 {
	if r.Min == r.Max {
		return r.Min
	}
	return u.Rand()
}
