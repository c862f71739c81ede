package predictor

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"eol_simulator/internal/model"
)

// MixConvention selects which year's chemistry mix a retiring cohort is
// attributed with.
type MixConvention int

const (
	// MixAtCurrentYear applies the retirement year's mix to every cohort.
	MixAtCurrentYear MixConvention = iota
	// MixAtSalesYear attributes each cohort to the mix of its sale year.
	MixAtSalesYear
)

// String returns the scenario tag used for the convention.
func (c MixConvention) String() string {
	if c == MixAtSalesYear {
		return "TP"
	}
	return "ED"
}

// ParseConvention accepts "ed"/"current" or "tp"/"sales".
func ParseConvention(s string) (MixConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ed", "current":
		return MixAtCurrentYear, nil
	case "tp", "sales":
		return MixAtSalesYear, nil
	}
	return 0, fmt.Errorf("unknown mix convention %q (want ed or tp)", s)
}

// CohortSource provides sales cohorts grouped by region.
type CohortSource interface {
	Regions() []string
	Cohorts(region string) []model.SalesRecord
}

// Retirement is the retired amount of one class in one year.
type Retirement struct {
	Count     float64
	MassKg    float64
	EnergyKWh float64
}

// RegionRetirement is the full retirement history of one region.
type RegionRetirement struct {
	Region   string
	Province string
	Years    map[int]map[model.ChemistryClass]Retirement
	// MissingCohorts counts sales cohorts excluded because their value was
	// missing.
	MissingCohorts int
}

// Aggregator combines sales cohorts with survival curves, the chemistry mix
// and unit parameters.
type Aggregator struct {
	Profile    *Profile
	Mix        *MixTable
	Params     *ParameterTable
	Convention MixConvention
	Logger     *log.Logger
}

func (a *Aggregator) logger() *log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return log.Default()
}

// AggregateRegion computes retirement for every year in years and every
// class of the profile. Years without any retirement are still present with
// zero values.
func (a *Aggregator) AggregateRegion(region string, cohorts []model.SalesRecord, years []int) RegionRetirement {
	out := RegionRetirement{
		Region: region,
		Years:  make(map[int]map[model.ChemistryClass]Retirement, len(years)),
	}

	valid := make([]model.SalesRecord, 0, len(cohorts))
	for _, c := range cohorts {
		if out.Province == "" {
			out.Province = c.Province
		}
		if c.Missing || math.IsNaN(c.Sales) {
			out.MissingCohorts++
			continue
		}
		if c.Sales < 0 {
			a.logger().Printf("region %s: skipping negative sales %g in %d", region, c.Sales, c.Year)
			continue
		}
		valid = append(valid, c)
	}
	if out.MissingCohorts > 0 {
		a.logger().Printf("region %s: %d sales cohort(s) missing, excluded from retirement sums", region, out.MissingCohorts)
	}

	for _, year := range years {
		params := a.Params.ForYear(year)
		row := make(map[model.ChemistryClass]Retirement, len(a.Profile.Classes))
		for _, spec := range a.Profile.Classes {
			count := a.retiredCount(spec, valid, year)
			row[spec.Class] = Retirement{
				Count:     count,
				MassKg:    count * params.MassKg[spec.Class],
				EnergyKWh: count * params.CapacityKWh[spec.Class],
			}
		}
		out.Years[year] = row
	}
	return out
}

func (a *Aggregator) retiredCount(spec ClassSpec, cohorts []model.SalesRecord, year int) float64 {
	if a.Convention == MixAtCurrentYear {
		share, _ := a.Mix.Proportion(year, spec.Class)
		var retired float64
		for _, c := range cohorts {
			retired += c.Sales * RetirementFraction(c.Year, year, spec.Weibull)
		}
		return retired * share
	}

	var retired float64
	for _, c := range cohorts {
		share, _ := a.Mix.Proportion(c.Year, spec.Class)
		retired += c.Sales * RetirementFraction(c.Year, year, spec.Weibull) * share
	}
	return retired
}

// Aggregate runs AggregateRegion for every region of src and flattens the
// result into retirement records tagged with scenario. Records are sorted by
// year, province, city and then class column order. An empty scenario uses
// the convention tag.
func (a *Aggregator) Aggregate(src CohortSource, years []int, scenario string) []model.RetirementRecord {
	if scenario == "" {
		scenario = a.Convention.String()
	}
	var records []model.RetirementRecord
	for _, region := range src.Regions() {
		rr := a.AggregateRegion(region, src.Cohorts(region), years)
		records = append(records, rr.Records(a.Profile, scenario)...)
	}
	SortRecords(records)
	return records
}

// Records converts the region history into output rows: mass in thousand
// tonnes and energy in GWh.
func (rr RegionRetirement) Records(p *Profile, scenario string) []model.RetirementRecord {
	years := make([]int, 0, len(rr.Years))
	for y := range rr.Years {
		years = append(years, y)
	}
	sort.Ints(years)

	records := make([]model.RetirementRecord, 0, len(years)*len(p.Classes))
	for _, y := range years {
		for _, spec := range p.Classes {
			r := rr.Years[y][spec.Class]
			records = append(records, model.RetirementRecord{
				Key:         model.RowKey{Year: y, Province: rr.Province, City: rr.Region},
				Scenario:    scenario,
				BatteryType: spec.Class.String(),
				Family:      spec.Class.Family(),
				MassKt:      r.MassKg / 1e6,
				EnergyGWh:   r.EnergyKWh / 1e6,
			})
		}
	}
	return records
}

// SortRecords orders records by key and keeps the relative order of rows
// sharing a key.
func SortRecords(records []model.RetirementRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Key.Less(records[j].Key)
	})
}
