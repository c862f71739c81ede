package predictor

import (
	"fmt"

	"eol_simulator/internal/model"
)

// ClassSpec is the fixed description of one chemistry class.
type ClassSpec struct {
	Class              model.ChemistryClass
	Weibull            WeibullParams
	NominalMassKg      float64
	NominalCapacityKWh float64
}

// Profile bundles everything the aggregator needs for one vehicle segment:
// class specs in column order, the year span and the baseline mix.
type Profile struct {
	Segment   model.Segment
	FirstYear int
	LastYear  int
	Classes   []ClassSpec
	Mix       *MixTable

	index map[model.ChemistryClass]int
}

// Years returns FirstYear..LastYear inclusive.
func (p *Profile) Years() []int {
	years := make([]int, 0, p.LastYear-p.FirstYear+1)
	for y := p.FirstYear; y <= p.LastYear; y++ {
		years = append(years, y)
	}
	return years
}

// Spec returns the spec of a class.
func (p *Profile) Spec(c model.ChemistryClass) (ClassSpec, bool) {
	i, ok := p.index[c]
	if !ok {
		return ClassSpec{}, false
	}
	return p.Classes[i], true
}

// ClassList returns the classes in column order.
func (p *Profile) ClassList() []model.ChemistryClass {
	out := make([]model.ChemistryClass, len(p.Classes))
	for i, s := range p.Classes {
		out[i] = s.Class
	}
	return out
}

// ProfileFor returns the built-in profile of a segment.
func ProfileFor(seg model.Segment) (*Profile, error) {
	switch seg {
	case model.SegmentPassenger:
		return PassengerProfile(), nil
	case model.SegmentCommercial:
		return CommercialProfile(), nil
	}
	return nil, fmt.Errorf("no baseline profile for segment %q", seg)
}

// PassengerProfile is the private-vehicle baseline, 2016-2030.
func PassengerProfile() *Profile {
	return buildProfile(model.SegmentPassenger, 2016, profileData{
		scales:     [12]float64{9, 8, 9, 10, 10.5, 11, 10.5, 9.5, 10.5, 11.5, 12, 12.5},
		masses:     [12]float64{350, 349, 303, 305, 479, 208, 357, 333, 278, 250, 227, 278},
		capacities: [12]float64{50, 42, 40.5, 54, 78, 75, 15, 20, 18, 35, 40, 15},
		mix: [12][]float64{
			{0.543065476, 0.355647668, 0.29184876, 0.251713961, 0.288924559, 0.4394, 0.49042, 0.49781, 0.49781, 0.49781, 0.49781, 0.49781, 0.49781, 0.49781, 0.49781},
			{0.028836012, 0.054317098, 0.036518511, 0.016046765, 0.020545746, 0.006929, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			{0.168579762, 0.33495544, 0.301277719, 0.336982066, 0.27223114, 0.174408, 0.0791, 0.03715, 0.03715, 0.03715, 0.03715, 0.03715, 0.03715, 0.03715, 0.03715},
			{0.022181548, 0.058843523, 0.082166651, 0.101629512, 0.102728732, 0.068952, 0.07119, 0.05944, 0.05944, 0.05944, 0.05944, 0.05944, 0.05944, 0.05944, 0.05944},
			{0.001109077, 0.002263212, 0.018259256, 0.058838138, 0.113001605, 0.146016, 0.14238, 0.14117, 0.14117, 0.14117, 0.14117, 0.14117, 0.14117, 0.14117, 0.14117},
			{0.001109077, 0.002263212, 0.018259256, 0.021395687, 0.005136437, 0.009295, 0.00791, 0.00743, 0.00743, 0.00743, 0.00743, 0.00743, 0.00743, 0.00743, 0.00743},
			{0.166934524, 0.084352332, 0.09815124, 0.068286039, 0.071075441, 0.0806, 0.12958, 0.17219, 0.17219, 0.17219, 0.17219, 0.17219, 0.17219, 0.17219, 0.17219},
			{0.008863988, 0.012882902, 0.012281489, 0.004353235, 0.005054254, 0.001271, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			{0.051820238, 0.07944456, 0.101322281, 0.091417934, 0.06696886, 0.031992, 0.0209, 0.01285, 0.01285, 0.01285, 0.01285, 0.01285, 0.01285, 0.01285, 0.01285},
			{0.006818452, 0.013956477, 0.027633349, 0.027570488, 0.025271268, 0.012648, 0.01881, 0.02056, 0.02056, 0.02056, 0.02056, 0.02056, 0.02056, 0.02056, 0.02056},
			{0.000340923, 0.000536788, 0.006140744, 0.015961862, 0.027798395, 0.026784, 0.03762, 0.04883, 0.04883, 0.04883, 0.04883, 0.04883, 0.04883, 0.04883, 0.04883},
			{0.000340923, 0.000536788, 0.006140744, 0.005804313, 0.001263563, 0.001705, 0.00209, 0.00257, 0.00257, 0.00257, 0.00257, 0.00257, 0.00257, 0.00257, 0.00257},
		},
	})
}

// CommercialProfile is the commercial-vehicle baseline, 2017-2030.
func CommercialProfile() *Profile {
	return buildProfile(model.SegmentCommercial, 2017, profileData{
		scales:     [12]float64{6.5, 5.5, 5.5, 6, 6.5, 7, 6.8, 7, 7, 7.5, 8, 8.5},
		masses:     [12]float64{790, 762, 783, 833, 846, 926, 160, 170, 174, 188, 190, 204},
		capacities: [12]float64{150, 160, 180, 180, 200, 220, 30, 35, 40, 48, 55, 64},
		mix: [12][]float64{
			{0.410943396, 0.376493506, 0.306554622, 0.345123967, 0.508817204, 0.607159763, 0.6566, 0.6566, 0.6566, 0.6566, 0.6566, 0.6566, 0.6566, 0.6566},
			{0.062762264, 0.047109957, 0.019542857, 0.024542149, 0.008023656, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			{0.387033962, 0.388657143, 0.4104, 0.325183471, 0.20196129, 0.097928994, 0.049, 0.049, 0.049, 0.049, 0.049, 0.049, 0.049, 0.049},
			{0.067992453, 0.105997403, 0.123771429, 0.122710744, 0.079845161, 0.088136095, 0.0784, 0.0784, 0.0784, 0.0784, 0.0784, 0.0784, 0.0784, 0.0784},
			{0.002615094, 0.023554978, 0.071657143, 0.134981818, 0.169083871, 0.176272189, 0.1862, 0.1862, 0.1862, 0.1862, 0.1862, 0.1862, 0.1862, 0.1862},
			{0.002615094, 0.023554978, 0.026057143, 0.006135537, 0.010763441, 0.009792899, 0.0098, 0.0098, 0.0098, 0.0098, 0.0098, 0.0098, 0.0098, 0.0098},
			{0.029056604, 0.013506494, 0.013445378, 0.014876033, 0.011182796, 0.012840237, 0.0134, 0.0134, 0.0134, 0.0134, 0.0134, 0.0134, 0.0134, 0.0134},
			{0.004437736, 0.001690043, 0.000857143, 0.001057851, 0.000176344, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			{0.027366038, 0.013942857, 0.018, 0.014016529, 0.00443871, 0.002071006, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001},
			{0.004807547, 0.003802597, 0.005428571, 0.005289256, 0.001754839, 0.001863905, 0.0016, 0.0016, 0.0016, 0.0016, 0.0016, 0.0016, 0.0016, 0.0016},
			{0.000184906, 0.000845022, 0.003142857, 0.005818182, 0.003716129, 0.003727811, 0.0038, 0.0038, 0.0038, 0.0038, 0.0038, 0.0038, 0.0038, 0.0038},
			{0.000184906, 0.000845022, 0.001142857, 0.000264463, 0.000236559, 0.000207101, 0.0002, 0.0002, 0.0002, 0.0002, 0.0002, 0.0002, 0.0002, 0.0002},
		},
	})
}

// baselineShape is shared by every class.
const baselineShape = 3.5

// profileData is indexed in model.Classes order; mix rows hold one value per
// year starting at the profile's first year.
type profileData struct {
	scales     [12]float64
	masses     [12]float64
	capacities [12]float64
	mix        [12][]float64
}

func buildProfile(seg model.Segment, firstYear int, d profileData) *Profile {
	classes := model.Classes(seg)
	p := &Profile{
		Segment:   seg,
		FirstYear: firstYear,
		LastYear:  firstYear + len(d.mix[0]) - 1,
		Classes:   make([]ClassSpec, len(classes)),
		Mix:       NewMixTable(classes),
		index:     make(map[model.ChemistryClass]int, len(classes)),
	}
	for i, c := range classes {
		p.Classes[i] = ClassSpec{
			Class:              c,
			Weibull:            WeibullParams{Shape: baselineShape, Scale: d.scales[i]},
			NominalMassKg:      d.masses[i],
			NominalCapacityKWh: d.capacities[i],
		}
		p.index[c] = i
		for off, v := range d.mix[i] {
			p.Mix.Set(firstYear+off, c, v)
		}
	}
	return p
}
