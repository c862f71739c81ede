package simulator

import (
	"fmt"
	"math"
	"strconv"

	"eol_simulator/internal/model"
)

// Kind is a scenario family. Each kind is written to its own workbook.
type Kind string

const (
	KindBaseline     Kind = "bs"
	KindAcceleration Kind = "ar"
	KindTargeted     Kind = "to"
	KindSecondUse    Kind = "su"
	KindPathway      Kind = "es"
)

// Kinds lists every scenario family in run order.
var Kinds = []Kind{KindBaseline, KindAcceleration, KindTargeted, KindSecondUse, KindPathway}

// ParseKind accepts the lowercase kind tag.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown scenario kind %q", s)
}

// Title is the scenario label used in output file names.
func (k Kind) Title() string {
	switch k {
	case KindBaseline:
		return "BS"
	case KindAcceleration:
		return "AR"
	case KindTargeted:
		return "TO"
	case KindSecondUse:
		return "SU"
	case KindPathway:
		return "ES"
	}
	return string(k)
}

// Variant is one scenario-parameter value of a kind: a policy, the engine
// that evaluates it and the retired scenarios it applies to.
type Variant struct {
	Kind   Kind
	Sheet  string
	Param  float64
	Policy Policy
	Engine *Engine
	// Scenarios restricts the retired rows by Scenario tag; empty means all.
	Scenarios []string
}

// ID identifies the variant across kinds.
func (v Variant) ID() string {
	return string(v.Kind) + "/" + v.Sheet
}

// Accepts reports whether rows of the given scenario tag are evaluated.
func (v Variant) Accepts(scenario string) bool {
	if len(v.Scenarios) == 0 {
		return true
	}
	for _, s := range v.Scenarios {
		if s == scenario {
			return true
		}
	}
	return false
}

// Pathway is a named destination impact-factor table.
type Pathway struct {
	Name    string
	Factors *ImpactFactors
}

// PathwayScenarios are the retired-row scenario tags evaluated under
// pathway variants.
var PathwayScenarios = []string{"BS", "TP", "ED", "LE"}

// VariantSet holds the shared inputs for building variants.
type VariantSet struct {
	Factors    *ImpactFactors
	Content    MetalContent
	Efficiency RecoveryEfficiency
	// Start is the first year scenario policies apply.
	Start int
}

func (s VariantSet) engine(factors FactorSource, eff RecoveryEfficiency) *Engine {
	content := s.Content
	if content == nil {
		content = DefaultMetalContent()
	}
	if eff == nil {
		eff = s.Efficiency
	}
	if eff == nil {
		eff = DefaultRecoveryEfficiency()
	}
	return &Engine{Factors: factors, Content: content, Efficiency: eff}
}

// Baseline returns the single pass-through variant.
func (s VariantSet) Baseline() []Variant {
	return []Variant{{
		Kind:   KindBaseline,
		Sheet:  "BS",
		Policy: Baseline{},
		Engine: s.engine(s.Factors, nil),
	}}
}

// Acceleration returns one variant per ratio, sheets "Adjusted ratio_<r>".
func (s VariantSet) Acceleration(ratios []float64) []Variant {
	out := make([]Variant, 0, len(ratios))
	for _, r := range ratios {
		out = append(out, Variant{
			Kind:   KindAcceleration,
			Sheet:  "Adjusted ratio_" + model.FormatRatio(r),
			Param:  r,
			Policy: Acceleration{Ratio: r, Start: s.Start},
			Engine: s.engine(s.Factors, nil),
		})
	}
	return out
}

// Targeted returns one variant per ratio, sheets "<pct>%", evaluated with
// the targeted recovery efficiencies.
func (s VariantSet) Targeted(ratios []float64) []Variant {
	out := make([]Variant, 0, len(ratios))
	for _, r := range ratios {
		out = append(out, Variant{
			Kind:   KindTargeted,
			Sheet:  percent(r),
			Param:  r,
			Policy: Targeted{Ratio: r, Start: s.Start},
			Engine: s.engine(s.Factors, TargetedRecoveryEfficiency()),
		})
	}
	return out
}

// SecondUse returns one variant per diverted ratio, sheets "<r>".
func (s VariantSet) SecondUse(ratios []float64) []Variant {
	out := make([]Variant, 0, len(ratios))
	for _, r := range ratios {
		out = append(out, Variant{
			Kind:   KindSecondUse,
			Sheet:  model.FormatRatio(r),
			Param:  r,
			Policy: SecondUse{Ratio: r, Start: s.Start},
			Engine: s.engine(s.Factors, nil),
		})
	}
	return out
}

// Pathways returns one variant per destination table, sheets
// "<name> scenario", with factors interpolated over [start, end).
func (s VariantSet) Pathways(pathways []Pathway, start, end int) ([]Variant, error) {
	out := make([]Variant, 0, len(pathways))
	for _, p := range pathways {
		tr := Transition{From: s.Factors, To: p.Factors, Start: start, End: end}
		if err := tr.Validate(); err != nil {
			return nil, fmt.Errorf("pathway %s: %w", p.Name, err)
		}
		out = append(out, Variant{
			Kind:      KindPathway,
			Sheet:     p.Name + " scenario",
			Policy:    Baseline{},
			Engine:    s.engine(tr, nil),
			Scenarios: PathwayScenarios,
		})
	}
	return out, nil
}

func percent(r float64) string {
	return strconv.FormatFloat(math.Round(r*1e4)/1e2, 'f', -1, 64) + "%"
}
