package model

// ImpactIndicator is one CML-style midpoint indicator. The string value is
// the "Impact" cell of the impact-factor sheet and the output column name.
type ImpactIndicator string

const (
	ImpactAbioticDepletion       ImpactIndicator = "Abiotic depletion"
	ImpactAbioticDepletionFossil ImpactIndicator = "Abiotic depletion (fossil fuels)"
	ImpactAcidification          ImpactIndicator = "Acidification"
	ImpactEutrophication         ImpactIndicator = "Eutrophication"
	ImpactFreshWaterEcotox       ImpactIndicator = "Fresh water aquatic ecotox."
	ImpactGlobalWarming          ImpactIndicator = "Global warming (GWP100a)"
	ImpactHumanToxicity          ImpactIndicator = "Human toxicity"
	ImpactMarineEcotox           ImpactIndicator = "Marine aquatic ecotoxicity"
	ImpactOzoneDepletion         ImpactIndicator = "Ozone layer depletion (ODP)"
	ImpactPhotochemical          ImpactIndicator = "Photochemical oxidation"
	ImpactTerrestrialEcotox      ImpactIndicator = "Terrestrial ecotoxicity"
)

// ImpactIndicators lists all indicators in output column order.
var ImpactIndicators = []ImpactIndicator{
	ImpactAbioticDepletion,
	ImpactAbioticDepletionFossil,
	ImpactAcidification,
	ImpactEutrophication,
	ImpactFreshWaterEcotox,
	ImpactGlobalWarming,
	ImpactHumanToxicity,
	ImpactMarineEcotox,
	ImpactOzoneDepletion,
	ImpactPhotochemical,
	ImpactTerrestrialEcotox,
}

// Metal is a recoverable cathode metal.
type Metal string

const (
	MetalNickel    Metal = "nickel"
	MetalCobalt    Metal = "cobalt"
	MetalLithium   Metal = "lithium"
	MetalManganese Metal = "manganese"
)

// Metals lists the metals in output column order.
var Metals = []Metal{MetalNickel, MetalCobalt, MetalLithium, MetalManganese}

// ImpactFactorEntry is one cell of an impact-factor sheet: the impact per
// tonne of battery sent through Process in Province.
type ImpactFactorEntry struct {
	Province  string
	Process   RecyclingProcess
	Indicator ImpactIndicator
	Value     float64
}
