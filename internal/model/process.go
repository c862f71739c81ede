package model

import "sort"

// RecyclingProcess is an end-of-life route. The string value is the column
// header used by the recycling-mix and impact-factor spreadsheets.
type RecyclingProcess string

const (
	OutdatedPyroNCM  RecyclingProcess = "Outdated Pyrometallurgical Recovery NCM"
	OutdatedPyroLFP  RecyclingProcess = "Outdated Pyrometallurgical Recovery LFP"
	OutdatedHydroNCM RecyclingProcess = "Outdated Hydrometallurgical Recovery NCM"
	HydroNCM         RecyclingProcess = "Hydrometallurgical Recovery NCM"
	HydroLFP         RecyclingProcess = "Hydrometallurgical Recovery LFP"
	PyroHydroNCM     RecyclingProcess = "Pyro-Hydrometallurgical Recovery NCM"
	SecondUseLFP     RecyclingProcess = "Secondary Use LFP"
	SecondUseNCM     RecyclingProcess = "Secondary Use NCM"
)

// ProcessInfo describes a process. Family is fixed here and is the only
// thing consulted when deciding whether a flow may enter the process.
type ProcessInfo struct {
	Family       BatteryFamily
	Outdated     bool
	SecondaryUse bool
}

// ProcessCatalog maps every known process to its description.
var ProcessCatalog = map[RecyclingProcess]ProcessInfo{
	OutdatedPyroNCM:  {Family: FamilyNCM, Outdated: true},
	OutdatedPyroLFP:  {Family: FamilyLFP, Outdated: true},
	OutdatedHydroNCM: {Family: FamilyNCM, Outdated: true},
	HydroNCM:         {Family: FamilyNCM},
	HydroLFP:         {Family: FamilyLFP},
	PyroHydroNCM:     {Family: FamilyNCM},
	SecondUseLFP:     {Family: FamilyLFP, SecondaryUse: true},
	SecondUseNCM:     {Family: FamilyNCM, SecondaryUse: true},
}

// RecyclingProcesses lists the recycling routes (no secondary use) in
// spreadsheet column order.
var RecyclingProcesses = []RecyclingProcess{
	OutdatedPyroNCM,
	OutdatedPyroLFP,
	OutdatedHydroNCM,
	HydroNCM,
	HydroLFP,
	PyroHydroNCM,
}

// Family returns the process family tag. Unknown processes have no family
// and therefore accept no flow.
func (p RecyclingProcess) Family() BatteryFamily {
	return ProcessCatalog[p].Family
}

// Accepts reports whether flow of the given family may enter p.
func (p RecyclingProcess) Accepts(f BatteryFamily) bool {
	info, ok := ProcessCatalog[p]
	return ok && info.Family == f
}

// IsKnown reports whether p is in the catalog.
func (p RecyclingProcess) IsKnown() bool {
	_, ok := ProcessCatalog[p]
	return ok
}

// ProcessesFor returns the recycling routes applicable to a family, in
// column order. Secondary use is not included.
func ProcessesFor(f BatteryFamily) []RecyclingProcess {
	return processesByFamily[f]
}

// SecondUseProcess returns the secondary-use pseudo-process of a family.
func SecondUseProcess(f BatteryFamily) RecyclingProcess {
	if f == FamilyLFP {
		return SecondUseLFP
	}
	return SecondUseNCM
}

// ProcessMix maps processes to the share of a row's flow they receive.
type ProcessMix map[RecyclingProcess]float64

// Clone returns an independent copy.
func (m ProcessMix) Clone() ProcessMix {
	out := make(ProcessMix, len(m))
	for p, v := range m {
		out[p] = v
	}
	return out
}

// FamilySum sums the shares of the routes applicable to f.
func (m ProcessMix) FamilySum(f BatteryFamily) float64 {
	var sum float64
	for _, p := range ProcessesFor(f) {
		sum += m[p]
	}
	return sum
}

// Processes returns the processes present in the mix in a stable order.
func (m ProcessMix) Processes() []RecyclingProcess {
	out := make([]RecyclingProcess, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var processesByFamily map[BatteryFamily][]RecyclingProcess

func init() {
	processesByFamily = make(map[BatteryFamily][]RecyclingProcess, len(Families))
	for _, p := range RecyclingProcesses {
		f := ProcessCatalog[p].Family
		processesByFamily[f] = append(processesByFamily[f], p)
	}
}
