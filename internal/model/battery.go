package model

import (
	"fmt"
	"strings"
)

// Chemistry is the cathode chemistry of a traction battery.
type Chemistry string

const (
	ChemistryLFP    Chemistry = "LFP"
	ChemistryNCM111 Chemistry = "NCM111"
	ChemistryNCM523 Chemistry = "NCM523"
	ChemistryNCM622 Chemistry = "NCM622"
	ChemistryNCM811 Chemistry = "NCM811"
	ChemistryNCA    Chemistry = "NCA"
)

// Chemistries lists every chemistry in output column order.
var Chemistries = []Chemistry{
	ChemistryLFP,
	ChemistryNCM111,
	ChemistryNCM523,
	ChemistryNCM622,
	ChemistryNCM811,
	ChemistryNCA,
}

// BatteryFamily groups chemistries by the recycling routes they can take.
type BatteryFamily string

const (
	FamilyLFP BatteryFamily = "LFP"
	FamilyNCM BatteryFamily = "NCM"
)

// Families lists both battery families.
var Families = []BatteryFamily{FamilyLFP, FamilyNCM}

// Family returns the recycling family of a chemistry. NCA cells go through
// the ternary (NCM) routes.
func (c Chemistry) Family() BatteryFamily {
	if c == ChemistryLFP {
		return FamilyLFP
	}
	return FamilyNCM
}

// ParseFamily parses "LFP" or "NCM".
func ParseFamily(s string) (BatteryFamily, error) {
	switch BatteryFamily(strings.TrimSpace(s)) {
	case FamilyLFP:
		return FamilyLFP, nil
	case FamilyNCM:
		return FamilyNCM, nil
	}
	return "", fmt.Errorf("unknown battery family %q", s)
}

// Drive distinguishes pure battery-electric from plug-in hybrid vehicles.
type Drive string

const (
	DriveBattery Drive = "B"
	DriveHybrid  Drive = "H"
)

// Segment is the vehicle market segment.
type Segment string

const (
	SegmentPassenger  Segment = "PEV"
	SegmentCommercial Segment = "CEV"
)

// ParseSegment accepts "pev"/"cev" in any case.
func ParseSegment(s string) (Segment, error) {
	switch Segment(strings.ToUpper(strings.TrimSpace(s))) {
	case SegmentPassenger:
		return SegmentPassenger, nil
	case SegmentCommercial:
		return SegmentCommercial, nil
	}
	return "", fmt.Errorf("unknown vehicle segment %q", s)
}

// ChemistryClass is one retirement class: drive x segment x chemistry.
type ChemistryClass struct {
	Drive     Drive
	Segment   Segment
	Chemistry Chemistry
}

// String returns the canonical column name, e.g. "BPEV_NCM523".
func (c ChemistryClass) String() string {
	return string(c.Drive) + string(c.Segment) + "_" + string(c.Chemistry)
}

// Family returns the recycling family of the class chemistry.
func (c ChemistryClass) Family() BatteryFamily {
	return c.Chemistry.Family()
}

// ParseChemistryClass parses a canonical class name such as "HCEV_NCA".
func ParseChemistryClass(s string) (ChemistryClass, error) {
	name := strings.TrimSpace(s)
	prefix, chem, ok := strings.Cut(name, "_")
	if !ok || len(prefix) != 4 {
		return ChemistryClass{}, fmt.Errorf("malformed chemistry class %q", s)
	}
	c := ChemistryClass{
		Drive:     Drive(prefix[:1]),
		Segment:   Segment(prefix[1:]),
		Chemistry: Chemistry(chem),
	}
	if c.Drive != DriveBattery && c.Drive != DriveHybrid {
		return ChemistryClass{}, fmt.Errorf("unknown drive in chemistry class %q", s)
	}
	if c.Segment != SegmentPassenger && c.Segment != SegmentCommercial {
		return ChemistryClass{}, fmt.Errorf("unknown segment in chemistry class %q", s)
	}
	if _, known := chemistryIndex[c.Chemistry]; !known {
		return ChemistryClass{}, fmt.Errorf("unknown chemistry in chemistry class %q", s)
	}
	return c, nil
}

// Classes returns the twelve classes of a segment: battery-electric first,
// then hybrid, each in Chemistries order.
func Classes(seg Segment) []ChemistryClass {
	classes := make([]ChemistryClass, 0, 2*len(Chemistries))
	for _, d := range []Drive{DriveBattery, DriveHybrid} {
		for _, chem := range Chemistries {
			classes = append(classes, ChemistryClass{Drive: d, Segment: seg, Chemistry: chem})
		}
	}
	return classes
}

var chemistryIndex map[Chemistry]int

func init() {
	chemistryIndex = make(map[Chemistry]int, len(Chemistries))
	for i, c := range Chemistries {
		chemistryIndex[c] = i
	}
}
