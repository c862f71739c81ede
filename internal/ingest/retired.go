package ingest

import (
	"fmt"
	"math"

	"eol_simulator/internal/model"
)

// Retired-battery table columns.
const (
	ColYear        = "Year"
	ColProvince    = "Province"
	ColCity        = "City"
	ColScenario    = "Scenario"
	ColBatteryType = "Battery type"
	ColWeight      = "Weight (thousand t)"
	ColCapacity    = "Capacity (GWh)"
)

// ParseRetired reads the retired-battery table.
//
// Expected columns:
//
//	Year | Province | City | Scenario | Battery type | Weight (thousand t) | Capacity (GWh)
//
// Battery type is either a family ("LFP", "NCM") or a chemistry class
// ("BPEV_NCM523"). Empty amounts become NaN and are rejected downstream
// with a diagnostic.
func ParseRetired(s *Sheet) ([]model.RetirementRecord, error) {
	if err := s.Require(ColYear, ColProvince, ColCity, ColScenario, ColBatteryType, ColWeight, ColCapacity); err != nil {
		return nil, err
	}

	records := make([]model.RetirementRecord, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		if s.Blank(i) {
			continue
		}
		rec, err := parseRetiredRow(s, i)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRetiredRow(s *Sheet, i int) (model.RetirementRecord, error) {
	year, err := s.Year(i)
	if err != nil {
		return model.RetirementRecord{}, err
	}
	batteryType := s.Cell(i, ColBatteryType)
	family, err := familyOf(batteryType)
	if err != nil {
		return model.RetirementRecord{}, fmt.Errorf("line %d: %w", s.Line(i), err)
	}

	mass, ok, err := s.Float(i, ColWeight)
	if err != nil {
		return model.RetirementRecord{}, err
	}
	if !ok {
		mass = math.NaN()
	}
	energy, ok, err := s.Float(i, ColCapacity)
	if err != nil {
		return model.RetirementRecord{}, err
	}
	if !ok {
		energy = math.NaN()
	}

	return model.RetirementRecord{
		Key: model.RowKey{
			Year:     year,
			Province: s.Cell(i, ColProvince),
			City:     s.Cell(i, ColCity),
		},
		Scenario:    s.Cell(i, ColScenario),
		BatteryType: batteryType,
		Family:      family,
		MassKt:      mass,
		EnergyGWh:   energy,
	}, nil
}

func familyOf(batteryType string) (model.BatteryFamily, error) {
	if f, err := model.ParseFamily(batteryType); err == nil {
		return f, nil
	}
	c, err := model.ParseChemistryClass(batteryType)
	if err != nil {
		return "", fmt.Errorf("unknown battery type %q", batteryType)
	}
	return c.Family(), nil
}
