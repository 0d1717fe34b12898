package config

import (
	"fmt"

	"github.com/kfranzke/leitstelle/core/model"
)

// RosterEntry declares how many vehicles of a type the shift starts with.
type RosterEntry struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// WorldConfig describes the map the shift plays on.
type WorldConfig struct {
	// Station is the home station every vehicle starts at and returns to.
	Station model.Position `json:"station"`
	// FuelStations are refueling points. Empty means the home station
	// doubles as one.
	FuelStations []model.Position `json:"fuel_stations"`
	// Areas are named districts incidents are drawn from.
	Areas []model.Area `json:"areas"`
	// Roster is the starting fleet. Filled from the difficulty preset when
	// empty.
	Roster []RosterEntry `json:"roster"`
}

// SetDefaults fills in a small default city around the home station.
func (w *WorldConfig) SetDefaults() {
	if w.Station.Lat == 0 && w.Station.Lon == 0 {
		w.Station = model.Position{Lat: 50.9375, Lon: 6.9603}
	}
	if len(w.Areas) == 0 {
		w.Areas = []model.Area{
			{Name: "Altstadt", Center: w.Station.Offset(1.2, 45), RadiusKm: 1.5},
			{Name: "Bahnhofsviertel", Center: w.Station.Offset(2.0, 140), RadiusKm: 1.2},
			{Name: "Industriegebiet", Center: w.Station.Offset(3.5, 250), RadiusKm: 2.0},
			{Name: "Wohngebiet Nord", Center: w.Station.Offset(2.8, 350), RadiusKm: 2.5},
		}
	}
	if len(w.FuelStations) == 0 {
		w.FuelStations = []model.Position{
			w.Station.Offset(0.8, 90),
			w.Station.Offset(2.5, 200),
		}
	}
}

// Validate checks roster types against the known vehicle catalogue.
func (w WorldConfig) Validate() error {
	known := make(map[string]bool)
	for _, t := range model.VehicleTypes() {
		known[string(t)] = true
	}
	for _, r := range w.Roster {
		if !known[r.Type] {
			return fmt.Errorf("unknown vehicle type %q in roster", r.Type)
		}
		if r.Count <= 0 {
			return fmt.Errorf("roster count for %q must be positive", r.Type)
		}
	}
	return nil
}

// BuildFleet instantiates the roster at the home station. Call signs follow
// the German radio convention of type prefix plus running number.
func (w WorldConfig) BuildFleet() []*model.Vehicle {
	prefixes := map[string]string{
		"patrol_car":   "Adler",
		"unmarked_car": "Zivil",
		"squad_van":    "Gruppe",
		"motorcycle":   "Krad",
		"dog_unit":     "Hundefuehrer",
		"helicopter":   "Libelle",
	}
	var fleet []*model.Vehicle
	seq := 0
	for _, r := range w.Roster {
		prefix := prefixes[r.Type]
		if prefix == "" {
			prefix = "Einheit"
		}
		for n := 1; n <= r.Count; n++ {
			seq++
			id := fmt.Sprintf("v-%02d", seq)
			callSign := fmt.Sprintf("%s %d/%d", prefix, seq/10+1, n)
			fleet = append(fleet, model.NewVehicle(id, callSign, model.VehicleType(r.Type), w.Station))
		}
	}
	return fleet
}
