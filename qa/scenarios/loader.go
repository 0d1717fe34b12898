// Package scenarios runs scripted shifts from yaml files for regression
// checking the whole dispatch pipeline.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kfranzke/leitstelle/core/model"
)

type VehicleDef struct {
	Type    string  `yaml:"type"`
	Fuel    float64 `yaml:"fuel"`
	Fatigue float64 `yaml:"fatigue"`
}

func (v VehicleDef) ToModel(n int, station model.Position) *model.Vehicle {
	veh := model.NewVehicle(fmt.Sprintf("v-%02d", n), fmt.Sprintf("Unit %d", n), model.VehicleType(v.Type), station)
	if v.Fuel > 0 {
		veh.FuelLevel = v.Fuel
	}
	veh.Fatigue = v.Fatigue
	return veh
}

// CallDef is a scripted emergency call. Location is given relative to the
// station so scenarios stay map independent.
type CallDef struct {
	OffsetSeconds float64 `yaml:"offset_s"`
	Type          string  `yaml:"type"`
	Priority      string  `yaml:"priority"`
	DistanceKm    float64 `yaml:"distance_km"`
	BearingDeg    float64 `yaml:"bearing_deg"`
}

func (c CallDef) ToModel(id string, station model.Position) *model.Call {
	return &model.Call{
		ID:       id,
		Type:     model.IncidentType(c.Type),
		Location: station.Offset(c.DistanceKm, c.BearingDeg),
		Priority: parsePriority(c.Priority),
		Status:   model.CallWaiting,
	}
}

type Expected struct {
	Completed int `yaml:"completed"`
	Failed    int `yaml:"failed"`
}

type Scenario struct {
	Name          string       `yaml:"name"`
	Description   string       `yaml:"description,omitempty"`
	Speed         float64      `yaml:"speed"`
	MaxSimMinutes float64      `yaml:"max_sim_minutes"`
	Vehicles      []VehicleDef `yaml:"vehicles"`
	Calls         []CallDef    `yaml:"calls"`
	Expected      Expected     `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func parsePriority(s string) model.Priority {
	switch s {
	case "low":
		return model.PriorityLow
	case "high":
		return model.PriorityHigh
	default:
		return model.PriorityMedium
	}
}
