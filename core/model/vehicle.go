package model

import (
	"time"

	"github.com/kfranzke/leitstelle/core/fms"
)

// MaintenanceTier reflects vehicle wear. It only improves through service.
type MaintenanceTier int

const (
	MaintenanceOK MaintenanceTier = iota
	MaintenanceWarning
	MaintenanceCritical
)

func (m MaintenanceTier) String() string {
	switch m {
	case MaintenanceOK:
		return "ok"
	case MaintenanceWarning:
		return "warning"
	case MaintenanceCritical:
		return "critical"
	}
	return "unknown"
}

// ServiceReason explains why a vehicle is out of service.
type ServiceReason string

const (
	ServiceNone      ServiceReason = ""
	ServiceNeedsFuel ServiceReason = "needs_fuel"
	ServiceCrewBreak ServiceReason = "needs_crew_break"
	ServiceRepair    ServiceReason = "needs_repair"
	ServiceRefueling ServiceReason = "refueling"
)

// Vehicle is a dispatchable unit. All mutable fields are owned by the
// simulation state; the dispatch orchestrator is the only writer of Status.
type Vehicle struct {
	ID          string
	CallSign    string
	Type        VehicleType
	HomeStation Position
	Position    Position

	Status         fms.Status
	PreviousStatus fms.Status // restored when a speak request is resumed

	AssignedIncidentID string

	// Route state for the current leg (dispatch, return or refuel trip).
	Route            []Position
	RouteDurationS   float64
	AccumulatedS     float64
	Progress         float64
	DepartAt         time.Time // sim clock deadline of the pending dispatch delay
	DispatchPending  bool
	LegStartPosition Position

	FuelLevel   float64 // percent of tank, 0..100
	Fatigue     float64 // 0..100
	Maintenance MaintenanceTier
	OdometerKm  float64

	OutOfServiceReason ServiceReason
	OutOfServiceUntil  time.Time // sim clock

	// On-scene processing state.
	ProcessingElapsedS  float64
	ArrivedAt           time.Time // sim clock
	ReportDueS          float64   // randomized per arrival, within the report window
	SituationReportSent bool
	HasArrived          bool // true once the incident's arrival counter includes this vehicle

	// Speak request state.
	SpeakRequestCategory string

	// Patrol state.
	OnPatrol           bool
	PatrolArea         string
	PatrolRoute        []Position
	PatrolProgress     float64
	PatrolDistanceKm   float64
	LastDiscoveryCheck float64 // real-time seconds since shift start

	// Seq invalidates stale timers and route futures after a reassignment.
	Seq uint64
}

// Spec returns the static parameters for this vehicle's type.
func (v *Vehicle) Spec() VehicleSpec { return SpecFor(v.Type) }

// ResetLeg clears the per-leg route state. Each leg starts its own
// accumulation from zero.
func (v *Vehicle) ResetLeg() {
	v.Route = nil
	v.RouteDurationS = 0
	v.AccumulatedS = 0
	v.Progress = 0
}

// ClampResources keeps fuel and fatigue inside [0,100].
func (v *Vehicle) ClampResources() {
	if v.FuelLevel < 0 {
		v.FuelLevel = 0
	}
	if v.FuelLevel > 100 {
		v.FuelLevel = 100
	}
	if v.Fatigue < 0 {
		v.Fatigue = 0
	}
	if v.Fatigue > 100 {
		v.Fatigue = 100
	}
}

// NewVehicle creates a vehicle at shift start: full tank, rested crew,
// parked at its station.
func NewVehicle(id, callSign string, t VehicleType, station Position) *Vehicle {
	return &Vehicle{
		ID:          id,
		CallSign:    callSign,
		Type:        t,
		HomeStation: station,
		Position:    station,
		Status:      fms.StatusAtStation,
		FuelLevel:   100,
	}
}
