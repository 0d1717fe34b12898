package model

import "time"

// IncidentStatus is the terminal-state marker of an incident. It is set at
// most once to completed or failed and never changes afterwards.
type IncidentStatus string

const (
	IncidentActive    IncidentStatus = "active"
	IncidentCompleted IncidentStatus = "completed"
	IncidentFailed    IncidentStatus = "failed"
)

// Incident is an active or resolved unit of work created from an answered
// call.
type Incident struct {
	ID       string
	Type     IncidentType
	Location Position
	Area     string
	Priority Priority

	RequiredVehicles   int
	ArrivedVehicles    int
	AssignedVehicleIDs []string

	TimeRemainingS      float64
	SpawnedAt           time.Time // sim clock
	ProcessingDurationS float64

	CanEscalate bool
	Escalated   bool
	EscalateAt  time.Time // sim clock

	MassCasualty    bool
	InvolvedPersons int

	BackupRequested bool
	BackupNeeded    int
	BackupFulfilled bool

	// Single-shot flags, explicit on the entity rather than tracked in
	// side sets.
	SpeakRequestDone  bool
	InitialReportSent bool

	Status       IncidentStatus
	ClosedAtReal float64 // real-time seconds since shift start
	Points       int
}

// IsAssigned reports whether the vehicle id is in the assigned list.
func (i *Incident) IsAssigned(vehicleID string) bool {
	for _, id := range i.AssignedVehicleIDs {
		if id == vehicleID {
			return true
		}
	}
	return false
}

// Assign adds the vehicle to the assigned list if not already present.
func (i *Incident) Assign(vehicleID string) {
	if !i.IsAssigned(vehicleID) {
		i.AssignedVehicleIDs = append(i.AssignedVehicleIDs, vehicleID)
	}
}

// Unassign removes the vehicle from the assigned list.
func (i *Incident) Unassign(vehicleID string) {
	for n, id := range i.AssignedVehicleIDs {
		if id == vehicleID {
			i.AssignedVehicleIDs = append(i.AssignedVehicleIDs[:n], i.AssignedVehicleIDs[n+1:]...)
			return
		}
	}
}

// Active reports whether the incident still accepts arrivals and progress.
func (i *Incident) Active() bool { return i.Status == IncidentActive }

// UnderResourced reports whether fewer vehicles arrived than required.
func (i *Incident) UnderResourced() bool { return i.ArrivedVehicles < i.RequiredVehicles }
