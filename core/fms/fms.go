package fms

import "fmt"

// Status is one of the eight radio status codes a vehicle can report.
type Status int

const (
	// StatusFreePatrol means the vehicle is free and reachable on radio,
	// away from its station or on patrol.
	StatusFreePatrol Status = iota + 1
	// StatusAtStation means the vehicle is free and parked at its home station.
	StatusAtStation
	// StatusEnRoute means the vehicle has accepted an incident and is driving to it.
	StatusEnRoute
	// StatusOnScene means the vehicle has arrived at the incident location.
	StatusOnScene
	// StatusSpeakRequest means the crew requested to talk to dispatch. The
	// vehicle is immobile until the request is acknowledged.
	StatusSpeakRequest
	// StatusOutOfService covers refueling stops, crew breaks and repairs.
	StatusOutOfService
	// StatusToRefuel means the vehicle is driving to the nearest fuel point.
	StatusToRefuel
	// StatusReturning means the vehicle is driving back to its station and
	// may be redirected to a new incident.
	StatusReturning
)

func (s Status) String() string {
	switch s {
	case StatusFreePatrol:
		return "free_patrol"
	case StatusAtStation:
		return "at_station"
	case StatusEnRoute:
		return "en_route"
	case StatusOnScene:
		return "on_scene"
	case StatusSpeakRequest:
		return "speak_request"
	case StatusOutOfService:
		return "out_of_service"
	case StatusToRefuel:
		return "to_refuel"
	case StatusReturning:
		return "returning"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// edges holds the legal transitions of the status graph.
var edges = map[Status][]Status{
	StatusFreePatrol:   {StatusAtStation, StatusEnRoute, StatusOutOfService},
	StatusAtStation:    {StatusFreePatrol, StatusEnRoute, StatusOutOfService, StatusToRefuel},
	StatusEnRoute:      {StatusOnScene, StatusReturning, StatusOutOfService},
	StatusOnScene:      {StatusSpeakRequest, StatusReturning},
	StatusSpeakRequest: {StatusOnScene, StatusReturning},
	StatusOutOfService: {StatusAtStation, StatusToRefuel},
	StatusToRefuel:     {StatusAtStation, StatusReturning},
	// Returning vehicles are redirectable, so en_route is a legal target.
	StatusReturning: {StatusAtStation, StatusEnRoute, StatusOutOfService, StatusToRefuel},
}

// IsTransitionAllowed reports whether a vehicle may switch from one status to
// another. A same-status request is always allowed and treated as a no-op by
// callers.
func IsTransitionAllowed(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Apply validates and returns the new status. Callers must use it instead of
// assigning a status directly so that illegal transitions are rejected rather
// than silently applied.
func Apply(from, to Status) (Status, error) {
	if !IsTransitionAllowed(from, to) {
		return from, fmt.Errorf("fms: illegal transition %s -> %s", from, to)
	}
	return to, nil
}

// conflictPriority encodes which target status wins when two subsystems want
// to push different next states in the same tick. Higher wins. The order is
// intentional gameplay precedence, not an implementation detail.
var conflictPriority = map[Status]int{
	StatusOutOfService: 8,
	StatusToRefuel:     7,
	StatusSpeakRequest: 6,
	StatusOnScene:      5,
	StatusEnRoute:      4,
	StatusReturning:    3,
	StatusAtStation:    2,
	StatusFreePatrol:   1,
}

// ResolveConflict returns the status with the higher precedence.
func ResolveConflict(desired, other Status) Status {
	if conflictPriority[other] > conflictPriority[desired] {
		return other
	}
	return desired
}

// AvailableForAssignment reports whether a vehicle in this status can take a
// new incident. Returning vehicles are redirectable and count as available.
func AvailableForAssignment(s Status) bool {
	return s == StatusAtStation || s == StatusReturning
}

// OnMission reports whether the vehicle is currently bound to an incident.
func OnMission(s Status) bool {
	switch s {
	case StatusEnRoute, StatusOnScene, StatusSpeakRequest, StatusReturning:
		return true
	}
	return false
}

// OutOfService reports whether the vehicle is unusable for dispatch.
func OutOfService(s Status) bool {
	return s == StatusOutOfService || s == StatusToRefuel
}
