// Package sim owns the process-wide simulation state and the cooperative
// tick loop that drives every subsystem. There is no locking: each subsystem
// performs one read-compute-write pass per tick over the shared collections,
// and status legality prevents contradictory writes.
package sim

import (
	"time"

	"github.com/google/uuid"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/fms"
	"github.com/kfranzke/leitstelle/core/model"
)

// Stats aggregates shift counters for scoring and the end-of-shift summary.
type Stats struct {
	CallsReceived      int
	CallsMissed        int
	IncidentsCompleted int
	IncidentsFailed    int
	DistanceKm         float64
	FuelBurnedPct      float64
}

// State is the single mutable simulation state. The dispatch orchestrator
// and the incident manager are its only writers for vehicle and incident
// status respectively; both read each other's entities through this struct
// so every decision sees the freshest values.
type State struct {
	Vehicles     []*model.Vehicle
	Calls        []*model.Call
	Incidents    []*model.Incident
	FuelStations []model.Position

	Clock        Clock
	RealElapsedS float64
	Weather      model.Weather
	Difficulty   float64

	Score  int
	Streak int
	Stats  Stats

	Log   []events.LogEntry
	Radio []events.RadioMessage
}

// NewState creates an empty state at the given shift start.
func NewState(start time.Time, speed, difficulty float64) *State {
	if difficulty <= 0 {
		difficulty = 1
	}
	return &State{
		Clock:      NewClock(start, speed),
		Weather:    model.WeatherClear,
		Difficulty: difficulty,
	}
}

// Vehicle returns the vehicle with the given id, or nil.
func (s *State) Vehicle(id string) *model.Vehicle {
	for _, v := range s.Vehicles {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// Incident returns the incident with the given id, or nil. Deleted or
// cleaned-up incidents yield nil; callers must handle the dangling
// reference by rerouting the vehicle home.
func (s *State) Incident(id string) *model.Incident {
	for _, i := range s.Incidents {
		if i.ID == id {
			return i
		}
	}
	return nil
}

// Call returns the call with the given id, or nil.
func (s *State) Call(id string) *model.Call {
	for _, c := range s.Calls {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// RemoveCall drops a call from the queue.
func (s *State) RemoveCall(id string) {
	for n, c := range s.Calls {
		if c.ID == id {
			s.Calls = append(s.Calls[:n], s.Calls[n+1:]...)
			return
		}
	}
}

// AppendLog records a dispatch log entry and returns it.
func (s *State) AppendLog(t events.LogType, msg string) events.LogEntry {
	e := events.LogEntry{ID: uuid.NewString(), Type: t, Message: msg, SimTime: s.Clock.Sim}
	s.Log = append(s.Log, e)
	return e
}

// AppendRadio records a radio message and returns it.
func (s *State) AppendRadio(m events.RadioMessage) events.RadioMessage {
	m.ID = uuid.NewString()
	m.SimTime = s.Clock.Sim
	s.Radio = append(s.Radio, m)
	return m
}

// NearestFuelStation returns the closest configured fuel point. When none
// are configured the home station doubles as one.
func (s *State) NearestFuelStation(pos model.Position, fallback model.Position) model.Position {
	best := fallback
	bestDist := -1.0
	for _, fs := range s.FuelStations {
		d := pos.DistanceKm(fs)
		if bestDist < 0 || d < bestDist {
			best, bestDist = fs, d
		}
	}
	return best
}

// FleetByStatus counts vehicles per status for the fleet gauges.
func (s *State) FleetByStatus() map[fms.Status]int {
	byStatus := make(map[fms.Status]int)
	for _, v := range s.Vehicles {
		byStatus[v.Status]++
	}
	return byStatus
}
