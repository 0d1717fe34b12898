// Package vehiclestatus keeps a thread-safe snapshot of the fleet for
// read-only consumers outside the tick loop, such as the HTTP API. The
// simulation state itself must never be read concurrently.
package vehiclestatus

import (
	"sort"
	"sync"
	"time"
)

// LastAssignment summarizes the most recent dispatch of a vehicle.
type LastAssignment struct {
	IncidentID   string    `json:"incident_id"`
	IncidentType string    `json:"incident_type"`
	SimTime      time.Time `json:"sim_time"`
}

// Status captures the last published state of a vehicle.
type Status struct {
	VehicleID      string         `json:"vehicle_id"`
	CallSign       string         `json:"call_sign"`
	Type           string         `json:"type"`
	Status         string         `json:"status"`
	FuelLevel      float64        `json:"fuel_level"`
	Fatigue        float64        `json:"fatigue"`
	Lat            float64        `json:"lat"`
	Lon            float64        `json:"lon"`
	IncidentID     string         `json:"incident_id,omitempty"`
	LastAssignment LastAssignment `json:"last_assignment"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Filter narrows a List call. Empty fields match everything.
type Filter struct {
	Type   string
	Status string
}

type Store interface {
	Set(Status)
	List(Filter) []Status
	RecordAssignment(id string, a LastAssignment)
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Status{}}
}

func (s *MemoryStore) Set(st Status) {
	s.mu.Lock()
	if prev, ok := s.data[st.VehicleID]; ok && st.LastAssignment.IncidentID == "" {
		st.LastAssignment = prev.LastAssignment
	}
	s.data[st.VehicleID] = st
	s.mu.Unlock()
}

func (s *MemoryStore) RecordAssignment(id string, a LastAssignment) {
	s.mu.Lock()
	st := s.data[id]
	if st.VehicleID == "" {
		st.VehicleID = id
	}
	st.LastAssignment = a
	s.data[id] = st
	s.mu.Unlock()
}

func (s *MemoryStore) List(f Filter) []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		if f.Type != "" && st.Type != f.Type {
			continue
		}
		if f.Status != "" && st.Status != f.Status {
			continue
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].VehicleID < res[j].VehicleID })
	return res
}
