package vehiclestatus

import (
	"github.com/kfranzke/leitstelle/core/sim"
)

// Snapshot is a tick subsystem copying fleet state into a Store at a fixed
// real-time interval.
type Snapshot struct {
	store Store
	gate  sim.Interval
	last  map[string]string
}

// NewSnapshot creates a snapshot pass publishing into store every interval
// seconds of wall time.
func NewSnapshot(store Store, every float64) *Snapshot {
	if every <= 0 {
		every = 1
	}
	return &Snapshot{store: store, gate: sim.Interval{Every: every}, last: map[string]string{}}
}

func (s *Snapshot) Name() string { return "statussnapshot" }

func (s *Snapshot) Step(st *sim.State, realDt float64) {
	if !s.gate.Due(st.RealElapsedS) {
		return
	}
	for _, v := range st.Vehicles {
		if inc := v.AssignedIncidentID; inc != "" && s.last[v.ID] != inc {
			s.last[v.ID] = inc
			a := LastAssignment{IncidentID: inc, SimTime: st.Clock.Sim}
			if i := st.Incident(inc); i != nil {
				a.IncidentType = string(i.Type)
			}
			s.store.RecordAssignment(v.ID, a)
		}
		s.store.Set(Status{
			VehicleID:  v.ID,
			CallSign:   v.CallSign,
			Type:       string(v.Type),
			Status:     v.Status.String(),
			FuelLevel:  v.FuelLevel,
			Fatigue:    v.Fatigue,
			Lat:        v.Position.Lat,
			Lon:        v.Position.Lon,
			IncidentID: v.AssignedIncidentID,
			UpdatedAt:  st.Clock.Sim,
		})
	}
}
