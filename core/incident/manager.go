// Package incident owns the call queue and the incident lifecycle: call
// generation, promotion to incidents, escalation, backup fulfillment,
// completion and failure detection, and cleanup of closed incidents. It is
// the only writer of incident status.
package incident

import (
	"fmt"
	"math/rand"
	"time"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/fms"
	"github.com/kfranzke/leitstelle/core/logger"
	"github.com/kfranzke/leitstelle/core/metrics"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/core/sim"
	"github.com/kfranzke/leitstelle/internal/eventbus"
)

// Config tunes call generation and the incident lifecycle.
type Config struct {
	IncidentsPerHour   float64      `json:"incidents_per_hour"`
	MaxActive          int          `json:"max_active"`
	EscalationChance   float64      `json:"escalation_chance"`
	MassCasualtyChance float64      `json:"mass_casualty_chance"`
	CallTimeoutS       float64      `json:"call_timeout_s"`
	PresenceBonus      float64      `json:"presence_bonus"`
	Areas              []model.Area `json:"areas"`
	// Scripted disables random call generation. Calls then only enter the
	// queue through patrol discoveries or an external script.
	Scripted bool `json:"scripted"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.IncidentsPerHour <= 0 {
		c.IncidentsPerHour = 12
	}
	if c.MaxActive <= 0 {
		c.MaxActive = 8
	}
	if c.EscalationChance <= 0 {
		c.EscalationChance = 0.1
	}
	if c.MassCasualtyChance <= 0 {
		c.MassCasualtyChance = 0.02
	}
	if c.CallTimeoutS <= 0 {
		c.CallTimeoutS = 300
	}
	if c.PresenceBonus <= 0 {
		c.PresenceBonus = 0.05
	}
	if len(c.Areas) == 0 {
		c.Areas = []model.Area{{Name: "innenstadt", Center: model.Position{Lat: 52.52, Lon: 13.405}, RadiusKm: 3}}
	}
}

// hourlyRate maps the hour of day to a call-rate multiplier: quiet nights,
// rush-hour peaks, a smaller evening bump.
var hourlyRate = [24]float64{
	0.4, 0.3, 0.25, 0.25, 0.3, 0.5, // night
	0.9, 1.4, 1.5, 1.2, 1.0, 1.0, // morning rush
	1.1, 1.0, 1.0, 1.1, 1.3, 1.5, // afternoon into evening rush
	1.4, 1.2, 1.0, 0.9, 0.7, 0.5, // late evening
}

// Manager runs the call and incident lifecycle sweeps.
type Manager struct {
	cfg  Config
	log  logger.Logger
	bus  eventbus.EventBus
	sink metrics.MetricsSink
	rng  *rand.Rand
	// src seeds the gonum samplers from the same rng, so a seeded manager
	// draws reproducible inter-arrival times.
	src exprand.Source

	nextCallAtSim time.Time
	sweep         sim.Interval
}

// NewManager creates the incident manager.
func NewManager(cfg Config, log logger.Logger, bus eventbus.EventBus, sink metrics.MetricsSink, rng *rand.Rand) (*Manager, error) {
	if log == nil {
		return nil, fmt.Errorf("incident: nil logger provided to NewManager")
	}
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Manager{
		cfg:   cfg,
		log:   log,
		bus:   bus,
		sink:  sink,
		rng:   rng,
		src:   exprand.NewSource(rng.Uint64()),
		sweep: sim.Interval{Every: 1},
	}, nil
}

func (m *Manager) Name() string { return "incident" }

// Step runs the per-tick failure countdown plus the interval-gated sweeps:
// call generation, call timeouts, escalation, backup fulfillment, completion
// detection and cleanup.
func (m *Manager) Step(st *sim.State, realDt float64) {
	simDt := st.Clock.SimDt(realDt)
	m.countDown(st, simDt)
	if !m.sweep.Due(st.RealElapsedS) {
		return
	}
	m.generateCalls(st)
	m.expireCalls(st)
	m.sweepEscalation(st)
	m.sweepBackup(st)
	m.sweepCompletion(st)
	m.sweepCleanup(st)
}

// countDown burns the time budget of every under-resolved incident. Hitting
// zero fails the incident exactly once; the status is terminal afterwards.
func (m *Manager) countDown(st *sim.State, simDt float64) {
	for _, inc := range st.Incidents {
		if !inc.Active() {
			continue
		}
		inc.TimeRemainingS -= simDt
		if inc.TimeRemainingS > 0 {
			continue
		}
		inc.TimeRemainingS = 0
		inc.Status = model.IncidentFailed
		inc.ClosedAtReal = st.RealElapsedS
		st.Streak--
		st.Stats.IncidentsFailed++
		st.AppendLog(events.LogFailure, fmt.Sprintf("incident %s (%s) failed: time ran out", inc.ID, inc.Type))
		m.log.Warnf("incident %s failed", inc.ID)
		m.recordClosed(st, inc)
	}
}

func (m *Manager) recordClosed(st *sim.State, inc *model.Incident) {
	if err := m.sink.RecordIncidentClosed(metrics.IncidentClosedEvent{
		IncidentID: inc.ID,
		Type:       inc.Type,
		Priority:   inc.Priority,
		Completed:  inc.Status == model.IncidentCompleted,
		Escalated:  inc.Escalated,
		Points:     inc.Points,
		Vehicles:   len(inc.AssignedVehicleIDs),
		DurationS:  st.Clock.Sim.Sub(inc.SpawnedAt).Seconds(),
		SimTime:    st.Clock.Sim,
	}); err != nil {
		m.log.Warnf("record incident closed: %v", err)
	}
}

// sweepEscalation converts eligible incidents once their escalation delay
// has elapsed while units are still working the scene.
func (m *Manager) sweepEscalation(st *sim.State) {
	for _, inc := range st.Incidents {
		if !inc.Active() || !inc.CanEscalate || inc.Escalated || st.Clock.Sim.Before(inc.EscalateAt) {
			continue
		}
		if !m.anyUnitWorking(st, inc) {
			continue
		}
		inc.Escalated = true
		from := inc.Type
		inc.Type, inc.Priority = escalationOf(inc.Type, inc.Priority)
		inc.RequiredVehicles++
		inc.TimeRemainingS += 120
		st.AppendLog(events.LogEscalation, fmt.Sprintf("incident %s escalated: %s -> %s", inc.ID, from, inc.Type))
		m.log.Infof("incident %s escalated to %s", inc.ID, inc.Type)
	}
}

// anyUnitWorking reports whether at least one assigned vehicle is en route
// or on scene.
func (m *Manager) anyUnitWorking(st *sim.State, inc *model.Incident) bool {
	for _, id := range inc.AssignedVehicleIDs {
		v := st.Vehicle(id)
		if v == nil {
			continue
		}
		if v.Status == fms.StatusEnRoute || v.Status == fms.StatusOnScene {
			return true
		}
	}
	return false
}

// escalationOf maps a type to what it degenerates into.
func escalationOf(t model.IncidentType, p model.Priority) (model.IncidentType, model.Priority) {
	switch t {
	case model.IncidentDisturbance, model.IncidentVandalism:
		return model.IncidentAssault, model.PriorityHigh
	case model.IncidentTheft, model.IncidentBurglary:
		return model.IncidentPursuit, model.PriorityHigh
	case model.IncidentTrafficAccident:
		return model.IncidentMassCasualty, model.PriorityHigh
	default:
		if p < model.PriorityHigh {
			p++
		}
		return t, p
	}
}

// sweepBackup marks backup requests fulfilled once enough vehicles beyond
// the original requirement are assigned. The flag is single-shot.
func (m *Manager) sweepBackup(st *sim.State) {
	for _, inc := range st.Incidents {
		if !inc.Active() || !inc.BackupRequested || inc.BackupFulfilled {
			continue
		}
		extra := len(inc.AssignedVehicleIDs) - inc.RequiredVehicles
		if extra >= inc.BackupNeeded {
			inc.BackupFulfilled = true
			st.AppendLog(events.LogSystem, fmt.Sprintf("backup for incident %s fulfilled", inc.ID))
		}
	}
}

// sweepCompletion closes incidents once enough units arrived and every
// assigned vehicle has begun its return trip. A vehicle holding a speak
// request it raised on scene counts as about-to-return; otherwise a pending
// request would block completion forever.
func (m *Manager) sweepCompletion(st *sim.State) {
	for _, inc := range st.Incidents {
		if !inc.Active() || inc.UnderResourced() || len(inc.AssignedVehicleIDs) == 0 {
			continue
		}
		allReturning := true
		for _, id := range inc.AssignedVehicleIDs {
			v := st.Vehicle(id)
			if v == nil {
				continue
			}
			if v.Status == fms.StatusReturning {
				continue
			}
			if v.Status == fms.StatusSpeakRequest && v.PreviousStatus == fms.StatusOnScene {
				continue
			}
			allReturning = false
			break
		}
		if !allReturning {
			continue
		}
		inc.Status = model.IncidentCompleted
		inc.ClosedAtReal = st.RealElapsedS
		inc.Points = completionPoints(inc)
		st.Score += inc.Points
		st.Streak++
		st.Stats.IncidentsCompleted++
		st.AppendLog(events.LogCompletion, fmt.Sprintf("incident %s (%s) completed, +%d points", inc.ID, inc.Type, inc.Points))
		m.recordClosed(st, inc)
	}
}

// completionPoints scores a completed incident: a priority-based base plus
// a bonus per vehicle beyond the requirement.
func completionPoints(inc *model.Incident) int {
	base := 50
	switch inc.Priority {
	case model.PriorityMedium:
		base = 100
	case model.PriorityHigh:
		base = 150
	}
	extra := inc.ArrivedVehicles - inc.RequiredVehicles
	if extra < 0 {
		extra = 0
	}
	return base + extra*25
}

// sweepCleanup removes closed incidents after their linger interval:
// completed ones a minute after closing and only once every vehicle is back
// home, failed ones after thirty seconds unconditionally.
func (m *Manager) sweepCleanup(st *sim.State) {
	kept := st.Incidents[:0]
	for _, inc := range st.Incidents {
		remove := false
		switch inc.Status {
		case model.IncidentCompleted:
			remove = st.RealElapsedS-inc.ClosedAtReal >= 60 && len(inc.AssignedVehicleIDs) == 0
		case model.IncidentFailed:
			remove = st.RealElapsedS-inc.ClosedAtReal >= 30
		}
		if !remove {
			kept = append(kept, inc)
		}
	}
	st.Incidents = kept
}

// nextInterval samples the exponential inter-arrival time for the current
// effective call rate in calls per simulated hour.
func (m *Manager) nextInterval(ratePerHour float64) time.Duration {
	if ratePerHour <= 0 {
		ratePerHour = 0.1
	}
	exp := distuv.Exponential{Rate: ratePerHour / 3600, Src: m.src}
	s := exp.Rand()
	// Clamp the tail so a quiet shift still gets some traffic.
	if limit := 3600 / ratePerHour * 3; s > limit {
		s = limit
	}
	return time.Duration(s * float64(time.Second))
}
