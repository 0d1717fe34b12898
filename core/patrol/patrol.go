// Package patrol is the idle-vehicle sub-simulation: free vehicles assigned
// to a patrol area drive generated waypoint loops, burn a reduced resource
// rate and periodically roll discovery checks that can seed new calls.
package patrol

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/fms"
	"github.com/kfranzke/leitstelle/core/incident"
	"github.com/kfranzke/leitstelle/core/logger"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/core/resources"
	"github.com/kfranzke/leitstelle/core/sim"
	"github.com/kfranzke/leitstelle/internal/eventbus"
)

// Config tunes the patrol loop.
type Config struct {
	// DiscoveryIntervalS is the real-time seconds between discovery rolls.
	DiscoveryIntervalS float64 `json:"discovery_interval_s"`
	// DiscoveryChance is the probability a roll produces a call.
	DiscoveryChance float64 `json:"discovery_chance"`
	// SpeedKmh is the reduced cruising speed while patrolling.
	SpeedKmh float64 `json:"speed_kmh"`
	// MinFuel and MaxFatigue gate patrol eligibility.
	MinFuel    float64 `json:"min_fuel"`
	MaxFatigue float64 `json:"max_fatigue"`
	// MassCasualtyChance is passed through to discovered calls.
	MassCasualtyChance float64 `json:"mass_casualty_chance"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.DiscoveryIntervalS <= 0 {
		c.DiscoveryIntervalS = 20
	}
	if c.DiscoveryChance <= 0 {
		c.DiscoveryChance = 0.15
	}
	if c.SpeedKmh <= 0 {
		c.SpeedKmh = 30
	}
	if c.MinFuel <= 0 {
		c.MinFuel = resources.FuelLowPct
	}
	if c.MaxFatigue <= 0 {
		c.MaxFatigue = resources.FatigueHigh
	}
}

// Sim runs the patrol movement and discovery loop.
type Sim struct {
	cfg   Config
	log   logger.Logger
	bus   eventbus.EventBus
	rng   *rand.Rand
	areas map[string]model.Area
}

// NewSim creates the patrol sub-simulation over the given areas.
func NewSim(cfg Config, areas []model.Area, log logger.Logger, bus eventbus.EventBus, rng *rand.Rand) (*Sim, error) {
	if log == nil {
		return nil, fmt.Errorf("patrol: nil logger provided to NewSim")
	}
	cfg.SetDefaults()
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	byName := make(map[string]model.Area, len(areas))
	for _, a := range areas {
		byName[a.Name] = a
	}
	return &Sim{cfg: cfg, log: log, bus: bus, rng: rng, areas: byName}, nil
}

func (p *Sim) Name() string { return "patrol" }

// Eligible reports whether a vehicle may start a patrol right now.
func (p *Sim) Eligible(v *model.Vehicle) bool {
	if v.Status != fms.StatusAtStation && v.Status != fms.StatusFreePatrol {
		return false
	}
	return v.FuelLevel >= p.cfg.MinFuel && v.Fatigue <= p.cfg.MaxFatigue
}

// Start assigns a patrol route in the named area to an eligible vehicle.
func (p *Sim) Start(st *sim.State, vehicleID, areaName string) error {
	v := st.Vehicle(vehicleID)
	if v == nil {
		return fmt.Errorf("patrol: unknown vehicle %s", vehicleID)
	}
	area, ok := p.areas[areaName]
	if !ok {
		return fmt.Errorf("patrol: unknown area %s", areaName)
	}
	if !p.Eligible(v) {
		return fmt.Errorf("patrol: %s is not eligible (status %s, fuel %.0f%%, fatigue %.0f)",
			v.CallSign, v.Status, v.FuelLevel, v.Fatigue)
	}
	next, err := fms.Apply(v.Status, fms.StatusFreePatrol)
	if err != nil {
		return err
	}
	v.Status = next
	v.OnPatrol = true
	v.PatrolArea = areaName
	v.PatrolRoute = p.generateRoute(v.Position, area)
	v.PatrolProgress = 0
	v.LastDiscoveryCheck = st.RealElapsedS
	st.AppendLog(events.LogSystem, fmt.Sprintf("%s starts patrolling %s", v.CallSign, areaName))
	return nil
}

// Stop ends a patrol explicitly and returns the vehicle to station duty.
func (p *Sim) Stop(st *sim.State, vehicleID string) error {
	v := st.Vehicle(vehicleID)
	if v == nil {
		return fmt.Errorf("patrol: unknown vehicle %s", vehicleID)
	}
	if !v.OnPatrol {
		return fmt.Errorf("patrol: %s is not patrolling", v.CallSign)
	}
	next, err := fms.Apply(v.Status, fms.StatusAtStation)
	if err != nil {
		return err
	}
	v.Status = next
	v.OnPatrol = false
	v.PatrolRoute = nil
	v.PatrolProgress = 0
	v.Position = v.HomeStation
	st.AppendLog(events.LogSystem, fmt.Sprintf("%s ends patrol", v.CallSign))
	return nil
}

// Step advances every patrolling vehicle along its route, regenerates
// exhausted routes and rolls discovery checks.
func (p *Sim) Step(st *sim.State, realDt float64) {
	simDt := st.Clock.SimDt(realDt)
	for _, v := range st.Vehicles {
		if !v.OnPatrol || v.Status != fms.StatusFreePatrol {
			continue
		}
		p.advance(st, v, simDt)
		p.maybeDiscover(st, v)
	}
}

func (p *Sim) advance(st *sim.State, v *model.Vehicle, simDt float64) {
	routeKm := model.PathLengthKm(v.PatrolRoute)
	if routeKm <= 0 {
		area, ok := p.areas[v.PatrolArea]
		if !ok {
			return
		}
		v.PatrolRoute = p.generateRoute(v.Position, area)
		v.PatrolProgress = 0
		return
	}
	stepKm := p.cfg.SpeedKmh * model.EffectsFor(st.Weather).SpeedFactor / 3600 * simDt
	v.PatrolProgress += stepKm / routeKm
	v.PatrolDistanceKm += stepKm
	v.OdometerKm += stepKm
	st.Stats.DistanceKm += stepKm

	// Reduced consumption compared to response driving.
	hours := simDt / 3600
	v.FuelLevel -= resources.FuelConsumed(v.Type, stepKm, hours, st.Difficulty) * 0.8
	v.Fatigue += resources.FatigueGained(v.Type, hours, st.Difficulty) * 0.5
	v.ClampResources()

	if v.PatrolProgress >= 1 {
		// Route exhausted: keep rolling on a fresh one.
		area, ok := p.areas[v.PatrolArea]
		if ok {
			v.PatrolRoute = p.generateRoute(v.Position, area)
		}
		v.PatrolProgress = 0
	} else {
		v.Position = model.PointAlong(v.PatrolRoute, v.PatrolProgress)
	}

	// A patrol that ran itself dry heads back to station duty so the
	// ordinary out-of-service flow can pick it up.
	if v.FuelLevel < p.cfg.MinFuel || v.Fatigue > p.cfg.MaxFatigue {
		if err := p.Stop(st, v.ID); err != nil {
			p.log.Warnf("patrol stop %s: %v", v.CallSign, err)
		}
	}
}

// maybeDiscover rolls the periodic discovery check. A hit synthesizes a new
// call at the vehicle's area, feeding the ordinary call pipeline.
func (p *Sim) maybeDiscover(st *sim.State, v *model.Vehicle) {
	if st.RealElapsedS-v.LastDiscoveryCheck < p.cfg.DiscoveryIntervalS {
		return
	}
	v.LastDiscoveryCheck = st.RealElapsedS
	if p.rng.Float64() >= p.cfg.DiscoveryChance {
		return
	}
	area, ok := p.areas[v.PatrolArea]
	if !ok {
		return
	}
	area.Center = v.Position
	area.RadiusKm = 0.5
	call := incident.RandomCall(p.rng, area, st.Weather, st.Clock.Sim, p.cfg.MassCasualtyChance)
	call.CallerName = v.CallSign
	call.Text = "patrol reports: " + call.Text
	st.Calls = append(st.Calls, call)
	st.Stats.CallsReceived++
	st.AppendLog(events.LogNewCall, fmt.Sprintf("%s discovered %s while patrolling %s", v.CallSign, call.Type, v.PatrolArea))
	if p.bus != nil {
		p.bus.Publish(*call)
	}
}

// generateRoute builds a random waypoint loop inside the area, starting at
// the vehicle's current position.
func (p *Sim) generateRoute(from model.Position, area model.Area) []model.Position {
	n := 4 + p.rng.Intn(4)
	route := make([]model.Position, 0, n+1)
	route = append(route, from)
	for i := 0; i < n; i++ {
		route = append(route, area.Center.Offset(p.rng.Float64()*area.RadiusKm, p.rng.Float64()*360))
	}
	return route
}
