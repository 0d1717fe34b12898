package dispatch

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/fms"
	"github.com/kfranzke/leitstelle/core/logger"
	"github.com/kfranzke/leitstelle/core/metrics"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/core/routing"
	"github.com/kfranzke/leitstelle/core/score"
	"github.com/kfranzke/leitstelle/core/sim"
	"github.com/kfranzke/leitstelle/internal/eventbus"
)

// Config tunes the orchestrator.
type Config struct {
	// RealismFactor scales durations returned by the router. Street routers
	// assume free-flowing traffic, which makes missions end too quickly.
	RealismFactor float64 `json:"realism_factor"`
	// SyncRouting resolves route lookups inline instead of asynchronously.
	SyncRouting bool `json:"sync_routing"`
	// SpeakRequestChance is the per-tick probability of a crew raising a
	// speak request inside the eligible processing window.
	SpeakRequestChance float64 `json:"speak_request_chance"`
	// OutOfServicePenalty is the score charge when a returning vehicle has
	// to go out of service.
	OutOfServicePenalty int `json:"out_of_service_penalty"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.RealismFactor <= 0 {
		c.RealismFactor = 1.4
	}
	if c.SpeakRequestChance <= 0 {
		c.SpeakRequestChance = 0.01
	}
	if c.OutOfServicePenalty <= 0 {
		c.OutOfServicePenalty = 25
	}
}

type legKind int

const (
	legDispatch legKind = iota
	legReturn
	legRefuel
)

type pendingRoute struct {
	future *routing.Future
	kind   legKind
	seq    uint64
}

// Orchestrator is the per-vehicle dispatch state machine. One instance
// serves the whole fleet; all per-vehicle state lives on the vehicles
// themselves except pending route lookups, which are keyed here by id.
type Orchestrator struct {
	cfg     Config
	router  routing.Router
	log     logger.Logger
	bus     eventbus.EventBus
	sink    metrics.MetricsSink
	rng     *rand.Rand
	pending map[string]*pendingRoute
}

// NewOrchestrator creates the orchestrator.
func NewOrchestrator(cfg Config, router routing.Router, log logger.Logger, bus eventbus.EventBus, sink metrics.MetricsSink, rng *rand.Rand) (*Orchestrator, error) {
	if router == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewOrchestrator")
	}
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Orchestrator{
		cfg:     cfg,
		router:  router,
		log:     log,
		bus:     bus,
		sink:    sink,
		rng:     rng,
		pending: make(map[string]*pendingRoute),
	}, nil
}

func (o *Orchestrator) Name() string { return "dispatch" }

// Step advances every vehicle by one tick: resolves finished route lookups,
// fires due departures, moves vehicles along their routes and runs on-scene
// processing and service expiry.
func (o *Orchestrator) Step(st *sim.State, realDt float64) {
	simDt := st.Clock.SimDt(realDt)
	o.pollRoutes(st)
	o.fireDepartures(st)
	for _, v := range st.Vehicles {
		switch v.Status {
		case fms.StatusEnRoute, fms.StatusReturning:
			o.advanceTransit(st, v, simDt)
		case fms.StatusToRefuel:
			// Stationary at the pump once the service reason is set.
			if v.OutOfServiceReason != model.ServiceNone {
				o.checkServiceDone(st, v)
			} else {
				o.advanceTransit(st, v, simDt)
			}
		case fms.StatusOnScene:
			o.processOnScene(st, v, simDt)
		case fms.StatusOutOfService:
			o.checkServiceDone(st, v)
		}
	}
}

// Assign binds an available vehicle to an active incident and schedules its
// departure. Weather can refuse the assignment outright; that is surfaced as
// a toast, not an error state on the vehicle.
func (o *Orchestrator) Assign(st *sim.State, vehicleID, incidentID string) error {
	v := st.Vehicle(vehicleID)
	if v == nil {
		return fmt.Errorf("dispatch: unknown vehicle %s", vehicleID)
	}
	inc := st.Incident(incidentID)
	if inc == nil {
		return fmt.Errorf("dispatch: unknown incident %s", incidentID)
	}
	if !inc.Active() {
		return fmt.Errorf("dispatch: incident %s is %s", incidentID, inc.Status)
	}
	if model.EffectsFor(st.Weather).Grounded[v.Type] {
		msg := fmt.Sprintf("%s cannot be dispatched in %s", v.CallSign, st.Weather)
		st.AppendLog(events.LogSystem, msg)
		if o.bus != nil {
			o.bus.Publish(events.Toast{Message: msg})
		}
		return fmt.Errorf("dispatch: %s", msg)
	}
	if !fms.AvailableForAssignment(v.Status) {
		return fmt.Errorf("dispatch: %s is not available (%s)", v.CallSign, v.Status)
	}

	if v.Status == fms.StatusReturning {
		o.redirect(st, v)
	}

	rating := score.Rate(v, inc)
	v.AssignedIncidentID = inc.ID
	inc.Assign(v.ID)
	v.Seq++
	delete(o.pending, v.ID)

	// Crew readiness delay with ±10% jitter; the sim clock already divides
	// real durations by the game speed.
	delay := v.Spec().DispatchDelaySeconds * (0.9 + 0.2*o.rng.Float64())
	v.DepartAt = st.Clock.Sim.Add(time.Duration(delay * float64(time.Second)))
	v.DispatchPending = true

	st.AppendLog(events.LogAssignment, fmt.Sprintf("%s assigned to %s (%s)", v.CallSign, inc.Type, inc.ID))
	if err := o.sink.RecordAssignment(metrics.AssignmentEvent{
		IncidentID:   inc.ID,
		IncidentType: inc.Type,
		VehicleID:    v.ID,
		VehicleType:  v.Type,
		Score:        rating.Score,
		SimTime:      st.Clock.Sim,
	}); err != nil {
		o.log.Warnf("record assignment: %v", err)
	}
	return nil
}

// redirect detaches a returning vehicle from its previous incident so it can
// take a new one. If the vehicle had already been counted as arrived, the
// old incident's arrival counter is rolled back.
func (o *Orchestrator) redirect(st *sim.State, v *model.Vehicle) {
	old := st.Incident(v.AssignedIncidentID)
	if old != nil {
		old.Unassign(v.ID)
		if v.HasArrived && old.ArrivedVehicles > 0 {
			old.ArrivedVehicles--
		}
	}
	v.AssignedIncidentID = ""
	v.HasArrived = false
	v.ResetLeg()
	v.DispatchPending = false
}

// ResumeSpeakRequest is the player acknowledging a speak request. The
// vehicle resumes its previous status, except that a crew whose on-scene
// work already finished goes straight into the return flow; bouncing it back
// to on_scene would deadlock the incident.
func (o *Orchestrator) ResumeSpeakRequest(st *sim.State, vehicleID string) error {
	v := st.Vehicle(vehicleID)
	if v == nil {
		return fmt.Errorf("dispatch: unknown vehicle %s", vehicleID)
	}
	if v.Status != fms.StatusSpeakRequest {
		return fmt.Errorf("dispatch: %s has no pending speak request", v.CallSign)
	}
	v.SpeakRequestCategory = ""
	inc := st.Incident(v.AssignedIncidentID)
	if v.PreviousStatus == fms.StatusOnScene {
		done := inc == nil || !inc.Active() ||
			(v.ProcessingElapsedS >= inc.ProcessingDurationS && inc.ArrivedVehicles >= inc.RequiredVehicles)
		if done {
			o.startReturn(st, v)
			return nil
		}
	}
	return o.transition(st, v, v.PreviousStatus, "resuming")
}

// transition applies a validated status change, emits the radio message and
// records the transition. Illegal transitions are rejected and logged, never
// silently applied.
func (o *Orchestrator) transition(st *sim.State, v *model.Vehicle, to fms.Status, text string) error {
	from := v.Status
	next, err := fms.Apply(from, to)
	if err != nil {
		o.log.Errorf("%s: %v", v.CallSign, err)
		st.AppendLog(events.LogSystem, fmt.Sprintf("%s: rejected transition %s -> %s", v.CallSign, from, to))
		return err
	}
	if next == from {
		return nil
	}
	v.Status = next
	msg := st.AppendRadio(events.RadioMessage{
		VehicleID: v.ID,
		CallSign:  v.CallSign,
		From:      from,
		To:        next,
		Text:      text,
	})
	if o.bus != nil {
		o.bus.Publish(msg)
	}
	if rec, ok := o.sink.(metrics.TransitionRecorder); ok {
		if err := rec.RecordTransition(metrics.TransitionEvent{
			VehicleID: v.ID, From: from, To: next, SimTime: st.Clock.Sim,
		}); err != nil {
			o.log.Warnf("record transition: %v", err)
		}
	}
	return nil
}
