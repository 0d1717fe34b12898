package dispatch

import (
	"fmt"
	"time"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/fms"
	"github.com/kfranzke/leitstelle/core/metrics"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/core/resources"
	"github.com/kfranzke/leitstelle/core/routing"
	"github.com/kfranzke/leitstelle/core/sim"
)

func (o *Orchestrator) travelMode(v *model.Vehicle) routing.Mode {
	if v.Spec().Airborne {
		return routing.ModeFlying
	}
	return routing.ModeDriving
}

// requestRoute starts a route lookup for the given leg. The vehicle keeps
// its current status until the future resolves; that sub-state is the only
// suspension point of the simulation and prevents double-advancing.
func (o *Orchestrator) requestRoute(st *sim.State, v *model.Vehicle, dest model.Position, kind legKind) {
	// Raw cruise speed for the fallback estimate; weather is applied once,
	// when the resolved duration is converted in pollRoutes.
	speed := v.Spec().SpeedKmh
	if o.cfg.SyncRouting {
		route := routing.Resolve(o.router, v.Position, dest, o.travelMode(v), speed)
		o.pending[v.ID] = &pendingRoute{
			future: routing.Resolved(v.ID, v.Seq, route),
			kind:   kind,
			seq:    v.Seq,
		}
		return
	}
	o.pending[v.ID] = &pendingRoute{
		future: routing.Lookup(o.router, v.ID, v.Seq, v.Position, dest, o.travelMode(v), speed),
		kind:   kind,
		seq:    v.Seq,
	}
}

// fireDepartures requests dispatch routes for vehicles whose crew readiness
// delay has elapsed.
func (o *Orchestrator) fireDepartures(st *sim.State) {
	for _, v := range st.Vehicles {
		if !v.DispatchPending || st.Clock.Sim.Before(v.DepartAt) {
			continue
		}
		inc := st.Incident(v.AssignedIncidentID)
		if inc == nil || !inc.Active() {
			// Incident vanished before departure; stand down in place.
			v.DispatchPending = false
			v.AssignedIncidentID = ""
			st.AppendLog(events.LogSystem, fmt.Sprintf("%s stood down, incident gone before departure", v.CallSign))
			continue
		}
		v.DispatchPending = false
		o.requestRoute(st, v, inc.Location, legDispatch)
	}
}

// pollRoutes applies resolved route lookups. Futures from an earlier
// assignment generation are discarded; a reassignment bumps the vehicle's
// sequence number, which is the cancellation mechanism for in-flight
// lookups.
func (o *Orchestrator) pollRoutes(st *sim.State) {
	for id, p := range o.pending {
		if !p.future.Done() {
			continue
		}
		delete(o.pending, id)
		v := st.Vehicle(id)
		if v == nil || v.Seq != p.seq {
			continue
		}
		route := p.future.Route()
		v.ResetLeg()
		v.LegStartPosition = v.Position
		v.Route = route.Path
		v.RouteDurationS = route.DurationS * o.cfg.RealismFactor / model.EffectsFor(st.Weather).SpeedFactor

		switch p.kind {
		case legDispatch:
			_ = o.transition(st, v, fms.StatusEnRoute, "responding")
		case legReturn:
			_ = o.transition(st, v, fms.StatusReturning, "returning to station")
		case legRefuel:
			_ = o.transition(st, v, fms.StatusToRefuel, "heading to fuel point")
		}
	}
}

// advanceTransit moves a vehicle along its current route and handles leg
// completion for transit, return and refuel trips.
func (o *Orchestrator) advanceTransit(st *sim.State, v *model.Vehicle, simDt float64) {
	if len(v.Route) == 0 || v.RouteDurationS <= 0 {
		// Route still being computed; the vehicle waits at its position.
		return
	}
	v.AccumulatedS += simDt
	v.Progress = v.AccumulatedS / v.RouteDurationS
	if v.Progress > 1 {
		v.Progress = 1
	}
	v.Position = model.PointAlong(v.Route, v.Progress)

	if v.Status == fms.StatusEnRoute {
		inc := st.Incident(v.AssignedIncidentID)
		if inc == nil || !inc.Active() {
			// The incident this vehicle was driving to no longer exists.
			st.AppendLog(events.LogSystem, fmt.Sprintf("%s: incident gone mid-transit, returning", v.CallSign))
			if inc != nil {
				inc.Unassign(v.ID)
			}
			v.AssignedIncidentID = ""
			o.startReturn(st, v)
			return
		}
		if v.Progress >= 1 {
			o.arrive(st, v, inc)
		}
		return
	}

	if v.Progress < 1 {
		return
	}
	switch v.Status {
	case fms.StatusReturning:
		o.completeReturn(st, v)
	case fms.StatusToRefuel:
		o.arriveAtFuelPoint(st, v)
	}
}

// arrive handles progress reaching 1 on a dispatch leg: park the vehicle in
// the ring layout, count the arrival and emit the first-on-scene report.
func (o *Orchestrator) arrive(st *sim.State, v *model.Vehicle, inc *model.Incident) {
	o.settleLeg(st, v)
	v.Position = parkingPosition(inc.Location, inc.ArrivedVehicles)
	if err := o.transition(st, v, fms.StatusOnScene, "on scene"); err != nil {
		return
	}
	inc.ArrivedVehicles++
	v.HasArrived = true
	v.ArrivedAt = st.Clock.Sim
	v.ProcessingElapsedS = 0
	v.SituationReportSent = false
	v.ReportDueS = 10 + o.rng.Float64()*10
	v.ResetLeg()
	st.AppendLog(events.LogArrival, fmt.Sprintf("%s arrived at %s (%d/%d)", v.CallSign, inc.Type, inc.ArrivedVehicles, inc.RequiredVehicles))

	if !inc.InitialReportSent {
		inc.InitialReportSent = true
		o.initialReport(st, v, inc)
	}
}

// initialReport emits the first-arrival radio report and may flag a backup
// need when the situation is bigger than the call suggested.
func (o *Orchestrator) initialReport(st *sim.State, v *model.Vehicle, inc *model.Incident) {
	text := fmt.Sprintf("first unit on scene at %s, %d involved", inc.Type, inc.InvolvedPersons)
	msg := st.AppendRadio(events.RadioMessage{
		VehicleID: v.ID, CallSign: v.CallSign,
		From: fms.StatusOnScene, To: fms.StatusOnScene,
		Text: text,
	})
	if o.bus != nil {
		o.bus.Publish(msg)
	}
	needsBackup := inc.MassCasualty || (inc.Priority == model.PriorityHigh && o.rng.Float64() < 0.3)
	if needsBackup && !inc.BackupRequested {
		inc.BackupRequested = true
		inc.BackupNeeded = 1 + o.rng.Intn(2)
		if inc.MassCasualty {
			inc.BackupNeeded += inc.InvolvedPersons / 5
		}
		st.AppendLog(events.LogSystem, fmt.Sprintf("%s requests %d additional unit(s)", v.CallSign, inc.BackupNeeded))
	}
}

// startReturn requests the route back to the home station. The status flips
// to returning once the route resolves.
func (o *Orchestrator) startReturn(st *sim.State, v *model.Vehicle) {
	if _, ok := o.pending[v.ID]; ok {
		return
	}
	v.Seq++
	o.requestRoute(st, v, v.HomeStation, legReturn)
}

// completeReturn settles the finished leg and decides the next state in
// priority order: out of service beats refuel beats available.
func (o *Orchestrator) completeReturn(st *sim.State, v *model.Vehicle) {
	o.settleLeg(st, v)
	v.Position = v.HomeStation
	v.ResetLeg()

	if inc := st.Incident(v.AssignedIncidentID); inc != nil {
		inc.Unassign(v.ID)
	}
	v.AssignedIncidentID = ""
	v.HasArrived = false

	reason := resources.OutOfServiceReason(v)
	switch {
	case reason != model.ServiceNone:
		if err := o.transition(st, v, fms.StatusOutOfService, string(reason)); err != nil {
			return
		}
		v.OutOfServiceReason = reason
		v.OutOfServiceUntil = resources.ServiceDeadline(reason, st.Clock.Sim, o.rng)
		st.Score -= o.cfg.OutOfServicePenalty
		st.AppendLog(events.LogSystem, fmt.Sprintf("%s out of service: %s", v.CallSign, reason))
	case v.FuelLevel < resources.FuelLowPct:
		v.Seq++
		dest := st.NearestFuelStation(v.Position, v.HomeStation)
		o.requestRoute(st, v, dest, legRefuel)
	default:
		if err := o.transition(st, v, fms.StatusAtStation, "back at station"); err != nil {
			return
		}
	}
}

// arriveAtFuelPoint converts a refuel trip into a stationary pump stop whose
// duration is proportional to the fuel deficit. The vehicle keeps its
// to_refuel status for the whole errand; the drive home afterwards is a
// regular returning leg.
func (o *Orchestrator) arriveAtFuelPoint(st *sim.State, v *model.Vehicle) {
	o.settleLeg(st, v)
	v.ResetLeg()
	v.OutOfServiceReason = model.ServiceRefueling
	minutes := (100 - v.FuelLevel) / 100 * 8
	v.OutOfServiceUntil = st.Clock.Sim.Add(time.Duration(minutes * float64(time.Minute)))
	st.AppendLog(events.LogSystem, fmt.Sprintf("%s refueling, ready in %.0f min", v.CallSign, minutes))
}

// checkServiceDone releases a vehicle whose service deadline has passed,
// resetting the resource the stop was about. A vehicle released at a fuel
// point is away from its station and drives home instead of snapping there.
func (o *Orchestrator) checkServiceDone(st *sim.State, v *model.Vehicle) {
	if v.OutOfServiceReason == model.ServiceNone || st.Clock.Sim.Before(v.OutOfServiceUntil) {
		return
	}
	reason := v.OutOfServiceReason
	resources.ApplyService(v, reason)
	v.OutOfServiceReason = model.ServiceNone
	if reason == model.ServiceRefueling {
		v.Seq++
		o.requestRoute(st, v, v.HomeStation, legReturn)
		st.AppendLog(events.LogSystem, fmt.Sprintf("%s tank full, returning to station", v.CallSign))
		return
	}
	if err := o.transition(st, v, fms.StatusAtStation, "back in service"); err != nil {
		return
	}
	v.Position = v.HomeStation
	st.AppendLog(events.LogSystem, fmt.Sprintf("%s back in service after %s", v.CallSign, reason))
}

// settleLeg books fuel, fatigue, wear and shift statistics for the leg the
// vehicle just finished.
func (o *Orchestrator) settleLeg(st *sim.State, v *model.Vehicle) {
	if len(v.Route) == 0 {
		return
	}
	dist := model.PathLengthKm(v.Route) * v.Progress
	hours := v.AccumulatedS / 3600 // simulated seconds worked on this leg

	consumed := resources.FuelConsumed(v.Type, dist, hours, st.Difficulty)
	v.FuelLevel -= consumed
	v.Fatigue += resources.FatigueGained(v.Type, hours, st.Difficulty)
	v.ClampResources()
	v.OdometerKm += dist
	v.Maintenance = resources.NextMaintenanceTier(v.Maintenance, v.OdometerKm, o.rng)

	st.Stats.DistanceKm += dist
	st.Stats.FuelBurnedPct += consumed
	if rec, ok := o.sink.(metrics.FleetRecorder); ok {
		if err := rec.RecordFleetState(st.FleetByStatus()); err != nil {
			o.log.Warnf("record fleet state: %v", err)
		}
	}
}
