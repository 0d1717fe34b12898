package dispatch

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/kfranzke/leitstelle/core/fms"
	"github.com/kfranzke/leitstelle/core/metrics"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/core/routing"
	"github.com/kfranzke/leitstelle/core/sim"
	"github.com/kfranzke/leitstelle/infra/logger"
)

var station = model.Position{Lat: 50.9375, Lon: 6.9603}

// fixedRouter always answers with a direct path of the given duration, so
// transit timing in tests is exact.
type fixedRouter struct{ durationS float64 }

func (f fixedRouter) Route(_ context.Context, origin, dest model.Position, _ routing.Mode) (routing.Route, error) {
	return routing.Route{Path: []model.Position{origin, dest}, DurationS: f.durationS}, nil
}

func newFixture(t *testing.T, cfg Config, routeDurationS float64) (*Orchestrator, *sim.State, *model.Vehicle, *model.Incident) {
	t.Helper()
	cfg.SyncRouting = true
	rng := rand.New(rand.NewSource(1))
	o, err := NewOrchestrator(cfg, fixedRouter{durationS: routeDurationS}, logger.NopLogger{}, nil, metrics.NopSink{}, rng)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	st := sim.NewState(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), 1, 1)
	v := model.NewVehicle("v-01", "Adler 1", model.TypePatrolCar, station)
	st.Vehicles = append(st.Vehicles, v)
	inc := &model.Incident{
		ID:                  "inc-1",
		Type:                model.IncidentTheft,
		Location:            station.Offset(2, 90),
		Priority:            model.PriorityMedium,
		RequiredVehicles:    1,
		TimeRemainingS:      3600,
		ProcessingDurationS: 50,
		SpawnedAt:           st.Clock.Sim,
		Status:              model.IncidentActive,
	}
	st.Incidents = append(st.Incidents, inc)
	return o, st, v, inc
}

// tick advances the clock the way the stepper would and runs one orchestrator
// pass.
func tick(st *sim.State, o *Orchestrator, realDt float64) {
	st.Clock.Advance(realDt)
	st.RealElapsedS += realDt
	o.Step(st, realDt)
}

func TestAssignSchedulesDeparture(t *testing.T) {
	o, st, v, inc := newFixture(t, Config{}, 100)
	if err := o.Assign(st, v.ID, inc.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !v.DispatchPending {
		t.Fatal("departure not scheduled")
	}
	if v.Status != fms.StatusAtStation {
		t.Fatalf("status must not change before departure, got %s", v.Status)
	}
	if v.AssignedIncidentID != inc.ID || !inc.IsAssigned(v.ID) {
		t.Fatal("binding incomplete")
	}
	// Crew readiness delay carries a 10% jitter around the type's base.
	delay := v.DepartAt.Sub(st.Clock.Sim).Seconds()
	if delay < 7.2 || delay > 8.8 {
		t.Fatalf("delay %f s outside jitter window", delay)
	}
}

func TestAssignRejections(t *testing.T) {
	o, st, v, inc := newFixture(t, Config{}, 100)

	if err := o.Assign(st, "v-99", inc.ID); err == nil {
		t.Error("unknown vehicle must fail")
	}
	if err := o.Assign(st, v.ID, "inc-99"); err == nil {
		t.Error("unknown incident must fail")
	}

	inc.Status = model.IncidentFailed
	if err := o.Assign(st, v.ID, inc.ID); err == nil {
		t.Error("closed incident must fail")
	}
	inc.Status = model.IncidentActive

	v.Status = fms.StatusOnScene
	if err := o.Assign(st, v.ID, inc.ID); err == nil {
		t.Error("busy vehicle must fail")
	}
}

func TestAssignGroundedByWeather(t *testing.T) {
	o, st, _, inc := newFixture(t, Config{}, 100)
	inc.Type = model.IncidentPursuit
	heli := model.NewVehicle("v-02", "Libelle 1", model.TypeHelicopter, station)
	st.Vehicles = append(st.Vehicles, heli)
	st.Weather = model.WeatherFog

	if err := o.Assign(st, heli.ID, inc.ID); err == nil {
		t.Fatal("grounded aircraft must not be dispatched")
	}
	if heli.Status != fms.StatusAtStation || heli.AssignedIncidentID != "" {
		t.Fatal("rejected assignment must leave the vehicle untouched")
	}
	if len(st.Log) == 0 {
		t.Fatal("grounding should be surfaced in the dispatch log")
	}
}

func TestDispatchJourney(t *testing.T) {
	o, st, v, inc := newFixture(t, Config{}, 100)
	inc.SpeakRequestDone = true // keep the journey deterministic

	if err := o.Assign(st, v.ID, inc.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	tick(st, o, 10)  // readiness delay elapses, route requested
	tick(st, o, 0.1) // route resolves
	if v.Status != fms.StatusEnRoute {
		t.Fatalf("expected en_route, got %s", v.Status)
	}
	if math.Abs(v.RouteDurationS-140) > 1e-9 {
		t.Fatalf("realism factor not applied: %f", v.RouteDurationS)
	}

	tick(st, o, 140)
	if v.Status != fms.StatusOnScene {
		t.Fatalf("expected on_scene, got %s", v.Status)
	}
	if inc.ArrivedVehicles != 1 || !v.HasArrived {
		t.Fatal("arrival not counted")
	}
	if !inc.InitialReportSent {
		t.Fatal("first arrival must report in")
	}
	// Parked on the innermost ring, not on top of the scene.
	if d := inc.Location.DistanceKm(v.Position); math.Abs(d-0.03) > 0.01 {
		t.Fatalf("parked %f km out, want about 0.03", d)
	}

	for i := 0; i < 6; i++ {
		tick(st, o, 10)
	}
	if v.Status != fms.StatusReturning {
		t.Fatalf("work done, expected returning, got %s", v.Status)
	}
	if !v.SituationReportSent {
		t.Fatal("situation report should have gone out during processing")
	}

	tick(st, o, 150)
	if v.Status != fms.StatusAtStation {
		t.Fatalf("expected at_station, got %s", v.Status)
	}
	if v.AssignedIncidentID != "" || inc.IsAssigned(v.ID) {
		t.Fatal("binding must be released after the return")
	}
	if v.Position != v.HomeStation {
		t.Fatal("vehicle must be parked at its station")
	}
	if v.FuelLevel >= 100 {
		t.Fatal("the trip must burn fuel")
	}
	if st.Stats.DistanceKm <= 0 {
		t.Fatal("driven distance must be booked")
	}
}

// failingRouter simulates an unreachable routing service, forcing the
// straight-line fallback on every request.
type failingRouter struct{}

func (failingRouter) Route(context.Context, model.Position, model.Position, routing.Mode) (routing.Route, error) {
	return routing.Route{}, errors.New("router down")
}

// The weather slowdown must reach fallback durations exactly once, the same
// as router-returned durations.
func TestFallbackRouteWeatherAppliedOnce(t *testing.T) {
	run := func(w model.Weather) float64 {
		rng := rand.New(rand.NewSource(1))
		o, err := NewOrchestrator(Config{SyncRouting: true}, failingRouter{}, logger.NopLogger{}, nil, metrics.NopSink{}, rng)
		if err != nil {
			t.Fatalf("orchestrator: %v", err)
		}
		st := sim.NewState(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), 1, 1)
		st.Weather = w
		v := model.NewVehicle("v-01", "Adler 1", model.TypePatrolCar, station)
		st.Vehicles = append(st.Vehicles, v)
		inc := &model.Incident{
			ID:                  "inc-1",
			Type:                model.IncidentTheft,
			Location:            station.Offset(2, 90),
			Priority:            model.PriorityMedium,
			RequiredVehicles:    1,
			TimeRemainingS:      3600,
			ProcessingDurationS: 50,
			SpawnedAt:           st.Clock.Sim,
			Status:              model.IncidentActive,
		}
		st.Incidents = append(st.Incidents, inc)
		if err := o.Assign(st, v.ID, inc.ID); err != nil {
			t.Fatalf("assign: %v", err)
		}
		tick(st, o, 10)
		tick(st, o, 0.1)
		if v.Status != fms.StatusEnRoute {
			t.Fatalf("fallback must still dispatch the vehicle, got %s", v.Status)
		}
		return v.RouteDurationS
	}

	clearS := run(model.WeatherClear)
	rainS := run(model.WeatherRain)
	if math.Abs(rainS*0.85-clearS) > 1e-9 {
		t.Fatalf("rain fallback %f s vs clear %f s, slowdown compounded", rainS, clearS)
	}
}

func TestRouteDurationSlowedByWeather(t *testing.T) {
	o, st, v, inc := newFixture(t, Config{}, 100)
	st.Weather = model.WeatherRain

	if err := o.Assign(st, v.ID, inc.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	tick(st, o, 10)
	tick(st, o, 0.1)
	want := 100 * 1.4 / 0.85
	if math.Abs(v.RouteDurationS-want) > 1e-9 {
		t.Fatalf("expected %f, got %f", want, v.RouteDurationS)
	}
}

func TestStandDownWhenIncidentGoneBeforeDeparture(t *testing.T) {
	o, st, v, inc := newFixture(t, Config{}, 100)
	if err := o.Assign(st, v.ID, inc.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	inc.Status = model.IncidentFailed

	tick(st, o, 10)
	if v.DispatchPending {
		t.Fatal("departure must be canceled")
	}
	if v.AssignedIncidentID != "" {
		t.Fatal("binding must be dropped")
	}
	if v.Status != fms.StatusAtStation {
		t.Fatalf("vehicle stands down in place, got %s", v.Status)
	}
}

func TestAbortTransitWhenIncidentVanishes(t *testing.T) {
	o, st, v, inc := newFixture(t, Config{}, 100)
	if err := o.Assign(st, v.ID, inc.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	tick(st, o, 10)
	tick(st, o, 0.1)
	if v.Status != fms.StatusEnRoute {
		t.Fatalf("expected en_route, got %s", v.Status)
	}

	st.Incidents = nil
	tick(st, o, 10) // abort detected, return route requested
	if v.AssignedIncidentID != "" {
		t.Fatal("dangling binding must be cleared")
	}
	tick(st, o, 0.1)
	if v.Status != fms.StatusReturning {
		t.Fatalf("expected returning, got %s", v.Status)
	}
}

func TestRedirectReturningVehicle(t *testing.T) {
	o, st, v, old := newFixture(t, Config{}, 100)
	second := &model.Incident{
		ID:                  "inc-2",
		Type:                model.IncidentBurglary,
		Location:            station.Offset(3, 180),
		Priority:            model.PriorityHigh,
		RequiredVehicles:    1,
		TimeRemainingS:      3600,
		ProcessingDurationS: 40,
		Status:              model.IncidentActive,
	}
	st.Incidents = append(st.Incidents, second)

	// Vehicle is halfway home from the first incident.
	v.Status = fms.StatusReturning
	v.AssignedIncidentID = old.ID
	v.HasArrived = true
	old.Assign(v.ID)
	old.ArrivedVehicles = 1
	v.Route = []model.Position{old.Location, station}
	v.RouteDurationS = 140
	v.AccumulatedS = 70

	seq := v.Seq
	if err := o.Assign(st, v.ID, second.ID); err != nil {
		t.Fatalf("redirect: %v", err)
	}
	if old.IsAssigned(v.ID) || old.ArrivedVehicles != 0 {
		t.Fatal("old incident must release the vehicle and roll back the arrival count")
	}
	if v.AssignedIncidentID != second.ID || !second.IsAssigned(v.ID) {
		t.Fatal("vehicle not bound to the new incident")
	}
	if v.Seq != seq+1 {
		t.Fatal("redirect must bump the sequence to cancel stale futures")
	}
	if len(v.Route) != 0 || v.HasArrived {
		t.Fatal("leg state must be reset")
	}

	tick(st, o, 10)
	tick(st, o, 0.1)
	if v.Status != fms.StatusEnRoute {
		t.Fatalf("expected en_route to the new incident, got %s", v.Status)
	}
}

func TestSpeakRequestWindowAndSingleShot(t *testing.T) {
	o, st, v, inc := newFixture(t, Config{SpeakRequestChance: 1}, 100)
	v.Status = fms.StatusOnScene
	v.AssignedIncidentID = inc.ID

	// Before the window opens nothing happens even at chance 1.
	v.ProcessingElapsedS = 0.1 * inc.ProcessingDurationS
	if o.maybeSpeakRequest(st, v, inc) {
		t.Fatal("no speak requests before 20% of the processing time")
	}

	v.ProcessingElapsedS = 0.5 * inc.ProcessingDurationS
	if !o.maybeSpeakRequest(st, v, inc) {
		t.Fatal("expected a speak request inside the window")
	}
	if v.Status != fms.StatusSpeakRequest || v.PreviousStatus != fms.StatusOnScene {
		t.Fatalf("got status %s, previous %s", v.Status, v.PreviousStatus)
	}
	if v.SpeakRequestCategory == "" {
		t.Fatal("category must be picked")
	}
	if !inc.SpeakRequestDone {
		t.Fatal("single-shot flag must be set")
	}

	// A second crew on the same incident stays quiet.
	other := model.NewVehicle("v-02", "Adler 2", model.TypePatrolCar, station)
	other.Status = fms.StatusOnScene
	other.ProcessingElapsedS = 0.5 * inc.ProcessingDurationS
	if o.maybeSpeakRequest(st, other, inc) {
		t.Fatal("only one speak request per incident")
	}
}

func TestResumeSpeakRequest(t *testing.T) {
	o, st, v, inc := newFixture(t, Config{}, 100)
	v.Status = fms.StatusSpeakRequest
	v.PreviousStatus = fms.StatusOnScene
	v.AssignedIncidentID = inc.ID
	v.ProcessingElapsedS = 10
	inc.ArrivedVehicles = 1

	if err := o.ResumeSpeakRequest(st, v.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if v.Status != fms.StatusOnScene {
		t.Fatalf("unfinished work resumes on scene, got %s", v.Status)
	}
	if v.SpeakRequestCategory != "" {
		t.Fatal("category must be cleared")
	}
}

func TestResumeSpeakRequestAfterWorkDone(t *testing.T) {
	o, st, v, inc := newFixture(t, Config{}, 100)
	v.Status = fms.StatusSpeakRequest
	v.PreviousStatus = fms.StatusOnScene
	v.AssignedIncidentID = inc.ID
	v.ProcessingElapsedS = inc.ProcessingDurationS + 1
	inc.ArrivedVehicles = 1

	if err := o.ResumeSpeakRequest(st, v.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	// Bouncing back to on_scene would deadlock the incident, so the return
	// route is requested instead.
	tick(st, o, 0.1)
	if v.Status != fms.StatusReturning {
		t.Fatalf("finished work heads home, got %s", v.Status)
	}
}

func TestResumeSpeakRequestWithoutOne(t *testing.T) {
	o, st, v, _ := newFixture(t, Config{}, 100)
	if err := o.ResumeSpeakRequest(st, v.ID); err == nil {
		t.Fatal("expected an error for a vehicle without a pending request")
	}
}

func TestCompleteReturnOutOfService(t *testing.T) {
	o, st, v, _ := newFixture(t, Config{}, 100)
	v.Status = fms.StatusReturning
	v.Position = station
	v.FuelLevel = 10 // critical

	scoreBefore := st.Score
	o.completeReturn(st, v)
	if v.Status != fms.StatusOutOfService {
		t.Fatalf("expected out_of_service, got %s", v.Status)
	}
	if v.OutOfServiceReason != model.ServiceNeedsFuel {
		t.Fatalf("expected needs_fuel, got %s", v.OutOfServiceReason)
	}
	if st.Score != scoreBefore-25 {
		t.Fatalf("out-of-service penalty not charged: %d -> %d", scoreBefore, st.Score)
	}
	if got := v.OutOfServiceUntil.Sub(st.Clock.Sim); got != 5*time.Minute {
		t.Fatalf("fuel stop deadline %v", got)
	}
}

func TestCompleteReturnLowFuelDivertsToFuelPoint(t *testing.T) {
	o, st, v, _ := newFixture(t, Config{}, 100)
	st.FuelStations = []model.Position{station.Offset(1, 0)}
	v.Status = fms.StatusReturning
	v.Position = station
	v.FuelLevel = 25 // low but not critical

	o.completeReturn(st, v)
	tick(st, o, 0.1)
	if v.Status != fms.StatusToRefuel {
		t.Fatalf("expected to_refuel, got %s", v.Status)
	}
}

func TestArriveAtFuelPointAndServiceDone(t *testing.T) {
	o, st, v, _ := newFixture(t, Config{}, 100)
	v.Status = fms.StatusToRefuel
	v.Route = []model.Position{station, station.Offset(1, 0)}
	v.RouteDurationS = 60
	v.AccumulatedS = 60
	v.Progress = 1
	v.FuelLevel = 25

	o.arriveAtFuelPoint(st, v)
	if v.Status != fms.StatusToRefuel || v.OutOfServiceReason != model.ServiceRefueling {
		t.Fatalf("got %s / %s", v.Status, v.OutOfServiceReason)
	}
	// Refuel time is proportional to the deficit: 75% missing is 6 minutes.
	want := time.Duration(6 * float64(time.Minute))
	if got := v.OutOfServiceUntil.Sub(st.Clock.Sim); got-want > 5*time.Second || want-got > 5*time.Second {
		t.Fatalf("refuel deadline %v, want about %v", got, want)
	}

	st.Clock.Sim = v.OutOfServiceUntil.Add(time.Second)
	o.checkServiceDone(st, v)
	if v.FuelLevel != 100 {
		t.Fatalf("tank must be full, got %f", v.FuelLevel)
	}
	if v.OutOfServiceReason != model.ServiceNone {
		t.Fatal("reason must be cleared")
	}

	// The fuel point is away from the station, so the release is a driving
	// leg home, not a position snap.
	tick(st, o, 0.1)
	if v.Status != fms.StatusReturning {
		t.Fatalf("expected a returning leg home, got %s", v.Status)
	}
	tick(st, o, v.RouteDurationS)
	if v.Status != fms.StatusAtStation {
		t.Fatalf("expected at_station after the drive home, got %s", v.Status)
	}
	if v.Position != v.HomeStation {
		t.Fatalf("vehicle must end at its station, got %+v", v.Position)
	}
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	o, st, v, _ := newFixture(t, Config{}, 100)
	v.Status = fms.StatusOnScene
	if err := o.transition(st, v, fms.StatusAtStation, "teleporting"); err == nil {
		t.Fatal("expected rejection")
	}
	if v.Status != fms.StatusOnScene {
		t.Fatalf("status must survive a rejected transition, got %s", v.Status)
	}
}

func TestTransitionEmitsRadioMessage(t *testing.T) {
	o, st, v, _ := newFixture(t, Config{}, 100)
	if err := o.transition(st, v, fms.StatusEnRoute, "responding"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if len(st.Radio) != 1 {
		t.Fatalf("expected 1 radio message, got %d", len(st.Radio))
	}
	msg := st.Radio[0]
	if msg.From != fms.StatusAtStation || msg.To != fms.StatusEnRoute || msg.CallSign != v.CallSign {
		t.Fatalf("bad radio message: %+v", msg)
	}
}

func TestParkingPosition(t *testing.T) {
	scene := station.Offset(2, 90)

	first := parkingPosition(scene, 0)
	if d := scene.DistanceKm(first); math.Abs(d-0.03) > 0.001 {
		t.Fatalf("first slot %f km out, want 0.03", d)
	}
	// The ninth vehicle opens the second ring.
	ninth := parkingPosition(scene, 8)
	if d := scene.DistanceKm(ninth); math.Abs(d-0.05) > 0.001 {
		t.Fatalf("second ring %f km out, want 0.05", d)
	}
	// Slots within a ring are distinct.
	seen := map[model.Position]bool{}
	for i := 0; i < 8; i++ {
		p := parkingPosition(scene, i)
		if seen[p] {
			t.Fatalf("slot %d collides", i)
		}
		seen[p] = true
	}
	if parkingPosition(scene, -3) != first {
		t.Fatal("negative indexes take the first slot")
	}
}
