package scenarios

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kfranzke/leitstelle/core/dispatch"
	"github.com/kfranzke/leitstelle/core/fms"
	"github.com/kfranzke/leitstelle/core/incident"
	coremetrics "github.com/kfranzke/leitstelle/core/metrics"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/core/routing"
	"github.com/kfranzke/leitstelle/core/score"
	"github.com/kfranzke/leitstelle/core/sim"
	"github.com/kfranzke/leitstelle/infra/logger"
	"github.com/kfranzke/leitstelle/infra/metrics"
	"github.com/kfranzke/leitstelle/internal/eventbus"
)

var station = model.Position{Lat: 50.9375, Lon: 6.9603}

type straightRouter struct{}

func (straightRouter) Route(_ context.Context, origin, dest model.Position, _ routing.Mode) (routing.Route, error) {
	return routing.StraightLine(origin, dest, 60), nil
}

// RunScenario plays a scripted shift: calls enter the queue at their
// offsets, are accepted immediately and auto-assigned to the best rated
// vehicles, and speak requests are acknowledged without delay.
func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	bus := eventbus.New()
	rng := rand.New(rand.NewSource(7))

	speed := sc.Speed
	if speed <= 0 {
		speed = 30
	}
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	st := sim.NewState(start, speed, 1)
	for i, def := range sc.Vehicles {
		st.Vehicles = append(st.Vehicles, def.ToModel(i+1, station))
	}

	mgr, err := incident.NewManager(incident.Config{Scripted: true}, logger.NopLogger{}, bus, sink, rng)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	orch, err := dispatch.NewOrchestrator(dispatch.Config{SyncRouting: true}, straightRouter{}, logger.NopLogger{}, bus, sink, rng)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	stepper := sim.NewStepper(st, logger.NopLogger{}, mgr, orch)

	maxSim := sc.MaxSimMinutes
	if maxSim <= 0 {
		maxSim = 120
	}

	const dt = 0.25
	injected := 0
	for simElapsed := 0.0; simElapsed < maxSim*60; simElapsed += dt * speed {
		for injected < len(sc.Calls) && sc.Calls[injected].OffsetSeconds <= simElapsed {
			call := sc.Calls[injected].ToModel(fmt.Sprintf("call-%d", injected+1), station)
			call.ReceivedAt = st.Clock.Sim
			st.Calls = append(st.Calls, call)
			if _, err := mgr.AcceptCall(st, call.ID); err != nil {
				t.Fatalf("accept %s: %v", call.ID, err)
			}
			injected++
		}
		autoAssign(t, st, orch)
		for _, v := range st.Vehicles {
			if v.Status == fms.StatusSpeakRequest {
				if err := orch.ResumeSpeakRequest(st, v.ID); err != nil {
					t.Fatalf("resume %s: %v", v.ID, err)
				}
			}
		}
		stepper.Step(dt)
		if injected == len(sc.Calls) && st.Stats.IncidentsCompleted+st.Stats.IncidentsFailed >= len(sc.Calls) {
			break
		}
	}

	if st.Stats.IncidentsCompleted != sc.Expected.Completed {
		t.Errorf("scenario %s expected %d completed, got %d", sc.Name, sc.Expected.Completed, st.Stats.IncidentsCompleted)
	}
	if st.Stats.IncidentsFailed != sc.Expected.Failed {
		t.Errorf("scenario %s expected %d failed, got %d", sc.Name, sc.Expected.Failed, st.Stats.IncidentsFailed)
	}
}

func autoAssign(t *testing.T, st *sim.State, orch *dispatch.Orchestrator) {
	for _, inc := range st.Incidents {
		if !inc.Active() || len(inc.AssignedVehicleIDs) >= inc.RequiredVehicles {
			continue
		}
		needed := inc.RequiredVehicles - len(inc.AssignedVehicleIDs)
		for _, r := range score.FindBestVehicles(st.Vehicles, inc, needed) {
			if inc.IsAssigned(r.VehicleID) {
				continue
			}
			if err := orch.Assign(st, r.VehicleID, inc.ID); err != nil {
				t.Fatalf("assign %s to %s: %v", r.VehicleID, inc.ID, err)
			}
		}
	}
}
