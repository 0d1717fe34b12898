package resources

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/kfranzke/leitstelle/core/model"
)

func TestFuelConsumedGround(t *testing.T) {
	// Patrol car: 0.12 L/km on a 60 L tank. 5 km burns 0.6 L, one percent.
	got := FuelConsumed(model.TypePatrolCar, 5, 0.1, 1)
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("expected 1%% of tank, got %f", got)
	}
	// Difficulty scales consumption linearly.
	hard := FuelConsumed(model.TypePatrolCar, 5, 0.1, 1.3)
	if math.Abs(hard-1.3) > 1e-9 {
		t.Fatalf("expected 1.3%%, got %f", hard)
	}
}

func TestFuelConsumedAirborne(t *testing.T) {
	// Helicopter burns per flight hour, distance is irrelevant.
	got := FuelConsumed(model.TypeHelicopter, 500, 1, 1)
	want := 180.0 / 420.0 * 100
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %f, got %f", want, got)
	}
	if FuelConsumed(model.TypeHelicopter, 0, -1, 1) != 0 {
		t.Fatal("negative duration must burn nothing")
	}
}

func TestFuelConsumedNeverNegative(t *testing.T) {
	if got := FuelConsumed(model.TypePatrolCar, -10, 0, 1); got != 0 {
		t.Fatalf("negative distance must burn nothing, got %f", got)
	}
}

func TestFatigueGained(t *testing.T) {
	// Two-person patrol car crew: 12.5 / 2 = 6.25 points per hour.
	got := FatigueGained(model.TypePatrolCar, 1, 1)
	if math.Abs(got-6.25) > 1e-9 {
		t.Fatalf("expected 6.25, got %f", got)
	}
	// Solo motorcycle rider carries the full rate.
	solo := FatigueGained(model.TypeMotorcycle, 1, 1)
	if math.Abs(solo-12.5) > 1e-9 {
		t.Fatalf("expected 12.5, got %f", solo)
	}
	if FatigueGained(model.TypePatrolCar, 0, 1) != 0 {
		t.Fatal("no work, no fatigue")
	}
	if FatigueGained(model.TypeMotorcycle, 1000, 1) != 100 {
		t.Fatal("fatigue gain is capped at 100")
	}
}

func TestNextMaintenanceTierNeverImproves(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		if got := NextMaintenanceTier(model.MaintenanceCritical, 0, rng); got != model.MaintenanceCritical {
			t.Fatalf("critical must stay critical, got %v", got)
		}
		got := NextMaintenanceTier(model.MaintenanceWarning, 0, rng)
		if got != model.MaintenanceWarning && got != model.MaintenanceCritical {
			t.Fatalf("warning may only hold or degrade, got %v", got)
		}
	}
}

func TestNextMaintenanceTierDegradesPastThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	warned := false
	for i := 0; i < 200 && !warned; i++ {
		warned = NextMaintenanceTier(model.MaintenanceOK, 200, rng) != model.MaintenanceOK
	}
	if !warned {
		t.Fatal("an ok vehicle past 150 km should degrade within 200 rolls")
	}
}

func TestOutOfServiceReasonPriority(t *testing.T) {
	v := &model.Vehicle{FuelLevel: 10, Fatigue: 90, Maintenance: model.MaintenanceCritical}
	if got := OutOfServiceReason(v); got != model.ServiceNeedsFuel {
		t.Fatalf("fuel must win, got %s", got)
	}
	v.FuelLevel = 50
	if got := OutOfServiceReason(v); got != model.ServiceCrewBreak {
		t.Fatalf("crew break before repair, got %s", got)
	}
	v.Fatigue = 40
	if got := OutOfServiceReason(v); got != model.ServiceRepair {
		t.Fatalf("expected repair, got %s", got)
	}
	v.Maintenance = model.MaintenanceWarning
	if got := OutOfServiceReason(v); got != model.ServiceNone {
		t.Fatalf("warning alone does not ground a vehicle, got %s", got)
	}
}

func TestServiceDeadline(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if got := ServiceDeadline(model.ServiceNeedsFuel, now, rng); got.Sub(now) != 5*time.Minute {
		t.Errorf("fuel stop: got %v", got.Sub(now))
	}
	if got := ServiceDeadline(model.ServiceCrewBreak, now, rng); got.Sub(now) != 20*time.Minute {
		t.Errorf("crew break: got %v", got.Sub(now))
	}
	for i := 0; i < 50; i++ {
		d := ServiceDeadline(model.ServiceRepair, now, rng).Sub(now)
		if d < 15*time.Minute || d > 45*time.Minute {
			t.Fatalf("repair duration %v outside [15m, 45m]", d)
		}
	}
	if got := ServiceDeadline(model.ServiceNone, now, rng); !got.Equal(now) {
		t.Errorf("no reason, no wait: got %v", got)
	}
}

func TestApplyService(t *testing.T) {
	v := &model.Vehicle{FuelLevel: 5, Fatigue: 95, Maintenance: model.MaintenanceCritical, OdometerKm: 320}

	ApplyService(v, model.ServiceNeedsFuel)
	if v.FuelLevel != 100 {
		t.Errorf("fuel stop must fill the tank, got %f", v.FuelLevel)
	}
	if v.Fatigue != 95 || v.Maintenance != model.MaintenanceCritical {
		t.Error("fuel stop must not touch fatigue or maintenance")
	}

	ApplyService(v, model.ServiceCrewBreak)
	if v.Fatigue != 0 {
		t.Errorf("break must rest the crew, got %f", v.Fatigue)
	}

	ApplyService(v, model.ServiceRepair)
	if v.Maintenance != model.MaintenanceOK || v.OdometerKm != 0 {
		t.Errorf("repair must reset wear, got %v at %f km", v.Maintenance, v.OdometerKm)
	}
}
