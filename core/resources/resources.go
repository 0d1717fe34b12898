// Package resources implements the consumption and wear model: fuel burned
// per leg, crew fatigue gained per hour worked and probabilistic maintenance
// degradation. All functions are pure except where an explicit random source
// is passed in.
package resources

import (
	"math/rand"
	"time"

	"github.com/kfranzke/leitstelle/core/model"
)

const (
	// Fuel thresholds in percent of tank.
	FuelCriticalPct = 15.0
	FuelLowPct      = 30.0
	// Fatigue thresholds.
	FatigueCritical = 85.0
	FatigueHigh     = 70.0
	FatigueMedium   = 50.0
	// Maintenance distance thresholds in km of accumulated odometer.
	maintWarningKm  = 150.0
	maintCriticalKm = 300.0
)

// FuelConsumed returns the fuel burned on a leg as a percentage of the tank.
// Ground vehicles burn per kilometre, aircraft per flight hour. The result is
// never negative; the caller clamps the resulting level to [0,100].
func FuelConsumed(t model.VehicleType, distanceKm, durationHours, difficulty float64) float64 {
	if difficulty <= 0 {
		difficulty = 1
	}
	spec := model.SpecFor(t)
	var liters float64
	if spec.Airborne {
		if durationHours < 0 {
			durationHours = 0
		}
		liters = durationHours * spec.LitersPerHour
	} else {
		if distanceKm < 0 {
			distanceKm = 0
		}
		liters = distanceKm * spec.LitersPerKm
	}
	liters *= difficulty
	if spec.TankLiters <= 0 {
		return 0
	}
	pct := liters / spec.TankLiters * 100
	if pct < 0 {
		return 0
	}
	return pct
}

// FatigueGained returns the fatigue points gained for hours of work. Bigger
// crews share the load and fatigue slower.
func FatigueGained(t model.VehicleType, hoursWorked, difficulty float64) float64 {
	if hoursWorked <= 0 {
		return 0
	}
	if difficulty <= 0 {
		difficulty = 1
	}
	spec := model.SpecFor(t)
	crew := float64(spec.CrewSize)
	if crew < 1 {
		crew = 1
	}
	// Base rate: a lone crew member is worn out after roughly eight hours.
	gained := hoursWorked * 12.5 / crew * difficulty
	if gained > 100 {
		gained = 100
	}
	return gained
}

// NextMaintenanceTier degrades the tier probabilistically once the odometer
// passes the wear thresholds, plus a small independent breakdown chance on
// every update. The tier never improves here; only service resets it.
func NextMaintenanceTier(current model.MaintenanceTier, odometerKm float64, rng *rand.Rand) model.MaintenanceTier {
	if current == model.MaintenanceCritical {
		return current
	}
	// Random breakdown regardless of wear.
	if rng.Float64() < 0.002 {
		return model.MaintenanceCritical
	}
	switch current {
	case model.MaintenanceOK:
		if odometerKm > maintWarningKm && rng.Float64() < 0.25 {
			return model.MaintenanceWarning
		}
	case model.MaintenanceWarning:
		if odometerKm > maintCriticalKm && rng.Float64() < 0.25 {
			return model.MaintenanceCritical
		}
	}
	return current
}

// OutOfServiceReason returns the first applicable reason in priority order:
// fuel before crew break before repair. ServiceNone means the vehicle can
// keep working.
func OutOfServiceReason(v *model.Vehicle) model.ServiceReason {
	if v.FuelLevel < FuelCriticalPct {
		return model.ServiceNeedsFuel
	}
	if v.Fatigue > FatigueCritical {
		return model.ServiceCrewBreak
	}
	if v.Maintenance == model.MaintenanceCritical {
		return model.ServiceRepair
	}
	return model.ServiceNone
}

// ServiceDeadline returns the absolute sim-clock time at which a vehicle
// becomes available again for the given reason. Repairs take a randomized
// duration; the other reasons are fixed.
func ServiceDeadline(reason model.ServiceReason, now time.Time, rng *rand.Rand) time.Time {
	var d time.Duration
	switch reason {
	case model.ServiceNeedsFuel, model.ServiceRefueling:
		d = 5 * time.Minute
	case model.ServiceCrewBreak:
		d = 20 * time.Minute
	case model.ServiceRepair:
		d = time.Duration(15+rng.Intn(31)) * time.Minute
	default:
		d = 0
	}
	return now.Add(d)
}

// ApplyService resets the resource the reason was about: full tank after
// fuel stops, rested crew after breaks, fresh maintenance after repairs.
func ApplyService(v *model.Vehicle, reason model.ServiceReason) {
	switch reason {
	case model.ServiceNeedsFuel, model.ServiceRefueling:
		v.FuelLevel = 100
	case model.ServiceCrewBreak:
		v.Fatigue = 0
	case model.ServiceRepair:
		v.Maintenance = model.MaintenanceOK
		v.OdometerKm = 0
	}
}
