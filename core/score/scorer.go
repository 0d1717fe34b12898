// Package score rates vehicle/incident suitability for auto-assignment.
package score

import (
	"fmt"
	"sort"

	"github.com/kfranzke/leitstelle/core/fms"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/core/resources"
)

const (
	// BaseScore is the starting score before penalties and bonuses.
	BaseScore = 100.0
	// MinSuitableScore is the threshold below which a vehicle is ruled out.
	MinSuitableScore = 30.0

	penaltyTypeMismatch = 60.0
	penaltyDistMedium   = 10.0
	penaltyDistFar      = 25.0
	penaltyDistVeryFar  = 40.0
	penaltyFuelCritical = 50.0
	penaltyFuelLow      = 25.0
	penaltyFuelTrip     = 35.0
	penaltyFatigueCrit  = 40.0
	penaltyFatigueHigh  = 25.0
	penaltyFatigueMed   = 10.0
	penaltyMaintCrit    = 30.0
	penaltyMaintWarn    = 10.0
	bonusHighPriority   = 10.0
)

// Rating is the verdict for one vehicle against one incident.
type Rating struct {
	VehicleID string
	Score     float64
	Suitable  bool
	Reasons   []string
}

// Rate scores a vehicle against an incident. Unavailable vehicles score zero
// immediately; everything else starts from BaseScore and accumulates
// penalties and bonuses, clamped to [0, BaseScore].
func Rate(v *model.Vehicle, inc *model.Incident) Rating {
	r := Rating{VehicleID: v.ID}

	if !fms.AvailableForAssignment(v.Status) {
		r.Reasons = append(r.Reasons, fmt.Sprintf("not available (%s)", v.Status))
		return r
	}

	s := BaseScore
	spec := v.Spec()

	if !spec.SuitableFor[inc.Type] {
		s -= penaltyTypeMismatch
		r.Reasons = append(r.Reasons, fmt.Sprintf("%s not suited for %s", v.Type, inc.Type))
	}

	dist := v.Position.DistanceKm(inc.Location)
	switch {
	case dist < 2:
		r.Reasons = append(r.Reasons, fmt.Sprintf("close by (%.1f km)", dist))
	case dist < 5:
		s -= penaltyDistMedium
	case dist < 10:
		s -= penaltyDistFar
		r.Reasons = append(r.Reasons, fmt.Sprintf("far away (%.1f km)", dist))
	default:
		s -= penaltyDistVeryFar
		r.Reasons = append(r.Reasons, fmt.Sprintf("very far away (%.1f km)", dist))
	}

	// Round trip plus some on-scene driving, with a 20% safety margin.
	tripKm := dist*2 + 2
	var litersNeeded float64
	if spec.Airborne {
		litersNeeded = tripKm / spec.SpeedKmh * spec.LitersPerHour * 1.2
	} else {
		litersNeeded = tripKm * spec.LitersPerKm * 1.2
	}
	litersAvailable := v.FuelLevel / 100 * spec.TankLiters
	switch {
	case v.FuelLevel < resources.FuelCriticalPct:
		s -= penaltyFuelCritical
		r.Reasons = append(r.Reasons, fmt.Sprintf("fuel critical (%.0f%%)", v.FuelLevel))
	case v.FuelLevel < resources.FuelLowPct:
		s -= penaltyFuelLow
		r.Reasons = append(r.Reasons, fmt.Sprintf("fuel low (%.0f%%)", v.FuelLevel))
	case litersAvailable < litersNeeded:
		s -= penaltyFuelTrip
		r.Reasons = append(r.Reasons, "fuel insufficient for this trip")
	}

	switch {
	case v.Fatigue > resources.FatigueCritical:
		s -= penaltyFatigueCrit
		r.Reasons = append(r.Reasons, fmt.Sprintf("crew exhausted (%.0f)", v.Fatigue))
	case v.Fatigue > resources.FatigueHigh:
		s -= penaltyFatigueHigh
		r.Reasons = append(r.Reasons, fmt.Sprintf("crew fatigued (%.0f)", v.Fatigue))
	case v.Fatigue > resources.FatigueMedium:
		s -= penaltyFatigueMed
	}

	if inc.Priority == model.PriorityHigh {
		s += bonusHighPriority
		r.Reasons = append(r.Reasons, "high priority response")
	}

	switch v.Maintenance {
	case model.MaintenanceCritical:
		s -= penaltyMaintCrit
		r.Reasons = append(r.Reasons, "maintenance critical")
	case model.MaintenanceWarning:
		s -= penaltyMaintWarn
	}

	if s < 0 {
		s = 0
	}
	if s > BaseScore {
		s = BaseScore
	}
	r.Score = s
	r.Suitable = s > MinSuitableScore
	return r
}

// FindBestVehicles scores every vehicle, keeps the suitable ones and returns
// the top count sorted by score. Ties keep the original input order; auto
// assignment must stay deterministic for identical fleets.
func FindBestVehicles(vehicles []*model.Vehicle, inc *model.Incident, count int) []Rating {
	ratings := make([]Rating, 0, len(vehicles))
	for _, v := range vehicles {
		if r := Rate(v, inc); r.Suitable {
			ratings = append(ratings, r)
		}
	}
	sort.SliceStable(ratings, func(i, j int) bool { return ratings[i].Score > ratings[j].Score })
	if count >= 0 && len(ratings) > count {
		ratings = ratings[:count]
	}
	return ratings
}

// Recommendation wraps the best-vehicle selection with dispatcher-facing
// warnings about shortfalls and weak candidates.
type Recommendation struct {
	Ratings  []Rating
	Warnings []string
}

// Recommend returns auto-assignment recommendations for an incident.
func Recommend(vehicles []*model.Vehicle, inc *model.Incident) Recommendation {
	rec := Recommendation{Ratings: FindBestVehicles(vehicles, inc, inc.RequiredVehicles)}
	if len(rec.Ratings) < inc.RequiredVehicles {
		rec.Warnings = append(rec.Warnings,
			fmt.Sprintf("only %d of %d required vehicles available", len(rec.Ratings), inc.RequiredVehicles))
	}
	byID := make(map[string]*model.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
	}
	for _, r := range rec.Ratings {
		v := byID[r.VehicleID]
		if v == nil {
			continue
		}
		if r.Score < 50 {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("%s is a weak match (score %.0f)", v.CallSign, r.Score))
		}
		if v.FuelLevel < resources.FuelLowPct {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("%s is low on fuel (%.0f%%)", v.CallSign, v.FuelLevel))
		}
		if v.Fatigue > resources.FatigueHigh {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("%s crew is worn out (%.0f)", v.CallSign, v.Fatigue))
		}
	}
	return rec
}
