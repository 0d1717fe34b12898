package model

// VehicleType identifies a class of dispatchable unit.
type VehicleType string

const (
	TypePatrolCar   VehicleType = "patrol_car"   // Streifenwagen
	TypeUnmarkedCar VehicleType = "unmarked_car" // Zivilstreife
	TypeSquadVan    VehicleType = "squad_van"    // Gruppenkraftwagen
	TypeMotorcycle  VehicleType = "motorcycle"   // Krad
	TypeDogUnit     VehicleType = "dog_unit"     // Diensthundführer
	TypeHelicopter  VehicleType = "helicopter"   // Polizeihubschrauber
)

// IncidentType classifies a call or incident.
type IncidentType string

const (
	IncidentTheft           IncidentType = "theft"
	IncidentBurglary        IncidentType = "burglary"
	IncidentDisturbance     IncidentType = "disturbance"
	IncidentVandalism       IncidentType = "vandalism"
	IncidentAssault         IncidentType = "assault"
	IncidentTrafficAccident IncidentType = "traffic_accident"
	IncidentPursuit         IncidentType = "pursuit"
	IncidentMassCasualty    IncidentType = "mass_casualty"
)

// Priority ranks how urgent an incident is.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}
	return "unknown"
}

// VehicleSpec holds the static per-type parameters used by the resource
// model, the scorer and the dispatch orchestrator.
type VehicleSpec struct {
	LitersPerKm          float64 // ground vehicles
	LitersPerHour        float64 // aircraft
	TankLiters           float64
	CrewSize             int
	SpeedKmh             float64
	DispatchDelaySeconds float64
	Airborne             bool
	SuitableFor          map[IncidentType]bool
}

var vehicleSpecs = map[VehicleType]VehicleSpec{
	TypePatrolCar: {
		LitersPerKm: 0.12, TankLiters: 60, CrewSize: 2, SpeedKmh: 60,
		DispatchDelaySeconds: 8,
		SuitableFor: typeSet(IncidentTheft, IncidentBurglary, IncidentDisturbance,
			IncidentVandalism, IncidentAssault, IncidentTrafficAccident, IncidentPursuit),
	},
	TypeUnmarkedCar: {
		LitersPerKm: 0.10, TankLiters: 55, CrewSize: 2, SpeedKmh: 65,
		DispatchDelaySeconds: 10,
		SuitableFor:          typeSet(IncidentTheft, IncidentBurglary, IncidentDisturbance, IncidentPursuit),
	},
	TypeSquadVan: {
		LitersPerKm: 0.18, TankLiters: 80, CrewSize: 6, SpeedKmh: 55,
		DispatchDelaySeconds: 15,
		SuitableFor: typeSet(IncidentDisturbance, IncidentAssault,
			IncidentTrafficAccident, IncidentMassCasualty),
	},
	TypeMotorcycle: {
		LitersPerKm: 0.05, TankLiters: 20, CrewSize: 1, SpeedKmh: 70,
		DispatchDelaySeconds: 6,
		SuitableFor:          typeSet(IncidentTrafficAccident, IncidentPursuit, IncidentDisturbance),
	},
	TypeDogUnit: {
		LitersPerKm: 0.11, TankLiters: 60, CrewSize: 1, SpeedKmh: 60,
		DispatchDelaySeconds: 12,
		SuitableFor:          typeSet(IncidentBurglary, IncidentPursuit, IncidentAssault),
	},
	TypeHelicopter: {
		LitersPerHour: 180, TankLiters: 420, CrewSize: 3, SpeedKmh: 220,
		DispatchDelaySeconds: 90, Airborne: true,
		SuitableFor: typeSet(IncidentPursuit, IncidentMassCasualty),
	},
}

func typeSet(types ...IncidentType) map[IncidentType]bool {
	m := make(map[IncidentType]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

// SpecFor returns the static parameters for a vehicle type. Unknown types
// fall back to the patrol car spec so a misconfigured roster stays usable.
func SpecFor(t VehicleType) VehicleSpec {
	if s, ok := vehicleSpecs[t]; ok {
		return s
	}
	return vehicleSpecs[TypePatrolCar]
}

// VehicleTypes lists all known types in a stable order.
func VehicleTypes() []VehicleType {
	return []VehicleType{TypePatrolCar, TypeUnmarkedCar, TypeSquadVan,
		TypeMotorcycle, TypeDogUnit, TypeHelicopter}
}
