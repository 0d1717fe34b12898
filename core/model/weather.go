package model

// Weather is the current simulated weather condition.
type Weather string

const (
	WeatherClear Weather = "clear"
	WeatherRain  Weather = "rain"
	WeatherFog   Weather = "fog"
	WeatherSnow  Weather = "snow"
	WeatherStorm Weather = "storm"
)

// WeatherEffects describes how a condition modulates the simulation: travel
// speed, incident-type frequency and which vehicle types may not be
// dispatched at all.
type WeatherEffects struct {
	SpeedFactor   float64
	CallRate      float64 // multiplier on the call generation rate
	TypeFrequency map[IncidentType]float64
	Grounded      map[VehicleType]bool
}

var weatherEffects = map[Weather]WeatherEffects{
	WeatherClear: {SpeedFactor: 1.0, CallRate: 1.0},
	WeatherRain: {
		SpeedFactor: 0.85, CallRate: 1.1,
		TypeFrequency: map[IncidentType]float64{IncidentTrafficAccident: 1.5},
	},
	WeatherFog: {
		SpeedFactor: 0.7, CallRate: 0.9,
		TypeFrequency: map[IncidentType]float64{IncidentTrafficAccident: 1.8},
		Grounded:      map[VehicleType]bool{TypeHelicopter: true},
	},
	WeatherSnow: {
		SpeedFactor: 0.6, CallRate: 0.8,
		TypeFrequency: map[IncidentType]float64{IncidentTrafficAccident: 2.0, IncidentTheft: 0.7},
		Grounded:      map[VehicleType]bool{TypeHelicopter: true, TypeMotorcycle: true},
	},
	WeatherStorm: {
		SpeedFactor: 0.7, CallRate: 1.2,
		TypeFrequency: map[IncidentType]float64{IncidentTrafficAccident: 1.6, IncidentVandalism: 1.3},
		Grounded:      map[VehicleType]bool{TypeHelicopter: true},
	},
}

// EffectsFor returns the modifiers for a weather condition. Unknown
// conditions behave like clear weather.
func EffectsFor(w Weather) WeatherEffects {
	if e, ok := weatherEffects[w]; ok {
		return e
	}
	return weatherEffects[WeatherClear]
}

// AllWeather lists the known conditions in drift order.
func AllWeather() []Weather {
	return []Weather{WeatherClear, WeatherRain, WeatherFog, WeatherSnow, WeatherStorm}
}

// FrequencyFor returns the per-type call frequency multiplier.
func (e WeatherEffects) FrequencyFor(t IncidentType) float64 {
	if f, ok := e.TypeFrequency[t]; ok {
		return f
	}
	return 1.0
}
