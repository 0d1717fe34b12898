package model

// Area is a named district calls and patrols are placed in.
type Area struct {
	Name     string   `json:"name"`
	Center   Position `json:"center"`
	RadiusKm float64  `json:"radius_km"`
}
