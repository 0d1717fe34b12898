package model

import "math"

const earthRadiusKm = 6371.0

// Position is a WGS84 coordinate in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceKm returns the great-circle distance to another position.
func (p Position) DistanceKm(o Position) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := o.Lat * math.Pi / 180
	dLat := (o.Lat - p.Lat) * math.Pi / 180
	dLon := (o.Lon - p.Lon) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Offset returns the position reached by travelling distKm on the given
// bearing (degrees, clockwise from north). Accurate enough for the short
// offsets used for parking slots and patrol waypoints.
func (p Position) Offset(distKm, bearingDeg float64) Position {
	b := bearingDeg * math.Pi / 180
	dLat := distKm * math.Cos(b) / earthRadiusKm * 180 / math.Pi
	dLon := distKm * math.Sin(b) / (earthRadiusKm * math.Cos(p.Lat*math.Pi/180)) * 180 / math.Pi
	return Position{Lat: p.Lat + dLat, Lon: p.Lon + dLon}
}

// Lerp interpolates between two positions with t in [0,1].
func Lerp(a, b Position, t float64) Position {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return Position{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lon: a.Lon + (b.Lon-a.Lon)*t,
	}
}

// PathLengthKm sums the leg distances of an ordered waypoint sequence.
func PathLengthKm(path []Position) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += path[i-1].DistanceKm(path[i])
	}
	return total
}

// PointAlong returns the position at fraction t of the path's total length.
func PointAlong(path []Position, t float64) Position {
	if len(path) == 0 {
		return Position{}
	}
	if len(path) == 1 || t <= 0 {
		return path[0]
	}
	if t >= 1 {
		return path[len(path)-1]
	}
	total := PathLengthKm(path)
	if total == 0 {
		return path[0]
	}
	target := total * t
	var walked float64
	for i := 1; i < len(path); i++ {
		leg := path[i-1].DistanceKm(path[i])
		if walked+leg >= target {
			if leg == 0 {
				return path[i]
			}
			return Lerp(path[i-1], path[i], (target-walked)/leg)
		}
		walked += leg
	}
	return path[len(path)-1]
}
