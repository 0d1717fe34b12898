package model

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	cologne := Position{Lat: 50.9375, Lon: 6.9603}
	duesseldorf := Position{Lat: 51.2277, Lon: 6.7735}
	d := cologne.DistanceKm(duesseldorf)
	if d < 33 || d > 36 {
		t.Fatalf("Cologne-Duesseldorf should be about 34.5 km, got %f", d)
	}
	if cologne.DistanceKm(cologne) != 0 {
		t.Fatal("distance to self must be zero")
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	p := Position{Lat: 50.9375, Lon: 6.9603}
	for _, bearing := range []float64{0, 45, 90, 135, 180, 270} {
		q := p.Offset(2.5, bearing)
		d := p.DistanceKm(q)
		if math.Abs(d-2.5) > 0.01 {
			t.Errorf("offset 2.5 km at %f deg came back as %f km", bearing, d)
		}
	}
}

func TestLerpClamps(t *testing.T) {
	a := Position{Lat: 0, Lon: 0}
	b := Position{Lat: 10, Lon: 10}
	if got := Lerp(a, b, -1); got != a {
		t.Errorf("t<0 must clamp to a, got %+v", got)
	}
	if got := Lerp(a, b, 2); got != b {
		t.Errorf("t>1 must clamp to b, got %+v", got)
	}
	mid := Lerp(a, b, 0.5)
	if mid.Lat != 5 || mid.Lon != 5 {
		t.Errorf("midpoint wrong: %+v", mid)
	}
}

func TestPathLengthKm(t *testing.T) {
	p := Position{Lat: 50.9375, Lon: 6.9603}
	path := []Position{p, p.Offset(1, 90), p.Offset(1, 90).Offset(1, 90)}
	total := PathLengthKm(path)
	if math.Abs(total-2) > 0.01 {
		t.Fatalf("expected about 2 km, got %f", total)
	}
	if PathLengthKm(nil) != 0 || PathLengthKm(path[:1]) != 0 {
		t.Fatal("degenerate paths have zero length")
	}
}

func TestPointAlong(t *testing.T) {
	p := Position{Lat: 50.9375, Lon: 6.9603}
	end := p.Offset(4, 90)
	path := []Position{p, end}

	if got := PointAlong(path, 0); got != p {
		t.Errorf("t=0 must return the start, got %+v", got)
	}
	if got := PointAlong(path, 1); got != end {
		t.Errorf("t=1 must return the end, got %+v", got)
	}
	mid := PointAlong(path, 0.5)
	if d := p.DistanceKm(mid); math.Abs(d-2) > 0.05 {
		t.Errorf("halfway point should be 2 km out, got %f", d)
	}
	if got := PointAlong(nil, 0.5); got != (Position{}) {
		t.Errorf("empty path yields the zero position, got %+v", got)
	}
	if got := PointAlong(path, 2); got != end {
		t.Errorf("t>1 clamps to the end, got %+v", got)
	}
}

func TestPointAlongMultiLeg(t *testing.T) {
	p := Position{Lat: 50.9375, Lon: 6.9603}
	a := p.Offset(1, 0)
	b := a.Offset(3, 0)
	path := []Position{p, a, b}
	// A quarter of 4 km lands on the first leg.
	q := PointAlong(path, 0.25)
	if d := p.DistanceKm(q); math.Abs(d-1) > 0.05 {
		t.Errorf("expected 1 km from start, got %f", d)
	}
}
