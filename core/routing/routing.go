// Package routing defines the external routing collaborator and the
// straight-line fallback the simulation uses when the router fails. Route
// lookups are asynchronous; the tick loop polls a Future instead of blocking.
package routing

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kfranzke/leitstelle/core/model"
)

// Mode selects the travel profile for a route request.
type Mode string

const (
	ModeDriving Mode = "driving"
	ModeFlying  Mode = "flying"
)

// Route is an ordered waypoint path with an estimated travel duration.
type Route struct {
	Path      []model.Position
	DurationS float64
}

// Router computes a path between two positions. Implementations may call a
// remote service and must tolerate frequent invocation; failures are
// recovered by the caller with a straight-line fallback, never retried.
type Router interface {
	Route(ctx context.Context, origin, dest model.Position, mode Mode) (Route, error)
}

// StraightLine returns a direct two-point route with a duration derived from
// great-circle distance and the given cruise speed. It is the universal
// fallback and always yields a valid route.
func StraightLine(origin, dest model.Position, speedKmh float64) Route {
	if speedKmh <= 0 {
		speedKmh = 50
	}
	dist := origin.DistanceKm(dest)
	return Route{
		Path:      []model.Position{origin, dest},
		DurationS: dist / speedKmh * 3600,
	}
}

// Future is a pending route lookup keyed by vehicle. The tick loop checks
// Done before advancing the vehicle, so a slow router never double-advances
// a leg.
type Future struct {
	VehicleID string
	Seq       uint64

	done  atomic.Bool
	route Route
}

// Done reports whether the lookup has resolved.
func (f *Future) Done() bool { return f.done.Load() }

// Route returns the resolved route. Only valid after Done reports true.
func (f *Future) Route() Route { return f.route }

// Lookup starts an asynchronous route request. On router failure the future
// resolves to the straight-line fallback, so it always yields a usable
// route. fallbackSpeed is the cruise speed for the fallback estimate.
func Lookup(r Router, vehicleID string, seq uint64, origin, dest model.Position, mode Mode, fallbackSpeed float64) *Future {
	f := &Future{VehicleID: vehicleID, Seq: seq}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		route, err := r.Route(ctx, origin, dest, mode)
		if err != nil || len(route.Path) < 2 || route.DurationS <= 0 {
			route = StraightLine(origin, dest, fallbackSpeed)
		}
		f.route = route
		f.done.Store(true)
	}()
	return f
}

// Resolved returns an already-completed future. Used when routing is
// configured synchronous, which keeps tests deterministic.
func Resolved(vehicleID string, seq uint64, route Route) *Future {
	f := &Future{VehicleID: vehicleID, Seq: seq, route: route}
	f.done.Store(true)
	return f
}

// Resolve runs the lookup synchronously with the same fallback semantics.
func Resolve(r Router, origin, dest model.Position, mode Mode, fallbackSpeed float64) Route {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	route, err := r.Route(ctx, origin, dest, mode)
	if err != nil || len(route.Path) < 2 || route.DurationS <= 0 {
		return StraightLine(origin, dest, fallbackSpeed)
	}
	return route
}
