// Package dispatch drives each vehicle from assignment through dispatch
// delay, route computation, transit, on-scene processing, speak requests and
// the return trip. It is the only writer of vehicle status; incident status
// is owned by the incident manager, which this package reads through the
// shared simulation state.
package dispatch
