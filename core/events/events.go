// Package events defines the discrete events the simulation emits on the
// event bus for presentation collaborators (map, panels, audio).
//
// Available event types:
//   - LogEntry: typed dispatch log line
//   - RadioMessage: vehicle status-change radio traffic
//   - WeatherChanged: weather drift notification
//   - Toast: user-visible refusal or warning
package events

import (
	"time"

	"github.com/kfranzke/leitstelle/core/fms"
	"github.com/kfranzke/leitstelle/core/model"
)

// LogType classifies dispatch log entries.
type LogType string

const (
	LogNewCall    LogType = "new_call"
	LogAssignment LogType = "assignment"
	LogArrival    LogType = "arrival"
	LogCompletion LogType = "completion"
	LogFailure    LogType = "failure"
	LogEscalation LogType = "escalation"
	LogSystem     LogType = "system"
)

// LogEntry is one line of the dispatch log.
type LogEntry struct {
	ID      string
	Type    LogType
	Message string
	SimTime time.Time
}

// RadioMessage is free-text radio traffic tied to a vehicle status change.
type RadioMessage struct {
	ID        string
	VehicleID string
	CallSign  string
	From      fms.Status
	To        fms.Status
	Text      string
	SimTime   time.Time
}

// WeatherChanged is published when the weather sweep drifts the condition.
type WeatherChanged struct {
	From model.Weather
	To   model.Weather
}

// Toast is a user-visible refusal or warning, e.g. a grounded helicopter.
type Toast struct {
	Message string
}
