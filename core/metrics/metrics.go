// Package metrics defines the sink interfaces the simulation records
// observability events to. Sinks like PromSink and InfluxSink live in
// infra/metrics and can be combined with a MultiSink.
package metrics

import (
	"time"

	"github.com/kfranzke/leitstelle/core/fms"
	"github.com/kfranzke/leitstelle/core/model"
)

// AssignmentEvent is recorded when a vehicle is bound to an incident.
type AssignmentEvent struct {
	IncidentID   string
	IncidentType model.IncidentType
	VehicleID    string
	VehicleType  model.VehicleType
	Score        float64
	SimTime      time.Time
}

// IncidentClosedEvent is recorded once per incident on completion or failure.
type IncidentClosedEvent struct {
	IncidentID string
	Type       model.IncidentType
	Priority   model.Priority
	Completed  bool
	Escalated  bool
	Points     int
	Vehicles   int
	DurationS  float64
	SimTime    time.Time
}

// TransitionEvent is a vehicle status change.
type TransitionEvent struct {
	VehicleID string
	From      fms.Status
	To        fms.Status
	SimTime   time.Time
}

// ShiftSummary aggregates a whole shift for end-of-shift reporting.
type ShiftSummary struct {
	CallsReceived      int
	IncidentsCompleted int
	IncidentsFailed    int
	Points             int
	Streak             int
	DistanceKm         float64
	FuelBurnedPct      float64
	Duration           time.Duration
}

// MetricsSink records simulation events for observability purposes.
type MetricsSink interface {
	RecordAssignment(ev AssignmentEvent) error
	RecordIncidentClosed(ev IncidentClosedEvent) error
}

// TransitionRecorder records vehicle status transitions.
type TransitionRecorder interface {
	RecordTransition(ev TransitionEvent) error
}

// FleetRecorder records the current fleet composition by status.
type FleetRecorder interface {
	RecordFleetState(byStatus map[fms.Status]int) error
}

// ShiftRecorder records the end-of-shift summary.
type ShiftRecorder interface {
	RecordShiftSummary(s ShiftSummary) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordAssignment(AssignmentEvent) error         { return nil }
func (NopSink) RecordIncidentClosed(IncidentClosedEvent) error { return nil }

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
