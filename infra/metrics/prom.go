package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kfranzke/leitstelle/core/fms"
	coremetrics "github.com/kfranzke/leitstelle/core/metrics"
)

// PromSink records simulation events in Prometheus metrics.
type PromSink struct {
	assignments *prometheus.CounterVec
	incidents   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	fleet       *prometheus.GaugeVec
}

// NewPromSink registers the simulation metrics on the default Prometheus
// registerer. The exposition server is started separately.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_assignments_total",
		Help: "Total number of vehicle assignments",
	}, []string{"vehicle_type", "incident_type"})
	incidents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "incidents_closed_total",
		Help: "Total number of incidents by outcome",
	}, []string{"incident_type", "priority", "completed"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "incident_duration_seconds",
		Help:    "Simulated time from spawn to terminal status",
		Buckets: []float64{60, 120, 240, 480, 960, 1920},
	}, []string{"incident_type", "completed"})
	fleet := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_vehicles",
		Help: "Number of vehicles per radio status",
	}, []string{"status"})

	for _, c := range []prometheus.Collector{assignments, incidents, duration, fleet} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return &PromSink{assignments: assignments, incidents: incidents, duration: duration, fleet: fleet}, nil
}

// RecordAssignment increments the assignment counter.
func (s *PromSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	s.assignments.WithLabelValues(string(ev.VehicleType), string(ev.IncidentType)).Inc()
	return nil
}

// RecordIncidentClosed counts the outcome and observes the duration.
func (s *PromSink) RecordIncidentClosed(ev coremetrics.IncidentClosedEvent) error {
	completed := strconv.FormatBool(ev.Completed)
	s.incidents.WithLabelValues(string(ev.Type), ev.Priority.String(), completed).Inc()
	s.duration.WithLabelValues(string(ev.Type), completed).Observe(ev.DurationS)
	return nil
}

// RecordFleetState updates the per-status gauges.
func (s *PromSink) RecordFleetState(byStatus map[fms.Status]int) error {
	for st, n := range byStatus {
		s.fleet.WithLabelValues(st.String()).Set(float64(n))
	}
	return nil
}
