package metrics

import (
	"github.com/kfranzke/leitstelle/core/fms"
	coremetrics "github.com/kfranzke/leitstelle/core/metrics"
)

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignment forwards the event to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignment(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordIncidentClosed forwards the event to all sinks.
func (m *MultiSink) RecordIncidentClosed(ev coremetrics.IncidentClosedEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordIncidentClosed(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordTransition forwards status transitions to sinks that support them.
func (m *MultiSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.TransitionRecorder); ok {
			if err := rec.RecordTransition(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFleetState forwards fleet gauges to sinks that support them.
func (m *MultiSink) RecordFleetState(byStatus map[fms.Status]int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.FleetRecorder); ok {
			if err := rec.RecordFleetState(byStatus); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordShiftSummary forwards the summary to sinks that support it.
func (m *MultiSink) RecordShiftSummary(sum coremetrics.ShiftSummary) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.ShiftRecorder); ok {
			if err := rec.RecordShiftSummary(sum); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases resources held by closable sinks.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
