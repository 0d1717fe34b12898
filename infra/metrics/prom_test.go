package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfranzke/leitstelle/core/fms"
	coremetrics "github.com/kfranzke/leitstelle/core/metrics"
	"github.com/kfranzke/leitstelle/core/model"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordAssignment(coremetrics.AssignmentEvent{
		VehicleType:  model.TypePatrolCar,
		IncidentType: model.IncidentTheft,
		SimTime:      time.Now(),
	}))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		sink.assignments.WithLabelValues("patrol_car", "theft")))

	require.NoError(t, sink.RecordIncidentClosed(coremetrics.IncidentClosedEvent{
		Type:      model.IncidentTheft,
		Priority:  model.PriorityMedium,
		Completed: true,
		DurationS: 300,
	}))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		sink.incidents.WithLabelValues("theft", "medium", "true")))

	require.NoError(t, sink.RecordFleetState(map[fms.Status]int{
		fms.StatusAtStation: 3,
		fms.StatusEnRoute:   1,
	}))
	assert.Equal(t, 3.0, testutil.ToFloat64(sink.fleet.WithLabelValues("at_station")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.fleet.WithLabelValues("en_route")))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	// Registering the same metrics again must be tolerated.
	_, err = NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	assert.NoError(t, err)
}
