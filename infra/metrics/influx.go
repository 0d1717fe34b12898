package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kfranzke/leitstelle/core/metrics"
	"github.com/kfranzke/leitstelle/infra/logger"
)

// InfluxSink writes shift telemetry to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a missing telemetry backend never
// blocks a shift.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAssignment writes the assignment as a line protocol point.
func (s *InfluxSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("assignment").
		AddTag("vehicle_id", ev.VehicleID).
		AddTag("vehicle_type", string(ev.VehicleType)).
		AddTag("incident_type", string(ev.IncidentType)).
		AddField("score", ev.Score).
		SetTime(ev.SimTime)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordIncidentClosed writes the terminal incident event.
func (s *InfluxSink) RecordIncidentClosed(ev coremetrics.IncidentClosedEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("incident_closed").
		AddTag("incident_type", string(ev.Type)).
		AddTag("priority", ev.Priority.String()).
		AddTag("completed", strconv.FormatBool(ev.Completed)).
		AddField("points", ev.Points).
		AddField("vehicles", ev.Vehicles).
		AddField("duration_s", ev.DurationS).
		AddField("escalated", ev.Escalated).
		SetTime(ev.SimTime)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordShiftSummary writes the end-of-shift aggregate.
func (s *InfluxSink) RecordShiftSummary(sum coremetrics.ShiftSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("shift_summary").
		AddField("calls_received", sum.CallsReceived).
		AddField("incidents_completed", sum.IncidentsCompleted).
		AddField("incidents_failed", sum.IncidentsFailed).
		AddField("points", sum.Points).
		AddField("streak", sum.Streak).
		AddField("distance_km", sum.DistanceKm).
		AddField("fuel_burned_pct", sum.FuelBurnedPct).
		AddField("duration_s", sum.Duration.Seconds()).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts the underlying client down.
func (s *InfluxSink) Close() { s.client.Close() }
