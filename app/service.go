// Package app wires configuration, state, subsystems and infrastructure
// into a runnable shift.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	apidispatch "github.com/kfranzke/leitstelle/api/dispatch"
	apivehicles "github.com/kfranzke/leitstelle/api/vehicles"
	"github.com/kfranzke/leitstelle/config"
	"github.com/kfranzke/leitstelle/core/dispatch"
	"github.com/kfranzke/leitstelle/core/dispatch/logging"
	"github.com/kfranzke/leitstelle/core/incident"
	coremetrics "github.com/kfranzke/leitstelle/core/metrics"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/core/patrol"
	"github.com/kfranzke/leitstelle/core/score"
	"github.com/kfranzke/leitstelle/core/sim"
	"github.com/kfranzke/leitstelle/core/vehiclestatus"
	"github.com/kfranzke/leitstelle/infra/logger"
	"github.com/kfranzke/leitstelle/infra/metrics"
	"github.com/kfranzke/leitstelle/infra/mqtt"
	"github.com/kfranzke/leitstelle/infra/routing"
	"github.com/kfranzke/leitstelle/internal/eventbus"
)

// Service owns a running shift: the shared state, the tick loop and the
// subsystems mutating it, plus the observability collaborators.
type Service struct {
	cfg       *config.Config
	stepper   *sim.Stepper
	orch      *dispatch.Orchestrator
	incidents *incident.Manager
	patrol    *patrol.Sim
	bus       eventbus.EventBus
	sink      coremetrics.MetricsSink
	mqttCli   *mqtt.PahoClient
	bridge    *mqtt.Bridge
	statuses  vehiclestatus.Store
	logStore  logging.LogStore
	log       logger.Logger
	start     time.Time
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.Configure(cfg.Logging.Level, cfg.Logging.Console)
	logg := logger.New("service")

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	router := routing.NewClient(cfg.Routing)

	start := time.Now()
	st := sim.NewState(start, cfg.GameSpeed, cfg.DifficultyFactor())
	st.Vehicles = cfg.World.BuildFleet()
	st.FuelStations = cfg.World.FuelStations

	mgr, err := incident.NewManager(cfg.Incident, logger.New("incidents"), bus, sink, rng)
	if err != nil {
		return nil, fmt.Errorf("incident manager: %w", err)
	}
	orch, err := dispatch.NewOrchestrator(cfg.Dispatch, router, logger.New("dispatch"), bus, sink, rng)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	pat, err := patrol.NewSim(cfg.Patrol, cfg.World.Areas, logger.New("patrol"), bus, rng)
	if err != nil {
		return nil, fmt.Errorf("patrol sim: %w", err)
	}
	weather := sim.NewWeatherSweep(logger.New("weather"), bus, rng, 60)

	statuses := vehiclestatus.NewMemoryStore()
	logStore := logging.NewMemoryStore()
	stepper := sim.NewStepper(st, logg, mgr, orch, pat, weather,
		vehiclestatus.NewSnapshot(statuses, 1), logging.NewRecorder(logStore, 1))

	svc := &Service{
		cfg:       cfg,
		stepper:   stepper,
		orch:      orch,
		incidents: mgr,
		patrol:    pat,
		bus:       bus,
		sink:      sink,
		statuses:  statuses,
		logStore:  logStore,
		log:       logg,
		start:     start,
	}
	if cfg.MQTT.Enabled {
		cli, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqttCli = cli
		svc.bridge = mqtt.NewBridge(cli, bus, cfg.MQTT.TopicPrefix)
	}
	return svc, nil
}

// State exposes the simulation state for rendering collaborators. Reads are
// only consistent between ticks.
func (s *Service) State() *sim.State { return s.stepper.State() }

// Vehicles returns the current fleet.
func (s *Service) Vehicles() []*model.Vehicle { return s.stepper.State().Vehicles }

// AcceptCall promotes a waiting call into an incident on the next tick.
func (s *Service) AcceptCall(callID string) {
	s.stepper.Do(func(st *sim.State) {
		if _, err := s.incidents.AcceptCall(st, callID); err != nil {
			s.log.Warnf("accept call %s: %v", callID, err)
		}
	})
}

// RejectCall declines a waiting call; it may escalate later.
func (s *Service) RejectCall(callID string) {
	s.stepper.Do(func(st *sim.State) {
		if err := s.incidents.RejectCall(st, callID); err != nil {
			s.log.Warnf("reject call %s: %v", callID, err)
		}
	})
}

// Assign dispatches a vehicle to an incident on the next tick.
func (s *Service) Assign(vehicleID, incidentID string) {
	s.stepper.Do(func(st *sim.State) {
		if err := s.orch.Assign(st, vehicleID, incidentID); err != nil {
			s.log.Warnf("assign %s to %s: %v", vehicleID, incidentID, err)
		}
	})
}

// ResumeSpeakRequest acknowledges a speak request and resumes the vehicle.
func (s *Service) ResumeSpeakRequest(vehicleID string) {
	s.stepper.Do(func(st *sim.State) {
		if err := s.orch.ResumeSpeakRequest(st, vehicleID); err != nil {
			s.log.Warnf("resume %s: %v", vehicleID, err)
		}
	})
}

// StartPatrol sends an available vehicle on free patrol in the named area.
func (s *Service) StartPatrol(vehicleID, areaName string) {
	s.stepper.Do(func(st *sim.State) {
		if err := s.patrol.Start(st, vehicleID, areaName); err != nil {
			s.log.Warnf("start patrol %s: %v", vehicleID, err)
		}
	})
}

// StopPatrol recalls a patrolling vehicle.
func (s *Service) StopPatrol(vehicleID string) {
	s.stepper.Do(func(st *sim.State) {
		if err := s.patrol.Stop(st, vehicleID); err != nil {
			s.log.Warnf("stop patrol %s: %v", vehicleID, err)
		}
	})
}

// Recommend rates the fleet against an incident for the assignment panel.
func (s *Service) Recommend(incidentID string) (score.Recommendation, error) {
	st := s.stepper.State()
	inc := st.Incident(incidentID)
	if inc == nil {
		return score.Recommendation{}, fmt.Errorf("unknown incident %s", incidentID)
	}
	return score.Recommend(st.Vehicles, inc), nil
}

// Run drives the tick loop and blocks until the context is cancelled or the
// shift time limit is reached. The end-of-shift summary is recorded on exit.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.ShiftHours > 0 {
		// The limit is expressed in sim hours, so wall time shrinks with
		// the game speed.
		wall := time.Duration(s.cfg.ShiftHours * 3600 / s.cfg.GameSpeed * float64(time.Second))
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wall)
		defer cancel()
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.bridge != nil {
		go s.bridge.Run(ctx)
	}
	if s.cfg.API.Enabled {
		go s.serveAPI(ctx)
	}
	tick := time.Duration(float64(time.Second) / s.cfg.TickHz)
	s.log.Infof("shift started: difficulty=%s speed=%.1fx fleet=%d",
		s.cfg.Difficulty, s.cfg.GameSpeed, len(s.stepper.State().Vehicles))
	s.stepper.Run(ctx, tick)
	s.recordShiftSummary()
	return nil
}

// serveAPI runs the read-only HTTP API until the context is canceled.
func (s *Service) serveAPI(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/api/vehicles/status", apivehicles.NewStatusHandler(s.statuses))
	mux.Handle("/api/dispatch/logs", apidispatch.NewLogHandler(s.logStore, s.cfg.API.Token))
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Errorf("api server: %v", err)
	}
}

func (s *Service) recordShiftSummary() {
	st := s.stepper.State()
	sum := coremetrics.ShiftSummary{
		CallsReceived:      st.Stats.CallsReceived,
		IncidentsCompleted: st.Stats.IncidentsCompleted,
		IncidentsFailed:    st.Stats.IncidentsFailed,
		Points:             st.Score,
		Streak:             st.Streak,
		DistanceKm:         st.Stats.DistanceKm,
		FuelBurnedPct:      st.Stats.FuelBurnedPct,
		Duration:           st.Clock.Sim.Sub(s.start),
	}
	if rec, ok := s.sink.(coremetrics.ShiftRecorder); ok {
		if err := rec.RecordShiftSummary(sum); err != nil {
			s.log.Errorf("record shift summary: %v", err)
		}
	}
	s.log.Infof("shift over: %d completed, %d failed, %d points, %.1f km driven",
		sum.IncidentsCompleted, sum.IncidentsFailed, sum.Points, sum.DistanceKm)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.mqttCli != nil {
		s.mqttCli.Disconnect()
	}
	if closer, ok := s.sink.(interface{ Close() }); ok {
		closer.Close()
	}
	s.bus.Close()
	return nil
}
