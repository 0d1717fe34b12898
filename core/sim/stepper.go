package sim

import (
	"context"
	"time"

	"github.com/kfranzke/leitstelle/core/logger"
)

// Subsystem is one update pass of the simulation. Step receives the elapsed
// wall time; simulated time is read from the state's clock. Subsystems run
// sequentially in registration order within a tick, which is the only
// concurrency model this engine has.
type Subsystem interface {
	Name() string
	Step(st *State, realDt float64)
}

// Interval gates a sweep to a fixed real-time period inside the tick loop.
type Interval struct {
	Every float64
	last  float64
}

// Due reports whether the sweep should run at the given elapsed time and
// advances the gate when it fires.
func (i *Interval) Due(realElapsed float64) bool {
	if realElapsed-i.last < i.Every {
		return false
	}
	i.last = realElapsed
	return true
}

const (
	maxLogEntries    = 500
	maxRadioMessages = 200
)

// Stepper advances the whole simulation. It is single-threaded by design;
// callers must not invoke Step concurrently.
type Stepper struct {
	st   *State
	subs []Subsystem
	log  logger.Logger
	trim Interval
	cmds chan func(*State)
}

// NewStepper creates a stepper over the given state.
func NewStepper(st *State, log logger.Logger, subs ...Subsystem) *Stepper {
	return &Stepper{
		st:   st,
		subs: subs,
		log:  log,
		trim: Interval{Every: 10},
		cmds: make(chan func(*State), 64),
	}
}

// Do queues an operator command to run inside the next tick, which is the
// only place state may be mutated. It reports false when the queue is full.
func (s *Stepper) Do(fn func(*State)) bool {
	select {
	case s.cmds <- fn:
		return true
	default:
		s.log.Warnf("command queue full, dropping command")
		return false
	}
}

// State exposes the simulation state for rendering collaborators.
func (s *Stepper) State() *State { return s.st }

// Step advances the simulation by realDt seconds of wall time.
func (s *Stepper) Step(realDt float64) {
	if realDt <= 0 {
		return
	}
	s.st.Clock.Advance(realDt)
	s.st.RealElapsedS += realDt
	for {
		select {
		case fn := <-s.cmds:
			fn(s.st)
			continue
		default:
		}
		break
	}
	for _, sub := range s.subs {
		sub.Step(s.st, realDt)
	}
	if s.trim.Due(s.st.RealElapsedS) {
		s.trimHistory()
	}
}

// trimHistory bounds the in-memory log and radio history.
func (s *Stepper) trimHistory() {
	if n := len(s.st.Log); n > maxLogEntries {
		s.st.Log = append(s.st.Log[:0:0], s.st.Log[n-maxLogEntries:]...)
	}
	if n := len(s.st.Radio); n > maxRadioMessages {
		s.st.Radio = append(s.st.Radio[:0:0], s.st.Radio[n-maxRadioMessages:]...)
	}
}

// Run drives the tick loop until the context is canceled.
func (s *Stepper) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Step(now.Sub(last).Seconds())
			last = now
		}
	}
}
