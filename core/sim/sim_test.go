package sim

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/infra/logger"
)

func TestClockAdvance(t *testing.T) {
	start := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	c := NewClock(start, 4)
	simDt := c.Advance(10)
	if simDt != 40 {
		t.Fatalf("10 real seconds at 4x should be 40 sim seconds, got %f", simDt)
	}
	if got := c.Sim.Sub(start); got != 40*time.Second {
		t.Fatalf("clock advanced by %v", got)
	}
	if c.SimDt(5) != 20 {
		t.Fatal("SimDt must convert without advancing")
	}
	if got := c.Sim.Sub(start); got != 40*time.Second {
		t.Fatal("SimDt must not advance the clock")
	}
}

func TestNewClockRejectsBadSpeed(t *testing.T) {
	c := NewClock(time.Now(), -2)
	if c.Speed != 1 {
		t.Fatalf("non-positive speed must default to 1, got %f", c.Speed)
	}
}

func TestIntervalDue(t *testing.T) {
	iv := Interval{Every: 5}
	if !iv.Due(5) {
		t.Fatal("first period elapsed, should fire")
	}
	if iv.Due(7) {
		t.Fatal("two seconds after firing, must not fire again")
	}
	if !iv.Due(10.5) {
		t.Fatal("next period elapsed, should fire")
	}
}

type noopSub struct{ calls int }

func (s *noopSub) Name() string         { return "noop" }
func (s *noopSub) Step(*State, float64) { s.calls++ }

func TestStepperRunsSubsystemsInOrder(t *testing.T) {
	st := NewState(time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC), 1, 1)
	var order []string
	mk := func(name string) Subsystem {
		return subFunc{name: name, fn: func(*State, float64) { order = append(order, name) }}
	}
	s := NewStepper(st, logger.NopLogger{}, mk("a"), mk("b"), mk("c"))
	s.Step(0.1)
	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Fatalf("registration order broken: %v", order)
	}
	if math.Abs(st.RealElapsedS-0.1) > 1e-9 {
		t.Fatalf("elapsed time not tracked: %f", st.RealElapsedS)
	}
}

type subFunc struct {
	name string
	fn   func(*State, float64)
}

func (s subFunc) Name() string               { return s.name }
func (s subFunc) Step(st *State, dt float64) { s.fn(st, dt) }

func TestStepperIgnoresNonPositiveDt(t *testing.T) {
	st := NewState(time.Now(), 1, 1)
	sub := &noopSub{}
	s := NewStepper(st, logger.NopLogger{}, sub)
	s.Step(0)
	s.Step(-1)
	if sub.calls != 0 {
		t.Fatal("non-positive deltas must be ignored")
	}
}

func TestStepperDoRunsInsideTick(t *testing.T) {
	st := NewState(time.Now(), 1, 1)
	s := NewStepper(st, logger.NopLogger{})
	ran := false
	if !s.Do(func(st *State) { ran = true; st.Score = 7 }) {
		t.Fatal("enqueue failed")
	}
	if ran {
		t.Fatal("command must not run before the tick")
	}
	s.Step(0.1)
	if !ran || st.Score != 7 {
		t.Fatal("command did not run inside the tick")
	}
}

func TestStepperDoQueueFull(t *testing.T) {
	st := NewState(time.Now(), 1, 1)
	s := NewStepper(st, logger.NopLogger{})
	for i := 0; i < 64; i++ {
		if !s.Do(func(*State) {}) {
			t.Fatalf("enqueue %d should fit", i)
		}
	}
	if s.Do(func(*State) {}) {
		t.Fatal("65th command must be dropped")
	}
}

func TestTrimHistory(t *testing.T) {
	st := NewState(time.Now(), 1, 1)
	s := NewStepper(st, logger.NopLogger{})
	for i := 0; i < 600; i++ {
		st.AppendLog(events.LogSystem, fmt.Sprintf("entry %d", i))
	}
	for i := 0; i < 250; i++ {
		st.AppendRadio(events.RadioMessage{Text: fmt.Sprintf("radio %d", i)})
	}
	s.trimHistory()
	if len(st.Log) != maxLogEntries {
		t.Fatalf("log trimmed to %d, want %d", len(st.Log), maxLogEntries)
	}
	if st.Log[len(st.Log)-1].Message != "entry 599" {
		t.Fatal("trim must keep the newest entries")
	}
	if len(st.Radio) != maxRadioMessages {
		t.Fatalf("radio trimmed to %d, want %d", len(st.Radio), maxRadioMessages)
	}
}

func TestStateLookups(t *testing.T) {
	st := NewState(time.Now(), 1, 1)
	st.Vehicles = append(st.Vehicles, &model.Vehicle{ID: "v-01"})
	st.Incidents = append(st.Incidents, &model.Incident{ID: "inc-1"})
	st.Calls = append(st.Calls, &model.Call{ID: "c-1"})

	if st.Vehicle("v-01") == nil || st.Vehicle("v-99") != nil {
		t.Fatal("vehicle lookup broken")
	}
	if st.Incident("inc-1") == nil || st.Incident("nope") != nil {
		t.Fatal("incident lookup broken")
	}
	if st.Call("c-1") == nil {
		t.Fatal("call lookup broken")
	}
	st.RemoveCall("c-1")
	if st.Call("c-1") != nil {
		t.Fatal("call not removed")
	}
}

func TestNearestFuelStation(t *testing.T) {
	home := model.Position{Lat: 50.9375, Lon: 6.9603}
	st := NewState(time.Now(), 1, 1)
	if got := st.NearestFuelStation(home, home); got != home {
		t.Fatal("no stations configured: home doubles as fuel point")
	}
	near := home.Offset(1, 0)
	far := home.Offset(5, 0)
	st.FuelStations = []model.Position{far, near}
	if got := st.NearestFuelStation(home, home); got != near {
		t.Fatalf("expected the closer station, got %+v", got)
	}
}

func TestFleetByStatus(t *testing.T) {
	st := NewState(time.Now(), 1, 1)
	st.Vehicles = []*model.Vehicle{
		{ID: "a", Status: 2}, {ID: "b", Status: 2}, {ID: "c", Status: 3},
	}
	counts := st.FleetByStatus()
	if counts[2] != 2 || counts[3] != 1 {
		t.Fatalf("wrong counts: %v", counts)
	}
}
