package logging

import (
	"testing"
	"time"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/sim"
)

func entry(id string, t events.LogType, at time.Time) events.LogEntry {
	return events.LogEntry{ID: id, Type: t, Message: id, SimTime: at}
}

func TestMemoryStoreQuery(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.Replace([]events.LogEntry{
		entry("a", events.LogNewCall, base),
		entry("b", events.LogAssignment, base.Add(time.Minute)),
		entry("c", events.LogNewCall, base.Add(2*time.Minute)),
	})

	if got := s.Query(LogQuery{}); len(got) != 3 {
		t.Fatalf("unfiltered query returned %d", len(got))
	}
	if got := s.Query(LogQuery{Type: events.LogNewCall}); len(got) != 2 {
		t.Fatalf("type filter returned %d", len(got))
	}
	got := s.Query(LogQuery{Start: base.Add(30 * time.Second), End: base.Add(90 * time.Second)})
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("time window returned %+v", got)
	}
}

func TestReplaceCopies(t *testing.T) {
	s := NewMemoryStore()
	src := []events.LogEntry{entry("a", events.LogSystem, time.Now())}
	s.Replace(src)
	src[0].Message = "mutated"
	if got := s.Query(LogQuery{}); got[0].Message != "a" {
		t.Fatal("store must hold its own copy")
	}
}

func TestRecorderMirrorsLog(t *testing.T) {
	s := NewMemoryStore()
	rec := NewRecorder(s, 1)
	st := sim.NewState(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), 1, 1)
	st.AppendLog(events.LogSystem, "shift start")

	st.RealElapsedS = 0.5
	rec.Step(st, 0.5)
	if len(s.Query(LogQuery{})) != 0 {
		t.Fatal("gate must hold back the first publish")
	}

	st.RealElapsedS = 1
	rec.Step(st, 0.5)
	got := s.Query(LogQuery{})
	if len(got) != 1 || got[0].Message != "shift start" {
		t.Fatalf("mirror incomplete: %+v", got)
	}
}
