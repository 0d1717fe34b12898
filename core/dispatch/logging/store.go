// Package logging mirrors the dispatch log into a store readable outside
// the tick loop.
package logging

import (
	"sync"
	"time"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/sim"
)

// LogQuery filters a log read. Zero times disable the bound.
type LogQuery struct {
	Start time.Time
	End   time.Time
	Type  events.LogType
}

// LogStore holds a copy of the dispatch log.
type LogStore interface {
	Replace(entries []events.LogEntry)
	Query(q LogQuery) []events.LogEntry
}

// MemoryStore is a mutex-protected LogStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []events.LogEntry
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Replace(entries []events.LogEntry) {
	cp := make([]events.LogEntry, len(entries))
	copy(cp, entries)
	s.mu.Lock()
	s.entries = cp
	s.mu.Unlock()
}

func (s *MemoryStore) Query(q LogQuery) []events.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]events.LogEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !q.Start.IsZero() && e.SimTime.Before(q.Start) {
			continue
		}
		if !q.End.IsZero() && e.SimTime.After(q.End) {
			continue
		}
		if q.Type != "" && e.Type != q.Type {
			continue
		}
		res = append(res, e)
	}
	return res
}

// Recorder is a tick subsystem mirroring the state's log into a store.
type Recorder struct {
	store LogStore
	gate  sim.Interval
}

// NewRecorder creates a recorder publishing every interval seconds of wall
// time.
func NewRecorder(store LogStore, every float64) *Recorder {
	if every <= 0 {
		every = 1
	}
	return &Recorder{store: store, gate: sim.Interval{Every: every}}
}

func (r *Recorder) Name() string { return "logmirror" }

func (r *Recorder) Step(st *sim.State, realDt float64) {
	if !r.gate.Due(st.RealElapsedS) {
		return
	}
	r.store.Replace(st.Log)
}
