package engine

import (
	"sync"
	"time"

	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/lattice"
)

// Status is the externally visible snapshot of the bridge: coarse float64
// views of the engine state, safe to serve without touching the live
// arbitrary-precision state.
type Status struct {
	EvolutionCount  uint64  `json:"evolution_count"`
	PhaseVariance   float64 `json:"phase_variance"`
	ConsensusStatus string  `json:"consensus_status"`
	LastUpdate      int64   `json:"last_update_ns"`
}

// HistoryPoint is one sample of the phase variance time series.
type HistoryPoint struct {
	TimeNS    int64   `json:"time_ns"`
	Variance  float64 `json:"variance"`
	Evolution uint64  `json:"evolution"`
}

// Feed publishes engine status to readers (the HTTP API) without letting
// them block or observe the evolution loop mid-step. Writers swap in a new
// snapshot; readers get copies.
type Feed struct {
	mu      sync.RWMutex
	status  Status
	history []HistoryPoint

	nowNS func() int64
}

// NewFeed creates an empty status feed.
func NewFeed() *Feed {
	return &Feed{
		nowNS: func() int64 { return time.Now().UnixNano() },
	}
}

// Publish records the state of the lattice after an evolution step.
func (f *Feed) Publish(s *lattice.State, evo uint64) {
	variance := s.Context().Float64(s.Memory.PhaseVariance)
	consensus := "Unlocked"
	if s.Memory.Locked {
		consensus = "Locked"
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.nowNS()
	f.status = Status{
		EvolutionCount:  evo,
		PhaseVariance:   variance,
		ConsensusStatus: consensus,
		LastUpdate:      now,
	}
	// Replays re-publish evolutions the history already covers; keep the
	// series monotonic in evolution count.
	if n := len(f.history); n == 0 || evo > f.history[n-1].Evolution {
		f.history = append(f.history, HistoryPoint{
			TimeNS:    now,
			Variance:  variance,
			Evolution: evo,
		})
		if len(f.history) > constants.StatusHistoryMax {
			f.history = f.history[1:]
		}
	}
}

// Status returns the latest published snapshot.
func (f *Feed) Status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

// History returns a copy of the retained phase variance series.
func (f *Feed) History() []HistoryPoint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]HistoryPoint, len(f.history))
	copy(out, f.history)
	return out
}
