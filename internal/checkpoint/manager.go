// Package checkpoint manages the pruned, weighted history of state
// snapshots. Snapshot metadata lives in memory; the serialized states live
// in a content-addressed blob store.
package checkpoint

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/detrand"
	"github.com/nvandessel/phasebridge/internal/lattice"
	"github.com/nvandessel/phasebridge/internal/precision"
	"github.com/nvandessel/phasebridge/internal/store"
)

// Snapshot is the in-memory record of one persisted checkpoint.
type Snapshot struct {
	Evo           uint64  `json:"evo"`
	ContentID     string  `json:"cid"`
	TimestampNS   int64   `json:"timestamp_ns"`
	PhaseVariance float64 `json:"phase_var"`
	Weight        float64 `json:"weight"`
}

// Manager keeps at most SnapshotMax snapshots with geometric weight decay:
// every Add evicts the lowest-weight snapshot when full, then decays all
// pre-existing weights, so recent checkpoints dominate but a thinning trail
// of older ones survives.
type Manager struct {
	mu        sync.Mutex
	snapshots []Snapshot

	blobs  store.BlobStore
	pctx   *precision.Context
	src    *detrand.Source
	logger *slog.Logger

	nowNS func() int64
}

// NewManager creates a checkpoint manager writing to blobs.
func NewManager(blobs store.BlobStore, pctx *precision.Context, src *detrand.Source, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		blobs:  blobs,
		pctx:   pctx,
		src:    src,
		logger: logger,
		nowNS:  func() int64 { return time.Now().UnixNano() },
	}
}

// Add records a snapshot with weight 1.0, evicting the lowest-weight entry
// when at capacity and decaying every older weight.
func (m *Manager) Add(evo uint64, cid string, phaseVariance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.snapshots) >= constants.SnapshotMax {
		minIdx := 0
		for i, s := range m.snapshots {
			if s.Weight < m.snapshots[minIdx].Weight {
				minIdx = i
			}
		}
		removed := m.snapshots[minIdx]
		m.snapshots = append(m.snapshots[:minIdx], m.snapshots[minIdx+1:]...)
		m.logger.Info("pruned checkpoint",
			"evo", removed.Evo,
			"weight", removed.Weight)
	}

	m.snapshots = append(m.snapshots, Snapshot{
		Evo:           evo,
		ContentID:     cid,
		TimestampNS:   m.nowNS(),
		PhaseVariance: phaseVariance,
		Weight:        1.0,
	})
	for i := range m.snapshots[:len(m.snapshots)-1] {
		m.snapshots[i].Weight *= constants.SnapshotDecay
	}

	m.logger.Info("saved checkpoint",
		"evo", evo,
		"total", len(m.snapshots),
		"phase_var", phaseVariance)
}

// Latest returns the highest-weight snapshot.
func (m *Manager) Latest() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.snapshots) == 0 {
		return Snapshot{}, false
	}
	best := m.snapshots[0]
	for _, s := range m.snapshots[1:] {
		if s.Weight > best.Weight {
			best = s
		}
	}
	return best, true
}

// Snapshots returns a copy of the current snapshot list.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, len(m.snapshots))
	copy(out, m.snapshots)
	return out
}

// Persist serializes the state and writes it to the blob store, returning
// the content id. Store failures degrade to a synthetic local id so the
// evolution loop never blocks on storage.
func (m *Manager) Persist(ctx context.Context, s *lattice.State, evo uint64, seed int64) string {
	now := m.nowNS()

	data, err := s.Marshal(seed, now)
	if err != nil {
		m.logger.Warn("checkpoint serialization failed", "evo", evo, "error", err)
		return fmt.Sprintf("local_%d_%d", evo, now)
	}

	cid, err := m.blobs.Put(ctx, data)
	if err != nil {
		m.logger.Warn("checkpoint store failed", "evo", evo, "error", err)
		return fmt.Sprintf("local_%d_%d", evo, now)
	}
	if err := m.blobs.Pin(ctx, cid); err != nil {
		m.logger.Warn("checkpoint pin failed", "cid", cid, "error", err)
	}
	return cid
}

// Fetch loads and decodes the state for cid. Any failure falls back to a
// fresh seeded state so a corrupt or missing checkpoint degrades to
// recomputation instead of a crash.
func (m *Manager) Fetch(ctx context.Context, cid string, tapeSize int) *lattice.State {
	data, err := m.blobs.Get(ctx, cid)
	if err != nil {
		m.logger.Warn("checkpoint fetch failed, starting fresh", "cid", cid, "error", err)
		return lattice.New(m.pctx, m.src, tapeSize)
	}
	s, err := lattice.Unmarshal(m.pctx, data)
	if err != nil {
		m.logger.Warn("checkpoint decode failed, starting fresh", "cid", cid, "error", err)
		return lattice.New(m.pctx, m.src, tapeSize)
	}
	return s
}
