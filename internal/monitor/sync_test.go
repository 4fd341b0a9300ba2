package monitor

import (
	"testing"

	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/detrand"
	"github.com/nvandessel/phasebridge/internal/lattice"
	"github.com/nvandessel/phasebridge/internal/precision"
)

func newSyncState(t *testing.T) *lattice.State {
	t.Helper()
	ctx := precision.NewContext(constants.DefaultPrecision)
	return lattice.New(ctx, detrand.NewSource(ctx), 3)
}

func TestSync_SkipsWithinInterval(t *testing.T) {
	s := newSyncState(t)
	y := NewSynchronizer(discardLogger())

	// First call at t=2s audits; second call 1 ms later must not.
	if !y.Sync(s, 2*constants.SyncIntervalNS) {
		t.Fatal("healthy state failed audit")
	}

	// Corrupt the state; the skipped audit should not notice.
	s.Phases[0] = s.Context().FromInt64(1000)
	if !y.Sync(s, 2*constants.SyncIntervalNS+1_000_000) {
		t.Error("audit ran inside the sync interval")
	}
}

func TestSync_HealthyStatePasses(t *testing.T) {
	s := newSyncState(t)
	y := NewSynchronizer(discardLogger())

	if !y.Sync(s, constants.SyncIntervalNS) {
		t.Error("fresh state failed consistency audit")
	}
}

func TestSync_UnwrappedPhaseFlagged(t *testing.T) {
	s := newSyncState(t)
	y := NewSynchronizer(discardLogger())

	s.Phases[2] = s.Context().FromInt64(100)

	if y.Sync(s, constants.SyncIntervalNS) {
		t.Error("unwrapped phase passed consistency audit")
	}
}

func TestSync_ExtremeAmplitudeFlagged(t *testing.T) {
	s := newSyncState(t)
	ctx := s.Context()
	y := NewSynchronizer(discardLogger())

	s.Dimensions[4] = ctx.NewComplex(ctx.MustParse("1e11"), ctx.Zero())

	if y.Sync(s, constants.SyncIntervalNS) {
		t.Error("extreme amplitude passed consistency audit")
	}
}

func TestSync_EvolutionRegressionFlagged(t *testing.T) {
	s := newSyncState(t)
	y := NewSynchronizer(discardLogger())

	s.Memory.EvolutionCount = 100
	if !y.Sync(s, constants.SyncIntervalNS) {
		t.Fatal("first audit failed")
	}

	s.Memory.EvolutionCount = 50
	if y.Sync(s, 2*constants.SyncIntervalNS) {
		t.Error("evolution count regression passed consistency audit")
	}
}

func TestFingerprint_TracksState(t *testing.T) {
	s := newSyncState(t)
	ctx := s.Context()
	y := NewSynchronizer(discardLogger())

	a := y.Fingerprint(s)
	if a == "" {
		t.Fatal("empty fingerprint")
	}
	if y.Fingerprint(s) != a {
		t.Error("fingerprint not stable for unchanged state")
	}

	s.Phases[0] = ctx.Mod2Pi(ctx.Add(s.Phases[0], ctx.MustParse("0.1")))
	if y.Fingerprint(s) == a {
		t.Error("fingerprint unchanged after state mutation")
	}
}
