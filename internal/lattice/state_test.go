package lattice

import (
	"testing"

	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/detrand"
	"github.com/nvandessel/phasebridge/internal/precision"
)

func newTestState(t *testing.T, tapeSize int) *State {
	t.Helper()
	ctx := precision.NewContext(constants.DefaultPrecision)
	return New(ctx, detrand.NewSource(ctx), tapeSize)
}

func TestNew_Deterministic(t *testing.T) {
	a := newTestState(t, 3)
	b := newTestState(t, 3)

	for i := 0; i < constants.Dimensions; i++ {
		if a.Phases[i].Cmp(b.Phases[i]) != 0 {
			t.Errorf("phase %d differs between identically seeded states", i)
		}
		if a.Freqs[i].Cmp(b.Freqs[i]) != 0 {
			t.Errorf("freq %d differs between identically seeded states", i)
		}
		if a.Dimensions[i].Re.Cmp(b.Dimensions[i].Re) != 0 {
			t.Errorf("dimension %d differs between identically seeded states", i)
		}
	}
}

func TestNew_Invariants(t *testing.T) {
	s := newTestState(t, 5)
	ctx := s.Context()

	if s.Memory.TapeSize != 5 {
		t.Errorf("TapeSize = %d, want 5", s.Memory.TapeSize)
	}
	if s.Memory.EvolutionCount != 0 {
		t.Errorf("EvolutionCount = %d, want 0", s.Memory.EvolutionCount)
	}
	if s.Memory.Locked {
		t.Error("fresh state should be unlocked")
	}

	for i := 0; i < constants.Dimensions; i++ {
		if s.Phases[i].Sign() < 0 || s.Phases[i].Cmp(ctx.TwoPi()) >= 0 {
			t.Errorf("phase %d = %s, outside [0, 2*pi)", i, s.Phases[i].String())
		}
		if !s.PhaseVelocities[i].IsZero() {
			t.Errorf("phase velocity %d = %s, want 0", i, s.PhaseVelocities[i].String())
		}
		// Freqs are 1 + 0.5*[0,1) => [1, 1.5)
		if s.Freqs[i].Cmp(ctx.FromInt64(1)) < 0 || s.Freqs[i].Cmp(ctx.MustParse("1.5")) >= 0 {
			t.Errorf("freq %d = %s, outside [1, 1.5)", i, s.Freqs[i].String())
		}
	}
}

func TestNew_TapeSizeClamped(t *testing.T) {
	if got := newTestState(t, 99).Memory.TapeSize; got != constants.MaxTapeSize {
		t.Errorf("TapeSize = %d, want clamped to %d", got, constants.MaxTapeSize)
	}
	if got := newTestState(t, -1).Memory.TapeSize; got != 0 {
		t.Errorf("TapeSize = %d, want clamped to 0", got)
	}
}

func TestAdvanceEvolution_Monotonic(t *testing.T) {
	s := newTestState(t, 3)

	if err := s.AdvanceEvolution(10); err != nil {
		t.Fatalf("AdvanceEvolution(10): %v", err)
	}
	if err := s.AdvanceEvolution(10); err != nil {
		t.Fatalf("AdvanceEvolution to same count should succeed: %v", err)
	}
	if err := s.AdvanceEvolution(9); err == nil {
		t.Error("expected error on evolution count regression")
	}
	if s.Memory.EvolutionCount != 10 {
		t.Errorf("EvolutionCount = %d, want 10 after rejected regression", s.Memory.EvolutionCount)
	}
}

func TestLock_ZeroesVelocities(t *testing.T) {
	s := newTestState(t, 3)
	ctx := s.Context()

	for i := range s.PhaseVelocities {
		s.PhaseVelocities[i] = ctx.FromInt64(int64(i + 1))
	}
	s.Memory.ConsensusSteps = 50

	s.Lock()

	if !s.Memory.Locked {
		t.Fatal("state should be locked")
	}
	if s.Memory.ConsensusSteps != 0 {
		t.Errorf("ConsensusSteps = %d, want 0 after lock", s.Memory.ConsensusSteps)
	}
	for i, v := range s.PhaseVelocities {
		if !v.IsZero() {
			t.Errorf("phase velocity %d = %s, want 0 after lock", i, v.String())
		}
	}
}

func TestWrapPhases(t *testing.T) {
	s := newTestState(t, 3)
	ctx := s.Context()

	s.Phases[0] = ctx.FromInt64(100)
	s.Phases[1] = ctx.FromInt64(-3)
	s.WrapPhases()

	for i := 0; i < constants.Dimensions; i++ {
		if s.Phases[i].Sign() < 0 || s.Phases[i].Cmp(ctx.TwoPi()) >= 0 {
			t.Errorf("phase %d = %s, outside [0, 2*pi) after wrap", i, s.Phases[i].String())
		}
	}
}
