// Package lattice defines the oscillator state: eight coupled complex-valued
// dimensions with phases, natural frequencies, and bookkeeping memory. The
// integrator and consensus detector mutate a State in place; the checkpoint
// manager serializes it for content-addressed persistence.
package lattice

import (
	"fmt"

	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/detrand"
	"github.com/nvandessel/phasebridge/internal/precision"
)

// Memory is the fixed-field bookkeeping attached to a State.
type Memory struct {
	// TapeSize is the number of payload tape cells folded into dimension 7.
	// Always in [0, constants.MaxTapeSize].
	TapeSize int

	// EvolutionCount is the number of completed integration steps. It never
	// decreases over the lifetime of a State.
	EvolutionCount uint64

	// ConsensusSteps counts consecutive detector invocations with phase
	// variance below the consensus epsilon.
	ConsensusSteps int

	// PhaseVariance is the circular phase variance from the last detector
	// run. A fresh state reports constants.InitialPhaseVariance.
	PhaseVariance precision.Real

	// Locked marks a state that reached consensus. A locked state is
	// excluded from integration; there is no unlock transition.
	Locked bool
}

// State is the unit of simulation: 8 complex dimensions plus phase dynamics.
type State struct {
	ctx *precision.Context

	// Dimensions are the complex amplitudes. Dimension 7 doubles as the
	// self-referential payload channel (see tape.go).
	Dimensions [constants.Dimensions]precision.Complex

	// Phases are always held in [0, 2*pi).
	Phases [constants.Dimensions]precision.Real

	// Freqs are the natural frequencies, fixed at initialization.
	Freqs [constants.Dimensions]precision.Real

	// PhaseVelocities are zeroed when the state locks.
	PhaseVelocities [constants.Dimensions]precision.Real

	Memory Memory

	// Payload is the opaque program/tape channel. The engine carries it
	// through serialization untouched; only the tape fold reads it.
	Payload map[string]string
}

// New creates a freshly seeded state. Dimension i starts at (i+1) + 0.1i;
// frequencies and phases are derived deterministically from the fixed seed
// bases so every process builds an identical lattice. The default tape is
// folded into dimension 7.
func New(ctx *precision.Context, src *detrand.Source, tapeSize int) *State {
	if tapeSize < 0 {
		tapeSize = 0
	}
	if tapeSize > constants.MaxTapeSize {
		tapeSize = constants.MaxTapeSize
	}

	s := &State{
		ctx: ctx,
		Memory: Memory{
			TapeSize:      tapeSize,
			PhaseVariance: ctx.MustParse(constants.InitialPhaseVariance),
		},
		Payload: map[string]string{},
	}

	tenth := ctx.MustParse("0.1")
	half := ctx.MustParse("0.5")
	one := ctx.FromInt64(1)

	for i := 0; i < constants.Dimensions; i++ {
		s.Dimensions[i] = ctx.NewComplex(ctx.FromInt64(int64(i+1)), ctx.Copy(tenth))
		s.Freqs[i] = ctx.Add(one, ctx.Mul(half, src.Derive(constants.FreqSeedBase+int64(i))))
		s.Phases[i] = ctx.Mod2Pi(ctx.Mul(ctx.TwoPi(), src.Derive(constants.PhaseSeedBase+int64(i))))
		s.PhaseVelocities[i] = ctx.Zero()
	}

	s.Dimensions[7] = s.EncodeTape(DefaultTape(ctx, tapeSize))
	return s
}

// Context returns the precision context the state was built with.
func (s *State) Context() *precision.Context { return s.ctx }

// Amplitude returns |dimensions[i]|.
func (s *State) Amplitude(i int) precision.Real {
	return s.ctx.CAbs(s.Dimensions[i])
}

// WrapPhases rewraps every phase into [0, 2*pi). The integrator calls this
// after advancing; the synchronizer uses it to audit wrap consistency.
func (s *State) WrapPhases() {
	for i := range s.Phases {
		s.Phases[i] = s.ctx.Mod2Pi(s.Phases[i])
	}
}

// AdvanceEvolution moves the evolution counter to n. Regressions are
// rejected: the counter is monotonic by invariant.
func (s *State) AdvanceEvolution(n uint64) error {
	if n < s.Memory.EvolutionCount {
		return fmt.Errorf("evolution count regression: %d -> %d", s.Memory.EvolutionCount, n)
	}
	s.Memory.EvolutionCount = n
	return nil
}

// Lock transitions the state into the locked regime: all phase velocities
// are zeroed and the consensus counter resets. There is no unlock path.
func (s *State) Lock() {
	s.Memory.Locked = true
	s.Memory.ConsensusSteps = 0
	for i := range s.PhaseVelocities {
		s.PhaseVelocities[i] = s.ctx.Zero()
	}
}
