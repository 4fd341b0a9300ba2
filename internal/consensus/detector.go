// Package consensus detects the quiescent "consensus" configuration of the
// lattice: sustained low circular phase variance. It is a numerical
// convergence detector, not a Byzantine agreement protocol.
package consensus

import (
	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/lattice"
	"github.com/nvandessel/phasebridge/internal/precision"
)

// Detector computes circular phase variance after every integration step and
// transitions the state into the locked regime once variance stays below
// epsilon for the required run length.
type Detector struct {
	ctx     *precision.Context
	epsilon precision.Real
	steps   int
}

// NewDetector creates a detector with the default epsilon (1e-6) and
// required run length (100).
func NewDetector(ctx *precision.Context) *Detector {
	return &Detector{
		ctx:     ctx,
		epsilon: ctx.MustParse(constants.ConsensusEpsilon),
		steps:   constants.ConsensusSteps,
	}
}

// Detect updates the state's phase variance and lock status. It returns
// true when this invocation performed the lock transition.
//
// The full variance computation runs on every call with every phase wrapped
// unconditionally, so execution is independent of how close the lattice is
// to consensus.
func (d *Detector) Detect(s *lattice.State) bool {
	if s.Memory.Locked {
		return false
	}

	ctx := d.ctx

	// Mean of wrapped phases.
	sum := ctx.Zero()
	wrapped := make([]precision.Real, constants.Dimensions)
	for i := 0; i < constants.Dimensions; i++ {
		wrapped[i] = ctx.Mod2Pi(s.Phases[i])
		sum = ctx.Add(sum, wrapped[i])
	}
	mean := ctx.Quo(sum, ctx.FromInt64(constants.Dimensions))

	// Root-mean-square of minimally wrapped differences from the mean.
	sumSq := ctx.Zero()
	for i := 0; i < constants.Dimensions; i++ {
		diff := ctx.WrapPhaseDiff(ctx.Sub(wrapped[i], mean))
		sumSq = ctx.Add(sumSq, ctx.Mul(diff, diff))
	}
	s.Memory.PhaseVariance = ctx.Sqrt(ctx.Quo(sumSq, ctx.FromInt64(constants.Dimensions)))

	if s.Memory.PhaseVariance.Cmp(d.epsilon) < 0 && s.Memory.ConsensusSteps >= d.steps {
		s.Lock()
		return true
	}

	if s.Memory.PhaseVariance.Cmp(d.epsilon) >= 0 {
		s.Memory.ConsensusSteps = 0
	} else {
		s.Memory.ConsensusSteps++
	}
	return false
}
