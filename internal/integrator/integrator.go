// Package integrator advances the oscillator lattice by one evolution step
// using classical 4th-order Runge-Kutta with a golden-ratio adaptive step
// size. Each dimension couples to the other seven through damped analog
// links built from the state at the start of the step.
package integrator

import (
	"github.com/nvandessel/phasebridge/internal/consensus"
	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/detrand"
	"github.com/nvandessel/phasebridge/internal/lattice"
	"github.com/nvandessel/phasebridge/internal/precision"
)

// Link is the analog coupling primitive between two dimensions: a damped
// copy of the neighbor's complex value, the phase offset toward it, and a
// coupling strength derived from the amplitude ratio.
type Link struct {
	Charge    precision.Complex
	Potential precision.Real
	Coupling  precision.Real
}

// Integrator holds the adaptive step size and tuning constants parsed at the
// working precision. It is not safe for concurrent use; the evolution loop
// owns exactly one.
type Integrator struct {
	ctx      *precision.Context
	src      *detrand.Source
	detector *consensus.Detector

	noiseSeed int64
	dt        precision.Real

	gamma       precision.Real
	lambda      precision.Real
	satLimit    precision.Real
	noiseSigma  precision.Real
	couplingK   precision.Real
	adaptHigh   precision.Real
	adaptLow    precision.Real
	minDt       precision.Real
	maxDt       precision.Real
	ampFloor    precision.Real
	ratioMin    precision.Real
	ratioMax    precision.Real
	corrCap     precision.Real
	linkDamping precision.Real
}

// New creates an integrator seeded for the given noise stream. The step size
// starts at 1/32768 and adapts as amplitudes grow or shrink.
func New(ctx *precision.Context, src *detrand.Source, noiseSeed int64) *Integrator {
	phi := ctx.Phi()
	high := ctx.MustParse(constants.AdaptThreshold)
	return &Integrator{
		ctx:         ctx,
		src:         src,
		detector:    consensus.NewDetector(ctx),
		noiseSeed:   noiseSeed,
		dt:          ctx.MustParse(constants.InitialStepSize),
		gamma:       ctx.MustParse(constants.Gamma),
		lambda:      ctx.MustParse(constants.Lambda),
		satLimit:    ctx.MustParse(constants.SaturationLimit),
		noiseSigma:  ctx.MustParse(constants.NoiseSigma),
		couplingK:   ctx.MustParse(constants.CouplingK),
		adaptHigh:   high,
		adaptLow:    ctx.Quo(high, phi),
		minDt:       ctx.MustParse(constants.MinStepSize),
		maxDt:       ctx.MustParse(constants.MaxStepSize),
		ampFloor:    ctx.MustParse(constants.AmplitudeFloor),
		ratioMin:    ctx.MustParse(constants.AmplitudeRatioMin),
		ratioMax:    ctx.MustParse(constants.AmplitudeRatioMax),
		corrCap:     ctx.MustParse(constants.CorrelationCap),
		linkDamping: ctx.MustParse(constants.LinkDamping),
	}
}

// Dt returns the current adaptive step size.
func (g *Integrator) Dt() precision.Real { return g.dt }

// Step advances every dimension by one RK4 step, adapts the step size, runs
// the consensus detector, and increments the evolution count. A locked state
// is left untouched. Returns true when this step performed the lock
// transition.
func (g *Integrator) Step(s *lattice.State) bool {
	if s.Memory.Locked {
		return false
	}
	ctx := g.ctx

	for i := 0; i < constants.Dimensions; i++ {
		links := g.buildLinks(s, i)
		g.rk4(s, i, links)
	}

	// Adaptive step size, judged against the post-step amplitudes.
	for i := 0; i < constants.Dimensions; i++ {
		amp := s.Amplitude(i)
		if amp.Cmp(g.adaptHigh) > 0 {
			g.dt = ctx.Mul(g.dt, ctx.Phi())
		} else if amp.Cmp(g.adaptLow) < 0 {
			g.dt = ctx.Quo(g.dt, ctx.Phi())
		}
		g.dt = ctx.Clamp(g.dt, g.minDt, g.maxDt)
	}

	locked := g.detector.Detect(s)
	s.Memory.EvolutionCount++
	return locked
}

// buildLinks constructs the seven neighbor links for dimension i from the
// undisturbed state, then applies the link damping that stands in for the
// analog exchange round.
func (g *Integrator) buildLinks(s *lattice.State, i int) []Link {
	ctx := g.ctx
	one := ctx.FromInt64(1)
	ampI := ctx.Max(s.Amplitude(i), g.ampFloor)

	links := make([]Link, 0, constants.Dimensions-1)
	for n := 0; n < constants.Dimensions; n++ {
		if n == i {
			continue
		}
		ampN := ctx.Max(s.Amplitude(n), g.ampFloor)
		ratio := ctx.Clamp(ctx.Quo(ampN, ampI), g.ratioMin, g.ratioMax)
		correlation := ctx.Min(ctx.Abs(ctx.Sub(one, ratio)), g.corrCap)
		links = append(links, Link{
			Charge:    ctx.CScale(g.linkDamping, s.Dimensions[n]),
			Potential: ctx.Sub(s.Phases[n], s.Phases[i]),
			Coupling:  ctx.Mul(g.couplingK, ctx.Exp(ctx.Neg(correlation))),
		})
	}
	return links
}

// derivatives evaluates dA/dt and dphi/dt for dimension i against frozen
// links, reading the dimension's possibly stage-mutated value and phase.
func (g *Integrator) derivatives(s *lattice.State, i int, links []Link) (precision.Complex, precision.Real) {
	ctx := g.ctx
	phi := s.Phases[i]

	dA := ctx.CScale(ctx.Neg(g.gamma), s.Dimensions[i])
	sumSin := ctx.Zero()
	for _, l := range links {
		delta := ctx.Sub(l.Potential, phi)
		sumSin = ctx.Add(sumSin, ctx.Sin(delta))
		dA = ctx.CAdd(dA, ctx.CScale(l.Coupling, ctx.CMul(l.Charge, ctx.ExpI(delta))))
	}
	dPhi := ctx.Add(s.Freqs[i], ctx.Mul(g.couplingK, sumSin))
	return dA, dPhi
}

// rk4 advances dimension i with stage weights 1,2,2,1 over 6, temporarily
// mutating only that dimension between stage evaluations, then applies the
// entropy dampers (decay, saturation, noise) and wraps the phase.
func (g *Integrator) rk4(s *lattice.State, i int, links []Link) {
	ctx := g.ctx
	dt := g.dt
	half := ctx.Quo(dt, ctx.FromInt64(2))
	two := ctx.FromInt64(2)

	psi0 := ctx.CCopy(s.Dimensions[i])
	phi0 := ctx.Copy(s.Phases[i])

	k1A, k1P := g.derivatives(s, i, links)

	s.Dimensions[i] = ctx.CAdd(psi0, ctx.CScale(half, k1A))
	s.Phases[i] = ctx.Add(phi0, ctx.Mul(half, k1P))
	k2A, k2P := g.derivatives(s, i, links)

	s.Dimensions[i] = ctx.CAdd(psi0, ctx.CScale(half, k2A))
	s.Phases[i] = ctx.Add(phi0, ctx.Mul(half, k2P))
	k3A, k3P := g.derivatives(s, i, links)

	s.Dimensions[i] = ctx.CAdd(psi0, ctx.CScale(dt, k3A))
	s.Phases[i] = ctx.Add(phi0, ctx.Mul(dt, k3P))
	k4A, k4P := g.derivatives(s, i, links)

	sixth := ctx.Quo(dt, ctx.FromInt64(6))
	sumA := ctx.CAdd(ctx.CAdd(k1A, ctx.CScale(two, k2A)), ctx.CAdd(ctx.CScale(two, k3A), k4A))
	sumP := ctx.Add(ctx.Add(k1P, ctx.Mul(two, k2P)), ctx.Add(ctx.Mul(two, k3P), k4P))
	newPsi := ctx.CAdd(psi0, ctx.CScale(sixth, sumA))
	newPhi := ctx.Add(phi0, ctx.Mul(sixth, sumP))

	// Entropy dampers on the magnitude, not the raw complex value.
	norm := ctx.CAbs(newPsi)
	amp := ctx.Mul(norm, ctx.Exp(ctx.Neg(ctx.Mul(g.lambda, dt))))
	amp = ctx.Min(amp, g.satLimit)
	noise := ctx.Sub(ctx.Mul(two, g.src.Derive(g.noiseKey(s.Memory.EvolutionCount, i))), ctx.FromInt64(1))
	amp = ctx.Add(amp, ctx.Mul(g.noiseSigma, noise))

	if norm.Cmp(g.ampFloor) > 0 {
		newPsi = ctx.CScale(ctx.Quo(amp, norm), newPsi)
	}

	s.Dimensions[i] = newPsi
	s.Phases[i] = ctx.Mod2Pi(newPhi)
}

// noiseKey derives a per-step, per-dimension seed for the amplitude noise so
// that a replay of the same evolution range reproduces the same noise.
func (g *Integrator) noiseKey(evo uint64, dim int) int64 {
	return g.noiseSeed + int64(evo)*constants.Dimensions + int64(dim)
}
