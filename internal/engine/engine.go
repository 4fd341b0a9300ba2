// Package engine orchestrates state derivation: it replays the
// deterministic evolution from the best available checkpoint to a target
// evolution count, pacing steps against a soft real-time interval and
// persisting checkpoints along the way.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/nvandessel/phasebridge/internal/checkpoint"
	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/detrand"
	"github.com/nvandessel/phasebridge/internal/integrator"
	"github.com/nvandessel/phasebridge/internal/lattice"
	"github.com/nvandessel/phasebridge/internal/monitor"
	"github.com/nvandessel/phasebridge/internal/precision"
)

// Engine derives lattice states at requested evolution counts. All fields
// are optional except the precision context and sequence source; a nil
// checkpoint manager disables resume and persistence, nil monitors disable
// the audits, a nil feed disables status publishing.
type Engine struct {
	pctx *precision.Context
	src  *detrand.Source

	Checkpoints *checkpoint.Manager
	Feed        *Feed
	Sync        *monitor.Synchronizer
	Timing      *monitor.TimingMonitor

	logger *slog.Logger

	// Pacing hooks, injectable for tests. nowNS must be monotonic.
	nowNS   func() int64
	sleepNS func(int64)
	paced   bool
}

// New creates an engine with real-time pacing enabled.
func New(pctx *precision.Context, src *detrand.Source, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	base := time.Now()
	return &Engine{
		pctx:    pctx,
		src:     src,
		logger:  logger,
		nowNS:   func() int64 { return time.Since(base).Nanoseconds() },
		sleepNS: func(ns int64) { time.Sleep(time.Duration(ns)) },
		paced:   true,
	}
}

// SetPaced enables or disables the soft real-time step pacing. Derivations
// that only need the final state (the derive command, tests) run unpaced.
func (e *Engine) SetPaced(paced bool) { e.paced = paced }

// DeriveStateAt evolves the lattice to the target evolution count, resuming
// from the highest-weight checkpoint when one covers the range. The noise
// stream is keyed by seed, so any two derivations with the same seed and
// target agree exactly.
func (e *Engine) DeriveStateAt(ctx context.Context, seed int64, target uint64, tapeSize int) (*lattice.State, error) {
	state := lattice.New(e.pctx, e.src, tapeSize)
	integ := integrator.New(e.pctx, e.src, seed)

	resumeEvo := (target / constants.CheckpointInterval) * constants.CheckpointInterval
	if e.Checkpoints != nil && resumeEvo > 0 {
		if latest, ok := e.Checkpoints.Latest(); ok && latest.Evo <= resumeEvo {
			state = e.Checkpoints.Fetch(ctx, latest.ContentID, tapeSize)
			resumeEvo = latest.Evo
			e.logger.Info("resuming from checkpoint", "evo", latest.Evo, "cid", latest.ContentID)
		} else {
			resumeEvo = 0
		}
	} else {
		resumeEvo = 0
	}

	drift := e.pctx.MustParse("0.01")
	half := e.pctx.MustParse("0.5")

	next := e.nowNS() + constants.StepIntervalNS
	for i := resumeEvo; i < target; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stepStart := e.nowNS()
		integ.Step(state)

		// Deterministic drift on every dimension, keyed by (seed, step, dim).
		for j := 0; j < constants.Dimensions; j++ {
			n := e.src.Derive(seed + int64(i) + int64(j))
			state.Dimensions[j].Re = e.pctx.Add(state.Dimensions[j].Re,
				e.pctx.Mul(drift, e.pctx.Sub(n, half)))
		}
		state.Memory.EvolutionCount = i + 1

		// Step boundary: surface and clear any recorded arithmetic fault so
		// one bad operation cannot silently poison the whole run.
		if err := e.pctx.Err(); err != nil {
			e.logger.Warn("arithmetic fault during step", "evo", i+1, "err", err)
			e.pctx.ResetErr()
		}

		if e.Checkpoints != nil && i%constants.CheckpointInterval == 0 && i > resumeEvo {
			cid := e.Checkpoints.Persist(ctx, state, i, seed)
			e.Checkpoints.Add(i, cid, e.pctx.Float64(state.Memory.PhaseVariance))
		}

		if e.Feed != nil {
			e.Feed.Publish(state, i+1)
		}
		if e.Timing != nil {
			e.Timing.Measure(e.nowNS() - stepStart)
		}
		if e.Sync != nil {
			if !e.Sync.Sync(state, e.nowNS()) {
				e.logger.Error("state consistency audit failed", "evo", i+1)
			}
		}

		if e.paced {
			if wait := next - e.nowNS(); wait > 0 {
				e.sleepNS(wait)
			}
			next += constants.StepIntervalNS
		}
	}

	return state, nil
}
