package monitor

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/lattice"
)

// Synchronizer periodically audits the lattice state for internal
// consistency: wrapped phases, sane amplitudes, and a monotonic evolution
// count. It also tracks a fingerprint of the critical state so unexpected
// divergence between audits shows up in the logs.
type Synchronizer struct {
	logger *slog.Logger

	lastSyncNS  int64
	intervalNS  int64
	fingerprint string

	lastEvo    uint64
	hasLastEvo bool

	tolerance string
}

// NewSynchronizer creates a synchronizer with the default 1 s audit
// interval.
func NewSynchronizer(logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		logger:     logger,
		intervalNS: constants.SyncIntervalNS,
		tolerance:  "1e-12",
	}
}

// Sync audits the state when the interval since the previous audit has
// elapsed. It returns false when a consistency violation was found; the
// caller decides what to do with that, the synchronizer only logs.
func (y *Synchronizer) Sync(s *lattice.State, nowNS int64) bool {
	if nowNS-y.lastSyncNS < y.intervalNS {
		return true
	}

	ok := y.validate(s)

	fp := y.Fingerprint(s)
	if y.fingerprint != "" && fp != y.fingerprint {
		y.logger.Info("state fingerprint changed",
			"old", y.fingerprint[:16],
			"new", fp[:16])
	}
	y.fingerprint = fp
	y.lastSyncNS = nowNS

	return ok
}

func (y *Synchronizer) validate(s *lattice.State) bool {
	ctx := s.Context()
	tol := ctx.MustParse(y.tolerance)
	bound := ctx.MustParse(constants.AmplitudeSanityBound)

	for i := 0; i < constants.Dimensions; i++ {
		wrapped := ctx.Mod2Pi(s.Phases[i])
		if ctx.Abs(ctx.Sub(s.Phases[i], wrapped)).Cmp(tol) > 0 {
			y.logger.Warn("inconsistent phase wrapping", "dimension", i)
			return false
		}
	}

	for i := 0; i < constants.Dimensions; i++ {
		if s.Amplitude(i).Cmp(bound) > 0 {
			y.logger.Warn("unreasonable amplitude",
				"dimension", i,
				"amplitude", s.Amplitude(i).String())
			return false
		}
	}

	evo := s.Memory.EvolutionCount
	if y.hasLastEvo && evo < y.lastEvo {
		y.logger.Error("evolution count decreased, state corruption suspected",
			"previous", y.lastEvo,
			"current", evo)
		return false
	}
	y.lastEvo = evo
	y.hasLastEvo = true
	return true
}

// Fingerprint hashes the critical state (dimensions, phases, evolution
// count, phase variance) for integrity tracking across audits.
func (y *Synchronizer) Fingerprint(s *lattice.State) string {
	parts := make([]string, 0, constants.Dimensions*3+2)
	for i := 0; i < constants.Dimensions; i++ {
		parts = append(parts,
			s.Dimensions[i].Re.String(),
			s.Dimensions[i].Im.String(),
			s.Phases[i].String())
	}
	parts = append(parts,
		s.Memory.PhaseVariance.String())

	h := sha256.Sum256([]byte(strings.Join(parts, "|") + "|" + strconv.FormatUint(s.Memory.EvolutionCount, 10)))
	return hex.EncodeToString(h[:])
}
