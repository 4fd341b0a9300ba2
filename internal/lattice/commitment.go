package lattice

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/precision"
)

// selfSpecExponentCap bounds the inner phi exponent of the self-description
// values so they stay representable after saturation events.
const selfSpecExponentCap = "50"

// SelfSpec computes the self-describing phi-values: one per dimension,
// D_i = phi^(sum over j != i of phi^|psi_i - psi_j|), plus the payload
// channel modulus. The values feed the commitment hash; they are not used
// by integration or consensus.
func (s *State) SelfSpec() []precision.Real {
	ctx := s.ctx
	expCap := ctx.MustParse(selfSpecExponentCap)

	out := make([]precision.Real, 0, constants.Dimensions+1)
	for i := 0; i < constants.Dimensions; i++ {
		sum := ctx.Zero()
		for j := 0; j < constants.Dimensions; j++ {
			if j == i {
				continue
			}
			dist := ctx.CAbs(ctx.CSub(s.Dimensions[i], s.Dimensions[j]))
			sum = ctx.Add(sum, ctx.Pow(ctx.Phi(), ctx.Min(dist, expCap)))
		}
		out = append(out, ctx.Pow(ctx.Phi(), ctx.Min(sum, expCap)))
	}
	out = append(out, ctx.CAbs(s.Dimensions[7]))
	return out
}

// Commitment derives the 32-byte commitment hash submitted to the
// commitment sink: Keccak-256 over the fixed-point-encoded dimension
// moduli and phases, the self-description values, and the nanosecond
// timestamp.
func (s *State) Commitment(timestampNS int64) ([32]byte, error) {
	var zero [32]byte
	ctx := s.ctx

	h := sha3.NewLegacyKeccak256()
	for i := 0; i < constants.Dimensions; i++ {
		amp, err := ctx.FixedPointBytes(s.Amplitude(i))
		if err != nil {
			return zero, fmt.Errorf("encoding dimension %d amplitude: %w", i, err)
		}
		phase, err := ctx.FixedPointBytes(ctx.Mod2Pi(s.Phases[i]))
		if err != nil {
			return zero, fmt.Errorf("encoding dimension %d phase: %w", i, err)
		}
		h.Write(amp[:])
		h.Write(phase[:])
	}

	for i, v := range s.SelfSpec() {
		word, err := ctx.FixedPointBytes(v)
		if err != nil {
			return zero, fmt.Errorf("encoding self-spec value %d: %w", i, err)
		}
		h.Write(word[:])
	}

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(timestampNS))
	h.Write(ts[:])

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}
