// Package detrand provides a seed-keyed deterministic sequence generator.
// Derive is a pure function of its seed: the same seed yields the same
// value in every process and across restarts, which is what lets a replay
// from a checkpoint reproduce bit-identical noise.
//
// The construction mixes the seed through SHA-256, diffuses the resulting
// 256-bit state with several xorshift rounds, then hashes again before
// normalizing into [0, 1).
package detrand

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/nvandessel/phasebridge/internal/precision"
)

// initTag is the domain separation tag mixed into the initial hash.
var initTag = []byte("HDGL_INIT")

// diffusionRounds is the number of xorshift rounds applied to the state.
const diffusionRounds = 5

// word256 masks values to 256 bits.
var word256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// twoTo256 is the normalization denominator.
var twoTo256 = new(big.Int).Lsh(big.NewInt(1), 256)

// Source derives deterministic values at a fixed working precision. It is
// stateless; every call depends only on the seed argument.
type Source struct {
	ctx   *precision.Context
	denom precision.Real
}

// NewSource creates a Source producing values at the context's precision.
func NewSource(ctx *precision.Context) *Source {
	var coeffBig big.Int
	coeffBig.Set(twoTo256)
	denom := ctx.MustParse(coeffBig.String())
	return &Source{ctx: ctx, denom: denom}
}

// Derive maps seed to a value in [0, 1). It is pure and idempotent.
func (s *Source) Derive(seed int64) precision.Real {
	combined := DeriveInt(seed)
	num := s.ctx.MustParse(combined.String())
	return s.ctx.Quo(num, s.denom)
}

// DeriveInt returns the raw 256-bit integer underlying Derive(seed),
// before normalization. Exposed for fingerprinting and tests.
func DeriveInt(seed int64) *big.Int {
	var seedBytes [8]byte
	binary.BigEndian.PutUint64(seedBytes[:], uint64(seed))

	h := sha256.Sum256(append(seedBytes[:], initTag...))
	state := new(big.Int).SetBytes(h[:])

	for i := 0; i < diffusionRounds; i++ {
		xorshift(state, 13, true)
		xorshift(state, 7, false)
		xorshift(state, 17, true)
	}

	stateBytes := leftPad32(state.Bytes())
	final := sha256.Sum256(append(stateBytes, seedBytes[:]...))
	return new(big.Int).SetBytes(final[:])
}

// xorshift applies state ^= (state << n) or state ^= (state >> n), with the
// left shift masked back to 256 bits.
func xorshift(state *big.Int, n uint, left bool) {
	shifted := new(big.Int)
	if left {
		shifted.Lsh(state, n)
		shifted.And(shifted, word256)
	} else {
		shifted.Rsh(state, n)
	}
	state.Xor(state, shifted)
}

// leftPad32 pads b to exactly 32 bytes, big-endian.
func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}
