package precision

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// fixedPointScale is the number of fractional decimal digits preserved by
// the fixed-point encoding (value * 10^18, truncated).
const fixedPointScale = 18

// FixedPointBytes encodes a non-negative Real as a 32-byte big-endian
// fixed-point word: floor(d * 10^18) mod 2^256. This is the canonical
// encoding hashed into state commitments.
func (c *Context) FixedPointBytes(d Real) ([32]byte, error) {
	var out [32]byte
	if d.Sign() < 0 {
		return out, fmt.Errorf("fixed-point encoding requires a non-negative value, got %s", d.String())
	}

	scaled := c.Floor(c.Mul(d, apd.New(1, fixedPointScale)))
	if err := c.Err(); err != nil {
		c.ResetErr()
		return out, fmt.Errorf("scaling to fixed point: %w", err)
	}

	bi, err := integerValue(scaled)
	if err != nil {
		return out, err
	}

	// Reduce mod 2^256 and right-align big-endian.
	bi.And(bi, maxWord)
	b := bi.Bytes()
	copy(out[32-len(b):], b)
	return out, nil
}

// FixedPointValue decodes a 32-byte fixed-point word back into a Real.
func (c *Context) FixedPointValue(word [32]byte) Real {
	bi := new(big.Int).SetBytes(word[:])
	var coeff apd.BigInt
	coeff.SetMathBigInt(bi)
	d := apd.NewWithBigInt(&coeff, 0)
	return c.Quo(d, apd.New(1, fixedPointScale))
}

// maxWord is 2^256 - 1.
var maxWord = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// integerValue extracts the exact integer value of an integral Decimal.
func integerValue(d Real) (*big.Int, error) {
	bi := d.Coeff.MathBigInt()
	if d.Negative {
		bi.Neg(bi)
	}
	switch {
	case d.Exponent > 0:
		bi.Mul(bi, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Exponent)), nil))
	case d.Exponent < 0:
		// Integral by construction; trailing digits are zeros.
		div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-d.Exponent)), nil)
		bi.Quo(bi, div)
	}
	return bi, nil
}
