// Package precision provides fixed-precision real and complex arithmetic for
// the oscillator engine. All core computations (integration, variance,
// checkpoint weights) run through a Context at a configured number of
// significant decimal digits; conversion to float64 is reserved for
// reporting boundaries (logs, metrics, API payloads).
//
// The implementation builds on cockroachdb/apd for decimal arithmetic and
// adds the circular functions the engine needs (sin, cos, phase wrapping)
// via argument reduction and Taylor series at working precision.
package precision

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Real is an arbitrary-precision real number. Values are operated on through
// a Context and must not be mutated by callers.
type Real = *apd.Decimal

// Context carries the working precision for engine arithmetic. Operations
// allocate their results and record the first operation error; callers check
// Err at natural boundaries (end of an integration step) rather than after
// every operation. A Context is not safe for concurrent use.
type Context struct {
	apd    *apd.Context
	ed     apd.ErrDecimal
	digits uint32

	pi    Real
	twoPi Real
	phi   Real
}

// piDigits is pi to 120 significant digits, enough guard digits beyond the
// default working precision of 100.
const piDigits = "3.14159265358979323846264338327950288419716939937510582097494459230781640628620899862803482534211706798214808651328230665"

// goldenRatioDigits is the golden ratio constant used by the adaptive step
// size, matching the analog reference tuning.
const goldenRatioDigits = "1.6180339887498948"

// NewContext creates a Context with the given number of significant decimal
// digits. Digits below 20 are raised to 20; the engine default is 100.
func NewContext(digits uint32) *Context {
	if digits < 20 {
		digits = 20
	}
	inner := apd.BaseContext.WithPrecision(digits)
	c := &Context{
		apd:    inner,
		ed:     apd.MakeErrDecimal(inner),
		digits: digits,
	}
	c.pi = c.MustParse(piDigits)
	c.twoPi = c.Mul(c.pi, c.FromInt64(2))
	c.phi = c.MustParse(goldenRatioDigits)
	return c
}

// Digits returns the configured significant-digit precision.
func (c *Context) Digits() uint32 { return c.digits }

// Err returns the first arithmetic error recorded since the last Reset.
func (c *Context) Err() error { return c.ed.Err() }

// ResetErr clears the recorded arithmetic error.
func (c *Context) ResetErr() { c.ed = apd.MakeErrDecimal(c.apd) }

// Parse parses a decimal string at working precision.
func (c *Context) Parse(s string) (Real, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parsing decimal %q: %w", s, err)
	}
	return d, nil
}

// MustParse parses a decimal literal and panics on failure. It is intended
// for package-level constants only.
func (c *Context) MustParse(s string) Real {
	d, err := c.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromInt64 returns v as a Real.
func (c *Context) FromInt64(v int64) Real {
	return apd.New(v, 0)
}

// FromFloat64 converts a float64 to a Real. It belongs at input boundaries
// only; core state must never round-trip through float64.
func (c *Context) FromFloat64(f float64) (Real, error) {
	d := new(apd.Decimal)
	if _, err := d.SetFloat64(f); err != nil {
		return nil, fmt.Errorf("converting float64 %v: %w", f, err)
	}
	return d, nil
}

// Float64 downcasts d for reporting. Precision loss is expected and
// acceptable here; an unrepresentable value reports as 0.
func (c *Context) Float64(d Real) float64 {
	f, err := d.Float64()
	if err != nil {
		return 0
	}
	return f
}

// Zero returns a fresh zero value.
func (c *Context) Zero() Real { return new(apd.Decimal) }

// Copy returns an independent copy of d.
func (c *Context) Copy(d Real) Real { return new(apd.Decimal).Set(d) }

// Pi returns pi at working precision. The caller must not mutate it.
func (c *Context) Pi() Real { return c.pi }

// TwoPi returns 2*pi at working precision. The caller must not mutate it.
func (c *Context) TwoPi() Real { return c.twoPi }

// Phi returns the golden ratio constant. The caller must not mutate it.
func (c *Context) Phi() Real { return c.phi }

// Add returns x + y.
func (c *Context) Add(x, y Real) Real { return c.ed.Add(new(apd.Decimal), x, y) }

// Sub returns x - y.
func (c *Context) Sub(x, y Real) Real { return c.ed.Sub(new(apd.Decimal), x, y) }

// Mul returns x * y.
func (c *Context) Mul(x, y Real) Real { return c.ed.Mul(new(apd.Decimal), x, y) }

// Quo returns x / y. Division by zero is recorded as a context error and
// returns zero; engine call sites guard denominators with amplitude floors.
func (c *Context) Quo(x, y Real) Real {
	if y.IsZero() {
		c.ed.Quo(new(apd.Decimal), x, y) // record the error
		return new(apd.Decimal)
	}
	return c.ed.Quo(new(apd.Decimal), x, y)
}

// Neg returns -x.
func (c *Context) Neg(x Real) Real { return c.ed.Neg(new(apd.Decimal), x) }

// Abs returns |x|.
func (c *Context) Abs(x Real) Real { return c.ed.Abs(new(apd.Decimal), x) }

// Floor returns the largest integer value not greater than x.
func (c *Context) Floor(x Real) Real { return c.ed.Floor(new(apd.Decimal), x) }

// Exp returns e**x.
func (c *Context) Exp(x Real) Real { return c.ed.Exp(new(apd.Decimal), x) }

// Ln returns the natural logarithm of x.
func (c *Context) Ln(x Real) Real { return c.ed.Ln(new(apd.Decimal), x) }

// Sqrt returns the square root of x.
func (c *Context) Sqrt(x Real) Real { return c.ed.Sqrt(new(apd.Decimal), x) }

// Pow returns x**y.
func (c *Context) Pow(x, y Real) Real { return c.ed.Pow(new(apd.Decimal), x, y) }

// Min returns the smaller of x and y.
func (c *Context) Min(x, y Real) Real {
	if x.Cmp(y) <= 0 {
		return x
	}
	return y
}

// Max returns the larger of x and y.
func (c *Context) Max(x, y Real) Real {
	if x.Cmp(y) >= 0 {
		return x
	}
	return y
}

// Clamp returns x restricted to [lo, hi].
func (c *Context) Clamp(x, lo, hi Real) Real {
	if x.Cmp(lo) < 0 {
		return lo
	}
	if x.Cmp(hi) > 0 {
		return hi
	}
	return x
}
