package precision

// Complex is an arbitrary-precision complex number. Like Real values, a
// Complex is operated on through a Context and must not be mutated.
type Complex struct {
	Re Real
	Im Real
}

// NewComplex builds a Complex from real and imaginary parts.
func (c *Context) NewComplex(re, im Real) Complex {
	return Complex{Re: re, Im: im}
}

// ComplexFromInt64 builds a Complex from integer parts.
func (c *Context) ComplexFromInt64(re, im int64) Complex {
	return Complex{Re: c.FromInt64(re), Im: c.FromInt64(im)}
}

// CCopy returns an independent copy of z.
func (c *Context) CCopy(z Complex) Complex {
	return Complex{Re: c.Copy(z.Re), Im: c.Copy(z.Im)}
}

// CAdd returns z + w.
func (c *Context) CAdd(z, w Complex) Complex {
	return Complex{Re: c.Add(z.Re, w.Re), Im: c.Add(z.Im, w.Im)}
}

// CSub returns z - w.
func (c *Context) CSub(z, w Complex) Complex {
	return Complex{Re: c.Sub(z.Re, w.Re), Im: c.Sub(z.Im, w.Im)}
}

// CMul returns z * w.
func (c *Context) CMul(z, w Complex) Complex {
	re := c.Sub(c.Mul(z.Re, w.Re), c.Mul(z.Im, w.Im))
	im := c.Add(c.Mul(z.Re, w.Im), c.Mul(z.Im, w.Re))
	return Complex{Re: re, Im: im}
}

// CScale returns s * z for a real scalar s.
func (c *Context) CScale(s Real, z Complex) Complex {
	return Complex{Re: c.Mul(s, z.Re), Im: c.Mul(s, z.Im)}
}

// CNeg returns -z.
func (c *Context) CNeg(z Complex) Complex {
	return Complex{Re: c.Neg(z.Re), Im: c.Neg(z.Im)}
}

// CAbs returns the modulus |z| = sqrt(re^2 + im^2).
func (c *Context) CAbs(z Complex) Real {
	return c.Sqrt(c.Add(c.Mul(z.Re, z.Re), c.Mul(z.Im, z.Im)))
}

// ExpI returns e^(i*theta) = (cos theta, sin theta), the phase rotation
// factor used by the coupling term.
func (c *Context) ExpI(theta Real) Complex {
	return Complex{Re: c.Cos(theta), Im: c.Sin(theta)}
}

// IsZero reports whether both parts of z are zero.
func (z Complex) IsZero() bool {
	return z.Re.IsZero() && z.Im.IsZero()
}
