package precision

import "testing"

func TestComplex_MulAbs(t *testing.T) {
	c := NewContext(60)

	// (3+4i)(1-2i) = 11 - 2i
	z := c.ComplexFromInt64(3, 4)
	w := c.ComplexFromInt64(1, -2)
	got := c.CMul(z, w)

	if got.Re.Cmp(c.FromInt64(11)) != 0 || got.Im.Cmp(c.FromInt64(-2)) != 0 {
		t.Errorf("CMul = (%s, %s), want (11, -2)", got.Re.String(), got.Im.String())
	}

	// |3+4i| = 5
	if abs := c.CAbs(z); abs.Cmp(c.FromInt64(5)) != 0 {
		t.Errorf("CAbs = %s, want 5", abs.String())
	}
}

func TestComplex_AddSubScale(t *testing.T) {
	c := NewContext(60)

	z := c.ComplexFromInt64(1, 2)
	w := c.ComplexFromInt64(3, -1)

	sum := c.CAdd(z, w)
	if sum.Re.Cmp(c.FromInt64(4)) != 0 || sum.Im.Cmp(c.FromInt64(1)) != 0 {
		t.Errorf("CAdd = (%s, %s), want (4, 1)", sum.Re.String(), sum.Im.String())
	}

	diff := c.CSub(z, w)
	if diff.Re.Cmp(c.FromInt64(-2)) != 0 || diff.Im.Cmp(c.FromInt64(3)) != 0 {
		t.Errorf("CSub = (%s, %s), want (-2, 3)", diff.Re.String(), diff.Im.String())
	}

	scaled := c.CScale(c.MustParse("0.5"), z)
	if scaled.Re.Cmp(c.MustParse("0.5")) != 0 || scaled.Im.Cmp(c.FromInt64(1)) != 0 {
		t.Errorf("CScale = (%s, %s), want (0.5, 1)", scaled.Re.String(), scaled.Im.String())
	}
}

func TestExpI_UnitModulus(t *testing.T) {
	c := NewContext(60)

	for _, theta := range []string{"0", "0.7", "1.5707963267948966", "3", "-2.2"} {
		z := c.ExpI(c.MustParse(theta))
		abs := c.CAbs(z)
		diff := c.Abs(c.Sub(abs, c.FromInt64(1)))
		if diff.Cmp(c.MustParse("1e-55")) > 0 {
			t.Errorf("|e^(i*%s)| = %s, want 1", theta, abs.String())
		}
	}
}

func TestCCopy_Independent(t *testing.T) {
	c := NewContext(50)

	z := c.ComplexFromInt64(7, 9)
	cp := c.CCopy(z)

	// Mutating the copy's parts must not affect the original.
	cp.Re.SetInt64(0)
	if z.Re.Cmp(c.FromInt64(7)) != 0 {
		t.Error("CCopy shares storage with original")
	}
}

func TestComplex_IsZero(t *testing.T) {
	c := NewContext(50)

	if !c.ComplexFromInt64(0, 0).IsZero() {
		t.Error("zero complex should report IsZero")
	}
	if c.ComplexFromInt64(0, 1).IsZero() {
		t.Error("nonzero imaginary part should not report IsZero")
	}
}
