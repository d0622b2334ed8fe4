package interpolation

import "gonum.org/v1/gonum/mat"

// quinticCoeffs holds c0..c5 for p(t) = c0 + c1 t + c2 t^2 + c3 t^3 + c4 t^4 + c5 t^5.
type quinticCoeffs [6]float64

func (c quinticCoeffs) eval(t float64) Derivatives {
	t2 := t * t
	t3 := t2 * t
	t4 := t3 * t
	t5 := t4 * t
	return Derivatives{
		Pos: c[0] + c[1]*t + c[2]*t2 + c[3]*t3 + c[4]*t4 + c[5]*t5,
		Vel: c[1] + 2*c[2]*t + 3*c[3]*t2 + 4*c[4]*t3 + 5*c[5]*t4,
		Acc: 2*c[2] + 6*c[3]*t + 12*c[4]*t2 + 20*c[5]*t3,
	}
}

// solveQuintic fits a 5th-order polynomial to boundary conditions
// (p0, v0, a0) at t=0 and (p1, v1, a1) at t=T (spec.md §4.3 swing-foot
// x/y/yaw trajectory).
func solveQuintic(p0, v0, a0, p1, v1, a1, t float64) quinticCoeffs {
	var c quinticCoeffs
	c[0], c[1], c[2] = p0, v0, a0/2
	if t <= 0 {
		c[3], c[4], c[5] = 0, 0, 0
		return c
	}
	dp := p1 - p0 - v0*t - 0.5*a0*t*t
	dv := v1 - v0 - a0*t
	da := a1 - a0

	t2, t3, t4, t5 := t*t, t*t*t, t*t*t*t, t*t*t*t*t
	a := mat.NewDense(3, 3, []float64{
		t3, t4, t5,
		3 * t2, 4 * t3, 5 * t4,
		6 * t, 12 * t2, 20 * t3,
	})
	b := mat.NewVecDense(3, []float64{dp, dv, da})
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return c
	}
	c[3], c[4], c[5] = x.AtVec(0), x.AtVec(1), x.AtVec(2)
	return c
}

// quarticCoeffs holds c0..c4 for p(t) = c0 + c1 t + c2 t^2 + c3 t^3 + c4 t^4.
type quarticCoeffs [5]float64

func (c quarticCoeffs) eval(t float64) Derivatives {
	t2 := t * t
	t3 := t2 * t
	t4 := t3 * t
	return Derivatives{
		Pos: c[0] + c[1]*t + c[2]*t2 + c[3]*t3 + c[4]*t4,
		Vel: c[1] + 2*c[2]*t + 3*c[3]*t2 + 4*c[4]*t3,
		Acc: 2*c[2] + 6*c[3]*t + 12*c[4]*t2,
	}
}

// solveQuartic fits a 4th-order polynomial through (z0, dz0) at t=0,
// (stepHeight) at t=T/2, and (0, 0) at t=T — the swing foot's vertical
// lift/return profile (spec.md §4.3).
func solveQuartic(z0, dz0, stepHeight, t float64) quarticCoeffs {
	var c quarticCoeffs
	c[0], c[1] = z0, dz0
	if t <= 0 {
		return c
	}
	half := t / 2
	rhs1 := stepHeight - z0 - dz0*half
	rhs2 := -z0 - dz0*t
	rhs3 := -dz0

	h2, h3, h4 := half*half, half*half*half, half*half*half*half
	t2, t3, t4 := t*t, t*t*t, t*t*t*t
	a := mat.NewDense(3, 3, []float64{
		h2, h3, h4,
		t2, t3, t4,
		2 * t, 3 * t2, 4 * t3,
	})
	b := mat.NewVecDense(3, []float64{rhs1, rhs2, rhs3})
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return c
	}
	c[2], c[3], c[4] = x.AtVec(0), x.AtVec(1), x.AtVec(2)
	return c
}
