package patterngen

import "gonum.org/v1/gonum/mat"

// previewMatrices holds the time-invariant linear operators that express
// the CoM position/velocity/ZMP trajectory over the preview horizon as an
// affine function of (initial state, jerk vector): spec.md §4.1's
// "Computes preview matrices P_ps, P_pu, P_vs, P_vu, P_zs, P_zu ... derived
// from the discretized triple-integrator with sampling period T."
//
// These follow the standard linear-MPC-for-walking derivation (Kajita et
// al.'s triple integrator preview controller, as specialized by Herdt et
// al.'s NMPC walking formulation that original_source ports to C++): for
// row i (0-indexed, representing preview step i+1) and column j,
//
//	P_ps[i]   = [1, (i+1)T, (i+1)²T²/2]
//	P_pu[i,j] = (1 + 3(i-j) + 3(i-j)²) T³/6          for j <= i, else 0
//	P_vs[i]   = [0, 1, (i+1)T]
//	P_vu[i,j] = (1 + 2(i-j)) T²/2                     for j <= i, else 0
//	P_zs[i]   = [1, (i+1)T, (i+1)²T²/2 - h/g]
//	P_zu[i,j] = (1 + 3(i-j) + 3(i-j)²) T³/6 - T·h/g   for j <= i, else 0
type previewMatrices struct {
	Pps, Pvs, Pzs *mat.Dense // N x 3
	Ppu, Pvu, Pzu *mat.Dense // N x N
}

func buildPreviewMatrices(n int, t, hCom, g float64) *previewMatrices {
	pm := &previewMatrices{
		Pps: mat.NewDense(n, 3, nil),
		Pvs: mat.NewDense(n, 3, nil),
		Pzs: mat.NewDense(n, 3, nil),
		Ppu: mat.NewDense(n, n, nil),
		Pvu: mat.NewDense(n, n, nil),
		Pzu: mat.NewDense(n, n, nil),
	}
	hOverG := hCom / g
	for i := 0; i < n; i++ {
		step := float64(i + 1)
		pm.Pps.SetRow(i, []float64{1, step * t, step * step * t * t / 2})
		pm.Pvs.SetRow(i, []float64{0, 1, step * t})
		pm.Pzs.SetRow(i, []float64{1, step * t, step*step*t*t/2 - hOverG})

		for j := 0; j <= i; j++ {
			d := float64(i - j)
			ppu := (1 + 3*d + 3*d*d) * t * t * t / 6
			pvu := (1 + 2*d) * t * t / 2
			pm.Ppu.Set(i, j, ppu)
			pm.Pvu.Set(i, j, pvu)
			pm.Pzu.Set(i, j, ppu-t*hOverG)
		}
	}
	return pm
}

// evalState returns P*state for a 3-element state vector (x, ẋ, ẍ), as an
// N-vector.
func evalState(p *mat.Dense, state [3]float64) *mat.VecDense {
	s := mat.NewVecDense(3, state[:])
	out := mat.NewVecDense(p.RawMatrix().Rows, nil)
	out.MulVec(p, s)
	return out
}
