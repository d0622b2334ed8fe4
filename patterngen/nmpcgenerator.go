package patterngen

import (
	"math"

	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrQPInfeasible is returned by Solve when the QP solver reports
// infeasibility (spec.md §4.2: "Failure: if the QP solver reports
// infeasibility, propagate as QP_INFEASIBLE to C5; no silent recovery.").
var ErrQPInfeasible = errors.New("QP_INFEASIBLE")

// NMPCGenerator is C2: the nonlinear, receding-horizon pattern generator
// built on top of BaseGenerator.
type NMPCGenerator struct {
	*BaseGenerator

	status Status

	// Last solved decision variables, also the QP solver's warm-start seed
	// for the next tick (spec.md §9: "the QP solver state is part of the
	// pattern-generator component's identity").
	jerkX, jerkY   []float64
	footX, footY   []float64
	footQ          []float64
	footQRotation  []float64 // frozen yaw estimate used to linearize the ZMP/reachability polygons this tick
}

// NewNMPCGenerator builds an NMPCGenerator from a config and initial state.
func NewNMPCGenerator(cfg Config, initial PatternGeneratorState) *NMPCGenerator {
	bg := NewBaseGenerator(cfg, initial)
	nf := bg.NumFootPositions()
	g := &NMPCGenerator{
		BaseGenerator: bg,
		jerkX:         make([]float64, bg.N()),
		jerkY:         make([]float64, bg.N()),
		footX:         make([]float64, nf),
		footY:         make([]float64, nf),
		footQ:         make([]float64, nf),
		footQRotation: make([]float64, nf),
	}
	for i := range g.footQ {
		g.footQ[i] = initial.FootYaw
		g.footQRotation[i] = initial.FootYaw
	}
	return g
}

// Status reports the last solver outcome.
func (g *NMPCGenerator) Status() Status { return g.status }

// Jerks returns the last solved CoM jerk horizon.
func (g *NMPCGenerator) Jerks() (x, y []float64) { return g.jerkX, g.jerkY }

// FootPlacements returns the last solved foot-landing horizon.
func (g *NMPCGenerator) FootPlacements() (x, y, q []float64) { return g.footX, g.footY, g.footQ }

// qpDims returns (N, Nf, D) where D is the full decision-vector dimension
// [Ẋ(N); Ẏ(N); Fx(Nf); Fy(Nf)].
func (g *NMPCGenerator) qpDims() (n, nf, d int) {
	n, nf = g.N(), g.NumFootPositions()
	return n, nf, 2*n + 2*nf
}

// Solve runs the sequential-QP outer loop: freeze F_q's rotation, solve the
// resulting QP, update F_q with its own cost-gradient step, and re-solve
// (spec.md §4.2). It always runs exactly num_outer_iterations passes (at
// least one); there is no early exit when F_q stops changing.
func (g *NMPCGenerator) Solve() error {
	cfg := g.Config()
	outerIters := cfg.NumOuterIterations
	if outerIters < 1 {
		outerIters = 1
	}

	timeline := g.supportTimeline()

	var lastErr error
	for outer := 0; outer < outerIters; outer++ {
		x0 := g.warmStart()
		xopt, _, err := g.solveQP(timeline, x0)
		if err != nil {
			// One warm-restart attempt from a zero initial guess before
			// escalating to fatal (spec.md §7: "Recoverable local").
			zero := make([]float64, len(x0))
			xopt, _, err = g.solveQP(timeline, zero)
			if err != nil {
				lastErr = err
				break
			}
		}
		g.unpackSolution(xopt)
		g.updateFootYaw(timeline)
	}

	if lastErr != nil {
		g.status = StatusInfeasible
		return errors.Wrap(ErrQPInfeasible, lastErr.Error())
	}
	g.status = StatusSuccess
	return nil
}

func (g *NMPCGenerator) warmStart() []float64 {
	_, _, d := g.qpDims()
	x0 := make([]float64, d)
	n, nf, _ := g.qpDims()
	copy(x0[0:n], g.jerkX)
	copy(x0[n:2*n], g.jerkY)
	copy(x0[2*n:2*n+nf], g.footX)
	copy(x0[2*n+nf:2*n+2*nf], g.footY)
	return x0
}

func (g *NMPCGenerator) unpackSolution(x []float64) {
	n, nf, _ := g.qpDims()
	g.jerkX = append([]float64{}, x[0:n]...)
	g.jerkY = append([]float64{}, x[n:2*n]...)
	g.footX = append([]float64{}, x[2*n:2*n+nf]...)
	g.footY = append([]float64{}, x[2*n+nf:2*n+2*nf]...)
}

// updateFootYaw takes the outer loop's own cost-gradient step on F_q: the
// yaw-reference-tracking term δ·||F_q - F_q,ref||² combined with the max
// turn-rate constraint (spec.md §4.2).
func (g *NMPCGenerator) updateFootYaw(timeline *mat.Dense) {
	cfg := g.Config()
	nf := g.NumFootPositions()
	qRef := g.velocityReference[2] * cfg.TStep // yaw increment implied by the angular velocity reference
	supportQ := g.CurrentSupport().Q
	prevQ := supportQ
	for j := 0; j < nf; j++ {
		target := supportQ + qRef*float64(j+1)
		// Gradient step toward the reference, clamped by the max turn rate.
		delta := target - prevQ
		maxDelta := cfg.MaxTurnRate * cfg.TStep
		if delta > maxDelta {
			delta = maxDelta
		} else if delta < -maxDelta {
			delta = -maxDelta
		}
		g.footQ[j] = prevQ + delta
		prevQ = g.footQ[j]
		g.footQRotation[j] = g.footQ[j]
	}
}

// solveQP assembles the quadratic cost and linear ZMP/reachability
// constraints for the current tick and hands them to nlopt's SLSQP
// algorithm, the nearest ecosystem equivalent to a constrained QP solver
// available in this module's dependency pack (spec.md §4.2 design note in
// SPEC_FULL.md §4.2).
func (g *NMPCGenerator) solveQP(timeline *mat.Dense, x0 []float64) ([]float64, float64, error) {
	n, nf, d := g.qpDims()
	cfg := g.Config()

	cosYaw := math.Cos(g.CurrentSupport().Q)
	sinYaw := math.Sin(g.CurrentSupport().Q)
	vxBody, vyBody := g.velocityReference[0], g.velocityReference[1]
	vxRef := cosYaw*vxBody - sinYaw*vyBody
	vyRef := sinYaw*vxBody + cosYaw*vyBody

	pvu, pzu := g.preview.Pvu, g.preview.Pzu
	pvsX := evalState(g.preview.Pvs, g.state.ComX)
	pvsY := evalState(g.preview.Pvs, g.state.ComY)
	pzsX := evalState(g.preview.Pzs, g.state.ComX)
	pzsY := evalState(g.preview.Pzs, g.state.ComY)

	vcur := mat.NewVecDense(n, nil)
	vfoot := mat.NewDense(n, nf, nil)
	for k := 0; k < n; k++ {
		vcur.SetVec(k, timeline.At(k, 0))
		for j := 0; j < nf; j++ {
			vfoot.Set(k, j, timeline.At(k, j+1))
		}
	}

	costFn := func(x, grad []float64) float64 {
		xdot := mat.NewVecDense(n, x[0:n])
		ydot := mat.NewVecDense(n, x[n:2*n])
		fx := mat.NewVecDense(nf, x[2*n:2*n+nf])
		fy := mat.NewVecDense(nf, x[2*n+nf:2*n+2*nf])

		cx := vecMulAdd(pvu, xdot, pvsX)
		cy := vecMulAdd(pvu, ydot, pvsY)
		zx := vecMulAdd(pzu, xdot, pzsX)
		zy := vecMulAdd(pzu, ydot, pzsY)

		zxRef := vecScaleAdd(vcur, g.CurrentSupport().X, vfoot, fx)
		zyRef := vecScaleAdd(vcur, g.CurrentSupport().Y, vfoot, fy)

		velResX := subVec(cx, vxRef)
		velResY := subVec(cy, vyRef)
		zmpResX := subVecVec(zx, zxRef)
		zmpResY := subVecVec(zy, zyRef)

		cost := cfg.WeightJerk*(dot(xdot, xdot)+dot(ydot, ydot)) +
			cfg.WeightVelocity*(dot(velResX, velResX)+dot(velResY, velResY)) +
			cfg.WeightZMP*(dot(zmpResX, zmpResX)+dot(zmpResY, zmpResY))

		if len(grad) > 0 {
			gXdot := scale(2*cfg.WeightJerk, xdot)
			addInPlace(gXdot, scale(2*cfg.WeightVelocity, matTVec(pvu, velResX)))
			addInPlace(gXdot, scale(2*cfg.WeightZMP, matTVec(pzu, zmpResX)))

			gYdot := scale(2*cfg.WeightJerk, ydot)
			addInPlace(gYdot, scale(2*cfg.WeightVelocity, matTVec(pvu, velResY)))
			addInPlace(gYdot, scale(2*cfg.WeightZMP, matTVec(pzu, zmpResY)))

			gFx := scale(-2*cfg.WeightZMP, matTVec(vfoot, zmpResX))
			gFy := scale(-2*cfg.WeightZMP, matTVec(vfoot, zmpResY))

			copy(grad[0:n], gXdot)
			copy(grad[n:2*n], gYdot)
			copy(grad[2*n:2*n+nf], gFx)
			copy(grad[2*n+nf:2*n+2*nf], gFy)
		}
		return cost
	}

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(d))
	if err != nil {
		return nil, 0, errors.Wrap(err, "creating nlopt solver")
	}
	defer opt.Destroy()

	if err := opt.SetMinObjective(costFn); err != nil {
		return nil, 0, errors.Wrap(err, "setting objective")
	}

	for _, c := range g.zmpConstraints(timeline, vcur, vfoot, pzu, pzsX, pzsY, n, nf) {
		if err := opt.AddInequalityConstraint(c, 1e-8); err != nil {
			return nil, 0, errors.Wrap(err, "adding ZMP constraint")
		}
	}
	for _, c := range g.reachabilityConstraints(n, nf) {
		if err := opt.AddInequalityConstraint(c, 1e-8); err != nil {
			return nil, 0, errors.Wrap(err, "adding reachability constraint")
		}
	}

	_ = opt.SetXtolRel(1e-6)
	_ = opt.SetMaxEval(200)

	xopt, minf, err := opt.Optimize(x0)
	if err != nil {
		return nil, 0, errors.Wrap(err, "nlopt solve failed")
	}
	return xopt, minf, nil
}

// zmpConstraints builds, per horizon step and per support-polygon edge, the
// affine inequality a·Zx(k) + b·Zy(k) <= c, linearized around the frozen
// F_q estimate for whichever landing is active at step k (spec.md §4.2:
// "ZMP ∈ rotated support polygons (linearized around current F_q
// estimate)").
func (g *NMPCGenerator) zmpConstraints(
	timeline *mat.Dense,
	vcur *mat.VecDense, vfoot *mat.Dense,
	pzu *mat.Dense, pzsX, pzsY *mat.VecDense,
	n, nf int,
) []func(x, grad []float64) float64 {
	var fns []func(x, grad []float64) float64
	support := g.CurrentSupport()

	for k := 0; k < n; k++ {
		idx := activeLanding(timeline, k)
		var yaw, knownX, knownY float64
		var footVar int = -1 // -1 means the current (known) support foot
		if idx == 0 {
			yaw, knownX, knownY = support.Q, support.X, support.Y
		} else {
			yaw = g.footQRotation[idx-1]
			footVar = idx - 1
		}

		a, b, c := g.footPolygonLocal.Transform(0, 0, yaw).HalfPlanes()
		for e := range a {
			ae, be, ce := a[e], b[e], c[e]
			k, footVar, ae, be, ce, knownX, knownY := k, footVar, ae, be, ce, knownX, knownY // capture
			fns = append(fns, func(x, grad []float64) float64 {
				zxK := mat.Row(nil, k, pzu) // row k coefficients, shared by the x- and y-axis terms
				zx := dotSlice(zxK, x[0:n]) + pzsX.AtVec(k)
				zy := dotSlice(zxK, x[n:2*n]) + pzsY.AtVec(k)
				// zxK is reused for x and y since Pzu is shared by both axes.

				var cx, cy float64
				if footVar < 0 {
					cx, cy = knownX, knownY
				} else {
					cx = x[2*n+footVar]
					cy = x[2*n+nf+footVar]
				}

				val := ae*zx + be*zy - ae*cx - be*cy - ce

				if len(grad) > 0 {
					for j := range grad {
						grad[j] = 0
					}
					for j := 0; j < n; j++ {
						grad[j] = ae * zxK[j]
						grad[n+j] = be * zxK[j]
					}
					if footVar >= 0 {
						grad[2*n+footVar] = -ae
						grad[2*n+nf+footVar] = -be
					}
				}
				return val
			})
		}
	}
	return fns
}

// reachabilityConstraints builds, per pending landing and per
// reachability-polygon edge, the affine inequality constraining the
// landing relative to the previous stance foot (spec.md §4.2: "Foot
// placements ∈ kinematic reachability convex region relative to previous
// stance").
func (g *NMPCGenerator) reachabilityConstraints(n, nf int) []func(x, grad []float64) float64 {
	var fns []func(x, grad []float64) float64
	support := g.CurrentSupport()

	for j := 0; j < nf; j++ {
		yaw := support.Q
		if j > 0 {
			yaw = g.footQRotation[j-1]
		}
		a, b, c := g.reachabilityPolygonLocal.Transform(0, 0, yaw).HalfPlanes()
		for e := range a {
			ae, be, ce := a[e], b[e], c[e]
			j, ae, be, ce := j, ae, be, ce
			fns = append(fns, func(x, grad []float64) float64 {
				fxj := x[2*n+j]
				fyj := x[2*n+nf+j]
				var prevX, prevY float64
				prevXVar, prevYVar := -1, -1
				if j == 0 {
					prevX, prevY = support.X, support.Y
				} else {
					prevXVar, prevYVar = j-1, j-1
				}
				if prevXVar >= 0 {
					prevX = x[2*n+prevXVar]
					prevY = x[2*n+nf+prevYVar]
				}
				val := ae*(fxj-prevX) + be*(fyj-prevY) - ce
				if len(grad) > 0 {
					for k := range grad {
						grad[k] = 0
					}
					grad[2*n+j] = ae
					grad[2*n+nf+j] = be
					if prevXVar >= 0 {
						grad[2*n+prevXVar] -= ae
						grad[2*n+nf+prevYVar] -= be
					}
				}
				return val
			})
		}
	}
	return fns
}

func activeLanding(timeline *mat.Dense, k int) int {
	_, cols := timeline.Dims()
	for j := 0; j < cols; j++ {
		if timeline.At(k, j) == 1 {
			return j
		}
	}
	return 0
}

// Update returns the shifted PatternGeneratorState for the next tick
// (spec.md §4.2 Update contract): support rotates when the support
// timeline's leading step expires. Update does not move the CoM itself; once
// Simulate has rolled it forward one sample, C(0) of the new tick equals
// C(1) of the previous tick.
func (g *NMPCGenerator) Update() PatternGeneratorState {
	newLanding := Support{}
	if g.NumFootPositions() > 0 {
		newLanding = Support{X: g.footX[0], Y: g.footY[0], Q: g.footQ[0]}
	}
	g.AdvanceSupportTimeline(newLanding)

	support := g.CurrentSupport()
	state := g.State()
	state.FootX, state.FootY, state.FootYaw = support.X, support.Y, support.Q
	state.SupportFoot = support.Foot
	g.SetInitialValues(state)
	return state
}

// --- small vector helpers over gonum types, kept local to avoid pulling a
// general-purpose linear-algebra layer the rest of the module doesn't need.

func vecMulAdd(m *mat.Dense, v *mat.VecDense, add *mat.VecDense) *mat.VecDense {
	rows, _ := m.Dims()
	out := mat.NewVecDense(rows, nil)
	out.MulVec(m, v)
	out.AddVec(out, add)
	return out
}

func vecScaleAdd(vcur *mat.VecDense, scalar float64, vfoot *mat.Dense, f *mat.VecDense) *mat.VecDense {
	rows, _ := vfoot.Dims()
	out := mat.NewVecDense(rows, nil)
	out.MulVec(vfoot, f)
	for i := 0; i < rows; i++ {
		out.SetVec(i, out.AtVec(i)+vcur.AtVec(i)*scalar)
	}
	return out
}

func subVec(v *mat.VecDense, c float64) *mat.VecDense {
	n := v.Len()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetVec(i, v.AtVec(i)-c)
	}
	return out
}

func subVecVec(a, b *mat.VecDense) *mat.VecDense {
	n := a.Len()
	out := mat.NewVecDense(n, nil)
	out.SubVec(a, b)
	return out
}

func dot(a, b *mat.VecDense) float64 { return mat.Dot(a, b) }

func dotSlice(a []float64, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func scale(c float64, v *mat.VecDense) []float64 {
	n := v.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = c * v.AtVec(i)
	}
	return out
}

func addInPlace(dst []float64, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}

func matTVec(m *mat.Dense, v *mat.VecDense) *mat.VecDense {
	_, cols := m.Dims()
	out := mat.NewVecDense(cols, nil)
	out.MulVec(m.T(), v)
	return out
}
