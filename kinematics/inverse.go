package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/heicub/config"
	"go.viam.com/heicub/spatialmath"
)

// Target is one sample's Cartesian constraint set: CoM position+orientation
// (expressed relative to the chest body), root-link orientation only, and
// both soles' full pose (spec.md §4.4 "err = [pos_target - pos(q); ...]").
type Target struct {
	ComPos  mgl64.Vec3
	ComOri  mgl64.Quat
	RootOri mgl64.Quat
	LfPos   mgl64.Vec3
	LfOri   mgl64.Quat
	RfPos   mgl64.Vec3
	RfOri   mgl64.Quat
}

const (
	chestBody = "chest"
	rootBody  = "root_link"
	lfBody    = "l_sole"
	rfBody    = "r_sole"

	jacobianEpsilon = 1e-6
)

// IK is the damped Gauss-Newton whole-body inverse-kinematics solver
// (spec.md §4.4). It is stateful across calls: it warm-starts from the
// previous solution and runs n_init unconstrained warm-up iterations only
// on the very first call.
type IK struct {
	model *Model
	cfg   config.KinematicsConfig

	comBodyPoint mgl64.Vec3
	lfBodyPoint  mgl64.Vec3
	rfBodyPoint  mgl64.Vec3

	qInit       []float64
	initialized bool
}

// NewIK builds an IK solver for model using cfg's damping/tolerance/body
// points.
func NewIK(model *Model, cfg config.KinematicsConfig) *IK {
	ik := &IK{model: model, cfg: cfg, qInit: make([]float64, model.DOF())}
	ik.comBodyPoint = vecFromSlice(cfg.ComBodyPoint)
	ik.lfBodyPoint = vecFromSlice(cfg.LfBodyPoint)
	ik.rfBodyPoint = vecFromSlice(cfg.RfBodyPoint)
	return ik
}

func vecFromSlice(s []float64) mgl64.Vec3 {
	var v mgl64.Vec3
	for i := 0; i < 3 && i < len(s); i++ {
		v[i] = s[i]
	}
	return v
}

// Inverse runs the damped Gauss-Newton solve against target, returning the
// resulting joint vector and whether it converged within step_tol
// (spec.md §4.4). Non-convergence is not an error: the caller treats it as
// a warning and still uses q.
func (ik *IK) Inverse(target Target) (q []float64, converged bool) {
	if !ik.initialized {
		for i := 0; i < ik.cfg.NInit; i++ {
			ik.qInit, _ = ik.gaussNewtonStep(ik.qInit, target)
			ik.refreshComBodyPoint(ik.qInit)
		}
		ik.initialized = true
	}

	q = append([]float64{}, ik.qInit...)
	converged = false
	for i := 0; i < ik.cfg.NumSteps; i++ {
		var delta float64
		q, delta = ik.gaussNewtonStep(q, target)
		ik.refreshComBodyPoint(q)
		if delta < ik.cfg.StepTol {
			converged = true
			break
		}
	}

	ik.qInit = q
	return q, converged
}

// refreshComBodyPoint recomputes the CoM's chest-local coordinates from the
// updated q, so the constraint tracks the real center of mass instead of a
// fixed offset (spec.md §4.4 "CoM body point refresh").
func (ik *IK) refreshComBodyPoint(q []float64) {
	fk := ik.model.Forward(q)
	chest := fk.Pose(chestBody)
	ik.comBodyPoint = chest.Inverse().Transform(fk.ComPos)
}

// gaussNewtonStep computes one damped least-squares update
// (JᵀJ + λ²I) Δq = Jᵀ err, returning the updated q and ||Δq||.
func (ik *IK) gaussNewtonStep(q []float64, target Target) ([]float64, float64) {
	dof := ik.model.DOF()
	base := ik.evaluate(q)

	errVec := mat.NewVecDense(21, nil)
	errVec.SetVec(0, target.ComPos[0]-base.comPos[0])
	errVec.SetVec(1, target.ComPos[1]-base.comPos[1])
	errVec.SetVec(2, target.ComPos[2]-base.comPos[2])
	setAngular(errVec, 3, base.comOri, target.ComOri)
	setAngular(errVec, 6, base.rootOri, target.RootOri)
	errVec.SetVec(9, target.LfPos[0]-base.lfPos[0])
	errVec.SetVec(10, target.LfPos[1]-base.lfPos[1])
	errVec.SetVec(11, target.LfPos[2]-base.lfPos[2])
	setAngular(errVec, 12, base.lfOri, target.LfOri)
	errVec.SetVec(15, target.RfPos[0]-base.rfPos[0])
	errVec.SetVec(16, target.RfPos[1]-base.rfPos[1])
	errVec.SetVec(17, target.RfPos[2]-base.rfPos[2])
	setAngular(errVec, 18, base.rfOri, target.RfOri)

	j := mat.NewDense(21, dof, nil)
	perturbed := append([]float64{}, q...)
	for col := 0; col < dof; col++ {
		perturbed[col] = q[col] + jacobianEpsilon
		p := ik.evaluate(perturbed)
		perturbed[col] = q[col]

		setColumn(j, col, 0, sub3(p.comPos, base.comPos))
		setAngularColumn(j, col, 3, base.comOri, p.comOri)
		setAngularColumn(j, col, 6, base.rootOri, p.rootOri)
		setColumn(j, col, 9, sub3(p.lfPos, base.lfPos))
		setAngularColumn(j, col, 12, base.lfOri, p.lfOri)
		setColumn(j, col, 15, sub3(p.rfPos, base.rfPos))
		setAngularColumn(j, col, 18, base.rfOri, p.rfOri)
	}

	var jtj mat.Dense
	jtj.Mul(j.T(), j)
	for i := 0; i < dof; i++ {
		jtj.Set(i, i, jtj.At(i, i)+ik.cfg.Lambda*ik.cfg.Lambda)
	}
	var jte mat.VecDense
	jte.MulVec(j.T(), errVec)

	var delta mat.VecDense
	if err := delta.SolveVec(&jtj, &jte); err != nil {
		return q, math.Inf(1)
	}

	out := make([]float64, dof)
	norm := 0.0
	for i := 0; i < dof; i++ {
		d := delta.AtVec(i)
		out[i] = q[i] + d
		norm += d * d
	}
	return out, math.Sqrt(norm)
}

type evaluation struct {
	comPos, lfPos, rfPos          mgl64.Vec3
	comOri, rootOri, lfOri, rfOri mgl64.Quat
}

func (ik *IK) evaluate(q []float64) evaluation {
	fk := ik.model.Forward(q)
	chest := fk.Pose(chestBody)
	return evaluation{
		comPos:  chest.Transform(ik.comBodyPoint),
		comOri:  chest.Orientation,
		rootOri: fk.Pose(rootBody).Orientation,
		lfPos:   fk.Pose(lfBody).Transform(ik.lfBodyPoint),
		lfOri:   fk.Pose(lfBody).Orientation,
		rfPos:   fk.Pose(rfBody).Transform(ik.rfBodyPoint),
		rfOri:   fk.Pose(rfBody).Orientation,
	}
}

func sub3(a, b mgl64.Vec3) mgl64.Vec3 { return a.Sub(b) }

func setColumn(j *mat.Dense, col, rowStart int, v mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		j.Set(rowStart+i, col, v[i]/jacobianEpsilon)
	}
}

func setAngularColumn(j *mat.Dense, col, rowStart int, from, to mgl64.Quat) {
	v := spatialmath.QuatToAngularError(from, to)
	for i := 0; i < 3; i++ {
		j.Set(rowStart+i, col, v[i]/jacobianEpsilon)
	}
}

func setAngular(vec *mat.VecDense, rowStart int, from, to mgl64.Quat) {
	v := spatialmath.QuatToAngularError(from, to)
	for i := 0; i < 3; i++ {
		vec.SetVec(rowStart+i, v[i])
	}
}
