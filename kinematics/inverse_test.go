package kinematics

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/heicub/config"
)

func testKinematicsConfig() config.KinematicsConfig {
	return config.KinematicsConfig{
		StepTol:      1e-6,
		Lambda:       0.01,
		NumSteps:     50,
		NInit:        2,
		ComBodyPoint: []float64{0, 0, -0.4},
		LfBodyPoint:  []float64{0, 0, 0},
		RfBodyPoint:  []float64{0, 0, 0},
	}
}

func currentTarget(model *Model, q []float64) Target {
	fk := model.Forward(q)
	return Target{
		ComPos:  fk.ComPos,
		ComOri:  fk.Pose(chestBody).Orientation,
		RootOri: fk.Pose(rootBody).Orientation,
		LfPos:   fk.Pose(lfBody).Point,
		LfOri:   fk.Pose(lfBody).Orientation,
		RfPos:   fk.Pose(rfBody).Point,
		RfOri:   fk.Pose(rfBody).Orientation,
	}
}

func TestInverseConvergesOnItsOwnForwardSolution(t *testing.T) {
	model := NewModel(DefaultModelDescription())
	cfg := testKinematicsConfig()
	ik := NewIK(model, cfg)

	q0 := make([]float64, model.DOF())
	target := currentTarget(model, q0)

	q, converged := ik.Inverse(target)
	test.That(t, q, test.ShouldHaveLength, model.DOF())
	test.That(t, converged, test.ShouldBeTrue)

	fk := model.Forward(q)
	test.That(t, fk.ComPos[0], test.ShouldAlmostEqual, target.ComPos[0], 1e-3)
	test.That(t, fk.ComPos[2], test.ShouldAlmostEqual, target.ComPos[2], 1e-3)
}

func TestInverseWarmStartsAcrossCalls(t *testing.T) {
	model := NewModel(DefaultModelDescription())
	cfg := testKinematicsConfig()
	ik := NewIK(model, cfg)

	q0 := make([]float64, model.DOF())
	target := currentTarget(model, q0)

	first, _ := ik.Inverse(target)
	second, _ := ik.Inverse(target)

	for i := range first {
		test.That(t, second[i], test.ShouldAlmostEqual, first[i], 1e-6)
	}
}

func TestNonConvergenceStillReturnsAJointVector(t *testing.T) {
	model := NewModel(DefaultModelDescription())
	cfg := testKinematicsConfig()
	cfg.NumSteps = 1 // force a bail-out before convergence
	ik := NewIK(model, cfg)

	q0 := make([]float64, model.DOF())
	target := currentTarget(model, q0)
	target.ComPos[0] += 0.3 // push the target far enough that 1 step won't converge

	q, _ := ik.Inverse(target)
	test.That(t, q, test.ShouldHaveLength, model.DOF())
}
