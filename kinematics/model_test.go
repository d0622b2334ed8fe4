package kinematics

import (
	"testing"

	"go.viam.com/test"
)

func TestDefaultModelDescriptionHas21DOF(t *testing.T) {
	m := NewModel(DefaultModelDescription())
	test.That(t, m.DOF(), test.ShouldEqual, 21)
}

func TestForwardAtZeroProducesFiniteCoM(t *testing.T) {
	m := NewModel(DefaultModelDescription())
	q := make([]float64, m.DOF())
	fk := m.Forward(q)
	test.That(t, fk.Poses, test.ShouldNotBeNil)
	_, hasChest := fk.Poses["chest"]
	_, hasLSole := fk.Poses["l_sole"]
	_, hasRSole := fk.Poses["r_sole"]
	test.That(t, hasChest, test.ShouldBeTrue)
	test.That(t, hasLSole, test.ShouldBeTrue)
	test.That(t, hasRSole, test.ShouldBeTrue)
	test.That(t, isNaN(fk.ComPos[0]) || isNaN(fk.ComPos[1]) || isNaN(fk.ComPos[2]), test.ShouldBeFalse)
}

func TestBaseTranslationShiftsEveryBody(t *testing.T) {
	m := NewModel(DefaultModelDescription())
	q := make([]float64, m.DOF())
	base := m.Forward(q)

	q[0] = 1.0 // base_x
	shifted := m.Forward(q)

	test.That(t, shifted.Pose("chest").Point[0], test.ShouldAlmostEqual, base.Pose("chest").Point[0]+1.0, 1e-9)
	test.That(t, shifted.Pose("l_sole").Point[0], test.ShouldAlmostEqual, base.Pose("l_sole").Point[0]+1.0, 1e-9)
}

func isNaN(f float64) bool { return f != f }
