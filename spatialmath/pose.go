// Package spatialmath provides the small set of pose and orientation
// primitives the pattern generator, interpolator, and kinematics packages
// share. It deliberately does not aim to be a general-purpose spatial math
// library: it carries only what a planar-footed biped needs.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a rigid body transform: a translation plus an orientation.
type Pose struct {
	Point        mgl64.Vec3
	Orientation  mgl64.Quat
}

// NewPose builds a pose from a translation and orientation.
func NewPose(point mgl64.Vec3, orientation mgl64.Quat) Pose {
	return Pose{Point: point, Orientation: orientation}
}

// Identity returns the identity pose.
func Identity() Pose {
	return Pose{Point: mgl64.Vec3{}, Orientation: mgl64.QuatIdent()}
}

// Compose returns p applied after base: base * p, expressing p in the
// parent frame of base. This is the operation forward kinematics uses to
// walk down the body tree.
func Compose(base, p Pose) Pose {
	return Pose{
		Point:       base.Point.Add(base.Orientation.Rotate(p.Point)),
		Orientation: base.Orientation.Mul(p.Orientation).Normalize(),
	}
}

// Inverse returns the pose that undoes p.
func (p Pose) Inverse() Pose {
	qInv := p.Orientation.Inverse()
	return Pose{
		Point:       qInv.Rotate(p.Point.Mul(-1)),
		Orientation: qInv,
	}
}

// Transform expresses a point given in p's own frame in p's parent frame.
func (p Pose) Transform(point mgl64.Vec3) mgl64.Vec3 {
	return p.Point.Add(p.Orientation.Rotate(point))
}

// ZXZEulerToQuat builds the orientation used throughout the original
// kinematic model: R = Rz(a0) * Rx(a1) * Rz(a2), matching Eigen's
// eulerAngles(2, 0, 2) convention.
func ZXZEulerToQuat(a0, a1, a2 float64) mgl64.Quat {
	rz0 := mgl64.QuatRotate(a0, mgl64.Vec3{0, 0, 1})
	rx := mgl64.QuatRotate(a1, mgl64.Vec3{1, 0, 0})
	rz1 := mgl64.QuatRotate(a2, mgl64.Vec3{0, 0, 1})
	return rz0.Mul(rx).Mul(rz1).Normalize()
}

// YawQuat is the common case of ZXZEulerToQuat with only a yaw component,
// used whenever a foot or CoM pose is expressed purely as (x, y, z, yaw).
func YawQuat(yaw float64) mgl64.Quat {
	return mgl64.QuatRotate(yaw, mgl64.Vec3{0, 0, 1})
}

// QuatToAngularError returns the rotation vector (axis * angle, with the
// angle recovered exactly from the quaternion) that rotates "from" into
// "to". Used by the IK solver to build the orientation residual
// ω = ω_from_quat(R_target · R(q)ᵀ).
func QuatToAngularError(from, to mgl64.Quat) mgl64.Vec3 {
	delta := to.Mul(from.Inverse()).Normalize()
	if delta.W < 0 {
		delta.W = -delta.W
		delta.V = delta.V.Mul(-1)
	}
	// Angle-axis recovery: delta = (cos(theta/2), sin(theta/2) * axis).
	sinHalf := delta.V.Len()
	if sinHalf < 1e-12 {
		return mgl64.Vec3{}
	}
	theta := 2 * math.Atan2(sinHalf, delta.W)
	axis := delta.V.Mul(1 / sinHalf)
	return axis.Mul(theta)
}
