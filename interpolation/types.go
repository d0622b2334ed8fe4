// Package interpolation implements C3: upsampling the preview-horizon
// pattern-generator plan to command-rate trajectories for the CoM, ZMP, and
// both feet (spec.md §4.3).
package interpolation

import "go.viam.com/heicub/config"

// Config re-exports config.PatternGeneratorConfig: the interpolator shares
// T, T_c, t_step, t_ds, step_height and h_com/g with C1/C2.
type Config = config.PatternGeneratorConfig

// Sample is one command-rate row: CoM position/velocity/acceleration
// (x, y, z, yaw), ZMP (x, y, z), and both feet's pose plus first and second
// derivatives (spec.md §3 "Command-rate buffers").
type Sample struct {
	ComX, ComY, ComZ, ComYaw       Derivatives
	ZmpX, ZmpY, ZmpZ               float64
	LeftFoot, RightFoot            FootPose
}

// Derivatives is a (value, velocity, acceleration) triple.
type Derivatives struct {
	Pos, Vel, Acc float64
}

// FootPose is a single foot's Cartesian pose and its first/second
// derivatives, one set per axis (x, y, z, yaw).
type FootPose struct {
	X, Y, Z, Yaw Derivatives
}

// footTrajectory is the source data the swing-spline solver boundary-fits
// against: the pose the foot started at, and the pose/support status the
// swing should end at.
type footTrajectory struct {
	start  FootPose
	target struct{ x, y, yaw float64 }
	lifted bool // true while this foot is the swing (non-support) foot
}
