// Package ioboundary defines the wire types and channel primitives at the
// edge of the walking core (spec.md §6): the robot-bus transport, the
// terminal UI, and the phone-app control channel are all out of scope —
// this package is the seam their real implementations plug into.
package ioboundary

import "math"

// RobotStatus is the state-machine enum shared between the UI and the
// walking loop (spec.md §6).
type RobotStatus int

// RobotStatus values, in the order spec.md §6 lists them.
const (
	NotConnected RobotStatus = iota
	NotInitialized
	Initializing
	Initialized
	Stopping
)

func (s RobotStatus) String() string {
	switch s {
	case NotConnected:
		return "NOT_CONNECTED"
	case NotInitialized:
		return "NOT_INITIALIZED"
	case Initializing:
		return "INITIALIZING"
	case Initialized:
		return "INITIALIZED"
	case Stopping:
		return "STOPPING"
	default:
		return "UNKNOWN_ROBOT_STATUS"
	}
}

// ErrorKind is the fatal-error enum published on
// /walking_processor/commands.
type ErrorKind int

// ErrorKind values.
const (
	NoErrors ErrorKind = iota
	QPInfeasible
	HardwareLimits
)

func (e ErrorKind) String() string {
	switch e {
	case NoErrors:
		return "NO_ERRORS"
	case QPInfeasible:
		return "QP_INFEASIBLE"
	case HardwareLimits:
		return "HARDWARE_LIMITS"
	default:
		return "UNKNOWN_ERROR_KIND"
	}
}

// WarningKind is the non-fatal warning enum published on the same channel.
type WarningKind int

// WarningKind values.
const (
	NoWarnings WarningKind = iota
	IKDidNotConverge
)

func (w WarningKind) String() string {
	switch w {
	case NoWarnings:
		return "NO_WARNINGS"
	case IKDidNotConverge:
		return "IK_DID_NOT_CONVERGE"
	default:
		return "UNKNOWN_WARNING_KIND"
	}
}

// JointSnapshot is the joints-in payload: the matrix [q | q̇ | q̈] of
// measured joint state read from the robot bus.
type JointSnapshot struct {
	Q, Dq, Ddq []float64
	// Seq is the monotonic sequence number tied to the sensor-read task's
	// own clock (spec.md §5: "no total order across tasks").
	Seq uint64
}

// JointCommand is the joints-out payload: a 15-vector of joint commands.
type JointCommand struct {
	Q   []float64
	Seq uint64
}

// VelocityReference is the /vel payload: body-frame (vx, vy, vyaw).
type VelocityReference struct {
	Vx, Vy, Vyaw float64
}

const degPerRad = 180 / math.Pi

// ToDegrees converts a radian joint vector to the degree convention the
// robot bus boundary expects, isolating the conversion factor (π/180) to
// this single call site per spec.md §6.
func ToDegrees(qRad []float64) []float64 {
	out := make([]float64, len(qRad))
	for i, v := range qRad {
		out[i] = v * degPerRad
	}
	return out
}

// FromDegrees converts a degree joint vector from the bus back to radians.
func FromDegrees(qDeg []float64) []float64 {
	out := make([]float64, len(qDeg))
	for i, v := range qDeg {
		out[i] = v / degPerRad
	}
	return out
}

// SeedPose is the 21-vector crouched seed pose (spec.md §6) used while
// RobotStatus is NotInitialized, so the robot settles into a safe
// configuration before walking begins.
func SeedPose() []float64 {
	q := make([]float64, 21)
	q[2] = 0.6
	q[6] = 0.54
	q[9] = -0.57
	q[10] = -0.23
	q[12] = 0.54
	q[15] = -0.57
	q[16] = -0.23
	return q
}
