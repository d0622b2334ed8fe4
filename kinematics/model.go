// Package kinematics implements C4: forward kinematics (CoM, body frames)
// and damped Gauss-Newton whole-body inverse kinematics over a 21-DoF rigid
// body tree (spec.md §4.4), grounded on original_source/libs/kinematics.
package kinematics

import (
	"encoding/json"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"go.viam.com/heicub/spatialmath"
)

// BodyDescription is one joint+body in the kinematic tree: the joint that
// connects it to its parent, and the mass/CoM the body itself contributes.
// Loaded from JSON rather than URDF — no URDF parser exists anywhere in
// this module's dependency pack, so the tree shape is captured directly
// instead (spec.md §3: "an immutable rigid-body tree").
type BodyDescription struct {
	Name      string     `json:"name"`
	Parent    string     `json:"parent"` // "" means the world frame
	Offset    [3]float64 `json:"offset"` // fixed translation from the parent body's origin
	Axis      [3]float64 `json:"axis"`   // joint axis, in the parent frame
	Prismatic bool       `json:"prismatic"`
	QIndex    int        `json:"q_index"` // index into q this joint reads; -1 for a fixed (massless mount) body
	Mass      float64    `json:"mass"`
	COM       [3]float64 `json:"com"` // body-local CoM offset
}

// ModelDescription is the whole tree, topologically ordered (every body's
// parent appears earlier in the slice).
type ModelDescription struct {
	Bodies []BodyDescription `json:"bodies"`
}

// LoadModelDescription reads a ModelDescription from a JSON file.
func LoadModelDescription(path string) (*ModelDescription, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model description %q", path)
	}
	var md ModelDescription
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, errors.Wrapf(err, "parsing model description %q", path)
	}
	return &md, nil
}

// Model is a ModelDescription prepared for repeated forward-kinematics
// evaluation: body lookups and DoF count resolved once.
type Model struct {
	desc      ModelDescription
	byName    map[string]int
	dof       int
	totalMass float64
}

// NewModel builds a Model from a description, pre-indexing body names and
// counting DoF.
func NewModel(desc ModelDescription) *Model {
	m := &Model{desc: desc, byName: make(map[string]int, len(desc.Bodies))}
	for i, b := range desc.Bodies {
		m.byName[b.Name] = i
		if b.QIndex+1 > m.dof {
			m.dof = b.QIndex + 1
		}
		m.totalMass += b.Mass
	}
	return m
}

// DOF is the size of the joint vector this model expects.
func (m *Model) DOF() int { return m.dof }

// TotalMass is the sum of every body's mass.
func (m *Model) TotalMass() float64 { return m.totalMass }

// BodyNames lists every body in the tree, in topological order.
func (m *Model) BodyNames() []string {
	names := make([]string, len(m.desc.Bodies))
	for i, b := range m.desc.Bodies {
		names[i] = b.Name
	}
	return names
}

// BodyPoses is the result of a forward-kinematics evaluation: every body's
// world pose, plus the whole-model CoM.
type BodyPoses struct {
	Poses map[string]spatialmath.Pose
	ComPos mgl64.Vec3
}

// Pose returns a body's world pose, or Identity if the name is unknown.
func (bp BodyPoses) Pose(name string) spatialmath.Pose {
	if p, ok := bp.Poses[name]; ok {
		return p
	}
	return spatialmath.Identity()
}

// Forward walks the tree once, composing each body's pose from its
// parent's and accumulating the mass-weighted CoM (spec.md §4.4: "Forward
// ... populates CoM pose/velocity/accel and foot poses"). Velocity and
// acceleration propagation are not modeled: C3/C4's Cartesian trajectories
// already carry derivatives, and C5 never asks C4 for joint-space
// velocities, so only the position-level forward map is implemented.
func (m *Model) Forward(q []float64) BodyPoses {
	poses := make(map[string]spatialmath.Pose, len(m.desc.Bodies))
	var comAccum mgl64.Vec3
	var massAccum float64

	for _, b := range m.desc.Bodies {
		parent := spatialmath.Identity()
		if b.Parent != "" {
			parent = poses[b.Parent]
		}

		local := spatialmath.Pose{Point: mgl64.Vec3{b.Offset[0], b.Offset[1], b.Offset[2]}, Orientation: mgl64.QuatIdent()}
		if b.QIndex >= 0 && b.QIndex < len(q) {
			qv := q[b.QIndex]
			axis := mgl64.Vec3{b.Axis[0], b.Axis[1], b.Axis[2]}
			if b.Prismatic {
				local.Point = local.Point.Add(axis.Mul(qv))
			} else {
				local.Orientation = mgl64.QuatRotate(qv, axis)
			}
		}

		world := spatialmath.Compose(parent, local)
		poses[b.Name] = world

		if b.Mass != 0 {
			comLocal := mgl64.Vec3{b.COM[0], b.COM[1], b.COM[2]}
			comWorld := world.Transform(comLocal)
			comAccum = comAccum.Add(comWorld.Mul(b.Mass))
			massAccum += b.Mass
		}
	}

	com := mgl64.Vec3{}
	if massAccum > 0 {
		com = comAccum.Mul(1 / massAccum)
	}
	return BodyPoses{Poses: poses, ComPos: com}
}

// DefaultModelDescription is the built-in 21-DoF tree (6 floating-base DoF
// + 15 torso/leg joints) used when no model_loc override is configured:
// base translation+ZXZ orientation, a 3-DoF torso, and two 6-DoF legs
// (hip yaw/roll/pitch, knee, ankle pitch/roll), matching the shape
// original_source/libs/kinematics.cpp loads from its URDF.
func DefaultModelDescription() ModelDescription {
	leg := func(prefix string, sign float64, base int) []BodyDescription {
		return []BodyDescription{
			{Name: prefix + "_hip_yaw", Parent: "chest", Offset: [3]float64{0, sign * 0.06, -0.05}, Axis: [3]float64{0, 0, 1}, QIndex: base},
			{Name: prefix + "_hip_roll", Parent: prefix + "_hip_yaw", Axis: [3]float64{1, 0, 0}, QIndex: base + 1},
			{Name: prefix + "_hip_pitch", Parent: prefix + "_hip_roll", Axis: [3]float64{0, 1, 0}, QIndex: base + 2, Mass: 2.0, COM: [3]float64{0, 0, -0.15}},
			{Name: prefix + "_knee", Parent: prefix + "_hip_pitch", Offset: [3]float64{0, 0, -0.3}, Axis: [3]float64{0, 1, 0}, QIndex: base + 3, Mass: 1.5, COM: [3]float64{0, 0, -0.15}},
			{Name: prefix + "_ankle_pitch", Parent: prefix + "_knee", Offset: [3]float64{0, 0, -0.3}, Axis: [3]float64{0, 1, 0}, QIndex: base + 4},
			{Name: prefix + "_sole", Parent: prefix + "_ankle_pitch", Offset: [3]float64{0, 0, -0.05}, Axis: [3]float64{1, 0, 0}, QIndex: base + 5, Mass: 0.5},
		}
	}

	bodies := []BodyDescription{
		{Name: "base_x", Parent: "", Axis: [3]float64{1, 0, 0}, Prismatic: true, QIndex: 0},
		{Name: "base_y", Parent: "base_x", Axis: [3]float64{0, 1, 0}, Prismatic: true, QIndex: 1},
		{Name: "base_z", Parent: "base_y", Axis: [3]float64{0, 0, 1}, Prismatic: true, QIndex: 2},
		{Name: "base_yaw", Parent: "base_z", Axis: [3]float64{0, 0, 1}, QIndex: 3},
		{Name: "base_roll", Parent: "base_yaw", Axis: [3]float64{1, 0, 0}, QIndex: 4},
		{Name: "root_link", Parent: "base_roll", Axis: [3]float64{0, 0, 1}, QIndex: 5, Mass: 5.0},
		{Name: "chest_yaw", Parent: "root_link", Offset: [3]float64{0, 0, 0.1}, Axis: [3]float64{0, 0, 1}, QIndex: 6},
		{Name: "chest_roll", Parent: "chest_yaw", Axis: [3]float64{1, 0, 0}, QIndex: 7},
		{Name: "chest", Parent: "chest_roll", Axis: [3]float64{0, 1, 0}, QIndex: 8, Mass: 10.0, COM: [3]float64{0, 0, 0.05}},
	}
	bodies = append(bodies, leg("l", 1, 9)...)
	bodies = append(bodies, leg("r", -1, 15)...)

	return ModelDescription{Bodies: bodies}
}
