// Package config loads the YAML configuration trees for the pattern
// generator, kinematics, and I/O subsystems (spec.md §6). Decoding follows
// the teacher's convention of unmarshalling into a loosely-typed
// map[string]interface{} first and then normalizing it with mapstructure,
// which keeps the on-disk schema forgiving of extra/renamed keys the way
// the original YAML configs were.
package config

import (
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// PatternGeneratorConfig is the YAML-tagged configuration for C1/C2
// (spec.md §6: "Pattern generator").
type PatternGeneratorConfig struct {
	T                float64 `mapstructure:"t"`
	CommandPeriod    float64 `mapstructure:"command_period"`
	PreviewLength    int     `mapstructure:"n"`
	NumFootPositions int     `mapstructure:"n_foot_positions"`
	HCom             float64 `mapstructure:"h_com"`
	Gravity          float64 `mapstructure:"gravity"`
	TStep            float64 `mapstructure:"t_step"`
	TDoubleSupport   float64 `mapstructure:"t_ds"`
	StepHeight       float64 `mapstructure:"step_height"`
	FootDistance     float64 `mapstructure:"foot_distance"`
	NStill           int     `mapstructure:"n_still"`
	CPUTime          float64 `mapstructure:"cpu_time"`

	// Cost weights alpha, beta, gamma, delta (spec.md §4.2).
	WeightJerk     float64 `mapstructure:"alpha"`
	WeightVelocity float64 `mapstructure:"beta"`
	WeightZMP      float64 `mapstructure:"gamma"`
	WeightFootYaw  float64 `mapstructure:"delta"`

	SecurityMarginX float64 `mapstructure:"security_margin_x"`
	SecurityMarginY float64 `mapstructure:"security_margin_y"`

	SupportHalfX float64 `mapstructure:"support_half_x"`
	SupportHalfY float64 `mapstructure:"support_half_y"`

	ReachabilityHalfX float64 `mapstructure:"reachability_half_x"`
	ReachabilityHalfY float64 `mapstructure:"reachability_half_y"`
	MaxTurnRate       float64 `mapstructure:"max_turn_rate"`

	NumOuterIterations int `mapstructure:"num_outer_iterations"`
}

// KinematicsConfig is the YAML-tagged configuration for C4 (spec.md §6:
// "Kinematics").
type KinematicsConfig struct {
	ModelLoc     string    `mapstructure:"model_loc"`
	StepTol      float64   `mapstructure:"step_tol"`
	Lambda       float64   `mapstructure:"lambda"`
	NumSteps     int       `mapstructure:"num_steps"`
	NInit        int       `mapstructure:"n_init"`
	ComBodyPoint []float64 `mapstructure:"com_body_point"`
	LfBodyPoint  []float64 `mapstructure:"lf_body_point"`
	RfBodyPoint  []float64 `mapstructure:"rf_body_point"`
}

// IOConfig is the YAML-tagged configuration for the (out-of-scope, interface
// only) robot-bus boundary (spec.md §6: "I/O"). JointIndex, keyed by Parts
// entries, gives the ordered positions within the kinematics solver's
// q-vector that back each physical robot part; ActuatedIndices flattens it
// into the 21->15 mapping the walking loop uses to carve the wire-format
// joint command out of the full floating-base solution.
type IOConfig struct {
	Parts       []string         `mapstructure:"parts"`
	JointIndex  map[string][]int `mapstructure:"joint_index"`
	PortName    string           `mapstructure:"port_name"`
	CameraParts []string         `mapstructure:"camera_parts"`
}

// ActuatedIndices flattens JointIndex in Parts order into the ordered list
// of q-vector indices the walking loop publishes as the wire-format joint
// command (spec.md §6: "ioboundary.JointCommand carries the 15-vector
// joints-out"). A part missing from JointIndex contributes nothing.
func (c IOConfig) ActuatedIndices() []int {
	var indices []int
	for _, part := range c.Parts {
		indices = append(indices, c.JointIndex[part]...)
	}
	return indices
}

// DefaultIOConfig returns the joint_index layout matching
// DefaultModelDescription's body order: a 3-DoF torso followed by the
// 6-DoF left and right legs, for a total of 15 actuated joints after the
// 6 floating-base DoF.
func DefaultIOConfig() *IOConfig {
	return &IOConfig{
		Parts: []string{"torso", "left_leg", "right_leg"},
		JointIndex: map[string][]int{
			"torso":     {6, 7, 8},
			"left_leg":  {9, 10, 11, 12, 13, 14},
			"right_leg": {15, 16, 17, 18, 19, 20},
		},
	}
}

func loadYAML(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config %q", path)
	}
	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return errors.Wrapf(err, "parsing config %q", path)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "building config decoder")
	}
	if err := decoder.Decode(generic); err != nil {
		return errors.Wrapf(err, "decoding config %q", path)
	}
	return nil
}

// LoadPatternGeneratorConfig loads and defaults a PatternGeneratorConfig
// from a YAML file.
func LoadPatternGeneratorConfig(path string) (*PatternGeneratorConfig, error) {
	cfg := DefaultPatternGeneratorConfig()
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadKinematicsConfig loads a KinematicsConfig from a YAML file.
func LoadKinematicsConfig(path string) (*KinematicsConfig, error) {
	cfg := &KinematicsConfig{}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadIOConfig loads an IOConfig from a YAML file.
func LoadIOConfig(path string) (*IOConfig, error) {
	cfg := &IOConfig{}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPatternGeneratorConfig returns the values used throughout
// original_source's configs.yaml and the examples in spec.md §8 (T=0.1s,
// T_c=0.01s, N=16 preview steps, h_com/g giving the usual iCub-scale LIPM).
func DefaultPatternGeneratorConfig() *PatternGeneratorConfig {
	return &PatternGeneratorConfig{
		T:                  0.1,
		CommandPeriod:      0.01,
		PreviewLength:      16,
		NumFootPositions:   2,
		HCom:               0.46,
		Gravity:            9.81,
		TStep:              0.8,
		TDoubleSupport:     0.1,
		StepHeight:         0.02,
		FootDistance:       0.2,
		NStill:             2,
		CPUTime:            0.01,
		WeightJerk:         1e-6,
		WeightVelocity:     1.0,
		WeightZMP:          1e-5,
		WeightFootYaw:      1e-5,
		SecurityMarginX:    0.02,
		SecurityMarginY:    0.02,
		SupportHalfX:       0.1,
		SupportHalfY:       0.05,
		ReachabilityHalfX:  0.15,
		ReachabilityHalfY:  0.1,
		MaxTurnRate:        0.35,
		NumOuterIterations: 2,
	}
}
