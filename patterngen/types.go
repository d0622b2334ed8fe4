// Package patterngen implements the BaseGenerator (C1) and NMPC-PG (C2)
// components of spec.md §4.1-4.2: the receding-horizon QP that jointly
// optimizes CoM jerks and foot landing positions.
package patterngen

import "go.viam.com/heicub/config"

// SupportFoot identifies which foot currently bears weight.
type SupportFoot int

// SupportFoot values.
const (
	Left SupportFoot = iota
	Right
)

func (f SupportFoot) String() string {
	if f == Left {
		return "left"
	}
	return "right"
}

// Opposite returns the other foot.
func (f SupportFoot) Opposite() SupportFoot {
	if f == Left {
		return Right
	}
	return Left
}

// SupportPhase is the walking state machine of spec.md §4.1: "SS_LEFT ->
// DS -> SS_RIGHT -> DS -> SS_LEFT ...".
type SupportPhase int

// SupportPhase values.
const (
	SSLeft SupportPhase = iota
	DoubleSupport
	SSRight
)

func (p SupportPhase) String() string {
	switch p {
	case SSLeft:
		return "SS_LEFT"
	case DoubleSupport:
		return "DS"
	case SSRight:
		return "SS_RIGHT"
	default:
		return "UNKNOWN_PHASE"
	}
}

// PatternGeneratorState is the handoff point between ticks (spec.md §3).
type PatternGeneratorState struct {
	ComX, ComY [3]float64 // (x, ẋ, ẍ) and (y, ẏ, ÿ)
	ComHeight  float64
	ComYaw     [3]float64 // (q, q̇, q̈)

	FootX, FootY, FootYaw float64
	SupportFoot           SupportFoot
}

// Status is the solver outcome C2.Status() reports.
type Status int

// Status values.
const (
	StatusUnsolved Status = iota
	StatusSuccess
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusUnsolved:
		return "UNSOLVED"
	case StatusSuccess:
		return "SUCCESS"
	case StatusInfeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN_STATUS"
	}
}

// Config re-exports config.PatternGeneratorConfig so callers only need to
// import patterngen for the common case.
type Config = config.PatternGeneratorConfig
