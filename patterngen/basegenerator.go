package patterngen

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"go.viam.com/heicub/spatialmath"
)

// Support describes the currently active stance foot.
type Support struct {
	Foot SupportFoot
	X, Y, Q float64
}

// BaseGenerator is C1: the linear-algebra building blocks shared by every
// QP tick (spec.md §4.1). Model and preview matrices are built once in
// NewBaseGenerator and never freed; horizon buffers are allocated once and
// rewritten in place.
type BaseGenerator struct {
	cfg Config
	n   int // preview length N
	nf  int // number of foot landings inside the horizon

	preview *previewMatrices

	stepsPerPhase int
	stepsRemaining int

	state   PatternGeneratorState
	support Support

	securityMarginX, securityMarginY float64

	footPolygonLocal        spatialmath.Polygon2D // shrunk rectangle, foot-local frame
	reachabilityPolygonLocal spatialmath.Polygon2D // relative to previous stance

	// velocityReference is the body-frame (vx, vy, vyaw) tracking goal.
	velocityReference [3]float64
}

// NewBaseGenerator builds the time-invariant preview machinery from cfg and
// an initial PatternGeneratorState.
func NewBaseGenerator(cfg Config, initial PatternGeneratorState) *BaseGenerator {
	stepsPerPhase := int(math.Round(cfg.TStep / cfg.T))
	if stepsPerPhase < 1 {
		stepsPerPhase = 1
	}
	bg := &BaseGenerator{
		cfg:             cfg,
		n:               cfg.PreviewLength,
		nf:              cfg.NumFootPositions,
		preview:         buildPreviewMatrices(cfg.PreviewLength, cfg.T, cfg.HCom, cfg.Gravity),
		stepsPerPhase:   stepsPerPhase,
		stepsRemaining:  stepsPerPhase,
		state:           initial,
		securityMarginX: cfg.SecurityMarginX,
		securityMarginY: cfg.SecurityMarginY,
		footPolygonLocal: spatialmath.Rectangle(cfg.SupportHalfX, cfg.SupportHalfY).
			Shrink(cfg.SecurityMarginX, cfg.SecurityMarginY),
		reachabilityPolygonLocal: spatialmath.Rectangle(cfg.ReachabilityHalfX, cfg.ReachabilityHalfY),
	}
	bg.support = Support{Foot: initial.SupportFoot, X: initial.FootX, Y: initial.FootY, Q: initial.FootYaw}
	return bg
}

// SetSecurityMargin shrinks the support polygons (spec.md §4.2
// SetSecurityMargin contract).
func (bg *BaseGenerator) SetSecurityMargin(mx, my float64) {
	bg.securityMarginX, bg.securityMarginY = mx, my
	bg.footPolygonLocal = spatialmath.Rectangle(bg.cfg.SupportHalfX, bg.cfg.SupportHalfY).Shrink(mx, my)
}

// SetInitialValues writes the initial CoM, yaw, and support-foot state.
func (bg *BaseGenerator) SetInitialValues(state PatternGeneratorState) {
	bg.state = state
	bg.support = Support{Foot: state.SupportFoot, X: state.FootX, Y: state.FootY, Q: state.FootYaw}
}

// SetVelocityReference sets the tracking goal (body-frame).
func (bg *BaseGenerator) SetVelocityReference(vx, vy, vomega float64) {
	bg.velocityReference = [3]float64{vx, vy, vomega}
}

// State returns the current PatternGeneratorState.
func (bg *BaseGenerator) State() PatternGeneratorState { return bg.state }

// CurrentSupport returns the active stance foot.
func (bg *BaseGenerator) CurrentSupport() Support { return bg.support }

// N is the preview horizon length.
func (bg *BaseGenerator) N() int { return bg.n }

// NumFootPositions is the number of foot landings decided inside the
// horizon.
func (bg *BaseGenerator) NumFootPositions() int { return bg.nf }

// Config returns the configuration the generator was built from.
func (bg *BaseGenerator) Config() Config { return bg.cfg }

// TimeTillPhaseEnd is the remaining time, in seconds, in the current
// support phase.
func (bg *BaseGenerator) TimeTillPhaseEnd() float64 {
	return float64(bg.stepsRemaining) * bg.cfg.T
}

// Phase reports the current support-phase state, derived deterministically
// from the preview timing (spec.md §4.1): double support is detected when
// the time remaining in the current phase, counted from the start of the
// current preview tick, is no more than t_ds.
func (bg *BaseGenerator) Phase() SupportPhase {
	if bg.TimeTillPhaseEnd() <= bg.cfg.TDoubleSupport {
		return DoubleSupport
	}
	if bg.support.Foot == Left {
		return SSLeft
	}
	return SSRight
}

// supportTimeline builds V: an N x (Nf+1) one-hot matrix indicating, for
// each horizon step, which landing (0 = current support, 1..Nf = future
// landings) it belongs to.
func (bg *BaseGenerator) supportTimeline() *mat.Dense {
	v := mat.NewDense(bg.n, bg.nf+1, nil)
	for k := 0; k < bg.n; k++ {
		idx := 0
		if k >= bg.stepsRemaining {
			idx = 1 + (k-bg.stepsRemaining)/bg.stepsPerPhase
			if idx > bg.nf {
				idx = bg.nf
			}
		}
		v.Set(k, idx, 1)
	}
	return v
}

// AdvanceSupportTimeline moves the timeline forward by one preview tick; if
// the leading step has expired, support rotates (left<->right), newLanding
// becomes the stance foot, and the phase countdown restarts. This is called
// once per Update().
func (bg *BaseGenerator) AdvanceSupportTimeline(newLanding Support) {
	bg.stepsRemaining--
	if bg.stepsRemaining <= 0 {
		bg.support = Support{Foot: bg.support.Foot.Opposite(), X: newLanding.X, Y: newLanding.Y, Q: newLanding.Q}
		bg.stepsRemaining = bg.stepsPerPhase
	}
}

// Simulate advances the internal CoM state by one sample of period T using
// the first applied jerk. Update() does not call it: callers apply it before
// Update() to roll the CoM state forward one tick.
func (bg *BaseGenerator) Simulate(jerkX, jerkY float64) {
	bg.state.ComX = integrateTripleState(bg.state.ComX, jerkX, bg.cfg.T)
	bg.state.ComY = integrateTripleState(bg.state.ComY, jerkY, bg.cfg.T)
}

func integrateTripleState(s [3]float64, jerk, t float64) [3]float64 {
	return [3]float64{
		s[0] + t*s[1] + 0.5*t*t*s[2] + t*t*t/6*jerk,
		s[1] + t*s[2] + 0.5*t*t*jerk,
		s[2] + t*jerk,
	}
}
