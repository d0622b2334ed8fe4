package interpolation

import "math"

// SupportFoot mirrors patterngen.SupportFoot without importing it: the
// interpolator is driven by whatever component owns the landing schedule,
// it does not need C2's other state.
type SupportFoot int

// SupportFoot values.
const (
	Left SupportFoot = iota
	Right
)

// LandingEvent marks the preview-horizon step at which a new swing begins,
// naming which foot lifts and where it will land.
type LandingEvent struct {
	PreviewIndex                int
	Foot                        SupportFoot
	TargetX, TargetY, TargetYaw float64
}

// Interpolator is C3: it upsamples the preview-horizon CoM/jerk plan and
// foot landing schedule into command-rate Cartesian trajectories (spec.md
// §4.3).
type Interpolator struct {
	cfg Config

	currentInterval int

	comX, comY [3]float64 // command-rate LIPM state, own integrator distinct from C1's preview-rate one
	comHeight  float64

	leftFoot, rightFoot FootPose

	swingFoot    SupportFoot
	swingActive  bool
	swingElapsed float64
	tss          float64
	liftDur      float64
	dropDur      float64
	moveDur      float64

	startPose                   FootPose
	targetX, targetY, targetYaw float64
	qx, qy, qq                  quinticCoeffs
	qz                          quarticCoeffs
}

// NewInterpolator builds an Interpolator seeded with the current CoM height
// and both feet's poses (normally both at rest on the ground).
func NewInterpolator(cfg Config, comHeight float64, left, right FootPose) *Interpolator {
	return &Interpolator{
		cfg:       cfg,
		comHeight: comHeight,
		leftFoot:  left,
		rightFoot: right,
	}
}

// Intervals is the number of command-rate samples per preview-horizon
// sample: T / T_c rounded to the nearest integer, and at least 1.
func (ip *Interpolator) Intervals() int {
	n := int(math.Round(ip.cfg.T / ip.cfg.CommandPeriod))
	if n < 1 {
		n = 1
	}
	return n
}

// CurrentInterval is the rolling pointer InterpolatePerTick advances; C5
// checks `CurrentInterval() % Intervals() == 0` to decide when a new
// preview tick is due (spec.md §4.5 step 3).
func (ip *Interpolator) CurrentInterval() int { return ip.currentInterval }

// BeginSwing starts a new single-support swing for foot, targeting
// (targetX, targetY, targetYaw). It fits the quintic x/y/yaw splines and
// the quartic z lift profile from the foot's current pose (spec.md §4.3).
func (ip *Interpolator) BeginSwing(foot SupportFoot, targetX, targetY, targetYaw float64) {
	ip.swingFoot = foot
	ip.swingActive = true
	ip.swingElapsed = 0
	ip.targetX, ip.targetY, ip.targetYaw = targetX, targetY, targetYaw

	if foot == Left {
		ip.startPose = ip.leftFoot
	} else {
		ip.startPose = ip.rightFoot
	}

	ip.tss = ip.cfg.TStep - ip.cfg.TDoubleSupport
	if ip.tss < 0 {
		ip.tss = 0
	}
	ip.liftDur = 0.05 * ip.tss
	ip.dropDur = 0.05 * ip.tss
	ip.moveDur = ip.tss - ip.liftDur - ip.dropDur
	if ip.moveDur < 0 {
		ip.moveDur = 0
	}

	start := ip.startPose
	ip.qx = solveQuintic(start.X.Pos, start.X.Vel, start.X.Acc, targetX, 0, 0, ip.moveDur)
	ip.qy = solveQuintic(start.Y.Pos, start.Y.Vel, start.Y.Acc, targetY, 0, 0, ip.moveDur)
	ip.qq = solveQuintic(start.Yaw.Pos, start.Yaw.Vel, start.Yaw.Acc, targetYaw, 0, 0, ip.moveDur)
	ip.qz = solveQuartic(start.Z.Pos, start.Z.Vel, ip.cfg.StepHeight, ip.tss)
}

// endSwing snaps the swing foot onto its target with zero velocity and
// acceleration, matching the heel-strike invariant (spec.md §3: "swing foot
// z-height returns to zero at each heel-strike; support foot has zero
// velocity").
func (ip *Interpolator) endSwing() {
	landed := FootPose{
		X:   Derivatives{Pos: ip.targetX},
		Y:   Derivatives{Pos: ip.targetY},
		Z:   Derivatives{Pos: 0},
		Yaw: Derivatives{Pos: ip.targetYaw},
	}
	if ip.swingFoot == Left {
		ip.leftFoot = landed
	} else {
		ip.rightFoot = landed
	}
	ip.swingActive = false
}

// stepSwingFoot evaluates the swing foot's current pose given how much of
// the single-support phase has elapsed: hold during lift-off/drop-down,
// quintic/quartic motion in between (spec.md §4.3).
func (ip *Interpolator) stepSwingFoot() FootPose {
	t := ip.swingElapsed
	switch {
	case t < ip.liftDur:
		return FootPose{
			X:   Derivatives{Pos: ip.startPose.X.Pos},
			Y:   Derivatives{Pos: ip.startPose.Y.Pos},
			Yaw: Derivatives{Pos: ip.startPose.Yaw.Pos},
			Z:   ip.qz.eval(t),
		}
	case t < ip.liftDur+ip.moveDur:
		local := t - ip.liftDur
		return FootPose{
			X:   ip.qx.eval(local),
			Y:   ip.qy.eval(local),
			Yaw: ip.qq.eval(local),
			Z:   ip.qz.eval(t),
		}
	default:
		return FootPose{
			X:   Derivatives{Pos: ip.targetX},
			Y:   Derivatives{Pos: ip.targetY},
			Yaw: Derivatives{Pos: ip.targetYaw},
			Z:   ip.qz.eval(t),
		}
	}
}

// InterpolatePerTick fills one command-rate sample and advances the
// rolling interval pointer; the per-tick calling mode of spec.md §4.3.
func (ip *Interpolator) InterpolatePerTick(jerkX, jerkY float64) Sample {
	tc := ip.cfg.CommandPeriod
	ip.comX = tripleStep(ip.comX, jerkX, tc)
	ip.comY = tripleStep(ip.comY, jerkY, tc)

	hOverG := ip.cfg.HCom / ip.cfg.Gravity
	zmpX := ip.comX[0] - hOverG*ip.comX[2]
	zmpY := ip.comY[0] - hOverG*ip.comY[2]

	if ip.swingActive {
		pose := ip.stepSwingFoot()
		if ip.swingFoot == Left {
			ip.leftFoot = pose
		} else {
			ip.rightFoot = pose
		}
		ip.swingElapsed += tc
		if ip.swingElapsed >= ip.tss {
			ip.endSwing()
		}
	}

	// CoM yaw tracks whichever foot is further along its turn, so the torso
	// never lags the advancing foot (spec.md §4.3).
	comYaw := ip.leftFoot.Yaw
	if ip.rightFoot.Yaw.Pos > comYaw.Pos {
		comYaw = ip.rightFoot.Yaw
	}

	sample := Sample{
		ComX:      Derivatives{Pos: ip.comX[0], Vel: ip.comX[1], Acc: ip.comX[2]},
		ComY:      Derivatives{Pos: ip.comY[0], Vel: ip.comY[1], Acc: ip.comY[2]},
		ComZ:      Derivatives{Pos: ip.comHeight},
		ComYaw:    comYaw,
		ZmpX:      zmpX,
		ZmpY:      zmpY,
		ZmpZ:      0,
		LeftFoot:  ip.leftFoot,
		RightFoot: ip.rightFoot,
	}

	ip.currentInterval = (ip.currentInterval + 1) % ip.Intervals()
	return sample
}

// InterpolateWholeHorizon fills the entire preview horizon's worth of
// command-rate samples from scratch, triggering any landings scheduled
// inside the horizon at the right command-tick boundary. This is the
// whole-horizon calling mode of spec.md §4.3; mode choice is a policy of C5.
func (ip *Interpolator) InterpolateWholeHorizon(jerkX, jerkY []float64, landings []LandingEvent) []Sample {
	intervals := ip.Intervals()
	samples := make([]Sample, 0, len(jerkX)*intervals)
	landingIdx := 0
	for k := range jerkX {
		for landingIdx < len(landings) && landings[landingIdx].PreviewIndex == k {
			ev := landings[landingIdx]
			ip.BeginSwing(ev.Foot, ev.TargetX, ev.TargetY, ev.TargetYaw)
			landingIdx++
		}
		for m := 0; m < intervals; m++ {
			samples = append(samples, ip.InterpolatePerTick(jerkX[k], jerkY[k]))
		}
	}
	return samples
}

// tripleStep is the command-rate LIPM integrator, period T_c (spec.md
// §4.3): s_{k+1} = A s_k + B u with A = [[1,Tc,Tc²/2],[0,1,Tc],[0,0,1]],
// B = [Tc³/6, Tc²/2, Tc]. Kept distinct from patterngen's preview-rate
// integrator since the two run at different sample periods.
func tripleStep(s [3]float64, jerk, tc float64) [3]float64 {
	return [3]float64{
		s[0] + tc*s[1] + 0.5*tc*tc*s[2] + tc*tc*tc/6*jerk,
		s[1] + tc*s[2] + 0.5*tc*tc*jerk,
		s[2] + tc*jerk,
	}
}
