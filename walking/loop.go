package walking

import (
	"context"
	"errors"

	"github.com/edaniels/golog"
	"github.com/go-gl/mathgl/mgl64"

	"go.viam.com/heicub/interpolation"
	"go.viam.com/heicub/ioboundary"
	"go.viam.com/heicub/kinematics"
	"go.viam.com/heicub/patterngen"
	"go.viam.com/heicub/spatialmath"
)

// Loop is C5: it owns C2-C4 single-threaded and drives them once per
// command tick (spec.md §4.5).
type Loop struct {
	logger golog.Logger

	status      *ioboundary.StatusBox
	jointReader ioboundary.JointReader
	jointWriter ioboundary.JointWriter
	velReader   ioboundary.VelocityReader
	statusPub   ioboundary.StatusPublisher

	pg    *patterngen.NMPCGenerator
	ip    *interpolation.Interpolator
	model *kinematics.Model
	ik    *kinematics.IK

	lastVel         ioboundary.VelocityReference
	prevSupport     patterngen.SupportFoot
	haveSeenSupport bool

	// actuatedIndices carves the 15 physical joint commands out of the
	// model's full floating-base q-vector (config.IOConfig.ActuatedIndices);
	// see DefaultModelDescription for why q has 6 virtual DoF ahead of them.
	actuatedIndices []int

	onWarning func(ioboundary.WarningKind)
}

// NewLoop wires together C2-C4 and the I/O boundary into a single walking
// loop. actuatedIndices is the 21->15 mapping from config.IOConfig.
func NewLoop(
	logger golog.Logger,
	status *ioboundary.StatusBox,
	jointReader ioboundary.JointReader,
	jointWriter ioboundary.JointWriter,
	velReader ioboundary.VelocityReader,
	statusPub ioboundary.StatusPublisher,
	pg *patterngen.NMPCGenerator,
	ip *interpolation.Interpolator,
	model *kinematics.Model,
	ik *kinematics.IK,
	actuatedIndices []int,
) *Loop {
	return &Loop{
		logger:          logger,
		status:          status,
		jointReader:     jointReader,
		jointWriter:     jointWriter,
		velReader:       velReader,
		statusPub:       statusPub,
		pg:              pg,
		ip:              ip,
		model:           model,
		ik:              ik,
		actuatedIndices: actuatedIndices,
	}
}

// actuatedJoints carves the physical joint subset out of a full q-vector,
// dropping the floating-base DoF the wire format has no room for.
func (l *Loop) actuatedJoints(q []float64) []float64 {
	out := make([]float64, len(l.actuatedIndices))
	for i, idx := range l.actuatedIndices {
		out[i] = q[idx]
	}
	return out
}

// OnWarning registers a callback invoked whenever Step reports a
// non-fatal warning (spec.md §7: warnings are reported, not returned as
// errors).
func (l *Loop) OnWarning(f func(ioboundary.WarningKind)) { l.onWarning = f }

// publishSeedPose publishes the hard-coded crouched seed pose so the robot
// settles into a known configuration before walking begins (spec.md §4.5
// "During NOT_INITIALIZED: C5 runs IK once against a hard-coded crouched
// seed pose ... and publishes that as the initial target"). Since
// ioboundary.SeedPose already yields the joint vector directly, "running IK
// once" against it is a no-op: the IK target would be that configuration's
// own forward kinematics, so C5 publishes it straight through.
func (l *Loop) publishSeedPose(ctx context.Context) error {
	seed := ioboundary.SeedPose()
	cmd := ioboundary.JointCommand{Q: ioboundary.ToDegrees(l.actuatedJoints(seed))}
	return l.jointWriter.Write(ctx, cmd)
}

// EmergencyStop is the broadcast interrupt of spec.md §5: it zeroes the
// velocity reference and drops back to NOT_INITIALIZED without touching
// the last-published joint command, leaving the robot in a safe pose. It
// is the one state transition C5 itself makes; every other transition in
// spec.md §4.5's state machine is driven by the external command channel.
func (l *Loop) EmergencyStop() {
	l.lastVel = ioboundary.VelocityReference{}
	l.status.Set(ioboundary.NotInitialized)
}

// Step runs one command tick. Only ioboundary.Initialized enables motion
// (spec.md §4.5: "Transitions are driven by external commands; only
// INITIALIZED enables motion"); NotInitialized instead holds the seed pose;
// every other status is a no-op here, since NOT_CONNECTED, INITIALIZING,
// and STOPPING are owned by the (out-of-scope) external command channel.
// Fatal conditions are returned as *FatalError, warnings go through the
// OnWarning callback instead.
func (l *Loop) Step(ctx context.Context) error {
	switch l.status.Get() {
	case ioboundary.NotInitialized:
		return l.publishSeedPose(ctx)
	case ioboundary.Initialized:
	default:
		return nil
	}

	if v, ok := l.velReader.Read(ctx); ok {
		l.lastVel = v
	}
	l.pg.SetVelocityReference(l.lastVel.Vx, l.lastVel.Vy, l.lastVel.Vyaw)

	var measuredComX, measuredComY float64
	haveMeasured := false
	if snapshot, ok, err := l.jointReader.Read(ctx); err != nil {
		return err
	} else if ok {
		fk := l.model.Forward(snapshot.Q)
		measuredComX, measuredComY = fk.ComPos[0], fk.ComPos[1]
		haveMeasured = true
	}

	if l.ip.CurrentInterval()%l.ip.Intervals() == 0 {
		if err := l.solveAndAdvance(measuredComX, measuredComY, haveMeasured); err != nil {
			return err
		}
	}

	jerkX, jerkY := firstOrZero(l.pg.Jerks())
	sample := l.ip.InterpolatePerTick(jerkX, jerkY)

	target := sampleToTarget(sample)
	q, converged := l.ik.Inverse(target)
	if !converged {
		l.statusPub.PublishWarning(ioboundary.IKDidNotConverge)
		if l.onWarning != nil {
			l.onWarning(ioboundary.IKDidNotConverge)
		}
	}

	actuated := l.actuatedJoints(q)
	if violatesLimits(actuated, l.jointReader.MinAngles(), l.jointReader.MaxAngles()) {
		l.statusPub.PublishError(ioboundary.HardwareLimits)
		return &FatalError{Kind: ioboundary.HardwareLimits, Err: errors.New("joint command outside configured limits")}
	}

	return l.jointWriter.Write(ctx, ioboundary.JointCommand{Q: ioboundary.ToDegrees(actuated)})
}

// solveAndAdvance runs C2's solve/simulate/update for a new preview tick,
// optionally injecting the measured CoM feedback (spec.md §4.5 step 3),
// and starts a new swing in C3 whenever the support foot just rotated.
func (l *Loop) solveAndAdvance(measuredComX, measuredComY float64, haveMeasured bool) error {
	if haveMeasured {
		state := l.pg.State()
		state.ComX[0] = measuredComX
		state.ComY[0] = measuredComY
		l.pg.SetInitialValues(state)
	}

	if err := l.pg.Solve(); err != nil {
		l.statusPub.PublishError(ioboundary.QPInfeasible)
		return &FatalError{Kind: ioboundary.QPInfeasible, Err: err}
	}

	jerkX, jerkY := firstOrZero(l.pg.Jerks())
	l.pg.Simulate(jerkX, jerkY)
	newState := l.pg.Update()

	if l.haveSeenSupport && newState.SupportFoot != l.prevSupport {
		fx, fy, fq := l.pg.FootPlacements()
		if len(fx) > 0 {
			swingFoot := interpolation.Left
			if newState.SupportFoot == patterngen.Left {
				swingFoot = interpolation.Right
			}
			l.ip.BeginSwing(swingFoot, fx[0], fy[0], fq[0])
		}
	}
	l.prevSupport = newState.SupportFoot
	l.haveSeenSupport = true
	return nil
}

func firstOrZero(x, y []float64) (float64, float64) {
	var vx, vy float64
	if len(x) > 0 {
		vx = x[0]
	}
	if len(y) > 0 {
		vy = y[0]
	}
	return vx, vy
}

func sampleToTarget(s interpolation.Sample) kinematics.Target {
	comOri := spatialmath.YawQuat(s.ComYaw.Pos)
	return kinematics.Target{
		ComPos:  mgl64.Vec3{s.ComX.Pos, s.ComY.Pos, s.ComZ.Pos},
		ComOri:  comOri,
		RootOri: comOri,
		LfPos:   mgl64.Vec3{s.LeftFoot.X.Pos, s.LeftFoot.Y.Pos, s.LeftFoot.Z.Pos},
		LfOri:   spatialmath.YawQuat(s.LeftFoot.Yaw.Pos),
		RfPos:   mgl64.Vec3{s.RightFoot.X.Pos, s.RightFoot.Y.Pos, s.RightFoot.Z.Pos},
		RfOri:   spatialmath.YawQuat(s.RightFoot.Yaw.Pos),
	}
}

func violatesLimits(q, min, max []float64) bool {
	if len(min) != len(q) || len(max) != len(q) {
		return false
	}
	for i, v := range q {
		if v < min[i] || v > max[i] {
			return true
		}
	}
	return false
}

// Run drives Step off a triggered snapshot-notify channel rather than
// polling, matching spec.md §5's "walking-loop task ... triggered, not
// polled." estop carries the emergency-stop broadcast.
func (l *Loop) Run(ctx context.Context, notify <-chan struct{}, estop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-estop:
			l.EmergencyStop()
		case <-notify:
			if err := l.Step(ctx); err != nil {
				var fatal *FatalError
				if errors.As(err, &fatal) {
					l.logger.Errorw("walking loop fatal error", "kind", fatal.Kind.String(), "err", fatal.Err)
					l.status.Set(ioboundary.NotInitialized)
					return
				}
				l.logger.Errorw("walking loop step error", "err", err)
			}
		}
	}
}
