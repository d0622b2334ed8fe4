package walking

import (
	"context"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.uber.org/goleak"
	"go.viam.com/test"

	"go.viam.com/heicub/config"
	"go.viam.com/heicub/interpolation"
	"go.viam.com/heicub/ioboundary"
	"go.viam.com/heicub/kinematics"
	"go.viam.com/heicub/patterngen"
)

// TestMain leak-checks every test in the package, including the goroutine
// TestRunStopsOnFatalErrorAndDropsStatus spawns around Loop.Run
// (cmd/walkingloop/main.go's utils.PanicCapturingGo wraps the same call in
// production).
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixedVelocityReader struct {
	ref ioboundary.VelocityReference
	ok  bool
}

func (r fixedVelocityReader) Read(ctx context.Context) (ioboundary.VelocityReference, bool) {
	return r.ref, r.ok
}

type recordingStatusPublisher struct {
	errors   []ioboundary.ErrorKind
	warnings []ioboundary.WarningKind
}

func (p *recordingStatusPublisher) PublishError(kind ioboundary.ErrorKind) {
	p.errors = append(p.errors, kind)
}

func (p *recordingStatusPublisher) PublishWarning(kind ioboundary.WarningKind) {
	p.warnings = append(p.warnings, kind)
}

func testPatternGeneratorConfig() config.PatternGeneratorConfig {
	cfg := *config.DefaultPatternGeneratorConfig()
	cfg.CPUTime = 0.05
	return cfg
}

func testInitialState() patterngen.PatternGeneratorState {
	return patterngen.PatternGeneratorState{
		ComHeight:   0.46,
		FootX:       0,
		FootY:       -0.1,
		SupportFoot: patterngen.Left,
	}
}

func newTestLoop(t *testing.T) (*Loop, *ioboundary.InMemoryJointBus, *recordingStatusPublisher, *ioboundary.StatusBox) {
	t.Helper()

	cfg := testPatternGeneratorConfig()
	pg := patterngen.NewNMPCGenerator(cfg, testInitialState())

	model := kinematics.NewModel(kinematics.DefaultModelDescription())
	ikCfg := config.KinematicsConfig{
		StepTol:      1e-6,
		Lambda:       0.01,
		NumSteps:     50,
		NInit:        2,
		ComBodyPoint: []float64{0, 0, -0.4},
		LfBodyPoint:  []float64{0, 0, 0},
		RfBodyPoint:  []float64{0, 0, 0},
	}
	ik := kinematics.NewIK(model, ikCfg)

	left := interpolation.FootPose{X: interpolation.Derivatives{Pos: 0}, Y: interpolation.Derivatives{Pos: 0.1}}
	right := interpolation.FootPose{X: interpolation.Derivatives{Pos: 0}, Y: interpolation.Derivatives{Pos: -0.1}}
	ip := interpolation.NewInterpolator(cfg, 0.46, left, right)

	actuatedIndices := config.DefaultIOConfig().ActuatedIndices()
	minAngles := make([]float64, len(actuatedIndices))
	maxAngles := make([]float64, len(actuatedIndices))
	for i := range minAngles {
		minAngles[i] = -3.14
		maxAngles[i] = 3.14
	}
	bus := ioboundary.NewInMemoryJointBus(minAngles, maxAngles)

	status := ioboundary.NewStatusBox()
	statusPub := &recordingStatusPublisher{}
	vel := fixedVelocityReader{ok: false}

	loop := NewLoop(golog.NewTestLogger(t), status, bus, bus, vel, statusPub, pg, ip, model, ik, actuatedIndices)
	return loop, bus, statusPub, status
}

func TestStepIsNoOpOutsideInitializedAndNotInitialized(t *testing.T) {
	loop, bus, _, status := newTestLoop(t)
	status.Set(ioboundary.Initializing)

	err := loop.Step(context.Background())
	test.That(t, err, test.ShouldBeNil)

	_, ok := bus.LastCommand()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestStepPublishesSeedPoseWhileNotInitialized(t *testing.T) {
	loop, bus, _, status := newTestLoop(t)
	status.Set(ioboundary.NotInitialized)

	test.That(t, loop.Step(context.Background()), test.ShouldBeNil)
	test.That(t, status.Get(), test.ShouldEqual, ioboundary.NotInitialized)

	cmd, ok := bus.LastCommand()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, cmd.Q, test.ShouldResemble, ioboundary.ToDegrees(loop.actuatedJoints(ioboundary.SeedPose())))
}

func TestStepPublishesAJointCommandWhenInitialized(t *testing.T) {
	loop, bus, statusPub, status := newTestLoop(t)
	status.Set(ioboundary.Initialized)

	test.That(t, loop.Step(context.Background()), test.ShouldBeNil)

	cmd, ok := bus.LastCommand()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, cmd.Q, test.ShouldHaveLength, 15)
	test.That(t, statusPub.errors, test.ShouldBeEmpty)
}

func TestEmergencyStopZeroesVelocityAndDropsStatus(t *testing.T) {
	loop, _, _, status := newTestLoop(t)
	status.Set(ioboundary.Initialized)
	loop.lastVel = ioboundary.VelocityReference{Vx: 1, Vy: 1, Vyaw: 1}

	loop.EmergencyStop()

	test.That(t, status.Get(), test.ShouldEqual, ioboundary.NotInitialized)
	test.That(t, loop.lastVel, test.ShouldResemble, ioboundary.VelocityReference{})
}

func TestStepRunsManyTicksWithoutFatalError(t *testing.T) {
	loop, _, statusPub, status := newTestLoop(t)
	status.Set(ioboundary.Initialized)

	intervals := loop.ip.Intervals()
	for i := 0; i < intervals*3; i++ {
		test.That(t, loop.Step(context.Background()), test.ShouldBeNil)
	}
	test.That(t, statusPub.errors, test.ShouldBeEmpty)
}

func TestRunStopsOnFatalErrorAndDropsStatus(t *testing.T) {
	loop, _, _, status := newTestLoop(t)
	status.Set(ioboundary.Initialized)
	// Force every joint command to look like a limit violation.
	loop.jointReader = fatalLimitsReader{inner: loop.jointReader.(*ioboundary.InMemoryJointBus)}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	notify := make(chan struct{}, 1)
	estop := make(chan struct{})
	notify <- struct{}{}

	done := make(chan struct{})
	go func() {
		loop.Run(ctx, notify, estop)
		close(done)
	}()

	select {
	case <-done:
		test.That(t, status.Get(), test.ShouldEqual, ioboundary.NotInitialized)
	case <-ctx.Done():
		t.Fatal("Run did not return after a fatal Step error")
	}
}

// fatalLimitsReader wraps a JointReader but reports limits so tight no IK
// solution can satisfy them, forcing Step's HARDWARE_LIMITS path.
type fatalLimitsReader struct {
	inner *ioboundary.InMemoryJointBus
}

func (f fatalLimitsReader) Read(ctx context.Context) (ioboundary.JointSnapshot, bool, error) {
	return f.inner.Read(ctx)
}

func (f fatalLimitsReader) MinAngles() []float64 { return make([]float64, 15) }
func (f fatalLimitsReader) MaxAngles() []float64 { return make([]float64, 15) }
