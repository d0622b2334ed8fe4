package interpolation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"go.viam.com/heicub/config"
)

func testConfig() Config {
	return *config.DefaultPatternGeneratorConfig()
}

func TestIntervalsMatchesPeriodRatio(t *testing.T) {
	cfg := testConfig()
	ip := NewInterpolator(cfg, cfg.HCom, FootPose{}, FootPose{})
	want := int(cfg.T/cfg.CommandPeriod + 0.5)
	test.That(t, ip.Intervals(), test.ShouldEqual, want)
}

func TestNewInterpolatorRetainsGivenFootPoses(t *testing.T) {
	cfg := testConfig()
	left := FootPose{X: Derivatives{Pos: 0.1}, Y: Derivatives{Pos: 0.05}}
	right := FootPose{X: Derivatives{Pos: -0.1}, Y: Derivatives{Pos: -0.05}}
	ip := NewInterpolator(cfg, cfg.HCom, left, right)

	test.That(t, cmp.Equal(ip.leftFoot, left), test.ShouldBeTrue)
	test.That(t, cmp.Equal(ip.rightFoot, right), test.ShouldBeTrue)
}

func TestInterpolatePerTickMatchesLIPMZMPRelation(t *testing.T) {
	cfg := testConfig()
	ip := NewInterpolator(cfg, cfg.HCom, FootPose{}, FootPose{})

	s := ip.InterpolatePerTick(0.5, -0.2)

	hOverG := cfg.HCom / cfg.Gravity
	wantZmpX := s.ComX.Pos - hOverG*s.ComX.Acc
	test.That(t, s.ZmpX, test.ShouldAlmostEqual, wantZmpX, 1e-9)
}

func TestCurrentIntervalWrapsAtIntervals(t *testing.T) {
	cfg := testConfig()
	ip := NewInterpolator(cfg, cfg.HCom, FootPose{}, FootPose{})
	intervals := ip.Intervals()

	for i := 0; i < intervals; i++ {
		ip.InterpolatePerTick(0, 0)
	}
	test.That(t, ip.CurrentInterval(), test.ShouldEqual, 0)
}

func TestSwingFootReturnsToZeroHeightAtHeelStrike(t *testing.T) {
	cfg := testConfig()
	ip := NewInterpolator(cfg, cfg.HCom, FootPose{}, FootPose{Y: Derivatives{Pos: -0.1}})
	ip.BeginSwing(Left, 0.05, 0.0, 0.0)

	var last Sample
	tss := cfg.TStep - cfg.TDoubleSupport
	steps := int(tss/cfg.CommandPeriod) + 2
	for i := 0; i < steps; i++ {
		last = ip.InterpolatePerTick(0, 0)
	}

	test.That(t, last.LeftFoot.Z.Pos, test.ShouldAlmostEqual, 0.0, 1e-6)
	test.That(t, last.LeftFoot.X.Pos, test.ShouldAlmostEqual, 0.05, 1e-6)
	test.That(t, ip.swingActive, test.ShouldBeFalse)
}

func TestSwingFootLiftsDuringMotionPhase(t *testing.T) {
	cfg := testConfig()
	ip := NewInterpolator(cfg, cfg.HCom, FootPose{}, FootPose{})
	ip.BeginSwing(Left, 0.1, 0, 0)

	midTicks := int(ip.tss / 2 / cfg.CommandPeriod)
	var mid Sample
	for i := 0; i < midTicks; i++ {
		mid = ip.InterpolatePerTick(0, 0)
	}
	test.That(t, mid.LeftFoot.Z.Pos, test.ShouldBeGreaterThan, 0.0)
}

func TestInterpolateWholeHorizonProducesNTimesIntervalsSamples(t *testing.T) {
	cfg := testConfig()
	ip := NewInterpolator(cfg, cfg.HCom, FootPose{}, FootPose{})
	n := cfg.PreviewLength
	jerkX := make([]float64, n)
	jerkY := make([]float64, n)

	samples := ip.InterpolateWholeHorizon(jerkX, jerkY, nil)
	test.That(t, samples, test.ShouldHaveLength, n*ip.Intervals())
}

func TestComYawTracksTheMoreAdvancedFoot(t *testing.T) {
	cfg := testConfig()
	ip := NewInterpolator(cfg, cfg.HCom, FootPose{Yaw: Derivatives{Pos: 0.2}}, FootPose{Yaw: Derivatives{Pos: 0.05}})
	s := ip.InterpolatePerTick(0, 0)
	test.That(t, s.ComYaw.Pos, test.ShouldAlmostEqual, 0.2, 1e-9)
}
