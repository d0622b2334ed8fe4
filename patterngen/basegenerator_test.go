package patterngen

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/heicub/config"
)

func testConfig() config.PatternGeneratorConfig {
	return *config.DefaultPatternGeneratorConfig()
}

func testInitialState() PatternGeneratorState {
	return PatternGeneratorState{
		ComX:        [3]float64{0, 0, 0},
		ComY:        [3]float64{0, 0, 0},
		ComHeight:   0.46,
		FootX:       0,
		FootY:       -0.1,
		FootYaw:     0,
		SupportFoot: Left,
	}
}

func TestNewBaseGeneratorBuildsTimeInvariantPreview(t *testing.T) {
	cfg := testConfig()
	bg := NewBaseGenerator(cfg, testInitialState())
	test.That(t, bg.preview, test.ShouldNotBeNil)
	test.That(t, bg.N(), test.ShouldEqual, cfg.PreviewLength)
	test.That(t, bg.NumFootPositions(), test.ShouldEqual, cfg.NumFootPositions)
}

func TestPhaseTransitionsFromSSToDoubleSupport(t *testing.T) {
	cfg := testConfig()
	bg := NewBaseGenerator(cfg, testInitialState())

	sawDS := false
	for i := 0; i < bg.stepsPerPhase; i++ {
		if bg.Phase() == DoubleSupport {
			sawDS = true
		}
		bg.AdvanceSupportTimeline(Support{X: 0.1, Y: 0.1, Q: 0})
	}
	test.That(t, sawDS, test.ShouldBeTrue)
}

func TestAdvanceSupportTimelineFlipsFootOnExpiry(t *testing.T) {
	cfg := testConfig()
	bg := NewBaseGenerator(cfg, testInitialState())
	startFoot := bg.CurrentSupport().Foot

	for i := 0; i < bg.stepsPerPhase; i++ {
		bg.AdvanceSupportTimeline(Support{X: 0.2, Y: 0.2, Q: 0.1})
	}

	got := bg.CurrentSupport()
	test.That(t, got.Foot, test.ShouldEqual, startFoot.Opposite())
	test.That(t, got.X, test.ShouldEqual, 0.2)
	test.That(t, got.Y, test.ShouldEqual, 0.2)
	test.That(t, got.Q, test.ShouldEqual, 0.1)
}

func TestSupportTimelineIsOneHotPerRow(t *testing.T) {
	cfg := testConfig()
	bg := NewBaseGenerator(cfg, testInitialState())
	v := bg.supportTimeline()
	rows, cols := v.Dims()
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += v.At(i, j)
		}
		test.That(t, sum, test.ShouldEqual, 1.0)
	}
}

func TestSimulateMatchesTripleIntegratorByHand(t *testing.T) {
	cfg := testConfig()
	bg := NewBaseGenerator(cfg, testInitialState())
	bg.Simulate(1.0, 0.0)

	want := integrateTripleState([3]float64{0, 0, 0}, 1.0, cfg.T)
	test.That(t, bg.state.ComX[0], test.ShouldAlmostEqual, want[0], 1e-12)
	test.That(t, bg.state.ComX[1], test.ShouldAlmostEqual, want[1], 1e-12)
	test.That(t, bg.state.ComX[2], test.ShouldAlmostEqual, want[2], 1e-12)
}

func TestSetSecurityMarginShrinksFootPolygon(t *testing.T) {
	cfg := testConfig()
	bg := NewBaseGenerator(cfg, testInitialState())
	before := bg.footPolygonLocal
	bg.SetSecurityMargin(0.05, 0.05)
	after := bg.footPolygonLocal
	// A larger margin should shrink the polygon: every vertex x/y magnitude decreases.
	for i := range before.Vertices {
		test.That(t, abs(after.Vertices[i][0]), test.ShouldBeLessThanOrEqualTo, abs(before.Vertices[i][0]))
		test.That(t, abs(after.Vertices[i][1]), test.ShouldBeLessThanOrEqualTo, abs(before.Vertices[i][1]))
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
