package patterngen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"
)

func TestNewNMPCGeneratorInitializesHorizonBuffers(t *testing.T) {
	cfg := testConfig()
	g := NewNMPCGenerator(cfg, testInitialState())
	x, y := g.Jerks()
	test.That(t, x, test.ShouldHaveLength, cfg.PreviewLength)
	test.That(t, y, test.ShouldHaveLength, cfg.PreviewLength)
	fx, fy, fq := g.FootPlacements()
	test.That(t, fx, test.ShouldHaveLength, cfg.NumFootPositions)
	test.That(t, fy, test.ShouldHaveLength, cfg.NumFootPositions)
	test.That(t, fq, test.ShouldHaveLength, cfg.NumFootPositions)
	test.That(t, g.Status(), test.ShouldEqual, StatusUnsolved)
}

func TestSolveStandingStillStaysFeasible(t *testing.T) {
	cfg := testConfig()
	g := NewNMPCGenerator(cfg, testInitialState())
	g.SetVelocityReference(0, 0, 0)

	err := g.Solve()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Status(), test.ShouldEqual, StatusSuccess)

	x, y := g.Jerks()
	test.That(t, x, test.ShouldHaveLength, cfg.PreviewLength)
	test.That(t, y, test.ShouldHaveLength, cfg.PreviewLength)
}

func TestUpdateAdvancesSupportTimelineAndReportsSupport(t *testing.T) {
	cfg := testConfig()
	g := NewNMPCGenerator(cfg, testInitialState())
	g.SetVelocityReference(0.1, 0, 0)
	test.That(t, g.Solve(), test.ShouldBeNil)

	next := g.Update()

	test.That(t, g.stepsRemaining, test.ShouldEqual, g.stepsPerPhase-1)
	test.That(t, g.CurrentSupport().Foot, test.ShouldEqual, next.SupportFoot)
}

// qpDims is compared as a single struct via cmp.Equal rather than
// field-by-field, matching grpc/client/client_test.go's cmp.Equal idiom.
type qpDimsResult struct {
	N, NumFeet, D int
}

func TestQPDimsMatchDecisionVectorLayout(t *testing.T) {
	cfg := testConfig()
	g := NewNMPCGenerator(cfg, testInitialState())
	n, nf, d := g.qpDims()
	got := qpDimsResult{N: n, NumFeet: nf, D: d}
	want := qpDimsResult{N: cfg.PreviewLength, NumFeet: cfg.NumFootPositions, D: 2*cfg.PreviewLength + 2*cfg.NumFootPositions}
	test.That(t, cmp.Equal(got, want), test.ShouldBeTrue)
}
