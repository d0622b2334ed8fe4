package ioboundary

import (
	"testing"

	"go.viam.com/test"
)

func TestLatestValueLastWriteWins(t *testing.T) {
	lv := NewLatestValue[int]()
	_, ok := lv.TryRead()
	test.That(t, ok, test.ShouldBeFalse)

	lv.Publish(1)
	lv.Publish(2)
	lv.Publish(3)

	v, ok := lv.TryRead()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 3)
}

func TestLatestValueNotifyCoalesces(t *testing.T) {
	lv := NewLatestValue[int]()
	lv.Publish(1)
	lv.Publish(2)
	lv.Publish(3)

	select {
	case <-lv.Notify():
	default:
		t.Fatal("expected a pending notification")
	}
	select {
	case <-lv.Notify():
		t.Fatal("expected no second notification: channel should coalesce")
	default:
	}
}

func TestStatusBoxDefault(t *testing.T) {
	b := NewStatusBox()
	test.That(t, b.Get(), test.ShouldEqual, NotConnected)
	b.Set(Initialized)
	test.That(t, b.Get(), test.ShouldEqual, Initialized)
}

func TestDegreeConversionRoundTrip(t *testing.T) {
	q := []float64{0, 0.5, -1.2, 3.0}
	deg := ToDegrees(q)
	back := FromDegrees(deg)
	for i := range q {
		test.That(t, back[i], test.ShouldAlmostEqual, q[i], 1e-12)
	}
}

func TestSeedPoseShape(t *testing.T) {
	q := SeedPose()
	test.That(t, q, test.ShouldHaveLength, 21)
	test.That(t, q[2], test.ShouldEqual, 0.6)
	test.That(t, q[9], test.ShouldEqual, -0.57)
}
