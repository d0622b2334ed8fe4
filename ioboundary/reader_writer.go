package ioboundary

import "context"

// JointReader is implemented by the (out-of-scope) robot-bus transport. The
// walking core only ever consumes this interface; spec.md §1 explicitly
// excludes the transport's own implementation from this module.
type JointReader interface {
	// Read returns the latest joint snapshot, or ok=false if the bus has
	// never produced one.
	Read(ctx context.Context) (snapshot JointSnapshot, ok bool, err error)
	MinAngles() []float64
	MaxAngles() []float64
}

// JointWriter is implemented by the (out-of-scope) robot-bus transport for
// publishing joint commands.
type JointWriter interface {
	Write(ctx context.Context, cmd JointCommand) error
}

// VelocityReader is implemented by the (out-of-scope) UI / phone-app
// control channel, the source of /vel in spec.md §6.
type VelocityReader interface {
	Read(ctx context.Context) (ref VelocityReference, ok bool)
}

// StatusPublisher is implemented by the (out-of-scope) UI, consuming
// /walking_processor/commands.
type StatusPublisher interface {
	PublishError(kind ErrorKind)
	PublishWarning(kind WarningKind)
}

// InMemoryJointBus is a trivial JointReader/JointWriter backed by
// LatestValue mailboxes, useful for wiring the walking loop together in
// tests and in the standalone example commands without a real robot bus.
type InMemoryJointBus struct {
	snapshots *LatestValue[JointSnapshot]
	commands  *LatestValue[JointCommand]
	minAngles []float64
	maxAngles []float64
}

// NewInMemoryJointBus builds an InMemoryJointBus with the given joint
// limits (spec.md §8 invariant 3).
func NewInMemoryJointBus(minAngles, maxAngles []float64) *InMemoryJointBus {
	return &InMemoryJointBus{
		snapshots: NewLatestValue[JointSnapshot](),
		commands:  NewLatestValue[JointCommand](),
		minAngles: minAngles,
		maxAngles: maxAngles,
	}
}

// PublishSnapshot is called by whatever stands in for the sensor-read task.
func (b *InMemoryJointBus) PublishSnapshot(s JointSnapshot) {
	b.snapshots.Publish(s)
}

// Read implements JointReader.
func (b *InMemoryJointBus) Read(ctx context.Context) (JointSnapshot, bool, error) {
	s, ok := b.snapshots.TryRead()
	return s, ok, nil
}

// MinAngles implements JointReader.
func (b *InMemoryJointBus) MinAngles() []float64 { return b.minAngles }

// MaxAngles implements JointReader.
func (b *InMemoryJointBus) MaxAngles() []float64 { return b.maxAngles }

// Write implements JointWriter.
func (b *InMemoryJointBus) Write(ctx context.Context, cmd JointCommand) error {
	b.commands.Publish(cmd)
	return nil
}

// LastCommand returns the most recently written command, for the
// (otherwise out-of-scope) actuator-write task to pull from.
func (b *InMemoryJointBus) LastCommand() (JointCommand, bool) {
	return b.commands.TryRead()
}

// NotifySnapshots exposes the walking loop's trigger channel: "the
// walking-loop task [is] driven as a callback each time a new snapshot
// arrives (triggered, not polled)" (spec.md §5).
func (b *InMemoryJointBus) NotifySnapshots() <-chan struct{} {
	return b.snapshots.Notify()
}
