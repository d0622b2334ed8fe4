package ioboundary

import "sync"

// LatestValue is a last-value-wins mailbox modeling the wire channels of
// spec.md §5/§6: "every published CoM state and joint target ... consumers
// take the most recent ... all channels are last-value-wins." It plays the
// same role YARP's BufferedPort plays in original_source's reader.h,
// without requiring YARP.
type LatestValue[T any] struct {
	mu      sync.Mutex
	value   T
	has     bool
	waiters chan struct{}
}

// NewLatestValue builds an empty mailbox.
func NewLatestValue[T any]() *LatestValue[T] {
	return &LatestValue[T]{waiters: make(chan struct{}, 1)}
}

// Publish overwrites whatever value is currently held; a stale reader that
// hasn't consumed the previous value simply loses it, matching the
// "no queue buildup" backpressure rule of spec.md §5.
func (l *LatestValue[T]) Publish(v T) {
	l.mu.Lock()
	l.value = v
	l.has = true
	l.mu.Unlock()
	select {
	case l.waiters <- struct{}{}:
	default:
	}
}

// TryRead returns the most recently published value without blocking. ok is
// false if nothing has ever been published.
func (l *LatestValue[T]) TryRead() (v T, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.has
}

// Notify returns a channel that receives one signal per Publish call (coalesced
// if the reader falls behind), for the "triggered, not polled" walking-loop
// task of spec.md §5.
func (l *LatestValue[T]) Notify() <-chan struct{} {
	return l.waiters
}

// StatusBox guards the UI/robot status behind a single lock taken only
// during callback critical sections (spec.md §5, §9).
type StatusBox struct {
	mu     sync.Mutex
	status RobotStatus
}

// NewStatusBox builds a StatusBox starting in NotConnected.
func NewStatusBox() *StatusBox {
	return &StatusBox{status: NotConnected}
}

// Get returns the current status.
func (b *StatusBox) Get() RobotStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Set overwrites the current status.
func (b *StatusBox) Set(s RobotStatus) {
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
}
