package vclock

import "time"

// Clock is the virtual time source backing a [Scheduler].
//
// Using a plain [time.Timer] would be simpler,
// but that would pose difficulty in fine-grained control of time during tests,
// so the scheduler only observes time through this interface.
// Production code uses [WallClock];
// tests substitute the manual clock in the vclocktest package.
type Clock interface {
	// Now returns the current virtual time.
	// It must be monotonically non-decreasing.
	Now() time.Time

	// After returns a channel that receives once d has elapsed,
	// and a cancel function that must be called to release resources
	// if the channel is abandoned before it fires.
	After(d time.Duration) (<-chan time.Time, func())
}

// WallClock is the production [Clock], backed by the real time package.
type WallClock struct{}

func (WallClock) Now() time.Time {
	return time.Now()
}

func (WallClock) After(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}
