package vwatchdog

import (
	"context"
	"errors"
	"fmt"
)

// ForcedTerminationError is the context cancellation cause
// when [*Watchdog.Terminate] is called directly.
type ForcedTerminationError struct {
	Reason string
}

func (e ForcedTerminationError) Error() string {
	return fmt.Sprintf("forced termination: %s", e.Reason)
}

// TimeoutError is the context cancellation cause
// when a monitored subsystem fails to acknowledge a signal in time.
type TimeoutError struct {
	Name string
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("subsystem %q failed to respond to watchdog signal", e.Name)
}

// IsTermination reports whether ctx was cancelled by the watchdog,
// either by forced termination or by a monitor timeout.
func IsTermination(ctx context.Context) bool {
	cause := context.Cause(ctx)
	return errors.As(cause, new(ForcedTerminationError)) ||
		errors.As(cause, new(TimeoutError))
}
