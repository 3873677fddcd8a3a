// Package vlog contains small shorthands for log fields
// that recur throughout the simulator.
package vlog

import (
	"fmt"
	"log/slog"
)

// ES returns a copy of log that includes fields for the given epoch and slot.
//
// This is a convenient shorthand in many log calls where
// the epoch and slot are pertinent details.
func ES(log *slog.Logger, epoch uint64, slot uint32) *slog.Logger {
	return log.With("epoch", epoch, "slot", slot)
}

// ESE returns a copy of log that includes fields for the given epoch, slot, and error.
func ESE(log *slog.Logger, epoch uint64, slot uint32, e error) *slog.Logger {
	return log.With("epoch", epoch, "slot", slot, "err", e)
}

// Hex wraps a byte slice to ensure it serializes as a hex-encoded string.
// Without this, it gets rendered as a Unicode string with embedded escape codes.
type Hex []byte

func (v Hex) LogValue() slog.Value {
	return slog.StringValue(fmt.Sprintf("%x", v))
}
