package vclock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veld-engine/veld/internal/vlog"
	"github.com/veld-engine/veld/vwatchdog"
)

const (
	// driftDelay is applied twice before a drift-corrected callback,
	// so that drift-uncorrected schedulers (the epoch/slot announcer)
	// log the slot transition first.
	// This is a cosmetic ordering aid, not a correctness requirement.
	driftDelay = 25 * time.Millisecond

	// callbackBackoff is how long the scheduler waits
	// after a callback failure before resuming periodic scheduling.
	callbackBackoff = 5 * time.Second
)

// SchedulerConfig assembles everything a [Scheduler] needs.
// SystemStart is an explicit per-instance value:
// all schedulers of one simulation share the same anchor,
// but nothing about it is process-global.
type SchedulerConfig struct {
	Clock Clock

	// SystemStart is the shared reference instant of slot 0 of epoch 0.
	SystemStart time.Time

	Params Params

	// Watchdog, if non-nil, delivers liveness signals that the
	// scheduler acknowledges while waiting between slot boundaries.
	Watchdog <-chan vwatchdog.Signal
}

// Scheduler invokes a callback once per slot boundary, forever.
type Scheduler struct {
	log *slog.Logger

	clock Clock
	start time.Time
	p     Params

	watchdog <-chan vwatchdog.Signal
}

// NewScheduler validates cfg and returns a Scheduler.
func NewScheduler(log *slog.Logger, cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("scheduler config must have a clock")
	}
	if err := cfg.Params.validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler params: %w", err)
	}

	return &Scheduler{
		log: log,

		clock: cfg.Clock,
		start: cfg.SystemStart,
		p:     cfg.Params,

		watchdog: cfg.Watchdog,
	}, nil
}

// CurrentEpochSlot returns the coordinates of the current instant.
func (s *Scheduler) CurrentEpochSlot() EpochSlot {
	return SlotAt(s.start, s.clock.Now(), s.p)
}

// RunPeriodic invokes cb once per slot boundary until ctx is cancelled.
//
// Before the first invocation the scheduler suspends until the next slot
// boundary strictly after now, so that all schedulers sharing one
// SystemStart observe the same slot sequence in alignment.
//
// When driftCorrection is set, each invocation is additionally delayed
// by two short fixed offsets to let drift-uncorrected schedulers log first.
//
// If cb fails, the error is logged and periodic scheduling resumes after
// a fixed backoff; a callback failure never terminates the loop.
// RunPeriodic blocks the calling goroutine; run it on a dedicated one.
func (s *Scheduler) RunPeriodic(ctx context.Context, driftCorrection bool, cb func(context.Context, EpochSlot) error) {
	for {
		target, ok := s.sleepUntilNextBoundary(ctx)
		if !ok {
			s.log.Info("Stopping periodic scheduling", "cause", context.Cause(ctx))
			return
		}

		if driftCorrection {
			for range 2 {
				if !s.sleepFor(ctx, driftDelay) {
					s.log.Info("Stopping periodic scheduling", "cause", context.Cause(ctx))
					return
				}
			}
		}

		if err := cb(ctx, target); err != nil {
			vlog.ESE(s.log, target.Epoch, target.Slot, err).Warn(
				"Slot callback failed; backing off before resuming",
				"backoff", callbackBackoff,
			)
			if !s.sleepFor(ctx, callbackBackoff) {
				s.log.Info("Stopping periodic scheduling", "cause", context.Cause(ctx))
				return
			}
		}
	}
}

// sleepUntilNextBoundary suspends until the next slot boundary strictly
// after now, returning that boundary's coordinates.
// Recomputing the boundary from absolute time on every iteration means a
// slow callback skips slots instead of accumulating drift.
func (s *Scheduler) sleepUntilNextBoundary(ctx context.Context) (EpochSlot, bool) {
	now := s.clock.Now()

	var targetAbs uint64
	elapsed := now.Sub(s.start)
	if elapsed >= 0 {
		targetAbs = uint64(elapsed/s.p.SlotDuration) + 1
	}
	// Otherwise the system start is still ahead of us,
	// and the first boundary is absolute slot 0 at the start itself.

	targetTime := s.start.Add(time.Duration(targetAbs) * s.p.SlotDuration)

	if !s.sleepFor(ctx, targetTime.Sub(now)) {
		return EpochSlot{}, false
	}

	return fromAbsolute(targetAbs, s.p.EpochSlots()), true
}

// sleepFor suspends for d, acknowledging watchdog signals while parked.
// It reports false if ctx was cancelled before d elapsed.
func (s *Scheduler) sleepFor(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	fired, cancel := s.clock.After(d)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-fired:
			return true
		case sig := <-s.watchdog:
			close(sig.Alive)
		}
	}
}
