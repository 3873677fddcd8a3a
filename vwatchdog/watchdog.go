package vwatchdog

import (
	"context"
	"fmt"
	"log/slog"
	randv2 "math/rand/v2"
	"sync"
	"time"

	"github.com/veld-engine/veld/internal/vchan"
)

// Watchdog terminates the simulation when a monitored subsystem wedges.
type Watchdog struct {
	log *slog.Logger

	cancel          context.CancelCauseFunc
	monitorRequests chan monitorRequest

	// We cannot know up front how many monitors the watchdog will have,
	// so a WaitGroup makes it easy to track them all.
	wg sync.WaitGroup
}

// Signal is the value arriving on a monitor channel.
// The monitored subsystem must close Alive as soon as possible
// to prevent the watchdog from terminating the entire simulation.
type Signal struct {
	// Every signal has a non-nil, non-closed Alive channel.
	Alive chan<- struct{}
}

// MonitorConfig configures a monitor for one subsystem.
type MonitorConfig struct {
	// Name identifies the subsystem in logs and termination causes.
	Name string

	// A signal is sent every Interval + [-Jitter/2, +Jitter/2).
	Interval, Jitter time.Duration

	// How long the subsystem has to close Signal.Alive.
	ResponseTimeout time.Duration
}

func (c MonitorConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("monitor config must have a name")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("monitor %q: interval must be positive", c.Name)
	}
	if c.Jitter < 0 || c.Jitter >= c.Interval {
		return fmt.Errorf("monitor %q: jitter must be in [0, interval)", c.Name)
	}
	if c.ResponseTimeout <= 0 {
		return fmt.Errorf("monitor %q: response timeout must be positive", c.Name)
	}
	return nil
}

type monitorRequest struct {
	Cfg MonitorConfig

	// Response to the caller, who needs a receive-only channel of signals.
	Resp chan (<-chan Signal)
}

// NewWatchdog returns a new Watchdog and a context derived from ctx.
// The returned context is cancelled when a subsystem subscribed through
// [*Watchdog.Monitor] misses its response timeout,
// or upon a call to [*Watchdog.Terminate].
func NewWatchdog(ctx context.Context, log *slog.Logger) (*Watchdog, context.Context) {
	wCtx, cancel := context.WithCancelCause(ctx)
	w := &Watchdog{
		log:             log,
		cancel:          cancel,
		monitorRequests: make(chan monitorRequest), // Unbuffered since requests are synchronous.
	}
	w.wg.Add(1)
	go w.kernel(ctx, wCtx)
	return w, wCtx
}

// NewNopWatchdog returns a Watchdog that disregards calls to
// [*Watchdog.Monitor] but still respects Terminate.
//
// NewNopWatchdog should only be called in test.
func NewNopWatchdog(ctx context.Context, log *slog.Logger) (*Watchdog, context.Context) {
	wCtx, cancel := context.WithCancelCause(ctx)
	w := &Watchdog{
		log:    log,
		cancel: cancel,
		// Nil monitorRequests means Monitor returns a nil signal channel.
	}
	w.wg.Add(1)
	go w.kernel(ctx, wCtx)
	return w, wCtx
}

// Wait blocks until w's background goroutines complete.
// The goroutines exit when the context passed to [NewWatchdog] is
// cancelled, or when the watchdog context is cancelled by a monitor
// timeout or a call to [*Watchdog.Terminate].
func (w *Watchdog) Wait() {
	w.wg.Wait()
}

// Terminate forces the watchdog context to be cancelled
// with a cause of [ForcedTerminationError].
func (w *Watchdog) Terminate(reason string) {
	w.cancel(ForcedTerminationError{Reason: reason})
}

func (w *Watchdog) kernel(rootCtx, wCtx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-rootCtx.Done():
			w.log.Info("Stopping due to root context cancellation", "cause", context.Cause(rootCtx))
			return
		case <-wCtx.Done():
			// A termination must not leave callers blocked in Wait
			// while the root context is still live.
			w.log.Info("Stopping due to watchdog termination", "cause", context.Cause(wCtx))
			return
		case req := <-w.monitorRequests:
			sigCh := make(chan Signal) // Unbuffered because it must be synchronous.
			w.wg.Add(1)

			// The monitor runs off the watchdog context,
			// so it also shuts down on a termination elsewhere.
			go w.monitor(wCtx, req.Cfg, sigCh)

			req.Resp <- sigCh
		}
	}
}

// Monitor subscribes one subsystem for liveness monitoring.
// The subsystem must receive from the returned channel in its main loop
// and close [Signal.Alive] to indicate timely receipt.
//
// If the context is cancelled before the monitor starts,
// the returned channel is nil.
func (w *Watchdog) Monitor(ctx context.Context, cfg MonitorConfig) <-chan Signal {
	// Validate the config regardless of whether monitoring is active.
	if err := cfg.validate(); err != nil {
		panic(fmt.Errorf("(*Watchdog).Monitor: %w", err))
	}

	if w.monitorRequests == nil {
		// Configured as a nop watchdog.
		return nil
	}

	req := monitorRequest{
		Cfg:  cfg,
		Resp: make(chan (<-chan Signal), 1),
	}

	ch, _ := vchan.ReqResp(
		ctx, w.log,
		w.monitorRequests, req,
		req.Resp,
		"requesting new monitor",
	)
	return ch
}

func (w *Watchdog) monitor(ctx context.Context, cfg MonitorConfig, sigCh chan Signal) {
	defer w.wg.Done()

	log := w.log.With("target", cfg.Name)

	timer := time.NewTimer(jittered(cfg))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			// Time to check in on the subsystem.
		}

		alive := make(chan struct{})

		deadline := time.NewTimer(cfg.ResponseTimeout)
		select {
		case <-ctx.Done():
			deadline.Stop()
			return
		case sigCh <- Signal{Alive: alive}:
			// Accepted; now it must close alive in time.
		case <-deadline.C:
			log.Warn("Subsystem did not accept watchdog signal; terminating")
			w.cancel(TimeoutError{Name: cfg.Name})
			return
		}

		select {
		case <-ctx.Done():
			deadline.Stop()
			return
		case <-alive:
			deadline.Stop()
		case <-deadline.C:
			log.Warn("Subsystem accepted watchdog signal but did not respond; terminating")
			w.cancel(TimeoutError{Name: cfg.Name})
			return
		}

		timer.Reset(jittered(cfg))
	}
}

func jittered(cfg MonitorConfig) time.Duration {
	if cfg.Jitter == 0 {
		return cfg.Interval
	}
	return cfg.Interval - cfg.Jitter/2 + randv2.N(cfg.Jitter)
}
