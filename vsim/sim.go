// Package vsim assembles and runs a complete multi-node simulation:
// it constructs the router, the per-node state machines and stores,
// and one slot scheduler per node plus a global announcer,
// all sharing a single system start instant.
package vsim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veld-engine/veld/internal/vlog"
	"github.com/veld-engine/veld/vchain"
	"github.com/veld-engine/veld/vclock"
	"github.com/veld-engine/veld/vnet"
	"github.com/veld-engine/veld/vnode"
	"github.com/veld-engine/veld/vstore"
	"github.com/veld-engine/veld/vstore/vmemstore"
	"github.com/veld-engine/veld/vwatchdog"
)

// Config assembles a full simulation.
type Config struct {
	// Nodes is the node count N; Tolerance is the absentee count T
	// that the secret-sharing scheme must survive.
	Nodes     int
	Tolerance int

	Params vclock.Params

	// SystemStart is the shared instant of slot 0 of epoch 0.
	// Set it once here; every scheduler receives it by value.
	SystemStart time.Time

	// Clock defaults to [vclock.WallClock] when nil.
	Clock vclock.Clock
}

// Sim is a wired simulation, ready to run.
type Sim struct {
	log *slog.Logger

	cfg Config

	router *vnet.Router

	nodes     []*vnode.Node
	chains    []vstore.ChainStore
	schedules []vstore.ScheduleStore
}

// New wires cfg.Nodes nodes onto a fresh router.
// Registration happens here, in NodeID order, and never again;
// the router's routing table is read-only once New returns.
func New(log *slog.Logger, cfg Config) (*Sim, error) {
	if cfg.Nodes <= 0 {
		return nil, fmt.Errorf("simulation must have at least one node (got %d)", cfg.Nodes)
	}
	if cfg.Clock == nil {
		cfg.Clock = vclock.WallClock{}
	}

	s := &Sim{
		log: log,

		cfg: cfg,

		router: vnet.NewRouter(log.With("sys", "router")),

		nodes:     make([]*vnode.Node, cfg.Nodes),
		chains:    make([]vstore.ChainStore, cfg.Nodes),
		schedules: make([]vstore.ScheduleStore, cfg.Nodes),
	}

	for id := range cfg.Nodes {
		nid := vchain.NodeID(id)

		s.chains[id] = vmemstore.NewChainStore()
		s.schedules[id] = vmemstore.NewScheduleStore()

		n, err := vnode.New(
			log.With("sys", "node", "node", id),
			vnode.Config{
				Self:      nid,
				Nodes:     cfg.Nodes,
				Tolerance: cfg.Tolerance,
				Params:    cfg.Params,
			},
			s.router,
			s.chains[id],
			s.schedules[id],
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build node %d: %w", id, err)
		}

		s.nodes[id] = n
		s.router.Register(nid, n)
	}

	return s, nil
}

// Node returns the state machine of one node, for inspection.
func (s *Sim) Node(id vchain.NodeID) *vnode.Node {
	return s.nodes[id]
}

// Chain returns one node's local block history.
func (s *Sim) Chain(id vchain.NodeID) vstore.ChainStore {
	return s.chains[id]
}

// Schedules returns one node's installed leader schedules.
func (s *Sim) Schedules(id vchain.NodeID) vstore.ScheduleStore {
	return s.schedules[id]
}

// Run drives the simulation until ctx is cancelled:
// one drift-corrected scheduler goroutine per node
// plus one global epoch/slot announcer without drift correction,
// all monitored by a watchdog that terminates everything
// when any scheduler wedges.
//
// Run blocks; the returned error is the termination cause.
func (s *Sim) Run(ctx context.Context) error {
	w, wCtx := vwatchdog.NewWatchdog(ctx, s.log.With("sys", "watchdog"))

	var wg sync.WaitGroup

	announcer, err := vclock.NewScheduler(
		s.log.With("sys", "announcer"),
		vclock.SchedulerConfig{
			Clock:       s.cfg.Clock,
			SystemStart: s.cfg.SystemStart,
			Params:      s.cfg.Params,
			Watchdog:    w.Monitor(wCtx, s.monitorConfig("announcer")),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to build announcer scheduler: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		announcer.RunPeriodic(wCtx, false, s.announceSlot)
	}()

	for id, n := range s.nodes {
		sig := w.Monitor(wCtx, s.monitorConfig(fmt.Sprintf("scheduler-%d", id)))

		sched, err := vclock.NewScheduler(
			s.log.With("sys", "scheduler", "node", id),
			vclock.SchedulerConfig{
				Clock:       s.cfg.Clock,
				SystemStart: s.cfg.SystemStart,
				Params:      s.cfg.Params,
				Watchdog:    sig,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to build scheduler for node %d: %w", id, err)
		}

		wg.Add(1)
		go func(n *vnode.Node) {
			defer wg.Done()
			sched.RunPeriodic(wCtx, true, n.HandleSlot)
		}(n)
	}

	wg.Wait()
	w.Wait()

	// Cancellation of the parent context is a normal shutdown;
	// only a watchdog termination is reported as a failure.
	if vwatchdog.IsTermination(wCtx) {
		return context.Cause(wCtx)
	}
	return nil
}

// monitorConfig sizes a watchdog monitor for one scheduler loop.
// Generous relative to the slot duration:
// schedulers acknowledge while parked between boundaries,
// so only a wedged callback can miss the deadline.
func (s *Sim) monitorConfig(name string) vwatchdog.MonitorConfig {
	return vwatchdog.MonitorConfig{
		Name: name,

		Interval:        10 * s.cfg.Params.SlotDuration,
		Jitter:          s.cfg.Params.SlotDuration,
		ResponseTimeout: 5 * s.cfg.Params.SlotDuration,
	}
}

// NodeReport is one node's end-of-run summary.
type NodeReport struct {
	ID      vchain.NodeID
	Height  int
	Pending int
}

// Report summarizes every node's state, typically after Run returns.
func (s *Sim) Report(ctx context.Context) ([]NodeReport, error) {
	out := make([]NodeReport, len(s.nodes))
	for id, n := range s.nodes {
		height, err := s.chains[id].Height(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read node %d height: %w", id, err)
		}
		out[id] = NodeReport{
			ID:      vchain.NodeID(id),
			Height:  height,
			Pending: len(n.Pending()),
		}
	}
	return out, nil
}

// announceSlot is the global announcer callback.
// It logs each boundary before the drift-corrected node schedulers fire.
func (s *Sim) announceSlot(_ context.Context, es vclock.EpochSlot) error {
	vlog.ES(s.log, es.Epoch, es.Slot).Info("Slot boundary")
	return nil
}
