// Package vnode implements the per-node consensus state machine.
//
// A node owns its full state exclusively: the pending-entry set,
// the epoch leader table, the local block history,
// and the delegation mempool.
// The state is mutated only by the node's own slot-tick and
// message-handling operations, each of which runs as one exclusive
// critical section, so concurrent ticks and message arrivals for the
// same node can never interleave at the field level.
package vnode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/veld-engine/veld/internal/vlog"
	"github.com/veld-engine/veld/vchain"
	"github.com/veld-engine/veld/vclock"
	"github.com/veld-engine/veld/vcodec"
	"github.com/veld-engine/veld/vdeleg"
	"github.com/veld-engine/veld/vnet"
	"github.com/veld-engine/veld/vssr"
	"github.com/veld-engine/veld/vstore"
)

// Config assembles a node's identity and protocol constants.
type Config struct {
	Self vchain.NodeID

	// Nodes is the total node count N.
	// Tolerance is T: how many absentees the secret sharing survives,
	// so seeds split with threshold N-T.
	Nodes     int
	Tolerance int

	Params vclock.Params
}

func (c Config) validate() error {
	if c.Nodes <= 0 {
		return fmt.Errorf("node count must be positive (got %d)", c.Nodes)
	}
	if int(c.Self) >= c.Nodes {
		return fmt.Errorf("node ID %d out of range for %d nodes", c.Self, c.Nodes)
	}
	if c.Tolerance < 0 || c.Tolerance >= c.Nodes {
		return fmt.Errorf("tolerance must be in [0, nodes) (got %d)", c.Tolerance)
	}
	if c.Nodes-c.Tolerance < 2 {
		// The secret-sharing primitive cannot split below threshold 2.
		return fmt.Errorf("nodes minus tolerance must be at least 2 (got %d)", c.Nodes-c.Tolerance)
	}
	return nil
}

// Node is one full node's consensus state machine.
// Create it with [New], register it on the router,
// and drive it through [*Node.HandleSlot] and [*Node.HandleMessage].
type Node struct {
	log *slog.Logger

	cfg Config

	router *vnet.Router

	engine  *vssr.Engine
	tracker *vssr.Tracker

	// mu serializes every mutation of the state below.
	mu sync.Mutex

	// Pending entries keyed by canonical encoding;
	// pendingOrder preserves insertion order for mined blocks.
	pending      map[string]vchain.Entry
	pendingOrder []string

	chain     vstore.ChainStore
	schedules vstore.ScheduleStore

	mempool vdeleg.MemPool

	// Own committed seed per epoch, held until the reveal slot.
	ownSeeds map[uint64]uint64

	// Most recent epoch observed on a slot tick;
	// delegation payloads are verified against it.
	epoch uint64
}

// New returns an initialized node with empty collections.
// The node lives for the process lifetime; there is no teardown.
func New(
	log *slog.Logger,
	cfg Config,
	router *vnet.Router,
	chain vstore.ChainStore,
	schedules vstore.ScheduleStore,
) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid node config: %w", err)
	}

	return &Node{
		log: log,

		cfg: cfg,

		router: router,

		engine:  vssr.NewEngine(log.With("sub", "ssr"), cfg.Self, cfg.Nodes, cfg.Tolerance),
		tracker: vssr.NewTracker(log.With("sub", "tracker"), cfg.Self, cfg.Nodes),

		pending: make(map[string]vchain.Entry),

		chain:     chain,
		schedules: schedules,

		mempool: make(vdeleg.MemPool),

		ownSeeds: make(map[uint64]uint64),
	}, nil
}

// HandleSlot is the per-slot transition, invoked by the slot scheduler.
//
// The order of sub-steps is load-bearing:
// the bootstrap path mines its empty block before the randomness engine
// runs, so the first block carries nothing and the queued leader
// schedule ships alone in the block mined immediately after;
// and schedule derivation precedes the regular leader check,
// so a derived schedule ships in the very block that slot's leader mines.
func (n *Node) HandleSlot(ctx context.Context, es vclock.EpochSlot) error {
	log := vlog.ES(n.log, es.Epoch, es.Slot)

	n.mu.Lock()
	n.epoch = es.Epoch
	n.mu.Unlock()

	// Bootstrap: for epoch 0 only, node 0 acts as a temporary master,
	// synthesizing the epoch 1 schedule from fresh randomness
	// in place of the seed-derived election that has no seeds yet.
	if n.cfg.Self == 0 && es.Epoch == 0 && es.Slot == 0 {
		if err := n.mine(ctx, es); err != nil {
			return err
		}

		leaders := vssr.RandomLeaders(n.cfg.Params.EpochSlots(), n.cfg.Nodes)
		n.queueEntry(vchain.LeaderSchedule{Epoch: 1, Leaders: leaders})
		log.Info("Queued bootstrap leader schedule", "for_epoch", 1, "slots", len(leaders))

		if err := n.mine(ctx, es); err != nil {
			return err
		}
	}

	if es.Slot == 0 {
		if err := n.generateEpochSecrets(ctx, es); err != nil {
			return err
		}
	}

	if es.Slot == n.cfg.Params.RevealSlot() {
		if err := n.revealSeed(ctx, es); err != nil {
			return err
		}
	}

	isLeader, err := n.isLeader(ctx, es)
	if err != nil {
		return err
	}

	if es.Epoch >= 1 && es.Slot == n.cfg.Params.ScheduleSlot() && isLeader {
		n.deriveNextSchedule(es)
	}

	if isLeader {
		return n.mine(ctx, es)
	}

	return nil
}

// HandleMessage ingests one message addressed to this node.
// It implements [vnet.Handler].
func (n *Node) HandleMessage(ctx context.Context, from vchain.NodeID, msg vnet.Message) error {
	switch m := msg.(type) {
	case vnet.EntryMessage:
		n.handleEntry(from, m.Entry)
		return nil
	case vnet.BlockMessage:
		return n.handleBlock(ctx, from, m.Entries)
	case vnet.Ping:
		n.log.Info("Ping received", "from", from)
		return nil
	default:
		panic(fmt.Errorf("BUG: node %d received unknown message type %T", n.cfg.Self, msg))
	}
}

// generateEpochSecrets runs the once-per-epoch secret-sharing round:
// broadcast one sealed share per node, then the seed commitment.
func (n *Node) generateEpochSecrets(ctx context.Context, es vclock.EpochSlot) error {
	seed, entries, err := n.engine.GenerateEpoch(es.Epoch)
	if err != nil {
		return fmt.Errorf("failed to generate epoch secrets: %w", err)
	}

	n.mu.Lock()
	n.ownSeeds[es.Epoch] = seed
	n.mu.Unlock()

	for _, e := range entries {
		if err := n.router.Broadcast(ctx, n.cfg.Self, vnet.EntryMessage{Entry: e}); err != nil {
			return fmt.Errorf("failed to broadcast epoch secrets: %w", err)
		}
	}

	return nil
}

// revealSeed opens this node's seed for the epoch's reveal phase.
func (n *Node) revealSeed(ctx context.Context, es vclock.EpochSlot) error {
	n.mu.Lock()
	seed, ok := n.ownSeeds[es.Epoch]
	n.mu.Unlock()

	if !ok {
		// No seed was generated for this epoch;
		// nothing to open, and peers will exclude us from the fold.
		vlog.ES(n.log, es.Epoch, es.Slot).Warn("No own seed to reveal")
		return nil
	}

	return n.router.Broadcast(ctx, n.cfg.Self, vnet.EntryMessage{
		Entry: vchain.SeedOpening{Node: n.cfg.Self, Epoch: es.Epoch, Seed: seed},
	})
}

// deriveNextSchedule turns the epoch's verified seed contributions
// into the next epoch's leader schedule and queues it for the block
// this node is about to mine.
func (n *Node) deriveNextSchedule(es vclock.EpochSlot) {
	log := vlog.ES(n.log, es.Epoch, es.Slot)

	// The tracker is owned by the node mutex:
	// concurrent HandleMessage calls feed it while this runs.
	n.mu.Lock()
	seed, contributors := n.tracker.Randomness(es.Epoch)
	if contributors == 0 {
		seed = vssr.FallbackSeed(es.Epoch)
	}
	leaders := vssr.LeadersFromSeed(seed, n.cfg.Params.EpochSlots(), n.cfg.Nodes)
	n.insertPendingLocked(vchain.LeaderSchedule{Epoch: es.Epoch + 1, Leaders: leaders})
	n.mu.Unlock()

	if contributors == 0 {
		log.Warn("No verified seed contributions; deriving schedule from fallback seed")
	}
	log.Info(
		"Queued derived leader schedule",
		"for_epoch", es.Epoch+1,
		"contributors", contributors,
	)
}

// isLeader reports whether this node is the elected leader of es.
// An absent schedule, or a slot outside the installed list,
// compares as "not leader".
func (n *Node) isLeader(ctx context.Context, es vclock.EpochSlot) (bool, error) {
	leaders, err := n.schedules.Leaders(ctx, es.Epoch)
	if errors.As(err, new(vstore.EpochUnknownError)) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load leader schedule: %w", err)
	}

	if int(es.Slot) >= len(leaders) {
		return false, nil
	}
	return leaders[es.Slot] == n.cfg.Self, nil
}

// mine atomically drains the entire pending set into an ordered block
// and broadcasts it to all nodes, including this one:
// the leader processes its own block through the normal handling path.
func (n *Node) mine(ctx context.Context, es vclock.EpochSlot) error {
	log := vlog.ES(n.log, es.Epoch, es.Slot)

	n.mu.Lock()
	entries := make([]vchain.Entry, 0, len(n.pendingOrder))
	for _, key := range n.pendingOrder {
		entries = append(entries, n.pending[key])
	}
	n.pending = make(map[string]vchain.Entry)
	n.pendingOrder = nil
	n.mu.Unlock()

	if len(entries) == 0 {
		log.Info("Mining empty block")
	} else {
		log.Info("Mining block", "entries", describeEntries(entries))
	}

	return n.router.Broadcast(ctx, n.cfg.Self, vnet.BlockMessage{Entries: entries})
}

// queueEntry inserts e into the pending set directly,
// without a round trip through the router.
func (n *Node) queueEntry(e vchain.Entry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.insertPendingLocked(e)
}

func (n *Node) insertPendingLocked(e vchain.Entry) {
	key := vcodec.EntryKey(e)
	if _, ok := n.pending[key]; ok {
		// Structural duplicate; the pending collection is a set.
		return
	}
	n.pending[key] = e
	n.pendingOrder = append(n.pendingOrder, key)
}

// handleEntry inserts e into the pending set (idempotently)
// and feeds secret-sharing material to the tracker.
func (n *Node) handleEntry(from vchain.NodeID, e vchain.Entry) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.insertPendingLocked(e)

	switch e := e.(type) {
	case vchain.SeedCommitment:
		n.tracker.RecordCommitment(e.Epoch, e.Node, e.Hash)
	case vchain.SeedShare:
		n.tracker.RecordShare(e.Epoch, e.From, e.Enc)
	case vchain.SeedOpening:
		n.tracker.RecordOpening(e.Epoch, e.Node, e.Seed)
	}
}

// handleBlock folds a received block into the node's state:
// contained entries leave the pending set (idempotently),
// the block is prepended to local history,
// leader schedules are installed first-writer-wins,
// and the delegation mempool absorbs the block's certificates.
func (n *Node) handleBlock(ctx context.Context, from vchain.NodeID, entries []vchain.Entry) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	removed := 0
	for _, e := range entries {
		key := vcodec.EntryKey(e)
		if _, ok := n.pending[key]; !ok {
			// Already absorbed by an earlier block, or never seen.
			continue
		}
		delete(n.pending, key)
		if i := slices.Index(n.pendingOrder, key); i >= 0 {
			n.pendingOrder = slices.Delete(n.pendingOrder, i, i+1)
		}
		removed++
	}

	block := vchain.Block{Entries: entries}

	if err := n.chain.AddBlock(ctx, block); err != nil {
		return fmt.Errorf("failed to store received block: %w", err)
	}

	for _, e := range entries {
		ls, ok := e.(vchain.LeaderSchedule)
		if !ok {
			continue
		}

		installed, prior, err := n.schedules.Install(ctx, ls.Epoch, ls.Leaders)
		if err != nil {
			return fmt.Errorf("failed to install leader schedule: %w", err)
		}
		switch {
		case installed:
			n.log.Info("Installed leader schedule", "for_epoch", ls.Epoch, "from", from)
		case slices.Equal(prior, ls.Leaders):
			// Same schedule again; nothing to do.
		default:
			n.log.Warn(
				"Conflicting leader schedule; keeping the first",
				"for_epoch", ls.Epoch,
				"from", from,
			)
		}
	}

	if payload := vdeleg.CertsInBlock(block); len(payload) > 0 {
		if err := vdeleg.VerifyPayload(n.epoch, payload); err != nil {
			// The block stays in history; only the mempool update is skipped.
			n.log.Warn("Rejecting block's delegation payload", "from", from, "err", err)
		} else {
			n.mempool = vdeleg.ApplyBlock(block, n.mempool)
		}
	}

	n.log.Info(
		"Accepted block",
		"from", from,
		"entries", len(entries),
		"pending_removed", removed,
	)

	return nil
}

// Pending returns a copy of the pending-entry set in insertion order.
func (n *Node) Pending() []vchain.Entry {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]vchain.Entry, 0, len(n.pendingOrder))
	for _, key := range n.pendingOrder {
		out = append(out, n.pending[key])
	}
	return out
}

// MemPool returns a copy of the current delegation mempool.
func (n *Node) MemPool() vdeleg.MemPool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return maps.Clone(n.mempool)
}

// SeedContributors reports how many verified seed openings
// this node holds for the epoch.
func (n *Node) SeedContributors(epoch uint64) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, contributors := n.tracker.Randomness(epoch)
	return contributors
}

func describeEntries(entries []vchain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		switch e := e.(type) {
		case vchain.Transaction:
			out[i] = fmt.Sprintf("tx(%d in, %d out)", len(e.Inputs), len(e.Outputs))
		case vchain.SeedCommitment:
			out[i] = fmt.Sprintf("commitment(node %d)", e.Node)
		case vchain.SeedShare:
			out[i] = fmt.Sprintf("share(%d->%d)", e.From, e.To)
		case vchain.SeedOpening:
			out[i] = fmt.Sprintf("opening(node %d)", e.Node)
		case vchain.LeaderSchedule:
			out[i] = fmt.Sprintf("schedule(epoch %d)", e.Epoch)
		case vchain.DelegationCert:
			out[i] = fmt.Sprintf("cert(%d->%d)", e.Issuer, e.Delegate)
		default:
			out[i] = fmt.Sprintf("%T", e)
		}
	}
	return out
}
