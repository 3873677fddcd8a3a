package vssr

import (
	"log/slog"

	"github.com/bits-and-blooms/bitset"

	"github.com/veld-engine/veld/internal/vlog"
	"github.com/veld-engine/veld/vchain"
	"github.com/veld-engine/veld/vsecret"
)

// Tracker records, per epoch, the secret-sharing material one node has seen:
// peers' commitments, the shares addressed to this node,
// and the seeds verified during the reveal phase.
//
// Tracker is not safe for concurrent use;
// the owning node serializes access alongside the rest of its state.
type Tracker struct {
	log *slog.Logger

	self  vchain.NodeID
	total uint

	epochs map[uint64]*epochState
}

type epochState struct {
	// Commitment hash per node, and the bitmap of nodes that committed.
	commitments map[vchain.NodeID][]byte
	committed   *bitset.BitSet

	// This node's decrypted share of each peer's seed.
	shares map[vchain.NodeID]vsecret.Share

	// Seeds whose openings matched the stored commitment,
	// and the bitmap of nodes that revealed.
	seeds    map[vchain.NodeID]uint64
	revealed *bitset.BitSet
}

// NewTracker returns a tracker for node self in a network of total nodes.
func NewTracker(log *slog.Logger, self vchain.NodeID, total int) *Tracker {
	return &Tracker{
		log: log,

		self:  self,
		total: uint(total),

		epochs: make(map[uint64]*epochState),
	}
}

func (t *Tracker) epoch(epoch uint64) *epochState {
	es, ok := t.epochs[epoch]
	if !ok {
		es = &epochState{
			commitments: make(map[vchain.NodeID][]byte),
			committed:   bitset.New(t.total),
			shares:      make(map[vchain.NodeID]vsecret.Share),
			seeds:       make(map[vchain.NodeID]uint64),
			revealed:    bitset.New(t.total),
		}
		t.epochs[epoch] = es
	}
	return es
}

// RecordCommitment stores node's commitment hash for the epoch.
// A repeated identical commitment is a no-op;
// a differing one is logged and the first is kept.
func (t *Tracker) RecordCommitment(epoch uint64, node vchain.NodeID, hash []byte) {
	es := t.epoch(epoch)

	if prev, ok := es.commitments[node]; ok {
		if string(prev) != string(hash) {
			t.log.Warn(
				"Conflicting seed commitment; keeping the first",
				"epoch", epoch,
				"node", node,
				"have", vlog.Hex(prev),
				"got", vlog.Hex(hash),
			)
		}
		return
	}

	es.commitments[node] = hash
	es.committed.Set(uint(node))
}

// RecordShare attempts to open env on behalf of this node
// and, if addressed here, stores the share of from's seed.
// Shares addressed elsewhere are ignored.
func (t *Tracker) RecordShare(epoch uint64, from vchain.NodeID, env vchain.EncryptedShare) {
	share, ok := Open(t.self, env)
	if !ok {
		// Addressed to a different node; nothing for us.
		return
	}

	t.epoch(epoch).shares[from] = share
}

// RecordOpening verifies a revealed seed against the stored commitment
// and, on success, folds it into the epoch's contributions.
// An opening with no matching commitment, or a hash mismatch,
// is logged and discarded.
func (t *Tracker) RecordOpening(epoch uint64, node vchain.NodeID, seed uint64) {
	es := t.epoch(epoch)

	commitment, ok := es.commitments[node]
	if !ok {
		t.log.Warn("Discarding opening with no prior commitment", "epoch", epoch, "node", node)
		return
	}
	if err := VerifyOpening(seed, commitment); err != nil {
		t.log.Warn("Discarding opening that fails its commitment", "epoch", epoch, "node", node, "err", err)
		return
	}

	es.seeds[node] = seed
	es.revealed.Set(uint(node))
}

// Randomness folds the epoch's verified seeds into one random value,
// also reporting how many nodes contributed.
// Zero contributors yields a zero value;
// the caller decides the fallback policy.
func (t *Tracker) Randomness(epoch uint64) (seed uint64, contributors int) {
	es, ok := t.epochs[epoch]
	if !ok {
		return 0, 0
	}

	for _, s := range es.seeds {
		seed ^= s
	}
	return seed, int(es.revealed.Count())
}

// CommitmentCount reports how many nodes have committed for the epoch.
func (t *Tracker) CommitmentCount(epoch uint64) int {
	es, ok := t.epochs[epoch]
	if !ok {
		return 0
	}
	return int(es.committed.Count())
}

// ShareOf returns this node's share of node's seed for the epoch, if held.
// Collected shares are the input to the unimplemented recovery path
// for seeds whose openings never arrive.
func (t *Tracker) ShareOf(epoch uint64, node vchain.NodeID) (vsecret.Share, bool) {
	es, ok := t.epochs[epoch]
	if !ok {
		return vsecret.Share{}, false
	}
	share, ok := es.shares[node]
	return share, ok
}
