// Package vssr implements the commit-reveal secret-sharing scheme
// that produces the unbiased per-epoch randomness used for leader election.
//
// Once per epoch, every node draws a fresh random seed,
// splits it into per-node shares, seals each share for its destination,
// and broadcasts the shares followed by a hash commitment to the seed.
// Committing before any node can know all seeds prevents a node
// from biasing the derived randomness after seeing others' contributions.
//
// Later in the epoch the seeds are revealed as openings,
// verified against the commitments, and folded into one random value.
// Reconstructing an absent node's seed from a quorum of shares
// is a designated extension point; the primitive for it lives in vsecret.
package vssr

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	randv2 "math/rand/v2"

	"github.com/veld-engine/veld/internal/vlog"
	"github.com/veld-engine/veld/vchain"
	"github.com/veld-engine/veld/vsecret"
)

// Engine generates one node's per-epoch secret-sharing entries.
type Engine struct {
	log *slog.Logger

	self vchain.NodeID

	total     int
	threshold int
}

// NewEngine returns an engine for node self
// in a network of total nodes tolerating t absentees:
// seeds are split into total shares with threshold total-t.
func NewEngine(log *slog.Logger, self vchain.NodeID, total, t int) *Engine {
	return &Engine{
		log: log,

		self: self,

		total:     total,
		threshold: total - t,
	}
}

// GenerateEpoch draws a fresh seed for the given epoch
// and returns the entries the node must broadcast:
// one sealed [vchain.SeedShare] per destination node, in NodeID order,
// followed by the [vchain.SeedCommitment].
//
// The seed itself is returned so the node can open it during the reveal phase.
func (e *Engine) GenerateEpoch(epoch uint64) (seed uint64, entries []vchain.Entry, err error) {
	seed = randSeed()

	shares, err := vsecret.Split(seed, e.total, e.threshold)
	if err != nil {
		return 0, nil, fmt.Errorf("epoch %d: %w", epoch, err)
	}

	entries = make([]vchain.Entry, 0, len(shares)+1)
	for i, share := range shares {
		to := vchain.NodeID(i)
		entries = append(entries, vchain.SeedShare{
			From:  e.self,
			To:    to,
			Epoch: epoch,
			Enc:   Seal(to, share),
		})
	}

	commitment := CommitSeed(seed)
	entries = append(entries, vchain.SeedCommitment{
		Node:  e.self,
		Epoch: epoch,
		Hash:  commitment,
	})

	e.log.Info(
		"Generated epoch seed",
		"epoch", epoch,
		"shares", len(shares),
		"threshold", e.threshold,
		"commitment", vlog.Hex(commitment),
	)

	return seed, entries, nil
}

// randSeed draws a 64-bit seed from strong cryptographic randomness.
func randSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("error reading cryptographic randomness: " + err.Error())
	}
	return binary.BigEndian.Uint64(b[:])
}

// LeadersFromSeed deterministically derives a slot-leader list from a seed.
// Every node evaluating the same seed gets the same schedule.
func LeadersFromSeed(seed uint64, slots uint32, total int) []vchain.NodeID {
	rng := randv2.New(randv2.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	leaders := make([]vchain.NodeID, slots)
	for i := range leaders {
		leaders[i] = vchain.NodeID(rng.IntN(total))
	}
	return leaders
}

// RandomLeaders draws a slot-leader list from fresh randomness.
// This is the bootstrap placeholder for the seed-derived election:
// only node 0 uses it, only for epoch 1.
func RandomLeaders(slots uint32, total int) []vchain.NodeID {
	return LeadersFromSeed(randSeed(), slots, total)
}

// FallbackSeed derives a deterministic seed from the epoch number alone.
// It is used when an epoch ends with no verified openings at all,
// so that schedule derivation cannot deadlock the chain.
func FallbackSeed(epoch uint64) uint64 {
	h := CommitSeed(epoch)
	return binary.BigEndian.Uint64(h[:8])
}
