// Package vsecret adapts a threshold secret-sharing primitive
// to the 64-bit epoch seeds used by the randomness engine.
//
// The underlying scheme is Shamir secret sharing over GF(2^8),
// provided by github.com/corvus-ch/shamir:
// a seed split into total shares is recoverable from any
// threshold of them, and fewer reveal nothing about the seed.
package vsecret

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/corvus-ch/shamir"
)

// seedLen is the encoded width of a seed in bytes.
const seedLen = 8

// Share is one fragment of a split seed.
// ID is the x-coordinate assigned by the split;
// it is required to reconstruct, and it is unique per split.
type Share struct {
	ID   byte
	Data []byte
}

// Split splits seed into total shares,
// any threshold of which suffice to reconstruct it.
//
// The returned shares are ordered by ID,
// so callers may address share i to node i deterministically.
//
// The underlying scheme requires 2 <= threshold <= total <= 255.
func Split(seed uint64, total, threshold int) ([]Share, error) {
	var buf [seedLen]byte
	binary.BigEndian.PutUint64(buf[:], seed)

	parts, err := shamir.Split(buf[:], total, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to split seed into %d shares (threshold %d): %w", total, threshold, err)
	}

	shares := make([]Share, 0, len(parts))
	for id, data := range parts {
		shares = append(shares, Share{ID: id, Data: data})
	}
	// Map iteration order is randomized; restore a stable order.
	sort.Slice(shares, func(i, j int) bool {
		return shares[i].ID < shares[j].ID
	})

	return shares, nil
}

// Reconstruct recovers the original seed from a quorum of shares.
//
// Combining fewer shares than the split's threshold does not error;
// it yields a value unrelated to the original seed.
// That matches the underlying scheme,
// which cannot distinguish an undersized quorum from a valid one.
func Reconstruct(shares []Share) (uint64, error) {
	if len(shares) == 0 {
		return 0, fmt.Errorf("cannot reconstruct a seed from zero shares")
	}

	parts := make(map[byte][]byte, len(shares))
	for _, s := range shares {
		if _, ok := parts[s.ID]; ok {
			return 0, fmt.Errorf("cannot reconstruct: duplicate share ID %d", s.ID)
		}
		parts[s.ID] = s.Data
	}

	buf, err := shamir.Combine(parts)
	if err != nil {
		return 0, fmt.Errorf("failed to combine %d shares: %w", len(shares), err)
	}
	if len(buf) != seedLen {
		return 0, fmt.Errorf("combined secret has width %d, want %d", len(buf), seedLen)
	}

	return binary.BigEndian.Uint64(buf), nil
}
