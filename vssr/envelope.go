package vssr

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/veld-engine/veld/vchain"
	"github.com/veld-engine/veld/vsecret"
)

// envelopePersonal is mixed into the envelope keystream
// so the masking bytes cannot collide with the commitment hash domain.
const envelopePersonal = "veld/share-envelope"

// Seal wraps share in an envelope addressed to node to.
//
// The payload is masked with a keystream derived from the recipient ID.
// This is a per-node directed mailbox, not real public-key encryption;
// it only guarantees that a handler on the wrong node
// gets a clean open failure instead of a usable share.
func Seal(to vchain.NodeID, share vsecret.Share) vchain.EncryptedShare {
	plain := make([]byte, 1+len(share.Data))
	plain[0] = share.ID
	copy(plain[1:], share.Data)

	return vchain.EncryptedShare{
		To:   to,
		Data: mask(to, plain),
	}
}

// Open attempts to open env on behalf of node self.
// If the envelope is addressed to a different node,
// Open reports false; it never fails in a way that
// should crash the receiving handler.
func Open(self vchain.NodeID, env vchain.EncryptedShare) (vsecret.Share, bool) {
	if env.To != self {
		return vsecret.Share{}, false
	}
	if len(env.Data) < 2 {
		// A well-formed envelope holds at least a share ID and one data byte.
		return vsecret.Share{}, false
	}

	plain := mask(self, env.Data)
	return vsecret.Share{ID: plain[0], Data: plain[1:]}, true
}

// mask XORs data with the keystream for node id.
// Masking is its own inverse.
func mask(id vchain.NodeID, data []byte) []byte {
	var seedBuf [2]byte
	binary.BigEndian.PutUint16(seedBuf[:], uint16(id))
	pad := blake2b.Sum256(append([]byte(envelopePersonal), seedBuf[:]...))

	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ pad[i%len(pad)]
	}
	return out
}

// CommitSeed returns the blake2b-256 commitment hash for seed.
func CommitSeed(seed uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seed)
	h := blake2b.Sum256(buf[:])
	return h[:]
}

// VerifyOpening reports whether seed matches the commitment hash.
func VerifyOpening(seed uint64, commitment []byte) error {
	want := CommitSeed(seed)
	if len(commitment) != len(want) {
		return fmt.Errorf("commitment has width %d, want %d", len(commitment), len(want))
	}
	for i := range want {
		if commitment[i] != want[i] {
			return fmt.Errorf("seed does not match commitment")
		}
	}
	return nil
}
