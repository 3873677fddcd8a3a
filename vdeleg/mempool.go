// Package vdeleg implements delegation proxy-key bookkeeping:
// payload validation, and the pure mempool update applied per block.
package vdeleg

import (
	"fmt"
	"maps"

	"github.com/veld-engine/veld/vchain"
)

// MemPool is the working set of currently valid delegation certificates,
// keyed by issuer. A node holds one MemPool and replaces it per block.
type MemPool map[vchain.NodeID]vchain.DelegationCert

// EpochMismatchError is returned by [VerifyPayload]
// when a proxy key's embedded epoch does not match the expected epoch.
// The caller decides whether to accept or reject the enclosing block.
type EpochMismatchError struct {
	Issuer    vchain.NodeID
	Got, Want uint64
}

func (e EpochMismatchError) Error() string {
	return fmt.Sprintf(
		"delegation certificate from issuer %d is for epoch %d, want %d",
		e.Issuer, e.Got, e.Want,
	)
}

// CertsInBlock extracts the delegation payload of b, in block order.
func CertsInBlock(b vchain.Block) []vchain.DelegationCert {
	var certs []vchain.DelegationCert
	for _, e := range b.Entries {
		if c, ok := e.(vchain.DelegationCert); ok {
			certs = append(certs, c)
		}
	}
	return certs
}

// ApplyBlock folds b's delegation payload into pool and returns the
// updated set. The input pool is not modified.
//
// A certificate whose issuer equals its own delegate is a revocation
// and removes the issuer's entry; every other certificate
// inserts or overwrites the entry keyed by its issuer.
func ApplyBlock(b vchain.Block, pool MemPool) MemPool {
	out := make(MemPool, len(pool))
	maps.Copy(out, pool)

	for _, c := range CertsInBlock(b) {
		if c.Issuer == c.Delegate {
			delete(out, c.Issuer)
			continue
		}
		out[c.Issuer] = c
	}

	return out
}

// VerifyPayload checks that every certificate in payload
// is issued for the expected epoch.
func VerifyPayload(epoch uint64, payload []vchain.DelegationCert) error {
	for _, c := range payload {
		if c.Epoch != epoch {
			return EpochMismatchError{Issuer: c.Issuer, Got: c.Epoch, Want: epoch}
		}
	}
	return nil
}
