// Package vcodec defines the typed on-chain payload formats
// for transactions, seed commitments, shares, openings,
// leader schedules, and delegation certificates,
// and their canonical JSON serialization.
//
// The canonical encoding is also the identity of an entry:
// two entries are structurally equal exactly when
// their encodings are byte-identical.
package vcodec

import (
	"encoding/json"
	"fmt"

	"github.com/veld-engine/veld/vchain"
)

// Kind tags distinguishing entry payloads on the wire.
const (
	kindTransaction    = "tx"
	kindSeedCommitment = "seed_commitment"
	kindSeedShare      = "seed_share"
	kindSeedOpening    = "seed_opening"
	kindLeaderSchedule = "leader_schedule"
	kindDelegationCert = "delegation_cert"
)

// jsonEntry is the tagged envelope wrapping every entry payload.
type jsonEntry struct {
	Kind string
	Data json.RawMessage
}

// MarshalEntry returns the canonical encoding of e.
func MarshalEntry(e vchain.Entry) ([]byte, error) {
	var kind string
	var payload any

	switch e := e.(type) {
	case vchain.Transaction:
		kind, payload = kindTransaction, toJSONTransaction(e)
	case vchain.SeedCommitment:
		kind, payload = kindSeedCommitment, toJSONSeedCommitment(e)
	case vchain.SeedShare:
		kind, payload = kindSeedShare, toJSONSeedShare(e)
	case vchain.SeedOpening:
		kind, payload = kindSeedOpening, toJSONSeedOpening(e)
	case vchain.LeaderSchedule:
		kind, payload = kindLeaderSchedule, toJSONLeaderSchedule(e)
	case vchain.DelegationCert:
		kind, payload = kindDelegationCert, toJSONDelegationCert(e)
	default:
		return nil, fmt.Errorf("cannot marshal entry of unknown type %T", e)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	return json.Marshal(jsonEntry{Kind: kind, Data: data})
}

// UnmarshalEntry parses a canonical encoding produced by [MarshalEntry].
func UnmarshalEntry(b []byte) (vchain.Entry, error) {
	var je jsonEntry
	if err := json.Unmarshal(b, &je); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry envelope: %w", err)
	}

	switch je.Kind {
	case kindTransaction:
		var j jsonTransaction
		if err := json.Unmarshal(je.Data, &j); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", je.Kind, err)
		}
		return j.ToTransaction(), nil
	case kindSeedCommitment:
		var j jsonSeedCommitment
		if err := json.Unmarshal(je.Data, &j); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", je.Kind, err)
		}
		return j.ToSeedCommitment(), nil
	case kindSeedShare:
		var j jsonSeedShare
		if err := json.Unmarshal(je.Data, &j); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", je.Kind, err)
		}
		return j.ToSeedShare(), nil
	case kindSeedOpening:
		var j jsonSeedOpening
		if err := json.Unmarshal(je.Data, &j); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", je.Kind, err)
		}
		return j.ToSeedOpening(), nil
	case kindLeaderSchedule:
		var j jsonLeaderSchedule
		if err := json.Unmarshal(je.Data, &j); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", je.Kind, err)
		}
		return j.ToLeaderSchedule(), nil
	case kindDelegationCert:
		var j jsonDelegationCert
		if err := json.Unmarshal(je.Data, &j); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", je.Kind, err)
		}
		return j.ToDelegationCert(), nil
	default:
		return nil, fmt.Errorf("cannot unmarshal entry of unknown kind %q", je.Kind)
	}
}

// EntryKey returns the canonical encoding of e as a string,
// suitable for use as a map key implementing structural equality.
//
// EntryKey panics if e cannot be marshaled;
// entries are plain data, so a failure indicates a bug.
func EntryKey(e vchain.Entry) string {
	b, err := MarshalEntry(e)
	if err != nil {
		panic(fmt.Errorf("BUG: failed to derive entry key: %w", err))
	}
	return string(b)
}

// jsonBlock is a converted [vchain.Block] that can be safely marshaled as JSON.
type jsonBlock struct {
	Entries []jsonEntry
}

// MarshalBlock returns the canonical encoding of b.
func MarshalBlock(b vchain.Block) ([]byte, error) {
	jb := jsonBlock{Entries: make([]jsonEntry, len(b.Entries))}
	for i, e := range b.Entries {
		enc, err := MarshalEntry(e)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal block entry %d: %w", i, err)
		}
		// MarshalEntry output is itself a jsonEntry encoding.
		if err := json.Unmarshal(enc, &jb.Entries[i]); err != nil {
			return nil, fmt.Errorf("failed to re-parse block entry %d: %w", i, err)
		}
	}

	return json.Marshal(jb)
}

// UnmarshalBlock parses a canonical encoding produced by [MarshalBlock].
func UnmarshalBlock(data []byte) (vchain.Block, error) {
	var jb jsonBlock
	if err := json.Unmarshal(data, &jb); err != nil {
		return vchain.Block{}, fmt.Errorf("failed to unmarshal block: %w", err)
	}

	b := vchain.Block{Entries: make([]vchain.Entry, len(jb.Entries))}
	for i, je := range jb.Entries {
		enc, err := json.Marshal(je)
		if err != nil {
			return vchain.Block{}, fmt.Errorf("failed to re-encode block entry %d: %w", i, err)
		}
		e, err := UnmarshalEntry(enc)
		if err != nil {
			return vchain.Block{}, fmt.Errorf("failed to unmarshal block entry %d: %w", i, err)
		}
		b.Entries[i] = e
	}

	return b, nil
}
