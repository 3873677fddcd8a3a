// Package vlisten is the wire-facing listener collaborator:
// it accepts inbound header and block messages from a real network peer
// and classifies headers against the node's local chain view.
//
// Apart from logging the useless case,
// the reactions to each classification are unimplemented extension points.
// They surface as typed [NotSupportedError] values rather than silent
// no-ops, so the gaps stay visible to future implementers.
package vlisten

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/veld-engine/veld/internal/vlog"
)

// Header is the wire form of a block header received from a peer.
//
// The in-process simulation does not chain blocks by hash,
// so the listener keeps its own hash-linked view of the headers it serves.
type Header struct {
	Height       uint64
	Hash, Parent []byte
}

// NotSupportedError marks a listener reaction that is not yet implemented.
type NotSupportedError struct {
	// Op names the missing reaction, e.g. "request missing blocks".
	Op string
}

func (e NotSupportedError) Error() string {
	return fmt.Sprintf("listener reaction %q not yet supported", e.Op)
}

// Listener handles inbound BlockHeaders and SendBlock messages.
//
// Listener is not safe for concurrent use;
// the transport delivering peer messages must serialize calls.
type Listener struct {
	log *slog.Logger

	tip Header

	// Hashes of every header accepted into the local view.
	known map[string]Header
}

// NewListener returns a listener whose local chain view consists of
// tip plus any already-held ancestor headers.
func NewListener(log *slog.Logger, tip Header, ancestors ...Header) *Listener {
	known := map[string]Header{string(tip.Hash): tip}
	for _, a := range ancestors {
		known[string(a.Hash)] = a
	}

	return &Listener{
		log: log,

		tip: tip,

		known: known,
	}
}

// Classify checks h against the local chain view and returns
// exactly one of the four classification outcomes.
func (l *Listener) Classify(h Header) Outcome {
	if len(h.Hash) == 0 {
		return Outcome{Class: ClassInvalid, Reason: "empty header hash"}
	}
	if len(h.Parent) == 0 {
		return Outcome{Class: ClassInvalid, Reason: "empty parent hash"}
	}

	if _, ok := l.known[string(h.Hash)]; ok {
		return Outcome{Class: ClassUseless, Reason: "header already known"}
	}

	if bytes.Equal(h.Parent, l.tip.Hash) {
		if h.Height != l.tip.Height+1 {
			return Outcome{Class: ClassInvalid, Reason: fmt.Sprintf(
				"header extends tip at height %d but claims height %d",
				l.tip.Height, h.Height,
			)}
		}
		return Outcome{Class: ClassContinues}
	}

	if _, ok := l.known[string(h.Parent)]; ok {
		return Outcome{Class: ClassAlternative}
	}

	return Outcome{Class: ClassUseless, Reason: "header attaches to no known block"}
}

// HandleBlockHeaders processes an inbound BlockHeaders message.
//
// Useless headers are logged with their reason and dropped.
// Every other classification is an unhandled extension point:
// requesting the missing blocks or headers for the continues and
// alternative cases, and penalizing the peer for the invalid case.
func (l *Listener) HandleBlockHeaders(_ context.Context, headers []Header) error {
	for _, h := range headers {
		out := l.Classify(h)
		switch out.Class {
		case ClassUseless:
			l.log.Info(
				"Ignoring useless header",
				"height", h.Height,
				"hash", vlog.Hex(h.Hash),
				"reason", out.Reason,
			)
		case ClassContinues:
			return NotSupportedError{Op: "request block for continuing header"}
		case ClassAlternative:
			return NotSupportedError{Op: "request headers for alternative branch"}
		case ClassInvalid:
			return NotSupportedError{Op: "penalize peer for invalid header"}
		default:
			panic(fmt.Errorf("BUG: classification returned %v", out.Class))
		}
	}
	return nil
}

// HandleSendBlock processes an inbound SendBlock message.
// Ingesting a peer-relayed block is an unhandled extension point.
func (l *Listener) HandleSendBlock(_ context.Context, h Header) error {
	l.log.Info("Received block from peer", "height", h.Height, "hash", vlog.Hex(h.Hash))
	return NotSupportedError{Op: "ingest peer-relayed block"}
}
