package vnet

import "github.com/veld-engine/veld/vchain"

// Message is the in-process envelope for all inter-node communication.
//
// Message is a sealed interface; the concrete types are
// [EntryMessage], [BlockMessage], and [Ping].
type Message interface {
	isMessage()
}

// EntryMessage carries one entry for the recipient's pending set.
type EntryMessage struct {
	Entry vchain.Entry
}

func (EntryMessage) isMessage() {}

// BlockMessage carries the ordered entries of a freshly mined block.
type BlockMessage struct {
	Entries []vchain.Entry
}

func (BlockMessage) isMessage() {}

// Ping is a liveness probe; receipt is logged and nothing else happens.
type Ping struct{}

func (Ping) isMessage() {}
