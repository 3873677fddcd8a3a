package vchain

// NodeID identifies one logical node in the simulation.
// IDs are assigned densely from zero at bootstrap,
// and they double as destination addresses on the router.
type NodeID uint16

// Entry is the unit of membership in a node's pending set and in blocks.
//
// Entry is a sealed interface; the concrete types are
// [Transaction], [SeedCommitment], [SeedShare], [SeedOpening],
// [LeaderSchedule], and [DelegationCert].
//
// Entries are compared and deduplicated by structural equality,
// via their canonical encoding in the vcodec package.
type Entry interface {
	isEntry()
}

// TxInput references a prior transaction output by hash and index.
type TxInput struct {
	PrevTxHash []byte
	Index      uint32
}

// TxOutput carries a value to a new owner.
// Ownership is not modeled; only the value matters to the simulation.
type TxOutput struct {
	Value uint64
}

// Transaction is an ordinary value-transfer entry.
type Transaction struct {
	Inputs  []TxInput
	Outputs []TxOutput
}

func (Transaction) isEntry() {}

// SeedCommitment is a node's hash commitment to its per-epoch random seed,
// published before any seed is revealed.
type SeedCommitment struct {
	Node  NodeID
	Epoch uint64

	// Hash is the blake2b-256 digest of the committed seed.
	Hash []byte
}

func (SeedCommitment) isEntry() {}

// EncryptedShare is an opaque envelope holding one secret share,
// readable only by the node it is addressed to.
//
// This is a directed mailbox, not a confidentiality guarantee:
// the payload is masked with a keystream derived from the recipient ID,
// so any handler other than the addressee gets a clean open failure
// rather than a usable share.
type EncryptedShare struct {
	To   NodeID
	Data []byte
}

// SeedShare carries one share of From's secret-shared seed,
// addressed to To and opaque to every other node.
type SeedShare struct {
	From, To NodeID
	Epoch    uint64
	Enc      EncryptedShare
}

func (SeedShare) isEntry() {}

// SeedOpening reveals the seed a node previously committed to.
// Receivers verify the opening against the stored commitment.
type SeedOpening struct {
	Node  NodeID
	Epoch uint64
	Seed  uint64
}

func (SeedOpening) isEntry() {}

// LeaderSchedule assigns the block leader for every slot of one epoch.
// Leaders is indexed by slot and must have exactly epochSlots elements.
type LeaderSchedule struct {
	Epoch   uint64
	Leaders []NodeID
}

func (LeaderSchedule) isEntry() {}

// DelegationCert is a delegation certificate (a "proxy key"):
// Issuer delegates its leadership duties for Epoch to Delegate.
// A certificate whose issuer equals its delegate is a revocation.
type DelegationCert struct {
	Issuer, Delegate NodeID
	Epoch            uint64
}

func (DelegationCert) isEntry() {}
