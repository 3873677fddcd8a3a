// Package vstore defines the storage interfaces backing a node's
// consensus state: its local block history and its leader schedules.
//
// This simulation only ships in-memory implementations (vmemstore);
// durability is out of scope.
package vstore

import (
	"context"

	"github.com/veld-engine/veld/vchain"
)

// ChainStore is one node's local view of chain history.
//
// Blocks are prepended on receipt, so reads are most-recent-first.
// No fork-choice rule is applied beyond "accept every received block".
type ChainStore interface {
	// AddBlock prepends b to the local history.
	AddBlock(ctx context.Context, b vchain.Block) error

	// Blocks returns a copy of the history, most recent first.
	Blocks(ctx context.Context) ([]vchain.Block, error)

	// Height returns the number of accepted blocks.
	Height(ctx context.Context) (int, error)
}
