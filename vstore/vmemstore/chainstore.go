// Package vmemstore contains in-memory implementations
// of the vstore interfaces.
package vmemstore

import (
	"context"
	"sync"

	"github.com/veld-engine/veld/vchain"
)

// ChainStore is an in-memory [vstore.ChainStore].
type ChainStore struct {
	mu sync.RWMutex

	// Most recent first.
	blocks []vchain.Block
}

func NewChainStore() *ChainStore {
	return &ChainStore{}
}

func (s *ChainStore) AddBlock(_ context.Context, b vchain.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blocks = append([]vchain.Block{b}, s.blocks...)

	return nil
}

func (s *ChainStore) Blocks(_ context.Context) ([]vchain.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]vchain.Block, len(s.blocks))
	copy(out, s.blocks)

	return out, nil
}

func (s *ChainStore) Height(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.blocks), nil
}
