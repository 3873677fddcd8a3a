package vmemstore

import (
	"context"
	"sync"

	"github.com/veld-engine/veld/vchain"
	"github.com/veld-engine/veld/vstore"
)

// ScheduleStore is an in-memory [vstore.ScheduleStore].
type ScheduleStore struct {
	mu sync.RWMutex

	schedules map[uint64][]vchain.NodeID
}

func NewScheduleStore() *ScheduleStore {
	return &ScheduleStore{
		schedules: make(map[uint64][]vchain.NodeID),
	}
}

func (s *ScheduleStore) Install(_ context.Context, epoch uint64, leaders []vchain.NodeID) (bool, []vchain.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.schedules[epoch]; ok {
		return false, prior, nil
	}

	cp := make([]vchain.NodeID, len(leaders))
	copy(cp, leaders)
	s.schedules[epoch] = cp

	return true, nil, nil
}

func (s *ScheduleStore) Leaders(_ context.Context, epoch uint64) ([]vchain.NodeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	leaders, ok := s.schedules[epoch]
	if !ok {
		return nil, vstore.EpochUnknownError{Epoch: epoch}
	}

	out := make([]vchain.NodeID, len(leaders))
	copy(out, leaders)

	return out, nil
}
