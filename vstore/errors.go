package vstore

import "fmt"

// EpochUnknownError is returned by [ScheduleStore.Leaders]
// when no schedule has been installed for the requested epoch.
//
// Absent schedules are a normal condition:
// a node simply is not a leader for an epoch it knows nothing about.
type EpochUnknownError struct {
	Epoch uint64
}

func (e EpochUnknownError) Error() string {
	return fmt.Sprintf("no leader schedule installed for epoch %d", e.Epoch)
}
