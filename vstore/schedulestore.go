package vstore

import (
	"context"

	"github.com/veld-engine/veld/vchain"
)

// ScheduleStore holds the slot-leader list per epoch.
//
// A schedule is installed at most once per epoch:
// once set it does not legitimately change,
// and a second distinct assignment is a conflict condition
// that the caller logs (first writer wins).
type ScheduleStore interface {
	// Install records leaders for epoch if no schedule is present yet.
	// If one is already installed, Install reports installed=false
	// and returns the prior schedule so the caller can detect conflicts.
	Install(ctx context.Context, epoch uint64, leaders []vchain.NodeID) (installed bool, prior []vchain.NodeID, err error)

	// Leaders returns the installed schedule for epoch,
	// or an [EpochUnknownError] if none has been installed.
	Leaders(ctx context.Context, epoch uint64) ([]vchain.NodeID, error)
}
