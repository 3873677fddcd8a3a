// Package vclock maps a monotonic virtual time source to
// (epoch, slot) coordinates and drives all periodic consensus activity.
package vclock

import (
	"fmt"
	"time"
)

// Params are the protocol's timing constants.
type Params struct {
	// SlotDuration is the fixed wall-clock length of one slot.
	SlotDuration time.Duration

	// K is the protocol security parameter; an epoch spans 6*K slots.
	K uint32
}

// EpochSlots returns the number of slots in one epoch.
func (p Params) EpochSlots() uint32 {
	return 6 * p.K
}

// RevealSlot is the slot at which nodes open their committed seeds.
func (p Params) RevealSlot() uint32 {
	return 2 * p.K
}

// ScheduleSlot is the slot at which the next epoch's leader schedule
// is derived from the epoch randomness.
func (p Params) ScheduleSlot() uint32 {
	return 4 * p.K
}

func (p Params) validate() error {
	if p.SlotDuration <= 0 {
		return fmt.Errorf("slot duration must be positive (got %v)", p.SlotDuration)
	}
	if p.K == 0 {
		return fmt.Errorf("protocol parameter K must be positive")
	}
	return nil
}

// EpochSlot is one tick coordinate: epoch, and slot within the epoch.
type EpochSlot struct {
	Epoch uint64
	Slot  uint32
}

// Before reports whether es precedes other in lexicographic order.
func (es EpochSlot) Before(other EpochSlot) bool {
	if es.Epoch != other.Epoch {
		return es.Epoch < other.Epoch
	}
	return es.Slot < other.Slot
}

func (es EpochSlot) String() string {
	return fmt.Sprintf("%d/%d", es.Epoch, es.Slot)
}

// fromAbsolute converts an absolute slot index to epoch/slot coordinates.
func fromAbsolute(abs uint64, epochSlots uint32) EpochSlot {
	return EpochSlot{
		Epoch: abs / uint64(epochSlots),
		Slot:  uint32(abs % uint64(epochSlots)),
	}
}

// SlotAt returns the epoch/slot coordinates of the instant now,
// relative to the shared system start.
// Instants before the system start map to the zero coordinate.
func SlotAt(start, now time.Time, p Params) EpochSlot {
	elapsed := now.Sub(start)
	if elapsed < 0 {
		return EpochSlot{}
	}
	return fromAbsolute(uint64(elapsed/p.SlotDuration), p.EpochSlots())
}
