package vclock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veld-engine/veld/vclock"
)

func TestParams_derivedSlots(t *testing.T) {
	t.Parallel()

	p := vclock.Params{SlotDuration: time.Second, K: 3}

	require.Equal(t, uint32(18), p.EpochSlots())
	require.Equal(t, uint32(6), p.RevealSlot())
	require.Equal(t, uint32(12), p.ScheduleSlot())
}

func TestSlotAt(t *testing.T) {
	t.Parallel()

	p := vclock.Params{SlotDuration: time.Second, K: 1} // 6 slots per epoch
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		name    string
		elapsed time.Duration
		want    vclock.EpochSlot
	}{
		{name: "before start", elapsed: -time.Minute, want: vclock.EpochSlot{}},
		{name: "at start", elapsed: 0, want: vclock.EpochSlot{Epoch: 0, Slot: 0}},
		{name: "mid slot", elapsed: 1500 * time.Millisecond, want: vclock.EpochSlot{Epoch: 0, Slot: 1}},
		{name: "last slot of epoch", elapsed: 5 * time.Second, want: vclock.EpochSlot{Epoch: 0, Slot: 5}},
		{name: "epoch rollover", elapsed: 6 * time.Second, want: vclock.EpochSlot{Epoch: 1, Slot: 0}},
		{name: "deep into later epoch", elapsed: 15 * time.Second, want: vclock.EpochSlot{Epoch: 2, Slot: 3}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := vclock.SlotAt(start, start.Add(tc.elapsed), p)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestEpochSlot_Before(t *testing.T) {
	t.Parallel()

	a := vclock.EpochSlot{Epoch: 1, Slot: 5}

	require.True(t, a.Before(vclock.EpochSlot{Epoch: 2, Slot: 0}))
	require.True(t, a.Before(vclock.EpochSlot{Epoch: 1, Slot: 6}))
	require.False(t, a.Before(a))
	require.False(t, a.Before(vclock.EpochSlot{Epoch: 0, Slot: 9}))
}

func TestEpochSlot_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2/11", vclock.EpochSlot{Epoch: 2, Slot: 11}.String())
}
