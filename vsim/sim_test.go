package vsim_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veld-engine/veld/internal/vtest"
	"github.com/veld-engine/veld/vchain"
	"github.com/veld-engine/veld/vclock"
	"github.com/veld-engine/veld/vsim"
	"github.com/veld-engine/veld/vwatchdog"
)

func TestNew_rejectsEmptySimulation(t *testing.T) {
	t.Parallel()

	_, err := vsim.New(vtest.NewLogger(t), vsim.Config{Nodes: 0})
	require.Error(t, err)
}

func TestSim_endToEnd(t *testing.T) {
	t.Parallel()

	slot := time.Duration(vtest.ScaleMs(25))

	sim, err := vsim.New(vtest.NewLogger(t), vsim.Config{
		Nodes:     3,
		Tolerance: 0,
		Params: vclock.Params{
			SlotDuration: slot,
			K:            1, // 6 slots per epoch keeps the run short
		},
		SystemStart: time.Now().Add(2 * slot),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(vtest.ScaleMs(1500)))
	defer cancel()

	// The deadline is a normal shutdown, not a failure.
	require.NoError(t, sim.Run(ctx))

	// Node 0's bootstrap mined the empty block and the schedule block,
	// and broadcast both to everyone.
	report, err := sim.Report(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 3)
	for _, r := range report {
		require.GreaterOrEqualf(t, r.Height, 2, "node %d height", r.ID)
	}

	// Every node installed the same epoch 1 schedule.
	want, err := sim.Schedules(0).Leaders(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, want, 6)

	for id := vchain.NodeID(1); id < 3; id++ {
		got, err := sim.Schedules(id).Leaders(context.Background(), 1)
		require.NoError(t, err)
		require.Equalf(t, want, got, "node %d epoch 1 schedule", id)
	}

	// Every broadcast block reached every node,
	// so all three chains grew to the same height.
	h0, err := sim.Chain(0).Height(context.Background())
	require.NoError(t, err)
	for id := vchain.NodeID(1); id < 3; id++ {
		h, err := sim.Chain(id).Height(context.Background())
		require.NoError(t, err)
		require.Equalf(t, h0, h, "node %d height", id)
	}
}

// stallClock delays the first timer request long enough for a watchdog
// check to come and go, wedging every scheduler at startup.
type stallClock struct {
	inner vclock.Clock
	stall time.Duration
	once  sync.Once
}

func (c *stallClock) Now() time.Time { return c.inner.Now() }

func (c *stallClock) After(d time.Duration) (<-chan time.Time, func()) {
	c.once.Do(func() { time.Sleep(c.stall) })
	return c.inner.After(d)
}

func TestSim_runReturnsWatchdogTerminationCause(t *testing.T) {
	t.Parallel()

	slot := time.Duration(vtest.ScaleMs(10))

	// Monitors check in at 10 slots with a 5 slot response deadline,
	// so a stall of 40 slots guarantees a missed check.
	sim, err := vsim.New(vtest.NewLogger(t), vsim.Config{
		Nodes:     3,
		Tolerance: 0,
		Params: vclock.Params{
			SlotDuration: slot,
			K:            1,
		},
		SystemStart: time.Now().Add(2 * slot),
		Clock: &stallClock{
			inner: vclock.WallClock{},
			stall: time.Duration(vtest.ScaleMs(400)),
		},
	})
	require.NoError(t, err)

	// The parent context stays live the whole time;
	// only the watchdog termination can end the run.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- sim.Run(ctx)
	}()

	runErr := vtest.ReceiveOrTimeout(t, errCh, vtest.ScaleMs(5000))

	var timeout vwatchdog.TimeoutError
	require.ErrorAs(t, runErr, &timeout)
}
