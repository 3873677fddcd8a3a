package vssr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veld-engine/veld/internal/vtest"
	"github.com/veld-engine/veld/vchain"
	"github.com/veld-engine/veld/vsecret"
	"github.com/veld-engine/veld/vssr"
)

func TestEngine_GenerateEpoch(t *testing.T) {
	t.Parallel()

	e := vssr.NewEngine(vtest.NewLogger(t), 1, 4, 1)

	seed, entries, err := e.GenerateEpoch(7)
	require.NoError(t, err)

	// One share per node in NodeID order, then the commitment.
	require.Len(t, entries, 5)
	for i := range 4 {
		share, ok := entries[i].(vchain.SeedShare)
		require.True(t, ok, "entry %d should be a share", i)
		require.Equal(t, vchain.NodeID(1), share.From)
		require.Equal(t, vchain.NodeID(i), share.To)
		require.Equal(t, uint64(7), share.Epoch)
		require.Equal(t, share.To, share.Enc.To)
	}

	commitment, ok := entries[4].(vchain.SeedCommitment)
	require.True(t, ok)
	require.Equal(t, vchain.NodeID(1), commitment.Node)
	require.Equal(t, uint64(7), commitment.Epoch)
	require.NoError(t, vssr.VerifyOpening(seed, commitment.Hash))
}

func TestEngine_GenerateEpoch_sharesReconstructSeed(t *testing.T) {
	t.Parallel()

	e := vssr.NewEngine(vtest.NewLogger(t), 0, 3, 0)

	seed, entries, err := e.GenerateEpoch(1)
	require.NoError(t, err)

	var opened []vchain.SeedShare
	for _, entry := range entries {
		if s, ok := entry.(vchain.SeedShare); ok {
			opened = append(opened, s)
		}
	}
	require.Len(t, opened, 3)

	// Every addressee can open its own envelope;
	// the opened shares jointly reconstruct the seed.
	shares := make([]vsecret.Share, 0, 3)
	for _, s := range opened {
		share, ok := vssr.Open(s.To, s.Enc)
		require.True(t, ok)
		shares = append(shares, share)
	}

	got, err := vsecret.Reconstruct(shares)
	require.NoError(t, err)
	require.Equal(t, seed, got)
}

func TestLeadersFromSeed_deterministicAndInRange(t *testing.T) {
	t.Parallel()

	a := vssr.LeadersFromSeed(42, 18, 3)
	b := vssr.LeadersFromSeed(42, 18, 3)
	require.Equal(t, a, b)
	require.Len(t, a, 18)

	for _, l := range a {
		require.Less(t, int(l), 3)
	}

	c := vssr.LeadersFromSeed(43, 18, 3)
	require.NotEqual(t, a, c)
}

func TestRandomLeaders_shape(t *testing.T) {
	t.Parallel()

	leaders := vssr.RandomLeaders(12, 5)
	require.Len(t, leaders, 12)
	for _, l := range leaders {
		require.Less(t, int(l), 5)
	}
}

func TestFallbackSeed_deterministicPerEpoch(t *testing.T) {
	t.Parallel()

	require.Equal(t, vssr.FallbackSeed(3), vssr.FallbackSeed(3))
	require.NotEqual(t, vssr.FallbackSeed(3), vssr.FallbackSeed(4))
}
