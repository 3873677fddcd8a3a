package vmemstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veld-engine/veld/vchain"
	"github.com/veld-engine/veld/vstore"
	"github.com/veld-engine/veld/vstore/vmemstore"
)

func TestChainStore_mostRecentFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := vmemstore.NewChainStore()

	height, err := s.Height(ctx)
	require.NoError(t, err)
	require.Zero(t, height)

	first := vchain.Block{Entries: []vchain.Entry{vchain.SeedOpening{Node: 0, Epoch: 1, Seed: 1}}}
	second := vchain.Block{Entries: []vchain.Entry{vchain.SeedOpening{Node: 1, Epoch: 1, Seed: 2}}}

	require.NoError(t, s.AddBlock(ctx, first))
	require.NoError(t, s.AddBlock(ctx, second))

	blocks, err := s.Blocks(ctx)
	require.NoError(t, err)
	require.Equal(t, []vchain.Block{second, first}, blocks)

	height, err = s.Height(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, height)
}

func TestScheduleStore_installOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := vmemstore.NewScheduleStore()

	original := []vchain.NodeID{0, 1, 2}
	installed, prior, err := s.Install(ctx, 1, original)
	require.NoError(t, err)
	require.True(t, installed)
	require.Nil(t, prior)

	// A second install for the same epoch is refused
	// and reports what is already held.
	installed, prior, err = s.Install(ctx, 1, []vchain.NodeID{2, 1, 0})
	require.NoError(t, err)
	require.False(t, installed)
	require.Equal(t, original, prior)

	leaders, err := s.Leaders(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, original, leaders)
}

func TestScheduleStore_unknownEpoch(t *testing.T) {
	t.Parallel()

	s := vmemstore.NewScheduleStore()

	_, err := s.Leaders(context.Background(), 9)
	require.ErrorIs(t, err, vstore.EpochUnknownError{Epoch: 9})
}

func TestScheduleStore_installCopiesInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := vmemstore.NewScheduleStore()

	leaders := []vchain.NodeID{0, 1}
	_, _, err := s.Install(ctx, 1, leaders)
	require.NoError(t, err)

	leaders[0] = 9

	got, err := s.Leaders(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []vchain.NodeID{0, 1}, got)
}
