package vsecret_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veld-engine/veld/vsecret"
)

func TestSplit_roundTrip(t *testing.T) {
	t.Parallel()

	const seed uint64 = 0xdeadbeefcafef00d

	shares, err := vsecret.Split(seed, 5, 3)
	require.NoError(t, err)
	require.Len(t, shares, 5)

	got, err := vsecret.Reconstruct(shares)
	require.NoError(t, err)
	require.Equal(t, seed, got)
}

func TestSplit_thresholdSubsetSuffices(t *testing.T) {
	t.Parallel()

	const seed uint64 = 12345

	shares, err := vsecret.Split(seed, 5, 3)
	require.NoError(t, err)

	got, err := vsecret.Reconstruct(shares[1:4])
	require.NoError(t, err)
	require.Equal(t, seed, got)
}

func TestSplit_sharesOrderedByID(t *testing.T) {
	t.Parallel()

	shares, err := vsecret.Split(777, 4, 2)
	require.NoError(t, err)

	for i := 1; i < len(shares); i++ {
		require.Less(t, shares[i-1].ID, shares[i].ID)
	}
}

func TestSplit_rejectsThresholdBelowTwo(t *testing.T) {
	t.Parallel()

	_, err := vsecret.Split(1, 3, 1)
	require.Error(t, err)
}

func TestReconstruct_undersizedQuorumYieldsWrongSeed(t *testing.T) {
	t.Parallel()

	const seed uint64 = 0x0123456789abcdef

	shares, err := vsecret.Split(seed, 5, 4)
	require.NoError(t, err)

	// Below the threshold the scheme cannot fail loudly;
	// it just produces a value unrelated to the original.
	got, err := vsecret.Reconstruct(shares[:3])
	require.NoError(t, err)
	require.NotEqual(t, seed, got)
}

func TestReconstruct_rejectsEmptyInput(t *testing.T) {
	t.Parallel()

	_, err := vsecret.Reconstruct(nil)
	require.Error(t, err)
}

func TestReconstruct_rejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	shares, err := vsecret.Split(99, 3, 2)
	require.NoError(t, err)

	_, err = vsecret.Reconstruct([]vsecret.Share{shares[0], shares[0], shares[1]})
	require.Error(t, err)
}
