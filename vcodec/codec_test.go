package vcodec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veld-engine/veld/vchain"
	"github.com/veld-engine/veld/vcodec"
)

func TestMarshalEntry_roundTrip(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name  string
		entry vchain.Entry
	}{
		{
			name: "transaction",
			entry: vchain.Transaction{
				Inputs:  []vchain.TxInput{{PrevTxHash: []byte{0xaa}, Index: 2}},
				Outputs: []vchain.TxOutput{{Value: 50}},
			},
		},
		{
			name:  "seed commitment",
			entry: vchain.SeedCommitment{Node: 1, Epoch: 3, Hash: []byte{1, 2, 3}},
		},
		{
			name: "seed share",
			entry: vchain.SeedShare{
				From:  0,
				To:    2,
				Epoch: 3,
				Enc:   vchain.EncryptedShare{To: 2, Data: []byte{9, 9}},
			},
		},
		{
			name:  "seed opening",
			entry: vchain.SeedOpening{Node: 1, Epoch: 3, Seed: 0xffeeddcc},
		},
		{
			name:  "leader schedule",
			entry: vchain.LeaderSchedule{Epoch: 4, Leaders: []vchain.NodeID{0, 2, 1}},
		},
		{
			name:  "delegation cert",
			entry: vchain.DelegationCert{Issuer: 0, Delegate: 2, Epoch: 5},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b, err := vcodec.MarshalEntry(tc.entry)
			require.NoError(t, err)

			got, err := vcodec.UnmarshalEntry(b)
			require.NoError(t, err)
			require.Equal(t, tc.entry, got)
		})
	}
}

func TestUnmarshalEntry_rejectsUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := vcodec.UnmarshalEntry([]byte(`{"Kind":"bogus","Data":{}}`))
	require.Error(t, err)
}

func TestEntryKey_structuralEquality(t *testing.T) {
	t.Parallel()

	a := vchain.SeedOpening{Node: 1, Epoch: 2, Seed: 3}
	b := vchain.SeedOpening{Node: 1, Epoch: 2, Seed: 3}
	c := vchain.SeedOpening{Node: 1, Epoch: 2, Seed: 4}

	require.Equal(t, vcodec.EntryKey(a), vcodec.EntryKey(b))
	require.NotEqual(t, vcodec.EntryKey(a), vcodec.EntryKey(c))
}

func TestEntryKey_distinguishesKinds(t *testing.T) {
	t.Parallel()

	// Same field shapes, different entry kinds.
	opening := vchain.SeedOpening{Node: 0, Epoch: 0, Seed: 0}
	cert := vchain.DelegationCert{Issuer: 0, Delegate: 0, Epoch: 0}

	require.NotEqual(t, vcodec.EntryKey(opening), vcodec.EntryKey(cert))
}

func TestMarshalBlock_roundTrip(t *testing.T) {
	t.Parallel()

	block := vchain.Block{Entries: []vchain.Entry{
		vchain.SeedCommitment{Node: 0, Epoch: 1, Hash: []byte{4, 5}},
		vchain.LeaderSchedule{Epoch: 2, Leaders: []vchain.NodeID{1, 0}},
	}}

	b, err := vcodec.MarshalBlock(block)
	require.NoError(t, err)

	got, err := vcodec.UnmarshalBlock(b)
	require.NoError(t, err)
	require.Equal(t, block, got)
}

func TestMarshalBlock_emptyBlock(t *testing.T) {
	t.Parallel()

	b, err := vcodec.MarshalBlock(vchain.Block{})
	require.NoError(t, err)

	got, err := vcodec.UnmarshalBlock(b)
	require.NoError(t, err)
	require.Empty(t, got.Entries)
}
