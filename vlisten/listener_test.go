package vlisten_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veld-engine/veld/internal/vtest"
	"github.com/veld-engine/veld/vlisten"
)

func newListenerFixture(t *testing.T) *vlisten.Listener {
	t.Helper()

	return vlisten.NewListener(
		vtest.NewLogger(t),
		vlisten.Header{
			Height: 10,
			Hash:   []byte("tip"),
			Parent: []byte("tip-parent"),
		},
		vlisten.Header{
			Height: 9,
			Hash:   []byte("tip-parent"),
			Parent: []byte("ancestor"),
		},
	)
}

func TestListener_Classify(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		header vlisten.Header
		want   vlisten.Classification
	}{
		{
			name:   "extends tip at next height",
			header: vlisten.Header{Height: 11, Hash: []byte("new"), Parent: []byte("tip")},
			want:   vlisten.ClassContinues,
		},
		{
			name:   "extends tip at wrong height",
			header: vlisten.Header{Height: 13, Hash: []byte("new"), Parent: []byte("tip")},
			want:   vlisten.ClassInvalid,
		},
		{
			name:   "already known",
			header: vlisten.Header{Height: 10, Hash: []byte("tip"), Parent: []byte("tip-parent")},
			want:   vlisten.ClassUseless,
		},
		{
			name:   "branches from a known ancestor",
			header: vlisten.Header{Height: 10, Hash: []byte("rival"), Parent: []byte("tip-parent")},
			want:   vlisten.ClassAlternative,
		},
		{
			name:   "attaches to nothing known",
			header: vlisten.Header{Height: 11, Hash: []byte("new"), Parent: []byte("stranger")},
			want:   vlisten.ClassUseless,
		},
		{
			name:   "empty hash",
			header: vlisten.Header{Height: 11, Parent: []byte("tip")},
			want:   vlisten.ClassInvalid,
		},
		{
			name:   "empty parent",
			header: vlisten.Header{Height: 11, Hash: []byte("new")},
			want:   vlisten.ClassInvalid,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l := newListenerFixture(t)
			require.Equal(t, tc.want, l.Classify(tc.header).Class)
		})
	}
}

func TestListener_handleBlockHeadersDropsUseless(t *testing.T) {
	t.Parallel()

	l := newListenerFixture(t)

	err := l.HandleBlockHeaders(context.Background(), []vlisten.Header{
		{Height: 10, Hash: []byte("tip"), Parent: []byte("tip-parent")},
		{Height: 11, Hash: []byte("orphan"), Parent: []byte("stranger")},
	})
	require.NoError(t, err)
}

func TestListener_handleBlockHeadersSurfacesUnimplementedReactions(t *testing.T) {
	t.Parallel()

	l := newListenerFixture(t)

	err := l.HandleBlockHeaders(context.Background(), []vlisten.Header{
		{Height: 11, Hash: []byte("new"), Parent: []byte("tip")},
	})

	var ns vlisten.NotSupportedError
	require.ErrorAs(t, err, &ns)
}

func TestListener_handleSendBlockNotSupported(t *testing.T) {
	t.Parallel()

	l := newListenerFixture(t)

	err := l.HandleSendBlock(context.Background(), vlisten.Header{
		Height: 11,
		Hash:   []byte("new"),
		Parent: []byte("tip"),
	})

	var ns vlisten.NotSupportedError
	require.ErrorAs(t, err, &ns)
}

func TestClassification_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Continues", vlisten.ClassContinues.String())
	require.Equal(t, "Unspecified", vlisten.ClassUnspecified.String())
}
