package api

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/testutil"
)

func TestWatch_ReloadsOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	store := state.NewJSONLedgerStore(path)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, store.Save(ctx, []*core.Task{testutil.NewTestTask()}))
	s, err := NewServer(ctx, store)
	require.NoError(t, err)
	require.Equal(t, 1, s.Snapshot().Len())

	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, path) }()
	// Let the watcher register before writing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, store.Save(ctx, []*core.Task{
		testutil.NewTestTask(), testutil.NewTestTask(), testutil.NewTestTask(),
	}))

	assert.Eventually(t, func() bool { return s.Snapshot().Len() == 3 },
		5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	s, err := NewServer(context.Background(), store)
	require.NoError(t, err)

	err = s.Watch(context.Background(), filepath.Join(t.TempDir(), "gone", "ledger.json"))
	assert.Error(t, err)
}
