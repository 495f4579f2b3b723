package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoltCursorStore_SetAndGetAcked(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBoltCursorStore(dir)
	require.NoError(t, err)
	defer store.Close()

	seq, err := store.GetAcked("shop", "peer-1")
	require.NoError(t, err)
	require.Equal(t, uint64(0), seq)

	require.NoError(t, store.SetAcked("shop", "peer-1", 3))
	seq, err = store.GetAcked("shop", "peer-1")
	require.NoError(t, err)
	require.Equal(t, uint64(3), seq)
}

func TestBoltCursorStore_ListCursors(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBoltCursorStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SetAcked("shop", "peer-1", 3))
	require.NoError(t, store.SetAcked("shop", "peer-2", 5))
	require.NoError(t, store.SetAcked("other-tenant", "peer-1", 9))

	cursors, err := store.ListCursors("shop")
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{"peer-1": 3, "peer-2": 5}, cursors)
}

func TestBoltCursorStore_ReopenPersists(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBoltCursorStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SetAcked("shop", "peer-1", 7))
	require.NoError(t, store.Close())

	reopened, err := NewBoltCursorStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	seq, err := reopened.GetAcked("shop", "peer-1")
	require.NoError(t, err)
	require.Equal(t, uint64(7), seq)
}
