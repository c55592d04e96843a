package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"starlight-postoffice/internal/domain"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "sessions"))
	require.NoError(t, err)

	_, err = store.Load(ctx, "visitor-1")
	require.ErrorIs(t, err, ErrNotFound)

	s := testSession("visitor-1")
	require.NoError(t, store.Save(ctx, s))
	require.FileExists(t, filepath.Join(dir, "sessions", "visitor-1.json"))

	got, err := store.Load(ctx, "visitor-1")
	require.NoError(t, err)
	require.Equal(t, s.Room, got.Room)
	require.Equal(t, s.Turns, got.Turns)
	require.Equal(t, s.UsedStories, got.UsedStories)

	s.RoomTurns = 3
	require.NoError(t, store.Save(ctx, s))
	got, err = store.Load(ctx, "visitor-1")
	require.NoError(t, err)
	require.Equal(t, 3, got.RoomTurns)

	require.NoError(t, store.Delete(ctx, "visitor-1"))
	require.NoError(t, store.Delete(ctx, "visitor-1"), "deleting twice is fine")
	_, err = store.Load(ctx, "visitor-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v.json"), []byte("{not json"), 0o644))

	_, err = store.Load(context.Background(), "v")
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestFileStore_UnsafeIdentityIsHashed(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	s := domain.NewSession("../../etc/passwd", testSession("x").CreatedAt)
	require.NoError(t, store.Save(context.Background(), s))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotContains(t, entries[0].Name(), "..")

	got, err := store.Load(context.Background(), "../../etc/passwd")
	require.NoError(t, err)
	require.Equal(t, domain.PhaseEntrance, got.Phase)
}

func TestNewFileStore_EmptyDir(t *testing.T) {
	_, err := NewFileStore(" ")
	require.Error(t, err)
}
