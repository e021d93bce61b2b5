package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreLoadMissing(t *testing.T) {
	t.Parallel()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	rec, err := fs.Load(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestFileStoreRejectsUnsafeIDs(t *testing.T) {
	t.Parallel()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"", "..", "../escape", "a/b"} {
		_, err := fs.Load(ctx, id)
		require.ErrorIs(t, err, ErrInvalidSessionID, id)
		require.ErrorIs(t, fs.Save(ctx, &Record{SessionID: id}), ErrInvalidSessionID, id)
	}
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, fs.Save(ctx, &Record{SessionID: "s", LastActivity: int64(i)}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "s.json", entries[0].Name())

	rec, err := fs.Load(ctx, "s")
	require.NoError(t, err)
	require.EqualValues(t, 2, rec.LastActivity)
}

func TestFileStoreCorruptFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o600))
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = fs.Load(context.Background(), "bad")
	require.Error(t, err)

	m := NewManager(fs)
	require.Empty(t, m.Recent(context.Background(), "bad", 20))
}
