package reader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/0xmhha/usage-meter/pkg/logger"
	"github.com/0xmhha/usage-meter/pkg/parser"
)

const entryLine = `{"timestamp":"2025-06-01T10:00:00Z","sessionId":"a1b2c3d4-e5f6-7890-abcd-ef1234567890","message":{"id":"msg_1","model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":100,"output_tokens":50,"cache_creation_input_tokens":0,"cache_read_input_tokens":0}}}`

func newTestReader(t *testing.T) Reader {
	t.Helper()

	r, err := New(Config{
		PositionStore: NewMemoryPositionStore(),
		Parser:        parser.New(logger.Noop()),
	}, logger.Noop())
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, r.Close())
	})
	return r
}

func TestNew_MissingDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Parser: parser.New(logger.Noop())}, logger.Noop())
	assert.Error(t, err, "missing position store should fail")

	_, err = New(Config{PositionStore: NewMemoryPositionStore()}, logger.Noop())
	assert.Error(t, err, "missing parser should fail")
}

func TestRead_Incremental(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(entryLine+"\n"), 0600))

	r := newTestReader(t)
	ctx := context.Background()

	entries, err := r.Read(ctx, path)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// Second read with no new data yields nothing.
	entries, err = r.Read(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Append and read again: only the new entry comes back.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString(entryLine + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err = r.Read(ctx, path)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRead_TruncatedFileResets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(entryLine+"\n"+entryLine+"\n"), 0600))

	r := newTestReader(t)
	ctx := context.Background()

	entries, err := r.Read(ctx, path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Rewrite the file shorter than the stored offset.
	require.NoError(t, os.WriteFile(path, []byte(entryLine+"\n"), 0600))

	entries, err = r.Read(ctx, path)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "truncation should restart from the beginning")
}

func TestReadFrom_InvalidOffset(t *testing.T) {
	t.Parallel()

	r := newTestReader(t)
	_, _, err := r.ReadFrom(context.Background(), "whatever", -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestReset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(entryLine+"\n"), 0600))

	r := newTestReader(t)
	ctx := context.Background()

	_, err := r.Read(ctx, path)
	require.NoError(t, err)

	require.NoError(t, r.Reset(path))

	entries, err := r.Read(ctx, path)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "after reset the whole file is re-read")
}

func TestRead_Closed(t *testing.T) {
	t.Parallel()

	r, err := New(Config{
		PositionStore: NewMemoryPositionStore(),
		Parser:        parser.New(logger.Noop()),
	}, logger.Noop())
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.Read(context.Background(), "x")
	assert.ErrorIs(t, err, ErrReaderClosed)
}

func TestBoltPositionStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db, err := OpenPositionDB(filepath.Join(dir, "positions.db"))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()

	store, err := NewBoltPositionStore(db)
	require.NoError(t, err)

	// Unknown path starts at zero.
	offset, err := store.GetPosition("/a/b.jsonl")
	require.NoError(t, err)
	assert.Equal(t, int64(0), offset)

	require.NoError(t, store.SetPosition("/a/b.jsonl", 4096))

	offset, err = store.GetPosition("/a/b.jsonl")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), offset)
}
