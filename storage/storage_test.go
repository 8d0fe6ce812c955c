package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlite.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewWithDB(sqlite, logger)
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	store := testStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	require.NoError(t, store.EnsureSchema(ctx))
	// Startup runs this every time; a second pass must not fail.
	require.NoError(t, store.EnsureSchema(ctx))
}

func TestSubscribers(t *testing.T) {
	store := testStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	require.NoError(t, store.EnsureSchema(ctx))

	{
		subs, err := store.Subscribers(ctx)
		require.NoError(t, err)
		require.Len(t, subs, 0)
	}
	{
		require.NoError(t, store.AddSubscriber(ctx, "bob@example.com"))
		require.NoError(t, store.AddSubscriber(ctx, "alice@example.com"))
		// Re-adding must be a silent no-op.
		require.NoError(t, store.AddSubscriber(ctx, "bob@example.com"))

		subs, err := store.Subscribers(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"alice@example.com", "bob@example.com"}, subs)
	}
}

func TestSentHashes(t *testing.T) {
	store := testStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	require.NoError(t, store.EnsureSchema(ctx))

	const hash = "74b87337454200d4d33f80c4663dc5e5"

	sent, err := store.HasSent(ctx, hash)
	require.NoError(t, err)
	require.False(t, sent)

	require.NoError(t, store.MarkSent(ctx, hash))

	sent, err = store.HasSent(ctx, hash)
	require.NoError(t, err)
	require.True(t, sent)

	// Marking twice must not error.
	require.NoError(t, store.MarkSent(ctx, hash))

	other, err := store.HasSent(ctx, "a-different-hash")
	require.NoError(t, err)
	require.False(t, other)
}
