package sqlite_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Houeta/darkside-companion/internal/repository/sqlite"
)

func TestNewRepository(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("creates schema", func(t *testing.T) {
		repo, err := sqlite.NewRepository(t.Context(), logger, filepath.Join(t.TempDir(), "schema.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })

		var name string
		err = repo.DB().QueryRowContext(t.Context(),
			"SELECT name FROM sqlite_master WHERE type='table' AND name='local_storage'").Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, "local_storage", name)
	})

	t.Run("reopen keeps data", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reopen.db")

		first, err := sqlite.NewRepository(t.Context(), logger, path)
		require.NoError(t, err)
		require.NoError(t, first.Set(t.Context(), "darkside_wishlist", `[{"handle":"mox"}]`))
		require.NoError(t, first.Close())

		second, err := sqlite.NewRepository(t.Context(), logger, path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = second.Close() })

		value, err := second.Get(t.Context(), "darkside_wishlist")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"handle":"mox"}]`, value)
	})

	t.Run("unwritable path", func(t *testing.T) {
		_, err := sqlite.NewRepository(t.Context(), logger, "/nonexistent/dir/darkside.db")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "repository.sqlite.NewRepository")
	})
}

func TestRepository_Close(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := sqlite.NewRepository(t.Context(), logger, filepath.Join(t.TempDir(), "close.db"))
	require.NoError(t, err)

	require.NoError(t, repo.Close())
	assert.Error(t, repo.DB().PingContext(t.Context()))
}
