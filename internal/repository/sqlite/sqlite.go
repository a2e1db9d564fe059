package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// Repository is a key/value storage backed by a single sqlite table.
type Repository struct {
	db  *sql.DB
	log *slog.Logger
}

// dsnOptions enable WAL and a 5s busy timeout.
const dsnOptions = "_journal_mode=WAL&_busy_timeout=5000"

// NewRepository opens (or creates) the database file at storagePath and
// migrates the schema.
func NewRepository(ctx context.Context, log *slog.Logger, storagePath string) (*Repository, error) {
	const opn = "repository.sqlite.NewRepository"

	dtb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", storagePath, dsnOptions))
	if err != nil {
		return nil, fmt.Errorf("%s: error opening database: %w", opn, err)
	}

	if err = dtb.PingContext(ctx); err != nil {
		_ = dtb.Close()
		return nil, fmt.Errorf("%s: unable to establish connection to database: %w", opn, err)
	}

	if err = migrate(ctx, dtb); err != nil {
		_ = dtb.Close()
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	log.Debug("Local storage ready", "op", opn, "path", storagePath)

	return &Repository{db: dtb, log: log}, nil
}

// NewForTest wraps an existing connection without migrating it.
func NewForTest(dtb *sql.DB) *Repository {
	return &Repository{db: dtb, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

const schema = `
CREATE TABLE IF NOT EXISTS local_storage (
	key        TEXT PRIMARY KEY NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

func migrate(ctx context.Context, dtb *sql.DB) error {
	if _, err := dtb.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("failed to close the database", "op", "repository.sqlite.Close", "error", err)
		return fmt.Errorf("failed to close the database: %w", err)
	}

	return nil
}

// DB is a getter for database handler.
func (r *Repository) DB() *sql.DB {
	return r.db
}
