package store

import (
	"context"
	"database/sql"
)

// ensureSchema creates the ask_log table and its time index.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ask_log (
			id SERIAL PRIMARY KEY,
			asked_at TIMESTAMPTZ NOT NULL,
			question TEXT NOT NULL,
			top_k INTEGER NOT NULL,
			answer TEXT NOT NULL DEFAULT '',
			chunks INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			duration_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ask_log_asked_at_idx ON ask_log (asked_at DESC)`,
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
