package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const schemaVersion = 2

var migrations = map[int]string{ //nolint:gochecknoglobals // ordered schema history
	1: `
CREATE TABLE scores (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	game_id    TEXT NOT NULL,
	domain     TEXT NOT NULL DEFAULT '',
	value      REAL NOT NULL,
	details    TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX idx_scores_user_game ON scores (user_id, game_id, id);

CREATE TABLE bandit_arms (
	user_id    TEXT NOT NULL,
	game_id    TEXT NOT NULL,
	context    TEXT NOT NULL,
	action     TEXT NOT NULL,
	count      INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
	value      REAL NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (user_id, game_id, context, action)
);

CREATE TABLE schedules (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	user_id    TEXT NOT NULL,
	num_days   INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX idx_schedules_user_created ON schedules (user_id, created_at, seq);
`,
	2: `CREATE INDEX idx_scores_user_id ON scores (user_id, id);`,
}

// runMigrations applies every migration newer than the recorded version,
// each in its own transaction.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS meta (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create meta: %w", err)
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for v := current + 1; v <= schemaVersion; v++ {
		stmt, ok := migrations[v]
		if !ok {
			return fmt.Errorf("missing migration for version %d", v)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", v, err)
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", v, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO meta (key, value, updated_at) VALUES ('schema_version', ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			strconv.Itoa(v), time.Now().UTC().Format(time.RFC3339),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update schema version to %d: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", v, err)
		}
	}
	return nil
}

// currentVersion returns 0 when no version is recorded yet.
func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var val string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(val)
}
