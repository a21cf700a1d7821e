package sqlite

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/pkg/errors"

	"github.com/recallhq/recalld/internal/version"
)

//go:embed migration/schema.sql
var schemaSQL string

const migrationHistoryDDL = `
CREATE TABLE IF NOT EXISTS migration_history (
  version TEXT PRIMARY KEY,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Migrate applies the schema and records the applied version. When the
// recorded version is already current the schema pass is skipped; every
// statement is CREATE IF NOT EXISTS, so re-running is safe either way.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, migrationHistoryDDL); err != nil {
		return errors.Wrap(err, "failed to create migration history table")
	}

	currentVersion := version.GetCurrentVersion(d.profile.Mode)
	var appliedVersion string
	err := d.db.QueryRowContext(ctx,
		`SELECT version FROM migration_history ORDER BY created_at DESC, version DESC LIMIT 1`,
	).Scan(&appliedVersion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(err, "failed to read migration history")
	}
	if appliedVersion != "" && version.IsVersionGreaterOrEqualThan(appliedVersion, currentVersion) {
		return nil
	}

	if _, err := d.db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	if _, err := d.db.ExecContext(ctx,
		`INSERT INTO migration_history (version) VALUES (?) ON CONFLICT (version) DO NOTHING`,
		currentVersion,
	); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	return nil
}
