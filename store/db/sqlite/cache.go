package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/recallhq/recalld/store"
)

func (d *DB) GetCache(ctx context.Context, key string, agentID uuid.UUID) (*store.CacheEntry, error) {
	query := `SELECT key, agent_id, value, created_at FROM cache WHERE key = ? AND agent_id = ?`

	entry := &store.CacheEntry{}
	err := d.db.QueryRowContext(ctx, query, key, agentID).Scan(
		&entry.Key,
		&entry.AgentID,
		&entry.Value,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get cache entry")
	}
	return entry, nil
}

func (d *DB) UpsertCache(ctx context.Context, upsert *store.CacheEntry) error {
	stmt := `
		INSERT INTO cache (key, agent_id, value, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key, agent_id)
		DO UPDATE SET value = excluded.value, created_at = excluded.created_at`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.Key, upsert.AgentID, upsert.Value, upsert.CreatedAt); err != nil {
		return errors.Wrap(err, "failed to upsert cache entry")
	}
	return nil
}

func (d *DB) DeleteCache(ctx context.Context, key string, agentID uuid.UUID) error {
	stmt := `DELETE FROM cache WHERE key = ? AND agent_id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, key, agentID); err != nil {
		return errors.Wrap(err, "failed to delete cache entry")
	}
	return nil
}
