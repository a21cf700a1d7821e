package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// CacheEntry is a key/value row scoped by (key, agentId). Entries have no
// expiry; a write with the same key overwrites the previous value.
type CacheEntry struct {
	Key       string
	AgentID   uuid.UUID
	Value     string
	CreatedAt time.Time
}

// GetCache returns the cached value for (key, agentId). A miss, and any
// remote failure, is reported as absence rather than an error.
func (s *Store) GetCache(ctx context.Context, key string, agentID uuid.UUID) (string, bool) {
	entry, err := s.driver.GetCache(ctx, key, agentID)
	if err != nil {
		slog.Error("failed to fetch cache", "key", key, "agentID", agentID, "error", err)
		return "", false
	}
	if entry == nil {
		return "", false
	}
	return entry.Value, true
}

// SetCache upserts a cache value. Failures are logged and reported as a
// boolean so callers can treat caching as best-effort.
func (s *Store) SetCache(ctx context.Context, key string, agentID uuid.UUID, value string) bool {
	err := s.driver.UpsertCache(ctx, &CacheEntry{
		Key:       key,
		AgentID:   agentID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to set cache", "key", key, "agentID", agentID, "error", err)
		return false
	}
	return true
}

// DeleteCache removes a cache value, reporting failure as a boolean.
// Connection-level failures are caught here, not propagated.
func (s *Store) DeleteCache(ctx context.Context, key string, agentID uuid.UUID) bool {
	if err := s.driver.DeleteCache(ctx, key, agentID); err != nil {
		slog.Error("failed to delete cache", "key", key, "agentID", agentID, "error", err)
		return false
	}
	return true
}
