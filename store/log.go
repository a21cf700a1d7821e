package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Log is an append-only record of a runtime event tied to a user and room.
type Log struct {
	ID        uuid.UUID
	Body      map[string]any
	UserID    uuid.UUID
	RoomID    uuid.UUID
	Type      string
	CreatedAt time.Time
}

// Log appends a runtime event record.
func (s *Store) Log(ctx context.Context, create *Log) error {
	if create.Type == "" {
		return errors.New("log type is required")
	}
	if create.ID == uuid.Nil {
		create.ID = uuid.New()
	}
	if create.CreatedAt.IsZero() {
		create.CreatedAt = time.Now().UTC()
	}
	return s.driver.CreateLog(ctx, create)
}
