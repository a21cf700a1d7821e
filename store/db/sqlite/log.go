package sqlite

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/recallhq/recalld/store"
)

func (d *DB) CreateLog(ctx context.Context, create *store.Log) error {
	body, err := json.Marshal(create.Body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal log body")
	}
	stmt := `
		INSERT INTO logs (id, body, user_id, room_id, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt, create.ID, body, create.UserID, create.RoomID, create.Type, create.CreatedAt); err != nil {
		return errors.Wrap(err, "failed to create log")
	}
	return nil
}
