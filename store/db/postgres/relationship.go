package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/recallhq/recalld/store"
)

// CreateRelationship establishes a FRIENDS relationship between two users.
// The room lookup, room creation, participant inserts and relationship upsert
// run in a single transaction so a failure cannot leave an orphaned room.
func (d *DB) CreateRelationship(ctx context.Context, userA, userB uuid.UUID) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	// Reuse any room the pair already shares.
	var roomID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT room_id FROM participants WHERE user_id = ANY($1) LIMIT 1`,
		pq.Array([]string{userA.String(), userB.String()}),
	).Scan(&roomID)
	if errors.Is(err, sql.ErrNoRows) {
		roomID = uuid.New()
		if _, err := tx.ExecContext(ctx, `INSERT INTO rooms (id) VALUES ($1)`, roomID); err != nil {
			return errors.Wrap(err, "failed to create relationship room")
		}
	} else if err != nil {
		return errors.Wrap(err, "failed to look up shared room")
	}

	stmt := `
		INSERT INTO participants (id, user_id, room_id)
		VALUES ($1, $2, $3), ($4, $5, $6)
		ON CONFLICT (user_id, room_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, stmt, uuid.New(), userA, roomID, uuid.New(), userB, roomID); err != nil {
		return errors.Wrap(err, "failed to add relationship participants")
	}

	// The conflict target is the pair in call order; get_relationship resolves
	// lookups for the reversed pair.
	stmt = `
		INSERT INTO relationships (id, user_a, user_b, user_id, room_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_a, user_b)
		DO UPDATE SET status = EXCLUDED.status, room_id = EXCLUDED.room_id`
	if _, err := tx.ExecContext(ctx, stmt, uuid.New(), userA, userB, userA, roomID, store.RelationshipStatusFriends); err != nil {
		return errors.Wrap(err, "failed to upsert relationship")
	}

	return tx.Commit()
}

// GetRelationship delegates to the order-independent lookup procedure.
func (d *DB) GetRelationship(ctx context.Context, userA, userB uuid.UUID) (*store.Relationship, error) {
	query := `
		SELECT id, user_a, user_b, user_id, room_id, status, created_at
		FROM get_relationship($1, $2)`

	relationship := &store.Relationship{}
	var roomID sql.Null[uuid.UUID]
	err := d.db.QueryRowContext(ctx, query, userA, userB).Scan(
		&relationship.ID,
		&relationship.UserA,
		&relationship.UserB,
		&relationship.UserID,
		&roomID,
		&relationship.Status,
		&relationship.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get relationship")
	}
	relationship.RoomID = roomID.V
	return relationship, nil
}

func (d *DB) ListRelationships(ctx context.Context, userID uuid.UUID) ([]*store.Relationship, error) {
	query := `
		SELECT id, user_a, user_b, user_id, room_id, status, created_at
		FROM relationships
		WHERE (user_a = $1 OR user_b = $1) AND status = $2`

	rows, err := d.db.QueryContext(ctx, query, userID, store.RelationshipStatusFriends)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list relationships")
	}
	defer rows.Close()

	list := []*store.Relationship{}
	for rows.Next() {
		relationship := &store.Relationship{}
		var roomID sql.Null[uuid.UUID]
		if err := rows.Scan(
			&relationship.ID,
			&relationship.UserA,
			&relationship.UserB,
			&relationship.UserID,
			&roomID,
			&relationship.Status,
			&relationship.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan relationship")
		}
		relationship.RoomID = roomID.V
		list = append(list, relationship)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
