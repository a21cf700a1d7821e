package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/recallhq/recalld/store"
)

func (d *DB) UpsertAccount(ctx context.Context, upsert *store.Account) error {
	details, err := json.Marshal(upsert.Details)
	if err != nil {
		return errors.Wrap(err, "failed to marshal account details")
	}
	if upsert.Details == nil {
		details = []byte("{}")
	}

	fields := []string{"id", "name", "username", "email", "avatar_url", "details"}
	args := []any{upsert.ID, upsert.Name, upsert.Username, upsert.Email, upsert.AvatarURL, details}

	stmt := `INSERT INTO accounts (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			avatar_url = EXCLUDED.avatar_url,
			details = EXCLUDED.details`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to upsert account")
	}
	return nil
}

func (d *DB) GetAccount(ctx context.Context, id uuid.UUID) (*store.Account, error) {
	query := `
		SELECT id, name, username, email, avatar_url, details
		FROM accounts
		WHERE id = ` + placeholder(1)

	account := &store.Account{}
	var details []byte
	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Username,
		&account.Email,
		&account.AvatarURL,
		&details,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get account")
	}
	if err := json.Unmarshal(details, &account.Details); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal account details")
	}
	return account, nil
}

func (d *DB) CreateRoom(ctx context.Context, id uuid.UUID) error {
	stmt := `INSERT INTO rooms (id) VALUES (` + placeholder(1) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, id); err != nil {
		return errors.Wrap(err, "failed to create room")
	}
	return nil
}

func (d *DB) GetRoom(ctx context.Context, id uuid.UUID) (*store.Room, error) {
	query := `SELECT id FROM rooms WHERE id = ` + placeholder(1)

	room := &store.Room{}
	if err := d.db.QueryRowContext(ctx, query, id).Scan(&room.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get room")
	}
	return room, nil
}

func (d *DB) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	stmt := `DELETE FROM rooms WHERE id = ` + placeholder(1)
	if _, err := d.db.ExecContext(ctx, stmt, id); err != nil {
		return errors.Wrap(err, "failed to delete room")
	}
	return nil
}

func (d *DB) AddParticipant(ctx context.Context, userID, roomID uuid.UUID) error {
	stmt := `INSERT INTO participants (id, user_id, room_id) VALUES ($1, $2, $3)`
	if _, err := d.db.ExecContext(ctx, stmt, uuid.New(), userID, roomID); err != nil {
		return errors.Wrap(err, "failed to add participant")
	}
	return nil
}

func (d *DB) RemoveParticipant(ctx context.Context, userID, roomID uuid.UUID) error {
	stmt := `DELETE FROM participants WHERE user_id = $1 AND room_id = $2`
	if _, err := d.db.ExecContext(ctx, stmt, userID, roomID); err != nil {
		return errors.Wrap(err, "failed to remove participant")
	}
	return nil
}

func (d *DB) ListParticipantsForRoom(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT user_id FROM participants WHERE room_id = ` + placeholder(1)
	return d.queryUUIDs(ctx, query, roomID)
}

func (d *DB) ListParticipantsForAccount(ctx context.Context, userID uuid.UUID) ([]*store.Participant, error) {
	query := `
		SELECT id, user_id, room_id, user_state
		FROM participants
		WHERE user_id = ` + placeholder(1)

	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list participants for account")
	}
	defer rows.Close()

	list := []*store.Participant{}
	for rows.Next() {
		participant := &store.Participant{}
		var state sql.NullString
		if err := rows.Scan(&participant.ID, &participant.UserID, &participant.RoomID, &state); err != nil {
			return nil, errors.Wrap(err, "failed to scan participant")
		}
		if state.Valid {
			s := store.ParticipantUserState(state.String)
			participant.UserState = &s
		}
		list = append(list, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) ListRoomsForParticipant(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT room_id FROM participants WHERE user_id = ` + placeholder(1)
	return d.queryUUIDs(ctx, query, userID)
}

func (d *DB) ListRoomsForParticipants(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	idStrings := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		idStrings = append(idStrings, id.String())
	}

	query := `SELECT DISTINCT room_id FROM participants WHERE user_id = ANY(` + placeholder(1) + `)`
	return d.queryUUIDs(ctx, query, pq.Array(idStrings))
}

func (d *DB) GetParticipantUserState(ctx context.Context, roomID, userID uuid.UUID) (*store.ParticipantUserState, error) {
	query := `SELECT user_state FROM participants WHERE room_id = $1 AND user_id = $2`

	var state sql.NullString
	if err := d.db.QueryRowContext(ctx, query, roomID, userID).Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get participant user state")
	}
	if !state.Valid {
		return nil, nil
	}
	s := store.ParticipantUserState(state.String)
	return &s, nil
}

func (d *DB) SetParticipantUserState(ctx context.Context, roomID, userID uuid.UUID, state *store.ParticipantUserState) error {
	var value any
	if state != nil {
		value = string(*state)
	}

	stmt := `UPDATE participants SET user_state = $1 WHERE room_id = $2 AND user_id = $3`
	if _, err := d.db.ExecContext(ctx, stmt, value, roomID, userID); err != nil {
		return errors.Wrap(err, "failed to set participant user state")
	}
	return nil
}

// ListActors joins participants to accounts for a room, projecting display
// fields.
func (d *DB) ListActors(ctx context.Context, roomID uuid.UUID) ([]*store.Actor, error) {
	query := `
		SELECT a.id, a.name, a.username, a.details
		FROM participants p
		INNER JOIN accounts a ON a.id = p.user_id
		WHERE p.room_id = ` + placeholder(1)

	rows, err := d.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list actors")
	}
	defer rows.Close()

	list := []*store.Actor{}
	for rows.Next() {
		actor := &store.Actor{}
		var details []byte
		if err := rows.Scan(&actor.ID, &actor.Name, &actor.Username, &details); err != nil {
			return nil, errors.Wrap(err, "failed to scan actor")
		}
		if err := json.Unmarshal(details, &actor.Details); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal actor details")
		}
		list = append(list, actor)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) queryUUIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query ids")
	}
	defer rows.Close()

	list := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan id")
		}
		list = append(list, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
