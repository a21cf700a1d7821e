package postgres

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/recallhq/recalld/store"
)

func (d *DB) CreateGoal(ctx context.Context, create *store.Goal) error {
	objectives, err := json.Marshal(create.Objectives)
	if err != nil {
		return errors.Wrap(err, "failed to marshal objectives")
	}

	fields := []string{"id", "room_id", "user_id", "name", "status", "objectives", "created_at"}
	args := []any{create.ID, create.RoomID, create.UserID, create.Name, create.Status, objectives, create.CreatedAt}

	stmt := `INSERT INTO goals (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to create goal")
	}
	return nil
}

func (d *DB) ListGoals(ctx context.Context, find *store.FindGoal) ([]*store.Goal, error) {
	where, args := []string{"room_id = " + placeholder(1)}, []any{find.RoomID}

	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.OnlyInProgress {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, store.GoalStatusInProgress)
	}

	query := `
		SELECT id, room_id, user_id, name, status, objectives, created_at
		FROM goals
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC`
	if find.Count > 0 {
		args = append(args, find.Count)
		query += " LIMIT " + placeholder(len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list goals")
	}
	defer rows.Close()

	list := []*store.Goal{}
	for rows.Next() {
		goal := &store.Goal{}
		var objectivesBytes []byte
		if err := rows.Scan(&goal.ID, &goal.RoomID, &goal.UserID, &goal.Name, &goal.Status, &objectivesBytes, &goal.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan goal")
		}
		if err := json.Unmarshal(objectivesBytes, &goal.Objectives); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal objectives")
		}
		list = append(list, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateGoal replaces the stored goal, matched by id.
func (d *DB) UpdateGoal(ctx context.Context, update *store.Goal) error {
	objectives, err := json.Marshal(update.Objectives)
	if err != nil {
		return errors.Wrap(err, "failed to marshal objectives")
	}

	stmt := `
		UPDATE goals
		SET room_id = $1, user_id = $2, name = $3, status = $4, objectives = $5
		WHERE id = $6`
	if _, err := d.db.ExecContext(ctx, stmt, update.RoomID, update.UserID, update.Name, update.Status, objectives, update.ID); err != nil {
		return errors.Wrap(err, "failed to update goal")
	}
	return nil
}

func (d *DB) UpdateGoalStatus(ctx context.Context, id uuid.UUID, status store.GoalStatus) error {
	stmt := `UPDATE goals SET status = $1 WHERE id = $2`
	if _, err := d.db.ExecContext(ctx, stmt, status, id); err != nil {
		return errors.Wrap(err, "failed to update goal status")
	}
	return nil
}

func (d *DB) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	stmt := `DELETE FROM goals WHERE id = ` + placeholder(1)
	if _, err := d.db.ExecContext(ctx, stmt, id); err != nil {
		return errors.Wrap(err, "failed to delete goal")
	}
	return nil
}

func (d *DB) DeleteAllGoals(ctx context.Context, roomID uuid.UUID) error {
	stmt := `DELETE FROM goals WHERE room_id = ` + placeholder(1)
	if _, err := d.db.ExecContext(ctx, stmt, roomID); err != nil {
		return errors.Wrap(err, "failed to delete goals")
	}
	return nil
}
