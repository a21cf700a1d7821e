package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GoalStatus is the caller-driven status of a goal. The store enforces no
// state machine beyond persisting the given value.
type GoalStatus string

const (
	GoalStatusInProgress GoalStatus = "IN_PROGRESS"
	GoalStatusDone       GoalStatus = "DONE"
	GoalStatusFailed     GoalStatus = "FAILED"
)

// Goal represents a per-room, per-user goal record.
type Goal struct {
	ID         uuid.UUID
	RoomID     uuid.UUID
	UserID     uuid.UUID
	Name       string
	Status     GoalStatus
	Objectives []Objective
	CreatedAt  time.Time
}

// Objective is a single step of a goal, stored as part of its JSON payload.
type Objective struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// FindGoal specifies the conditions for listing goals.
type FindGoal struct {
	RoomID         uuid.UUID
	UserID         *uuid.UUID
	OnlyInProgress bool
	Count          int
}

// GetGoals returns goals in a room, ordered by createdAt descending.
func (s *Store) GetGoals(ctx context.Context, find *FindGoal) ([]*Goal, error) {
	return s.driver.ListGoals(ctx, find)
}

// CreateGoal persists a goal.
func (s *Store) CreateGoal(ctx context.Context, create *Goal) error {
	if create.ID == uuid.Nil {
		create.ID = uuid.New()
	}
	if create.CreatedAt.IsZero() {
		create.CreatedAt = time.Now().UTC()
	}
	return s.driver.CreateGoal(ctx, create)
}

// UpdateGoal replaces the stored goal with the given one, matched by id.
func (s *Store) UpdateGoal(ctx context.Context, update *Goal) error {
	return s.driver.UpdateGoal(ctx, update)
}

// UpdateGoalStatus patches only the status of a goal.
func (s *Store) UpdateGoalStatus(ctx context.Context, id uuid.UUID, status GoalStatus) error {
	return s.driver.UpdateGoalStatus(ctx, id, status)
}

// RemoveGoal deletes the goal with the given id.
func (s *Store) RemoveGoal(ctx context.Context, id uuid.UUID) error {
	return s.driver.DeleteGoal(ctx, id)
}

// RemoveAllGoals deletes every goal in a room.
func (s *Store) RemoveAllGoals(ctx context.Context, roomID uuid.UUID) error {
	return s.driver.DeleteAllGoals(ctx, roomID)
}
