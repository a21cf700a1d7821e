package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RelationshipStatus is the status of a relationship between two users.
type RelationshipStatus string

const (
	RelationshipStatusFriends RelationshipStatus = "FRIENDS"
)

// Relationship represents a symmetric friend edge between two users, backed
// by an implicit shared room.
type Relationship struct {
	ID        uuid.UUID
	UserA     uuid.UUID
	UserB     uuid.UUID
	UserID    uuid.UUID // the initiating user
	RoomID    uuid.UUID
	Status    RelationshipStatus
	CreatedAt time.Time
}

// CreateRelationship establishes a FRIENDS relationship between two users:
// it reuses any room the pair already shares or creates one, adds both users
// as participants of that room, and upserts the relationship row. The driver
// runs all steps in a single transaction so partial state is never left
// behind.
func (s *Store) CreateRelationship(ctx context.Context, userA, userB uuid.UUID) error {
	if userA == uuid.Nil || userB == uuid.Nil {
		return errors.New("userA and userB are required")
	}
	return s.driver.CreateRelationship(ctx, userA, userB)
}

// GetRelationship returns the relationship between two users regardless of
// the order the pair is given in, or nil when none exists.
func (s *Store) GetRelationship(ctx context.Context, userA, userB uuid.UUID) (*Relationship, error) {
	return s.driver.GetRelationship(ctx, userA, userB)
}

// GetRelationships returns every FRIENDS relationship the user appears in, on
// either side of the pair.
func (s *Store) GetRelationships(ctx context.Context, userID uuid.UUID) ([]*Relationship, error) {
	return s.driver.ListRelationships(ctx, userID)
}
