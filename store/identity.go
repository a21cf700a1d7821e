package store

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Account represents the identity of a user or agent.
type Account struct {
	ID        uuid.UUID
	Name      string
	Username  string
	Email     string
	AvatarURL string
	Details   map[string]any
}

// Room is a conversation container.
type Room struct {
	ID uuid.UUID
}

// ParticipantUserState is the per-room, per-user notification preference.
// A nil state means neither followed nor muted.
type ParticipantUserState string

const (
	ParticipantStateFollowed ParticipantUserState = "FOLLOWED"
	ParticipantStateMuted    ParticipantUserState = "MUTED"
)

// Participant is a room membership row.
type Participant struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	RoomID    uuid.UUID
	UserState *ParticipantUserState
}

// Actor projects the display fields of an account participating in a room.
type Actor struct {
	ID       uuid.UUID
	Name     string
	Username string
	Details  map[string]any
}

// CreateAccount upserts an account by id. Failures are logged and reported as
// a boolean so callers can treat account seeding as best-effort.
func (s *Store) CreateAccount(ctx context.Context, account *Account) bool {
	if err := s.driver.UpsertAccount(ctx, account); err != nil {
		slog.Error("failed to create account", "id", account.ID, "error", err)
		return false
	}
	return true
}

// GetAccountByID returns the account with the given id, or nil when absent.
func (s *Store) GetAccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.driver.GetAccount(ctx, id)
}

// CreateRoom creates a room, generating an id when none is supplied, and
// returns the room id.
func (s *Store) CreateRoom(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if err := s.driver.CreateRoom(ctx, id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// GetRoom returns the room id when the room exists, or nil. Remote read
// failures are logged and degrade to a nil result.
func (s *Store) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	room, err := s.driver.GetRoom(ctx, id)
	if err != nil {
		slog.Error("failed to get room", "id", id, "error", err)
		return nil, nil
	}
	return room, nil
}

// RemoveRoom deletes the room with the given id.
func (s *Store) RemoveRoom(ctx context.Context, id uuid.UUID) error {
	return s.driver.DeleteRoom(ctx, id)
}

// AddParticipant adds a user to a room, reporting failure as a boolean.
func (s *Store) AddParticipant(ctx context.Context, userID, roomID uuid.UUID) bool {
	if err := s.driver.AddParticipant(ctx, userID, roomID); err != nil {
		slog.Error("failed to add participant", "userID", userID, "roomID", roomID, "error", err)
		return false
	}
	return true
}

// RemoveParticipant removes a user from a room, reporting failure as a boolean.
func (s *Store) RemoveParticipant(ctx context.Context, userID, roomID uuid.UUID) bool {
	if err := s.driver.RemoveParticipant(ctx, userID, roomID); err != nil {
		slog.Error("failed to remove participant", "userID", userID, "roomID", roomID, "error", err)
		return false
	}
	return true
}

// GetParticipantsForRoom returns the user ids participating in a room.
func (s *Store) GetParticipantsForRoom(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	return s.driver.ListParticipantsForRoom(ctx, roomID)
}

// GetParticipantsForAccount returns the participant rows of a user.
func (s *Store) GetParticipantsForAccount(ctx context.Context, userID uuid.UUID) ([]*Participant, error) {
	return s.driver.ListParticipantsForAccount(ctx, userID)
}

// GetRoomsForParticipant returns the room ids a user participates in.
func (s *Store) GetRoomsForParticipant(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.driver.ListRoomsForParticipant(ctx, userID)
}

// GetRoomsForParticipants returns the deduplicated union of room ids across
// multiple users.
func (s *Store) GetRoomsForParticipants(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	return s.driver.ListRoomsForParticipants(ctx, userIDs)
}

// GetParticipantUserState returns the FOLLOWED/MUTED state of a user in a
// room, or nil when unset. Remote read failures are logged and degrade to nil.
func (s *Store) GetParticipantUserState(ctx context.Context, roomID, userID uuid.UUID) (*ParticipantUserState, error) {
	state, err := s.driver.GetParticipantUserState(ctx, roomID, userID)
	if err != nil {
		slog.Error("failed to get participant user state", "roomID", roomID, "userID", userID, "error", err)
		return nil, nil
	}
	return state, nil
}

// SetParticipantUserState sets or clears the FOLLOWED/MUTED state of a user
// in a room.
func (s *Store) SetParticipantUserState(ctx context.Context, roomID, userID uuid.UUID, state *ParticipantUserState) error {
	return s.driver.SetParticipantUserState(ctx, roomID, userID, state)
}

// GetActorDetails joins participants to accounts for a room, projecting
// display fields.
func (s *Store) GetActorDetails(ctx context.Context, roomID uuid.UUID) ([]*Actor, error) {
	return s.driver.ListActors(ctx, roomID)
}
