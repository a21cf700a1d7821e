package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error

	// Memory methods. CreateMemories is the batch-insert procedure keyed by the
	// partition name derived from embedding dimensionality (memories_<dim>).
	CreateMemories(ctx context.Context, partition string, memories []*Memory) error
	ListMemories(ctx context.Context, find *FindMemory) ([]*Memory, error)
	ListMemoriesByRoomIDs(ctx context.Context, find *FindMemoriesByRoomIDs) ([]*Memory, error)
	ListMemoriesByIDs(ctx context.Context, ids []uuid.UUID, tableName string) ([]*Memory, error)
	GetMemory(ctx context.Context, id uuid.UUID) (*Memory, error)
	SearchMemories(ctx context.Context, search *SearchMemory) ([]*MemoryWithSimilarity, error)
	ListEmbeddedMemories(ctx context.Context, find *FindEmbeddedMemories) ([]*Memory, error)
	DeleteMemory(ctx context.Context, id uuid.UUID) error
	DeleteAllMemories(ctx context.Context, roomID uuid.UUID, tableName string) error
	CountMemories(ctx context.Context, roomID uuid.UUID, unique bool, tableName string) (int, error)

	// Knowledge methods.
	CreateKnowledge(ctx context.Context, create *KnowledgeItem) error
	ListKnowledge(ctx context.Context, find *FindKnowledge) ([]*KnowledgeItem, error)
	SearchKnowledge(ctx context.Context, search *SearchKnowledgeOptions) ([]*KnowledgeItemWithScore, error)
	DeleteKnowledge(ctx context.Context, id uuid.UUID) error
	DeleteAllKnowledge(ctx context.Context, agentID uuid.UUID, shared bool) error

	// Goal methods.
	CreateGoal(ctx context.Context, create *Goal) error
	ListGoals(ctx context.Context, find *FindGoal) ([]*Goal, error)
	UpdateGoal(ctx context.Context, update *Goal) error
	UpdateGoalStatus(ctx context.Context, id uuid.UUID, status GoalStatus) error
	DeleteGoal(ctx context.Context, id uuid.UUID) error
	DeleteAllGoals(ctx context.Context, roomID uuid.UUID) error

	// Identity methods.
	UpsertAccount(ctx context.Context, upsert *Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	CreateRoom(ctx context.Context, id uuid.UUID) error
	GetRoom(ctx context.Context, id uuid.UUID) (*Room, error)
	DeleteRoom(ctx context.Context, id uuid.UUID) error
	AddParticipant(ctx context.Context, userID, roomID uuid.UUID) error
	RemoveParticipant(ctx context.Context, userID, roomID uuid.UUID) error
	ListParticipantsForRoom(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error)
	ListParticipantsForAccount(ctx context.Context, userID uuid.UUID) ([]*Participant, error)
	ListRoomsForParticipant(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListRoomsForParticipants(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error)
	GetParticipantUserState(ctx context.Context, roomID, userID uuid.UUID) (*ParticipantUserState, error)
	SetParticipantUserState(ctx context.Context, roomID, userID uuid.UUID, state *ParticipantUserState) error
	ListActors(ctx context.Context, roomID uuid.UUID) ([]*Actor, error)

	// Relationship methods. CreateRelationship runs the room lookup, participant
	// inserts and relationship upsert in a single transaction.
	CreateRelationship(ctx context.Context, userA, userB uuid.UUID) error
	GetRelationship(ctx context.Context, userA, userB uuid.UUID) (*Relationship, error)
	ListRelationships(ctx context.Context, userID uuid.UUID) ([]*Relationship, error)

	// Log methods.
	CreateLog(ctx context.Context, create *Log) error

	// Cache methods.
	GetCache(ctx context.Context, key string, agentID uuid.UUID) (*CacheEntry, error)
	UpsertCache(ctx context.Context, upsert *CacheEntry) error
	DeleteCache(ctx context.Context, key string, agentID uuid.UUID) error
}
