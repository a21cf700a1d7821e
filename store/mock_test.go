package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// mockDriver is a hand-rolled Driver test double. Tests override only the
// function fields they care about; unset methods succeed with zero values.
// Every invocation is counted so tests can assert a call never reached the
// driver.
type mockDriver struct {
	calls map[string]int

	createMemoriesFn       func(ctx context.Context, partition string, memories []*Memory) error
	listEmbeddedMemoriesFn func(ctx context.Context, find *FindEmbeddedMemories) ([]*Memory, error)
	getMemoryFn            func(ctx context.Context, id uuid.UUID) (*Memory, error)
	createKnowledgeFn      func(ctx context.Context, create *KnowledgeItem) error
	upsertAccountFn        func(ctx context.Context, upsert *Account) error
	createRoomFn           func(ctx context.Context, id uuid.UUID) error
	getCacheFn             func(ctx context.Context, key string, agentID uuid.UUID) (*CacheEntry, error)
	upsertCacheFn          func(ctx context.Context, upsert *CacheEntry) error
}

func newMockDriver() *mockDriver {
	return &mockDriver{calls: map[string]int{}}
}

func (m *mockDriver) record(name string) {
	m.calls[name]++
}

func (m *mockDriver) GetDB() *sql.DB { return nil }

func (m *mockDriver) Close() error { return nil }

func (m *mockDriver) Migrate(context.Context) error { return nil }

func (m *mockDriver) Ping(context.Context) error { return nil }

func (m *mockDriver) CreateMemories(ctx context.Context, partition string, memories []*Memory) error {
	m.record("CreateMemories")
	if m.createMemoriesFn != nil {
		return m.createMemoriesFn(ctx, partition, memories)
	}
	return nil
}

func (m *mockDriver) ListMemories(context.Context, *FindMemory) ([]*Memory, error) {
	m.record("ListMemories")
	return []*Memory{}, nil
}

func (m *mockDriver) ListMemoriesByRoomIDs(context.Context, *FindMemoriesByRoomIDs) ([]*Memory, error) {
	m.record("ListMemoriesByRoomIDs")
	return []*Memory{}, nil
}

func (m *mockDriver) ListMemoriesByIDs(context.Context, []uuid.UUID, string) ([]*Memory, error) {
	m.record("ListMemoriesByIDs")
	return []*Memory{}, nil
}

func (m *mockDriver) GetMemory(ctx context.Context, id uuid.UUID) (*Memory, error) {
	m.record("GetMemory")
	if m.getMemoryFn != nil {
		return m.getMemoryFn(ctx, id)
	}
	return nil, nil
}

func (m *mockDriver) SearchMemories(context.Context, *SearchMemory) ([]*MemoryWithSimilarity, error) {
	m.record("SearchMemories")
	return []*MemoryWithSimilarity{}, nil
}

func (m *mockDriver) ListEmbeddedMemories(ctx context.Context, find *FindEmbeddedMemories) ([]*Memory, error) {
	m.record("ListEmbeddedMemories")
	if m.listEmbeddedMemoriesFn != nil {
		return m.listEmbeddedMemoriesFn(ctx, find)
	}
	return []*Memory{}, nil
}

func (m *mockDriver) DeleteMemory(context.Context, uuid.UUID) error {
	m.record("DeleteMemory")
	return nil
}

func (m *mockDriver) DeleteAllMemories(context.Context, uuid.UUID, string) error {
	m.record("DeleteAllMemories")
	return nil
}

func (m *mockDriver) CountMemories(context.Context, uuid.UUID, bool, string) (int, error) {
	m.record("CountMemories")
	return 0, nil
}

func (m *mockDriver) CreateKnowledge(ctx context.Context, create *KnowledgeItem) error {
	m.record("CreateKnowledge")
	if m.createKnowledgeFn != nil {
		return m.createKnowledgeFn(ctx, create)
	}
	return nil
}

func (m *mockDriver) ListKnowledge(context.Context, *FindKnowledge) ([]*KnowledgeItem, error) {
	m.record("ListKnowledge")
	return []*KnowledgeItem{}, nil
}

func (m *mockDriver) SearchKnowledge(context.Context, *SearchKnowledgeOptions) ([]*KnowledgeItemWithScore, error) {
	m.record("SearchKnowledge")
	return []*KnowledgeItemWithScore{}, nil
}

func (m *mockDriver) DeleteKnowledge(context.Context, uuid.UUID) error {
	m.record("DeleteKnowledge")
	return nil
}

func (m *mockDriver) DeleteAllKnowledge(context.Context, uuid.UUID, bool) error {
	m.record("DeleteAllKnowledge")
	return nil
}

func (m *mockDriver) CreateGoal(context.Context, *Goal) error {
	m.record("CreateGoal")
	return nil
}

func (m *mockDriver) ListGoals(context.Context, *FindGoal) ([]*Goal, error) {
	m.record("ListGoals")
	return []*Goal{}, nil
}

func (m *mockDriver) UpdateGoal(context.Context, *Goal) error {
	m.record("UpdateGoal")
	return nil
}

func (m *mockDriver) UpdateGoalStatus(context.Context, uuid.UUID, GoalStatus) error {
	m.record("UpdateGoalStatus")
	return nil
}

func (m *mockDriver) DeleteGoal(context.Context, uuid.UUID) error {
	m.record("DeleteGoal")
	return nil
}

func (m *mockDriver) DeleteAllGoals(context.Context, uuid.UUID) error {
	m.record("DeleteAllGoals")
	return nil
}

func (m *mockDriver) UpsertAccount(ctx context.Context, upsert *Account) error {
	m.record("UpsertAccount")
	if m.upsertAccountFn != nil {
		return m.upsertAccountFn(ctx, upsert)
	}
	return nil
}

func (m *mockDriver) GetAccount(context.Context, uuid.UUID) (*Account, error) {
	m.record("GetAccount")
	return nil, nil
}

func (m *mockDriver) CreateRoom(ctx context.Context, id uuid.UUID) error {
	m.record("CreateRoom")
	if m.createRoomFn != nil {
		return m.createRoomFn(ctx, id)
	}
	return nil
}

func (m *mockDriver) GetRoom(context.Context, uuid.UUID) (*Room, error) {
	m.record("GetRoom")
	return nil, nil
}

func (m *mockDriver) DeleteRoom(context.Context, uuid.UUID) error {
	m.record("DeleteRoom")
	return nil
}

func (m *mockDriver) AddParticipant(context.Context, uuid.UUID, uuid.UUID) error {
	m.record("AddParticipant")
	return nil
}

func (m *mockDriver) RemoveParticipant(context.Context, uuid.UUID, uuid.UUID) error {
	m.record("RemoveParticipant")
	return nil
}

func (m *mockDriver) ListParticipantsForRoom(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	m.record("ListParticipantsForRoom")
	return []uuid.UUID{}, nil
}

func (m *mockDriver) ListParticipantsForAccount(context.Context, uuid.UUID) ([]*Participant, error) {
	m.record("ListParticipantsForAccount")
	return []*Participant{}, nil
}

func (m *mockDriver) ListRoomsForParticipant(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	m.record("ListRoomsForParticipant")
	return []uuid.UUID{}, nil
}

func (m *mockDriver) ListRoomsForParticipants(context.Context, []uuid.UUID) ([]uuid.UUID, error) {
	m.record("ListRoomsForParticipants")
	return []uuid.UUID{}, nil
}

func (m *mockDriver) GetParticipantUserState(context.Context, uuid.UUID, uuid.UUID) (*ParticipantUserState, error) {
	m.record("GetParticipantUserState")
	return nil, nil
}

func (m *mockDriver) SetParticipantUserState(context.Context, uuid.UUID, uuid.UUID, *ParticipantUserState) error {
	m.record("SetParticipantUserState")
	return nil
}

func (m *mockDriver) ListActors(context.Context, uuid.UUID) ([]*Actor, error) {
	m.record("ListActors")
	return []*Actor{}, nil
}

func (m *mockDriver) CreateRelationship(context.Context, uuid.UUID, uuid.UUID) error {
	m.record("CreateRelationship")
	return nil
}

func (m *mockDriver) GetRelationship(context.Context, uuid.UUID, uuid.UUID) (*Relationship, error) {
	m.record("GetRelationship")
	return nil, nil
}

func (m *mockDriver) ListRelationships(context.Context, uuid.UUID) ([]*Relationship, error) {
	m.record("ListRelationships")
	return []*Relationship{}, nil
}

func (m *mockDriver) CreateLog(context.Context, *Log) error {
	m.record("CreateLog")
	return nil
}

func (m *mockDriver) GetCache(ctx context.Context, key string, agentID uuid.UUID) (*CacheEntry, error) {
	m.record("GetCache")
	if m.getCacheFn != nil {
		return m.getCacheFn(ctx, key, agentID)
	}
	return nil, nil
}

func (m *mockDriver) UpsertCache(ctx context.Context, upsert *CacheEntry) error {
	m.record("UpsertCache")
	if m.upsertCacheFn != nil {
		return m.upsertCacheFn(ctx, upsert)
	}
	return nil
}

func (m *mockDriver) DeleteCache(context.Context, string, uuid.UUID) error {
	m.record("DeleteCache")
	return nil
}
