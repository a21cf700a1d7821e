package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recalld/internal/profile"
	"github.com/recallhq/recalld/internal/version"
	"github.com/recallhq/recalld/store"
)

// newTestDB opens a migrated throwaway database file.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	driver, err := NewDB(&profile.Profile{
		Mode: "dev",
		DSN:  filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	d := driver.(*DB)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.Migrate(context.Background()))
	return d
}

func TestMigrateRecordsVersion(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	// A second pass sees the recorded version and leaves history untouched.
	require.NoError(t, d.Migrate(ctx))

	var count int
	var recorded string
	require.NoError(t, d.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(version) FROM migration_history`).Scan(&count, &recorded))
	assert.Equal(t, 1, count)
	assert.Equal(t, version.GetCurrentVersion("dev"), recorded)
}

func TestGetRelationshipOrderIndependent(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	userA, userB := uuid.New(), uuid.New()
	require.NoError(t, d.CreateRelationship(ctx, userA, userB))

	forward, err := d.GetRelationship(ctx, userA, userB)
	require.NoError(t, err)
	require.NotNil(t, forward)

	reverse, err := d.GetRelationship(ctx, userB, userA)
	require.NoError(t, err)
	require.NotNil(t, reverse)

	assert.Equal(t, forward.ID, reverse.ID)
	assert.Equal(t, forward.RoomID, reverse.RoomID)
	assert.Equal(t, store.RelationshipStatusFriends, forward.Status)

	// Both users ended up in the shared room.
	participants, err := d.ListParticipantsForRoom(ctx, forward.RoomID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{userA, userB}, participants)

	// An unrelated pair has no relationship.
	absent, err := d.GetRelationship(ctx, userA, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestCreateRelationshipIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	userA, userB := uuid.New(), uuid.New()
	require.NoError(t, d.CreateRelationship(ctx, userA, userB))
	first, err := d.GetRelationship(ctx, userA, userB)
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, d.CreateRelationship(ctx, userA, userB))
	second, err := d.GetRelationship(ctx, userA, userB)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.RoomID, second.RoomID)
}

func TestCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	agentID := uuid.New()

	require.NoError(t, d.UpsertCache(ctx, &store.CacheEntry{
		Key: "profile", AgentID: agentID, Value: "v1", CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, d.UpsertCache(ctx, &store.CacheEntry{
		Key: "profile", AgentID: agentID, Value: "v2", CreatedAt: time.Now().UTC(),
	}))

	entry, err := d.GetCache(ctx, "profile", agentID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "v2", entry.Value)

	require.NoError(t, d.DeleteCache(ctx, "profile", agentID))
	entry, err = d.GetCache(ctx, "profile", agentID)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSharedKnowledgeReseedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	item := &store.KnowledgeItem{
		ID: uuid.New(),
		Content: store.KnowledgeContent{
			Text:     "shared handbook",
			Metadata: store.KnowledgeMetadata{IsMain: true, IsShared: true},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, d.CreateKnowledge(ctx, item))
	// Re-seeding the same shared item swallows the conflict.
	require.NoError(t, d.CreateKnowledge(ctx, item))

	list, err := d.ListKnowledge(ctx, &store.FindKnowledge{AgentID: uuid.New()})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].AgentID)
	assert.Equal(t, "shared handbook", list[0].Content.Text)
}

func TestDeleteAllMemoriesThenCountZero(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	roomID := uuid.New()

	memories := []*store.Memory{
		{
			ID:        uuid.New(),
			Type:      "messages",
			Content:   store.MemoryContent{Text: "first"},
			Embedding: []float32{1, 0},
			RoomID:    roomID,
			CreatedAt: time.Now().UTC(),
		},
		{
			ID:        uuid.New(),
			Type:      "messages",
			Content:   store.MemoryContent{Text: "second"},
			Embedding: []float32{0, 1},
			RoomID:    roomID,
			CreatedAt: time.Now().UTC(),
		},
	}
	require.NoError(t, d.CreateMemories(ctx, "memories_2", memories))

	count, err := d.CountMemories(ctx, roomID, false, "messages")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, d.DeleteAllMemories(ctx, roomID, "messages"))

	count, err = d.CountMemories(ctx, roomID, false, "messages")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSearchMemoriesRanking(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	roomID := uuid.New()

	memories := []*store.Memory{
		{
			ID:        uuid.New(),
			Type:      "messages",
			Content:   store.MemoryContent{Text: "exact"},
			Embedding: []float32{1, 0},
			RoomID:    roomID,
			CreatedAt: time.Now().UTC(),
		},
		{
			ID:        uuid.New(),
			Type:      "messages",
			Content:   store.MemoryContent{Text: "close"},
			Embedding: []float32{0.9, 0.1},
			RoomID:    roomID,
			CreatedAt: time.Now().UTC(),
		},
		{
			ID:        uuid.New(),
			Type:      "messages",
			Content:   store.MemoryContent{Text: "orthogonal"},
			Embedding: []float32{0, 1},
			RoomID:    roomID,
			CreatedAt: time.Now().UTC(),
		},
	}
	require.NoError(t, d.CreateMemories(ctx, "memories_2", memories))

	results, err := d.SearchMemories(ctx, &store.SearchMemory{
		TableName: "messages",
		RoomID:    roomID,
		Embedding: []float32{1, 0},
		Threshold: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].Content.Text)
	assert.Equal(t, "close", results[1].Content.Text)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestSearchWithMismatchedQueryVector(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	roomID, agentID := uuid.New(), uuid.New()

	require.NoError(t, d.CreateMemories(ctx, "memories_2", []*store.Memory{{
		ID:        uuid.New(),
		Type:      "messages",
		Content:   store.MemoryContent{Text: "stored"},
		Embedding: []float32{1, 0},
		RoomID:    roomID,
		CreatedAt: time.Now().UTC(),
	}}))
	require.NoError(t, d.CreateKnowledge(ctx, &store.KnowledgeItem{
		ID:        uuid.New(),
		AgentID:   &agentID,
		Content:   store.KnowledgeContent{Text: "stored"},
		Embedding: []float32{1, 0},
		CreatedAt: time.Now().UTC(),
	}))

	// A query vector of the wrong dimensionality yields no similarity, so
	// every row falls out of the threshold filter.
	memoryResults, err := d.SearchMemories(ctx, &store.SearchMemory{
		TableName: "messages",
		RoomID:    roomID,
		Embedding: []float32{1, 0, 0, 0},
		Threshold: 0.0,
	})
	require.NoError(t, err)
	assert.Empty(t, memoryResults)

	knowledgeResults, err := d.SearchKnowledge(ctx, &store.SearchKnowledgeOptions{
		AgentID:   agentID,
		Embedding: []float32{1, 0, 0, 0},
		Threshold: 0.0,
	})
	require.NoError(t, err)
	assert.Empty(t, knowledgeResults)
}
