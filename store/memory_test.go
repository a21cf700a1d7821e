package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(driver Driver) *Store {
	return New(driver, nil)
}

func TestMemoryPartition(t *testing.T) {
	assert.Equal(t, "memories_1536", MemoryPartition(1536))
	assert.Equal(t, "memories_768", MemoryPartition(768))
}

func TestCreateMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects dimension mismatch before any driver call", func(t *testing.T) {
		driver := newMockDriver()
		s := newTestStore(driver)

		err := s.CreateMemory(ctx, &Memory{
			Content:   MemoryContent{Text: "hello"},
			Embedding: make([]float32, 8),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding dimension mismatch")
		assert.Zero(t, driver.calls["CreateMemories"])
	})

	t.Run("fills defaults and writes to the configured partition", func(t *testing.T) {
		driver := newMockDriver()
		var gotPartition string
		var gotMemory *Memory
		driver.createMemoriesFn = func(_ context.Context, partition string, memories []*Memory) error {
			gotPartition = partition
			require.Len(t, memories, 1)
			gotMemory = memories[0]
			return nil
		}
		s := newTestStore(driver)

		create := &Memory{
			Content: MemoryContent{Text: "hello", Source: "messages"},
			RoomID:  uuid.New(),
		}
		require.NoError(t, s.CreateMemory(ctx, create))

		assert.Equal(t, MemoryPartition(s.EmbeddingDim()), gotPartition)
		assert.NotEqual(t, uuid.Nil, gotMemory.ID)
		assert.Equal(t, "messages", gotMemory.Type)
		assert.False(t, gotMemory.CreatedAt.IsZero())
	})

	t.Run("keeps a caller-supplied id and type", func(t *testing.T) {
		driver := newMockDriver()
		var gotMemory *Memory
		driver.createMemoriesFn = func(_ context.Context, _ string, memories []*Memory) error {
			gotMemory = memories[0]
			return nil
		}
		s := newTestStore(driver)

		id := uuid.New()
		require.NoError(t, s.CreateMemory(ctx, &Memory{
			ID:      id,
			Type:    "facts",
			Content: MemoryContent{Text: "hello", Source: "messages"},
		}))
		assert.Equal(t, id, gotMemory.ID)
		assert.Equal(t, "facts", gotMemory.Type)
	})
}

func TestGetMemoriesRequiresTableName(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver()
	s := newTestStore(driver)

	_, err := s.GetMemories(ctx, &FindMemory{RoomID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tableName is required")

	_, err = s.GetMemoriesByRoomIDs(ctx, &FindMemoriesByRoomIDs{RoomIDs: []uuid.UUID{uuid.New()}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tableName is required")

	_, err = s.CountMemories(ctx, uuid.New(), false, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tableName is required")

	err = s.RemoveAllMemories(ctx, uuid.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tableName is required")
}

func TestGetMemoriesByIDsShortCircuit(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver()
	s := newTestStore(driver)

	memories, err := s.GetMemoriesByIDs(ctx, nil, "messages")
	require.NoError(t, err)
	assert.Empty(t, memories)
	assert.Zero(t, driver.calls["ListMemoriesByIDs"])

	rooms, err := s.GetMemoriesByRoomIDs(ctx, &FindMemoriesByRoomIDs{TableName: "messages"})
	require.NoError(t, err)
	assert.Empty(t, rooms)
	assert.Zero(t, driver.calls["ListMemoriesByRoomIDs"])
}

func TestGetMemoryByIDDegradesOnError(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver()
	driver.getMemoryFn = func(context.Context, uuid.UUID) (*Memory, error) {
		return nil, errors.New("connection refused")
	}
	s := newTestStore(driver)

	memory, err := s.GetMemoryByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, memory)
}

func TestSearchMemoriesByEmbedding(t *testing.T) {
	ctx := context.Background()

	memoryWithEmbedding := func(vec []float32) *Memory {
		return &Memory{ID: uuid.New(), Embedding: vec}
	}

	t.Run("keeps rows below the threshold sorted ascending", func(t *testing.T) {
		driver := newMockDriver()
		driver.listEmbeddedMemoriesFn = func(context.Context, *FindEmbeddedMemories) ([]*Memory, error) {
			return []*Memory{
				memoryWithEmbedding([]float32{1, 0}),  // similarity 1.0, filtered out
				memoryWithEmbedding([]float32{0, 1}),  // similarity 0.0
				memoryWithEmbedding([]float32{1, 1}),  // similarity ~0.707
				memoryWithEmbedding([]float32{-1, 0}), // similarity -1.0
			}, nil
		}
		s := newTestStore(driver)

		results, err := s.SearchMemoriesByEmbedding(ctx, []float32{1, 0}, &SearchMemoriesByEmbeddingOptions{
			TableName: "messages",
		})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.InDelta(t, -1.0, results[0].Similarity, 1e-9)
		assert.InDelta(t, 0.0, results[1].Similarity, 1e-9)
		assert.InDelta(t, 0.7071, results[2].Similarity, 1e-3)
	})

	t.Run("drops rows with no measurable similarity", func(t *testing.T) {
		driver := newMockDriver()
		driver.listEmbeddedMemoriesFn = func(context.Context, *FindEmbeddedMemories) ([]*Memory, error) {
			return []*Memory{
				memoryWithEmbedding([]float32{0, 0}), // zero vector
				memoryWithEmbedding([]float32{0, 1}),
			}, nil
		}
		s := newTestStore(driver)

		results, err := s.SearchMemoriesByEmbedding(ctx, []float32{1, 0}, &SearchMemoriesByEmbeddingOptions{
			TableName: "messages",
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 0.0, results[0].Similarity, 1e-9)
	})

	t.Run("drops rows whose dimensionality differs from the query", func(t *testing.T) {
		driver := newMockDriver()
		driver.listEmbeddedMemoriesFn = func(context.Context, *FindEmbeddedMemories) ([]*Memory, error) {
			return []*Memory{
				memoryWithEmbedding([]float32{0, 1}),
				memoryWithEmbedding([]float32{0, 1, 0, 0, 0, 0}),
			}, nil
		}
		s := newTestStore(driver)

		results, err := s.SearchMemoriesByEmbedding(ctx, []float32{1, 0, 0, 0}, &SearchMemoriesByEmbeddingOptions{
			TableName: "messages",
		})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("truncates to count", func(t *testing.T) {
		driver := newMockDriver()
		driver.listEmbeddedMemoriesFn = func(context.Context, *FindEmbeddedMemories) ([]*Memory, error) {
			return []*Memory{
				memoryWithEmbedding([]float32{0, 1}),
				memoryWithEmbedding([]float32{1, 1}),
				memoryWithEmbedding([]float32{-1, 0}),
			}, nil
		}
		s := newTestStore(driver)

		results, err := s.SearchMemoriesByEmbedding(ctx, []float32{1, 0}, &SearchMemoriesByEmbeddingOptions{
			TableName: "messages",
			Count:     2,
		})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("honors a caller-supplied threshold", func(t *testing.T) {
		driver := newMockDriver()
		driver.listEmbeddedMemoriesFn = func(context.Context, *FindEmbeddedMemories) ([]*Memory, error) {
			return []*Memory{
				memoryWithEmbedding([]float32{0, 1}),
				memoryWithEmbedding([]float32{1, 1}),
			}, nil
		}
		s := newTestStore(driver)

		threshold := 0.5
		results, err := s.SearchMemoriesByEmbedding(ctx, []float32{1, 0}, &SearchMemoriesByEmbeddingOptions{
			TableName: "messages",
			Threshold: &threshold,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 0.0, results[0].Similarity, 1e-9)
	})

	t.Run("requires tableName", func(t *testing.T) {
		s := newTestStore(newMockDriver())
		_, err := s.SearchMemoriesByEmbedding(ctx, []float32{1, 0}, &SearchMemoriesByEmbeddingOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tableName is required")
	})
}
