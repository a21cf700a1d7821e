package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/recallhq/recalld/internal/similarity"
)

// Memory represents a timestamped record of something said or perceived,
// optionally embedded for semantic search.
type Memory struct {
	ID        uuid.UUID
	Type      string // logical table name; defaults to Content.Source
	Content   MemoryContent
	Embedding []float32
	UserID    uuid.UUID
	AgentID   uuid.UUID
	RoomID    uuid.UUID
	Unique    bool
	CreatedAt time.Time
}

// MemoryContent is the structured payload of a memory, stored as JSON.
type MemoryContent struct {
	Text     string         `json:"text"`
	Source   string         `json:"source,omitempty"`
	URL      string         `json:"url,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MemoryWithSimilarity is a memory returned from a similarity search.
type MemoryWithSimilarity struct {
	*Memory
	Similarity float64
}

// FindMemory specifies the conditions for finding memories in a room.
type FindMemory struct {
	RoomID    uuid.UUID
	TableName string
	AgentID   *uuid.UUID
	Unique    bool
	Count     int
	Start     *time.Time // inclusive lower bound on CreatedAt
	End       *time.Time // inclusive upper bound on CreatedAt
}

// FindMemoriesByRoomIDs specifies a batch lookup across rooms.
type FindMemoriesByRoomIDs struct {
	RoomIDs   []uuid.UUID
	TableName string
	AgentID   *uuid.UUID
	Limit     int
}

// SearchMemory specifies a server-side vector similarity search.
type SearchMemory struct {
	TableName string
	RoomID    uuid.UUID
	Embedding []float32
	Threshold float64
	Limit     int
	Unique    bool
}

// FindEmbeddedMemories specifies the exact filters for the in-process
// similarity fallback; only rows with a non-null embedding match.
type FindEmbeddedMemories struct {
	TableName string
	RoomID    *uuid.UUID
	AgentID   *uuid.UUID
	Unique    bool
	Limit     int
}

// SearchMemoriesByEmbeddingOptions configures the in-process fallback search.
type SearchMemoriesByEmbeddingOptions struct {
	TableName string
	RoomID    *uuid.UUID
	AgentID   *uuid.UUID
	Unique    bool
	Threshold *float64
	Count     int
}

const (
	// defaultMatchThreshold is the fallback search threshold when unset.
	defaultMatchThreshold = 0.95
	// defaultMatchCount is the fallback search result cap when unset.
	defaultMatchCount = 10
)

// MemoryPartition returns the partition table name for the given embedding
// dimensionality, e.g. memories_1536.
func MemoryPartition(dim int) string {
	return fmt.Sprintf("memories_%d", dim)
}

// CreateMemory persists a memory. A missing id is generated, a missing
// createdAt is stamped with the current time, and the write goes through the
// batch-insert procedure keyed by the configured partition. An embedding whose
// length does not match the partition dimensionality is rejected before any
// remote call.
func (s *Store) CreateMemory(ctx context.Context, create *Memory) error {
	dim := s.EmbeddingDim()
	if len(create.Embedding) > 0 && len(create.Embedding) != dim {
		return errors.Errorf("embedding dimension mismatch: got %d, want %d", len(create.Embedding), dim)
	}

	if create.ID == uuid.Nil {
		create.ID = uuid.New()
	}
	if create.Type == "" {
		create.Type = create.Content.Source
	}
	if create.CreatedAt.IsZero() {
		create.CreatedAt = time.Now().UTC()
	}

	if err := s.driver.CreateMemories(ctx, MemoryPartition(dim), []*Memory{create}); err != nil {
		return errors.Wrap(err, "failed to create memory")
	}
	return nil
}

// GetMemories returns memories in a room matching the given filters, ordered
// by createdAt descending.
func (s *Store) GetMemories(ctx context.Context, find *FindMemory) ([]*Memory, error) {
	if find.TableName == "" {
		return nil, errors.New("tableName is required")
	}
	return s.driver.ListMemories(ctx, find)
}

// GetMemoriesByRoomIDs returns memories across multiple rooms. An empty room
// list short-circuits to an empty result without a remote call.
func (s *Store) GetMemoriesByRoomIDs(ctx context.Context, find *FindMemoriesByRoomIDs) ([]*Memory, error) {
	if find.TableName == "" {
		return nil, errors.New("tableName is required")
	}
	if len(find.RoomIDs) == 0 {
		return []*Memory{}, nil
	}
	return s.driver.ListMemoriesByRoomIDs(ctx, find)
}

// GetMemoriesByIDs returns the memories with the given ids. An empty id list
// short-circuits to an empty result without a remote call.
func (s *Store) GetMemoriesByIDs(ctx context.Context, ids []uuid.UUID, tableName string) ([]*Memory, error) {
	if len(ids) == 0 {
		return []*Memory{}, nil
	}
	return s.driver.ListMemoriesByIDs(ctx, ids, tableName)
}

// GetMemoryByID returns the memory with the given id, or nil when absent.
// Remote read failures are logged and degrade to a nil result.
func (s *Store) GetMemoryByID(ctx context.Context, id uuid.UUID) (*Memory, error) {
	memory, err := s.driver.GetMemory(ctx, id)
	if err != nil {
		slog.Error("failed to get memory by id", "id", id, "error", err)
		return nil, nil
	}
	return memory, nil
}

// SearchMemories delegates ranking to the backing store's vector similarity
// procedure.
func (s *Store) SearchMemories(ctx context.Context, search *SearchMemory) ([]*MemoryWithSimilarity, error) {
	if search.TableName == "" {
		return nil, errors.New("tableName is required")
	}
	return s.driver.SearchMemories(ctx, search)
}

// SearchMemoriesByEmbedding is the in-process fallback search: it fetches all
// embedded rows matching the exact filters and ranks them with cosine
// similarity. Results whose similarity is below the threshold (default 0.95)
// are retained, sorted ascending by similarity, and truncated to count
// (default 10). Rows with no measurable similarity (zero vectors) are dropped.
func (s *Store) SearchMemoriesByEmbedding(ctx context.Context, embedding []float32, opts *SearchMemoriesByEmbeddingOptions) ([]*MemoryWithSimilarity, error) {
	if opts.TableName == "" {
		return nil, errors.New("tableName is required")
	}

	threshold := defaultMatchThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	count := opts.Count
	if count <= 0 {
		count = defaultMatchCount
	}

	candidates, err := s.driver.ListEmbeddedMemories(ctx, &FindEmbeddedMemories{
		TableName: opts.TableName,
		RoomID:    opts.RoomID,
		AgentID:   opts.AgentID,
		Unique:    opts.Unique,
		Limit:     opts.Count,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list embedded memories")
	}

	results := []*MemoryWithSimilarity{}
	for _, memory := range candidates {
		sim := similarity.Cosine(embedding, memory.Embedding)
		// NaN never compares below the threshold, so unmeasurable rows fall out here.
		if sim < threshold {
			results = append(results, &MemoryWithSimilarity{Memory: memory, Similarity: sim})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity < results[j].Similarity
	})
	if len(results) > count {
		results = results[:count]
	}
	return results, nil
}

// RemoveMemory deletes the memory with the given id.
func (s *Store) RemoveMemory(ctx context.Context, id uuid.UUID) error {
	return s.driver.DeleteMemory(ctx, id)
}

// RemoveAllMemories deletes every memory of the given type in a room.
func (s *Store) RemoveAllMemories(ctx context.Context, roomID uuid.UUID, tableName string) error {
	if tableName == "" {
		return errors.New("tableName is required")
	}
	return s.driver.DeleteAllMemories(ctx, roomID, tableName)
}

// CountMemories counts memories of the given type in a room.
func (s *Store) CountMemories(ctx context.Context, roomID uuid.UUID, unique bool, tableName string) (int, error) {
	if tableName == "" {
		return 0, errors.New("tableName is required")
	}
	return s.driver.CountMemories(ctx, roomID, unique, tableName)
}
