package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// KnowledgeItem represents a semantic document (possibly chunked) available to
// one agent or shared across all. Shared items are stored agent-independent
// and deduplicated globally by id.
type KnowledgeItem struct {
	ID        uuid.UUID
	AgentID   *uuid.UUID // nil when the item is shared
	Content   KnowledgeContent
	Embedding []float32
	CreatedAt time.Time
}

// KnowledgeContent is the structured payload of a knowledge item.
type KnowledgeContent struct {
	Text     string            `json:"text"`
	Metadata KnowledgeMetadata `json:"metadata"`
}

// KnowledgeMetadata carries chunking and sharing markers.
type KnowledgeMetadata struct {
	IsMain     bool       `json:"isMain,omitempty"`
	IsShared   bool       `json:"isShared,omitempty"`
	OriginalID *uuid.UUID `json:"originalId,omitempty"`
	ChunkIndex *int       `json:"chunkIndex,omitempty"`
}

// KnowledgeItemWithScore is a knowledge item returned from a search. The
// similarity is the backing procedure's combined vector+text score, not raw
// cosine.
type KnowledgeItemWithScore struct {
	*KnowledgeItem
	Similarity float64
}

// FindKnowledge specifies the conditions for listing knowledge. Rows match
// when the agent owns them or they are shared.
type FindKnowledge struct {
	ID      *uuid.UUID
	AgentID uuid.UUID
	Limit   int
	Query   *string
}

// SearchKnowledgeOptions specifies a server-side combined vector+text search.
type SearchKnowledgeOptions struct {
	AgentID    uuid.UUID
	Embedding  []float32
	Threshold  float64
	Limit      int
	SearchText string
}

// CreateKnowledge persists a knowledge item. Shared items are stored with a
// null agent id; a uniqueness conflict on a shared item is swallowed by the
// driver so that re-seeding shared knowledge stays idempotent.
func (s *Store) CreateKnowledge(ctx context.Context, create *KnowledgeItem) error {
	if create.ID == uuid.Nil {
		return errors.New("knowledge id is required")
	}
	if create.Content.Metadata.IsShared {
		create.AgentID = nil
	}
	if create.CreatedAt.IsZero() {
		create.CreatedAt = time.Now().UTC()
	}
	return s.driver.CreateKnowledge(ctx, create)
}

// GetKnowledge returns knowledge rows visible to the agent: its own plus
// shared ones.
func (s *Store) GetKnowledge(ctx context.Context, find *FindKnowledge) ([]*KnowledgeItem, error) {
	return s.driver.ListKnowledge(ctx, find)
}

// SearchKnowledge delegates to the backing store's combined-score procedure.
func (s *Store) SearchKnowledge(ctx context.Context, search *SearchKnowledgeOptions) ([]*KnowledgeItemWithScore, error) {
	return s.driver.SearchKnowledge(ctx, search)
}

// RemoveKnowledge deletes the knowledge item with the given id.
func (s *Store) RemoveKnowledge(ctx context.Context, id uuid.UUID) error {
	return s.driver.DeleteKnowledge(ctx, id)
}

// ClearKnowledge bulk-deletes an agent's knowledge: its private rows, or when
// shared is set, the shared rows it nominally owns.
func (s *Store) ClearKnowledge(ctx context.Context, agentID uuid.UUID, shared bool) error {
	return s.driver.DeleteAllKnowledge(ctx, agentID, shared)
}
