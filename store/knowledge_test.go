package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateKnowledge(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an id", func(t *testing.T) {
		driver := newMockDriver()
		s := newTestStore(driver)

		err := s.CreateKnowledge(ctx, &KnowledgeItem{
			Content: KnowledgeContent{Text: "doc"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "knowledge id is required")
		assert.Zero(t, driver.calls["CreateKnowledge"])
	})

	t.Run("shared items drop the agent id", func(t *testing.T) {
		driver := newMockDriver()
		var got *KnowledgeItem
		driver.createKnowledgeFn = func(_ context.Context, create *KnowledgeItem) error {
			got = create
			return nil
		}
		s := newTestStore(driver)

		agentID := uuid.New()
		require.NoError(t, s.CreateKnowledge(ctx, &KnowledgeItem{
			ID:      uuid.New(),
			AgentID: &agentID,
			Content: KnowledgeContent{
				Text:     "doc",
				Metadata: KnowledgeMetadata{IsShared: true},
			},
		}))
		assert.Nil(t, got.AgentID)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("private items keep the agent id", func(t *testing.T) {
		driver := newMockDriver()
		var got *KnowledgeItem
		driver.createKnowledgeFn = func(_ context.Context, create *KnowledgeItem) error {
			got = create
			return nil
		}
		s := newTestStore(driver)

		agentID := uuid.New()
		require.NoError(t, s.CreateKnowledge(ctx, &KnowledgeItem{
			ID:      uuid.New(),
			AgentID: &agentID,
			Content: KnowledgeContent{Text: "doc"},
		}))
		require.NotNil(t, got.AgentID)
		assert.Equal(t, agentID, *got.AgentID)
	})
}
