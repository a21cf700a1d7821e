package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/recallhq/recalld/store"
)

type createMemoryRequest struct {
	ID        uuid.UUID           `json:"id,omitempty"`
	Type      string              `json:"type,omitempty"`
	Content   store.MemoryContent `json:"content"`
	Embedding []float32           `json:"embedding,omitempty"`
	UserID    uuid.UUID           `json:"userId"`
	AgentID   uuid.UUID           `json:"agentId"`
	RoomID    uuid.UUID           `json:"roomId"`
	Unique    bool                `json:"unique"`
}

type memoryResponse struct {
	ID         uuid.UUID           `json:"id"`
	Type       string              `json:"type"`
	Content    store.MemoryContent `json:"content"`
	Embedding  []float32           `json:"embedding,omitempty"`
	UserID     uuid.UUID           `json:"userId"`
	AgentID    uuid.UUID           `json:"agentId"`
	RoomID     uuid.UUID           `json:"roomId"`
	Unique     bool                `json:"unique"`
	CreatedAt  time.Time           `json:"createdAt"`
	Similarity *float64            `json:"similarity,omitempty"`
}

func convertMemory(m *store.Memory) *memoryResponse {
	return &memoryResponse{
		ID:        m.ID,
		Type:      m.Type,
		Content:   m.Content,
		Embedding: m.Embedding,
		UserID:    m.UserID,
		AgentID:   m.AgentID,
		RoomID:    m.RoomID,
		Unique:    m.Unique,
		CreatedAt: m.CreatedAt,
	}
}

func convertMemories(list []*store.Memory) []*memoryResponse {
	responses := make([]*memoryResponse, 0, len(list))
	for _, m := range list {
		responses = append(responses, convertMemory(m))
	}
	return responses
}

func (s *APIV1Service) createMemory(c echo.Context) error {
	ctx := c.Request().Context()
	req := &createMemoryRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.Content.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content.text is required")
	}
	if len(req.Embedding) > 0 && len(req.Embedding) != s.Store.EmbeddingDim() {
		return echo.NewHTTPError(http.StatusBadRequest, "embedding dimension mismatch")
	}

	memory := &store.Memory{
		ID:        req.ID,
		Type:      req.Type,
		Content:   req.Content,
		Embedding: req.Embedding,
		UserID:    req.UserID,
		AgentID:   req.AgentID,
		RoomID:    req.RoomID,
		Unique:    req.Unique,
	}
	// Embed on write when the caller sent no vector and an embedder is
	// configured.
	if len(memory.Embedding) == 0 && s.Embedder != nil {
		embedding, err := s.Embedder.Embed(ctx, memory.Content.Text)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "failed to embed memory content").SetInternal(err)
		}
		memory.Embedding = embedding
	}

	if err := s.Store.CreateMemory(ctx, memory); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create memory").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertMemory(memory))
}

func (s *APIV1Service) getMemory(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	memory, err := s.Store.GetMemoryByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get memory").SetInternal(err)
	}
	if memory == nil {
		return echo.NewHTTPError(http.StatusNotFound, "memory not found")
	}
	return c.JSON(http.StatusOK, convertMemory(memory))
}

func (s *APIV1Service) deleteMemory(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.Store.RemoveMemory(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete memory").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type getMemoriesByIDsRequest struct {
	IDs       []uuid.UUID `json:"ids"`
	TableName string      `json:"tableName,omitempty"`
}

func (s *APIV1Service) getMemoriesByIDs(c echo.Context) error {
	req := &getMemoriesByIDsRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	list, err := s.Store.GetMemoriesByIDs(c.Request().Context(), req.IDs, req.TableName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get memories").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertMemories(list))
}

type searchMemoriesRequest struct {
	TableName string     `json:"tableName"`
	RoomID    uuid.UUID  `json:"roomId"`
	AgentID   *uuid.UUID `json:"agentId,omitempty"`
	Embedding []float32  `json:"embedding,omitempty"`
	Text      string     `json:"text,omitempty"`
	Threshold float64    `json:"threshold,omitempty"`
	Count     int        `json:"count,omitempty"`
	Unique    bool       `json:"unique,omitempty"`
	Fallback  bool       `json:"fallback,omitempty"`
}

// searchMemories ranks a room's memories against a query vector. The caller
// sends either the vector or, when an embedder is configured, the raw text.
// With fallback set the ranking runs in-process over exact-filter candidates
// instead of the backing store's procedure.
func (s *APIV1Service) searchMemories(c echo.Context) error {
	ctx := c.Request().Context()
	req := &searchMemoriesRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.TableName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tableName is required")
	}

	embedding := req.Embedding
	if len(embedding) == 0 {
		if req.Text == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "embedding or text is required")
		}
		if s.Embedder == nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "no embedder configured; supply an embedding")
		}
		var err error
		if embedding, err = s.Embedder.Embed(ctx, req.Text); err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "failed to embed query text").SetInternal(err)
		}
	}

	var results []*store.MemoryWithSimilarity
	var err error
	if req.Fallback {
		roomID := req.RoomID
		// A zero threshold means unset; the store applies its own default.
		var threshold *float64
		if req.Threshold != 0 {
			threshold = &req.Threshold
		}
		results, err = s.Store.SearchMemoriesByEmbedding(ctx, embedding, &store.SearchMemoriesByEmbeddingOptions{
			TableName: req.TableName,
			RoomID:    &roomID,
			AgentID:   req.AgentID,
			Unique:    req.Unique,
			Threshold: threshold,
			Count:     req.Count,
		})
	} else {
		results, err = s.Store.SearchMemories(ctx, &store.SearchMemory{
			TableName: req.TableName,
			RoomID:    req.RoomID,
			Embedding: embedding,
			Threshold: req.Threshold,
			Limit:     req.Count,
			Unique:    req.Unique,
		})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search memories").SetInternal(err)
	}
	s.Metrics.ObserveSearchResults("memories", len(results))

	responses := make([]*memoryResponse, 0, len(results))
	for _, r := range results {
		resp := convertMemory(r.Memory)
		similarity := r.Similarity
		resp.Similarity = &similarity
		responses = append(responses, resp)
	}
	return c.JSON(http.StatusOK, responses)
}

func (s *APIV1Service) listMemories(c echo.Context) error {
	roomID, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}
	agentID, err := queryUUID(c, "agentId")
	if err != nil {
		return err
	}

	find := &store.FindMemory{
		RoomID:    roomID,
		TableName: c.QueryParam("tableName"),
		AgentID:   agentID,
		Unique:    queryBool(c, "unique"),
		Count:     queryInt(c, "count"),
	}
	if find.TableName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tableName is required")
	}
	if v := c.QueryParam("start"); v != "" {
		start, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start")
		}
		find.Start = &start
	}
	if v := c.QueryParam("end"); v != "" {
		end, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end")
		}
		find.End = &end
	}

	list, err := s.Store.GetMemories(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list memories").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertMemories(list))
}

func (s *APIV1Service) deleteAllMemories(c echo.Context) error {
	roomID, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}
	tableName := c.QueryParam("tableName")
	if tableName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tableName is required")
	}

	if err := s.Store.RemoveAllMemories(c.Request().Context(), roomID, tableName); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to remove memories").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) countMemories(c echo.Context) error {
	roomID, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}
	tableName := c.QueryParam("tableName")
	if tableName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tableName is required")
	}

	count, err := s.Store.CountMemories(c.Request().Context(), roomID, queryBool(c, "unique"), tableName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count memories").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}
