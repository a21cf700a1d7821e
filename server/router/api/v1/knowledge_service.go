package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/recallhq/recalld/ai"
	"github.com/recallhq/recalld/store"
)

type createKnowledgeRequest struct {
	ID        uuid.UUID              `json:"id"`
	AgentID   *uuid.UUID             `json:"agentId,omitempty"`
	Content   store.KnowledgeContent `json:"content"`
	Embedding []float32              `json:"embedding,omitempty"`
}

type knowledgeResponse struct {
	ID         uuid.UUID              `json:"id"`
	AgentID    *uuid.UUID             `json:"agentId,omitempty"`
	Content    store.KnowledgeContent `json:"content"`
	Embedding  []float32              `json:"embedding,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	Similarity *float64               `json:"similarity,omitempty"`
}

func convertKnowledgeItem(item *store.KnowledgeItem) *knowledgeResponse {
	return &knowledgeResponse{
		ID:        item.ID,
		AgentID:   item.AgentID,
		Content:   item.Content,
		Embedding: item.Embedding,
		CreatedAt: item.CreatedAt,
	}
}

func (s *APIV1Service) createKnowledge(c echo.Context) error {
	req := &createKnowledgeRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.ID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	item := &store.KnowledgeItem{
		ID:        req.ID,
		AgentID:   req.AgentID,
		Content:   req.Content,
		Embedding: req.Embedding,
	}
	if err := s.Store.CreateKnowledge(c.Request().Context(), item); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create knowledge").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertKnowledgeItem(item))
}

func (s *APIV1Service) listKnowledge(c echo.Context) error {
	agentID, err := queryUUID(c, "agentId")
	if err != nil {
		return err
	}
	if agentID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "agentId is required")
	}
	id, err := queryUUID(c, "id")
	if err != nil {
		return err
	}

	find := &store.FindKnowledge{
		ID:      id,
		AgentID: *agentID,
		Limit:   queryInt(c, "limit"),
	}
	if q := c.QueryParam("query"); q != "" {
		find.Query = &q
	}

	list, err := s.Store.GetKnowledge(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list knowledge").SetInternal(err)
	}

	responses := make([]*knowledgeResponse, 0, len(list))
	for _, item := range list {
		responses = append(responses, convertKnowledgeItem(item))
	}
	return c.JSON(http.StatusOK, responses)
}

type searchKnowledgeRequest struct {
	AgentID    uuid.UUID `json:"agentId"`
	Embedding  []float32 `json:"embedding,omitempty"`
	SearchText string    `json:"searchText,omitempty"`
	Threshold  float64   `json:"threshold,omitempty"`
	Limit      int       `json:"limit,omitempty"`
}

func (s *APIV1Service) searchKnowledge(c echo.Context) error {
	ctx := c.Request().Context()
	req := &searchKnowledgeRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	embedding := req.Embedding
	if len(embedding) == 0 {
		if req.SearchText == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "embedding or searchText is required")
		}
		if s.Embedder == nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "no embedder configured; supply an embedding")
		}
		var err error
		if embedding, err = s.Embedder.Embed(ctx, req.SearchText); err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "failed to embed search text").SetInternal(err)
		}
	}

	results, err := s.Store.SearchKnowledge(ctx, &store.SearchKnowledgeOptions{
		AgentID:    req.AgentID,
		Embedding:  embedding,
		Threshold:  req.Threshold,
		Limit:      req.Limit,
		SearchText: req.SearchText,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search knowledge").SetInternal(err)
	}
	s.Metrics.ObserveSearchResults("knowledge", len(results))

	responses := make([]*knowledgeResponse, 0, len(results))
	for _, r := range results {
		resp := convertKnowledgeItem(r.KnowledgeItem)
		similarity := r.Similarity
		resp.Similarity = &similarity
		responses = append(responses, resp)
	}
	return c.JSON(http.StatusOK, responses)
}

type ingestKnowledgeRequest struct {
	AgentID uuid.UUID `json:"agentId"`
	Text    string    `json:"text"`
	Shared  bool      `json:"shared,omitempty"`
}

func (s *APIV1Service) ingestKnowledge(c echo.Context) error {
	if s.ingestor == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no embedder configured; ingestion unavailable")
	}

	req := &ingestKnowledgeRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	mainID, err := s.ingestor.IngestDocument(c.Request().Context(), &ai.IngestDocumentOptions{
		AgentID: req.AgentID,
		Text:    req.Text,
		Shared:  req.Shared,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to ingest document").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]uuid.UUID{"id": mainID})
}

func (s *APIV1Service) deleteKnowledge(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.Store.RemoveKnowledge(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete knowledge").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) clearKnowledge(c echo.Context) error {
	agentID, err := pathUUID(c, "agentID")
	if err != nil {
		return err
	}

	if err := s.Store.ClearKnowledge(c.Request().Context(), agentID, queryBool(c, "shared")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear knowledge").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
