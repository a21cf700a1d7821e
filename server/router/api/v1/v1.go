// Package v1 implements the JSON HTTP API.
package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/recallhq/recalld/ai"
	"github.com/recallhq/recalld/internal/profile"
	"github.com/recallhq/recalld/server/metrics"
	"github.com/recallhq/recalld/store"
)

type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Embedder ai.EmbeddingService
	Metrics  *metrics.Exporter

	ingestor *ai.KnowledgeIngestor
}

// NewAPIV1Service creates the API service. The embedder may be nil, in which
// case text-based search and document ingestion are unavailable and callers
// must supply vectors themselves.
func NewAPIV1Service(profile *profile.Profile, store *store.Store, embedder ai.EmbeddingService, exporter *metrics.Exporter) *APIV1Service {
	s := &APIV1Service{
		Profile:  profile,
		Store:    store,
		Embedder: embedder,
		Metrics:  exporter,
	}
	if embedder != nil {
		s.ingestor = ai.NewKnowledgeIngestor(store, embedder)
	}
	return s
}

func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")

	// Memories.
	g.POST("/memories", s.createMemory)
	g.GET("/memories/:id", s.getMemory)
	g.DELETE("/memories/:id", s.deleteMemory)
	g.POST("/memories/batch", s.getMemoriesByIDs)
	g.POST("/memories/search", s.searchMemories)
	g.GET("/rooms/:roomID/memories", s.listMemories)
	g.DELETE("/rooms/:roomID/memories", s.deleteAllMemories)
	g.GET("/rooms/:roomID/memories/count", s.countMemories)

	// Knowledge.
	g.POST("/knowledge", s.createKnowledge)
	g.GET("/knowledge", s.listKnowledge)
	g.POST("/knowledge/search", s.searchKnowledge)
	g.POST("/knowledge/ingest", s.ingestKnowledge)
	g.DELETE("/knowledge/:id", s.deleteKnowledge)
	g.DELETE("/agents/:agentID/knowledge", s.clearKnowledge)

	// Goals.
	g.POST("/goals", s.createGoal)
	g.GET("/rooms/:roomID/goals", s.listGoals)
	g.PUT("/goals/:id", s.updateGoal)
	g.PATCH("/goals/:id/status", s.updateGoalStatus)
	g.DELETE("/goals/:id", s.deleteGoal)
	g.DELETE("/rooms/:roomID/goals", s.deleteAllGoals)

	// Accounts and rooms.
	g.POST("/accounts", s.upsertAccount)
	g.GET("/accounts/:id", s.getAccount)
	g.GET("/accounts/:id/rooms", s.listRoomsForAccount)
	g.GET("/accounts/:id/relationships", s.listRelationships)
	g.POST("/rooms", s.createRoom)
	g.GET("/rooms/:roomID", s.getRoom)
	g.DELETE("/rooms/:roomID", s.deleteRoom)
	g.GET("/rooms/:roomID/participants", s.listParticipants)
	g.POST("/rooms/:roomID/participants", s.addParticipant)
	g.DELETE("/rooms/:roomID/participants/:userID", s.removeParticipant)
	g.GET("/rooms/:roomID/participants/:userID/state", s.getParticipantState)
	g.PUT("/rooms/:roomID/participants/:userID/state", s.setParticipantState)
	g.GET("/rooms/:roomID/actors", s.listActors)

	// Relationships.
	g.POST("/relationships", s.createRelationship)
	g.GET("/relationships", s.getRelationship)

	// Cache.
	g.GET("/agents/:agentID/cache/:key", s.getCache)
	g.PUT("/agents/:agentID/cache/:key", s.setCache)
	g.DELETE("/agents/:agentID/cache/:key", s.deleteCache)

	// Logs.
	g.POST("/logs", s.createLog)
}
