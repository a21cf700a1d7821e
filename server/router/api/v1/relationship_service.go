package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/recallhq/recalld/store"
)

type createRelationshipRequest struct {
	UserA uuid.UUID `json:"userA"`
	UserB uuid.UUID `json:"userB"`
}

type relationshipResponse struct {
	ID        uuid.UUID                `json:"id"`
	UserA     uuid.UUID                `json:"userA"`
	UserB     uuid.UUID                `json:"userB"`
	UserID    uuid.UUID                `json:"userId"`
	RoomID    uuid.UUID                `json:"roomId"`
	Status    store.RelationshipStatus `json:"status"`
	CreatedAt time.Time                `json:"createdAt"`
}

func convertRelationship(r *store.Relationship) *relationshipResponse {
	return &relationshipResponse{
		ID:        r.ID,
		UserA:     r.UserA,
		UserB:     r.UserB,
		UserID:    r.UserID,
		RoomID:    r.RoomID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

func (s *APIV1Service) createRelationship(c echo.Context) error {
	req := &createRelationshipRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	if err := s.Store.CreateRelationship(c.Request().Context(), req.UserA, req.UserB); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create relationship").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// getRelationship resolves the pair in either order.
func (s *APIV1Service) getRelationship(c echo.Context) error {
	userA, err := queryUUID(c, "userA")
	if err != nil {
		return err
	}
	userB, err := queryUUID(c, "userB")
	if err != nil {
		return err
	}
	if userA == nil || userB == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "userA and userB are required")
	}

	relationship, err := s.Store.GetRelationship(c.Request().Context(), *userA, *userB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get relationship").SetInternal(err)
	}
	if relationship == nil {
		return echo.NewHTTPError(http.StatusNotFound, "relationship not found")
	}
	return c.JSON(http.StatusOK, convertRelationship(relationship))
}

func (s *APIV1Service) listRelationships(c echo.Context) error {
	userID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	list, err := s.Store.GetRelationships(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list relationships").SetInternal(err)
	}

	responses := make([]*relationshipResponse, 0, len(list))
	for _, relationship := range list {
		responses = append(responses, convertRelationship(relationship))
	}
	return c.JSON(http.StatusOK, responses)
}
