package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/recallhq/recalld/store"
)

type createLogRequest struct {
	Body   map[string]any `json:"body"`
	UserID uuid.UUID      `json:"userId"`
	RoomID uuid.UUID      `json:"roomId"`
	Type   string         `json:"type"`
}

func (s *APIV1Service) createLog(c echo.Context) error {
	req := &createLogRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.Type == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "type is required")
	}

	log := &store.Log{
		Body:   req.Body,
		UserID: req.UserID,
		RoomID: req.RoomID,
		Type:   req.Type,
	}
	if err := s.Store.Log(c.Request().Context(), log); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create log").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]uuid.UUID{"id": log.ID})
}
