package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/recallhq/recalld/store"
)

type goalRequest struct {
	ID         uuid.UUID         `json:"id,omitempty"`
	RoomID     uuid.UUID         `json:"roomId"`
	UserID     uuid.UUID         `json:"userId"`
	Name       string            `json:"name"`
	Status     store.GoalStatus  `json:"status,omitempty"`
	Objectives []store.Objective `json:"objectives,omitempty"`
}

type goalResponse struct {
	ID         uuid.UUID         `json:"id"`
	RoomID     uuid.UUID         `json:"roomId"`
	UserID     uuid.UUID         `json:"userId"`
	Name       string            `json:"name"`
	Status     store.GoalStatus  `json:"status"`
	Objectives []store.Objective `json:"objectives"`
	CreatedAt  time.Time         `json:"createdAt"`
}

func convertGoal(g *store.Goal) *goalResponse {
	return &goalResponse{
		ID:         g.ID,
		RoomID:     g.RoomID,
		UserID:     g.UserID,
		Name:       g.Name,
		Status:     g.Status,
		Objectives: g.Objectives,
		CreatedAt:  g.CreatedAt,
	}
}

func (s *APIV1Service) createGoal(c echo.Context) error {
	req := &goalRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	goal := &store.Goal{
		ID:         req.ID,
		RoomID:     req.RoomID,
		UserID:     req.UserID,
		Name:       req.Name,
		Status:     req.Status,
		Objectives: req.Objectives,
	}
	if err := s.Store.CreateGoal(c.Request().Context(), goal); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create goal").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertGoal(goal))
}

func (s *APIV1Service) listGoals(c echo.Context) error {
	roomID, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}
	userID, err := queryUUID(c, "userId")
	if err != nil {
		return err
	}

	list, err := s.Store.GetGoals(c.Request().Context(), &store.FindGoal{
		RoomID:         roomID,
		UserID:         userID,
		OnlyInProgress: queryBool(c, "onlyInProgress"),
		Count:          queryInt(c, "count"),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list goals").SetInternal(err)
	}

	responses := make([]*goalResponse, 0, len(list))
	for _, goal := range list {
		responses = append(responses, convertGoal(goal))
	}
	return c.JSON(http.StatusOK, responses)
}

func (s *APIV1Service) updateGoal(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	req := &goalRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	goal := &store.Goal{
		ID:         id,
		RoomID:     req.RoomID,
		UserID:     req.UserID,
		Name:       req.Name,
		Status:     req.Status,
		Objectives: req.Objectives,
	}
	if err := s.Store.UpdateGoal(c.Request().Context(), goal); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update goal").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertGoal(goal))
}

type updateGoalStatusRequest struct {
	Status store.GoalStatus `json:"status"`
}

func (s *APIV1Service) updateGoalStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	req := &updateGoalStatusRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	if err := s.Store.UpdateGoalStatus(c.Request().Context(), id, req.Status); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update goal status").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) deleteGoal(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.Store.RemoveGoal(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete goal").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) deleteAllGoals(c echo.Context) error {
	roomID, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}

	if err := s.Store.RemoveAllGoals(c.Request().Context(), roomID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete goals").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
