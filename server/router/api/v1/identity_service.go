package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/recallhq/recalld/store"
)

type accountRequest struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name,omitempty"`
	Username  string         `json:"username,omitempty"`
	Email     string         `json:"email,omitempty"`
	AvatarURL string         `json:"avatarUrl,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

type accountResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	AvatarURL string         `json:"avatarUrl"`
	Details   map[string]any `json:"details"`
}

func convertAccount(a *store.Account) *accountResponse {
	return &accountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Username:  a.Username,
		Email:     a.Email,
		AvatarURL: a.AvatarURL,
		Details:   a.Details,
	}
}

func (s *APIV1Service) upsertAccount(c echo.Context) error {
	req := &accountRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.ID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	account := &store.Account{
		ID:        req.ID,
		Name:      req.Name,
		Username:  req.Username,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
		Details:   req.Details,
	}
	created := s.Store.CreateAccount(c.Request().Context(), account)
	return c.JSON(http.StatusOK, map[string]bool{"success": created})
}

func (s *APIV1Service) getAccount(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	account, err := s.Store.GetAccountByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get account").SetInternal(err)
	}
	if account == nil {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}
	return c.JSON(http.StatusOK, convertAccount(account))
}

type createRoomRequest struct {
	ID uuid.UUID `json:"id,omitempty"`
}

func (s *APIV1Service) createRoom(c echo.Context) error {
	req := &createRoomRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	id, err := s.Store.CreateRoom(c.Request().Context(), req.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create room").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]uuid.UUID{"id": id})
}

func (s *APIV1Service) getRoom(c echo.Context) error {
	id, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}

	room, err := s.Store.GetRoom(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get room").SetInternal(err)
	}
	if room == nil {
		return echo.NewHTTPError(http.StatusNotFound, "room not found")
	}
	return c.JSON(http.StatusOK, map[string]uuid.UUID{"id": room.ID})
}

func (s *APIV1Service) deleteRoom(c echo.Context) error {
	id, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}

	if err := s.Store.RemoveRoom(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete room").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type participantRequest struct {
	UserID uuid.UUID `json:"userId"`
}

func (s *APIV1Service) addParticipant(c echo.Context) error {
	roomID, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}
	req := &participantRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	added := s.Store.AddParticipant(c.Request().Context(), req.UserID, roomID)
	return c.JSON(http.StatusOK, map[string]bool{"success": added})
}

func (s *APIV1Service) removeParticipant(c echo.Context) error {
	roomID, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}
	userID, err := pathUUID(c, "userID")
	if err != nil {
		return err
	}

	removed := s.Store.RemoveParticipant(c.Request().Context(), userID, roomID)
	return c.JSON(http.StatusOK, map[string]bool{"success": removed})
}

func (s *APIV1Service) listParticipants(c echo.Context) error {
	roomID, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}

	userIDs, err := s.Store.GetParticipantsForRoom(c.Request().Context(), roomID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list participants").SetInternal(err)
	}
	return c.JSON(http.StatusOK, userIDs)
}

func (s *APIV1Service) listRoomsForAccount(c echo.Context) error {
	userID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	roomIDs, err := s.Store.GetRoomsForParticipant(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list rooms").SetInternal(err)
	}
	return c.JSON(http.StatusOK, roomIDs)
}

func (s *APIV1Service) getParticipantState(c echo.Context) error {
	roomID, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}
	userID, err := pathUUID(c, "userID")
	if err != nil {
		return err
	}

	state, err := s.Store.GetParticipantUserState(c.Request().Context(), roomID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get participant state").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]*store.ParticipantUserState{"state": state})
}

type participantStateRequest struct {
	State *store.ParticipantUserState `json:"state"`
}

func (s *APIV1Service) setParticipantState(c echo.Context) error {
	roomID, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}
	userID, err := pathUUID(c, "userID")
	if err != nil {
		return err
	}
	req := &participantStateRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.State != nil && *req.State != store.ParticipantStateFollowed && *req.State != store.ParticipantStateMuted {
		return echo.NewHTTPError(http.StatusBadRequest, "state must be FOLLOWED, MUTED or null")
	}

	if err := s.Store.SetParticipantUserState(c.Request().Context(), roomID, userID, req.State); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to set participant state").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type actorResponse struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Username string         `json:"username"`
	Details  map[string]any `json:"details"`
}

func (s *APIV1Service) listActors(c echo.Context) error {
	roomID, err := pathUUID(c, "roomID")
	if err != nil {
		return err
	}

	actors, err := s.Store.GetActorDetails(c.Request().Context(), roomID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list actors").SetInternal(err)
	}

	responses := make([]*actorResponse, 0, len(actors))
	for _, actor := range actors {
		responses = append(responses, &actorResponse{
			ID:       actor.ID,
			Name:     actor.Name,
			Username: actor.Username,
			Details:  actor.Details,
		})
	}
	return c.JSON(http.StatusOK, responses)
}
