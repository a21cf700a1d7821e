package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *APIV1Service) getCache(c echo.Context) error {
	agentID, err := pathUUID(c, "agentID")
	if err != nil {
		return err
	}

	value, ok := s.Store.GetCache(c.Request().Context(), c.Param("key"), agentID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "cache entry not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"value": value})
}

type setCacheRequest struct {
	Value string `json:"value"`
}

func (s *APIV1Service) setCache(c echo.Context) error {
	agentID, err := pathUUID(c, "agentID")
	if err != nil {
		return err
	}
	req := &setCacheRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	ok := s.Store.SetCache(c.Request().Context(), c.Param("key"), agentID, req.Value)
	return c.JSON(http.StatusOK, map[string]bool{"success": ok})
}

func (s *APIV1Service) deleteCache(c echo.Context) error {
	agentID, err := pathUUID(c, "agentID")
	if err != nil {
		return err
	}

	ok := s.Store.DeleteCache(c.Request().Context(), c.Param("key"), agentID)
	return c.JSON(http.StatusOK, map[string]bool{"success": ok})
}
