package v1

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// pathUUID parses a path parameter as a UUID.
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// queryUUID parses an optional query parameter as a UUID; absent returns nil.
func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	value := c.QueryParam(name)
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string) int {
	value, _ := strconv.Atoi(c.QueryParam(name))
	return value
}

// queryBool parses an optional boolean query parameter.
func queryBool(c echo.Context, name string) bool {
	value, _ := strconv.ParseBool(c.QueryParam(name))
	return value
}
