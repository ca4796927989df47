package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iliyamo/event-listing-platform/internal/model"
	"github.com/iliyamo/event-listing-platform/internal/service"
	"github.com/labstack/echo/v4"
)

// defaultPageSize applies whenever the size query parameter is missing
// or non-positive; a negative from offset is clamped to 0.
const defaultPageSize = 10

// parseID parses a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// parsePage reads the from/size query parameters and applies the
// clamping rules.
func parsePage(c echo.Context) (from, size int) {
	from, _ = strconv.Atoi(c.QueryParam("from"))
	if from < 0 {
		from = 0
	}
	size, err := strconv.Atoi(c.QueryParam("size"))
	if err != nil || size <= 0 {
		size = defaultPageSize
	}
	return from, size
}

// parseTimeParam parses an optional timestamp query parameter in the
// wire layout.  A missing parameter yields a nil pointer.
func parseTimeParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(model.TimeLayout, raw)
	if err != nil {
		return nil, errors.New("invalid " + name + ": expected " + model.TimeLayout)
	}
	return &t, nil
}

// respondServiceError maps the service layer's sentinel errors onto
// HTTP statuses.  Anything unrecognized is reported as an opaque 500 so
// that internal details never reach the client.
func respondServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
