package handler

import (
	"net/http"
	"strconv"

	"github.com/iliyamo/event-listing-platform/internal/model"
	"github.com/iliyamo/event-listing-platform/internal/repository"
	"github.com/iliyamo/event-listing-platform/internal/service"
	"github.com/labstack/echo/v4"
)

// AdminEventHandler serves the moderation endpoints under /admin/events.
type AdminEventHandler struct {
	Events *service.EventService // event lifecycle operations
}

// NewAdminEventHandler constructs an AdminEventHandler.
func NewAdminEventHandler(events *service.EventService) *AdminEventHandler {
	if events == nil {
		panic("nil service passed to NewAdminEventHandler")
	}
	return &AdminEventHandler{Events: events}
}

// SearchEvents handles GET /admin/events.  The users, states and
// categories parameters are multi-valued; an unknown state value fails
// the whole request rather than silently matching nothing.
func (h *AdminEventHandler) SearchEvents(c echo.Context) error {
	users, err := parseIDValues(c.QueryParams()["users"])
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid users filter"})
	}
	categories, err := parseIDValues(c.QueryParams()["categories"])
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid categories filter"})
	}
	var states []model.EventState
	for _, raw := range c.QueryParams()["states"] {
		state, err := model.ParseEventState(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		states = append(states, state)
	}
	rangeStart, err := parseTimeParam(c, "rangeStart")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	rangeEnd, err := parseTimeParam(c, "rangeEnd")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	from, size := parsePage(c)

	events, err := h.Events.Search(c.Request().Context(), repository.EventFilter{
		Users:      users,
		States:     states,
		Categories: categories,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		From:       from,
		Size:       size,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toEventJSONList(events)})
}

// UpdateEvent handles PATCH /admin/events/:eventId.  Only PUBLISH_EVENT
// and REJECT_EVENT are accepted as state actions on this path.
func (h *AdminEventHandler) UpdateEvent(c echo.Context) error {
	eventID, err := parseID(c, "eventId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body patchEventBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	patch, err := body.toPatch(model.ParseAdminStateAction)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	e, err := h.Events.UpdateByAdmin(c.Request().Context(), eventID, patch)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toEventJSON(e))
}

// parseIDValues parses a repeated numeric query parameter.
func parseIDValues(values []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
