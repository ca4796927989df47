package handler

import (
	"net/http"
	"strconv"

	"github.com/iliyamo/event-listing-platform/internal/service"
	"github.com/labstack/echo/v4"
)

// PublicEventHandler serves the anonymous read endpoints under /events.
// Every successful read is also recorded as a hit against the stats
// service so that view counts keep moving.
type PublicEventHandler struct {
	Events *service.EventService // event lifecycle operations
}

// NewPublicEventHandler constructs a PublicEventHandler.
func NewPublicEventHandler(events *service.EventService) *PublicEventHandler {
	if events == nil {
		panic("nil service passed to NewPublicEventHandler")
	}
	return &PublicEventHandler{Events: events}
}

// ListEvents handles GET /events.  Only published events are visible;
// the filter parameters are all optional.
func (h *PublicEventHandler) ListEvents(c echo.Context) error {
	sortBy, err := service.ParseSort(c.QueryParam("sort"))
	if err != nil {
		return respondServiceError(c, err)
	}
	rangeStart, err := parseTimeParam(c, "rangeStart")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	rangeEnd, err := parseTimeParam(c, "rangeEnd")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	categories, err := parseIDValues(c.QueryParams()["categories"])
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid categories filter"})
	}
	var paid *bool
	if raw := c.QueryParam("paid"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid paid filter"})
		}
		paid = &v
	}
	onlyAvailable := false
	if raw := c.QueryParam("onlyAvailable"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid onlyAvailable filter"})
		}
		onlyAvailable = v
	}
	from, size := parsePage(c)

	events, err := h.Events.GetPublicEvents(c.Request().Context(), service.PublicFilter{
		Text:          c.QueryParam("text"),
		Categories:    categories,
		Paid:          paid,
		RangeStart:    rangeStart,
		RangeEnd:      rangeEnd,
		OnlyAvailable: onlyAvailable,
		Sort:          sortBy,
		From:          from,
		Size:          size,
	}, c.RealIP())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toEventJSONList(events)})
}

// GetEvent handles GET /events/:id.  An event that exists but is not
// published is reported as not found so that moderation state never
// leaks to anonymous readers.
func (h *PublicEventHandler) GetEvent(c echo.Context) error {
	eventID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	e, err := h.Events.GetPublic(c.Request().Context(), eventID, c.RealIP())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toEventJSON(e))
}
