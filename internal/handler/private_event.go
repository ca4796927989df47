package handler

import (
	"net/http"
	"time"

	"github.com/iliyamo/event-listing-platform/internal/model"
	"github.com/iliyamo/event-listing-platform/internal/service"
	"github.com/labstack/echo/v4"
)

// PrivateEventHandler serves the initiator-facing event endpoints under
// /users/:userId/events.  The user id comes from the path: callers are
// trusted to present their own id, authentication is handled outside
// this service.
type PrivateEventHandler struct {
	Events *service.EventService // event lifecycle operations
}

// NewPrivateEventHandler constructs a PrivateEventHandler.
func NewPrivateEventHandler(events *service.EventService) *PrivateEventHandler {
	if events == nil {
		panic("nil service passed to NewPrivateEventHandler")
	}
	return &PrivateEventHandler{Events: events}
}

// newEventBody is the request body for event creation.
type newEventBody struct {
	Title             string       `json:"title"`
	Annotation        string       `json:"annotation"`
	Description       string       `json:"description"`
	CategoryID        uint64       `json:"category_id"`
	EventDate         string       `json:"event_date"`
	Location          locationJSON `json:"location"`
	Paid              bool         `json:"paid"`
	ParticipantLimit  int          `json:"participant_limit"`
	RequestModeration *bool        `json:"request_moderation"`
}

// patchEventBody is the request body for event updates.  Every field is
// optional; absent fields leave the event untouched.
type patchEventBody struct {
	Title             *string       `json:"title"`
	Annotation        *string       `json:"annotation"`
	Description       *string       `json:"description"`
	CategoryID        *uint64       `json:"category_id"`
	EventDate         *string       `json:"event_date"`
	Location          *locationJSON `json:"location"`
	Paid              *bool         `json:"paid"`
	ParticipantLimit  *int          `json:"participant_limit"`
	RequestModeration *bool         `json:"request_moderation"`
	StateAction       *string       `json:"state_action"`
}

// toPatch converts the body into a service patch, parsing the event
// date and the state action through the supplied action parser so that
// the owner and admin endpoints each accept only their own action set.
func (b *patchEventBody) toPatch(parseAction func(string) (model.StateAction, error)) (service.EventPatch, error) {
	patch := service.EventPatch{
		Title:             b.Title,
		Annotation:        b.Annotation,
		Description:       b.Description,
		CategoryID:        b.CategoryID,
		Paid:              b.Paid,
		ParticipantLimit:  b.ParticipantLimit,
		RequestModeration: b.RequestModeration,
	}
	if b.EventDate != nil {
		t, err := time.Parse(model.TimeLayout, *b.EventDate)
		if err != nil {
			return service.EventPatch{}, err
		}
		patch.EventDate = &t
	}
	if b.Location != nil {
		patch.Location = &model.Location{Lat: b.Location.Lat, Lon: b.Location.Lon}
	}
	if b.StateAction != nil {
		action, err := parseAction(*b.StateAction)
		if err != nil {
			return service.EventPatch{}, err
		}
		patch.StateAction = &action
	}
	return patch, nil
}

// CreateEvent handles POST /users/:userId/events.  The event starts in
// PENDING regardless of the body; moderation is requested by default
// when request_moderation is absent.
func (h *PrivateEventHandler) CreateEvent(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body newEventBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	eventDate, err := time.Parse(model.TimeLayout, body.EventDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_date: expected " + model.TimeLayout})
	}
	moderation := true
	if body.RequestModeration != nil {
		moderation = *body.RequestModeration
	}
	e, err := h.Events.Create(c.Request().Context(), userID, service.NewEvent{
		Title:             body.Title,
		Annotation:        body.Annotation,
		Description:       body.Description,
		CategoryID:        body.CategoryID,
		EventDate:         eventDate,
		Location:          model.Location{Lat: body.Location.Lat, Lon: body.Location.Lon},
		Paid:              body.Paid,
		ParticipantLimit:  body.ParticipantLimit,
		RequestModeration: moderation,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toEventJSON(e))
}

// ListOwnEvents handles GET /users/:userId/events with from/size
// pagination.
func (h *PrivateEventHandler) ListOwnEvents(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	from, size := parsePage(c)
	events, err := h.Events.GetUserEvents(c.Request().Context(), userID, from, size)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toEventJSONList(events)})
}

// GetOwnEvent handles GET /users/:userId/events/:eventId.  An event
// owned by another user is reported as not found.
func (h *PrivateEventHandler) GetOwnEvent(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	eventID, err := parseID(c, "eventId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	e, err := h.Events.GetUserEvent(c.Request().Context(), userID, eventID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toEventJSON(e))
}

// UpdateOwnEvent handles PATCH /users/:userId/events/:eventId.  Only
// SEND_TO_REVIEW and CANCEL_REVIEW are accepted as state actions here;
// anything else is rejected outright.
func (h *PrivateEventHandler) UpdateOwnEvent(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	eventID, err := parseID(c, "eventId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body patchEventBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	patch, err := body.toPatch(model.ParseUserStateAction)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	e, err := h.Events.UpdateByUser(c.Request().Context(), userID, eventID, patch)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toEventJSON(e))
}
