package handler

import (
	"net/http"
	"strconv"

	"github.com/iliyamo/event-listing-platform/internal/model"
	"github.com/iliyamo/event-listing-platform/internal/service"
	"github.com/labstack/echo/v4"
)

// RequestHandler serves the participation request endpoints: the
// requester side under /users/:userId/requests and the initiator side
// under /users/:userId/events/:eventId/requests.
type RequestHandler struct {
	Admission *service.AdmissionService // request lifecycle and capacity accounting
}

// NewRequestHandler constructs a RequestHandler.
func NewRequestHandler(admission *service.AdmissionService) *RequestHandler {
	if admission == nil {
		panic("nil service passed to NewRequestHandler")
	}
	return &RequestHandler{Admission: admission}
}

// Register handles POST /users/:userId/requests?eventId=.  The request
// starts PENDING and is immediately confirmed when the event does not
// moderate requests or has no participant limit.
func (h *RequestHandler) Register(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	eventID, err := strconv.ParseUint(c.QueryParam("eventId"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid eventId"})
	}
	r, err := h.Admission.Register(c.Request().Context(), userID, eventID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toRequestJSON(r))
}

// ListOwnRequests handles GET /users/:userId/requests and returns every
// request the user has filed, across all events.
func (h *RequestHandler) ListOwnRequests(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	requests, err := h.Admission.ListOwn(c.Request().Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toRequestJSONList(requests)})
}

// CancelRequest handles PATCH /users/:userId/requests/:requestId/cancel.
// Canceling is always allowed, even for a confirmed request.
func (h *RequestHandler) CancelRequest(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	requestID, err := parseID(c, "requestId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	r, err := h.Admission.Cancel(c.Request().Context(), userID, requestID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRequestJSON(r))
}

// ListEventRequests handles GET /users/:userId/events/:eventId/requests
// for the event initiator.
func (h *RequestHandler) ListEventRequests(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	eventID, err := parseID(c, "eventId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	requests, err := h.Admission.ListForEvent(c.Request().Context(), userID, eventID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toRequestJSONList(requests)})
}

// decideBody is the request body for the batch decision endpoint.
type decideBody struct {
	RequestIDs []uint64 `json:"request_ids"`
	Status     string   `json:"status"`
}

// DecideRequests handles PATCH /users/:userId/events/:eventId/requests.
// The whole batch must be PENDING and belong to the event, or nothing
// is changed.
func (h *RequestHandler) DecideRequests(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	eventID, err := parseID(c, "eventId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body decideBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.RequestIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "request_ids is required"})
	}
	decision, err := model.ParseDecision(body.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	result, err := h.Admission.Decide(c.Request().Context(), userID, eventID, body.RequestIDs, decision)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"confirmed_requests": toRequestJSONList(result.Confirmed),
		"rejected_requests":  toRequestJSONList(result.Rejected),
	})
}
