package handler

import (
	"github.com/iliyamo/event-listing-platform/internal/model"
)

// locationJSON is the wire form of an event location.
type locationJSON struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// eventJSON is the wire form of an event.  Timestamps are rendered in
// the shared layout; published_on is omitted until the event has been
// published.
type eventJSON struct {
	ID                uint64       `json:"id"`
	Title             string       `json:"title"`
	Annotation        string       `json:"annotation"`
	Description       string       `json:"description"`
	CategoryID        uint64       `json:"category_id"`
	InitiatorID       uint64       `json:"initiator_id"`
	EventDate         string       `json:"event_date"`
	Location          locationJSON `json:"location"`
	Paid              bool         `json:"paid"`
	ParticipantLimit  int          `json:"participant_limit"`
	RequestModeration bool         `json:"request_moderation"`
	State             string       `json:"state"`
	CreatedOn         string       `json:"created_on"`
	PublishedOn       *string      `json:"published_on,omitempty"`
	ConfirmedRequests int64        `json:"confirmed_requests"`
	Views             int64        `json:"views"`
}

// requestJSON is the wire form of a participation request.
type requestJSON struct {
	ID          uint64 `json:"id"`
	RequesterID uint64 `json:"requester_id"`
	EventID     uint64 `json:"event_id"`
	Status      string `json:"status"`
	Created     string `json:"created"`
}

func toEventJSON(e model.Event) eventJSON {
	out := eventJSON{
		ID:                e.ID,
		Title:             e.Title,
		Annotation:        e.Annotation,
		Description:       e.Description,
		CategoryID:        e.CategoryID,
		InitiatorID:       e.InitiatorID,
		EventDate:         e.EventDate.Format(model.TimeLayout),
		Location:          locationJSON{Lat: e.Location.Lat, Lon: e.Location.Lon},
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		RequestModeration: e.RequestModeration,
		State:             string(e.State),
		CreatedOn:         e.CreatedOn.Format(model.TimeLayout),
		ConfirmedRequests: e.ConfirmedRequests,
		Views:             e.Views,
	}
	if e.PublishedOn != nil {
		p := e.PublishedOn.Format(model.TimeLayout)
		out.PublishedOn = &p
	}
	return out
}

func toEventJSONList(events []model.Event) []eventJSON {
	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, toEventJSON(e))
	}
	return out
}

func toRequestJSON(r model.ParticipationRequest) requestJSON {
	return requestJSON{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		EventID:     r.EventID,
		Status:      string(r.Status),
		Created:     r.Created.Format(model.TimeLayout),
	}
}

func toRequestJSONList(rs []model.ParticipationRequest) []requestJSON {
	out := make([]requestJSON, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRequestJSON(r))
	}
	return out
}
