package model

import (
	"fmt"
	"time"
)

// TimeLayout is the timestamp layout used on the wire for event dates,
// range filters and creation/publication times.
const TimeLayout = "2006-01-02 15:04:05"

// EventState enumerates the moderation lifecycle of an event.  A new
// event always starts in StatePending.  StatePublished and StateCanceled
// are terminal: a published event never returns to review and a canceled
// event can only be revived by its owner resubmitting it for review.
type EventState string

const (
	StatePending   EventState = "PENDING"
	StatePublished EventState = "PUBLISHED"
	StateCanceled  EventState = "CANCELED"
)

// ParseEventState converts a raw string into an EventState.  Unknown
// values are rejected so that filters built from query parameters never
// silently match nothing.
func ParseEventState(s string) (EventState, error) {
	switch EventState(s) {
	case StatePending, StatePublished, StateCanceled:
		return EventState(s), nil
	}
	return "", fmt.Errorf("unknown event state %q", s)
}

// StateAction is a moderation transition requested alongside an event
// update.  The set is closed: raw strings are converted through
// ParseUserStateAction or ParseAdminStateAction depending on who is
// performing the update, and anything outside the respective subset is
// an error rather than a silent no-op.
type StateAction string

const (
	ActionSendToReview StateAction = "SEND_TO_REVIEW" // owner resubmits for moderation
	ActionCancelReview StateAction = "CANCEL_REVIEW"  // owner withdraws from moderation
	ActionPublishEvent StateAction = "PUBLISH_EVENT"  // admin approves
	ActionRejectEvent  StateAction = "REJECT_EVENT"   // admin declines
)

// ParseUserStateAction accepts only the owner-side actions.
func ParseUserStateAction(s string) (StateAction, error) {
	switch StateAction(s) {
	case ActionSendToReview, ActionCancelReview:
		return StateAction(s), nil
	}
	return "", fmt.Errorf("unknown user state action %q", s)
}

// ParseAdminStateAction accepts only the moderator-side actions.
func ParseAdminStateAction(s string) (StateAction, error) {
	switch StateAction(s) {
	case ActionPublishEvent, ActionRejectEvent:
		return StateAction(s), nil
	}
	return "", fmt.Errorf("unknown admin state action %q", s)
}

// Location holds the geographic coordinates where an event takes place.
//
// Fields:
//  Lat – latitude in degrees.
//  Lon – longitude in degrees.
type Location struct {
	Lat float64 // events.lat
	Lon float64 // events.lon
}

// Event represents a published or pending listing created by an
// initiator.  ConfirmedRequests and Views are not stored: they are
// derived on read by the stats layer from the participation requests
// table and the hit counter service respectively.
//
// Fields:
//  ID                – primary key identifier.
//  Title             – short display title.
//  Annotation        – brief teaser text shown in listings.
//  Description       – full description shown on the event page.
//  CategoryID        – category the event belongs to.
//  InitiatorID       – user who created the event; immutable.
//  EventDate         – when the event takes place.
//  Location          – where the event takes place.
//  Paid              – whether attendance costs money.
//  ParticipantLimit  – maximum confirmed participants; 0 means unlimited.
//  RequestModeration – whether the initiator reviews each request.
//  State             – moderation state (PENDING, PUBLISHED, CANCELED).
//  CreatedOn         – creation timestamp.
//  PublishedOn       – publication timestamp (nil until published).
//  ConfirmedRequests – derived count of CONFIRMED requests.
//  Views             – derived hit count from the stats service.
type Event struct {
	ID                uint64     // events.id
	Title             string     // events.title
	Annotation        string     // events.annotation
	Description       string     // events.description
	CategoryID        uint64     // events.category_id
	InitiatorID       uint64     // events.initiator_id
	EventDate         time.Time  // events.event_date
	Location          Location   // events.lat / events.lon
	Paid              bool       // events.paid
	ParticipantLimit  int        // events.participant_limit
	RequestModeration bool       // events.request_moderation
	State             EventState // events.state
	CreatedOn         time.Time  // events.created_on
	PublishedOn       *time.Time // events.published_on (nullable)
	ConfirmedRequests int64      // derived, not stored
	Views             int64      // derived, not stored
}

// Unlimited reports whether the event has no participant cap.
func (e *Event) Unlimited() bool {
	return e.ParticipantLimit == 0
}

// HasCapacity reports whether at least one more participant can be
// confirmed given the supplied confirmed count.
func (e *Event) HasCapacity(confirmed int64) bool {
	return e.Unlimited() || confirmed < int64(e.ParticipantLimit)
}
