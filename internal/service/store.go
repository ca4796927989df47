package service

import (
	"context"

	"github.com/iliyamo/event-listing-platform/internal/model"
	"github.com/iliyamo/event-listing-platform/internal/repository"
)

// EventStore is the persistence contract for events.  The MySQL
// implementation lives in internal/repository; tests substitute
// in-memory fakes.  Get returns repository.ErrNotFound for missing
// rows, which the services translate into ErrNotFound.
type EventStore interface {
	Get(ctx context.Context, id uint64) (model.Event, error)
	Create(ctx context.Context, e model.Event) (model.Event, error)
	Update(ctx context.Context, e model.Event) (model.Event, error)
	ListByInitiator(ctx context.Context, initiatorID uint64, from, size int) ([]model.Event, error)
	ListPublished(ctx context.Context, from, size int) ([]model.Event, error)
	Search(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
}

// RequestStore is the persistence contract for participation requests.
type RequestStore interface {
	Get(ctx context.Context, id uint64) (model.ParticipationRequest, error)
	Create(ctx context.Context, r model.ParticipationRequest) (model.ParticipationRequest, error)
	UpdateStatus(ctx context.Context, id uint64, status model.RequestStatus) (model.ParticipationRequest, error)
	ListByRequester(ctx context.Context, requesterID uint64) ([]model.ParticipationRequest, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.ParticipationRequest, error)
	ListByEventAndStatus(ctx context.Context, eventID uint64, status model.RequestStatus) ([]model.ParticipationRequest, error)

	// ExistsLive reports whether the requester already holds a
	// non-canceled request for the event.
	ExistsLive(ctx context.Context, requesterID, eventID uint64) (bool, error)

	// CountConfirmed returns the number of CONFIRMED requests for one event.
	CountConfirmed(ctx context.Context, eventID uint64) (int64, error)

	// CountConfirmedByEvent groups confirmed counts for a set of events.
	// Events without confirmed requests are simply absent from the map.
	CountConfirmedByEvent(ctx context.Context, eventIDs []uint64) (map[uint64]int64, error)

	// SaveStatuses applies all updates atomically, in one transaction.
	SaveStatuses(ctx context.Context, updates []repository.StatusUpdate) error
}

// UserStore resolves users managed by the user service.
type UserStore interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// CategoryStore resolves categories managed by the category service.
type CategoryStore interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}
