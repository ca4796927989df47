package queue

import (
	"context"
	"time"

	"github.com/iliyamo/event-listing-platform/internal/model"
)

// Notifier adapts the queue publisher to the service layer's
// fire-and-forget notification contract.  Publish errors are already
// logged by the publisher and deliberately dropped here: notices must
// never fail the operation that produced them.
type Notifier struct{}

// EventPublished announces a freshly published event.
func (Notifier) EventPublished(ctx context.Context, e model.Event) {
	n := EventPublishedNotice{
		EventID:     e.ID,
		Title:       e.Title,
		InitiatorID: e.InitiatorID,
		EventDate:   e.EventDate.UTC().Format(model.TimeLayout),
	}
	if e.PublishedOn != nil {
		n.PublishedAt = e.PublishedOn.UTC().Format(model.TimeLayout)
	}
	_ = PublishEventPublished(ctx, n)
}

// RequestsDecided announces the outcome of a batch decision.
func (Notifier) RequestsDecided(ctx context.Context, eventID, ownerID uint64, confirmed, rejected []uint64) {
	_ = PublishRequestsDecided(ctx, RequestsDecidedNotice{
		EventID:   eventID,
		OwnerID:   ownerID,
		Confirmed: confirmed,
		Rejected:  rejected,
		DecidedAt: time.Now().UTC().Format(model.TimeLayout),
	})
}
