package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/event-listing-platform/internal/model"
	"github.com/iliyamo/event-listing-platform/internal/repository"
)

// DecisionResult partitions the requests touched by Decide.  The
// rejected list also contains PENDING requests outside the submitted
// batch that were cascade-rejected when the event filled up.
type DecisionResult struct {
	Confirmed []model.ParticipationRequest
	Rejected  []model.ParticipationRequest
}

// AdmissionService owns the participation request lifecycle and the
// capacity accounting that goes with it.  All admissions for one event
// are serialized through a per-event mutex so that the count-compare-
// write sequence can never interleave and oversell the limit.
type AdmissionService struct {
	requests RequestStore
	events   EventStore
	users    UserStore
	notifier Notifier
	locks    *eventLocks
	now      func() time.Time
}

// NewAdmissionService constructs an AdmissionService.  notifier may be
// nil when no message broker is configured.
func NewAdmissionService(requests RequestStore, events EventStore, users UserStore, notifier Notifier) *AdmissionService {
	if requests == nil || events == nil || users == nil {
		panic("nil dependency passed to NewAdmissionService")
	}
	return &AdmissionService{
		requests: requests,
		events:   events,
		users:    users,
		notifier: notifier,
		locks:    newEventLocks(),
		now:      time.Now,
	}
}

// Register files a participation request for the given user and event.
// The event must be published, the requester must not be its initiator,
// must not already hold a live request for it, and the confirmed count
// must still be below the limit.  The request starts PENDING and is
// immediately confirmed when the event does not moderate requests or
// has no limit.
func (s *AdmissionService) Register(ctx context.Context, requesterID, eventID uint64) (model.ParticipationRequest, error) {
	ok, err := s.users.Exists(ctx, requesterID)
	if err != nil {
		return model.ParticipationRequest{}, err
	}
	if !ok {
		return model.ParticipationRequest{}, fmt.Errorf("%w: user with id=%d", ErrNotFound, requesterID)
	}

	lock := s.locks.get(eventID)
	lock.Lock()
	defer lock.Unlock()

	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ParticipationRequest{}, fmt.Errorf("%w: event with id=%d", ErrNotFound, eventID)
		}
		return model.ParticipationRequest{}, err
	}
	if e.InitiatorID == requesterID {
		return model.ParticipationRequest{}, fmt.Errorf("%w: initiator cannot request participation in own event", ErrConflict)
	}
	if e.State != model.StatePublished {
		return model.ParticipationRequest{}, fmt.Errorf("%w: cannot participate in an unpublished event", ErrConflict)
	}
	exists, err := s.requests.ExistsLive(ctx, requesterID, eventID)
	if err != nil {
		return model.ParticipationRequest{}, err
	}
	if exists {
		return model.ParticipationRequest{}, fmt.Errorf("%w: request already exists", ErrConflict)
	}
	confirmed, err := s.requests.CountConfirmed(ctx, eventID)
	if err != nil {
		return model.ParticipationRequest{}, err
	}
	if !e.HasCapacity(confirmed) {
		return model.ParticipationRequest{}, fmt.Errorf("%w: participant limit reached", ErrConflict)
	}

	r := model.ParticipationRequest{
		RequesterID: requesterID,
		EventID:     eventID,
		Status:      model.StatusPending,
		Created:     s.now(),
	}
	if !e.RequestModeration || e.Unlimited() {
		r.Status = model.StatusConfirmed
	}
	return s.requests.Create(ctx, r)
}

// ListOwn returns all requests filed by the user, across events.
func (s *AdmissionService) ListOwn(ctx context.Context, requesterID uint64) ([]model.ParticipationRequest, error) {
	ok, err := s.users.Exists(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: user with id=%d", ErrNotFound, requesterID)
	}
	return s.requests.ListByRequester(ctx, requesterID)
}

// Cancel sets the caller's own request to CANCELED.  Canceling is
// always allowed, even for a confirmed request, which frees the slot
// it was holding.
func (s *AdmissionService) Cancel(ctx context.Context, requesterID, requestID uint64) (model.ParticipationRequest, error) {
	r, err := s.requests.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ParticipationRequest{}, fmt.Errorf("%w: request with id=%d", ErrNotFound, requestID)
		}
		return model.ParticipationRequest{}, err
	}
	if r.RequesterID != requesterID {
		return model.ParticipationRequest{}, fmt.Errorf("%w: only the requester may cancel the request", ErrForbidden)
	}
	return s.requests.UpdateStatus(ctx, requestID, model.StatusCanceled)
}

// ListForEvent returns every request targeting the given event, for its
// initiator.
func (s *AdmissionService) ListForEvent(ctx context.Context, ownerID, eventID uint64) ([]model.ParticipationRequest, error) {
	if _, err := s.ownedEvent(ctx, ownerID, eventID); err != nil {
		return nil, err
	}
	return s.requests.ListByEvent(ctx, eventID)
}

// Decide confirms or rejects a batch of PENDING requests on behalf of
// the event initiator.  Duplicate ids collapse to their first
// occurrence.  The precondition check is all-or-nothing: if any listed
// request belongs to another event or has left PENDING, the whole call
// fails before anything is mutated.
//
// Confirmation walks the requests in caller order against a running
// confirmed count seeded from the persisted count.  Once the limit is
// reached, the remaining requests of the batch are rejected, and every
// other still-PENDING request for the event is cascade-rejected: a full
// event is closed to all pending suitors, not just the submitted ones.
// All transitions are persisted as a single batch.
func (s *AdmissionService) Decide(ctx context.Context, ownerID, eventID uint64, requestIDs []uint64, decision model.RequestStatus) (DecisionResult, error) {
	if decision != model.StatusConfirmed && decision != model.StatusRejected {
		return DecisionResult{}, fmt.Errorf("%w: decision must be CONFIRMED or REJECTED", ErrValidation)
	}
	ok, err := s.users.Exists(ctx, ownerID)
	if err != nil {
		return DecisionResult{}, err
	}
	if !ok {
		return DecisionResult{}, fmt.Errorf("%w: user with id=%d", ErrNotFound, ownerID)
	}

	lock := s.locks.get(eventID)
	lock.Lock()
	defer lock.Unlock()

	e, err := s.ownedEvent(ctx, ownerID, eventID)
	if err != nil {
		return DecisionResult{}, err
	}

	// Deduplicate the batch so a request listed twice is decided once;
	// otherwise it would count twice against the limit.
	batch := make([]model.ParticipationRequest, 0, len(requestIDs))
	seen := make(map[uint64]struct{}, len(requestIDs))
	for _, id := range requestIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		r, err := s.requests.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return DecisionResult{}, fmt.Errorf("%w: request with id=%d", ErrNotFound, id)
			}
			return DecisionResult{}, err
		}
		if r.EventID != eventID {
			return DecisionResult{}, fmt.Errorf("%w: request %d does not belong to event %d", ErrConflict, id, eventID)
		}
		if r.Status != model.StatusPending {
			return DecisionResult{}, fmt.Errorf("%w: request %d must have status PENDING", ErrConflict, id)
		}
		batch = append(batch, r)
	}

	var result DecisionResult
	var updates []repository.StatusUpdate

	if decision == model.StatusRejected {
		for _, r := range batch {
			r.Status = model.StatusRejected
			result.Rejected = append(result.Rejected, r)
			updates = append(updates, repository.StatusUpdate{RequestID: r.ID, Status: model.StatusRejected})
		}
	} else {
		running, err := s.requests.CountConfirmed(ctx, eventID)
		if err != nil {
			return DecisionResult{}, err
		}
		for _, r := range batch {
			if e.HasCapacity(running) {
				r.Status = model.StatusConfirmed
				result.Confirmed = append(result.Confirmed, r)
				updates = append(updates, repository.StatusUpdate{RequestID: r.ID, Status: model.StatusConfirmed})
				running++
			} else {
				r.Status = model.StatusRejected
				result.Rejected = append(result.Rejected, r)
				updates = append(updates, repository.StatusUpdate{RequestID: r.ID, Status: model.StatusRejected})
			}
		}
		if !e.Unlimited() && running >= int64(e.ParticipantLimit) {
			decided := make(map[uint64]bool, len(batch))
			for _, r := range batch {
				decided[r.ID] = true
			}
			pending, err := s.requests.ListByEventAndStatus(ctx, eventID, model.StatusPending)
			if err != nil {
				return DecisionResult{}, err
			}
			for _, r := range pending {
				if decided[r.ID] {
					continue
				}
				r.Status = model.StatusRejected
				result.Rejected = append(result.Rejected, r)
				updates = append(updates, repository.StatusUpdate{RequestID: r.ID, Status: model.StatusRejected})
			}
		}
	}

	if err := s.requests.SaveStatuses(ctx, updates); err != nil {
		return DecisionResult{}, err
	}
	if s.notifier != nil {
		s.notifier.RequestsDecided(ctx, eventID, ownerID, requestIDList(result.Confirmed), requestIDList(result.Rejected))
	}
	return result, nil
}

// ownedEvent loads the event and verifies the caller is its initiator.
func (s *AdmissionService) ownedEvent(ctx context.Context, ownerID, eventID uint64) (model.Event, error) {
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Event{}, fmt.Errorf("%w: event with id=%d", ErrNotFound, eventID)
		}
		return model.Event{}, err
	}
	if e.InitiatorID != ownerID {
		return model.Event{}, fmt.Errorf("%w: only the event initiator may manage its requests", ErrForbidden)
	}
	return e, nil
}

func requestIDList(rs []model.ParticipationRequest) []uint64 {
	ids := make([]uint64, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, r.ID)
	}
	return ids
}
