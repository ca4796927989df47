package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/event-listing-platform/internal/model"
	"github.com/iliyamo/event-listing-platform/internal/repository"
)

// Lead times an event date must keep from "now" when set or changed.
// The admin bound is looser because publication is imminent at that
// point.
const (
	userDateLead  = 2 * time.Hour
	adminDateLead = 1 * time.Hour
)

// Text length bounds enforced on create and on patched fields.
const (
	titleMinLen       = 3
	titleMaxLen       = 120
	annotationMinLen  = 20
	annotationMaxLen  = 2000
	descriptionMinLen = 20
	descriptionMaxLen = 7000
)

// NewEvent carries the fields of an event being created.
type NewEvent struct {
	Title             string
	Annotation        string
	Description       string
	CategoryID        uint64
	EventDate         time.Time
	Location          model.Location
	Paid              bool
	ParticipantLimit  int
	RequestModeration bool
}

// EventPatch carries the optional fields of an event update.  Nil
// fields are left untouched.  StateAction, when present, must already
// be parsed through the closed user/admin action sets.
type EventPatch struct {
	Title             *string
	Annotation        *string
	Description       *string
	CategoryID        *uint64
	EventDate         *time.Time
	Location          *model.Location
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
	StateAction       *model.StateAction
}

// Notifier publishes fire-and-forget notices about moderation and
// admission outcomes.  Implementations must never fail the calling
// operation; errors are logged and swallowed downstream.
type Notifier interface {
	EventPublished(ctx context.Context, e model.Event)
	RequestsDecided(ctx context.Context, eventID, ownerID uint64, confirmed, rejected []uint64)
}

// EventService owns the event state machine: creation, owner edits and
// moderation decisions.  Every state transition is validated here before
// anything is persisted.
type EventService struct {
	events     EventStore
	users      UserStore
	categories CategoryStore
	stats      *StatsService
	notifier   Notifier
	now        func() time.Time
}

// NewEventService constructs an EventService.  notifier may be nil when
// no message broker is configured.
func NewEventService(events EventStore, users UserStore, categories CategoryStore, stats *StatsService, notifier Notifier) *EventService {
	if events == nil || users == nil || categories == nil || stats == nil {
		panic("nil dependency passed to NewEventService")
	}
	return &EventService{
		events:     events,
		users:      users,
		categories: categories,
		stats:      stats,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Create validates and stores a new event.  The event date must be at
// least two hours out, the participant limit non-negative, and both the
// initiator and the category must exist.  New events always start in
// PENDING regardless of input.
func (s *EventService) Create(ctx context.Context, initiatorID uint64, in NewEvent) (model.Event, error) {
	if err := s.checkUserExists(ctx, initiatorID); err != nil {
		return model.Event{}, err
	}
	if err := s.checkCategoryExists(ctx, in.CategoryID); err != nil {
		return model.Event{}, err
	}
	if err := validateEventDate(in.EventDate, userDateLead, s.now()); err != nil {
		return model.Event{}, err
	}
	if err := validateParticipantLimit(in.ParticipantLimit); err != nil {
		return model.Event{}, err
	}
	if err := validateTexts(in.Title, in.Annotation, in.Description); err != nil {
		return model.Event{}, err
	}

	e := model.Event{
		Title:             in.Title,
		Annotation:        in.Annotation,
		Description:       in.Description,
		CategoryID:        in.CategoryID,
		InitiatorID:       initiatorID,
		EventDate:         in.EventDate,
		Location:          in.Location,
		Paid:              in.Paid,
		ParticipantLimit:  in.ParticipantLimit,
		RequestModeration: in.RequestModeration,
		State:             model.StatePending,
		CreatedOn:         s.now(),
	}
	return s.events.Create(ctx, e)
}

// GetUserEvents returns a page of the user's own events enriched with
// confirmed-request and view counts.
func (s *EventService) GetUserEvents(ctx context.Context, userID uint64, from, size int) ([]model.Event, error) {
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}
	events, err := s.events.ListByInitiator(ctx, userID, from, size)
	if err != nil {
		return nil, err
	}
	if err := s.stats.Enrich(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetUserEvent returns one of the user's own events.  An event owned by
// someone else is reported as not found rather than forbidden so that
// enumeration does not reveal foreign event ids.
func (s *EventService) GetUserEvent(ctx context.Context, userID, eventID uint64) (model.Event, error) {
	e, err := s.getEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if e.InitiatorID != userID {
		return model.Event{}, fmt.Errorf("%w: event with id=%d", ErrNotFound, eventID)
	}
	if err := s.stats.EnrichOne(ctx, &e); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// UpdateByUser applies an owner's patch to their own event.  Published
// events cannot be edited; only PENDING and CANCELED ones.  The state
// actions SEND_TO_REVIEW and CANCEL_REVIEW move the event to PENDING
// and CANCELED respectively, which also lets an owner resubmit a
// previously canceled, never published event.
func (s *EventService) UpdateByUser(ctx context.Context, userID, eventID uint64, patch EventPatch) (model.Event, error) {
	e, err := s.getEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if e.InitiatorID != userID {
		return model.Event{}, fmt.Errorf("%w: only the initiator may edit event %d", ErrForbidden, eventID)
	}
	if e.State == model.StatePublished {
		return model.Event{}, fmt.Errorf("%w: only pending or canceled events can be changed", ErrConflict)
	}
	if err := s.applyFields(ctx, &e, patch, userDateLead); err != nil {
		return model.Event{}, err
	}
	if patch.StateAction != nil {
		switch *patch.StateAction {
		case model.ActionSendToReview:
			e.State = model.StatePending
		case model.ActionCancelReview:
			e.State = model.StateCanceled
		default:
			return model.Event{}, fmt.Errorf("%w: state action %q is not allowed for initiators", ErrValidation, *patch.StateAction)
		}
	}
	updated, err := s.events.Update(ctx, e)
	if err != nil {
		return model.Event{}, err
	}
	if err := s.stats.EnrichOne(ctx, &updated); err != nil {
		return model.Event{}, err
	}
	return updated, nil
}

// UpdateByAdmin applies a moderator's patch.  PUBLISH_EVENT requires the
// event to be PENDING and stamps PublishedOn; REJECT_EVENT is refused
// once the event is PUBLISHED.  The event date may be as close as one
// hour out on this path.
func (s *EventService) UpdateByAdmin(ctx context.Context, eventID uint64, patch EventPatch) (model.Event, error) {
	e, err := s.getEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if err := s.applyFields(ctx, &e, patch, adminDateLead); err != nil {
		return model.Event{}, err
	}
	published := false
	if patch.StateAction != nil {
		switch *patch.StateAction {
		case model.ActionPublishEvent:
			if e.State != model.StatePending {
				return model.Event{}, fmt.Errorf("%w: only pending events can be published, current state is %s", ErrConflict, e.State)
			}
			e.State = model.StatePublished
			publishedOn := s.now()
			e.PublishedOn = &publishedOn
			published = true
		case model.ActionRejectEvent:
			if e.State == model.StatePublished {
				return model.Event{}, fmt.Errorf("%w: a published event cannot be rejected", ErrConflict)
			}
			e.State = model.StateCanceled
		default:
			return model.Event{}, fmt.Errorf("%w: state action %q is not allowed for admins", ErrValidation, *patch.StateAction)
		}
	}
	updated, err := s.events.Update(ctx, e)
	if err != nil {
		return model.Event{}, err
	}
	if published && s.notifier != nil {
		s.notifier.EventPublished(ctx, updated)
	}
	if err := s.stats.EnrichOne(ctx, &updated); err != nil {
		return model.Event{}, err
	}
	return updated, nil
}

// Search returns events matching the admin filter, enriched with stats.
func (s *EventService) Search(ctx context.Context, f repository.EventFilter) ([]model.Event, error) {
	if f.RangeStart != nil && f.RangeEnd != nil && f.RangeStart.After(*f.RangeEnd) {
		return nil, fmt.Errorf("%w: range start is after range end", ErrValidation)
	}
	events, err := s.events.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.stats.Enrich(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetPublic returns a published event for an anonymous reader and
// records a hit against it.  Unpublished events are reported as not
// found so that moderation state never leaks.
func (s *EventService) GetPublic(ctx context.Context, eventID uint64, clientIP string) (model.Event, error) {
	e, err := s.getEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if e.State != model.StatePublished {
		return model.Event{}, fmt.Errorf("%w: event with id=%d", ErrNotFound, eventID)
	}
	s.stats.RecordEventHit(ctx, eventID, clientIP)
	if err := s.stats.EnrichOne(ctx, &e); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// applyFields copies non-nil patch fields onto the event, validating
// each one.  The initiator is immutable and has no patch field at all.
func (s *EventService) applyFields(ctx context.Context, e *model.Event, patch EventPatch, dateLead time.Duration) error {
	if patch.EventDate != nil {
		if err := validateEventDate(*patch.EventDate, dateLead, s.now()); err != nil {
			return err
		}
		e.EventDate = *patch.EventDate
	}
	if patch.ParticipantLimit != nil {
		if err := validateParticipantLimit(*patch.ParticipantLimit); err != nil {
			return err
		}
		e.ParticipantLimit = *patch.ParticipantLimit
	}
	if patch.CategoryID != nil {
		if err := s.checkCategoryExists(ctx, *patch.CategoryID); err != nil {
			return err
		}
		e.CategoryID = *patch.CategoryID
	}
	if patch.Title != nil {
		if err := validateLen("title", *patch.Title, titleMinLen, titleMaxLen); err != nil {
			return err
		}
		e.Title = *patch.Title
	}
	if patch.Annotation != nil {
		if err := validateLen("annotation", *patch.Annotation, annotationMinLen, annotationMaxLen); err != nil {
			return err
		}
		e.Annotation = *patch.Annotation
	}
	if patch.Description != nil {
		if err := validateLen("description", *patch.Description, descriptionMinLen, descriptionMaxLen); err != nil {
			return err
		}
		e.Description = *patch.Description
	}
	if patch.Location != nil {
		e.Location = *patch.Location
	}
	if patch.Paid != nil {
		e.Paid = *patch.Paid
	}
	if patch.RequestModeration != nil {
		e.RequestModeration = *patch.RequestModeration
	}
	return nil
}

func (s *EventService) getEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Event{}, fmt.Errorf("%w: event with id=%d", ErrNotFound, eventID)
		}
		return model.Event{}, err
	}
	return e, nil
}

func (s *EventService) checkUserExists(ctx context.Context, userID uint64) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user with id=%d", ErrNotFound, userID)
	}
	return nil
}

func (s *EventService) checkCategoryExists(ctx context.Context, categoryID uint64) error {
	ok, err := s.categories.Exists(ctx, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: category with id=%d", ErrNotFound, categoryID)
	}
	return nil
}

func validateEventDate(date time.Time, lead time.Duration, now time.Time) error {
	if date.Before(now.Add(lead)) {
		return fmt.Errorf("%w: event date must be at least %s from now", ErrValidation, lead)
	}
	return nil
}

func validateParticipantLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: participant limit cannot be negative", ErrValidation)
	}
	return nil
}

func validateTexts(title, annotation, description string) error {
	if err := validateLen("title", title, titleMinLen, titleMaxLen); err != nil {
		return err
	}
	if err := validateLen("annotation", annotation, annotationMinLen, annotationMaxLen); err != nil {
		return err
	}
	return validateLen("description", description, descriptionMinLen, descriptionMaxLen)
}

func validateLen(field, value string, min, max int) error {
	n := len([]rune(value))
	if n < min || n > max {
		return fmt.Errorf("%w: %s must be between %d and %d characters", ErrValidation, field, min, max)
	}
	return nil
}
