package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/event-listing-platform/internal/model"
)

// Sort selects the ordering of a public listing.  The zero value keeps
// the storage order of the candidate page.
type Sort string

const (
	SortNone      Sort = ""
	SortEventDate Sort = "EVENT_DATE"
	SortViews     Sort = "VIEWS"
)

// ParseSort converts a raw sort parameter.  An empty string selects
// SortNone; anything else outside the known set is rejected.
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case SortNone, SortEventDate, SortViews:
		return Sort(s), nil
	}
	return "", fmt.Errorf("%w: unknown sort %q", ErrValidation, s)
}

// PublicFilter captures the public listing query.  Text matches
// annotation or description case-insensitively; OnlyAvailable keeps
// events that still have capacity left.
type PublicFilter struct {
	Text          string
	Categories    []uint64
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          Sort
	From          int
	Size          int
}

// GetPublicEvents runs the public listing pipeline: fetch a page of
// published events, compute confirmed counts first (the availability
// predicate needs them), filter in memory, record a hit for every
// surviving event and one for the listing endpoint itself, enrich with
// stats and finally sort.
func (s *EventService) GetPublicEvents(ctx context.Context, f PublicFilter, clientIP string) ([]model.Event, error) {
	if f.RangeStart != nil && f.RangeEnd != nil && f.RangeStart.After(*f.RangeEnd) {
		return nil, fmt.Errorf("%w: range start is after range end", ErrValidation)
	}
	events, err := s.events.ListPublished(ctx, f.From, f.Size)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	confirmed, err := s.stats.ConfirmedCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	events = filterPublic(events, f, confirmed)

	for _, e := range events {
		s.stats.RecordEventHit(ctx, e.ID, clientIP)
	}
	s.stats.RecordListingHit(ctx, clientIP)

	if err := s.stats.Enrich(ctx, events); err != nil {
		return nil, err
	}
	sortEvents(events, f.Sort)
	return events, nil
}

func filterPublic(events []model.Event, f PublicFilter, confirmed map[uint64]int64) []model.Event {
	text := strings.ToLower(strings.TrimSpace(f.Text))
	categories := make(map[uint64]bool, len(f.Categories))
	for _, id := range f.Categories {
		categories[id] = true
	}

	out := events[:0]
	for _, e := range events {
		if text != "" &&
			!strings.Contains(strings.ToLower(e.Annotation), text) &&
			!strings.Contains(strings.ToLower(e.Description), text) {
			continue
		}
		if len(categories) > 0 && !categories[e.CategoryID] {
			continue
		}
		if f.Paid != nil && e.Paid != *f.Paid {
			continue
		}
		if f.RangeStart != nil && e.EventDate.Before(*f.RangeStart) {
			continue
		}
		if f.RangeEnd != nil && e.EventDate.After(*f.RangeEnd) {
			continue
		}
		if f.OnlyAvailable && !e.HasCapacity(confirmed[e.ID]) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func sortEvents(events []model.Event, by Sort) {
	switch by {
	case SortViews:
		sort.SliceStable(events, func(i, j int) bool { return events[i].Views > events[j].Views })
	case SortEventDate:
		sort.SliceStable(events, func(i, j int) bool { return events[i].EventDate.Before(events[j].EventDate) })
	}
}
