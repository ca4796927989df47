package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/event-listing-platform/internal/model"
	"github.com/iliyamo/event-listing-platform/internal/stats"
)

const (
	// eventsPath is the URI prefix under which event hits are recorded
	// with the stats service.  A single event maps to /events/<id>.
	eventsPath = "/events"

	// statsRangeYears widens the query window to effectively all time.
	statsRangeYears = 100
)

// HitClient is the contract of the external hit counter.  RecordHit is
// fire-and-forget; QueryHits returns an empty slice on any failure so
// view counts degrade to zero instead of failing the caller.
type HitClient interface {
	RecordHit(ctx context.Context, uri, clientIP string)
	QueryHits(ctx context.Context, start, end time.Time, uris []string, unique bool) ([]stats.ViewStats, error)
}

// StatsService joins confirmed-request counts and view counts onto
// event records.  Confirmed counts come from the requests table and are
// authoritative; view counts come from the hit counter and are
// best-effort.
type StatsService struct {
	requests RequestStore
	hits     HitClient
	now      func() time.Time
}

// NewStatsService constructs a StatsService.
func NewStatsService(requests RequestStore, hits HitClient) *StatsService {
	if requests == nil || hits == nil {
		panic("nil dependency passed to NewStatsService")
	}
	return &StatsService{requests: requests, hits: hits, now: time.Now}
}

// ConfirmedCounts returns the confirmed-request count per event id.
// Ids without confirmed requests map to zero.
func (s *StatsService) ConfirmedCounts(ctx context.Context, eventIDs []uint64) (map[uint64]int64, error) {
	if len(eventIDs) == 0 {
		return map[uint64]int64{}, nil
	}
	counts, err := s.requests.CountConfirmedByEvent(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range eventIDs {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
	}
	return counts, nil
}

// ViewCounts queries the hit counter once for the whole batch and maps
// the returned URIs back to event ids.  Events missing from the
// response, unparseable URIs and outright counter failures all yield
// zero; view counts are never fatal.
func (s *StatsService) ViewCounts(ctx context.Context, events []model.Event) map[uint64]int64 {
	views := make(map[uint64]int64, len(events))
	if len(events) == 0 {
		return views
	}
	uris := make([]string, 0, len(events))
	for _, e := range events {
		views[e.ID] = 0
		uris = append(uris, eventURI(e.ID))
	}
	start := s.now().AddDate(-statsRangeYears, 0, 0)
	end := s.now().AddDate(statsRangeYears, 0, 0)
	rows, err := s.hits.QueryHits(ctx, start, end, uris, true)
	if err != nil {
		return views
	}
	for _, row := range rows {
		raw, ok := strings.CutPrefix(row.URI, eventsPath+"/")
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			continue
		}
		if _, listed := views[id]; listed {
			views[id] = row.Hits
		}
	}
	return views
}

// Enrich fills the derived ConfirmedRequests and Views fields of every
// event in place.  An empty slice is a no-op.
func (s *StatsService) Enrich(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	confirmed, err := s.ConfirmedCounts(ctx, ids)
	if err != nil {
		return err
	}
	views := s.ViewCounts(ctx, events)
	for i := range events {
		events[i].ConfirmedRequests = confirmed[events[i].ID]
		events[i].Views = views[events[i].ID]
	}
	return nil
}

// EnrichOne fills the derived fields of a single event.
func (s *StatsService) EnrichOne(ctx context.Context, e *model.Event) error {
	batch := []model.Event{*e}
	if err := s.Enrich(ctx, batch); err != nil {
		return err
	}
	e.ConfirmedRequests = batch[0].ConfirmedRequests
	e.Views = batch[0].Views
	return nil
}

// RecordEventHit registers one view of an event page.  Best-effort.
func (s *StatsService) RecordEventHit(ctx context.Context, eventID uint64, clientIP string) {
	s.hits.RecordHit(ctx, eventURI(eventID), clientIP)
}

// RecordListingHit registers one view of the public listing endpoint.
func (s *StatsService) RecordListingHit(ctx context.Context, clientIP string) {
	s.hits.RecordHit(ctx, eventsPath, clientIP)
}

func eventURI(eventID uint64) string {
	return eventsPath + "/" + strconv.FormatUint(eventID, 10)
}
