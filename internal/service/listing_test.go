package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/event-listing-platform/internal/model"
	"github.com/iliyamo/event-listing-platform/internal/stats"
)

func TestParseSort(t *testing.T) {
	for raw, want := range map[string]Sort{
		"":           SortNone,
		"EVENT_DATE": SortEventDate,
		"VIEWS":      SortViews,
	} {
		got, err := ParseSort(raw)
		if err != nil || got != want {
			t.Fatalf("ParseSort(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParseSort("POPULARITY"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown sort err = %v, want ErrValidation", err)
	}
}

// seedListing publishes three events owned by user 1: a paid concert in
// category 10 with a limit of 1 (already full), a free workshop in
// category 11, and a free lecture in category 10.
func seedListing(t *testing.T) (*lifecycleFixture, [3]model.Event) {
	t.Helper()
	f := newLifecycleFixture(t)
	published := testNow.Add(-time.Hour)
	mk := func(title, annotation string, category uint64, paid bool, limit int, date time.Time) model.Event {
		return f.events.put(model.Event{
			Title:            title,
			Annotation:       annotation,
			Description:      "A long enough description of the happening.",
			CategoryID:       category,
			InitiatorID:      1,
			EventDate:        date,
			Paid:             paid,
			ParticipantLimit: limit,
			State:            model.StatePublished,
			CreatedOn:        testNow.Add(-2 * time.Hour),
			PublishedOn:      &published,
		})
	}
	concert := mk("Evening concert", "Live improvised jazz downtown.", 10, true, 1, testNow.Add(72*time.Hour))
	workshop := mk("Pottery workshop", "Wheel throwing for beginners.", 11, false, 5, testNow.Add(24*time.Hour))
	lecture := mk("History lecture", "The city in the nineteenth century.", 10, false, 0, testNow.Add(48*time.Hour))

	f.requests.put(model.ParticipationRequest{RequesterID: 2, EventID: concert.ID, Status: model.StatusConfirmed})
	return f, [3]model.Event{concert, workshop, lecture}
}

func TestGetPublicEventsFilters(t *testing.T) {
	ctx := context.Background()
	paid := false

	cases := []struct {
		name   string
		filter PublicFilter
		want   []string
	}{
		{"all", PublicFilter{Size: 10}, []string{"Evening concert", "Pottery workshop", "History lecture"}},
		{"text", PublicFilter{Text: "JAZZ", Size: 10}, []string{"Evening concert"}},
		{"category", PublicFilter{Categories: []uint64{11}, Size: 10}, []string{"Pottery workshop"}},
		{"free only", PublicFilter{Paid: &paid, Size: 10}, []string{"Pottery workshop", "History lecture"}},
		{"only available", PublicFilter{OnlyAvailable: true, Size: 10}, []string{"Pottery workshop", "History lecture"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, _ := seedListing(t)
			events, err := f.svc.GetPublicEvents(ctx, tc.filter, "10.0.0.1")
			if err != nil {
				t.Fatalf("GetPublicEvents: %v", err)
			}
			var titles []string
			for _, e := range events {
				titles = append(titles, e.Title)
			}
			if len(titles) != len(tc.want) {
				t.Fatalf("titles = %v, want %v", titles, tc.want)
			}
			for i := range tc.want {
				if titles[i] != tc.want[i] {
					t.Fatalf("titles = %v, want %v", titles, tc.want)
				}
			}
		})
	}
}

func TestGetPublicEventsRange(t *testing.T) {
	f, _ := seedListing(t)
	start := testNow.Add(40 * time.Hour)
	end := testNow.Add(80 * time.Hour)

	events, err := f.svc.GetPublicEvents(context.Background(), PublicFilter{
		RangeStart: &start, RangeEnd: &end, Size: 10,
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("GetPublicEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2 (workshop at 24h excluded)", len(events))
	}

	if _, err := f.svc.GetPublicEvents(context.Background(), PublicFilter{
		RangeStart: &end, RangeEnd: &start, Size: 10,
	}, "10.0.0.1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("inverted range err = %v, want ErrValidation", err)
	}
}

func TestGetPublicEventsSortByEventDate(t *testing.T) {
	f, _ := seedListing(t)
	events, err := f.svc.GetPublicEvents(context.Background(), PublicFilter{Sort: SortEventDate, Size: 10}, "10.0.0.1")
	if err != nil {
		t.Fatalf("GetPublicEvents: %v", err)
	}
	for i := 1; i < len(events); i++ {
		if events[i].EventDate.Before(events[i-1].EventDate) {
			t.Fatalf("events not ordered by date: %v before %v", events[i].EventDate, events[i-1].EventDate)
		}
	}
}

func TestGetPublicEventsSortByViews(t *testing.T) {
	f, seeded := seedListing(t)
	f.hits.rows = []stats.ViewStats{
		{URI: "/events/2", Hits: 50},
		{URI: "/events/1", Hits: 10},
		{URI: "/events/3", Hits: 30},
	}
	events, err := f.svc.GetPublicEvents(context.Background(), PublicFilter{Sort: SortViews, Size: 10}, "10.0.0.1")
	if err != nil {
		t.Fatalf("GetPublicEvents: %v", err)
	}
	if len(events) != 3 || events[0].ID != seeded[1].ID {
		t.Fatalf("first = event %d with %d views, want event %d on top", events[0].ID, events[0].Views, seeded[1].ID)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Views > events[i-1].Views {
			t.Fatalf("events not ordered by views descending")
		}
	}
}

func TestGetPublicEventsRecordsHits(t *testing.T) {
	f, _ := seedListing(t)
	_, err := f.svc.GetPublicEvents(context.Background(), PublicFilter{Categories: []uint64{11}, Size: 10}, "10.0.0.1")
	if err != nil {
		t.Fatalf("GetPublicEvents: %v", err)
	}
	hits := f.hits.recorded()
	// One hit for the surviving workshop, one for the listing itself;
	// filtered-out events are not counted as viewed.
	if len(hits) != 2 || hits[0] != "/events/2" || hits[1] != "/events" {
		t.Fatalf("hits = %v, want [/events/2 /events]", hits)
	}
}

func TestGetPublicEventsHidesUnpublished(t *testing.T) {
	f, _ := seedListing(t)
	f.events.put(model.Event{
		Title:       "Draft gathering",
		InitiatorID: 1,
		State:       model.StatePending,
		EventDate:   testNow.Add(24 * time.Hour),
	})
	events, err := f.svc.GetPublicEvents(context.Background(), PublicFilter{Size: 10}, "10.0.0.1")
	if err != nil {
		t.Fatalf("GetPublicEvents: %v", err)
	}
	for _, e := range events {
		if e.State != model.StatePublished {
			t.Fatalf("unpublished event %d leaked into the listing", e.ID)
		}
	}
}
