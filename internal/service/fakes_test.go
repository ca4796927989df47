package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/event-listing-platform/internal/model"
	"github.com/iliyamo/event-listing-platform/internal/repository"
	"github.com/iliyamo/event-listing-platform/internal/stats"
)

// fakeEventStore is an in-memory EventStore keyed by event id.
type fakeEventStore struct {
	mu     sync.Mutex
	nextID uint64
	events map[uint64]model.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{nextID: 1, events: map[uint64]model.Event{}}
}

func (f *fakeEventStore) put(e model.Event) model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == 0 {
		e.ID = f.nextID
		f.nextID++
	} else if e.ID >= f.nextID {
		f.nextID = e.ID + 1
	}
	f.events[e.ID] = e
	return e
}

func (f *fakeEventStore) Get(_ context.Context, id uint64) (model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return model.Event{}, repository.ErrNotFound
	}
	return e, nil
}

func (f *fakeEventStore) Create(_ context.Context, e model.Event) (model.Event, error) {
	return f.put(e), nil
}

func (f *fakeEventStore) Update(_ context.Context, e model.Event) (model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[e.ID]; !ok {
		return model.Event{}, repository.ErrNotFound
	}
	f.events[e.ID] = e
	return e, nil
}

func (f *fakeEventStore) ListByInitiator(_ context.Context, initiatorID uint64, from, size int) ([]model.Event, error) {
	return page(f.all(func(e model.Event) bool { return e.InitiatorID == initiatorID }), from, size), nil
}

func (f *fakeEventStore) ListPublished(_ context.Context, from, size int) ([]model.Event, error) {
	return page(f.all(func(e model.Event) bool { return e.State == model.StatePublished }), from, size), nil
}

func (f *fakeEventStore) Search(_ context.Context, q repository.EventFilter) ([]model.Event, error) {
	users := toSet(q.Users)
	categories := toSet(q.Categories)
	states := map[model.EventState]bool{}
	for _, s := range q.States {
		states[s] = true
	}
	match := f.all(func(e model.Event) bool {
		if len(users) > 0 && !users[e.InitiatorID] {
			return false
		}
		if len(states) > 0 && !states[e.State] {
			return false
		}
		if len(categories) > 0 && !categories[e.CategoryID] {
			return false
		}
		if q.RangeStart != nil && e.EventDate.Before(*q.RangeStart) {
			return false
		}
		if q.RangeEnd != nil && e.EventDate.After(*q.RangeEnd) {
			return false
		}
		return true
	})
	return page(match, q.From, q.Size), nil
}

func (f *fakeEventStore) all(keep func(model.Event) bool) []model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Event
	for _, e := range f.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeRequestStore is an in-memory RequestStore keyed by request id.
type fakeRequestStore struct {
	mu       sync.Mutex
	nextID   uint64
	requests map[uint64]model.ParticipationRequest
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{nextID: 1, requests: map[uint64]model.ParticipationRequest{}}
}

func (f *fakeRequestStore) put(r model.ParticipationRequest) model.ParticipationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == 0 {
		r.ID = f.nextID
		f.nextID++
	} else if r.ID >= f.nextID {
		f.nextID = r.ID + 1
	}
	f.requests[r.ID] = r
	return r
}

func (f *fakeRequestStore) Get(_ context.Context, id uint64) (model.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return model.ParticipationRequest{}, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeRequestStore) Create(_ context.Context, r model.ParticipationRequest) (model.ParticipationRequest, error) {
	return f.put(r), nil
}

func (f *fakeRequestStore) UpdateStatus(_ context.Context, id uint64, status model.RequestStatus) (model.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return model.ParticipationRequest{}, repository.ErrNotFound
	}
	r.Status = status
	f.requests[id] = r
	return r, nil
}

func (f *fakeRequestStore) ListByRequester(_ context.Context, requesterID uint64) ([]model.ParticipationRequest, error) {
	return f.list(func(r model.ParticipationRequest) bool { return r.RequesterID == requesterID }), nil
}

func (f *fakeRequestStore) ListByEvent(_ context.Context, eventID uint64) ([]model.ParticipationRequest, error) {
	return f.list(func(r model.ParticipationRequest) bool { return r.EventID == eventID }), nil
}

func (f *fakeRequestStore) ListByEventAndStatus(_ context.Context, eventID uint64, status model.RequestStatus) ([]model.ParticipationRequest, error) {
	return f.list(func(r model.ParticipationRequest) bool {
		return r.EventID == eventID && r.Status == status
	}), nil
}

func (f *fakeRequestStore) ExistsLive(_ context.Context, requesterID, eventID uint64) (bool, error) {
	live := f.list(func(r model.ParticipationRequest) bool {
		return r.RequesterID == requesterID && r.EventID == eventID && r.Status != model.StatusCanceled
	})
	return len(live) > 0, nil
}

func (f *fakeRequestStore) CountConfirmed(_ context.Context, eventID uint64) (int64, error) {
	confirmed := f.list(func(r model.ParticipationRequest) bool {
		return r.EventID == eventID && r.Status == model.StatusConfirmed
	})
	return int64(len(confirmed)), nil
}

func (f *fakeRequestStore) CountConfirmedByEvent(_ context.Context, eventIDs []uint64) (map[uint64]int64, error) {
	ids := toSet(eventIDs)
	out := map[uint64]int64{}
	for _, r := range f.list(func(r model.ParticipationRequest) bool {
		return ids[r.EventID] && r.Status == model.StatusConfirmed
	}) {
		out[r.EventID]++
	}
	return out, nil
}

func (f *fakeRequestStore) SaveStatuses(_ context.Context, updates []repository.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range updates {
		r, ok := f.requests[u.RequestID]
		if !ok {
			return repository.ErrNotFound
		}
		r.Status = u.Status
		f.requests[u.RequestID] = r
	}
	return nil
}

func (f *fakeRequestStore) list(keep func(model.ParticipationRequest) bool) []model.ParticipationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ParticipationRequest
	for _, r := range f.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeIDStore backs both UserStore and CategoryStore.
type fakeIDStore struct {
	ids map[uint64]bool
}

func newFakeIDStore(ids ...uint64) *fakeIDStore {
	f := &fakeIDStore{ids: map[uint64]bool{}}
	for _, id := range ids {
		f.ids[id] = true
	}
	return f
}

func (f *fakeIDStore) Exists(_ context.Context, id uint64) (bool, error) {
	return f.ids[id], nil
}

// fakeHitClient records hits in memory and serves canned view stats.
type fakeHitClient struct {
	mu    sync.Mutex
	hits  []string
	rows  []stats.ViewStats
	fail  bool
	calls int
}

func (f *fakeHitClient) RecordHit(_ context.Context, uri, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits = append(f.hits, uri)
}

func (f *fakeHitClient) QueryHits(_ context.Context, _, _ time.Time, _ []string, _ bool) ([]stats.ViewStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, context.DeadlineExceeded
	}
	return f.rows, nil
}

func (f *fakeHitClient) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hits...)
}

// fakeNotifier captures notifications for assertions.
type fakeNotifier struct {
	mu        sync.Mutex
	published []uint64
	decided   [][2]int // len(confirmed), len(rejected) per call
}

func (f *fakeNotifier) EventPublished(_ context.Context, e model.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, e.ID)
}

func (f *fakeNotifier) RequestsDecided(_ context.Context, _, _ uint64, confirmed, rejected []uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decided = append(f.decided, [2]int{len(confirmed), len(rejected)})
}

func toSet(ids []uint64) map[uint64]bool {
	out := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func page(events []model.Event, from, size int) []model.Event {
	if from >= len(events) {
		return nil
	}
	end := from + size
	if end > len(events) {
		end = len(events)
	}
	return events[from:end]
}
