package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/event-listing-platform/internal/model"
)

type admissionFixture struct {
	events   *fakeEventStore
	requests *fakeRequestStore
	notifier *fakeNotifier
	svc      *AdmissionService
}

// newAdmissionFixture seeds users 1..20 (user 1 is the initiator) and
// one published event owned by user 1.
func newAdmissionFixture(t *testing.T, limit int, moderated bool) (*admissionFixture, model.Event) {
	t.Helper()
	ids := make([]uint64, 0, 20)
	for id := uint64(1); id <= 20; id++ {
		ids = append(ids, id)
	}
	f := &admissionFixture{
		events:   newFakeEventStore(),
		requests: newFakeRequestStore(),
		notifier: &fakeNotifier{},
	}
	f.svc = NewAdmissionService(f.requests, f.events, newFakeIDStore(ids...), f.notifier)
	f.svc.now = func() time.Time { return testNow }

	published := testNow.Add(-time.Hour)
	e := f.events.put(model.Event{
		Title:             "Pottery workshop",
		Annotation:        "Hands-on wheel throwing for beginners.",
		Description:       "Two hours at the wheel with all materials included.",
		CategoryID:        10,
		InitiatorID:       1,
		EventDate:         testNow.Add(48 * time.Hour),
		Paid:              false,
		ParticipantLimit:  limit,
		RequestModeration: moderated,
		State:             model.StatePublished,
		CreatedOn:         testNow.Add(-2 * time.Hour),
		PublishedOn:       &published,
	})
	return f, e
}

func TestRegisterModeratedStaysPending(t *testing.T) {
	f, e := newAdmissionFixture(t, 10, true)
	r, err := f.svc.Register(context.Background(), 2, e.ID)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if r.Status != model.StatusPending {
		t.Fatalf("status = %s, want PENDING", r.Status)
	}
}

func TestRegisterAutoConfirm(t *testing.T) {
	// Without moderation the request is confirmed on arrival; the same
	// happens for a moderated event with no limit.
	for _, tc := range []struct {
		name      string
		limit     int
		moderated bool
	}{
		{"unmoderated", 10, false},
		{"unlimited", 0, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f, e := newAdmissionFixture(t, tc.limit, tc.moderated)
			r, err := f.svc.Register(context.Background(), 2, e.ID)
			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if r.Status != model.StatusConfirmed {
				t.Fatalf("status = %s, want CONFIRMED", r.Status)
			}
		})
	}
}

func TestRegisterRejections(t *testing.T) {
	f, e := newAdmissionFixture(t, 1, true)
	ctx := context.Background()

	pending := f.events.put(model.Event{
		Title:       "Unreviewed meetup",
		InitiatorID: 1,
		State:       model.StatePending,
	})

	if _, err := f.svc.Register(ctx, 99, e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Register(ctx, 2, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown event err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Register(ctx, 1, e.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("initiator err = %v, want ErrConflict", err)
	}
	if _, err := f.svc.Register(ctx, 2, pending.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("unpublished err = %v, want ErrConflict", err)
	}

	if _, err := f.svc.Register(ctx, 2, e.ID); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := f.svc.Register(ctx, 2, e.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}
}

func TestRegisterAfterCancelAllowed(t *testing.T) {
	f, e := newAdmissionFixture(t, 10, true)
	ctx := context.Background()

	r, err := f.svc.Register(ctx, 2, e.ID)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, 2, r.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// The canceled request no longer blocks a fresh one.
	if _, err := f.svc.Register(ctx, 2, e.ID); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}

func TestRegisterFullEvent(t *testing.T) {
	f, e := newAdmissionFixture(t, 1, false)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, 2, e.ID); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := f.svc.Register(ctx, 3, e.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("full event err = %v, want ErrConflict", err)
	}
}

func TestRegisterNeverOversellsUnderConcurrency(t *testing.T) {
	f, e := newAdmissionFixture(t, 3, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	for id := uint64(2); id <= 12; id++ {
		wg.Add(1)
		go func(requester uint64) {
			defer wg.Done()
			_, _ = f.svc.Register(ctx, requester, e.ID)
		}(id)
	}
	wg.Wait()

	confirmed, err := f.requests.CountConfirmed(ctx, e.ID)
	if err != nil {
		t.Fatalf("CountConfirmed: %v", err)
	}
	if confirmed != 3 {
		t.Fatalf("confirmed = %d, want exactly 3", confirmed)
	}
}

func TestCancelOwnershipAndConfirmed(t *testing.T) {
	f, e := newAdmissionFixture(t, 10, false)
	ctx := context.Background()

	r, err := f.svc.Register(ctx, 2, e.ID)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, 3, r.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign cancel err = %v, want ErrForbidden", err)
	}
	// Canceling a confirmed request is allowed and frees the slot.
	got, err := f.svc.Cancel(ctx, 2, r.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != model.StatusCanceled {
		t.Fatalf("status = %s, want CANCELED", got.Status)
	}
	confirmed, _ := f.requests.CountConfirmed(ctx, e.ID)
	if confirmed != 0 {
		t.Fatalf("confirmed = %d, want 0 after cancel", confirmed)
	}
}

func TestListForEventRequiresOwner(t *testing.T) {
	f, e := newAdmissionFixture(t, 10, true)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, 2, e.ID); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := f.svc.ListForEvent(ctx, 3, e.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign list err = %v, want ErrForbidden", err)
	}
	rs, err := f.svc.ListForEvent(ctx, 1, e.ID)
	if err != nil {
		t.Fatalf("ListForEvent: %v", err)
	}
	if len(rs) != 1 {
		t.Fatalf("len = %d, want 1", len(rs))
	}
}

func TestDecideBatchIsAllOrNothing(t *testing.T) {
	f, e := newAdmissionFixture(t, 10, true)
	ctx := context.Background()

	a, _ := f.svc.Register(ctx, 2, e.ID)
	b, _ := f.svc.Register(ctx, 3, e.ID)
	if _, err := f.svc.Cancel(ctx, 3, b.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// b has left PENDING, so the whole batch must fail untouched.
	_, err := f.svc.Decide(ctx, 1, e.ID, []uint64{a.ID, b.ID}, model.StatusConfirmed)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	got, _ := f.requests.Get(ctx, a.ID)
	if got.Status != model.StatusPending {
		t.Fatalf("a.status = %s, want PENDING untouched", got.Status)
	}
}

func TestDecideRejectsForeignBatchMember(t *testing.T) {
	f, e := newAdmissionFixture(t, 10, true)
	ctx := context.Background()

	other := f.events.put(model.Event{
		Title:       "Other workshop",
		InitiatorID: 1,
		State:       model.StatePublished,
	})
	a, _ := f.svc.Register(ctx, 2, e.ID)
	foreign, _ := f.svc.Register(ctx, 3, other.ID)

	if _, err := f.svc.Decide(ctx, 1, e.ID, []uint64{a.ID, foreign.ID}, model.StatusConfirmed); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestDecideValidation(t *testing.T) {
	f, e := newAdmissionFixture(t, 10, true)
	ctx := context.Background()
	a, _ := f.svc.Register(ctx, 2, e.ID)

	if _, err := f.svc.Decide(ctx, 1, e.ID, []uint64{a.ID}, model.StatusPending); !errors.Is(err, ErrValidation) {
		t.Fatalf("PENDING decision err = %v, want ErrValidation", err)
	}
	if _, err := f.svc.Decide(ctx, 3, e.ID, []uint64{a.ID}, model.StatusConfirmed); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign owner err = %v, want ErrForbidden", err)
	}
}

func TestDecideRejectedBatch(t *testing.T) {
	f, e := newAdmissionFixture(t, 10, true)
	ctx := context.Background()
	a, _ := f.svc.Register(ctx, 2, e.ID)
	b, _ := f.svc.Register(ctx, 3, e.ID)

	result, err := f.svc.Decide(ctx, 1, e.ID, []uint64{a.ID, b.ID}, model.StatusRejected)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(result.Confirmed) != 0 || len(result.Rejected) != 2 {
		t.Fatalf("result = %d confirmed / %d rejected, want 0/2", len(result.Confirmed), len(result.Rejected))
	}
}

func TestDecideCascadeRejectsOnceFull(t *testing.T) {
	f, e := newAdmissionFixture(t, 2, true)
	ctx := context.Background()

	a, _ := f.svc.Register(ctx, 2, e.ID)
	b, _ := f.svc.Register(ctx, 3, e.ID)
	c, _ := f.svc.Register(ctx, 4, e.ID)
	d, _ := f.svc.Register(ctx, 5, e.ID) // outside the batch

	result, err := f.svc.Decide(ctx, 1, e.ID, []uint64{a.ID, b.ID, c.ID}, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(result.Confirmed) != 2 {
		t.Fatalf("confirmed = %d, want 2", len(result.Confirmed))
	}
	// c overflows the limit and d is cascade-rejected even though the
	// caller never mentioned it.
	if len(result.Rejected) != 2 {
		t.Fatalf("rejected = %d, want 2", len(result.Rejected))
	}
	rejected := map[uint64]bool{}
	for _, r := range result.Rejected {
		if r.Status != model.StatusRejected {
			t.Fatalf("rejected request %d has status %s", r.ID, r.Status)
		}
		rejected[r.ID] = true
	}
	if !rejected[c.ID] || !rejected[d.ID] {
		t.Fatalf("rejected ids = %v, want {%d, %d}", rejected, c.ID, d.ID)
	}

	got, _ := f.requests.Get(ctx, d.ID)
	if got.Status != model.StatusRejected {
		t.Fatalf("persisted d.status = %s, want REJECTED", got.Status)
	}
	if len(f.notifier.decided) != 1 || f.notifier.decided[0] != [2]int{2, 2} {
		t.Fatalf("decided notices = %v, want [[2 2]]", f.notifier.decided)
	}
}

func TestDecideCollapsesDuplicateBatchIDs(t *testing.T) {
	f, e := newAdmissionFixture(t, 2, true)
	ctx := context.Background()

	a, _ := f.svc.Register(ctx, 2, e.ID)
	b, _ := f.svc.Register(ctx, 3, e.ID) // not in the batch

	// A listed twice must occupy one slot, not two; with one slot still
	// free afterwards, B stays PENDING instead of being swept up by the
	// full-event rejection.
	result, err := f.svc.Decide(ctx, 1, e.ID, []uint64{a.ID, a.ID}, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(result.Confirmed) != 1 || result.Confirmed[0].ID != a.ID {
		t.Fatalf("confirmed = %v, want request %d exactly once", requestIDList(result.Confirmed), a.ID)
	}
	if len(result.Rejected) != 0 {
		t.Fatalf("rejected = %v, want none", requestIDList(result.Rejected))
	}
	confirmed, _ := f.requests.CountConfirmed(ctx, e.ID)
	if confirmed != 1 {
		t.Fatalf("persisted confirmed = %d, want 1", confirmed)
	}
	got, _ := f.requests.Get(ctx, b.ID)
	if got.Status != model.StatusPending {
		t.Fatalf("b.status = %s, want PENDING untouched", got.Status)
	}
}

func TestDecideSeedsRunningCountFromStore(t *testing.T) {
	f, e := newAdmissionFixture(t, 2, true)
	ctx := context.Background()

	// One slot already taken before the batch arrives.
	f.requests.put(model.ParticipationRequest{
		RequesterID: 6, EventID: e.ID, Status: model.StatusConfirmed, Created: testNow,
	})
	a, _ := f.svc.Register(ctx, 2, e.ID)
	b, _ := f.svc.Register(ctx, 3, e.ID)

	result, err := f.svc.Decide(ctx, 1, e.ID, []uint64{a.ID, b.ID}, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(result.Confirmed) != 1 || result.Confirmed[0].ID != a.ID {
		t.Fatalf("confirmed = %v, want only request %d", requestIDList(result.Confirmed), a.ID)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].ID != b.ID {
		t.Fatalf("rejected = %v, want only request %d", requestIDList(result.Rejected), b.ID)
	}
}
