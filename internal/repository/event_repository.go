package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/event-listing-platform/internal/model"
)

// eventColumns is the column list every event query selects, in the
// order scanEvent expects.
const eventColumns = `id, title, annotation, description, category_id, initiator_id,
	event_date, lat, lon, paid, participant_limit, request_moderation, state, created_on, published_on`

// EventFilter defines the multi-valued filters and pagination of the
// admin event search.  Empty slices and nil bounds mean "no
// restriction"; From/Size follow the platform-wide offset/length
// convention.
type EventFilter struct {
	Users      []uint64
	States     []model.EventState
	Categories []uint64
	RangeStart *time.Time
	RangeEnd   *time.Time
	From       int
	Size       int
}

// EventRepo provides CRUD and search operations for events.  All
// timestamp columns are stored in UTC; the DSN's parseTime option maps
// them to time.Time on scan.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Get loads one event by id.  Returns ErrNotFound when no row exists.
func (r *EventRepo) Get(ctx context.Context, id uint64) (model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	e, err := scanEvent(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrNotFound
		}
		return model.Event{}, err
	}
	return e, nil
}

// Create inserts a new event and populates the generated id.
func (r *EventRepo) Create(ctx context.Context, e model.Event) (model.Event, error) {
	const q = `INSERT INTO events
		(title, annotation, description, category_id, initiator_id, event_date,
		 lat, lon, paid, participant_limit, request_moderation, state, created_on, published_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		e.Title, e.Annotation, e.Description, e.CategoryID, e.InitiatorID, e.EventDate,
		e.Location.Lat, e.Location.Lon, e.Paid, e.ParticipantLimit, e.RequestModeration,
		string(e.State), e.CreatedOn, e.PublishedOn,
	)
	if err != nil {
		return model.Event{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	e.ID = uint64(id)
	return e, nil
}

// Update overwrites all mutable columns of an existing event.  The
// initiator column is never touched: the initiator is immutable after
// creation.
func (r *EventRepo) Update(ctx context.Context, e model.Event) (model.Event, error) {
	const q = `UPDATE events SET
		title = ?, annotation = ?, description = ?, category_id = ?, event_date = ?,
		lat = ?, lon = ?, paid = ?, participant_limit = ?, request_moderation = ?,
		state = ?, published_on = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q,
		e.Title, e.Annotation, e.Description, e.CategoryID, e.EventDate,
		e.Location.Lat, e.Location.Lon, e.Paid, e.ParticipantLimit, e.RequestModeration,
		string(e.State), e.PublishedOn, e.ID,
	)
	if err != nil {
		return model.Event{}, err
	}
	// RowsAffected is zero both for a missing row and for a no-op
	// update, so existence is checked separately only when in doubt.
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, err := r.Get(ctx, e.ID); err != nil {
			return model.Event{}, err
		}
	}
	return e, nil
}

// ListByInitiator returns a page of the user's own events ordered by id.
func (r *EventRepo) ListByInitiator(ctx context.Context, initiatorID uint64, from, size int) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events
		WHERE initiator_id = ?
		ORDER BY id
		LIMIT ? OFFSET ?`
	return r.queryEvents(ctx, q, initiatorID, size, from)
}

// ListPublished returns a page of PUBLISHED events ordered by id.  The
// public listing pipeline filters and re-sorts this page in memory.
func (r *EventRepo) ListPublished(ctx context.Context, from, size int) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events
		WHERE state = ?
		ORDER BY id
		LIMIT ? OFFSET ?`
	return r.queryEvents(ctx, q, string(model.StatePublished), size, from)
}

// Search returns events matching the admin filter.  The WHERE clause is
// assembled dynamically from the populated filter fields.
func (r *EventRepo) Search(ctx context.Context, f EventFilter) ([]model.Event, error) {
	where := []string{}
	args := []any{}

	if len(f.Users) > 0 {
		where = append(where, "initiator_id IN ("+placeholders(len(f.Users))+")")
		for _, id := range f.Users {
			args = append(args, id)
		}
	}
	if len(f.States) > 0 {
		where = append(where, "state IN ("+placeholders(len(f.States))+")")
		for _, st := range f.States {
			args = append(args, string(st))
		}
	}
	if len(f.Categories) > 0 {
		where = append(where, "category_id IN ("+placeholders(len(f.Categories))+")")
		for _, id := range f.Categories {
			args = append(args, id)
		}
	}
	if f.RangeStart != nil {
		where = append(where, "event_date >= ?")
		args = append(args, *f.RangeStart)
	}
	if f.RangeEnd != nil {
		where = append(where, "event_date <= ?")
		args = append(args, *f.RangeEnd)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	q := `SELECT ` + eventColumns + ` FROM events
		WHERE ` + cond + `
		ORDER BY id
		LIMIT ? OFFSET ?`
	args = append(args, f.Size, f.From)
	return r.queryEvents(ctx, q, args...)
}

func (r *EventRepo) queryEvents(ctx context.Context, q string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (model.Event, error) {
	var e model.Event
	var state string
	var publishedOn sql.NullTime
	err := row.Scan(
		&e.ID, &e.Title, &e.Annotation, &e.Description, &e.CategoryID, &e.InitiatorID,
		&e.EventDate, &e.Location.Lat, &e.Location.Lon, &e.Paid, &e.ParticipantLimit,
		&e.RequestModeration, &state, &e.CreatedOn, &publishedOn,
	)
	if err != nil {
		return model.Event{}, err
	}
	e.State = model.EventState(state)
	if publishedOn.Valid {
		t := publishedOn.Time
		e.PublishedOn = &t
	}
	return e, nil
}

// placeholders returns "?, ?, ..." with n entries for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
