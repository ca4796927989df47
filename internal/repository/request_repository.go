package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-listing-platform/internal/model"
)

const requestColumns = `id, requester_id, event_id, status, created`

// StatusUpdate pairs a request id with the status it should move to.
// SaveStatuses applies a whole batch of them in one transaction so
// that a half-applied admission decision can never be observed.
type StatusUpdate struct {
	RequestID uint64
	Status    model.RequestStatus
}

// RequestRepo provides persistence for participation requests and the
// count queries that back capacity accounting.  Requests are never
// deleted; every lifecycle change is a status update.
type RequestRepo struct {
	db *sql.DB
}

// NewRequestRepo returns a new RequestRepo bound to the given database.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

// Get loads one request by id.  Returns ErrNotFound when no row exists.
func (r *RequestRepo) Get(ctx context.Context, id uint64) (model.ParticipationRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`
	req, err := scanRequest(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ParticipationRequest{}, ErrNotFound
		}
		return model.ParticipationRequest{}, err
	}
	return req, nil
}

// Create inserts a new request and populates the generated id.
func (r *RequestRepo) Create(ctx context.Context, req model.ParticipationRequest) (model.ParticipationRequest, error) {
	const q = `INSERT INTO requests (requester_id, event_id, status, created) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, req.RequesterID, req.EventID, string(req.Status), req.Created)
	if err != nil {
		return model.ParticipationRequest{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.ParticipationRequest{}, err
	}
	req.ID = uint64(id)
	return req, nil
}

// UpdateStatus sets the status of one request and returns the updated
// record.  Returns ErrNotFound when the request does not exist.
func (r *RequestRepo) UpdateStatus(ctx context.Context, id uint64, status model.RequestStatus) (model.ParticipationRequest, error) {
	const q = `UPDATE requests SET status = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, string(status), id); err != nil {
		return model.ParticipationRequest{}, err
	}
	return r.Get(ctx, id)
}

// ListByRequester returns all requests filed by a user, oldest first.
func (r *RequestRepo) ListByRequester(ctx context.Context, requesterID uint64) ([]model.ParticipationRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM requests WHERE requester_id = ? ORDER BY created, id`
	return r.queryRequests(ctx, q, requesterID)
}

// ListByEvent returns all requests targeting an event, oldest first.
func (r *RequestRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.ParticipationRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM requests WHERE event_id = ? ORDER BY created, id`
	return r.queryRequests(ctx, q, eventID)
}

// ListByEventAndStatus returns an event's requests in one status,
// oldest first.  Used by the cascade-reject step to find the PENDING
// requests left over after a capacity-filling confirmation.
func (r *RequestRepo) ListByEventAndStatus(ctx context.Context, eventID uint64, status model.RequestStatus) ([]model.ParticipationRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM requests WHERE event_id = ? AND status = ? ORDER BY created, id`
	return r.queryRequests(ctx, q, eventID, string(status))
}

// ExistsLive reports whether the requester holds a non-canceled request
// for the event.  Canceled requests do not block re-registration.
func (r *RequestRepo) ExistsLive(ctx context.Context, requesterID, eventID uint64) (bool, error) {
	const q = `SELECT EXISTS(
		SELECT 1 FROM requests
		WHERE requester_id = ? AND event_id = ? AND status <> ?)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, requesterID, eventID, string(model.StatusCanceled)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CountConfirmed returns the number of CONFIRMED requests for an event.
func (r *RequestRepo) CountConfirmed(ctx context.Context, eventID uint64) (int64, error) {
	const q = `SELECT COUNT(*) FROM requests WHERE event_id = ? AND status = ?`
	var count int64
	err := r.db.QueryRowContext(ctx, q, eventID, string(model.StatusConfirmed)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountConfirmedByEvent groups confirmed-request counts for the given
// events in a single query.  Events without confirmed requests are
// absent from the map.
func (r *RequestRepo) CountConfirmedByEvent(ctx context.Context, eventIDs []uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	q := `SELECT event_id, COUNT(*) FROM requests
		WHERE status = ? AND event_id IN (` + placeholders(len(eventIDs)) + `)
		GROUP BY event_id`
	args := make([]any, 0, len(eventIDs)+1)
	args = append(args, string(model.StatusConfirmed))
	for _, id := range eventIDs {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		var count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// SaveStatuses applies every status transition within one transaction.
// Passing an empty batch has no effect and returns nil.
func (r *RequestRepo) SaveStatuses(ctx context.Context, updates []StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `UPDATE requests SET status = ? WHERE id = ?`
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, q, string(u.Status), u.RequestID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *RequestRepo) queryRequests(ctx context.Context, q string, args ...any) ([]model.ParticipationRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ParticipationRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRequest(row rowScanner) (model.ParticipationRequest, error) {
	var req model.ParticipationRequest
	var status string
	err := row.Scan(&req.ID, &req.RequesterID, &req.EventID, &status, &req.Created)
	if err != nil {
		return model.ParticipationRequest{}, err
	}
	req.Status = model.RequestStatus(status)
	return req, nil
}
