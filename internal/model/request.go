package model

import (
	"fmt"
	"time"
)

// RequestStatus enumerates the lifecycle of a participation request.
// StatusPending is the only non-terminal value: once a request is
// confirmed, rejected or canceled it never changes status again.
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusConfirmed RequestStatus = "CONFIRMED"
	StatusRejected  RequestStatus = "REJECTED"
	StatusCanceled  RequestStatus = "CANCELED"
)

// ParseDecision converts a raw string into the status an event owner
// may assign to pending requests.  Only CONFIRMED and REJECTED are
// valid decisions.
func ParseDecision(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case StatusConfirmed, StatusRejected:
		return RequestStatus(s), nil
	}
	return "", fmt.Errorf("unknown decision %q", s)
}

// ParticipationRequest records a user's wish to attend an event.  At
// most one non-canceled request may exist per (requester, event) pair;
// requests are never deleted, only transitioned between statuses.
//
// Fields:
//  ID          – primary key identifier.
//  RequesterID – user asking to participate.
//  EventID     – target event.
//  Status      – request status (PENDING, CONFIRMED, REJECTED, CANCELED).
//  Created     – creation timestamp.
type ParticipationRequest struct {
	ID          uint64        // requests.id
	RequesterID uint64        // requests.requester_id
	EventID     uint64        // requests.event_id
	Status      RequestStatus // requests.status
	Created     time.Time     // requests.created
}

// Live reports whether the request still occupies the requester's single
// slot for the event, i.e. it has not been canceled.
func (r *ParticipationRequest) Live() bool {
	return r.Status != StatusCanceled
}
