// Package queue defines the messages exchanged over the broker and the
// publisher/consumer pair around them.  Notices are informational:
// downstream consumers can log, notify subscribers or feed analytics
// without querying the primary database, and a broker outage never
// affects the request that produced the notice.
package queue

import "encoding/json"

// NoticeKind discriminates the payload carried by an Envelope.
type NoticeKind string

const (
	KindEventPublished  NoticeKind = "event.published"
	KindRequestsDecided NoticeKind = "requests.decided"
)

// Envelope wraps every message on the notifications queue with its
// kind so a single consumer can dispatch on payload shape.
type Envelope struct {
	Kind    NoticeKind      `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// EventPublishedNotice is emitted when a moderator publishes an event.
type EventPublishedNotice struct {
	EventID     uint64 `json:"event_id"`
	Title       string `json:"title"`
	InitiatorID uint64 `json:"initiator_id"`
	EventDate   string `json:"event_date"`
	PublishedAt string `json:"published_at"`
}

// RequestsDecidedNotice is emitted when an event owner confirms or
// rejects a batch of participation requests, including any requests
// cascade-rejected because the event filled up.
type RequestsDecidedNotice struct {
	EventID   uint64   `json:"event_id"`
	OwnerID   uint64   `json:"owner_id"`
	Confirmed []uint64 `json:"confirmed"`
	Rejected  []uint64 `json:"rejected"`
	DecidedAt string   `json:"decided_at"`
}
