// Package repository implements MySQL persistence for events,
// participation requests, users and categories.  Repositories speak
// raw SQL over database/sql and expose sentinel errors so that the
// service layer can distinguish failure scenarios without inspecting
// driver-specific error values.
package repository

import "errors"

// ErrNotFound is returned when a row referenced by id does not exist.
// The service layer wraps it with entity context before it reaches a
// handler.
var ErrNotFound = errors.New("record not found")
