package service

import "sync"

// eventLocks serializes admissions per event.  The capacity check and
// the subsequent write in Register and Decide must not interleave for
// the same event, otherwise two concurrent registrations could both
// observe a free slot and jointly oversell the limit.  Locking is keyed
// by event id so unrelated events never contend.
//
// Mutexes are kept for the lifetime of the process; the map grows with
// the number of distinct events admitted, which is bounded by the event
// table itself.
type eventLocks struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func newEventLocks() *eventLocks {
	return &eventLocks{locks: make(map[uint64]*sync.Mutex)}
}

// get returns the mutex for the given event id, creating it on first use.
func (l *eventLocks) get(eventID uint64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[eventID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[eventID] = m
	}
	return m
}
