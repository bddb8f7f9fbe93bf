// Package session implements the server's subscriber session table: an
// in-memory IMSI to Session mapping mutated by workers, the timeout
// sweeper, the HTTP status handler and the shutdown drainer.
package session

import (
	"sync"
	"time"
)

// Session records when a subscriber was admitted. Active is always true
// for entries present in the table — removal, not a flag flip, is how a
// session ends.
type Session struct {
	StartTime time.Time
	Active    bool
}

// Table is the concurrency-safe IMSI -> Session map. All operations
// serialize on a single lock; critical sections never perform I/O — the
// caller emits CDR lines or socket replies after a call returns, using
// the IMSIs handed back by ExpireDue/DrainBatch.
type Table struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewTable constructs an empty session table.
func NewTable() *Table {
	return &Table{sessions: make(map[string]Session)}
}

// TryCreate inserts a new session for imsi if one is not already
// present. It reports whether this call created the entry — callers use
// this to decide whether a "created" CDR should be emitted, since
// creation must be idempotent: a repeat request for an already-admitted
// IMSI does not reset StartTime or produce a second CDR.
func (t *Table) TryCreate(imsi string, now time.Time) (created bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.sessions[imsi]; exists {
		return false
	}
	t.sessions[imsi] = Session{StartTime: now, Active: true}
	return true
}

// IsActive reports whether imsi currently has a session entry.
func (t *Table) IsActive(imsi string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, exists := t.sessions[imsi]
	return exists
}

// ExpireDue removes and returns every IMSI whose session age exceeds
// ttl as of now. The caller is responsible for emitting a "timeout" CDR
// for each returned IMSI after releasing this call — ExpireDue itself
// performs no I/O.
func (t *Table) ExpireDue(now time.Time, ttl time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []string
	for imsi, s := range t.sessions {
		if now.Sub(s.StartTime) > ttl {
			expired = append(expired, imsi)
			delete(t.sessions, imsi)
		}
	}
	return expired
}

// DrainBatch removes up to n arbitrary entries and returns their IMSIs.
// Used only during graceful shutdown; like ExpireDue, it performs no
// I/O and leaves CDR emission to the caller.
func (t *Table) DrainBatch(n int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n <= 0 {
		return nil
	}

	batch := make([]string, 0, n)
	for imsi := range t.sessions {
		if len(batch) >= n {
			break
		}
		batch = append(batch, imsi)
	}
	for _, imsi := range batch {
		delete(t.sessions, imsi)
	}
	return batch
}

// Size returns the current number of live sessions.
func (t *Table) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Clear forcibly empties the table without emitting any CDRs. Used as
// the hard stop after the graceful-drain wall-clock cap elapses.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions = make(map[string]Session)
}
