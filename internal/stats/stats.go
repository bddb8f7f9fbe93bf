// Package stats collects CDR event counts and exposes a point-in-time
// snapshot, optionally persisted to disk for external inspection. It
// never participates in session recovery: the snapshot is observational
// only, never read back on startup.
package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/PavelShilinRussia/MyMiniPGW/internal/cdr"
)

// Counters tracks the running total of CDR lines emitted per reason.
// Each field is updated independently via atomic ops; there is no
// shared lock and counters must never be read or written while holding
// the session table's lock.
type Counters struct {
	created  uint64
	rejected uint64
	timeout  uint64
	shutdown uint64
}

// Snapshot is the read-only view returned by Counters.Snapshot and
// serialized by SaveSnapshot.
type Snapshot struct {
	Created        uint64 `json:"created"`
	Rejected       uint64 `json:"rejected"`
	Timeout        uint64 `json:"timeout"`
	Shutdown       uint64 `json:"shutdown"`
	ActiveSessions int    `json:"active_sessions"`
}

// New constructs a zeroed Counters.
func New() *Counters {
	return &Counters{}
}

// Observe implements cdr.Observer. It is called once per CDR line, after
// that line has been durably written.
func (c *Counters) Observe(reason cdr.Reason) {
	switch reason {
	case cdr.Created:
		atomic.AddUint64(&c.created, 1)
	case cdr.Rejected:
		atomic.AddUint64(&c.rejected, 1)
	case cdr.Timeout:
		atomic.AddUint64(&c.timeout, 1)
	case cdr.Shutdown:
		atomic.AddUint64(&c.shutdown, 1)
	default:
		log.WithField("reason", reason).Warn("stats: unknown cdr reason")
	}
}

// Snapshot reads every counter at roughly the same instant. activeSessions
// is supplied by the caller (typically session.Table.Size()) since the
// session table and the counters are independently locked.
func (c *Counters) Snapshot(activeSessions int) Snapshot {
	return Snapshot{
		Created:        atomic.LoadUint64(&c.created),
		Rejected:       atomic.LoadUint64(&c.rejected),
		Timeout:        atomic.LoadUint64(&c.timeout),
		Shutdown:       atomic.LoadUint64(&c.shutdown),
		ActiveSessions: activeSessions,
	}
}

// SaveSnapshot writes snap to path atomically (tmp file + rename), the
// same pattern used for the discovery cache this package is modeled on.
// Failures are logged and non-fatal — losing a periodic snapshot must
// never interrupt request handling.
func SaveSnapshot(path string, snap Snapshot) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.WithError(err).Warn("stats: failed to marshal snapshot")
		return
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.WithError(err).Warn("stats: failed to create snapshot dir")
			return
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.WithError(err).Warn("stats: failed to write snapshot tmp file")
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		log.WithError(err).Warn("stats: failed to rename snapshot file")
		os.Remove(tmp)
	}
}
