// Package pgwctx defines the server context: a single struct bundling
// every piece of shared state, constructed once at startup and handed
// to each task constructor instead of relying on package-level globals.
package pgwctx

import (
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/PavelShilinRussia/MyMiniPGW/internal/cdr"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/session"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/stats"
)

// Context bundles the state shared across the ingress listener, worker
// pool, timeout sweeper, shutdown coordinator and HTTP control plane.
type Context struct {
	Sessions *session.Table
	CDR      *cdr.Writer
	Stats    *stats.Counters
	Denylist map[string]struct{}

	SessionTimeout time.Duration

	Log *log.Logger

	shuttingDown atomic.Bool
}

// New constructs a Context. denylist is copied into a set for O(1)
// membership checks; the caller's slice is not retained.
func New(sessions *session.Table, writer *cdr.Writer, counters *stats.Counters, denylist []string, sessionTimeout time.Duration, logger *log.Logger) *Context {
	set := make(map[string]struct{}, len(denylist))
	for _, imsi := range denylist {
		set[imsi] = struct{}{}
	}
	return &Context{
		Sessions:       sessions,
		CDR:            writer,
		Stats:          counters,
		Denylist:       set,
		SessionTimeout: sessionTimeout,
		Log:            logger,
	}
}

// IsBlacklisted reports whether imsi appears on the immutable denylist
// loaded at startup.
func (c *Context) IsBlacklisted(imsi string) bool {
	_, blocked := c.Denylist[imsi]
	return blocked
}

// RequestShutdown flips the shutdown flag. Idempotent: it reports true
// only the first time it transitions the flag, so callers can tell
// whether they are the ones responsible for kicking off the drain.
func (c *Context) RequestShutdown() (first bool) {
	return c.shuttingDown.CompareAndSwap(false, true)
}

// ShuttingDown reports the current state of the shutdown flag. Every
// long-running task polls this instead of being forcibly interrupted.
func (c *Context) ShuttingDown() bool {
	return c.shuttingDown.Load()
}
