// Package drain implements the graceful-shutdown coordinator: a
// rate-limited sweep of the session table bounded by a hard wall-clock
// cap.
package drain

import (
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/PavelShilinRussia/MyMiniPGW/internal/cdr"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/pgwctx"
)

// category is the single catrate bucket the drain loop registers
// removals against; there is only ever one drain in flight per process.
const category = "drain"

// hardCap is the wall-clock ceiling on the entire drain. Sessions still
// present when it elapses are discarded without a CDR.
const hardCap = 30 * time.Second

const pollInterval = time.Second

// Run drives the session table to empty, removing sessions no faster
// than ratePerSecond per one-second window, emitting a shutdown CDR for
// each one removed. It returns once the table is empty or hardCap has
// elapsed, at which point any residual sessions are force-cleared.
func Run(ctx *pgwctx.Context, ratePerSecond int) {
	limiter := catrate.NewLimiter(map[time.Duration]int{time.Second: ratePerSecond})

	start := time.Now()
	for ctx.Sessions.Size() > 0 && time.Since(start) < hardCap {
		allowed, nextAt := admitUpTo(limiter, ratePerSecond)

		if allowed > 0 {
			for _, imsi := range ctx.Sessions.DrainBatch(allowed) {
				ctx.CDR.Emit(imsi, cdr.Shutdown)
			}
		}

		if allowed < ratePerSecond {
			sleepUntilNextWindow(nextAt)
		}
	}

	ctx.Sessions.Clear()
}

// admitUpTo asks the limiter for up to max removal slots in the current
// window, returning how many were granted and, if the window is
// exhausted, the time at which the next slot opens.
func admitUpTo(limiter *catrate.Limiter, max int) (allowed int, nextAt time.Time) {
	for allowed < max {
		t, ok := limiter.Allow(category)
		if !ok {
			return allowed, t
		}
		allowed++
	}
	return allowed, time.Time{}
}

func sleepUntilNextWindow(nextAt time.Time) {
	if nextAt.IsZero() {
		time.Sleep(pollInterval)
		return
	}
	if d := time.Until(nextAt); d > 0 {
		time.Sleep(d)
	}
}
