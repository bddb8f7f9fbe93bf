// Package sweeper implements the periodic task that expires sessions
// past their TTL.
package sweeper

import (
	"time"

	"github.com/PavelShilinRussia/MyMiniPGW/internal/cdr"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/pgwctx"
)

// Period is the tick interval at which expired sessions are swept.
const Period = time.Second

// Run ticks once per Period, removing every session whose age exceeds
// ctx.SessionTimeout and emitting a timeout CDR for each. It returns
// once the shutdown flag is observed.
func Run(ctx *pgwctx.Context) {
	ticker := time.NewTicker(Period)
	defer ticker.Stop()

	for {
		if ctx.ShuttingDown() {
			return
		}
		<-ticker.C
		if ctx.ShuttingDown() {
			return
		}

		expired := ctx.Sessions.ExpireDue(time.Now(), ctx.SessionTimeout)
		for _, imsi := range expired {
			ctx.CDR.Emit(imsi, cdr.Timeout)
		}
	}
}
