package pgwctx

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/PavelShilinRussia/MyMiniPGW/internal/cdr"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/session"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/stats"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	w, err := cdr.NewWriter(filepath.Join(t.TempDir(), "cdr.log"))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	return New(session.NewTable(), w, stats.New(), []string{"001010000000001"}, 30*time.Second, log.StandardLogger())
}

func TestIsBlacklisted(t *testing.T) {
	ctx := newTestContext(t)
	if !ctx.IsBlacklisted("001010000000001") {
		t.Fatal("expected denylisted IMSI to be blacklisted")
	}
	if ctx.IsBlacklisted("001010123456789") {
		t.Fatal("unexpected blacklist hit")
	}
}

func TestRequestShutdownIsIdempotent(t *testing.T) {
	ctx := newTestContext(t)
	if ctx.ShuttingDown() {
		t.Fatal("should not be shutting down initially")
	}

	if first := ctx.RequestShutdown(); !first {
		t.Fatal("first RequestShutdown should report true")
	}
	if !ctx.ShuttingDown() {
		t.Fatal("ShuttingDown should report true after RequestShutdown")
	}
	if second := ctx.RequestShutdown(); second {
		t.Fatal("second RequestShutdown should report false")
	}
}

func TestRequestShutdownConcurrentOnlyOneWinner(t *testing.T) {
	ctx := newTestContext(t)
	var wg sync.WaitGroup
	var winners int32
	var mu sync.Mutex

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.RequestShutdown() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}
