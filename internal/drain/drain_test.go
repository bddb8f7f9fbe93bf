package drain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/PavelShilinRussia/MyMiniPGW/internal/cdr"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/pgwctx"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/session"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/stats"
)

func TestRunDrainsAllSessionsAndEmitsShutdownCDRs(t *testing.T) {
	cdrPath := filepath.Join(t.TempDir(), "cdr.log")
	w, err := cdr.NewWriter(cdrPath)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	tbl := session.NewTable()
	ctx := pgwctx.New(tbl, w, stats.New(), nil, time.Minute, log.StandardLogger())

	imsis := []string{"a", "b", "c", "d", "e"}
	for _, imsi := range imsis {
		tbl.TryCreate(imsi, time.Now())
	}

	Run(ctx, 10)

	if tbl.Size() != 0 {
		t.Fatalf("Size() = %d, want 0 after drain", tbl.Size())
	}

	data, err := os.ReadFile(cdrPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, imsi := range imsis {
		if !strings.Contains(string(data), imsi+", shutdown") {
			t.Fatalf("missing shutdown CDR for %s, got %q", imsi, string(data))
		}
	}
}

func TestRunOnEmptyTableReturnsImmediately(t *testing.T) {
	w, err := cdr.NewWriter(filepath.Join(t.TempDir(), "cdr.log"))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	ctx := pgwctx.New(session.NewTable(), w, stats.New(), nil, time.Minute, log.StandardLogger())

	done := make(chan struct{})
	go func() {
		Run(ctx, 5)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run should return immediately for an empty table")
	}
}

func TestRunRespectsRateAcrossWindows(t *testing.T) {
	w, err := cdr.NewWriter(filepath.Join(t.TempDir(), "cdr.log"))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	tbl := session.NewTable()
	ctx := pgwctx.New(tbl, w, stats.New(), nil, time.Minute, log.StandardLogger())

	for i := 0; i < 3; i++ {
		tbl.TryCreate(string(rune('a'+i)), time.Now())
	}

	start := time.Now()
	Run(ctx, 1)
	elapsed := time.Since(start)

	if elapsed < 2*time.Second {
		t.Fatalf("drain of 3 sessions at rate 1/s finished too fast: %v", elapsed)
	}
	if tbl.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", tbl.Size())
	}
}
