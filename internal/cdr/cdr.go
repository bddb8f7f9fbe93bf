// Package cdr implements the append-only Call Detail Record log: one
// line per session lifecycle event, serialized across concurrent
// emitters.
package cdr

import (
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Reason is the terminal or transitional event a CDR line records.
type Reason string

const (
	Created  Reason = "created"
	Rejected Reason = "rejected"
	Timeout  Reason = "timeout"
	Shutdown Reason = "shutdown"
)

// Observer is notified after a CDR line has been durably written. The
// stats collector implements this to keep its counters in lockstep
// with the CDR stream without CDR writes taking a dependency on stats
// internals.
type Observer interface {
	Observe(reason Reason)
}

// Writer appends CDR lines to a single file. Each Emit call fully
// serializes on the writer's lock: the line is formatted, written and
// flushed before the lock is released, so concurrent callers never
// interleave partial lines.
type Writer struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	observer Observer
}

// NewWriter opens path for appending. Failure to open here is fatal at
// startup (config validation already checked the file is openable);
// subsequent write failures, by contrast, are logged and non-fatal.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open cdr file %s: %w", path, err)
	}
	return &Writer{path: path, file: f}, nil
}

// SetObserver registers a single stats observer. Not safe to call
// concurrently with Emit; intended to be wired once during startup.
func (w *Writer) SetObserver(o Observer) {
	w.observer = o
}

// Emit appends one CDR line for imsi and reason. Open or write failures
// are logged and swallowed — the caller keeps serving traffic even if
// the CDR sink is unavailable, per the writer's non-fatal contract.
func (w *Writer) Emit(imsi string, reason Reason) {
	w.mu.Lock()
	line := fmt.Sprintf("%s, %s\n", imsi, reason)
	var writeErr error
	if w.file != nil {
		if _, err := w.file.WriteString(line); err != nil {
			writeErr = err
		} else if err := w.file.Sync(); err != nil {
			writeErr = err
		}
	} else {
		writeErr = os.ErrClosed
	}
	w.mu.Unlock()

	if writeErr != nil {
		log.WithError(writeErr).WithFields(log.Fields{
			"imsi":   imsi,
			"reason": reason,
		}).Error("cdr write failed")
		return
	}

	if w.observer != nil {
		w.observer.Observe(reason)
	}
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
