// Package dlq implements the DeadLetterSink: durable, append-only
// capture of terminal per-(record, sink) failures, mirrored by an
// in-memory roster.
//
// A single long-lived writer goroutine drains a bounded channel and
// appends sequentially — replacing the fire-a-goroutine-per-failure
// idiom the teacher's own DurableSink used for uploads, which would
// otherwise race writers against each other and create unbounded
// goroutines under failure storms.
package dlq

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/lgreene/fanout-dispatcher/internal/model"
	"github.com/willibrandon/mtlog/core"
)

// DeadLetterSink records terminal failures. Disabled mode makes every
// method a no-op and keeps FailedCount at zero.
type DeadLetterSink struct {
	enabled bool
	logger  core.Logger

	writes    chan model.FailureRecord
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	roster  []model.FailureRecord
	writeOK bool
}

// New creates a DeadLetterSink appending to filePath. Initialization
// failure (e.g. an unwritable directory) disables further writes but
// does not return an error — the in-memory roster still records
// failures, per spec §4.4.
func New(filePath string, enabled bool, logger core.Logger) *DeadLetterSink {
	d := &DeadLetterSink{
		enabled: enabled,
		logger:  logger,
		writes:  make(chan model.FailureRecord, 256),
		done:    make(chan struct{}),
	}
	if !enabled {
		close(d.done)
		return d
	}

	var f *os.File
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		logger.Warning("dlq: failed to create parent directory for {Path}: {Error}", filePath, err)
	} else {
		var openErr error
		f, openErr = os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if openErr != nil {
			logger.Warning("dlq: failed to open {Path}: {Error}", filePath, openErr)
		}
	}
	d.writeOK = f != nil

	go d.run(f)
	return d
}

func (d *DeadLetterSink) run(f *os.File) {
	defer close(d.done)
	if f != nil {
		defer f.Close()
	}
	for fr := range d.writes {
		if f == nil {
			continue
		}
		line, err := json.Marshal(fr)
		if err != nil {
			d.logger.Warning("dlq: failed to marshal failure record: {Error}", err)
			continue
		}
		line = append(line, '\n')
		if _, err := f.Write(line); err != nil {
			d.logger.Warning("dlq: failed to append failure record: {Error}", err)
			continue
		}
		if err := f.Sync(); err != nil {
			d.logger.Warning("dlq: fsync failed: {Error}", err)
		}
	}
}

// RecordFailure appends a FailureRecord to the durable log and the
// in-memory roster. The durable append happens off the calling path on
// the writer goroutine; this call only blocks if the writer's buffer is
// full.
func (d *DeadLetterSink) RecordFailure(fr model.FailureRecord) {
	if !d.enabled {
		return
	}
	d.mu.Lock()
	d.roster = append(d.roster, fr)
	d.mu.Unlock()

	d.writes <- fr
}

// FailedCount reports the current roster size.
func (d *DeadLetterSink) FailedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.roster)
}

// Entries returns a snapshot of the in-memory roster.
func (d *DeadLetterSink) Entries() []model.FailureRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.FailureRecord, len(d.roster))
	copy(out, d.roster)
	return out
}

// Clear empties the in-memory roster only; the durable file is never
// truncated.
func (d *DeadLetterSink) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roster = nil
}

// Close stops the writer goroutine and waits for it to drain; cmd/dispatcher
// defers it at shutdown. Calling Close more than once is safe.
func (d *DeadLetterSink) Close() {
	d.closeOnce.Do(func() {
		if d.enabled {
			close(d.writes)
		}
	})
	<-d.done
}
