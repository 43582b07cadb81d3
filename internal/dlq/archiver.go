package dlq

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/willibrandon/mtlog/core"

	"github.com/lgreene/fanout-dispatcher/pkg/storage"
)

// archiveRow is the Parquet-columnar projection of a FailureRecord. The
// record's raw text is kept verbatim (unlike the DLQ's own jsonl splicing,
// a columnar archive needs a single scalar column) for offline analysis.
type archiveRow struct {
	Record    string `parquet:"record"`
	Sink      string `parquet:"sink"`
	Attempts  int    `parquet:"attempts"`
	Error     string `parquet:"error"`
	Timestamp int64  `parquet:"timestamp"`
}

// Archiver periodically snapshots a DeadLetterSink's in-memory roster to
// a Parquet file in an ObjectStore, for offline analytics. It never
// mutates the roster or the authoritative jsonl log — a pure read-only
// consumer, grounded on the teacher's write-then-swap rollup pattern.
type Archiver struct {
	sink     *DeadLetterSink
	store    storage.ObjectStore
	prefix   string
	interval time.Duration
	logger   core.Logger
}

// NewArchiver builds an archiver; interval <= 0 disables it (callers
// should simply not start Run).
func NewArchiver(sink *DeadLetterSink, store storage.ObjectStore, prefix string, interval time.Duration, logger core.Logger) *Archiver {
	return &Archiver{sink: sink, store: store, prefix: prefix, interval: interval, logger: logger}
}

// Run snapshots on each tick until ctx is canceled.
func (a *Archiver) Run(ctx context.Context) {
	if a.interval <= 0 {
		return
	}
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.snapshot(ctx); err != nil {
				a.logger.Warning("dlq archiver: snapshot failed: {Error}", err)
			}
		}
	}
}

func (a *Archiver) snapshot(ctx context.Context) error {
	entries := a.sink.Entries()
	if len(entries) == 0 {
		return nil
	}

	rows := make([]archiveRow, len(entries))
	for i, e := range entries {
		rows[i] = archiveRow{
			Record:    string(e.Record),
			Sink:      string(e.Sink),
			Attempts:  e.Attempts,
			Error:     e.Error,
			Timestamp: e.Timestamp.UnixNano(),
		}
	}

	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[archiveRow](&buf, parquet.Compression(&zstd.Codec{Level: zstd.SpeedDefault}))
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("dlq archiver: write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("dlq archiver: close: %w", err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%s/dlq_%s_%s.parquet", a.prefix, now.Format("20060102T150405"), uuid.New().String())
	if err := a.store.Put(ctx, key, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("dlq archiver: upload: %w", err)
	}
	return nil
}
