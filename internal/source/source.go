// Package source implements the RecordSource capability: reading an
// input artifact and enqueuing one record per logical unit until the
// input is exhausted. Format dispatch (jsonl/json/csv/fixedwidth) is a
// peripheral collaborator concern — the orchestrator only depends on
// the Source interface below.
package source

import (
	"context"

	"github.com/lgreene/fanout-dispatcher/internal/model"
	"github.com/lgreene/fanout-dispatcher/internal/queue"
)

// Queue is the subset of queue.Queue[model.Record] a Source needs.
type Queue interface {
	Put(ctx context.Context, v model.Record) error
}

var _ Queue = (*queue.Queue[model.Record])(nil)

// Source produces a finite sequence of records by reading an input
// artifact and enqueuing each one. Run blocks until the input is
// exhausted or ctx is canceled; it never signals completion in-band —
// consumers detect end-of-input via queue idle-timeout.
type Source interface {
	Run(ctx context.Context, q Queue) error
}

// Logger is the minimal logging surface a Source needs; satisfied
// directly by a core.Logger without depending on its full interface.
type Logger interface {
	Warning(messageTemplate string, args ...any)
}
