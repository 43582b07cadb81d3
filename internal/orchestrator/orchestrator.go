// Package orchestrator wires the queue, transformers, sinks, DLQ, and
// metrics together and drives the dispatch algorithm: one task per
// (record, sink), retried up to a configured ceiling, resolving into a
// success counter or a dead-letter entry.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/willibrandon/mtlog/core"

	"github.com/lgreene/fanout-dispatcher/internal/dlq"
	"github.com/lgreene/fanout-dispatcher/internal/metrics"
	"github.com/lgreene/fanout-dispatcher/internal/model"
	"github.com/lgreene/fanout-dispatcher/internal/queue"
	"github.com/lgreene/fanout-dispatcher/internal/sink"
	"github.com/lgreene/fanout-dispatcher/internal/source"
	"github.com/lgreene/fanout-dispatcher/internal/transform"
)

const (
	idleTimeout    = 5 * time.Second
	shutdownBudget = 30 * time.Second
	pollInterval   = 200 * time.Millisecond
)

// Config holds the orchestrator's tunables, sourced from the loaded
// configuration file.
type Config struct {
	MaxRetries int
	// TestMode, when > 0, bounds the run to the first N records instead
	// of running until idle-timeout.
	TestMode int
}

// Orchestrator drives the end-to-end dispatch loop.
type Orchestrator struct {
	cfg      Config
	queue    *queue.Queue[model.Record]
	src      source.Source
	registry *transform.Registry
	sinks    map[model.SinkRole]sink.Built
	dlq      *dlq.DeadLetterSink
	metrics  *metrics.Metrics
	logger   core.Logger
}

// New wires an Orchestrator from its already-constructed collaborators.
func New(
	cfg Config,
	q *queue.Queue[model.Record],
	src source.Source,
	registry *transform.Registry,
	sinks map[model.SinkRole]sink.Built,
	dead *dlq.DeadLetterSink,
	m *metrics.Metrics,
	logger core.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		queue:    q,
		src:      src,
		registry: registry,
		sinks:    sinks,
		dlq:      dead,
		metrics:  m,
		logger:   logger,
	}
}

// Run drives the source, the drain loop, and shutdown. It blocks until
// the run completes (streaming idle-timeout or bounded testMode count)
// and all in-flight dispatch tasks have resolved or been abandoned at
// the shutdown budget.
func (o *Orchestrator) Run(ctx context.Context) error {
	// sourceCtx governs the record source and the drain loop's polling;
	// it is canceled as soon as draining ends, to stop the source
	// promptly. dispatchCtx governs in-flight (record, sink) tasks
	// already admitted from the queue — it stays live through the
	// shutdown budget so a draining retry loop isn't cut short by the
	// same cancellation that stops the source.
	sourceCtx, cancelSource := context.WithCancel(ctx)
	defer cancelSource()
	dispatchCtx, cancelDispatch := context.WithCancel(ctx)
	defer cancelDispatch()

	sourceErr := make(chan error, 1)
	go func() {
		sourceErr <- o.src.Run(sourceCtx, o.queue)
	}()

	var wg sync.WaitGroup
	lastSeen := time.Now()
	processed := 0

drain:
	for {
		if o.cfg.TestMode > 0 && processed >= o.cfg.TestMode {
			break drain
		}

		rec, ok := o.queue.Poll(sourceCtx, pollInterval)
		if !ok {
			if sourceCtx.Err() != nil {
				break drain
			}
			// Bounded mode has no idle signal of its own — it keeps
			// polling until it reaches its target count or ctx ends.
			if o.cfg.TestMode == 0 && time.Since(lastSeen) >= idleTimeout {
				break drain
			}
			continue
		}

		lastSeen = time.Now()
		processed++
		o.metrics.RecordProcessed()

		for role, built := range o.sinks {
			wg.Add(1)
			go func(role model.SinkRole, built sink.Built, rec model.Record) {
				defer wg.Done()
				o.dispatch(dispatchCtx, rec, role, built)
			}(role, built, rec)
		}
	}

	cancelSource()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownBudget):
		o.logger.Warning("orchestrator: shutdown budget exceeded; abandoning outstanding dispatch tasks")
		cancelDispatch()
	}

	select {
	case err := <-sourceErr:
		if err != nil {
			o.logger.Warning("orchestrator: record source exited with error: {Error}", err)
		}
	default:
	}

	return nil
}

// dispatch runs the per-(record, sink) algorithm: transform, then retry
// send up to maxRetries, resolving into a success metric or a DLQ entry.
func (o *Orchestrator) dispatch(ctx context.Context, rec model.Record, role model.SinkRole, built sink.Built) {
	transformer := o.registry.For(role)
	payload, err := func() (p model.Payload, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return transformer.Transform(rec)
	}()
	if err != nil {
		o.dlq.RecordFailure(model.FailureRecord{
			Record:    rec,
			Sink:      role,
			Attempts:  0,
			Error:     fmt.Sprintf("Transformation failed: %v", err),
			Timestamp: time.Now().UTC(),
		})
		o.metrics.RecordOutcome(role, false, 0)
		return
	}

	maxRetries := o.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		start := time.Now()
		ok, sendErr := built.Sink.Send(ctx, payload)
		latency := time.Since(start)
		if sendErr == nil && ok {
			o.metrics.RecordOutcome(role, true, latency)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}

	o.dlq.RecordFailure(model.FailureRecord{
		Record:    rec,
		Sink:      role,
		Attempts:  maxRetries,
		Error:     fmt.Sprintf("Max retries (%d) exceeded", maxRetries),
		Timestamp: time.Now().UTC(),
	})
	o.metrics.RecordOutcome(role, false, 0)
}
