// Package sink implements the Sink capability: an asynchronous,
// rate-limiter-aware send of a Payload that resolves to a success/soft-
// failure boolean. Concrete sink I/O (HTTP, object storage) lives here as
// the default collaborators; the orchestrator only depends on Sink.
package sink

import (
	"context"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

// Acquirer is the subset of ratelimiter.RateLimiter a Sink needs: one
// permit must be acquired before initiating work.
type Acquirer interface {
	Acquire(ctx context.Context) error
}

// Sink sends a Payload and reports success (true) or soft failure
// (false). A returned error is also treated as a soft failure by the
// orchestrator's retry loop; Send itself never distinguishes retryable
// from terminal — that ceiling is the orchestrator's job.
//
// Multiple Send calls may be in flight concurrently; implementations
// must be safe under concurrent entry.
type Sink interface {
	Role() model.SinkRole
	Send(ctx context.Context, payload model.Payload) (bool, error)
}
