package sink

import (
	"context"
	"fmt"
	"os"

	"github.com/willibrandon/mtlog/core"

	"github.com/lgreene/fanout-dispatcher/internal/model"
	"github.com/lgreene/fanout-dispatcher/internal/ratelimiter"
	"github.com/lgreene/fanout-dispatcher/pkg/storage"
)

// objectStoreFromEnv selects an S3-backed store when S3_ENDPOINT is set
// (mirroring the ingestion service's local-vs-S3/MinIO switch), falling
// back to a local directory otherwise.
func objectStoreFromEnv(ctx context.Context, dir string, logger core.Logger) (storage.ObjectStore, error) {
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		return storage.NewS3Store(
			ctx,
			endpoint,
			os.Getenv("S3_REGION"),
			os.Getenv("S3_BUCKET"),
			os.Getenv("S3_ACCESS_KEY"),
			os.Getenv("S3_SECRET_KEY"),
			logger,
		)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return storage.NewLocalStore(dir)
}

// Config describes how to build one sink role's limiter and delivery
// target.
type Config struct {
	Role      model.SinkRole
	RateLimit int
	// RESTEndpoint is used when Role == model.RoleREST.
	RESTEndpoint string
	// StoreDir backs the non-REST roles' default StoreSink when no S3
	// endpoint is configured.
	StoreDir string
}

// Built bundles a constructed Sink with the rate limiter backing it, so
// the orchestrator can start/stop the limiter's refill loop.
type Built struct {
	Sink    Sink
	Limiter *ratelimiter.RateLimiter
}

// BuildAll constructs one Sink and RateLimiter per Config. Non-REST roles
// back their StoreSink with an S3 object store when S3_ENDPOINT is set in
// the environment, and a local directory otherwise.
func BuildAll(ctx context.Context, cfgs []Config, logger core.Logger) (map[model.SinkRole]Built, error) {
	out := make(map[model.SinkRole]Built, len(cfgs))
	for _, c := range cfgs {
		limiter := ratelimiter.New(c.RateLimit)

		var s Sink
		switch c.Role {
		case model.RoleREST:
			if c.RESTEndpoint == "" {
				return nil, fmt.Errorf("sink %s: REST endpoint required", c.Role)
			}
			s = NewHTTPSink(c.Role, c.RESTEndpoint, limiter)
		default:
			dir := c.StoreDir
			if dir == "" {
				dir = "dispatch-store/" + string(c.Role)
			}
			store, err := objectStoreFromEnv(ctx, dir, logger)
			if err != nil {
				return nil, fmt.Errorf("sink %s: %w", c.Role, err)
			}
			s = NewStoreSink(c.Role, store, string(c.Role), limiter)
		}

		out[c.Role] = Built{Sink: s, Limiter: limiter}
	}
	return out, nil
}

// RunLimiters starts every Built sink's refill loop and blocks until ctx
// is canceled, at which point all loops stop. cmd/dispatcher runs this in
// its own goroutine; Orchestrator.Run does not start or stop limiters.
func RunLimiters(ctx context.Context, built map[model.SinkRole]Built) {
	done := make(chan struct{})
	count := len(built)
	if count == 0 {
		return
	}
	for _, b := range built {
		go func(l *ratelimiter.RateLimiter) {
			l.Run(ctx)
			done <- struct{}{}
		}(b.Limiter)
	}
	for i := 0; i < count; i++ {
		<-done
	}
}
