package sink

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/lgreene/fanout-dispatcher/internal/model"
	"github.com/lgreene/fanout-dispatcher/pkg/storage"
)

// StoreSink is the default GRPC/MQ/DB-role sink: it writes the payload
// as one object to an ObjectStore (Local or S3), keyed by role and time,
// standing in for a gRPC gateway's ingest spool, a broker's durable
// queue, or a database's staging table — the concrete backend the spec
// places out of the core's scope.
//
// FailureRate optionally injects simulated soft failures (without
// performing the underlying write) so tests can exercise the
// orchestrator's retry ceiling without real I/O.
type StoreSink struct {
	role        model.SinkRole
	store       storage.ObjectStore
	prefix      string
	limiter     Acquirer
	failureRate float64
	rng         *rand.Rand
}

// NewStoreSink builds a store-backed sink. prefix namespaces keys within
// the store (e.g. "grpc-ingest", "mq-spool", "db-staging").
func NewStoreSink(role model.SinkRole, store storage.ObjectStore, prefix string, limiter Acquirer) *StoreSink {
	return &StoreSink{
		role:    role,
		store:   store,
		prefix:  prefix,
		limiter: limiter,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithFailureRate returns a copy of the sink that fails the given
// fraction of sends without touching the store, for deterministic
// soft-failure testing.
func (s *StoreSink) WithFailureRate(rate float64, seed int64) *StoreSink {
	clone := *s
	clone.failureRate = rate
	clone.rng = rand.New(rand.NewSource(seed))
	return &clone
}

func (s *StoreSink) Role() model.SinkRole { return s.role }

func (s *StoreSink) Send(ctx context.Context, payload model.Payload) (bool, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return false, err
	}

	if s.failureRate > 0 && s.rng.Float64() < s.failureRate {
		return false, nil
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%s/%s/%s/%s.bin", s.prefix, now.Format("2006-01-02"), now.Format("15"), uuid.New().String())
	if err := s.store.Put(ctx, key, bytes.NewReader(payload)); err != nil {
		return false, nil
	}
	return true, nil
}
