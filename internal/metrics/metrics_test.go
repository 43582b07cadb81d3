package metrics

import (
	"testing"
	"time"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

func TestRecordOutcome_TracksSuccessAndFailureSeparately(t *testing.T) {
	m := New()
	m.RecordOutcome(model.RoleREST, true, time.Millisecond)
	m.RecordOutcome(model.RoleREST, true, time.Millisecond)
	m.RecordOutcome(model.RoleREST, false, time.Millisecond)

	success, failure := m.Outcomes(model.RoleREST)
	if success != 2 {
		t.Errorf("success = %d, want 2", success)
	}
	if failure != 1 {
		t.Errorf("failure = %d, want 1", failure)
	}
}

func TestRecordProcessed_IncrementsCounter(t *testing.T) {
	m := New()
	m.RecordProcessed()
	m.RecordProcessed()
	if got := m.Processed(); got != 2 {
		t.Errorf("Processed() = %d, want 2", got)
	}
}

func TestPercentiles_EmptyReturnsZeros(t *testing.T) {
	m := New()
	p50, p95, p99, err := m.Percentiles(model.RoleDB)
	if err != nil {
		t.Fatalf("Percentiles: %v", err)
	}
	if p50 != 0 || p95 != 0 || p99 != 0 {
		t.Errorf("expected all zeros with no samples, got %v %v %v", p50, p95, p99)
	}
}

func TestPercentiles_ReflectsObservedLatencies(t *testing.T) {
	m := New()
	for _, d := range []time.Duration{1 * time.Millisecond, 2 * time.Millisecond, 100 * time.Millisecond} {
		m.RecordOutcome(model.RoleGRPC, true, d)
	}
	p50, _, p99, err := m.Percentiles(model.RoleGRPC)
	if err != nil {
		t.Fatalf("Percentiles: %v", err)
	}
	if p50 <= 0 {
		t.Errorf("p50 = %v, want > 0", p50)
	}
	if p99 < p50 {
		t.Errorf("p99 (%v) should be >= p50 (%v)", p99, p50)
	}
}
