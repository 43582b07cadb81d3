package dlq

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/willibrandon/mtlog"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

func TestRecordFailure_AppendsJSONLLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "failed.jsonl")
	d := New(path, true, mtlog.New())
	defer d.Close()

	fr := model.FailureRecord{
		Record:    `{"id":1}`,
		Sink:      model.RoleREST,
		Attempts:  3,
		Error:     "Max retries (3) exceeded",
		Timestamp: time.Now().UTC(),
	}
	d.RecordFailure(fr)
	d.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := splitLines(string(data))
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("Unmarshal line: %v", err)
	}
	for _, key := range []string{"record", "sink", "attempts", "error", "timestamp"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing required key %q in DLQ line: %v", key, got)
		}
	}
	if got["record"].(map[string]any)["id"].(float64) != 1 {
		t.Errorf("record field was not spliced in verbatim: %v", got["record"])
	}
}

func TestFailedCount_MatchesRosterSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "failed.jsonl")
	d := New(path, true, mtlog.New())
	defer d.Close()

	for i := 0; i < 3; i++ {
		d.RecordFailure(model.FailureRecord{Record: "r", Sink: model.RoleDB, Attempts: 0, Error: "x"})
	}
	if got := d.FailedCount(); got != 3 {
		t.Errorf("FailedCount() = %d, want 3", got)
	}

	d.Clear()
	if got := d.FailedCount(); got != 0 {
		t.Errorf("FailedCount() after Clear = %d, want 0", got)
	}
}

func TestClear_DoesNotTruncateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "failed.jsonl")
	d := New(path, true, mtlog.New())
	d.RecordFailure(model.FailureRecord{Record: "r", Sink: model.RoleDB, Attempts: 0, Error: "x"})
	d.Close()
	d.Clear()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(splitLines(string(data))) != 1 {
		t.Errorf("expected the durable file to retain its line after Clear")
	}
}

func TestDisabled_AllOperationsAreNoOps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "failed.jsonl")
	d := New(path, false, mtlog.New())
	defer d.Close()

	d.RecordFailure(model.FailureRecord{Record: "r", Sink: model.RoleDB, Attempts: 0, Error: "x"})
	if got := d.FailedCount(); got != 0 {
		t.Errorf("FailedCount() = %d, want 0 when disabled", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file to be created when DLQ disabled")
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
