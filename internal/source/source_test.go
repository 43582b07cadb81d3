package source

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

type fakeQueue struct {
	records []model.Record
}

func (q *fakeQueue) Put(_ context.Context, v model.Record) error {
	q.records = append(q.records, v)
	return nil
}

func readerOpen(s string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(s)), nil
	}
}

func TestJSONLSource_OneRecordPerLine(t *testing.T) {
	src := NewJSONLSource(readerOpen("{\"a\":1}\n{\"a\":2}\n\n{\"a\":3}\n"), noopLogger{})
	q := &fakeQueue{}
	if err := src.Run(context.Background(), q); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(q.records) != 3 {
		t.Fatalf("got %d records, want 3", len(q.records))
	}
}

func TestJSONArraySource_StreamsElements(t *testing.T) {
	src := NewJSONArraySource(readerOpen(`[{"a":1},{"a":2},"plain"]`))
	q := &fakeQueue{}
	if err := src.Run(context.Background(), q); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(q.records) != 3 {
		t.Fatalf("got %d records, want 3", len(q.records))
	}
	if q.records[2] != `"plain"` {
		t.Errorf("records[2] = %q, want %q", q.records[2], `"plain"`)
	}
}

func TestCSVSource_JoinsHeaderAndRow(t *testing.T) {
	src := NewCSVSource(readerOpen("name,age\nalice,30\nbob,40\n"), true)
	q := &fakeQueue{}
	if err := src.Run(context.Background(), q); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(q.records) != 2 {
		t.Fatalf("got %d records, want 2", len(q.records))
	}
	if q.records[0] != "name=alice,age=30" {
		t.Errorf("records[0] = %q", q.records[0])
	}
}

func TestFixedWidthSource_SlicesColumns(t *testing.T) {
	src := NewFixedWidthSource(readerOpen("alice 030\nbob   040\n"), []int{6, 3})
	q := &fakeQueue{}
	if err := src.Run(context.Background(), q); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(q.records) != 2 {
		t.Fatalf("got %d records, want 2", len(q.records))
	}
	if q.records[0] != "alice|030" {
		t.Errorf("records[0] = %q", q.records[0])
	}
}

// noopLogger satisfies Logger for tests that don't assert on log output.
type noopLogger struct{}

func (noopLogger) Warning(string, ...any) {}
