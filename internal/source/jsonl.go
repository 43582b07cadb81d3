package source

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

// JSONLSource reads one record per line (line-oriented JSON, though the
// core does not require each line to actually be valid JSON).
type JSONLSource struct {
	open   func() (io.ReadCloser, error)
	logger Logger
}

// NewJSONLSource builds a source that lazily calls open when Run starts.
func NewJSONLSource(open func() (io.ReadCloser, error), logger Logger) *JSONLSource {
	return &JSONLSource{open: open, logger: logger}
}

func (s *JSONLSource) Run(ctx context.Context, q Queue) error {
	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("jsonl source: open: %w", err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := q.Put(ctx, model.Record(line)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warning("jsonl source: scan error: {Error}", err)
		return err
	}
	return nil
}
