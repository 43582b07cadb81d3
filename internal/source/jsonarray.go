package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

// JSONArraySource reads a single top-level JSON array, token-streaming
// it so memory stays bounded even for a very large array: each element
// is re-encoded to its own record string without materializing the
// whole array in memory.
type JSONArraySource struct {
	open func() (io.ReadCloser, error)
}

func NewJSONArraySource(open func() (io.ReadCloser, error)) *JSONArraySource {
	return &JSONArraySource{open: open}
}

func (s *JSONArraySource) Run(ctx context.Context, q Queue) error {
	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("json source: open: %w", err)
	}
	defer rc.Close()

	dec := json.NewDecoder(rc)
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("json source: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("json source: expected top-level array, got %v", tok)
	}

	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("json source: decode element: %w", err)
		}
		if err := q.Put(ctx, model.Record(raw)); err != nil {
			return err
		}
	}
	return nil
}
