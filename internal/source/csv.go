package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

// CSVSource reads delimited columnar input and re-joins each row into
// one record string, comma-separated, with the header row (if any)
// prepended as "col=value" pairs so the record is self-describing.
type CSVSource struct {
	open      func() (io.ReadCloser, error)
	hasHeader bool
}

func NewCSVSource(open func() (io.ReadCloser, error), hasHeader bool) *CSVSource {
	return &CSVSource{open: open, hasHeader: hasHeader}
}

func (s *CSVSource) Run(ctx context.Context, q Queue) error {
	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("csv source: open: %w", err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1

	var header []string
	if s.hasHeader {
		header, err = r.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("csv source: header: %w", err)
		}
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("csv source: row: %w", err)
		}

		var parts []string
		for i, field := range row {
			if header != nil && i < len(header) {
				parts = append(parts, header[i]+"="+field)
			} else {
				parts = append(parts, field)
			}
		}
		if err := q.Put(ctx, model.Record(strings.Join(parts, ","))); err != nil {
			return err
		}
	}
}
