package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

// FixedWidthSource slices each input line into columns of the configured
// widths and re-composes a "|"-delimited record string, trimming
// trailing padding from each column.
type FixedWidthSource struct {
	open   func() (io.ReadCloser, error)
	widths []int
}

func NewFixedWidthSource(open func() (io.ReadCloser, error), widths []int) *FixedWidthSource {
	return &FixedWidthSource{open: open, widths: widths}
}

func (s *FixedWidthSource) Run(ctx context.Context, q Queue) error {
	if len(s.widths) == 0 {
		return fmt.Errorf("fixedwidth source: no column widths configured")
	}
	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("fixedwidth source: open: %w", err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		cols := make([]string, 0, len(s.widths))
		pos := 0
		for _, w := range s.widths {
			end := pos + w
			if pos >= len(line) {
				cols = append(cols, "")
				continue
			}
			if end > len(line) {
				end = len(line)
			}
			cols = append(cols, strings.TrimSpace(line[pos:end]))
			pos = end
		}
		if err := q.Put(ctx, model.Record(strings.Join(cols, "|"))); err != nil {
			return err
		}
	}
	return scanner.Err()
}
