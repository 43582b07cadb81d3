package source

import (
	"fmt"
	"io"
	"os"
)

// Build selects a concrete Source by format name, opening the file lazily
// on Run so a missing file surfaces as a Source error rather than a
// startup error (spec §7: source errors terminate the source task and
// let the orchestrator observe eventual queue idleness).
func Build(format, filePath string, fixedWidths []int, csvHasHeader bool, logger Logger) (Source, error) {
	open := func() (io.ReadCloser, error) {
		return os.Open(filePath)
	}

	switch format {
	case "", "jsonl":
		return NewJSONLSource(open, logger), nil
	case "json":
		return NewJSONArraySource(open), nil
	case "csv":
		return NewCSVSource(open, csvHasHeader), nil
	case "fixedwidth":
		return NewFixedWidthSource(open, fixedWidths), nil
	default:
		return nil, fmt.Errorf("source: unknown input.format %q", format)
	}
}
