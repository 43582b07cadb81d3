// Command dlqpurge deletes DLQ Parquet archive files older than a
// retention window. It is a standalone companion to the dispatcher, not
// part of its runtime core, and operates only on the archive files
// written by internal/dlq's Archiver — never the authoritative jsonl
// dead-letter log.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/lgreene/fanout-dispatcher/pkg/storage"
)

func main() {
	var retentionDays int
	var dryRun bool
	var archiveDir string
	var prefix string

	flag.IntVar(&retentionDays, "retention-days", 30, "delete archive files older than this many days")
	flag.BoolVar(&dryRun, "dry-run", false, "print files that would be deleted without deleting")
	flag.StringVar(&archiveDir, "archive-dir", "dlq/archive", "base directory for the local DLQ archive store")
	flag.StringVar(&prefix, "prefix", "dlq-archive", "key prefix under which archive files are listed")
	flag.Parse()

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	log.Printf("Purging DLQ archive files older than %d days (cutoff: %s, dry-run: %v)", retentionDays, cutoff.Format("20060102"), dryRun)

	store, err := storage.NewLocalStore(archiveDir)
	if err != nil {
		log.Fatalf("failed to open archive store at %s: %v", archiveDir, err)
	}

	deleted, err := purgeOlderThan(context.Background(), store, prefix, cutoff, dryRun)
	if err != nil {
		log.Fatalf("purge failed: %v", err)
	}

	action := "deleted"
	if dryRun {
		action = "would delete"
	}
	log.Printf("Purge complete: %s %d archive file(s) under %s", action, deleted, prefix)
}

// purgeOlderThan lists archive keys under prefix and deletes those whose
// embedded timestamp (dlq_YYYYMMDDThhmmss_<uuid>.parquet, per
// internal/dlq's Archiver naming) is older than cutoff.
func purgeOlderThan(ctx context.Context, store storage.ObjectStore, prefix string, cutoff time.Time, dryRun bool) (int, error) {
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", prefix, err)
	}

	deleted := 0
	for _, key := range keys {
		ts, ok := extractArchiveTimestamp(key)
		if !ok {
			continue
		}
		if ts.Before(cutoff) {
			if dryRun {
				log.Printf("[dry-run] would delete: %s (archived %s)", key, ts.Format(time.RFC3339))
			} else {
				if err := store.Delete(ctx, key); err != nil {
					log.Printf("failed to delete %s: %v", key, err)
					continue
				}
				log.Printf("deleted: %s (archived %s)", key, ts.Format(time.RFC3339))
			}
			deleted++
		}
	}
	return deleted, nil
}

// extractArchiveTimestamp finds the "20060102T150405" segment the
// Archiver embeds in each key and parses it as UTC.
func extractArchiveTimestamp(key string) (time.Time, bool) {
	const layout = "20060102T150405"
	n := len(layout)
	for i := 0; i+n <= len(key); i++ {
		candidate := key[i : i+n]
		if ts, err := time.Parse(layout, candidate); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
