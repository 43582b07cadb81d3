package storage

import (
	"context"
	"io"
)

// ObjectStore is the durable delivery target behind the dispatcher's
// GRPC/MQ/DB StoreSinks and the DLQ's Parquet archiver: a local
// directory during development, S3 or a MinIO-compatible endpoint in
// production.
type ObjectStore interface {
	Put(ctx context.Context, key string, reader io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
