// Package storage provides the document sink: a small blob-store
// interface with object-storage and local-filesystem implementations.
// The pipeline is parameterized by this capability instead of knowing
// which backend it writes to.
package storage

import (
	"context"
	"io"
)

// BlobStore is the sink/source capability injected into the pipeline.
type BlobStore interface {
	// Upload writes r to the given key, replacing any existing object.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	// UploadFile uploads a local file to the given key.
	UploadFile(ctx context.Context, key, localPath string) error
	// ReadAll returns the full content stored at key.
	ReadAll(ctx context.Context, key string) ([]byte, error)
	// List returns all keys under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Close releases backend resources.
	Close() error
}
