package storage

import (
	"context"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rotisserie/eris"
	"google.golang.org/api/iterator"
)

// GCS stores blobs in a Google Cloud Storage bucket using Application
// Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a GCS store for the given bucket.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "storage: create gcs client")
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// Upload writes r to the object at key.
func (g *GCS) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return eris.Wrapf(err, "storage: write gs://%s/%s", g.bucket, key)
	}
	if err := w.Close(); err != nil {
		return eris.Wrapf(err, "storage: finalize gs://%s/%s", g.bucket, key)
	}
	return nil
}

// UploadFile uploads a local file to the object at key.
func (g *GCS) UploadFile(ctx context.Context, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return eris.Wrapf(err, "storage: open %s", localPath)
	}
	defer f.Close()
	return g.Upload(ctx, key, f, "application/pdf")
}

// ReadAll returns the full content of the object at key.
func (g *GCS) ReadAll(ctx context.Context, key string) ([]byte, error) {
	rc, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read gs://%s/%s", g.bucket, key)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read gs://%s/%s", g.bucket, key)
	}
	return data, nil
}

// List returns all object keys under prefix.
func (g *GCS) List(ctx context.Context, prefix string) ([]string, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "storage: list gs://%s/%s", g.bucket, prefix)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
