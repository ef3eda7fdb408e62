// Package transfer moves document binaries from the disclosure service
// into the configured blob store with bounded parallelism and a shared
// per-second request cap.
package transfer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kabuto-group/disclosure-cli/internal/model"
	"github.com/kabuto-group/disclosure-cli/internal/ratelimit"
	"github.com/kabuto-group/disclosure-cli/internal/storage"
)

const progressInterval = 10

// KeyFunc maps a document to its destination storage key.
type KeyFunc func(doc model.Document) string

// Options configures a Pool.
type Options struct {
	Workers   int // bounded parallelism, default 5
	UserAgent string
	Timeout   time.Duration // per-download request timeout, default 30s
}

// Pool downloads each document's PDF into a transient temp file and
// re-uploads it to the key produced by KeyFunc. Items are independent:
// one failure never aborts the batch. All downloads funnel through the
// shared rate limiter.
type Pool struct {
	opts    Options
	client  *http.Client
	limiter *ratelimit.Limiter
	store   storage.BlobStore
	keyFn   KeyFunc
}

// NewPool creates a transfer pool writing to store via keyFn.
func NewPool(opts Options, limiter *ratelimit.Limiter, store storage.BlobStore, keyFn KeyFunc) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Pool{
		opts: opts,
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				// Same self-signed certificate as the listing pages.
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
				MaxIdleConnsPerHost: opts.Workers,
			},
		},
		limiter: limiter,
		store:   store,
		keyFn:   keyFn,
	}
}

// Transfer processes the batch with bounded parallelism and returns the
// number of successfully stored documents.
func (p *Pool) Transfer(ctx context.Context, docs []model.Document) int {
	total := len(docs)
	if total == 0 {
		return 0
	}

	var processed, succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for _, doc := range docs {
		g.Go(func() error {
			outcome := p.transferOne(gctx, doc)

			done := processed.Add(1)
			if outcome.Success {
				succeeded.Add(1)
				zap.L().Info("stored document",
					zap.Int64("n", done),
					zap.Int("total", total),
					zap.String("code", doc.Code),
					zap.String("doc_type", string(doc.DocType)),
					zap.String("key", outcome.Document.StorageKey),
				)
			} else {
				failed.Add(1)
				zap.L().Error("document transfer failed",
					zap.Int64("n", done),
					zap.Int("total", total),
					zap.String("code", doc.Code),
					zap.String("title", doc.Title),
					zap.String("reason", outcome.Message),
				)
			}

			if done%progressInterval == 0 || done == int64(total) {
				zap.L().Info("transfer progress",
					zap.Int64("processed", done),
					zap.Int("total", total),
					zap.Int64("succeeded", succeeded.Load()),
					zap.Int64("failed", failed.Load()),
				)
			}
			return nil // individual failures never abort the batch
		})
	}
	_ = g.Wait()

	return int(succeeded.Load())
}

// transferOne downloads one document and uploads it to its key. The
// temp file is removed on every exit path.
func (p *Pool) transferOne(ctx context.Context, doc model.Document) model.TransferOutcome {
	outcome := model.TransferOutcome{Document: doc}

	if doc.PDFURL == "" {
		outcome.Message = "document has no PDF URL"
		return outcome
	}

	tmpPath, err := p.downloadToTemp(ctx, doc.PDFURL)
	if err != nil {
		outcome.Message = fmt.Sprintf("download: %v", err)
		return outcome
	}
	defer os.Remove(tmpPath)

	key := p.keyFn(doc)
	if err := p.store.UploadFile(ctx, key, tmpPath); err != nil {
		outcome.Message = fmt.Sprintf("upload: %v", err)
		return outcome
	}

	outcome.Document.StorageKey = key
	outcome.Success = true
	return outcome
}

// downloadToTemp fetches the PDF into a transient file after acquiring
// a rate-limit slot. Callers own the returned path.
func (p *Pool) downloadToTemp(ctx context.Context, pdfURL string) (string, error) {
	if err := p.limiter.Acquire(ctx); err != nil {
		return "", eris.Wrap(err, "transfer: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "transfer: create request")
	}
	if p.opts.UserAgent != "" {
		req.Header.Set("User-Agent", p.opts.UserAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "transfer: fetch %s", pdfURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("transfer: %s returned %d", pdfURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "disclosure-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "transfer: create temp file")
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", eris.Wrapf(err, "transfer: write temp for %s", pdfURL)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", eris.Wrap(err, "transfer: close temp file")
	}

	return tmp.Name(), nil
}
