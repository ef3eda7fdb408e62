// Package harvest orchestrates one run of the disclosure pipeline:
// paginated discovery, batched transfer into the blob store, and the
// per-date metadata sidecar.
package harvest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kabuto-group/disclosure-cli/internal/model"
	"github.com/kabuto-group/disclosure-cli/internal/pathing"
	"github.com/kabuto-group/disclosure-cli/internal/ratelimit"
	"github.com/kabuto-group/disclosure-cli/internal/refdata"
	"github.com/kabuto-group/disclosure-cli/internal/storage"
	"github.com/kabuto-group/disclosure-cli/internal/tdnet"
	"github.com/kabuto-group/disclosure-cli/internal/transfer"
)

const dateFormat = "20060102"

// Options tunes a harvest run.
type Options struct {
	BasePath  string
	Layout    pathing.Layout
	BatchSize int // documents per transfer batch, default 50
	Workers   int // transfer parallelism, default 5
	UserAgent string
}

// Harvester wires discovery, transfer and metadata for one storage
// destination. Safe for sequential reuse across dates.
type Harvester struct {
	paginator *tdnet.Paginator
	limiter   *ratelimit.Limiter
	store     storage.BlobStore
	table     *refdata.Table
	opts      Options
}

// New creates a Harvester. table may be nil when no reference data is
// available; sector-layout keys then fall back to Unknown buckets.
func New(paginator *tdnet.Paginator, limiter *ratelimit.Limiter, store storage.BlobStore, table *refdata.Table, opts Options) *Harvester {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	return &Harvester{
		paginator: paginator,
		limiter:   limiter,
		store:     store,
		table:     table,
		opts:      opts,
	}
}

// HarvestDate discovers, stores and indexes one date's disclosures.
// Returns the number of documents successfully stored. A date with no
// listing is not an error.
func (h *Harvester) HarvestDate(ctx context.Context, date string) (int, error) {
	log := zap.L().With(zap.String("date", date))

	docs, err := h.paginator.CollectDate(ctx, date)
	if err != nil {
		return 0, eris.Wrapf(err, "harvest: discover %s", date)
	}
	if len(docs) == 0 {
		log.Info("no documents to harvest")
		return 0, nil
	}
	log.Info("discovery complete", zap.Int("documents", len(docs)))

	// Keys are deterministic, so they are assigned before transfer and
	// reused verbatim by the metadata sidecar.
	for i := range docs {
		docs[i].StorageKey = h.keyFor(docs[i], date)
	}

	pool := transfer.NewPool(transfer.Options{
		Workers:   h.opts.Workers,
		UserAgent: h.opts.UserAgent,
	}, h.limiter, h.store, func(doc model.Document) string {
		return doc.StorageKey
	})

	stored := 0
	batches := (len(docs) + h.opts.BatchSize - 1) / h.opts.BatchSize
	for i := 0; i < len(docs); i += h.opts.BatchSize {
		end := min(i+h.opts.BatchSize, len(docs))
		batch := docs[i:end]
		log.Info("processing batch",
			zap.Int("batch", i/h.opts.BatchSize+1),
			zap.Int("batches", batches),
			zap.Int("size", len(batch)),
		)
		stored += pool.Transfer(ctx, batch)
	}

	meta := BuildMetadata(date, docs)
	if err := WriteMetadata(ctx, h.store, h.opts.BasePath, meta); err != nil {
		return stored, eris.Wrapf(err, "harvest: metadata for %s", date)
	}

	log.Info("harvest complete",
		zap.Int("discovered", len(docs)),
		zap.Int("stored", stored),
		zap.String("run_id", meta.RunID),
	)
	return stored, nil
}

// HarvestRange processes every date from start to end inclusive. A
// failing date is logged and skipped so the rest of the range still
// runs.
func (h *Harvester) HarvestRange(ctx context.Context, start, end string) (int, error) {
	from, err := time.Parse(dateFormat, start)
	if err != nil {
		return 0, eris.Wrapf(err, "harvest: invalid start date %q", start)
	}
	to, err := time.Parse(dateFormat, end)
	if err != nil {
		return 0, eris.Wrapf(err, "harvest: invalid end date %q", end)
	}
	if to.Before(from) {
		return 0, eris.Errorf("harvest: end date %s before start date %s", end, start)
	}

	total := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		date := d.Format(dateFormat)
		stored, err := h.HarvestDate(ctx, date)
		if err != nil {
			zap.L().Error("date failed, continuing range",
				zap.String("date", date),
				zap.Error(err),
			)
			continue
		}
		total += stored
	}
	return total, nil
}

func (h *Harvester) keyFor(doc model.Document, date string) string {
	sector, size := refdata.Unknown, refdata.Unknown
	if h.table != nil {
		if info, ok := h.table.Lookup(refdata.NormalizeCode(doc.Code)); ok {
			sector, size = info.Sector, info.Size
		}
	}
	return pathing.DocumentKey(h.opts.BasePath, doc, date, h.opts.Layout, sector, size)
}
