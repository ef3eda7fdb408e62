// Package summarize runs the analysis stage: per-issuer grouping, text
// extraction, Gemini summarization, and sector-level aggregation over
// the stored corpus.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kabuto-group/disclosure-cli/internal/group"
	"github.com/kabuto-group/disclosure-cli/internal/model"
	"github.com/kabuto-group/disclosure-cli/internal/pathing"
	"github.com/kabuto-group/disclosure-cli/internal/storage"
	"github.com/kabuto-group/disclosure-cli/internal/textextract"
	"github.com/kabuto-group/disclosure-cli/pkg/gemini"
)

const dateFormat = "20060102"

// Options tunes the analysis stage.
type Options struct {
	BasePath string
	Workers  int // extraction and summarization parallelism, default 10
	Filter   group.Filter
}

// Pipeline groups a date's stored documents, extracts their text, and
// produces summary and insight artifacts.
type Pipeline struct {
	store      storage.BlobStore
	extractor  textextract.Extractor
	summarizer gemini.Summarizer
	grouper    *group.Grouper
	opts       Options
}

// New creates a Pipeline. The summarizer should already carry its retry
// policy.
func New(store storage.BlobStore, extractor textextract.Extractor, summarizer gemini.Summarizer, grouper *group.Grouper, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 10
	}
	return &Pipeline{
		store:      store,
		extractor:  extractor,
		summarizer: summarizer,
		grouper:    grouper,
		opts:       opts,
	}
}

// SummarizeDate analyzes one harvested date. Returns the number of
// issuer summaries produced. A date without a metadata sidecar was
// never harvested and yields zero without error.
func (p *Pipeline) SummarizeDate(ctx context.Context, date string) (int, error) {
	log := zap.L().With(zap.String("date", date))

	docs, err := p.loadRecords(ctx, date)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		log.Info("nothing to summarize")
		return 0, nil
	}

	groups := p.grouper.Group(docs, p.opts.Filter)
	if len(groups) == 0 {
		log.Info("no groups after filtering")
		return 0, nil
	}
	log.Info("summarizing groups",
		zap.Int("documents", len(docs)),
		zap.Int("groups", len(groups)),
	)

	// Phase 1: fill CombinedText for every group before any model call.
	p.extractAll(ctx, groups)

	// Phase 2: one summary per group; failures drop the group from the
	// sector aggregates but never stop siblings.
	summarized := p.summarizeAll(ctx, date, groups)

	p.writeSectorInsights(ctx, date, summarized)

	log.Info("summarize complete",
		zap.Int("groups", len(groups)),
		zap.Int("summarized", len(summarized)),
	)
	return len(summarized), nil
}

// SummarizeRange analyzes every date in [start, end]. A failing date is
// logged and skipped.
func (p *Pipeline) SummarizeRange(ctx context.Context, start, end string) (int, error) {
	from, err := time.Parse(dateFormat, start)
	if err != nil {
		return 0, eris.Wrapf(err, "summarize: invalid start date %q", start)
	}
	to, err := time.Parse(dateFormat, end)
	if err != nil {
		return 0, eris.Wrapf(err, "summarize: invalid end date %q", end)
	}
	if to.Before(from) {
		return 0, eris.Errorf("summarize: end date %s before start date %s", end, start)
	}

	total := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		date := d.Format(dateFormat)
		n, err := p.SummarizeDate(ctx, date)
		if err != nil {
			zap.L().Error("date failed, continuing range",
				zap.String("date", date),
				zap.Error(err),
			)
			continue
		}
		total += n
	}
	return total, nil
}

// loadRecords reconstructs a date's documents from the metadata sidecar
// written at harvest time.
func (p *Pipeline) loadRecords(ctx context.Context, date string) ([]model.Document, error) {
	data, err := p.store.ReadAll(ctx, pathing.MetadataKey(p.opts.BasePath, date))
	if err != nil {
		zap.L().Warn("no metadata sidecar for date", zap.String("date", date))
		return nil, nil
	}

	var meta model.DateMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, eris.Wrapf(err, "summarize: decode metadata for %s", date)
	}

	docs := make([]model.Document, 0, len(meta.Documents))
	for _, rec := range meta.Documents {
		docs = append(docs, model.Document{
			Time:        rec.Time,
			Code:        rec.Code,
			CompanyName: rec.CompanyName,
			Title:       rec.Title,
			DocType:     rec.DocType,
			StorageKey:  rec.StorageKey,
		})
	}
	return docs, nil
}

// extractAll fills CombinedText for every group with bounded
// parallelism. Extraction problems surface as inline markers in the
// text, never as pipeline errors.
func (p *Pipeline) extractAll(ctx context.Context, groups []*model.DocumentGroup) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for _, grp := range groups {
		g.Go(func() error {
			grp.CombinedText = p.combineText(gctx, grp)
			return nil
		})
	}
	_ = g.Wait()
}

// combineText concatenates the group's document texts in discovery
// order with per-document separators.
func (p *Pipeline) combineText(ctx context.Context, grp *model.DocumentGroup) string {
	var sb strings.Builder
	for _, doc := range grp.Documents {
		fmt.Fprintf(&sb, "--- 文書: %s ---\n", doc.Title)

		text, err := p.extractOne(ctx, doc.StorageKey)
		if err != nil {
			zap.L().Warn("text extraction failed",
				zap.String("code", grp.Code),
				zap.String("key", doc.StorageKey),
				zap.Error(err),
			)
			sb.WriteString("（テキスト抽出に失敗しました）\n\n")
			continue
		}
		sb.WriteString(strings.TrimSpace(text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (p *Pipeline) extractOne(ctx context.Context, key string) (string, error) {
	data, err := p.store.ReadAll(ctx, key)
	if err != nil {
		return "", eris.Wrapf(err, "summarize: read %s", key)
	}
	return p.extractor.Extract(ctx, data)
}

// summarizeAll runs the model over every group and uploads the summary
// artifacts, returning the groups that succeeded.
func (p *Pipeline) summarizeAll(ctx context.Context, date string, groups []*model.DocumentGroup) []*model.DocumentGroup {
	var mu sync.Mutex
	var done []*model.DocumentGroup

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for _, grp := range groups {
		g.Go(func() error {
			summary, err := p.summarizer.Generate(gctx, systemPromptFor(grp.Size), summaryUserPrompt(grp, date))
			if err != nil {
				zap.L().Error("group summarization failed",
					zap.String("code", grp.Code),
					zap.String("company", grp.Name),
					zap.Error(err),
				)
				return nil // siblings continue
			}
			grp.Summary = summary

			key := pathing.SummaryKey(p.opts.BasePath, date, grp.Sector, grp.Size, grp.Code, grp.Name)
			if err := p.store.Upload(gctx, key, strings.NewReader(summary), "text/markdown"); err != nil {
				zap.L().Error("summary upload failed",
					zap.String("code", grp.Code),
					zap.String("key", key),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			done = append(done, grp)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Restore discovery order after the concurrent phase.
	index := make(map[*model.DocumentGroup]int, len(groups))
	for i, grp := range groups {
		index[grp] = i
	}
	sort.Slice(done, func(i, j int) bool { return index[done[i]] < index[done[j]] })

	return done
}

// writeSectorInsights aggregates the summarized groups per sector/size
// bucket and uploads one insight artifact per bucket.
func (p *Pipeline) writeSectorInsights(ctx context.Context, date string, groups []*model.DocumentGroup) {
	type bucket struct{ sector, size string }

	byBucket := map[bucket][]string{}
	var order []bucket
	for _, grp := range groups {
		b := bucket{grp.Sector, grp.Size}
		if _, seen := byBucket[b]; !seen {
			order = append(order, b)
		}
		byBucket[b] = append(byBucket[b], grp.Summary)
	}

	for _, b := range order {
		summaries := byBucket[b]
		insight, err := p.summarizer.Generate(ctx, systemStandard, sectorInsightUserPrompt(b.sector, b.size, date, summaries))
		if err != nil {
			zap.L().Error("sector insight failed",
				zap.String("sector", b.sector),
				zap.String("size", b.size),
				zap.Error(err),
			)
			continue
		}

		key := pathing.SectorInsightKey(p.opts.BasePath, date, b.sector, b.size)
		if err := p.store.Upload(ctx, key, strings.NewReader(insight), "text/markdown"); err != nil {
			zap.L().Error("sector insight upload failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
}
