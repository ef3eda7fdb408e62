package summarize

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kabuto-group/disclosure-cli/internal/group"
	"github.com/kabuto-group/disclosure-cli/internal/pathing"
)

// minTimeseriesFiles is how many periods an issuer needs before a trend
// analysis is meaningful.
const minTimeseriesFiles = 2

// issuerSeries is one issuer's documents under the sector layout,
// ordered oldest first once sequenced.
type issuerSeries struct {
	sector string
	size   string
	code   string
	name   string
	keys   []string

	summary string
}

// Timeseries analyzes every issuer under the sector layout across
// periods and writes per-issuer trend summaries plus per-sector/size
// trend insights. Returns the number of issuer analyses produced.
func (p *Pipeline) Timeseries(ctx context.Context) (int, error) {
	prefix := pathing.SectorsPrefix(p.opts.BasePath)
	keys, err := p.store.List(ctx, prefix)
	if err != nil {
		return 0, eris.Wrapf(err, "timeseries: list %s", prefix)
	}

	series := collectSeries(prefix, keys)
	if len(series) == 0 {
		zap.L().Info("no issuers with enough periods for timeseries",
			zap.Int("keys", len(keys)),
		)
		return 0, nil
	}
	zap.L().Info("timeseries analysis",
		zap.Int("keys", len(keys)),
		zap.Int("issuers", len(series)),
	)

	var mu sync.Mutex
	var done []*issuerSeries

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for _, s := range series {
		g.Go(func() error {
			if err := p.analyzeSeries(gctx, s); err != nil {
				zap.L().Error("issuer timeseries failed",
					zap.String("code", s.code),
					zap.Error(err),
				)
				return nil // siblings continue
			}
			mu.Lock()
			done = append(done, s)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Restore discovery order after the concurrent phase.
	index := make(map[*issuerSeries]int, len(series))
	for i, s := range series {
		index[s] = i
	}
	sort.Slice(done, func(i, j int) bool { return index[done[i]] < index[done[j]] })

	p.writeTimeseriesInsights(ctx, done)

	return len(done), nil
}

// collectSeries parses sector-layout keys into per-issuer series,
// keeping only issuers with enough periods. Discovery order is
// preserved.
func collectSeries(prefix string, keys []string) []*issuerSeries {
	byIssuer := map[string]*issuerSeries{}
	var order []string

	for _, key := range keys {
		rel := strings.TrimPrefix(key, prefix)
		parts := strings.SplitN(rel, "/", 3)
		if len(parts) != 3 {
			continue
		}
		sector, size, filename := parts[0], parts[1], parts[2]

		fields := strings.SplitN(strings.TrimSuffix(filename, ".pdf"), "_", 3)
		if len(fields) < 2 {
			continue
		}
		code, name := fields[0], fields[1]

		id := sector + "/" + size + "/" + code
		s, ok := byIssuer[id]
		if !ok {
			s = &issuerSeries{sector: sector, size: size, code: code, name: name}
			byIssuer[id] = s
			order = append(order, id)
		}
		s.keys = append(s.keys, key)
	}

	var series []*issuerSeries
	for _, id := range order {
		if s := byIssuer[id]; len(s.keys) >= minTimeseriesFiles {
			series = append(series, s)
		}
	}
	return series
}

// analyzeSeries extracts the issuer's documents oldest first and
// produces its trend summary artifact.
func (p *Pipeline) analyzeSeries(ctx context.Context, s *issuerSeries) error {
	group.SortByPeriod(s.keys)

	periods := make([]string, 0, len(s.keys))
	texts := make([]string, 0, len(s.keys))
	for _, key := range s.keys {
		text, err := p.extractOne(ctx, key)
		if err != nil {
			zap.L().Warn("timeseries extraction failed",
				zap.String("code", s.code),
				zap.String("key", key),
				zap.Error(err),
			)
			text = "（テキスト抽出に失敗しました）"
		}
		periods = append(periods, group.PeriodLabel(key))
		texts = append(texts, strings.TrimSpace(text))
	}

	summary, err := p.summarizer.Generate(ctx, systemTimeseries,
		timeseriesUserPrompt(s.code, s.name, s.sector, s.size, periods, texts))
	if err != nil {
		return err
	}
	s.summary = summary

	key := pathing.TimeseriesSummaryKey(p.opts.BasePath, s.sector, s.size, s.code)
	if err := p.store.Upload(ctx, key, strings.NewReader(summary), "text/markdown"); err != nil {
		return eris.Wrapf(err, "timeseries: upload %s", key)
	}
	return nil
}

// writeTimeseriesInsights aggregates issuer trend summaries per
// sector/size bucket.
func (p *Pipeline) writeTimeseriesInsights(ctx context.Context, series []*issuerSeries) {
	type bucket struct{ sector, size string }

	byBucket := map[bucket][]string{}
	var order []bucket
	for _, s := range series {
		b := bucket{s.sector, s.size}
		if _, seen := byBucket[b]; !seen {
			order = append(order, b)
		}
		byBucket[b] = append(byBucket[b], s.summary)
	}

	for _, b := range order {
		insight, err := p.summarizer.Generate(ctx, systemTimeseries,
			timeseriesInsightUserPrompt(b.sector, b.size, byBucket[b]))
		if err != nil {
			zap.L().Error("sector timeseries insight failed",
				zap.String("sector", b.sector),
				zap.String("size", b.size),
				zap.Error(err),
			)
			continue
		}

		key := pathing.TimeseriesInsightKey(p.opts.BasePath, b.sector, b.size)
		if err := p.store.Upload(ctx, key, strings.NewReader(insight), "text/markdown"); err != nil {
			zap.L().Error("sector timeseries insight upload failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
}
