package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/kabuto-group/disclosure-cli/internal/group"
	"github.com/kabuto-group/disclosure-cli/internal/harvest"
	"github.com/kabuto-group/disclosure-cli/internal/pathing"
	"github.com/kabuto-group/disclosure-cli/internal/ratelimit"
	"github.com/kabuto-group/disclosure-cli/internal/refdata"
	"github.com/kabuto-group/disclosure-cli/internal/resilience"
	"github.com/kabuto-group/disclosure-cli/internal/storage"
	"github.com/kabuto-group/disclosure-cli/internal/summarize"
	"github.com/kabuto-group/disclosure-cli/internal/tdnet"
	"github.com/kabuto-group/disclosure-cli/internal/textextract"
	"github.com/kabuto-group/disclosure-cli/pkg/gemini"
)

// pipelineEnv holds the shared dependencies every subcommand wires up:
// the blob store and the issuer reference table.
type pipelineEnv struct {
	store storage.BlobStore
	table *refdata.Table
}

func initEnv(ctx context.Context) (*pipelineEnv, error) {
	var store storage.BlobStore
	var err error
	switch cfg.Storage.Driver {
	case "local":
		store, err = storage.NewLocal(cfg.Storage.LocalDir)
	default:
		store, err = storage.NewGCS(ctx, cfg.Storage.Bucket)
	}
	if err != nil {
		return nil, eris.Wrap(err, "init storage")
	}

	table, err := refdata.Load(cfg.RefData.CompaniesPath)
	if err != nil {
		_ = store.Close()
		return nil, eris.Wrap(err, "load reference table")
	}

	return &pipelineEnv{store: store, table: table}, nil
}

func (e *pipelineEnv) Close() {
	_ = e.store.Close()
}

// newHarvester builds the acquisition stage. layout overrides the
// configured layout when non-empty.
func (e *pipelineEnv) newHarvester(layout string) *harvest.Harvester {
	if layout == "" {
		layout = cfg.Scraping.Layout
	}

	fetcher := tdnet.NewFetcher(tdnet.FetcherOptions{
		BaseURL:   cfg.Source.BaseURL,
		UserAgent: cfg.Source.UserAgent,
		Timeout:   time.Duration(cfg.Source.TimeoutSecs) * time.Second,
	})
	paginator := tdnet.NewPaginator(fetcher, cfg.Source.BaseURL,
		tdnet.NewMarketFilter(e.table, cfg.Scraping.ExcludedMarkets))

	return harvest.New(paginator, ratelimit.New(cfg.Scraping.MaxRequestsPerSecond), e.store, e.table, harvest.Options{
		BasePath:  cfg.Storage.BasePath,
		Layout:    pathing.Layout(layout),
		BatchSize: cfg.Scraping.BatchSize,
		Workers:   cfg.Scraping.MaxWorkers,
		UserAgent: cfg.Source.UserAgent,
	})
}

// newAnalysisPipeline builds the summarization stage around a live
// Gemini client wrapped in the retry policy.
func (e *pipelineEnv) newAnalysisPipeline(ctx context.Context, filter group.Filter) (*summarize.Pipeline, error) {
	extractor, err := textextract.New(textextract.Kind(cfg.Summarize.Extractor), cfg.Summarize.PdfToTextPath)
	if err != nil {
		return nil, err
	}

	client, err := gemini.New(ctx, cfg.Summarize.Model)
	if err != nil {
		return nil, err
	}
	summarizer := summarize.NewRetryingSummarizer(client, resilience.RetryConfig{
		MaxAttempts:    cfg.Summarize.MaxRetries,
		InitialBackoff: time.Duration(cfg.Summarize.BackoffSecs) * time.Second,
	})

	return summarize.New(e.store, extractor, summarizer, group.NewGrouper(e.table), summarize.Options{
		BasePath: cfg.Storage.BasePath,
		Workers:  cfg.Summarize.MaxWorkers,
		Filter:   filter,
	}), nil
}
