package tdnet

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kabuto-group/disclosure-cli/internal/resilience"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// FetcherOptions configures the listing-page fetcher.
type FetcherOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// PagesPerSecond throttles listing-page requests. Default 2/s.
	PagesPerSecond float64
}

// Fetcher retrieves listing pages from the disclosure service. Any
// non-success status or network error is reported as absence via
// resilience.ErrAbsent: page discovery treats it as "no such page",
// never as a fatal error.
type Fetcher struct {
	client  *http.Client
	opts    FetcherOptions
	limiter *rate.Limiter
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.PagesPerSecond == 0 {
		opts.PagesPerSecond = 2
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				// The disclosure service serves a self-signed certificate.
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.PagesPerSecond), 1),
	}
}

// PageURL returns the listing URL for a (page, date) pair.
func (f *Fetcher) PageURL(page int, date string) string {
	return fmt.Sprintf("%s/I_list_%03d_%s.html", f.opts.BaseURL, page, date)
}

// FetchPage retrieves one listing page's HTML. It returns
// resilience.ErrAbsent (wrapped) for non-200 responses and network
// failures.
func (f *Fetcher) FetchPage(ctx context.Context, page int, date string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "tdnet: limiter wait")
	}

	pageURL := f.PageURL(page, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "tdnet: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		zap.L().Warn("listing page fetch failed",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return "", eris.Wrapf(resilience.ErrAbsent, "tdnet: fetch %s: %v", pageURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", eris.Wrapf(resilience.ErrAbsent, "tdnet: %s returned %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrapf(resilience.ErrAbsent, "tdnet: read %s: %v", pageURL, err)
	}
	return string(body), nil
}
