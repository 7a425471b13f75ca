// Package fetch retrieves image assets over plain HTTP using the Colly
// library. Grid pages need a rendered browser; the CDN serving the images
// does not.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/harvest"
)

// downloadUserAgent matches a desktop browser closely enough for the CDN.
const downloadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Config holds the fetcher's HTTP settings.
type Config struct {
	Timeout time.Duration
	HostQPS float64
}

// CollyFetcher downloads one asset per call. Every call clones the base
// collector so handlers never leak between requests.
type CollyFetcher struct {
	base    *colly.Collector
	limiter *HostLimiter
	logger  *zap.Logger
}

var _ harvest.AssetFetcher = (*CollyFetcher)(nil)

// NewCollyFetcher builds a fetcher with the download headers the CDN
// expects and a per-host rate limiter.
func NewCollyFetcher(cfg Config, logger *zap.Logger) *CollyFetcher {
	base := colly.NewCollector(
		colly.UserAgent(downloadUserAgent),
		colly.IgnoreRobotsTxt(),
	)
	base.SetRequestTimeout(cfg.Timeout)

	return &CollyFetcher{
		base:    base,
		limiter: NewHostLimiter(cfg.HostQPS),
		logger:  logger,
	}
}

// Fetch retrieves rawURL and returns the response body. Non-200 statuses
// and empty bodies are errors; retrying is the caller's concern.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := f.base.Clone()

	var body []byte
	var fetchErr error

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Referer", harvest.BaseURL+"/")
	})
	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode != http.StatusOK {
			fetchErr = fmt.Errorf("unexpected status %d", r.StatusCode)
			return
		}
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch failed with status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", rawURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body from %s", rawURL)
	}
	return body, nil
}
