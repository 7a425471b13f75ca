// Package pinterest renders the search grid in headless Chrome and extracts
// candidate records from the live DOM. The grid only populates through
// JavaScript and infinite scroll, so a plain HTTP fetch cannot serve here.
package pinterest

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/harvest"
)

// browserUserAgent is what the rendering browser presents. The asset
// download path sends its own, lighter agent.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

const (
	viewportWidth  = 1920
	viewportHeight = 1080
)

// Config holds browser-level settings shared by every session.
type Config struct {
	Headless bool
	Proxy    string
	// Timeout bounds each navigation or DOM operation, not the whole
	// session.
	Timeout time.Duration
}

// ChromeSource launches one browser per session from a shared exec
// allocator. Sessions are independent; closing one never affects another.
type ChromeSource struct {
	cfg             Config
	logger          *zap.Logger
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
}

var _ harvest.Source = (*ChromeSource)(nil)

// NewChromeSource prepares the exec allocator all sessions share. No
// browser starts until the first Open.
func NewChromeSource(cfg Config, logger *zap.Logger) *ChromeSource {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.NoSandbox,
		chromedp.WindowSize(viewportWidth, viewportHeight),
		chromedp.UserAgent(browserUserAgent),
	)
	if cfg.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.Proxy))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeSource{
		cfg:             cfg,
		logger:          logger,
		allocatorCtx:    allocatorCtx,
		allocatorCancel: allocatorCancel,
	}
}

// Open launches a fresh browser, warms it up on the home page to establish
// cookies, then lands on the topic's search grid.
func (s *ChromeSource) Open(ctx context.Context, query string) (harvest.Session, error) {
	browserCtx, browserCancel := chromedp.NewContext(s.allocatorCtx)

	sess := &gridSession{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		timeout:       s.cfg.Timeout,
		logger:        s.logger.With(zap.String("query", query)),
		query:         query,
		pause:         harvest.TimerPauser{},
		detector:      newBlockDetector(),
	}
	if err := sess.establish(ctx); err != nil {
		browserCancel()
		return nil, err
	}
	return sess, nil
}

// Close tears down the allocator and every browser spawned from it.
func (s *ChromeSource) Close() error {
	s.allocatorCancel()
	return nil
}
