package pinterest

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/harvest"
)

// staticHeightLimit ends the session after this many consecutive scroll
// rounds that fail to grow the document. The grid loads forever for broad
// queries; a static height is the only end-of-content signal it gives.
const staticHeightLimit = 3

// stealthScript hides the usual automation tells before any page script
// runs. Without it the grid frequently serves an empty shell.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
window.chrome = { runtime: {} };
`

// acceptCookiesScript clicks the consent banner when present. The banner
// only shows for fresh profiles, so failure to find it is the normal case.
const acceptCookiesScript = `(() => {
	for (const b of document.querySelectorAll('button')) {
		if (b.textContent && b.textContent.trim() === 'Accept all') {
			b.click();
			return true;
		}
	}
	return false;
})()`

// gridSession streams one topic's grid. Not safe for concurrent use; each
// harvester owns its session exclusively.
type gridSession struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	timeout       time.Duration
	logger        *zap.Logger
	query         string
	pause         harvest.Pauser
	detector      *blockDetector

	lastHeight  int64
	staticPulls int
	exhausted   bool
}

var _ harvest.Session = (*gridSession)(nil)

// establish warms the browser up: stealth hooks, realistic headers, a visit
// to the home page for cookies, then the search grid itself.
func (s *gridSession) establish(ctx context.Context) error {
	prep := chromedp.Tasks{
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.5",
			"DNT":                       "1",
			"Upgrade-Insecure-Requests": "1",
		}),
		emulation.SetUserAgentOverride(browserUserAgent).WithAcceptLanguage("en-US,en;q=0.5"),
		emulation.SetTimezoneOverride("America/New_York"),
		chromedp.ActionFunc(func(c context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(c)
			return err
		}),
	}
	if err := s.run(ctx, s.timeout, prep); err != nil {
		return fmt.Errorf("prepare browser: %w", err)
	}

	if err := s.run(ctx, s.timeout,
		chromedp.Navigate(harvest.BaseURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("open home page: %w", err)
	}
	s.pause.Pause(ctx, harvest.JitterBetween(2*time.Second, 4*time.Second))

	if err := s.run(ctx, s.timeout,
		chromedp.Navigate(harvest.SearchURL(s.query)),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("open search grid: %w", err)
	}

	s.dismissCookieBanner(ctx)
	return ctx.Err()
}

// NextBatch scrolls the grid once and returns every candidate currently in
// the DOM. Repeats across calls are expected; the dedup ledger upstream
// resolves them. Category and topic attribution happen upstream too.
func (s *gridSession) NextBatch(ctx context.Context) ([]harvest.Pin, error) {
	if s.exhausted {
		return nil, harvest.ErrEndOfStream
	}

	if err := s.scrollRound(ctx); err != nil {
		return nil, fmt.Errorf("scroll grid: %w", err)
	}

	var html string
	var height int64
	if err := s.run(ctx, s.timeout,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate("document.body.scrollHeight", &height),
	); err != nil {
		return nil, fmt.Errorf("snapshot grid: %w", err)
	}

	if s.detector.Blocked(html) {
		return nil, fmt.Errorf("grid served a block wall for %q", s.query)
	}

	if height == s.lastHeight {
		s.staticPulls++
	} else {
		s.staticPulls = 0
		s.lastHeight = height
	}

	pins := ParsePins(html, time.Now().UTC())
	s.logger.Debug("Grid snapshot",
		zap.Int("visible_pins", len(pins)),
		zap.Int64("height", height),
		zap.Int("static_pulls", s.staticPulls),
	)

	if s.staticPulls >= staticHeightLimit {
		s.exhausted = true
		if len(pins) == 0 {
			return nil, harvest.ErrEndOfStream
		}
	}
	return pins, nil
}

// Close shuts the session's browser down.
func (s *gridSession) Close() error {
	s.browserCancel()
	return nil
}

// scrollRound performs a few human-paced partial scrolls, a stray mouse
// move, then the settle delay that gives the grid time to load more tiles.
func (s *gridSession) scrollRound(ctx context.Context) error {
	steps := 2 + rand.Intn(4)
	for i := 0; i < steps; i++ {
		distance := 300 + rand.Intn(viewportHeight-500+1)
		script := fmt.Sprintf("window.scrollBy(0, %d)", distance)
		if err := s.run(ctx, s.timeout, chromedp.Evaluate(script, nil)); err != nil {
			return err
		}
		s.pause.Pause(ctx, harvest.JitterBetween(800*time.Millisecond, 2200*time.Millisecond))
	}

	s.jiggleMouse(ctx)
	s.pause.Pause(ctx, harvest.JitterBetween(1800*time.Millisecond, 4200*time.Millisecond))
	return ctx.Err()
}

func (s *gridSession) jiggleMouse(ctx context.Context) {
	x := float64(100 + rand.Intn(viewportWidth-200))
	y := float64(100 + rand.Intn(viewportHeight-200))
	err := s.run(ctx, s.timeout, chromedp.ActionFunc(func(c context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(c)
	}))
	if err != nil {
		s.logger.Debug("Mouse move failed", zap.Error(err))
	}
}

func (s *gridSession) dismissCookieBanner(ctx context.Context) {
	var clicked bool
	if err := s.run(ctx, 8*time.Second, chromedp.Evaluate(acceptCookiesScript, &clicked)); err != nil {
		s.logger.Debug("Cookie banner check failed", zap.Error(err))
		return
	}
	if clicked {
		s.logger.Debug("Dismissed cookie banner")
	}
}

// run executes actions against the session's browser under a timeout, with
// the caller's context able to cancel the work early.
func (s *gridSession) run(ctx context.Context, budget time.Duration, actions ...chromedp.Action) error {
	taskCtx, cancelTask := context.WithTimeout(s.browserCtx, budget)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	return chromedp.Run(taskCtx, actions...)
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
