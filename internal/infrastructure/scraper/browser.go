// Package scraper drives a headless browser against the upstream shop, which
// exposes no stable public API. Location resolution and catalog fetching both
// work by performing the site's own postal-code entry interaction and
// intercepting the internal network responses the page triggers.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stockwatch/backend/internal/domain/catalog"
	"github.com/stockwatch/backend/internal/domain/location"
	"go.uber.org/zap"
)

const (
	defaultNavTimeout  = 60 * time.Second
	defaultStepTimeout = 10 * time.Second
	defaultTypeDelay   = 100 * time.Millisecond
	defaultSettleDelay = 5 * time.Second
)

// Config contains configuration for the browser-driven scraper
type Config struct {
	// BaseURL of the upstream shop
	BaseURL string
	// CatalogPath is the category page that both triggers the location
	// prompt and loads the product listing
	CatalogPath string
	// UserAgent presented by the browser
	UserAgent string
	// RemoteURL attaches to a remote Chrome/Chromium instance (optional);
	// if empty, a new browser is launched per session
	RemoteURL string
	// Headless mode (default: true)
	Headless bool
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// NavTimeout bounds one whole fetch session
	NavTimeout time.Duration
	// StepTimeout bounds each selector strategy
	StepTimeout time.Duration
	// TypeDelay paces postal-code typing; the site's autosuggest only
	// activates on incremental input
	TypeDelay time.Duration
	// SettleDelay waits for the page's own follow-up requests to land
	SettleDelay time.Duration
}

// Browser owns the Chrome allocator and performs isolated scraping sessions.
// Each logical fetch runs in its own browser context and tears it down fully,
// so page state never leaks between unrelated postal codes.
type Browser struct {
	cfg         Config
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewBrowser creates a browser-driven scraper
func NewBrowser(cfg Config, logger *zap.Logger) *Browser {
	if cfg.NavTimeout == 0 {
		cfg.NavTimeout = defaultNavTimeout
	}
	if cfg.StepTimeout == 0 {
		cfg.StepTimeout = defaultStepTimeout
	}
	if cfg.TypeDelay == 0 {
		cfg.TypeDelay = defaultTypeDelay
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Browser{cfg: cfg, logger: logger}
	b.initAllocator()
	return b
}

// initAllocator initializes the Chrome allocator
func (b *Browser) initAllocator() {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
	)
	if b.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.cfg.UserAgent))
	}
	if b.cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	if b.cfg.RemoteURL != "" {
		b.allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(context.Background(), b.cfg.RemoteURL)
	} else {
		b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}
}

// newSession creates an isolated browser context bounded by the session
// timeout. The returned cancel tears down the whole browser context.
func (b *Browser) newSession(parent context.Context) (context.Context, context.CancelFunc) {
	browserCtx, browserCancel := chromedp.NewContext(b.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			b.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	ctx, timeoutCancel := context.WithTimeout(browserCtx, b.cfg.NavTimeout)

	stop := context.AfterFunc(parent, timeoutCancel)
	return ctx, func() {
		stop()
		timeoutCancel()
		browserCancel()
	}
}

// LookupLocation resolves a postal code by performing the location-entry
// interaction and intercepting the site's internal location response. It
// returns nil with no error when the site answered but had no usable record.
func (b *Browser) LookupLocation(ctx context.Context, postalCode string) (*location.Resolution, error) {
	ctx, cancel := b.newSession(ctx)
	defer cancel()

	locations := newBodyBuffer()
	listenForResponses(ctx, b.logger, []captureRule{
		{name: "location", match: isLocationResponse, handle: locations.add},
	})

	if err := b.enterPostalCode(ctx, postalCode); err != nil {
		return nil, fmt.Errorf("location entry failed for %s: %w", postalCode, err)
	}

	for _, body := range locations.bodies() {
		if res, ok := parseLocationResponse(body, postalCode); ok {
			b.logger.Info("live location lookup succeeded",
				zap.String("postal_code", postalCode),
				zap.String("partition", res.PartitionName),
			)
			return res, nil
		}
	}

	b.logger.Warn("no location record intercepted", zap.String("postal_code", postalCode))
	return nil, nil
}

// FetchCatalog loads the catalog page for the resolution's canonical code and
// assembles the deduplicated product list from every intercepted listing
// response. Stock quantities are partition-specific. A failed or empty
// interception yields an empty list; stale data is never served.
func (b *Browser) FetchCatalog(ctx context.Context, res *location.Resolution) ([]catalog.ProductSnapshot, error) {
	code := res.CodeForCatalog()

	ctx, cancel := b.newSession(ctx)
	defer cancel()

	keyword := b.categoryKeyword()
	listings := newBodyBuffer()
	listenForResponses(ctx, b.logger, []captureRule{
		{name: "products", match: func(url string) bool { return isProductResponse(url, keyword) }, handle: listings.add},
	})

	if err := b.enterPostalCode(ctx, code); err != nil {
		return nil, fmt.Errorf("catalog fetch failed for %s: %w", code, err)
	}

	var raw []rawProduct
	for _, body := range listings.bodies() {
		items, err := parseProductResponse(body)
		if err != nil {
			b.logger.Debug("skipping unparseable listing response", zap.Error(err))
			continue
		}
		raw = append(raw, items...)
	}

	if len(raw) == 0 {
		b.logger.Warn("no products intercepted",
			zap.String("postal_code", code),
			zap.String("partition", res.PartitionName),
		)
		return nil, nil
	}

	snapshots := make([]catalog.ProductSnapshot, 0, len(raw))
	for _, item := range raw {
		snapshots = append(snapshots, item.toSnapshot(b.cfg.BaseURL))
	}
	deduped := catalog.DeduplicateBySKU(snapshots)

	b.logger.Info("catalog fetched",
		zap.String("postal_code", code),
		zap.String("partition", res.PartitionName),
		zap.Int("raw_items", len(raw)),
		zap.Int("products", len(deduped)),
	)
	return deduped, nil
}

// categoryKeyword is the listing-response discriminator derived from the last
// segment of the catalog path.
func (b *Browser) categoryKeyword() string {
	path := strings.Trim(b.cfg.CatalogPath, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return strings.ToLower(path)
}

// Close releases the Chrome allocator
func (b *Browser) Close() error {
	if b.allocCancel != nil {
		b.allocCancel()
	}
	return nil
}
