package scraper

import (
	"context"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// captureRule matches in-page network responses by URL and receives their
// bodies once loading finishes.
type captureRule struct {
	name   string
	match  func(url string) bool
	handle func(body []byte)
}

// enableNetwork turns on CDP network events for the session.
func enableNetwork() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return network.Enable().Do(ctx)
	})
}

// listenForResponses registers a target listener that captures response
// bodies for the given rules. Bodies are only retrievable after the
// loadingFinished event, and the CDP call must not run inside the event
// callback, so retrieval happens on a separate goroutine tied to the session
// context.
func listenForResponses(ctx context.Context, logger *zap.Logger, rules []captureRule) {
	var mu sync.Mutex
	pending := make(map[network.RequestID]int)

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			for i, rule := range rules {
				if rule.match(e.Response.URL) {
					mu.Lock()
					pending[e.RequestID] = i
					mu.Unlock()
					break
				}
			}

		case *network.EventLoadingFinished:
			mu.Lock()
			idx, ok := pending[e.RequestID]
			if ok {
				delete(pending, e.RequestID)
			}
			mu.Unlock()
			if !ok {
				return
			}

			requestID := e.RequestID
			go func() {
				c := chromedp.FromContext(ctx)
				body, err := network.GetResponseBody(requestID).Do(cdp.WithExecutor(ctx, c.Target))
				if err != nil {
					logger.Debug("response body unavailable",
						zap.String("rule", rules[idx].name),
						zap.Error(err),
					)
					return
				}
				rules[idx].handle(body)
			}()
		}
	})
}

// bodyBuffer accumulates captured response bodies across a session.
// Handlers run on interception goroutines, readers on the session goroutine.
type bodyBuffer struct {
	mu   sync.Mutex
	data [][]byte
}

func newBodyBuffer() *bodyBuffer {
	return &bodyBuffer{}
}

func (b *bodyBuffer) add(body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, body)
}

func (b *bodyBuffer) bodies() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.data))
	copy(out, b.data)
	return out
}

// isLocationResponse matches the site's internal location-lookup endpoint.
func isLocationResponse(url string) bool {
	return strings.Contains(url, "/entity/pincode")
}

// isProductResponse matches the site's internal product-listing endpoint for
// the configured category.
func isProductResponse(url string, categoryKeyword string) bool {
	return strings.Contains(url, "ms.products") &&
		strings.Contains(strings.ToLower(url), categoryKeyword)
}
