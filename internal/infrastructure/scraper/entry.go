package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

// postalInputSelectors are the strategies for finding the postal-code input,
// tried in order. The site's markup drifts; any one of these matching within
// its timeout is enough.
var postalInputSelectors = []string{
	`input[type="tel"]`,
	`input[placeholder*="pincode" i]`,
	`input[name*="pincode" i]`,
	`input[autocomplete="postal-code"]`,
}

// suggestionSelectors are the strategies for the autosuggest dropdown entry
// matching the typed code. XPath, because the match is on text content.
func suggestionSelectors(code string) []string {
	return []string{
		fmt.Sprintf(`//li[contains(normalize-space(.), %q)]`, code),
		fmt.Sprintf(`//*[@role="option"][contains(normalize-space(.), %q)]`, code),
		fmt.Sprintf(`//div[contains(@class, "option")][contains(normalize-space(.), %q)]`, code),
	}
}

// enterPostalCode performs the site's location-entry interaction: navigate to
// the catalog page, locate the postal-code input, type the code character by
// character so the autosuggest fires, then confirm via the dropdown entry or,
// failing that, the keyboard. The caller intercepts whatever responses the
// interaction triggers.
func (b *Browser) enterPostalCode(ctx context.Context, code string) error {
	if err := chromedp.Run(ctx,
		enableNetwork(),
		chromedp.Navigate(b.cfg.BaseURL+b.cfg.CatalogPath),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return fmt.Errorf("navigation: %w", err)
	}

	input, err := b.findPostalInput(ctx)
	if err != nil {
		return err
	}

	if err := chromedp.Run(ctx,
		chromedp.Click(input, chromedp.ByQuery),
		chromedp.SetValue(input, "", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("focus input: %w", err)
	}

	for _, r := range code {
		if err := chromedp.Run(ctx, chromedp.SendKeys(input, string(r), chromedp.ByQuery)); err != nil {
			return fmt.Errorf("typing: %w", err)
		}
		select {
		case <-time.After(b.cfg.TypeDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := chromedp.Run(ctx, chromedp.Sleep(2*time.Second)); err != nil {
		return err
	}

	if b.clickSuggestion(ctx, code) {
		b.logger.Debug("confirmed via dropdown suggestion", zap.String("postal_code", code))
	} else {
		// No dropdown appeared; keyboard confirmation usually still
		// registers the code with the location matcher.
		b.logger.Debug("no dropdown suggestion, submitting via keyboard", zap.String("postal_code", code))
		if err := chromedp.Run(ctx, chromedp.KeyEvent(kb.Enter)); err != nil {
			return fmt.Errorf("keyboard submit: %w", err)
		}
	}

	// Let the location update and listing reload land.
	return chromedp.Run(ctx, chromedp.Sleep(b.cfg.SettleDelay))
}

// findPostalInput tries each input selector strategy with a short timeout and
// returns the first that becomes visible.
func (b *Browser) findPostalInput(ctx context.Context) (string, error) {
	for _, sel := range postalInputSelectors {
		stepCtx, cancel := context.WithTimeout(ctx, b.cfg.StepTimeout)
		err := chromedp.Run(stepCtx, chromedp.WaitVisible(sel, chromedp.ByQuery))
		cancel()
		if err == nil {
			return sel, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		b.logger.Debug("postal input selector missed", zap.String("selector", sel))
	}
	return "", fmt.Errorf("postal-code input not found by any selector strategy")
}

// clickSuggestion tries each dropdown strategy and clicks the first match.
func (b *Browser) clickSuggestion(ctx context.Context, code string) bool {
	for _, sel := range suggestionSelectors(code) {
		stepCtx, cancel := context.WithTimeout(ctx, b.cfg.StepTimeout/2)
		err := chromedp.Run(stepCtx,
			chromedp.WaitVisible(sel, chromedp.BySearch),
			chromedp.Click(sel, chromedp.BySearch),
		)
		cancel()
		if err == nil {
			_ = chromedp.Run(ctx, chromedp.Sleep(3*time.Second))
			return true
		}
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}
