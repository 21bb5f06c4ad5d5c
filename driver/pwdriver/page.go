package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"github.com/playwright-community/playwright-go"
)

const clearStorageJS = `() => {
	try { window.localStorage.clear() } catch (e) {}
	try { window.sessionStorage.clear() } catch (e) {}
}`

const computedStyleJS = `(el, prop) => window.getComputedStyle(el).getPropertyValue(prop)`

// Page implements driver.Page over a Playwright page. Playwright calls are
// not context aware; ctx is checked before each call.
type Page struct {
	bctx   playwright.BrowserContext
	page   playwright.Page
	logger logger.Logger

	// popup pages share the opener's context and close only their tab.
	popup bool
}

// Navigate implements driver.Page.
func (p *Page) Navigate(ctx context.Context, url string) (*driver.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := p.page.Goto(url)
	if err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if resp == nil {
		return nil, driver.ErrNoResponse
	}
	return &driver.Response{URL: resp.URL(), Status: resp.Status()}, nil
}

// Reload implements driver.Page.
func (p *Page) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Reload()
	return err
}

// Title implements driver.Page.
func (p *Page) Title(ctx context.Context) (string, error) {
	return p.page.Title()
}

// URL implements driver.Page.
func (p *Page) URL(ctx context.Context) (string, error) {
	return p.page.URL(), nil
}

// Find implements driver.Page.
func (p *Page) Find(sel driver.Selector) driver.Element {
	var loc playwright.Locator
	switch sel.Kind {
	case driver.ByLabel:
		loc = p.page.GetByLabel(sel.Value)
	case driver.ByButton:
		loc = p.page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{Name: sel.Value})
	case driver.ByText:
		loc = p.page.GetByText(sel.Value)
	default:
		loc = p.page.Locator(sel.Value)
	}
	return &Element{loc: loc.First(), sel: sel}
}

// Screenshot implements driver.Page.
func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
	})
}

// Cookies implements driver.Page.
func (p *Page) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	raw, err := p.bctx.Cookies()
	if err != nil {
		return nil, err
	}
	cookies := make([]driver.Cookie, len(raw))
	for i, c := range raw {
		cookies[i] = driver.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain}
	}
	return cookies, nil
}

// ClearSession implements driver.Page.
func (p *Page) ClearSession(ctx context.Context) error {
	if err := p.bctx.ClearCookies(); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	if _, err := p.page.Evaluate(clearStorageJS); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

// Observe implements driver.Page.
func (p *Page) Observe(ctx context.Context, match func(driver.Response) bool) (driver.Observer, error) {
	var latch *driver.Latch
	handler := func(r playwright.Response) {
		latch.Offer(driver.Response{URL: r.URL(), Status: r.Status()})
	}
	latch = driver.NewContextLatch(ctx, match, func() {
		p.page.RemoveListener("response", handler)
	})
	p.page.OnResponse(handler)
	return latch, nil
}

// ExpectPopup implements driver.Page.
func (p *Page) ExpectPopup(ctx context.Context, trigger func(ctx context.Context) error) (driver.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opened, err := p.page.ExpectPopup(func() error {
		return trigger(ctx)
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, driver.ErrNoPopup
		}
		return nil, fmt.Errorf("failed to wait for popup: %w", err)
	}
	if err := opened.WaitForLoadState(); err != nil {
		p.logger.Warn(ctx, "popup did not finish loading", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return &Page{bctx: p.bctx, page: opened, logger: p.logger, popup: true}, nil
}

// Close implements driver.Page.
func (p *Page) Close() error {
	if p.popup {
		return p.page.Close()
	}
	if err := p.page.Close(); err != nil {
		p.logger.Warn(context.Background(), "failed to close page", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return p.bctx.Close()
}

// Element implements driver.Element over a Playwright locator.
type Element struct {
	loc playwright.Locator
	sel driver.Selector
}

// Visible implements driver.Element.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	return e.loc.IsVisible()
}

// Value implements driver.Element.
func (e *Element) Value(ctx context.Context) (string, error) {
	return e.loc.InputValue()
}

// Text implements driver.Element.
func (e *Element) Text(ctx context.Context) (string, error) {
	return e.loc.TextContent()
}

// Attribute implements driver.Element. Playwright reports a missing
// attribute as an empty string.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.loc.GetAttribute(name)
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

// Style implements driver.Element.
func (e *Element) Style(ctx context.Context, prop string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := e.loc.Evaluate(computedStyleJS, prop)
	if err != nil {
		return "", fmt.Errorf("failed to read %s of %s: %w", prop, e.sel, err)
	}
	s, _ := v.(string)
	return s, nil
}

// Fill implements driver.Element.
func (e *Element) Fill(ctx context.Context, value string) error {
	return e.loc.Fill(value)
}

// Clear implements driver.Element.
func (e *Element) Clear(ctx context.Context) error {
	return e.loc.Clear()
}

// Click implements driver.Element.
func (e *Element) Click(ctx context.Context, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := playwright.LocatorClickOptions{}
	if delay > 0 {
		opts.Delay = playwright.Float(float64(delay.Milliseconds()))
	}
	return e.loc.Click(opts)
}

// Screenshot implements driver.Element.
func (e *Element) Screenshot(ctx context.Context) ([]byte, error) {
	return e.loc.Screenshot()
}
