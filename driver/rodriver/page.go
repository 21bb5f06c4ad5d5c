package rodriver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
)

const clearStorageJS = `() => {
	try { window.localStorage.clear() } catch (e) {}
	try { window.sessionStorage.clear() } catch (e) {}
}`

const computedStyleJS = `function(prop) {
	return window.getComputedStyle(this).getPropertyValue(prop)
}`

// Page implements driver.Page for one rod page in an incognito context.
type Page struct {
	browser *rod.Browser
	page    *rod.Page
	timeout time.Duration
	logger  logger.Logger

	// popup pages share the opener's context and close only their tab.
	popup bool
}

func (p *Page) bounded(ctx context.Context) *rod.Page {
	return p.page.Context(ctx).Timeout(p.timeout)
}

// Navigate implements driver.Page. The returned response is the last
// document response seen while loading, which follows redirects.
func (p *Page) Navigate(ctx context.Context, url string) (*driver.Response, error) {
	var (
		mu   sync.Mutex
		last *driver.Response
	)

	evCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	wait := p.page.Context(evCtx).EachEvent(func(e *proto.NetworkResponseReceived) {
		if e.Type != proto.NetworkResourceTypeDocument {
			return
		}
		mu.Lock()
		last = &driver.Response{URL: e.Response.URL, Status: e.Response.Status}
		mu.Unlock()
	})
	go wait()

	pg := p.bounded(ctx)
	if err := pg.Navigate(url); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed waiting for %s to load: %w", url, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if last == nil {
		return nil, driver.ErrNoResponse
	}
	resp := *last
	return &resp, nil
}

// Reload implements driver.Page.
func (p *Page) Reload(ctx context.Context) error {
	pg := p.bounded(ctx)
	if err := pg.Reload(); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	return pg.WaitLoad()
}

// Title implements driver.Page.
func (p *Page) Title(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// URL implements driver.Page.
func (p *Page) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Find implements driver.Page.
func (p *Page) Find(sel driver.Selector) driver.Element {
	return &Element{page: p, sel: sel}
}

// Screenshot implements driver.Page.
func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Cookies implements driver.Page.
func (p *Page) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	raw, err := p.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, err
	}
	cookies := make([]driver.Cookie, len(raw))
	for i, c := range raw {
		cookies[i] = driver.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain}
	}
	return cookies, nil
}

// ClearSession implements driver.Page. Cookies are cleared for this
// incognito context only.
func (p *Page) ClearSession(ctx context.Context) error {
	if err := p.browser.Context(ctx).SetCookies(nil); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	if _, err := p.page.Context(ctx).Eval(clearStorageJS); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

// Observe implements driver.Page.
func (p *Page) Observe(ctx context.Context, match func(driver.Response) bool) (driver.Observer, error) {
	evCtx, cancel := context.WithCancel(ctx)
	latch := driver.NewLatch(match, cancel)

	wait := p.page.Context(evCtx).EachEvent(func(e *proto.NetworkResponseReceived) {
		latch.Offer(driver.Response{URL: e.Response.URL, Status: e.Response.Status})
	})
	go wait()

	return latch, nil
}

// ExpectPopup implements driver.Page.
func (p *Page) ExpectPopup(ctx context.Context, trigger func(ctx context.Context) error) (driver.Page, error) {
	wait := p.bounded(ctx).WaitOpen()
	if err := trigger(ctx); err != nil {
		return nil, err
	}
	opened, err := wait()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, driver.ErrNoPopup
		}
		return nil, fmt.Errorf("failed to wait for popup: %w", err)
	}
	return &Page{
		browser: p.browser,
		page:    opened,
		timeout: p.timeout,
		logger:  p.logger,
		popup:   true,
	}, nil
}

// Close implements driver.Page and disposes of the incognito context.
func (p *Page) Close() error {
	if p.popup {
		return p.page.Close()
	}
	if err := p.page.Close(); err != nil {
		p.logger.Warn(context.Background(), "failed to close page", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return p.browser.Close()
}
