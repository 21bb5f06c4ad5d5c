// Package fakedriver is a scripted, in-memory driver.Browser for tests.
// Elements, titles and responses are set up by the test; every call is
// recorded so assertions can check the exact interaction sequence.
package fakedriver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
)

// ErrClosed is returned by operations on a closed page.
var ErrClosed = errors.New("page closed")

// Browser hands out pages built by NewPage.
type Browser struct {
	// NewPage builds each session's page. Defaults to New.
	NewPage func() *Page

	mu       sync.Mutex
	sessions []*Page
	closed   bool
}

// NewSession implements driver.Browser.
func (b *Browser) NewSession(ctx context.Context) (driver.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	var p *Page
	if b.NewPage != nil {
		p = b.NewPage()
	} else {
		p = New()
	}
	b.sessions = append(b.sessions, p)
	return p, nil
}

// Sessions returns the pages opened so far.
func (b *Browser) Sessions() []*Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Page(nil), b.sessions...)
}

// Close implements driver.Browser.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Page is a scripted driver.Page.
type Page struct {
	// OnNavigate answers Navigate. The default returns 200 and moves the
	// page to url.
	OnNavigate func(ctx context.Context, url string) (*driver.Response, error)
	// OnReload runs on Reload.
	OnReload func(ctx context.Context) error
	// OnClearSession runs after cookies are cleared.
	OnClearSession func(ctx context.Context) error

	mu        sync.Mutex
	title     string
	url       string
	cookies   []driver.Cookie
	elements  map[string]*Element
	observers []*driver.Latch
	popups    []*Page
	calls     []string
	closed    bool
}

// New returns an empty page at about:blank.
func New() *Page {
	return &Page{url: "about:blank", elements: make(map[string]*Element)}
}

func (p *Page) record(format string, args ...interface{}) {
	p.mu.Lock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
	p.mu.Unlock()
}

// Calls returns the recorded page-level calls, such as "navigate <url>".
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// SetTitle sets the document title.
func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	p.title = title
	p.mu.Unlock()
}

// SetURL sets the current URL.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
}

// SetCookies replaces the cookie jar.
func (p *Page) SetCookies(cookies ...driver.Cookie) {
	p.mu.Lock()
	p.cookies = cookies
	p.mu.Unlock()
}

// Element returns the element for sel, creating a hidden one on first use.
func (p *Page) Element(sel driver.Selector) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := sel.String()
	el, ok := p.elements[key]
	if !ok {
		el = &Element{page: p, sel: sel, attrs: make(map[string]string)}
		p.elements[key] = el
	}
	return el
}

// Emit delivers a response to every open observer, as the browser's event
// goroutine would.
func (p *Page) Emit(resp driver.Response) {
	p.mu.Lock()
	observers := append([]*driver.Latch(nil), p.observers...)
	p.mu.Unlock()
	for _, o := range observers {
		o.Offer(resp)
	}
}

// OpenObservers returns the number of observers not yet closed.
func (p *Page) OpenObservers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, o := range p.observers {
		if !o.Closed() {
			n++
		}
	}
	return n
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Closed() {
		return ErrClosed
	}
	return nil
}

// Navigate implements driver.Page.
func (p *Page) Navigate(ctx context.Context, url string) (*driver.Response, error) {
	if err := p.checkOpen(ctx); err != nil {
		return nil, err
	}
	p.record("navigate %s", url)
	if p.OnNavigate != nil {
		return p.OnNavigate(ctx, url)
	}
	p.SetURL(url)
	return &driver.Response{URL: url, Status: 200}, nil
}

// Reload implements driver.Page.
func (p *Page) Reload(ctx context.Context) error {
	if err := p.checkOpen(ctx); err != nil {
		return err
	}
	p.record("reload")
	if p.OnReload != nil {
		return p.OnReload(ctx)
	}
	return nil
}

// Title implements driver.Page.
func (p *Page) Title(ctx context.Context) (string, error) {
	if err := p.checkOpen(ctx); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

// URL implements driver.Page.
func (p *Page) URL(ctx context.Context) (string, error) {
	if err := p.checkOpen(ctx); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

// Find implements driver.Page.
func (p *Page) Find(sel driver.Selector) driver.Element {
	return p.Element(sel)
}

// Screenshot implements driver.Page. The image is a placeholder naming the
// current URL.
func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if err := p.checkOpen(ctx); err != nil {
		return nil, err
	}
	p.record("screenshot")
	u, _ := p.URL(ctx)
	return []byte("png:" + u), nil
}

// Cookies implements driver.Page.
func (p *Page) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	if err := p.checkOpen(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]driver.Cookie(nil), p.cookies...), nil
}

// ClearSession implements driver.Page.
func (p *Page) ClearSession(ctx context.Context) error {
	if err := p.checkOpen(ctx); err != nil {
		return err
	}
	p.record("clear-session")
	p.mu.Lock()
	p.cookies = nil
	p.mu.Unlock()
	if p.OnClearSession != nil {
		return p.OnClearSession(ctx)
	}
	return nil
}

// Observe implements driver.Page.
func (p *Page) Observe(ctx context.Context, match func(driver.Response) bool) (driver.Observer, error) {
	if err := p.checkOpen(ctx); err != nil {
		return nil, err
	}
	latch := driver.NewLatch(match, nil)
	p.mu.Lock()
	p.observers = append(p.observers, latch)
	p.mu.Unlock()
	return latch, nil
}

// ExpectPopup implements driver.Page. It returns the popup queued by an
// element clicked during trigger, see Element.SetPopup.
func (p *Page) ExpectPopup(ctx context.Context, trigger func(ctx context.Context) error) (driver.Page, error) {
	if err := p.checkOpen(ctx); err != nil {
		return nil, err
	}
	p.record("expect-popup")
	p.mu.Lock()
	p.popups = nil
	p.mu.Unlock()

	if err := trigger(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.popups) == 0 {
		return nil, driver.ErrNoPopup
	}
	popup := p.popups[0]
	p.popups = p.popups[1:]
	return popup, nil
}

// Close implements driver.Page.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Element is a scripted driver.Element.
type Element struct {
	// OnClick runs on every click after the click is counted.
	OnClick func(ctx context.Context) error
	// VisibleFunc overrides the visibility flag when set.
	VisibleFunc func(ctx context.Context) (bool, error)

	page *Page
	sel  driver.Selector

	mu      sync.Mutex
	visible bool
	value   string
	text    string
	attrs   map[string]string
	styles  map[string]string
	popup   *Page
	clicks  int
	delays  []time.Duration
	fills   []string
	clears  int
}

// SetVisible shows or hides the element.
func (e *Element) SetVisible(v bool) *Element {
	e.mu.Lock()
	e.visible = v
	e.mu.Unlock()
	return e
}

// SetValue sets the input value.
func (e *Element) SetValue(v string) *Element {
	e.mu.Lock()
	e.value = v
	e.mu.Unlock()
	return e
}

// SetText sets the text content.
func (e *Element) SetText(v string) *Element {
	e.mu.Lock()
	e.text = v
	e.mu.Unlock()
	return e
}

// SetAttribute sets an attribute.
func (e *Element) SetAttribute(name, value string) *Element {
	e.mu.Lock()
	e.attrs[name] = value
	e.mu.Unlock()
	return e
}

// SetStyle sets the computed value of a CSS property.
func (e *Element) SetStyle(prop, value string) *Element {
	e.mu.Lock()
	if e.styles == nil {
		e.styles = make(map[string]string)
	}
	e.styles[prop] = value
	e.mu.Unlock()
	return e
}

// SetPopup makes every click open popup as a new tab.
func (e *Element) SetPopup(popup *Page) *Element {
	e.mu.Lock()
	e.popup = popup
	e.mu.Unlock()
	return e
}

// Clicks returns how many times the element was clicked.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// ClickDelays returns the hold delay of every click.
func (e *Element) ClickDelays() []time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]time.Duration(nil), e.delays...)
}

// Fills returns every value filled in.
func (e *Element) Fills() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.fills...)
}

// Clears returns how many times Clear was called.
func (e *Element) Clears() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clears
}

func (e *Element) isVisible(ctx context.Context) (bool, error) {
	if e.VisibleFunc != nil {
		return e.VisibleFunc(ctx)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible, nil
}

func (e *Element) require(ctx context.Context) error {
	if err := e.page.checkOpen(ctx); err != nil {
		return err
	}
	ok, err := e.isVisible(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", e.sel, driver.ErrElementNotFound)
	}
	return nil
}

// Visible implements driver.Element.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	if err := e.page.checkOpen(ctx); err != nil {
		return false, err
	}
	return e.isVisible(ctx)
}

// Value implements driver.Element.
func (e *Element) Value(ctx context.Context) (string, error) {
	if err := e.require(ctx); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, nil
}

// Text implements driver.Element.
func (e *Element) Text(ctx context.Context) (string, error) {
	if err := e.require(ctx); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, nil
}

// Attribute implements driver.Element.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := e.require(ctx); err != nil {
		return "", false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.attrs[name]
	return v, ok, nil
}

// Style implements driver.Element. Unset properties are empty.
func (e *Element) Style(ctx context.Context, prop string) (string, error) {
	if err := e.require(ctx); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.styles[prop], nil
}

// Fill implements driver.Element.
func (e *Element) Fill(ctx context.Context, value string) error {
	if err := e.require(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = value
	e.fills = append(e.fills, value)
	return nil
}

// Clear implements driver.Element.
func (e *Element) Clear(ctx context.Context) error {
	if err := e.require(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = ""
	e.clears++
	return nil
}

// Click implements driver.Element.
func (e *Element) Click(ctx context.Context, delay time.Duration) error {
	if err := e.require(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	e.clicks++
	e.delays = append(e.delays, delay)
	fn := e.OnClick
	popup := e.popup
	e.mu.Unlock()

	e.page.record("click %s", e.sel)
	if popup != nil {
		e.page.mu.Lock()
		e.page.popups = append(e.page.popups, popup)
		e.page.mu.Unlock()
	}
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// Screenshot implements driver.Element.
func (e *Element) Screenshot(ctx context.Context) ([]byte, error) {
	if err := e.require(ctx); err != nil {
		return nil, err
	}
	return []byte("png:" + e.sel.String()), nil
}
