// Package driver defines the browser-automation surface the scenarios use.
// Concrete adapters live in rodriver (go-rod), pwdriver (playwright-go) and
// fakedriver (scripted, for tests).
package driver

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoResponse is returned by Navigate when the browser produced no
	// document response.
	ErrNoResponse = errors.New("navigation produced no response")

	// ErrElementNotFound is returned when a selector matches nothing within
	// the driver timeout.
	ErrElementNotFound = errors.New("element not found")

	// ErrNoPopup is returned by ExpectPopup when the trigger opened no tab.
	ErrNoPopup = errors.New("no popup opened")
)

// Response is a single HTTP response seen by the browser.
type Response struct {
	URL    string
	Status int
}

// Cookie is a browser cookie.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// Browser launches isolated sessions.
type Browser interface {
	// NewSession opens a page in a fresh browser context, so cookies and
	// storage are not shared with other sessions.
	NewSession(ctx context.Context) (Page, error)

	// Close shuts the browser down.
	Close() error
}

// Page is one tab of a session.
type Page interface {
	Navigate(ctx context.Context, url string) (*Response, error)
	Reload(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)

	// Find returns a lazy handle; nothing is resolved until an element
	// method is called.
	Find(sel Selector) Element

	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	Cookies(ctx context.Context) ([]Cookie, error)

	// ClearSession removes cookies, localStorage and sessionStorage.
	ClearSession(ctx context.Context) error

	// Observe subscribes to responses accepted by match. The subscription
	// lives until the returned Observer is closed or ctx ends.
	Observe(ctx context.Context, match func(Response) bool) (Observer, error)

	// ExpectPopup runs trigger and returns the tab it opened, such as a
	// target=_blank link. Closing the popup leaves this page open.
	ExpectPopup(ctx context.Context, trigger func(ctx context.Context) error) (Page, error)

	Close() error
}

// Element is a lazily resolved DOM element.
type Element interface {
	// Visible reports whether the element exists and is rendered. It does
	// not wait.
	Visible(ctx context.Context) (bool, error)

	Value(ctx context.Context) (string, error)
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)

	// Style returns the computed value of a CSS property.
	Style(ctx context.Context, prop string) (string, error)

	Fill(ctx context.Context, value string) error
	Clear(ctx context.Context) error

	// Click presses and releases the primary button, holding it for delay.
	Click(ctx context.Context, delay time.Duration) error

	Screenshot(ctx context.Context) ([]byte, error)
}

// Observer exposes the first response accepted by its match function.
type Observer interface {
	// Observed returns the first matching response. Once a response has
	// been observed the result never changes.
	Observed() (Response, bool)

	// Close unsubscribes. It is safe to call more than once.
	Close()
}

// StatusIs returns a match function for Observe accepting one status code.
func StatusIs(code int) func(Response) bool {
	return func(r Response) bool { return r.Status == code }
}
