package rodriver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
)

// Element implements driver.Element by resolving its selector on every call.
type Element struct {
	page *Page
	sel  driver.Selector
}

// lookup finds the element without waiting.
func (e *Element) lookup(ctx context.Context) (*rod.Element, error) {
	pg := e.page.page.Context(ctx)

	var (
		found bool
		el    *rod.Element
		err   error
	)
	if e.sel.Kind == driver.ByCSS {
		found, el, err = pg.Has(e.sel.Value)
	} else {
		xp, xerr := e.sel.XPath()
		if xerr != nil {
			return nil, xerr
		}
		found, el, err = pg.HasX(xp)
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return el, nil
}

// resolve waits up to the page timeout for the element to appear.
func (e *Element) resolve(ctx context.Context) (*rod.Element, error) {
	pg := e.page.bounded(ctx)

	var (
		el  *rod.Element
		err error
	)
	if e.sel.Kind == driver.ByCSS {
		el, err = pg.Element(e.sel.Value)
	} else {
		xp, xerr := e.sel.XPath()
		if xerr != nil {
			return nil, xerr
		}
		el, err = pg.ElementX(xp)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", driver.ErrElementNotFound, e.sel)
		}
		return nil, fmt.Errorf("failed to find %s: %w", e.sel, err)
	}
	return el.Context(ctx), nil
}

// Visible implements driver.Element.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	el, err := e.lookup(ctx)
	if err != nil || el == nil {
		return false, err
	}
	return el.Visible()
}

// Value implements driver.Element.
func (e *Element) Value(ctx context.Context) (string, error) {
	el, err := e.resolve(ctx)
	if err != nil {
		return "", err
	}
	v, err := el.Property("value")
	if err != nil {
		return "", err
	}
	if v.Nil() {
		return "", nil
	}
	return v.Str(), nil
}

// Text implements driver.Element.
func (e *Element) Text(ctx context.Context) (string, error) {
	el, err := e.resolve(ctx)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// Attribute implements driver.Element.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	el, err := e.resolve(ctx)
	if err != nil {
		return "", false, err
	}
	v, err := el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Style implements driver.Element.
func (e *Element) Style(ctx context.Context, prop string) (string, error) {
	el, err := e.resolve(ctx)
	if err != nil {
		return "", err
	}
	res, err := el.Eval(computedStyleJS, prop)
	if err != nil {
		return "", fmt.Errorf("failed to read %s of %s: %w", prop, e.sel, err)
	}
	return res.Value.Str(), nil
}

// Fill implements driver.Element by replacing the current value.
func (e *Element) Fill(ctx context.Context, value string) error {
	el, err := e.resolve(ctx)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to select %s: %w", e.sel, err)
	}
	return el.Input(value)
}

// Clear implements driver.Element.
func (e *Element) Clear(ctx context.Context) error {
	return e.Fill(ctx, "")
}

// Click implements driver.Element.
func (e *Element) Click(ctx context.Context, delay time.Duration) error {
	el, err := e.resolve(ctx)
	if err != nil {
		return err
	}
	if delay <= 0 {
		return el.Click(proto.InputMouseButtonLeft, 1)
	}

	if err := el.Hover(); err != nil {
		return fmt.Errorf("failed to hover %s: %w", e.sel, err)
	}
	mouse := e.page.page.Context(ctx).Mouse
	if err := mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		_ = mouse.Up(proto.InputMouseButtonLeft, 1)
		return ctx.Err()
	}
	return mouse.Up(proto.InputMouseButtonLeft, 1)
}

// Screenshot implements driver.Element.
func (e *Element) Screenshot(ctx context.Context) ([]byte, error) {
	el, err := e.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}
