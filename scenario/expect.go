package scenario

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
)

// poll evaluates cond until it holds or the expect timeout passes. The last
// observed detail is reported on failure.
func (o options) poll(ctx context.Context, step, what string, cond func(ctx context.Context) (bool, string, error)) error {
	deadline := o.clock.Now().Add(o.expectTimeout)
	var (
		detail  string
		lastErr error
	)
	for {
		ok, d, err := cond(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if ok {
			return nil
		}
		detail, lastErr = d, err
		if !o.clock.Now().Before(deadline) {
			break
		}
		if err := o.clock.Sleep(ctx, expectPollInterval); err != nil {
			return err
		}
	}

	msg := fmt.Sprintf("expected %s within %s", what, o.expectTimeout)
	if detail != "" {
		msg += " (" + detail + ")"
	}
	if lastErr != nil {
		return assertionf(step, fmt.Errorf("%w: %v", ErrUnexpectedState, lastErr), "%s", msg)
	}
	return assertionf(step, ErrUnexpectedState, "%s", msg)
}

func (o options) expectVisible(ctx context.Context, step string, el driver.Element, what string) error {
	return o.poll(ctx, step, what+" to be visible", func(ctx context.Context) (bool, string, error) {
		v, err := el.Visible(ctx)
		return err == nil && v, "", err
	})
}

func (o options) expectHidden(ctx context.Context, step string, el driver.Element, what string) error {
	return o.poll(ctx, step, what+" to be hidden", func(ctx context.Context) (bool, string, error) {
		v, err := el.Visible(ctx)
		// An element that cannot be probed is not on screen.
		return err != nil || !v, "", nil
	})
}

func (o options) expectTitle(ctx context.Context, step string, page driver.Page, re *regexp.Regexp) error {
	if re == nil {
		return nil
	}
	return o.poll(ctx, step, "title matching "+re.String(), func(ctx context.Context) (bool, string, error) {
		title, err := page.Title(ctx)
		if err != nil {
			return false, "", err
		}
		return re.MatchString(title), "title " + title, nil
	})
}

func (o options) expectURL(ctx context.Context, step, what string, page driver.Page, match func(string) bool) error {
	return o.poll(ctx, step, "url "+what, func(ctx context.Context) (bool, string, error) {
		u, err := page.URL(ctx)
		if err != nil {
			return false, "", err
		}
		return match(u), "url " + u, nil
	})
}
