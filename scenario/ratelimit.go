package scenario

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
)

// Availability is the result of WaitForPageAvailable.
type Availability struct {
	Response *driver.Response
	Attempts int
	Waited   time.Duration
}

// WaitForPageAvailable navigates to url until the response is something other
// than 429. A failed navigation counts as still blocked. The loop sleeps
// interval between attempts and gives up once maxWait has elapsed.
func WaitForPageAvailable(ctx context.Context, page driver.Page, url string, interval, maxWait time.Duration, opts ...Option) (*Availability, error) {
	o := newOptions(opts)
	start := o.clock.Now()
	deadline := start.Add(maxWait)
	out := &Availability{}

	for o.clock.Now().Before(deadline) {
		out.Attempts++
		resp, err := page.Navigate(ctx, url)
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if err != nil {
			o.logger.Warn(ctx, "navigation failed, treating as blocked", map[string]interface{}{
				"url":     url,
				"attempt": out.Attempts,
				"error":   err.Error(),
			})
			resp = nil
		}

		if resp != nil && resp.Status != http.StatusTooManyRequests {
			out.Response = resp
			out.Waited = o.clock.Now().Sub(start)
			o.logger.Info(ctx, "page available", map[string]interface{}{
				"url":      url,
				"status":   resp.Status,
				"attempts": out.Attempts,
				"waited":   out.Waited.String(),
			})
			return out, nil
		}

		o.logger.Info(ctx, "page rate limited, waiting", map[string]interface{}{
			"url":      url,
			"attempt":  out.Attempts,
			"interval": interval.String(),
		})
		if err := o.clock.Sleep(ctx, interval); err != nil {
			return out, err
		}
	}

	out.Waited = o.clock.Now().Sub(start)
	return out, assertionf("availability", ErrAvailabilityTimeout, "%s still answering 429 after %s", url, maxWait)
}

// TriggerOutcome is the result of TriggerRateLimit.
type TriggerOutcome struct {
	Attempts int
	Response driver.Response
}

// TriggerRateLimit clicks action up to budget times, waiting settle after
// each click, and stops as soon as a 403 has been seen on the page. The
// response observer lives only for the duration of the call.
func TriggerRateLimit(ctx context.Context, page driver.Page, action driver.Element, budget int, settle time.Duration, opts ...Option) (*TriggerOutcome, error) {
	o := newOptions(opts)
	const step = "trigger rate limit"

	obs, err := page.Observe(ctx, driver.StatusIs(http.StatusForbidden))
	if err != nil {
		return nil, fmt.Errorf("failed to observe responses: %w", err)
	}
	defer obs.Close()

	out := &TriggerOutcome{}
	for out.Attempts < budget {
		out.Attempts++
		if err := action.Click(ctx, o.clickDelay); err != nil {
			return out, assertionf(step, err, "click %d failed", out.Attempts)
		}
		if err := o.clock.Sleep(ctx, settle); err != nil {
			return out, err
		}

		if resp, ok := obs.Observed(); ok {
			out.Response = resp
			o.logger.Info(ctx, "rate limit triggered", map[string]interface{}{
				"clicks": out.Attempts,
				"url":    resp.URL,
				"status": resp.Status,
			})
			o.capture(ctx, "after rate limit")
			return out, nil
		}
	}

	return out, assertionf(step, ErrRateLimitNotTriggered, "no 403 after %d clicks", budget)
}

// RecoverFromRateLimit waits out the cool-down, reloads and checks that the
// control is usable again. verify, when set, runs after the control is
// clicked and checks the resulting page state.
func RecoverFromRateLimit(ctx context.Context, page driver.Page, control driver.Element, cooldown time.Duration, verify func(ctx context.Context) error, opts ...Option) error {
	o := newOptions(opts)
	const step = "recover from rate limit"

	o.logger.Info(ctx, "waiting for rate limit cool-down", map[string]interface{}{
		"cooldown": cooldown.String(),
	})
	if err := o.clock.Sleep(ctx, cooldown); err != nil {
		return err
	}
	if err := page.Reload(ctx); err != nil {
		return assertionf(step, err, "reload failed")
	}
	if err := o.expectVisible(ctx, step, control, "rate limited control"); err != nil {
		return err
	}
	if err := control.Click(ctx, 0); err != nil {
		return assertionf(step, err, "control not clickable after cool-down")
	}
	if verify != nil {
		if err := verify(ctx); err != nil {
			return err
		}
	}

	o.logger.Info(ctx, "rate limit recovered", nil)
	return nil
}
