package scenario

import (
	"context"
	"time"

	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
)

// DefaultExpectTimeout bounds how long an expectation polls the page.
const DefaultExpectTimeout = 5 * time.Second

const expectPollInterval = 100 * time.Millisecond

// CaptureFunc takes a screenshot and attaches it under name.
type CaptureFunc func(ctx context.Context, name string)

// Option tunes the loops and expectations.
type Option func(*options)

type options struct {
	clock         Clock
	logger        logger.Logger
	capture       CaptureFunc
	clickDelay    time.Duration
	expectTimeout time.Duration
}

func newOptions(opts []Option) options {
	o := options{
		clock:         RealClock(),
		logger:        logger.Nop(),
		capture:       func(context.Context, string) {},
		expectTimeout: DefaultExpectTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCapture sets the screenshot hook.
func WithCapture(fn CaptureFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.capture = fn
		}
	}
}

// WithClickDelay sets how long the trigger loop holds each click.
func WithClickDelay(d time.Duration) Option {
	return func(o *options) { o.clickDelay = d }
}

// WithExpectTimeout sets how long expectations poll before failing.
func WithExpectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.expectTimeout = d
		}
	}
}
