// Package pwdriver implements driver.Browser with playwright-go. It needs the
// Playwright driver and browsers installed (playwright install chromium).
package pwdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"github.com/playwright-community/playwright-go"
)

// Config configures the Playwright browser.
type Config struct {
	Headless bool
	Timeout  time.Duration
	Install  bool // Download the driver and Chromium before launching
}

// Browser wraps a Playwright Chromium instance.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	cfg     Config
	logger  logger.Logger
}

// Launch starts Playwright and Chromium.
func Launch(ctx context.Context, cfg Config, log logger.Logger) (*Browser, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	if cfg.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	log.Info(ctx, "browser connected", map[string]interface{}{
		"driver":   "playwright",
		"headless": cfg.Headless,
		"version":  browser.Version(),
	})

	return &Browser{pw: pw, browser: browser, cfg: cfg, logger: log}, nil
}

// NewSession implements driver.Browser.
func (b *Browser) NewSession(ctx context.Context) (driver.Page, error) {
	bctx, err := b.browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(b.cfg.Timeout.Milliseconds()))

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return &Page{bctx: bctx, page: page, logger: b.logger}, nil
}

// Close implements driver.Browser.
func (b *Browser) Close() error {
	if err := b.browser.Close(); err != nil {
		b.pw.Stop()
		return err
	}
	return b.pw.Stop()
}
