// Package rodriver implements driver.Browser on top of go-rod and the Chrome
// DevTools Protocol.
package rodriver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
)

// Config configures Chrome launch options.
type Config struct {
	Headless   bool          // Run in headless mode
	Timeout    time.Duration // Default element and navigation timeout
	Bin        string        // Chrome binary; empty lets rod find or download one
	ControlURL string        // Connect to an already running browser instead of launching
	NoSandbox  bool          // Needed in most containers
}

// DefaultConfig returns settings suitable for CI.
func DefaultConfig() Config {
	return Config{
		Headless:  true,
		Timeout:   30 * time.Second,
		NoSandbox: true,
	}
}

// Browser wraps a rod browser. Each session runs in its own incognito
// context.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
	logger   logger.Logger
}

// Launch starts (or connects to) Chrome.
func Launch(ctx context.Context, cfg Config, log logger.Logger) (*Browser, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	controlURL := cfg.ControlURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().
			Context(ctx).
			Headless(cfg.Headless).
			Set("disable-gpu")
		if cfg.NoSandbox {
			l = l.NoSandbox(true)
		}
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch Chrome: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	log.Info(ctx, "browser connected", map[string]interface{}{
		"driver":   "rod",
		"headless": cfg.Headless,
		"remote":   cfg.ControlURL != "",
	})

	return &Browser{
		browser:  b,
		launcher: l,
		cfg:      cfg,
		logger:   log,
	}, nil
}

// NewSession implements driver.Browser.
func (b *Browser) NewSession(ctx context.Context) (driver.Page, error) {
	inc, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := inc.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		inc.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		page.Close()
		inc.Close()
		return nil, fmt.Errorf("failed to enable network events: %w", err)
	}

	return &Page{
		browser: inc,
		page:    page,
		timeout: b.cfg.Timeout,
		logger:  b.logger,
	}, nil
}

// Close implements driver.Browser. The launched process is killed even if
// the CDP close call fails.
func (b *Browser) Close() error {
	err := b.browser.Close()
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	return err
}
