//go:build e2e

package scenario_test

import (
	"context"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver/rodriver"
	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
	"github.com/hairizuanbinnoorazman/ui-e2e/fakesut"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"github.com/hairizuanbinnoorazman/ui-e2e/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContext returns a context canceled when the test finishes, like
// testing.T.Context (Go 1.24+).
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// Runs the whole catalog in a real headless browser against the bundled
// fake application:
//
//	go test -tags e2e ./scenario/...
func TestCatalogAgainstFakeSUT(t *testing.T) {
	log := logger.NewTestLogger()

	sut, err := fakesut.New(fakesut.Config{
		Users:          map[string]string{"user@example.com": "password123"},
		ActionBurst:    2,
		ActionInterval: time.Minute,
		Cooldown:       time.Second,
	}, logger.Nop())
	require.NoError(t, err)
	ts := httptest.NewServer(sut.Handler())
	t.Cleanup(ts.Close)
	cfg := sut.Config()

	src := envconfig.MapSource{
		envconfig.KeyBaseURL:            ts.URL,
		envconfig.KeyLoginEndpoint:      "/login",
		envconfig.KeyPageEndpoint:       cfg.PagePath,
		envconfig.KeyMaxLoginAttempts:   strconv.Itoa(cfg.MaxLoginAttempts),
		envconfig.KeyRateLimitAttempts:  strconv.Itoa(cfg.ActionBurst + 2),
		envconfig.KeyTimeoutErrorS:      "2",
		envconfig.KeyPageTitleRegex:     "^" + cfg.LoginTitle + "$",
		envconfig.KeyPageTitleMain:      "^" + cfg.MainTitle + "$",
		envconfig.KeyPageTestTitle:      "^" + cfg.PageTitle + "$",
		envconfig.KeyEmailLabel:         cfg.EmailLabel,
		envconfig.KeyPasswordLabel:      cfg.PasswordLabel,
		envconfig.KeyButtonText:         cfg.LoginButton,
		envconfig.KeyButtonToPageTest:   cfg.PageLinkText,
		envconfig.KeyButtonTextToTest01: cfg.Test01Button,
		envconfig.KeyButtonTextToTest02: cfg.Test02Button,
		envconfig.KeyErrorMessageText:   cfg.LockoutMessage,
		envconfig.KeyUserLogin:          "user@example.com",
		envconfig.KeyUserPassword:       "password123",
		envconfig.KeyHeaderURL:          ts.URL + "/login",
		envconfig.KeyHeaderChecklist:    "../checklists/header.yaml",
		envconfig.KeyPollInterval:       "200ms",
		envconfig.KeyMaxWait:            "10s",
		envconfig.KeyLockoutSettle:      "300ms",
		envconfig.KeyRateLimitSettle:    "300ms",
		envconfig.KeyClickDelay:         "50ms",
	}

	ctx := testContext(t)
	browser, err := rodriver.Launch(ctx, rodriver.Config{
		Headless:  true,
		Timeout:   30 * time.Second,
		NoSandbox: true,
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { browser.Close() })

	runner := scenario.NewRunner(browser, src, nil, log, 1, scenario.WithExpectTimeout(5*time.Second))
	results, err := runner.Run(ctx, scenario.Catalog())
	for _, res := range results {
		for _, step := range res.Steps {
			if step.Err != nil {
				t.Logf("%s: %s: %v", res.ScenarioID, step.Name, step.Err)
			}
		}
		assert.Equal(t, scenario.StatusPassed, res.Status, res.ScenarioID)
	}
	assert.NoError(t, err)
}
