package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
)

var loginKeys = []string{
	envconfig.KeyBaseURL,
	envconfig.KeyLoginEndpoint,
	envconfig.KeyPageTitleRegex,
	envconfig.KeyPageTitleMain,
	envconfig.KeyEmailLabel,
	envconfig.KeyPasswordLabel,
	envconfig.KeyButtonText,
	envconfig.KeyUserLogin,
	envconfig.KeyUserPassword,
}

var lockoutKeys = []string{
	envconfig.KeyBaseURL,
	envconfig.KeyLoginEndpoint,
	envconfig.KeyMaxLoginAttempts,
	envconfig.KeyPageTitleRegex,
	envconfig.KeyEmailLabel,
	envconfig.KeyPasswordLabel,
	envconfig.KeyButtonText,
	envconfig.KeyErrorMessageText,
}

var rateLimitKeys = []string{
	envconfig.KeyBaseURL,
	envconfig.KeyLoginEndpoint,
	envconfig.KeyPageEndpoint,
	envconfig.KeyRateLimitAttempts,
	envconfig.KeyPageTitleRegex,
	envconfig.KeyTimeoutErrorS,
	envconfig.KeyPageTestTitle,
	envconfig.KeyPageTitleMain,
	envconfig.KeyEmailLabel,
	envconfig.KeyPasswordLabel,
	envconfig.KeyButtonText,
	envconfig.KeyButtonToPageTest,
	envconfig.KeyUserLogin,
	envconfig.KeyUserPassword,
}

var headerKeys = []string{
	envconfig.KeyHeaderURL,
	envconfig.KeyHeaderChecklist,
}

// Catalog returns the built-in scenarios.
func Catalog() []Scenario {
	return []Scenario{
		loginScenario(),
		lockoutScenario(),
		rateLimitScenario("RATE01", "Rate limiting on the page link", "", pageLink),
		rateLimitScenario("RATE02", "Rate limiting on the first action button", envconfig.KeyButtonTextToTest01,
			func(cfg *envconfig.Config) driver.Selector { return driver.Button(cfg.Test01Button) }),
		rateLimitScenario("RATE03", "Rate limiting on the second action button", envconfig.KeyButtonTextToTest02,
			func(cfg *envconfig.Config) driver.Selector { return driver.Button(cfg.Test02Button) }),
		headerScenario(),
	}
}

// Lookup returns the catalog scenarios with the given IDs, in the order
// asked. No IDs selects the whole catalog.
func Lookup(ids ...string) ([]Scenario, error) {
	all := Catalog()
	if len(ids) == 0 {
		return all, nil
	}
	byID := make(map[string]Scenario, len(all))
	for _, sc := range all {
		byID[sc.ID] = sc
	}
	out := make([]Scenario, 0, len(ids))
	for _, id := range ids {
		sc, ok := byID[strings.ToUpper(strings.TrimSpace(id))]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, id)
		}
		out = append(out, sc)
	}
	return out, nil
}

func pageLink(cfg *envconfig.Config) driver.Selector {
	return driver.LinkTo(cfg.PagePath)
}

func openLoginSteps() []Step {
	return []Step{
		{
			Name: "navigate to login",
			Run: func(ctx context.Context, e *Env) error {
				return NavigateToLogin(ctx, e.Page, e.Config, e.Options()...)
			},
		},
		{
			Name: "verify login form",
			Run: func(ctx context.Context, e *Env) error {
				if err := NewLoginForm(e.Page, e.Config).Verify(ctx, e.Options()...); err != nil {
					return err
				}
				e.Capture(ctx, "login page")
				return nil
			},
		},
	}
}

var clearSessionStep = Step{
	Name: "clear session",
	Run: func(ctx context.Context, e *Env) error {
		return ClearSession(ctx, e.Page, e.Options()...)
	},
}

func loginScenario() Scenario {
	return Scenario{
		ID:       "LOGIN01",
		Story:    "Login with valid credentials",
		Severity: "critical",
		Required: loginKeys,
		Build: func(cfg *envconfig.Config) ([]Step, error) {
			return append(openLoginSteps(), Step{
				Name: "log in",
				Run: func(ctx context.Context, e *Env) error {
					return Login(ctx, e.Page, e.Config, e.Options()...)
				},
			}), nil
		},
		Teardown: []Step{
			clearSessionStep,
			{
				Name: "verify logged out",
				Run: func(ctx context.Context, e *Env) error {
					if err := e.Page.Reload(ctx); err != nil {
						return assertionf("verify logged out", err, "reload failed")
					}
					o := newOptions(e.Options())
					want := e.Config.FullLoginURL
					return o.expectURL(ctx, "verify logged out", want, e.Page, func(u string) bool { return u == want })
				},
			},
		},
	}
}

func lockoutScenario() Scenario {
	return Scenario{
		ID:       "IN_ERR01",
		Story:    "Account lockout after invalid logins",
		Severity: "critical",
		Required: lockoutKeys,
		Optional: []string{envconfig.KeyLockoutSettle},
		Build: func(cfg *envconfig.Config) ([]Step, error) {
			return append(openLoginSteps(), Step{
				Name: "attempt until lockout",
				Run: func(ctx context.Context, e *Env) error {
					opts := e.Options()
					creds := InvalidCredentials(newOptions(opts).clock.Now())
					e.Logger.Info(ctx, "submitting invalid credentials", map[string]interface{}{
						"email":        creds.Email,
						"max_attempts": e.Config.MaxLoginAttempts,
					})
					_, err := AttemptUntilLockout(ctx, NewLoginForm(e.Page, e.Config), creds,
						e.Config.MaxLoginAttempts, e.Config.LockoutSettle, opts...)
					return err
				},
			}), nil
		},
		Teardown: []Step{clearSessionStep},
	}
}

func rateLimitScenario(id, story, extraKey string, control func(cfg *envconfig.Config) driver.Selector) Scenario {
	required := append([]string(nil), rateLimitKeys...)
	if extraKey != "" {
		required = append(required, extraKey)
	}

	return Scenario{
		ID:       id,
		Story:    story,
		Severity: "critical",
		Required: required,
		Optional: []string{
			envconfig.KeyPollInterval,
			envconfig.KeyMaxWait,
			envconfig.KeyRateLimitSettle,
			envconfig.KeyClickDelay,
		},
		Build: func(cfg *envconfig.Config) ([]Step, error) {
			steps := openLoginSteps()
			steps = append(steps,
				Step{
					Name: "log in",
					Run: func(ctx context.Context, e *Env) error {
						return Login(ctx, e.Page, e.Config, e.Options()...)
					},
				},
				Step{
					Name: "open rate limited page",
					Run: func(ctx context.Context, e *Env) error {
						opts := e.Options()
						o := newOptions(opts)
						const step = "open rate limited page"
						if err := o.expectVisible(ctx, step, e.Page.Find(pageLink(e.Config)), "page link"); err != nil {
							return err
						}
						if _, err := WaitForPageAvailable(ctx, e.Page, e.Config.FullPageURL,
							e.Config.PollInterval, e.Config.MaxWait, opts...); err != nil {
							return err
						}
						if err := o.expectTitle(ctx, step, e.Page, e.Config.TestPageTitle); err != nil {
							return err
						}
						return o.expectVisible(ctx, step, e.Page.Find(control(e.Config)), "rate limited control")
					},
				},
				Step{
					Name: "trigger rate limit",
					Run: func(ctx context.Context, e *Env) error {
						opts := append(e.Options(), WithClickDelay(e.Config.ClickDelay))
						_, err := TriggerRateLimit(ctx, e.Page, e.Page.Find(control(e.Config)),
							e.Config.RateLimitAttempts, e.Config.RateLimitSettle, opts...)
						return err
					},
				},
				Step{
					Name: "recover from rate limit",
					Run: func(ctx context.Context, e *Env) error {
						opts := e.Options()
						o := newOptions(opts)
						const step = "recover from rate limit"
						verify := func(ctx context.Context) error {
							if err := o.expectVisible(ctx, step, e.Page.Find(pageLink(e.Config)), "page link"); err != nil {
								return err
							}
							return o.expectTitle(ctx, step, e.Page, e.Config.TestPageTitle)
						}
						return RecoverFromRateLimit(ctx, e.Page, e.Page.Find(control(e.Config)),
							e.Config.RateLimitCooldown, verify, opts...)
					},
				},
			)
			return steps, nil
		},
		Teardown: []Step{
			clearSessionStep,
			{
				Name: "verify logged out",
				Run: func(ctx context.Context, e *Env) error {
					if _, err := e.Page.Navigate(ctx, e.Config.FullLoginURL); err != nil {
						return assertionf("verify logged out", err, "could not open %s", e.Config.FullLoginURL)
					}
					return NewLoginForm(e.Page, e.Config).Verify(ctx, e.Options()...)
				},
			},
		},
	}
}

func headerScenario() Scenario {
	return Scenario{
		ID:       "HEADER01",
		Story:    "Header elements",
		Severity: "high",
		Required: headerKeys,
		Build: func(cfg *envconfig.Config) ([]Step, error) {
			cl, err := LoadChecklist(cfg.HeaderChecklist)
			if err != nil {
				return nil, err
			}
			steps := []Step{{
				Name: "navigate to header page",
				Run: func(ctx context.Context, e *Env) error {
					if _, err := e.Page.Navigate(ctx, e.Config.HeaderURL); err != nil {
						return assertionf("navigate to header page", err, "could not open %s", e.Config.HeaderURL)
					}
					return nil
				},
			}}
			for _, it := range cl.Items {
				it := it
				steps = append(steps, Step{
					Name: "check " + it.Name,
					Run: func(ctx context.Context, e *Env) error {
						return it.check(ctx, e, e.Config.HeaderURL)
					},
				})
			}
			return steps, nil
		},
		Teardown: []Step{clearSessionStep},
	}
}
