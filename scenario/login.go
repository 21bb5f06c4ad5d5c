package scenario

import (
	"context"
	"fmt"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
)

// LoginForm locates the credential inputs, the submit control and the
// lockout message on a login page.
type LoginForm struct {
	Page     driver.Page
	Email    driver.Selector
	Password driver.Selector
	Submit   driver.Selector
	Error    driver.Selector
}

// NewLoginForm builds the form locators from configuration.
func NewLoginForm(page driver.Page, cfg *envconfig.Config) LoginForm {
	return LoginForm{
		Page:     page,
		Email:    driver.Label(cfg.EmailLabel),
		Password: driver.Label(cfg.PasswordLabel),
		Submit:   driver.Button(cfg.LoginButton),
		Error:    driver.Text(cfg.ErrorMessage),
	}
}

// Verify waits for the email, password and submit controls to be visible.
func (f LoginForm) Verify(ctx context.Context, opts ...Option) error {
	o := newOptions(opts)
	if err := o.expectVisible(ctx, "login form", f.Page.Find(f.Email), "email field"); err != nil {
		return err
	}
	if err := o.expectVisible(ctx, "login form", f.Page.Find(f.Password), "password field"); err != nil {
		return err
	}
	return o.expectVisible(ctx, "login form", f.Page.Find(f.Submit), "submit button")
}

// submit fills the credentials and clicks the submit control.
func (f LoginForm) submit(ctx context.Context, creds Credentials) error {
	if err := f.Page.Find(f.Email).Fill(ctx, creds.Email); err != nil {
		return fmt.Errorf("failed to fill email: %w", err)
	}
	if err := f.Page.Find(f.Password).Fill(ctx, creds.Password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := f.Page.Find(f.Submit).Click(ctx, 0); err != nil {
		return fmt.Errorf("failed to submit: %w", err)
	}
	return nil
}

// NavigateToLogin opens the login page and checks its title.
func NavigateToLogin(ctx context.Context, page driver.Page, cfg *envconfig.Config, opts ...Option) error {
	o := newOptions(opts)
	o.logger.Info(ctx, "opening login page", map[string]interface{}{
		"url": cfg.FullLoginURL,
	})
	if _, err := page.Navigate(ctx, cfg.FullLoginURL); err != nil {
		return assertionf("navigate to login", err, "could not open %s", cfg.FullLoginURL)
	}
	return o.expectTitle(ctx, "navigate to login", page, cfg.LoginTitle)
}

// Login signs in with the configured user and checks that the browser left
// the login page for the main page with a session cookie.
func Login(ctx context.Context, page driver.Page, cfg *envconfig.Config, opts ...Option) error {
	o := newOptions(opts)
	form := NewLoginForm(page, cfg)
	if err := form.submit(ctx, Credentials{Email: cfg.UserLogin, Password: cfg.UserPassword}); err != nil {
		return assertionf("login", err, "could not submit credentials")
	}

	leftLogin := func(u string) bool { return u != cfg.FullLoginURL }
	if err := o.expectURL(ctx, "login", "not "+cfg.FullLoginURL, page, leftLogin); err != nil {
		return err
	}
	if err := o.expectTitle(ctx, "login", page, cfg.MainTitle); err != nil {
		return err
	}

	cookies, err := page.Cookies(ctx)
	if err != nil {
		return assertionf("login", err, "could not read cookies")
	}
	if len(cookies) == 0 {
		return assertionf("login", ErrUnexpectedState, "no session cookie after login")
	}

	o.logger.Info(ctx, "logged in", map[string]interface{}{
		"cookies": len(cookies),
	})
	o.capture(ctx, "after login")
	return nil
}

// ClearSession removes cookies and web storage.
func ClearSession(ctx context.Context, page driver.Page, opts ...Option) error {
	o := newOptions(opts)
	if err := page.ClearSession(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	o.logger.Info(ctx, "session cleared", nil)
	return nil
}
