package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
)

// Credentials is an email and password pair.
type Credentials struct {
	Email    string
	Password string
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// InvalidCredentials returns an address that cannot belong to a real account
// and a random 8 character password.
func InvalidCredentials(now time.Time) Credentials {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteByte(passwordAlphabet[rand.Intn(len(passwordAlphabet))])
	}
	return Credentials{
		Email:    fmt.Sprintf("wrong%d@test.com", now.UnixMilli()),
		Password: b.String(),
	}
}

// LockoutSignals are the four probes taken after each attempt.
type LockoutSignals struct {
	ErrorVisible   bool
	EmailHidden    bool
	PasswordHidden bool
	SubmitHidden   bool
}

// Locked reports whether any signal indicates a lockout.
func (s LockoutSignals) Locked() bool {
	return s.ErrorVisible || s.EmailHidden || s.PasswordHidden || s.SubmitHidden
}

// LockoutOutcome is the result of AttemptUntilLockout.
type LockoutOutcome struct {
	Attempts int
	Locked   bool
	Signals  LockoutSignals
}

// AttemptUntilLockout submits creds up to maxAttempts times and stops at the
// first attempt after which the form signals a lockout. Running out of
// attempts fails with ErrLockoutBudgetExhausted.
func AttemptUntilLockout(ctx context.Context, form LoginForm, creds Credentials, maxAttempts int, settle time.Duration, opts ...Option) (*LockoutOutcome, error) {
	o := newOptions(opts)
	const step = "lockout"
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive, got %d", maxAttempts)
	}

	email := form.Page.Find(form.Email)
	password := form.Page.Find(form.Password)
	submit := form.Page.Find(form.Submit)
	message := form.Page.Find(form.Error)

	out := &LockoutOutcome{}
	for out.Attempts < maxAttempts {
		out.Attempts++

		// Unreadable fields count as empty.
		ev, _ := email.Value(ctx)
		pv, _ := password.Value(ctx)
		if strings.TrimSpace(ev) != "" || strings.TrimSpace(pv) != "" {
			if err := email.Clear(ctx); err != nil {
				return out, assertionf(step, err, "attempt %d: could not clear email", out.Attempts)
			}
			if err := password.Clear(ctx); err != nil {
				return out, assertionf(step, err, "attempt %d: could not clear password", out.Attempts)
			}
		}

		if err := form.submit(ctx, creds); err != nil {
			return out, assertionf(step, err, "attempt %d", out.Attempts)
		}
		if err := o.clock.Sleep(ctx, settle); err != nil {
			return out, err
		}

		if out.Attempts == 1 {
			o.capture(ctx, "after first invalid attempt")
		}

		out.Signals = LockoutSignals{
			ErrorVisible:   visible(ctx, message),
			EmailHidden:    !visible(ctx, email),
			PasswordHidden: !visible(ctx, password),
			SubmitHidden:   !visible(ctx, submit),
		}
		o.logger.Debug(ctx, "lockout probe", map[string]interface{}{
			"attempt":         out.Attempts,
			"error_visible":   out.Signals.ErrorVisible,
			"email_hidden":    out.Signals.EmailHidden,
			"password_hidden": out.Signals.PasswordHidden,
			"submit_hidden":   out.Signals.SubmitHidden,
		})

		if out.Signals.Locked() {
			out.Locked = true
			o.logger.Info(ctx, "account locked", map[string]interface{}{
				"attempts": out.Attempts,
			})
			o.capture(ctx, "lockout")
			break
		}
	}

	if !out.Locked {
		o.logger.Warn(ctx, "account not locked", map[string]interface{}{
			"attempts": out.Attempts,
		})
		return out, assertionf(step, ErrLockoutBudgetExhausted, "account still usable after %d attempts", maxAttempts)
	}

	if err := o.expectVisible(ctx, step, message, "lockout message"); err != nil {
		return out, err
	}
	if err := o.expectHidden(ctx, step, email, "email field"); err != nil {
		return out, err
	}
	if err := o.expectHidden(ctx, step, password, "password field"); err != nil {
		return out, err
	}
	if err := o.expectHidden(ctx, step, submit, "submit button"); err != nil {
		return out, err
	}
	return out, nil
}

// visible treats probe errors as not visible.
func visible(ctx context.Context, el driver.Element) bool {
	v, err := el.Visible(ctx)
	return err == nil && v
}
