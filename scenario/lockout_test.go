package scenario

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptUntilLockout_StopsAtFirstSignal(t *testing.T) {
	tests := []struct {
		name        string
		lockAt      int
		maxAttempts int
	}{
		{name: "locks on first attempt", lockAt: 1, maxAttempts: 3},
		{name: "locks on last attempt", lockAt: 3, maxAttempts: 3},
		{name: "locks mid budget", lockAt: 2, maxAttempts: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLoginFixture(tt.lockAt)
			clock := newFakeClock()
			var shots captures

			out, err := AttemptUntilLockout(context.Background(), f.form,
				Credentials{Email: "bad@example.com", Password: "randompw"},
				tt.maxAttempts, time.Second, WithClock(clock), WithCapture(shots.capture))

			require.NoError(t, err)
			assert.Equal(t, tt.lockAt, out.Attempts)
			assert.True(t, out.Locked)
			assert.True(t, out.Signals.ErrorVisible)
			assert.Equal(t, tt.lockAt, f.submit.Clicks())
			assert.Equal(t, []string{"after first invalid attempt", "lockout"}, shots.Names())

			settles := 0
			for _, d := range clock.Sleeps() {
				if d == time.Second {
					settles++
				}
			}
			assert.Equal(t, tt.lockAt, settles)
		})
	}
}

func TestAttemptUntilLockout_BudgetExhausted(t *testing.T) {
	f := newLoginFixture(0)
	clock := newFakeClock()

	out, err := AttemptUntilLockout(context.Background(), f.form,
		Credentials{Email: "bad@example.com", Password: "randompw"},
		3, time.Second, WithClock(clock))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockoutBudgetExhausted)
	var aerr *AssertionError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, "lockout", aerr.Step)
	assert.Equal(t, 3, out.Attempts)
	assert.False(t, out.Locked)
	assert.Equal(t, 3, f.submit.Clicks())
}

func TestAttemptUntilLockout_ClearsResidualInput(t *testing.T) {
	f := newLoginFixture(3)
	f.email.SetValue("left over")

	out, err := AttemptUntilLockout(context.Background(), f.form,
		Credentials{Email: "bad@example.com", Password: "randompw"},
		3, time.Second, WithClock(newFakeClock()))

	require.NoError(t, err)
	assert.Equal(t, 3, out.Attempts)
	// Every attempt starts with something in the fields: the pre-filled
	// value, then the previous attempt's input.
	assert.Equal(t, 3, f.email.Clears())
	assert.Equal(t, 3, f.password.Clears())
	assert.Equal(t, []string{"bad@example.com", "bad@example.com", "bad@example.com"}, f.email.Fills())
}

func TestAttemptUntilLockout_ProbeErrorsCountAsNotVisible(t *testing.T) {
	f := newLoginFixture(0)
	f.message.VisibleFunc = func(ctx context.Context) (bool, error) {
		return false, errors.New("node detached")
	}

	out, err := AttemptUntilLockout(context.Background(), f.form,
		Credentials{Email: "bad@example.com", Password: "randompw"},
		2, time.Second, WithClock(newFakeClock()))

	assert.ErrorIs(t, err, ErrLockoutBudgetExhausted)
	assert.False(t, out.Signals.ErrorVisible)
}

func TestAttemptUntilLockout_PartialLockoutFailsFinalState(t *testing.T) {
	f := newLoginFixture(0)
	f.submit.OnClick = func(ctx context.Context) error {
		f.message.SetVisible(true)
		return nil
	}

	out, err := AttemptUntilLockout(context.Background(), f.form,
		Credentials{Email: "bad@example.com", Password: "randompw"},
		3, time.Second, WithClock(newFakeClock()), WithExpectTimeout(time.Second))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedState)
	assert.Contains(t, err.Error(), "email field to be hidden")
	assert.Equal(t, 1, out.Attempts)
	assert.True(t, out.Locked)
}

func TestAttemptUntilLockout_RejectsNonPositiveBudget(t *testing.T) {
	f := newLoginFixture(1)
	_, err := AttemptUntilLockout(context.Background(), f.form, Credentials{}, 0, time.Second)
	assert.Error(t, err)
	assert.Equal(t, 0, f.submit.Clicks())
}

func TestInvalidCredentials(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	creds := InvalidCredentials(now)

	assert.Equal(t, "wrong1700000000123@test.com", creds.Email)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{8}$`), creds.Password)
}
