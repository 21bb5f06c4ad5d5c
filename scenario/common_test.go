package scenario

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"github.com/hairizuanbinnoorazman/ui-e2e/driver/fakedriver"
	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
	"github.com/stretchr/testify/require"
)

// fakeClock advances instantly on Sleep and records every sleep.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// memoryReporter keeps everything it is given.
type memoryReporter struct {
	mu          sync.Mutex
	begun       []*Result
	finished    []*Result
	attachments []Attachment
}

func (r *memoryReporter) Begin(ctx context.Context, res *Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begun = append(r.begun, res)
	return nil
}

func (r *memoryReporter) Attach(ctx context.Context, a Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attachments = append(r.attachments, a)
	return nil
}

func (r *memoryReporter) Finish(ctx context.Context, res *Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, res)
	return nil
}

func (r *memoryReporter) attachmentNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.attachments))
	for i, a := range r.attachments {
		names[i] = a.Step + "/" + a.Name
	}
	return names
}

const testBaseURL = "http://sut.test"

func testSource() envconfig.MapSource {
	return envconfig.MapSource{
		envconfig.KeyBaseURL:            testBaseURL,
		envconfig.KeyLoginEndpoint:      "/login",
		envconfig.KeyPageEndpoint:       "/page",
		envconfig.KeyMaxLoginAttempts:   "3",
		envconfig.KeyRateLimitAttempts:  "5",
		envconfig.KeyTimeoutErrorS:      "3",
		envconfig.KeyPageTitleRegex:     "Login",
		envconfig.KeyPageTitleMain:      "Dashboard",
		envconfig.KeyPageTestTitle:      "Test Page",
		envconfig.KeyEmailLabel:         "Email",
		envconfig.KeyPasswordLabel:      "Password",
		envconfig.KeyButtonText:         "Sign in",
		envconfig.KeyButtonToPageTest:   "Open test page",
		envconfig.KeyButtonTextToTest01: "Action one",
		envconfig.KeyButtonTextToTest02: "Action two",
		envconfig.KeyErrorMessageText:   "Account locked",
		envconfig.KeyUserLogin:          "user@example.com",
		envconfig.KeyUserPassword:       "secret",
	}
}

func testConfig(t *testing.T) *envconfig.Config {
	t.Helper()
	cfg, err := envconfig.Validate(testSource(), envconfig.AllKeys[:18])
	require.NoError(t, err)
	return cfg
}

// loginFixture is a fake login page whose form locks after lockAt submits.
// lockAt of zero never locks.
type loginFixture struct {
	page     *fakedriver.Page
	form     LoginForm
	email    *fakedriver.Element
	password *fakedriver.Element
	submit   *fakedriver.Element
	message  *fakedriver.Element
}

func newLoginFixture(lockAt int) *loginFixture {
	p := fakedriver.New()
	p.SetTitle("Login")
	form := LoginForm{
		Page:     p,
		Email:    driver.Label("Email"),
		Password: driver.Label("Password"),
		Submit:   driver.Button("Sign in"),
		Error:    driver.Text("Account locked"),
	}
	f := &loginFixture{
		page:     p,
		form:     form,
		email:    p.Element(form.Email).SetVisible(true),
		password: p.Element(form.Password).SetVisible(true),
		submit:   p.Element(form.Submit).SetVisible(true),
		message:  p.Element(form.Error),
	}
	f.submit.OnClick = func(ctx context.Context) error {
		if lockAt > 0 && f.submit.Clicks() >= lockAt {
			f.lock()
		}
		return nil
	}
	return f
}

func (f *loginFixture) lock() {
	f.email.SetVisible(false)
	f.password.SetVisible(false)
	f.submit.SetVisible(false)
	f.message.SetVisible(true)
}

type captures struct {
	mu    sync.Mutex
	names []string
}

func (c *captures) capture(ctx context.Context, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
}

func (c *captures) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}
