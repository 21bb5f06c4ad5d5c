package scenario

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"github.com/hairizuanbinnoorazman/ui-e2e/driver/fakedriver"
	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSite scripts a fake page to behave like the system under test.
type fakeSite struct {
	page     *fakedriver.Page
	email    *fakedriver.Element
	password *fakedriver.Element
	submit   *fakedriver.Element
	message  *fakedriver.Element
	control  *fakedriver.Element

	lockAt   int
	warmup   int
	forbidAt int

	failures int
	pageHits int
}

func newFakeSite(lockAt, warmup, forbidAt int, control driver.Selector) *fakeSite {
	p := fakedriver.New()
	s := &fakeSite{
		page:     p,
		email:    p.Element(driver.Label("Email")).SetVisible(true),
		password: p.Element(driver.Label("Password")).SetVisible(true),
		submit:   p.Element(driver.Button("Sign in")).SetVisible(true),
		message:  p.Element(driver.Text("Account locked")),
		control:  p.Element(control).SetVisible(true),
		lockAt:   lockAt,
		warmup:   warmup,
		forbidAt: forbidAt,
	}
	p.Element(driver.LinkTo("/page")).SetVisible(true)

	p.OnNavigate = func(ctx context.Context, url string) (*driver.Response, error) {
		switch url {
		case testBaseURL + "/login":
			p.SetTitle("Login")
		case testBaseURL + "/page":
			s.pageHits++
			if s.pageHits <= s.warmup {
				p.SetTitle("Too Many Requests")
				return &driver.Response{URL: url, Status: 429}, nil
			}
			p.SetTitle("Test Page")
		}
		p.SetURL(url)
		return &driver.Response{URL: url, Status: 200}, nil
	}
	p.OnReload = func(ctx context.Context) error {
		cookies, _ := p.Cookies(ctx)
		if len(cookies) == 0 {
			p.SetURL(testBaseURL + "/login")
			p.SetTitle("Login")
		}
		return nil
	}
	s.submit.OnClick = func(ctx context.Context) error {
		email, _ := s.email.Value(ctx)
		pw, _ := s.password.Value(ctx)
		if email == "user@example.com" && pw == "secret" {
			p.SetURL(testBaseURL + "/")
			p.SetTitle("Dashboard")
			p.SetCookies(driver.Cookie{Name: "session", Value: "abc", Domain: "sut.test"})
			return nil
		}
		s.failures++
		if s.lockAt > 0 && s.failures >= s.lockAt {
			s.email.SetVisible(false)
			s.password.SetVisible(false)
			s.submit.SetVisible(false)
			s.message.SetVisible(true)
		}
		return nil
	}
	s.control.OnClick = func(ctx context.Context) error {
		status := 200
		if s.forbidAt > 0 && s.control.Clicks() == s.forbidAt {
			status = 403
		}
		p.Emit(driver.Response{URL: testBaseURL + "/page", Status: status})
		return nil
	}
	return s
}

func runCatalog(t *testing.T, src envconfig.Source, site *fakeSite, id string) (*Result, *memoryReporter) {
	t.Helper()
	scenarios, err := Lookup(id)
	require.NoError(t, err)
	b := &fakedriver.Browser{NewPage: func() *fakedriver.Page { return site.page }}
	rep := &memoryReporter{}
	r := NewRunner(b, src, rep, logger.NewTestLogger(), 1, WithClock(newFakeClock()))
	return r.RunOne(context.Background(), scenarios[0]), rep
}

func TestLookup(t *testing.T) {
	all, err := Lookup()
	require.NoError(t, err)
	assert.Len(t, all, len(Catalog()))

	got, err := Lookup("rate02", "LOGIN01")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "RATE02", got[0].ID)
	assert.Equal(t, "LOGIN01", got[1].ID)
	assert.Contains(t, got[0].Required, envconfig.KeyButtonTextToTest01)

	_, err = Lookup("NOPE")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestCatalog_IDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, sc := range Catalog() {
		assert.False(t, seen[sc.ID], sc.ID)
		seen[sc.ID] = true
		assert.NotEmpty(t, sc.Required, sc.ID)
		assert.NotEmpty(t, sc.Teardown, sc.ID)
	}
}

func TestLogin01(t *testing.T) {
	site := newFakeSite(0, 0, 0, driver.Button("Action one"))

	res, rep := runCatalog(t, testSource(), site, "LOGIN01")

	require.NoError(t, res.Err)
	assert.Equal(t, StatusPassed, res.Status)
	assert.Equal(t, []string{"verify login form/login page", "log in/after login"}, rep.attachmentNames())
	assert.Equal(t, []string{"user@example.com"}, site.email.Fills())
}

func TestCatalog_ValidatesOnlyDeclaredKeys(t *testing.T) {
	src := testSource()
	src[envconfig.KeyPageEndpoint] = "page"
	src[envconfig.KeyHeaderURL] = "example.com"
	src[envconfig.KeyMaxWait] = "soon"

	t.Run("login ignores page and header keys", func(t *testing.T) {
		site := newFakeSite(0, 0, 0, driver.Button("Action one"))
		res, _ := runCatalog(t, src, site, "LOGIN01")
		require.NoError(t, res.Err)
		assert.Equal(t, StatusPassed, res.Status)
	})

	t.Run("lockout ignores page endpoint", func(t *testing.T) {
		site := newFakeSite(3, 0, 0, driver.Button("Action one"))
		res, _ := runCatalog(t, src, site, "IN_ERR01")
		require.NoError(t, res.Err)
		assert.Equal(t, StatusPassed, res.Status)
	})

	t.Run("rate limit rejects its own keys", func(t *testing.T) {
		site := newFakeSite(0, 0, 3, driver.LinkTo("/page"))
		res, _ := runCatalog(t, src, site, "RATE01")
		assert.ErrorIs(t, res.Err, envconfig.ErrInvalidConfig)
		keys := map[string]bool{}
		for _, v := range envconfig.ValidationErrors(res.Err) {
			keys[v.Key] = true
		}
		assert.Equal(t, map[string]bool{envconfig.KeyPageEndpoint: true, envconfig.KeyMaxWait: true}, keys)
		assert.Empty(t, site.page.Calls())
	})
}

func TestInErr01(t *testing.T) {
	t.Run("locks within budget", func(t *testing.T) {
		site := newFakeSite(3, 0, 0, driver.Button("Action one"))

		res, rep := runCatalog(t, testSource(), site, "IN_ERR01")

		require.NoError(t, res.Err)
		assert.Equal(t, StatusPassed, res.Status)
		assert.Equal(t, 3, site.submit.Clicks())
		assert.Contains(t, rep.attachmentNames(), "attempt until lockout/lockout")
		for _, email := range site.email.Fills() {
			assert.True(t, strings.HasPrefix(email, "wrong"), email)
		}
	})

	t.Run("never locks", func(t *testing.T) {
		site := newFakeSite(0, 0, 0, driver.Button("Action one"))

		res, _ := runCatalog(t, testSource(), site, "IN_ERR01")

		assert.Equal(t, StatusFailed, res.Status)
		assert.ErrorIs(t, res.Err, ErrLockoutBudgetExhausted)
		assert.Equal(t, 3, site.submit.Clicks())
		assert.Contains(t, site.page.Calls(), "clear-session")
	})
}

func TestRate01(t *testing.T) {
	site := newFakeSite(0, 2, 3, driver.LinkTo("/page"))

	res, rep := runCatalog(t, testSource(), site, "RATE01")

	require.NoError(t, res.Err)
	assert.Equal(t, StatusPassed, res.Status)
	assert.Equal(t, 3, site.pageHits)
	// Three clicks trigger the limit, one more proves recovery.
	assert.Equal(t, 4, site.control.Clicks())
	assert.Contains(t, rep.attachmentNames(), "trigger rate limit/after rate limit")
	assert.Equal(t, 0, site.page.OpenObservers())
}

func TestRate02_NotTriggered(t *testing.T) {
	site := newFakeSite(0, 0, 0, driver.Button("Action one"))

	res, _ := runCatalog(t, testSource(), site, "RATE02")

	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrRateLimitNotTriggered)
	assert.Equal(t, 5, site.control.Clicks())
	statuses := stepStatuses(res)
	assert.Equal(t, StatusSkipped, statuses["recover from rate limit"])
	assert.Equal(t, StatusPassed, statuses["verify logged out"])
}

func TestRate03_MissingButtonKey(t *testing.T) {
	src := testSource()
	delete(src, envconfig.KeyButtonTextToTest02)
	site := newFakeSite(0, 0, 0, driver.Button("Action two"))

	res, _ := runCatalog(t, src, site, "RATE03")

	var missing *envconfig.MissingConfigError
	require.ErrorAs(t, res.Err, &missing)
	assert.Equal(t, []string{envconfig.KeyButtonTextToTest02}, missing.Keys)
	assert.Empty(t, site.page.Calls())
}

func TestHeader01(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "header.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
items:
  - name: logo
    css: a.logo
    contains: Home
    attributes:
      href: /
      class: /^logo( |$)/
    styles:
      cursor: pointer
    click_url: ^https://example\.test/?$
    screenshot: true
  - name: mobile menu
    css: .menu
    hidden: true
  - name: buttons
    css: .buttons
    styles:
      display: flex
  - name: services menu
    css: a.services
    reveals: ["#services.active", "#services .title"]
    closes: "#services .close"
  - name: shop
    css: a.shop
    attributes:
      target: _blank
    popup_url: ^https://shop\.example\.test/
`), 0644))

	p := fakedriver.New()
	logo := p.Element(driver.CSS("a.logo")).SetVisible(true).SetText("  Home  ").
		SetAttribute("href", "/").SetAttribute("class", "logo big").SetStyle("cursor", "pointer")
	logo.OnClick = func(ctx context.Context) error {
		p.SetURL("https://example.test/")
		return nil
	}
	p.Element(driver.CSS(".buttons")).SetVisible(true).SetStyle("display", "flex")

	services := p.Element(driver.CSS("a.services")).SetVisible(true)
	panel := p.Element(driver.CSS("#services.active"))
	title := p.Element(driver.CSS("#services .title"))
	closer := p.Element(driver.CSS("#services .close"))
	services.OnClick = func(ctx context.Context) error {
		panel.SetVisible(true)
		title.SetVisible(true)
		closer.SetVisible(true)
		return nil
	}
	closer.OnClick = func(ctx context.Context) error {
		panel.SetVisible(false)
		title.SetVisible(false)
		closer.SetVisible(false)
		return nil
	}

	shopTab := fakedriver.New()
	shopTab.SetURL("https://shop.example.test/")
	shop := p.Element(driver.CSS("a.shop")).SetVisible(true).
		SetAttribute("target", "_blank").SetPopup(shopTab)
	site := &fakeSite{page: p}

	src := envconfig.MapSource{
		envconfig.KeyHeaderURL:       "https://example.test/start",
		envconfig.KeyHeaderChecklist: path,
	}
	res, rep := runCatalog(t, src, site, "HEADER01")

	require.NoError(t, res.Err)
	assert.Equal(t, StatusPassed, res.Status)
	assert.Equal(t, 1, logo.Clicks())
	assert.Equal(t, 1, services.Clicks())
	assert.Equal(t, 1, closer.Clicks())
	assert.Equal(t, 1, shop.Clicks())
	assert.True(t, shopTab.Closed())
	assert.Equal(t, []string{
		"check logo/logo",
		"check logo/logo target",
		"check services menu/services menu open",
		"check shop/shop popup",
	}, rep.attachmentNames())
	calls := p.Calls()
	assert.Equal(t, "navigate https://example.test/start", calls[0])
	assert.Contains(t, calls, "expect-popup")
	assert.Contains(t, calls, "clear-session")
}

func TestHeader01_PanelStaysOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
items:
  - name: services menu
    css: a.services
    reveals: ["#services"]
    closes: "#services .close"
`), 0644))

	p := fakedriver.New()
	services := p.Element(driver.CSS("a.services")).SetVisible(true)
	services.OnClick = func(ctx context.Context) error {
		p.Element(driver.CSS("#services")).SetVisible(true)
		p.Element(driver.CSS("#services .close")).SetVisible(true)
		return nil
	}

	res, _ := runCatalog(t, envconfig.MapSource{
		envconfig.KeyHeaderURL:       "https://example.test/",
		envconfig.KeyHeaderChecklist: path,
	}, &fakeSite{page: p}, "HEADER01")

	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrUnexpectedState)
	var ae *AssertionError
	require.ErrorAs(t, res.Err, &ae)
	assert.Equal(t, "check services menu", ae.Step)
}

func TestHeader01_BadChecklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.yaml")
	require.NoError(t, os.WriteFile(path, []byte("items:\n  - name: x\n"), 0644))
	site := &fakeSite{page: fakedriver.New()}

	res, _ := runCatalog(t, envconfig.MapSource{
		envconfig.KeyHeaderURL:       "https://example.test/",
		envconfig.KeyHeaderChecklist: path,
	}, site, "HEADER01")

	assert.ErrorIs(t, res.Err, ErrInvalidChecklist)
	assert.Empty(t, site.page.Calls())
}
