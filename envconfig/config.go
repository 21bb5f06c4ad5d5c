// Package envconfig loads and validates the key-value configuration that
// scenarios need before any browser action happens.
package envconfig

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Defaults for the timing knobs.
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultMaxWait         = 120 * time.Second
	DefaultLockoutSettle   = time.Second
	DefaultRateLimitSettle = 1500 * time.Millisecond
	DefaultClickDelay      = 50 * time.Millisecond
)

// Config is the validated configuration for one scenario run. It is built by
// Validate and never mutated afterwards.
type Config struct {
	BaseURL      string
	LoginPath    string
	PagePath     string
	FullLoginURL string
	FullPageURL  string

	MaxLoginAttempts  int
	RateLimitAttempts int
	RateLimitCooldown time.Duration

	LoginTitle    *regexp.Regexp
	MainTitle     *regexp.Regexp
	TestPageTitle *regexp.Regexp

	EmailLabel    string
	PasswordLabel string
	LoginButton   string
	PageLinkText  string
	Test01Button  string
	Test02Button  string
	ErrorMessage  string

	UserLogin    string
	UserPassword string

	HeaderURL       string
	HeaderChecklist string

	PollInterval    time.Duration
	MaxWait         time.Duration
	LockoutSettle   time.Duration
	RateLimitSettle time.Duration
	ClickDelay      time.Duration
}

// Validate checks that every required key is present, then runs the shape
// validators on the required keys and on any optional key that is set.
// Keys in neither list are never read. All missing keys are reported in a
// single *MissingConfigError; semantic problems are aggregated.
func Validate(src Source, required []string, optional ...string) (*Config, error) {
	raw := make(map[string]string)
	var missing []string
	for _, key := range required {
		v, ok := src.Lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, key)
			continue
		}
		raw[key] = v
	}
	if len(missing) > 0 {
		return nil, &MissingConfigError{Keys: missing}
	}

	for _, key := range optional {
		if _, done := raw[key]; done {
			continue
		}
		if v, ok := src.Lookup(key); ok && strings.TrimSpace(v) != "" {
			raw[key] = v
		}
	}

	p := &parser{raw: raw}
	cfg := &Config{
		BaseURL:   p.url(KeyBaseURL),
		LoginPath: p.path(KeyLoginEndpoint),
		PagePath:  p.path(KeyPageEndpoint),

		MaxLoginAttempts:  p.positiveInt(KeyMaxLoginAttempts),
		RateLimitAttempts: p.positiveInt(KeyRateLimitAttempts),
		RateLimitCooldown: time.Duration(p.positiveInt(KeyTimeoutErrorS)) * time.Second,

		LoginTitle:    p.regex(KeyPageTitleRegex),
		MainTitle:     p.regex(KeyPageTitleMain),
		TestPageTitle: p.regex(KeyPageTestTitle),

		EmailLabel:    raw[KeyEmailLabel],
		PasswordLabel: raw[KeyPasswordLabel],
		LoginButton:   raw[KeyButtonText],
		PageLinkText:  raw[KeyButtonToPageTest],
		Test01Button:  raw[KeyButtonTextToTest01],
		Test02Button:  raw[KeyButtonTextToTest02],
		ErrorMessage:  raw[KeyErrorMessageText],

		UserLogin:    raw[KeyUserLogin],
		UserPassword: raw[KeyUserPassword],

		HeaderURL:       p.url(KeyHeaderURL),
		HeaderChecklist: raw[KeyHeaderChecklist],

		PollInterval:    p.duration(KeyPollInterval, DefaultPollInterval),
		MaxWait:         p.duration(KeyMaxWait, DefaultMaxWait),
		LockoutSettle:   p.duration(KeyLockoutSettle, DefaultLockoutSettle),
		RateLimitSettle: p.duration(KeyRateLimitSettle, DefaultRateLimitSettle),
		ClickDelay:      p.duration(KeyClickDelay, DefaultClickDelay),
	}
	if err := p.errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base != "" && cfg.LoginPath != "" {
		cfg.FullLoginURL = base + cfg.LoginPath
	}
	if base != "" && cfg.PagePath != "" {
		cfg.FullPageURL = base + cfg.PagePath
	}
	return cfg, nil
}

// Upper bounds keep values within time.Duration once scaled by time.Second.
const (
	maxSeconds = int64(math.MaxInt64 / int64(time.Second))
	maxInt     = 1_000_000
)

type parser struct {
	raw  map[string]string
	errs *multierror.Error
}

func (p *parser) fail(key, reason string) {
	if p.errs == nil {
		p.errs = &multierror.Error{ErrorFormat: formatValidationErrors}
	}
	p.errs = multierror.Append(p.errs, &ValidationError{Key: key, Reason: reason})
}

func (p *parser) url(key string) string {
	v, ok := p.raw[key]
	if !ok {
		return ""
	}
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		p.fail(key, "must start with http:// or https://")
		return ""
	}
	u, err := url.Parse(v)
	if err != nil || u.Host == "" {
		p.fail(key, "must be an absolute URL with a host")
		return ""
	}
	return v
}

func (p *parser) path(key string) string {
	v, ok := p.raw[key]
	if !ok {
		return ""
	}
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "/") {
		p.fail(key, "must start with /")
		return ""
	}
	return v
}

func (p *parser) positiveInt(key string) int {
	v, ok := p.raw[key]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		p.fail(key, "must be a positive integer")
		return 0
	}
	if n > maxInt {
		p.fail(key, "must be at most "+strconv.Itoa(maxInt))
		return 0
	}
	return n
}

func (p *parser) regex(key string) *regexp.Regexp {
	v, ok := p.raw[key]
	if !ok {
		return nil
	}
	re, err := regexp.Compile(v)
	if err != nil {
		p.fail(key, "must be a valid regular expression: "+err.Error())
		return nil
	}
	return re
}

// duration accepts a Go duration ("1500ms") or a number of seconds ("2", "1.5").
func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.raw[key]
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		if secs > float64(maxSeconds) {
			p.fail(key, "must be at most "+strconv.FormatInt(maxSeconds, 10)+" seconds")
			return def
		}
		return time.Duration(secs * float64(time.Second))
	}
	p.fail(key, "must be a positive duration")
	return def
}
