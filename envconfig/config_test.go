package envconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSource() MapSource {
	return MapSource{
		KeyBaseURL:          "https://app.example.com",
		KeyLoginEndpoint:    "/login",
		KeyPageEndpoint:     "/queue",
		KeyMaxLoginAttempts: "5",
		KeyTimeoutErrorS:    "30",
		KeyPageTitleRegex:   "Sign in",
		KeyEmailLabel:       "Email",
		KeyPasswordLabel:    "Password",
		KeyButtonText:       "Log in",
		KeyUserLogin:        "user@example.com",
		KeyUserPassword:     "secret",
	}
}

func TestValidate_MissingKeysReportedTogether(t *testing.T) {
	tests := []struct {
		name    string
		src     MapSource
		wantErr []string
	}{
		{
			name:    "all missing",
			src:     MapSource{},
			wantErr: []string{KeyBaseURL, KeyLoginEndpoint, KeyUserLogin},
		},
		{
			name:    "one missing",
			src:     MapSource{KeyBaseURL: "https://x.test", KeyUserLogin: "a"},
			wantErr: []string{KeyLoginEndpoint},
		},
		{
			name:    "blank counts as missing",
			src:     MapSource{KeyBaseURL: "  ", KeyLoginEndpoint: "/login", KeyUserLogin: ""},
			wantErr: []string{KeyBaseURL, KeyUserLogin},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.src, []string{KeyBaseURL, KeyLoginEndpoint, KeyUserLogin})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingConfig)

			var merr *MissingConfigError
			require.True(t, errors.As(err, &merr))
			assert.Equal(t, tt.wantErr, merr.Keys)
			for _, k := range tt.wantErr {
				assert.Contains(t, err.Error(), k+"=value")
			}
		})
	}
}

func TestValidate_MissingWinsOverMalformed(t *testing.T) {
	src := MapSource{KeyBaseURL: "ftp://nope"}
	_, err := Validate(src, []string{KeyBaseURL, KeyLoginEndpoint})
	assert.ErrorIs(t, err, ErrMissingConfig)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate_SemanticErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"url without scheme", KeyBaseURL, "app.example.com", "must start with http"},
		{"url without host", KeyBaseURL, "https://", "absolute URL"},
		{"login path without slash", KeyLoginEndpoint, "login", "must start with /"},
		{"page path without slash", KeyPageEndpoint, "queue", "must start with /"},
		{"attempts not a number", KeyMaxLoginAttempts, "many", "positive integer"},
		{"attempts zero", KeyMaxLoginAttempts, "0", "positive integer"},
		{"attempts negative", KeyMaxLoginAttempts, "-3", "positive integer"},
		{"timeout not a number", KeyTimeoutErrorS, "1m", "positive integer"},
		{"bad regex", KeyPageTitleRegex, "([", "regular expression"},
		{"bad duration", KeyPollInterval, "soon", "positive duration"},
		{"timeout overflows duration", KeyTimeoutErrorS, "10000000000", "at most"},
		{"attempts too large", KeyMaxLoginAttempts, "9223372036854775807", "at most"},
		{"duration seconds overflow", KeyMaxWait, "1e300", "at most"},
		{"duration overflow", KeyClickDelay, "9999999999h", "positive duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := validSource()
			src[tt.key] = tt.value

			_, err := Validate(src, []string{KeyBaseURL, KeyLoginEndpoint, tt.key}, TimingKeys...)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			verrs := ValidationErrors(err)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.key, verrs[0].Key)
			assert.Contains(t, verrs[0].Reason, tt.wantMsg)
		})
	}
}

func TestValidate_AggregatesSemanticErrors(t *testing.T) {
	src := validSource()
	src[KeyBaseURL] = "example.com"
	src[KeyLoginEndpoint] = "login"
	src[KeyMaxLoginAttempts] = "zero"

	_, err := Validate(src, []string{KeyBaseURL, KeyLoginEndpoint, KeyMaxLoginAttempts})
	require.Error(t, err)

	verrs := ValidationErrors(err)
	require.Len(t, verrs, 3)
	assert.Equal(t, KeyBaseURL, verrs[0].Key)
	assert.Equal(t, KeyLoginEndpoint, verrs[1].Key)
	assert.Equal(t, KeyMaxLoginAttempts, verrs[2].Key)
	assert.Contains(t, err.Error(), "3 problems")
}

func TestValidate_DerivedValues(t *testing.T) {
	src := validSource()
	src[KeyBaseURL] = "https://app.example.com/"

	cfg, err := Validate(src, []string{
		KeyBaseURL, KeyLoginEndpoint, KeyPageEndpoint, KeyMaxLoginAttempts,
		KeyTimeoutErrorS, KeyPageTitleRegex, KeyButtonText,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://app.example.com/login", cfg.FullLoginURL)
	assert.Equal(t, "https://app.example.com/queue", cfg.FullPageURL)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 30*time.Second, cfg.RateLimitCooldown)
	assert.True(t, cfg.LoginTitle.MatchString("Sign in | App"))
	assert.Equal(t, "Log in", cfg.LoginButton)
	assert.Empty(t, cfg.UserPassword, "undeclared keys are not read")
}

func TestValidate_TimingDefaultsAndOverrides(t *testing.T) {
	cfg, err := Validate(validSource(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultMaxWait, cfg.MaxWait)
	assert.Equal(t, DefaultLockoutSettle, cfg.LockoutSettle)
	assert.Equal(t, DefaultRateLimitSettle, cfg.RateLimitSettle)
	assert.Equal(t, DefaultClickDelay, cfg.ClickDelay)

	src := validSource()
	src[KeyPollInterval] = "500ms"
	src[KeyMaxWait] = "5"
	src[KeyRateLimitSettle] = "1.5"
	cfg, err = Validate(src, nil, TimingKeys...)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.MaxWait)
	assert.Equal(t, 1500*time.Millisecond, cfg.RateLimitSettle)
}

func TestValidate_IgnoresUndeclaredKeys(t *testing.T) {
	src := validSource()
	src[KeyPageEndpoint] = "page"
	src[KeyHeaderURL] = "example.com"
	src[KeyMaxWait] = "soon"
	src[KeyLockoutSettle] = "later"

	cfg, err := Validate(src, []string{KeyBaseURL, KeyLoginEndpoint, KeyUserLogin}, KeyMaxWait)
	require.Error(t, err, "declared optional keys are still checked")
	verrs := ValidationErrors(err)
	require.Len(t, verrs, 1)
	assert.Equal(t, KeyMaxWait, verrs[0].Key)
	assert.Nil(t, cfg)

	cfg, err = Validate(src, []string{KeyBaseURL, KeyLoginEndpoint, KeyUserLogin})
	require.NoError(t, err)
	assert.Empty(t, cfg.PagePath)
	assert.Empty(t, cfg.FullPageURL)
	assert.Empty(t, cfg.HeaderURL)
	assert.Equal(t, DefaultMaxWait, cfg.MaxWait)
	assert.Equal(t, DefaultLockoutSettle, cfg.LockoutSettle)
}

func TestViperSource(t *testing.T) {
	t.Setenv("BASE_URL", "https://env.example.com")
	t.Setenv("LOGIN_ENDPOINT", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("USER_LOGIN: file-user\nBASE_URL: https://file.example.com\n"), 0600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	src := NewViperSource(v)

	got, ok := src.Lookup(KeyBaseURL)
	assert.True(t, ok)
	assert.Equal(t, "https://env.example.com", got)

	got, ok = src.Lookup(KeyUserLogin)
	assert.True(t, ok)
	assert.Equal(t, "file-user", got)

	_, ok = src.Lookup(KeyLoginEndpoint)
	assert.False(t, ok)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("E2E_DOTENV_NEW=from-file\nE2E_DOTENV_SET=from-file\n"), 0600))

	t.Setenv("E2E_DOTENV_SET", "from-env")
	t.Cleanup(func() { os.Unsetenv("E2E_DOTENV_NEW") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "from-file", os.Getenv("E2E_DOTENV_NEW"))
	assert.Equal(t, "from-env", os.Getenv("E2E_DOTENV_SET"))
}
