package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
	"github.com/spf13/viper"
)

// BrowserConfig selects and configures the automation engine.
type BrowserConfig struct {
	Engine     string // rod or playwright
	Headless   bool
	Timeout    time.Duration
	Bin        string
	ControlURL string
	NoSandbox  bool
	Install    bool
}

// RunConfig holds scenario runner settings.
type RunConfig struct {
	Concurrency   int
	Scenarios     []string
	ExpectTimeout time.Duration
	Report        bool
}

// StorageConfig holds blob storage configuration.
type StorageConfig struct {
	Type            string // "local" or "s3"
	BaseDir         string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3Prefix        string
	S3PathStyle     bool
	S3PresignExpiry time.Duration
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     string
	AutoMigrate  bool
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// SUTConfig configures the bundled fake system under test.
type SUTConfig struct {
	Addr             string
	Users            []string // email:password
	MaxLoginAttempts int
	PagePath         string
	WarmupRequests   int
	ActionBurst      int
	ActionInterval   time.Duration
	Cooldown         time.Duration
	CookieSecret     string
}

// Config holds all application configuration.
type Config struct {
	Browser  BrowserConfig
	Run      RunConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Log      LogConfig
	SUT      SUTConfig

	// Source serves the scenario keys from the same file and environment.
	Source envconfig.Source
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("e2e")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("browser.engine", "rod")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.timeout", "30s")
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.install", false)

	v.SetDefault("run.concurrency", 1)
	v.SetDefault("run.expect_timeout", "5s")
	v.SetDefault("run.report", true)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_dir", "./e2e-results/artifacts")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_presign_expiry", "15m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./e2e-results/runs.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.database", "ui_e2e")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.log_level", "silent")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("sut.addr", "127.0.0.1:8081")
	v.SetDefault("sut.users", []string{"user@example.com:password123"})
	v.SetDefault("sut.max_login_attempts", 3)
	v.SetDefault("sut.page_path", "/page")
	v.SetDefault("sut.warmup_requests", 2)
	v.SetDefault("sut.action_burst", 3)
	v.SetDefault("sut.action_interval", "10s")
	v.SetDefault("sut.cooldown", "5s")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config

	config.Browser.Engine = strings.ToLower(v.GetString("browser.engine"))
	config.Browser.Headless = v.GetBool("browser.headless")
	config.Browser.Timeout = v.GetDuration("browser.timeout")
	config.Browser.Bin = v.GetString("browser.bin")
	config.Browser.ControlURL = v.GetString("browser.control_url")
	config.Browser.NoSandbox = v.GetBool("browser.no_sandbox")
	config.Browser.Install = v.GetBool("browser.install")

	config.Run.Concurrency = v.GetInt("run.concurrency")
	config.Run.Scenarios = v.GetStringSlice("run.scenarios")
	config.Run.ExpectTimeout = v.GetDuration("run.expect_timeout")
	config.Run.Report = v.GetBool("run.report")

	config.Storage.Type = v.GetString("storage.type")
	config.Storage.BaseDir = v.GetString("storage.base_dir")
	config.Storage.S3Bucket = v.GetString("storage.s3_bucket")
	config.Storage.S3Region = v.GetString("storage.s3_region")
	config.Storage.S3Endpoint = v.GetString("storage.s3_endpoint")
	config.Storage.S3Prefix = v.GetString("storage.s3_prefix")
	config.Storage.S3PathStyle = v.GetBool("storage.s3_path_style")
	config.Storage.S3PresignExpiry = v.GetDuration("storage.s3_presign_expiry")

	config.Database.Driver = strings.ToLower(v.GetString("database.driver"))
	config.Database.Host = v.GetString("database.host")
	config.Database.Port = v.GetInt("database.port")
	config.Database.User = v.GetString("database.user")
	config.Database.Password = v.GetString("database.password")
	config.Database.Database = v.GetString("database.database")
	config.Database.Path = v.GetString("database.path")
	config.Database.MaxOpenConns = v.GetInt("database.max_open_conns")
	config.Database.MaxIdleConns = v.GetInt("database.max_idle_conns")
	config.Database.LogLevel = v.GetString("database.log_level")
	config.Database.AutoMigrate = v.GetBool("database.auto_migrate")

	config.Log.Level = v.GetString("log.level")
	config.Log.Format = v.GetString("log.format")

	config.SUT.Addr = v.GetString("sut.addr")
	config.SUT.Users = v.GetStringSlice("sut.users")
	config.SUT.MaxLoginAttempts = v.GetInt("sut.max_login_attempts")
	config.SUT.PagePath = v.GetString("sut.page_path")
	config.SUT.WarmupRequests = v.GetInt("sut.warmup_requests")
	config.SUT.ActionBurst = v.GetInt("sut.action_burst")
	config.SUT.ActionInterval = v.GetDuration("sut.action_interval")
	config.SUT.Cooldown = v.GetDuration("sut.cooldown")
	config.SUT.CookieSecret = v.GetString("sut.cookie_secret")

	config.Source = envconfig.NewViperSource(v)

	return &config, nil
}

// parseUsers splits email:password pairs.
func parseUsers(pairs []string) (map[string]string, error) {
	users := make(map[string]string, len(pairs))
	for _, p := range pairs {
		email, password, ok := strings.Cut(p, ":")
		if !ok || email == "" || password == "" {
			return nil, fmt.Errorf("invalid user %q: want email:password", p)
		}
		users[email] = password
	}
	return users, nil
}
