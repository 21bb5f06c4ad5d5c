package main

import (
	"context"
	"fmt"
	"io"

	"github.com/hairizuanbinnoorazman/ui-e2e/database"
	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"github.com/hairizuanbinnoorazman/ui-e2e/driver/pwdriver"
	"github.com/hairizuanbinnoorazman/ui-e2e/driver/rodriver"
	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"github.com/hairizuanbinnoorazman/ui-e2e/report"
	"github.com/hairizuanbinnoorazman/ui-e2e/storage"
	"gorm.io/gorm"
)

// loadConfig loads .env files, then the config file and environment.
func loadConfig() (*Config, error) {
	if err := envconfig.LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg LogConfig, out io.Writer) logger.Logger {
	return logger.NewLogrusLoggerTo(out, cfg.Level, logger.Format(cfg.Format))
}

func launchBrowser(ctx context.Context, cfg BrowserConfig, log logger.Logger) (driver.Browser, error) {
	switch cfg.Engine {
	case "", "rod":
		return rodriver.Launch(ctx, rodriver.Config{
			Headless:   cfg.Headless,
			Timeout:    cfg.Timeout,
			Bin:        cfg.Bin,
			ControlURL: cfg.ControlURL,
			NoSandbox:  cfg.NoSandbox,
		}, log)
	case "playwright":
		return pwdriver.Launch(ctx, pwdriver.Config{
			Headless: cfg.Headless,
			Timeout:  cfg.Timeout,
			Install:  cfg.Install,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported browser engine %q", cfg.Engine)
	}
}

func databaseConfig(cfg DatabaseConfig) database.Config {
	return database.Config{
		Driver:       cfg.Driver,
		Host:         cfg.Host,
		Port:         cfg.Port,
		User:         cfg.User,
		Password:     cfg.Password,
		Database:     cfg.Database,
		Path:         cfg.Path,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		LogLevel:     cfg.LogLevel,
	}
}

// openDatabase connects and, when configured, applies pending migrations.
// The returned func closes the connection.
func openDatabase(cfg DatabaseConfig, migrate bool) (*gorm.DB, func(), error) {
	db, err := database.Connect(databaseConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	closeFn := func() { sqlDB.Close() }

	if migrate {
		if err := database.RunMigrations(sqlDB, cfg.Driver); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	return db, closeFn, nil
}

func openStorage(ctx context.Context, cfg StorageConfig) (storage.BlobStorage, error) {
	return storage.New(ctx, storage.Config{
		Type:          cfg.Type,
		LocalDir:      cfg.BaseDir,
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		Endpoint:      cfg.S3Endpoint,
		Prefix:        cfg.S3Prefix,
		PathStyle:     cfg.S3PathStyle,
		PresignExpiry: cfg.S3PresignExpiry,
	})
}

// openReporter wires the run stores and artifact storage.
func openReporter(ctx context.Context, cfg *Config, log logger.Logger) (*report.Reporter, func(), error) {
	db, closeFn, err := openDatabase(cfg.Database, cfg.Database.AutoMigrate)
	if err != nil {
		return nil, nil, err
	}
	blobs, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	r := report.NewReporter(
		report.NewMySQLStore(db, log),
		report.NewMySQLStepStore(db, log),
		report.NewMySQLAttachmentStore(db, log),
		blobs,
		log,
	)
	return r, closeFn, nil
}
