package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all importer configuration.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Database DatabaseConfig

	Import ImportConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL, when set, overrides the individual POSTGRES_* fields.
	URL string `env:"DATABASE_URL"`

	Host         string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User         string        `env:"POSTGRES_USER" envDefault:"geoimport"`
	Password     string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database     string        `env:"POSTGRES_DB" envDefault:"geoimport"`
	SSLMode      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"4"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"1"`
	MaxIdleTime  time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	QueryDebug   bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// ImportConfig holds the bulk-import tunables.
type ImportConfig struct {
	// DataDir contains the division (and division_area) parquet shards.
	DataDir string `env:"GEO_DATA_DIR" envDefault:"./data/divisions"`

	// BatchSize is the page size for plain row streaming.
	BatchSize int `env:"GEO_BATCH_SIZE" envDefault:"50000"`

	// BoundaryBatchSize is smaller because geometry payloads are large.
	BoundaryBatchSize int `env:"GEO_BOUNDARY_BATCH_SIZE" envDefault:"500"`

	// NamesBatchSize stays under the 65535 bind-parameter ceiling.
	NamesBatchSize int `env:"GEO_NAMES_BATCH_SIZE" envDefault:"10000"`

	// ReportEvery is the progress log interval in rows.
	ReportEvery int `env:"GEO_REPORT_EVERY" envDefault:"50000"`

	// OrphanHopLimit bounds parent-chain walks. A safety parameter against
	// cyclic or malformed parent pointers, not a semantic guarantee.
	OrphanHopLimit int `env:"GEO_ORPHAN_HOP_LIMIT" envDefault:"20"`
}

// NewConfig loads configuration from environment variables.
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("db_host", cfg.Database.Host),
		slog.String("data_dir", cfg.Import.DataDir),
		slog.Int("batch_size", cfg.Import.BatchSize),
	)

	return cfg, nil
}
