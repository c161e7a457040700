package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all settings for the ETL job and the dashboard, populated
// from environment variables.
type Config struct {
	SourcePath   string
	SourceSheet  string
	SnapshotPath string
	MirrorPath   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Dashboard cache and paging.
	CacheTTL time.Duration
	PageSize int

	// MetricsTextfile, when set, receives the ETL run metrics in the
	// node-exporter textfile format.
	MetricsTextfile string

	// Snapshot-published notifications.
	KafkaBrokers []string
	KafkaEnabled bool
	KafkaTopic   string
	KafkaGroupID string

	// Optional snapshot upload.
	S3Bucket          string
	S3Key             string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// S3Enabled reports whether snapshot upload is configured.
func (c *Config) S3Enabled() bool { return c.S3Bucket != "" }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("CACHE_TTL", "1h"))
	if err != nil || cacheTTL <= 0 {
		return nil, errors.New("invalid CACHE_TTL")
	}

	pageSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("PAGE_SIZE", "9"))
	if err != nil || pageSize <= 0 || pageSize > 100 {
		return nil, errors.New("invalid PAGE_SIZE: must be between 1 and 100")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		SourcePath:   sharedcfg.EnvOrDefault("SOURCE_PATH", "data/raw/IEA Hydrogen Production Projects Database.xlsx"),
		SourceSheet:  sharedcfg.EnvOrDefault("SOURCE_SHEET", "Projects"),
		SnapshotPath: sharedcfg.EnvOrDefault("SNAPSHOT_PATH", "data/processed/cleaned.parquet"),
		MirrorPath:   sharedcfg.EnvOrDefault("MIRROR_PATH", "data/projects.db"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     splitList(sharedcfg.EnvOrDefault("CORS_ORIGINS", "http://localhost:8080")),

		CacheTTL: cacheTTL,
		PageSize: pageSize,

		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),

		KafkaBrokers: brokers,
		KafkaEnabled: kafkaEnabled,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "hydrogen-snapshots"),
		KafkaGroupID: sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "hydrogen-dashboard"),

		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Key:             sharedcfg.EnvOrDefault("S3_KEY", "snapshots/cleaned.parquet"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          sharedcfg.EnvOrDefault("S3_REGION", "us-east-1"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
	}

	if cfg.SourceSheet == "" {
		return nil, errors.New("SOURCE_SHEET is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when kafka is enabled")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
