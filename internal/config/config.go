package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds the search proxy settings, populated from environment variables.
type Config struct {
	// Provider credentials. Both are required; the proxy refuses to start without them.
	AlgoliaAppID    string
	AlgoliaAdminKey string
	AlgoliaHost     string // overrides https://<app id>-dsn.algolia.net

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Provider hop hardening.
	ProviderTimeout    time.Duration
	ProviderMaxRetries int
	ProviderRateLimit  float64 // requests per second, 0 disables
	ProviderRateBurst  int
	IndexCacheSize     int

	// Search audit publishing, enabled when brokers are configured.
	KafkaBrokers    []string
	KafkaAuditTopic string
	AuditEnabled    bool
}

// Load reads configuration from environment variables, applying defaults where unset.
// Values from a .env file in the working directory are applied first without
// overriding the real environment.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	providerTimeout, err := parsePositiveDuration("PROVIDER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	maxRetries, err := parseNonNegativeInt("PROVIDER_MAX_RETRIES", 2)
	if err != nil {
		return nil, err
	}

	rateLimit, err := parseRateLimit()
	if err != nil {
		return nil, err
	}

	rateBurst, err := parseNonNegativeInt("PROVIDER_RATE_BURST", 1)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		AlgoliaAppID:    os.Getenv("ALGOLIA_APP_ID"),
		AlgoliaAdminKey: os.Getenv("ALGOLIA_ADMIN_KEY"),
		AlgoliaHost:     os.Getenv("ALGOLIA_HOST"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":4000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ProviderTimeout:    providerTimeout,
		ProviderMaxRetries: maxRetries,
		ProviderRateLimit:  rateLimit,
		ProviderRateBurst:  max(rateBurst, 1),
		IndexCacheSize:     parseIndexCacheSize(),

		KafkaBrokers:    brokers,
		KafkaAuditTopic: sharedcfg.EnvOrDefault("KAFKA_AUDIT_TOPIC", "search-audit"),
		AuditEnabled:    len(brokers) > 0,
	}

	if cfg.AlgoliaAppID == "" {
		return nil, errors.New("ALGOLIA_APP_ID is required")
	}
	if cfg.AlgoliaAdminKey == "" {
		return nil, errors.New("ALGOLIA_ADMIN_KEY is required")
	}

	return cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseRateLimit() (float64, error) {
	s := os.Getenv("PROVIDER_RATE_LIMIT")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, errors.New("invalid PROVIDER_RATE_LIMIT")
	}
	return v, nil
}

func parseIndexCacheSize() int {
	if s := os.Getenv("INDEX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 16
}
