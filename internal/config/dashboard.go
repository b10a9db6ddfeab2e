package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Ordering policies for responses that arrive out of order.
const (
	OrderingLastArrived     = "last-arrived"
	OrderingLatestInitiated = "latest-initiated"
)

// DashboardConfig holds the settings of the map dashboard driver.
type DashboardConfig struct {
	ProxyURL     string
	HitsPerPage  int
	FetchTimeout time.Duration
	BoundsFilter bool
	Ordering     string
	LogLevel     string
	LogFormat    string
}

// LoadDashboard reads dashboard configuration from environment variables.
func LoadDashboard() (*DashboardConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	hitsPerPage := 500
	if s := os.Getenv("HITS_PER_PAGE"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, errors.New("invalid HITS_PER_PAGE")
		}
		hitsPerPage = n
	}

	boundsFilter := false
	if s := os.Getenv("BOUNDS_FILTER"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.New("invalid BOUNDS_FILTER")
		}
		boundsFilter = v
	}

	cfg := &DashboardConfig{
		ProxyURL:     sharedcfg.EnvOrDefault("PROXY_URL", "http://localhost:4000"),
		HitsPerPage:  hitsPerPage,
		FetchTimeout: fetchTimeout,
		BoundsFilter: boundsFilter,
		Ordering:     sharedcfg.EnvOrDefault("ORDERING", OrderingLastArrived),
		LogLevel:     sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
	}

	u, err := url.Parse(cfg.ProxyURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid PROXY_URL %q", cfg.ProxyURL)
	}
	switch cfg.Ordering {
	case OrderingLastArrived, OrderingLatestInitiated:
	default:
		return nil, fmt.Errorf("invalid ORDERING %q", cfg.Ordering)
	}

	return cfg, nil
}
