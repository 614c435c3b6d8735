package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Upstream strike feed.
	FeedURL         string
	FeedUsername    string
	FeedPassword    string
	FeedDialTimeout time.Duration
	FeedMaxBackoff  time.Duration

	// Classification.
	MinPeakCurrentKA    float64
	PeakCurrentAbsolute bool
	ProximityRadiusKm   float64

	// Reference data and persistence.
	CatalogPath string
	LedgerPath  string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration

	// Optional Kafka alert mirror.
	AlertKafkaEnabled bool
	AlertKafkaBrokers []string
	AlertKafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	minPeak, err := parseFloat("MIN_PEAK_CURRENT_KA", "10")
	if err != nil {
		return nil, err
	}
	radius, err := parseFloat("PROXIMITY_RADIUS_KM", "10")
	if err != nil {
		return nil, err
	}
	dialTimeout, err := parseDuration("FEED_DIAL_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	maxBackoff, err := parseDuration("FEED_MAX_BACKOFF", "30s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		FeedURL:         os.Getenv("FEED_URL"),
		FeedUsername:    os.Getenv("FEED_USERNAME"),
		FeedPassword:    os.Getenv("FEED_PASSWORD"),
		FeedDialTimeout: dialTimeout,
		FeedMaxBackoff:  maxBackoff,

		MinPeakCurrentKA:    minPeak,
		PeakCurrentAbsolute: os.Getenv("PEAK_CURRENT_ABSOLUTE") == "true",
		ProximityRadiusKm:   radius,

		CatalogPath: envOrDefault("CATALOG_PATH", "cities.json"),
		LedgerPath:  envOrDefault("LEDGER_PATH", "lightningData.json"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv("LOG_FILE"),
		ShutdownTimeout: shutdownTimeout,

		AlertKafkaEnabled: os.Getenv("ALERT_KAFKA_ENABLED") == "true",
		AlertKafkaBrokers: parseBrokers(os.Getenv("ALERT_KAFKA_BROKERS")),
		AlertKafkaTopic:   envOrDefault("ALERT_KAFKA_TOPIC", "lightning-alerts"),
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL is required")
	}
	u, err := url.Parse(cfg.FeedURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, fmt.Errorf("FEED_URL %q must be a ws:// or wss:// URL", cfg.FeedURL)
	}
	if cfg.FeedUsername == "" || cfg.FeedPassword == "" {
		return nil, errors.New("FEED_USERNAME and FEED_PASSWORD are required")
	}
	if cfg.ProximityRadiusKm <= 0 {
		return nil, errors.New("PROXIMITY_RADIUS_KM must be positive")
	}
	if cfg.AlertKafkaEnabled && len(cfg.AlertKafkaBrokers) == 0 {
		return nil, errors.New("ALERT_KAFKA_ENABLED is true but ALERT_KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseFloat(key, def string) (float64, error) {
	raw := envOrDefault(key, def)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
