package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FEED_URL", "ws://localhost:8081/feed")
	t.Setenv("FEED_USERNAME", "user")
	t.Setenv("FEED_PASSWORD", "pass")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8081/feed", cfg.FeedURL)
	assert.Equal(t, 10*time.Second, cfg.FeedDialTimeout)
	assert.Equal(t, 30*time.Second, cfg.FeedMaxBackoff)
	assert.Equal(t, 10.0, cfg.MinPeakCurrentKA)
	assert.False(t, cfg.PeakCurrentAbsolute)
	assert.Equal(t, 10.0, cfg.ProximityRadiusKm)
	assert.Equal(t, "cities.json", cfg.CatalogPath)
	assert.Equal(t, "lightningData.json", cfg.LedgerPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.AlertKafkaEnabled)
	assert.Equal(t, "lightning-alerts", cfg.AlertKafkaTopic)
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MIN_PEAK_CURRENT_KA", "5000")
	t.Setenv("PEAK_CURRENT_ABSOLUTE", "true")
	t.Setenv("PROXIMITY_RADIUS_KM", "25.5")
	t.Setenv("FEED_MAX_BACKOFF", "2m")
	t.Setenv("CATALOG_PATH", "/etc/alerter/cities.json")
	t.Setenv("LOG_FILE", "/var/log/alerter.log")
	t.Setenv("ALERT_KAFKA_ENABLED", "true")
	t.Setenv("ALERT_KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("ALERT_KAFKA_TOPIC", "alerts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000.0, cfg.MinPeakCurrentKA)
	assert.True(t, cfg.PeakCurrentAbsolute)
	assert.Equal(t, 25.5, cfg.ProximityRadiusKm)
	assert.Equal(t, 2*time.Minute, cfg.FeedMaxBackoff)
	assert.Equal(t, "/etc/alerter/cities.json", cfg.CatalogPath)
	assert.Equal(t, "/var/log/alerter.log", cfg.LogFile)
	assert.True(t, cfg.AlertKafkaEnabled)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.AlertKafkaBrokers)
	assert.Equal(t, "alerts", cfg.AlertKafkaTopic)
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing FEED_URL", map[string]string{"FEED_URL": ""}},
		{"non-websocket FEED_URL", map[string]string{"FEED_URL": "http://localhost:8081/feed"}},
		{"missing credentials", map[string]string{"FEED_USERNAME": "", "FEED_PASSWORD": ""}},
		{"invalid threshold", map[string]string{"MIN_PEAK_CURRENT_KA": "lots"}},
		{"invalid radius", map[string]string{"PROXIMITY_RADIUS_KM": "ten"}},
		{"non-positive radius", map[string]string{"PROXIMITY_RADIUS_KM": "0"}},
		{"invalid dial timeout", map[string]string{"FEED_DIAL_TIMEOUT": "soon"}},
		{"negative backoff", map[string]string{"FEED_MAX_BACKOFF": "-5s"}},
		{"kafka enabled without brokers", map[string]string{"ALERT_KAFKA_ENABLED": "true"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
