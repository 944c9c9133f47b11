// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "charterbots", cfg.Logger.ServiceName)
	assert.Equal(t, "http://localhost:5173", cfg.Browser.BaseURL)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 15*time.Second, cfg.Browser.NetworkIdleTimeout)
	assert.False(t, cfg.Telemetry.Enabled())
	assert.Equal(t, "/broker", cfg.Journeys.Routes.Broker)
	assert.Equal(t, "/crew", cfg.Journeys.Routes.Crew)
	assert.Equal(t, 0.6, cfg.Humanoid.LogNormalSigma)
	assert.Equal(t, 0.35, cfg.Humanoid.WaitJitter)
	assert.Equal(t, 900.0, cfg.Humanoid.ThinkMeanMs)
	assert.Equal(t, 42.0, cfg.Humanoid.DefaultWPM)
	assert.Equal(t, 0.04, cfg.Humanoid.DefaultErrorRate)
	assert.Equal(t, 80.0, cfg.Humanoid.FittsA)
	assert.Equal(t, 110.0, cfg.Humanoid.FittsB)
	assert.Equal(t, 1.2, cfg.Humanoid.TremorPx)
	require.NoError(t, cfg.Validate())
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate())

		relative := *cfg
		relative.Browser.BaseURL = "/just/a/path"
		err := relative.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.base_url must be an absolute URL")

		noWorkers := *cfg
		noWorkers.Journeys.Concurrency = 0
		err = noWorkers.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "journeys.concurrency must be a positive integer")
	})

	t.Run("Telemetry Validation", func(t *testing.T) {
		tc := NewDefaultConfig().Telemetry
		assert.NoError(t, tc.Validate(), "disabled telemetry is always valid")

		tc.Endpoint = "ftp://collector.example"
		assert.ErrorContains(t, tc.Validate(), "endpoint must be an http(s) URL")

		tc.Endpoint = "https://collector.example/events"
		assert.NoError(t, tc.Validate())

		tc.RateLimit = 0
		assert.ErrorContains(t, tc.Validate(), "rate_limit must be positive")
	})

	t.Run("Humanoid Validation", func(t *testing.T) {
		hc := NewDefaultConfig().Humanoid
		hc.WaitJitter = 1.0
		assert.ErrorContains(t, hc.Validate(), "wait_jitter")

		hc = NewDefaultConfig().Humanoid
		hc.DefaultErrorRate = 1.5
		assert.ErrorContains(t, hc.Validate(), "default_error_rate")

		hc = NewDefaultConfig().Humanoid
		hc.TremorPx = -1
		assert.ErrorContains(t, hc.Validate(), "tremor_px")
	})
}

// -- Loading Tests --

func TestNewConfigFromViper_YAMLAndEnv(t *testing.T) {
	yamlConfig := []byte(`
browser:
  base_url: "https://staging.charter.example/"
  headless: false
telemetry:
  endpoint: "https://collector.example/ingest"
journeys:
  concurrency: 4
personas:
  - name: "late-night-broker"
    role: "broker"
    typing_wpm: 30
    hesitation: 0.7
    error_rate: 0.09
    patience_min_sec: 4
    patience_max_sec: 12
    credentials:
      username: "night@broker.example"
      password: "secret"
`)

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

	t.Setenv("TELEMETRY_ENDPOINT", "https://override.example/events")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.charter.example", cfg.Browser.BaseURL, "trailing slash is trimmed")
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "https://override.example/events", cfg.Telemetry.Endpoint, "env wins over file")
	assert.Equal(t, 4, cfg.Journeys.Concurrency)
	require.Len(t, cfg.Personas, 1)
	p := cfg.Personas[0]
	assert.Equal(t, "late-night-broker", p.Name)
	assert.Equal(t, 30.0, p.TypingWPM)
	assert.Equal(t, 12.0, p.PatienceMaxSec)
	assert.Equal(t, "night@broker.example", p.Credentials.Username)
}

func TestNewConfigFromViper_BaseURLFromEnv(t *testing.T) {
	t.Setenv("BASE_URL", "http://127.0.0.1:4000")

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:4000", cfg.Browser.BaseURL)
}

func TestNewConfigFromViper_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("journeys.concurrency", -1)

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestBrowserConfig_Fingerprint(t *testing.T) {
	bc := BrowserConfig{Timezone: "America/New_York", Locale: "en-US", ViewportWidth: 1280}
	fp := bc.Fingerprint()

	assert.Equal(t, "America/New_York", fp.Timezone)
	assert.Equal(t, "en-US", fp.Locale)
	assert.Equal(t, []string{"en-US", "en"}, fp.Languages)
	assert.Equal(t, int64(1280), fp.Width)
	assert.NotEmpty(t, fp.UserAgent)
}
