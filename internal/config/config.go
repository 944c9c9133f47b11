// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/charterbots/api/schemas"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Journeys  JourneysConfig  `mapstructure:"journeys" yaml:"journeys"`
	Humanoid  HumanoidConfig  `mapstructure:"humanoid" yaml:"humanoid"`
	// Personas extends or overrides the built-in persona registry.
	Personas []PersonaConfig `mapstructure:"personas" yaml:"personas"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser driving the journeys.
type BrowserConfig struct {
	// BaseURL is the root of the target application; journeys join their entry routes onto it.
	BaseURL            string        `mapstructure:"base_url" yaml:"base_url"`
	Headless           bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors    bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args               []string      `mapstructure:"args" yaml:"args"`
	UserAgent          string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timezone           string        `mapstructure:"timezone" yaml:"timezone"`
	Locale             string        `mapstructure:"locale" yaml:"locale"`
	ViewportWidth      int64         `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight     int64         `mapstructure:"viewport_height" yaml:"viewport_height"`
	LaunchTimeout      time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	NetworkIdleTimeout time.Duration `mapstructure:"network_idle_timeout" yaml:"network_idle_timeout"`
	ActionTimeout      time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
}

// Fingerprint assembles the browser fingerprint from the configured overrides,
// falling back to schemas.DefaultFingerprint for anything unset.
func (b BrowserConfig) Fingerprint() schemas.Fingerprint {
	fp := schemas.DefaultFingerprint
	if b.UserAgent != "" {
		fp.UserAgent = b.UserAgent
	}
	if b.Timezone != "" {
		fp.Timezone = b.Timezone
	}
	if b.Locale != "" {
		fp.Locale = b.Locale
		fp.Languages = []string{b.Locale, strings.SplitN(b.Locale, "-", 2)[0]}
	}
	if b.ViewportWidth > 0 {
		fp.Width = b.ViewportWidth
	}
	if b.ViewportHeight > 0 {
		fp.Height = b.ViewportHeight
	}
	return fp
}

// TelemetryConfig configures the optional lifecycle event collector.
// An empty Endpoint disables emission entirely.
type TelemetryConfig struct {
	Endpoint      string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	QueueSize     int           `mapstructure:"queue_size" yaml:"queue_size"`
	BatchSize     int           `mapstructure:"batch_size" yaml:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval" yaml:"flush_interval"`
	// RateLimit caps outbound POSTs per second.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// Enabled reports whether a collector endpoint is configured.
func (t TelemetryConfig) Enabled() bool { return strings.TrimSpace(t.Endpoint) != "" }

// JourneysConfig holds settings for journey scheduling and routing.
type JourneysConfig struct {
	Routes RoutesConfig `mapstructure:"routes" yaml:"routes"`
	// Concurrency bounds how many persona sessions run at once.
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
	SessionTimeout time.Duration `mapstructure:"session_timeout" yaml:"session_timeout"`
}

// RoutesConfig maps each role to its entry path on the target application.
type RoutesConfig struct {
	Broker   string `mapstructure:"broker" yaml:"broker"`
	Operator string `mapstructure:"operator" yaml:"operator"`
	Pilot    string `mapstructure:"pilot" yaml:"pilot"`
	Crew     string `mapstructure:"crew" yaml:"crew"`
}

// PersonaConfig is the file representation of a persona. It is converted into an
// immutable persona by the persona package.
type PersonaConfig struct {
	Name           string             `mapstructure:"name" yaml:"name"`
	Role           string             `mapstructure:"role" yaml:"role"`
	Credentials    schemas.Credential `mapstructure:"credentials" yaml:"credentials"`
	TypingWPM      float64            `mapstructure:"typing_wpm" yaml:"typing_wpm"`
	Hesitation     float64            `mapstructure:"hesitation" yaml:"hesitation"`
	ErrorRate      float64            `mapstructure:"error_rate" yaml:"error_rate"`
	PatienceMinSec float64            `mapstructure:"patience_min_sec" yaml:"patience_min_sec"`
	PatienceMaxSec float64            `mapstructure:"patience_max_sec" yaml:"patience_max_sec"`
	AllowsFollowup bool               `mapstructure:"allows_followup" yaml:"allows_followup"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "charterbots")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.base_url", "http://localhost:5173")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.timezone", schemas.DefaultFingerprint.Timezone)
	v.SetDefault("browser.locale", schemas.DefaultFingerprint.Locale)
	v.SetDefault("browser.viewport_width", schemas.DefaultFingerprint.Width)
	v.SetDefault("browser.viewport_height", schemas.DefaultFingerprint.Height)
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.navigation_timeout", "45s")
	v.SetDefault("browser.network_idle_timeout", "15s")
	v.SetDefault("browser.action_timeout", "10s")

	// -- Telemetry --
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.timeout", "5s")
	v.SetDefault("telemetry.queue_size", 256)
	v.SetDefault("telemetry.batch_size", 16)
	v.SetDefault("telemetry.flush_interval", "1s")
	v.SetDefault("telemetry.rate_limit", 5.0)

	// -- Journeys --
	v.SetDefault("journeys.routes.broker", "/broker")
	v.SetDefault("journeys.routes.operator", "/operator")
	v.SetDefault("journeys.routes.pilot", "/pilot")
	v.SetDefault("journeys.routes.crew", "/crew")
	v.SetDefault("journeys.concurrency", 2)
	v.SetDefault("journeys.session_timeout", "5m")

	setHumanoidDefaults(v)
}

// BindEnv wires the environment variables the tooling has always honoured.
// BASE_URL and TELEMETRY_ENDPOINT are accepted unprefixed alongside the CHARTERBOTS_ forms.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CHARTERBOTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("browser.base_url", "CHARTERBOTS_BROWSER_BASE_URL", "BASE_URL")
	_ = v.BindEnv("telemetry.endpoint", "CHARTERBOTS_TELEMETRY_ENDPOINT", "TELEMETRY_ENDPOINT")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Logger.LogFile != "" {
		expanded, err := homedir.Expand(cfg.Logger.LogFile)
		if err != nil {
			return nil, fmt.Errorf("could not resolve log file path '%s': %w", cfg.Logger.LogFile, err)
		}
		cfg.Logger.LogFile = expanded
	}
	cfg.Browser.BaseURL = strings.TrimRight(cfg.Browser.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Browser.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("browser.base_url must be an absolute URL, got %q", c.Browser.BaseURL)
	}
	if c.Journeys.Concurrency <= 0 {
		return fmt.Errorf("journeys.concurrency must be a positive integer")
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry configuration invalid: %w", err)
	}
	if err := c.Humanoid.Validate(); err != nil {
		return fmt.Errorf("humanoid configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the telemetry settings. A disabled collector is always valid.
func (t *TelemetryConfig) Validate() error {
	if !t.Enabled() {
		return nil
	}
	u, err := url.Parse(t.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint must be an http(s) URL, got %q", t.Endpoint)
	}
	if t.QueueSize <= 0 || t.BatchSize <= 0 {
		return fmt.Errorf("queue_size and batch_size must be positive")
	}
	if t.Timeout <= 0 || t.FlushInterval <= 0 {
		return fmt.Errorf("timeout and flush_interval must be positive durations")
	}
	if t.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive")
	}
	return nil
}
