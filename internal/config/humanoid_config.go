// File: internal/config/humanoid_config.go
// This file defines the HumanoidConfig struct, which holds the shared tuning
// constants of the behavior simulation: the spread of the log-normal reaction
// model, the default jitter of short waits, and the typing fallbacks used when
// a persona leaves a value unset.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// HumanoidConfig holds the parameters shared by every simulated actor.
type HumanoidConfig struct {
	// LogNormalSigma is the shape of the think-time distribution.
	LogNormalSigma float64 `mapstructure:"log_normal_sigma" yaml:"log_normal_sigma"`
	// WaitJitter is the fractional spread applied by short waits.
	WaitJitter float64 `mapstructure:"wait_jitter" yaml:"wait_jitter"`
	ThinkMeanMs float64 `mapstructure:"think_mean_ms" yaml:"think_mean_ms"`
	// Fallbacks for personas that leave these unset.
	DefaultWPM       float64 `mapstructure:"default_wpm" yaml:"default_wpm"`
	DefaultErrorRate float64 `mapstructure:"default_error_rate" yaml:"default_error_rate"`
	// Pointer movement time model, in milliseconds: FittsA + FittsB*log2(1+D/W).
	FittsA float64 `mapstructure:"fitts_a" yaml:"fitts_a"`
	FittsB float64 `mapstructure:"fitts_b" yaml:"fitts_b"`
	// TremorPx is the peak hand tremor laid over pointer paths.
	TremorPx float64 `mapstructure:"tremor_px" yaml:"tremor_px"`
	// Seed makes the random source deterministic when non-zero.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

// setHumanoidDefaults centralizes the defaults for the humanoid section.
func setHumanoidDefaults(v *viper.Viper) {
	v.SetDefault("humanoid.log_normal_sigma", 0.6)
	v.SetDefault("humanoid.wait_jitter", 0.35)
	v.SetDefault("humanoid.think_mean_ms", 900.0)
	v.SetDefault("humanoid.default_wpm", 42.0)
	v.SetDefault("humanoid.default_error_rate", 0.04)
	v.SetDefault("humanoid.fitts_a", 80.0)
	v.SetDefault("humanoid.fitts_b", 110.0)
	v.SetDefault("humanoid.tremor_px", 1.2)
	v.SetDefault("humanoid.seed", 0)
}

// Validate checks the humanoid settings for values the models cannot use.
func (h *HumanoidConfig) Validate() error {
	if h.LogNormalSigma <= 0 {
		return fmt.Errorf("log_normal_sigma must be positive")
	}
	if h.WaitJitter < 0 || h.WaitJitter >= 1 {
		return fmt.Errorf("wait_jitter must be in [0, 1)")
	}
	if h.ThinkMeanMs <= 0 || h.DefaultWPM <= 0 {
		return fmt.Errorf("think_mean_ms and default_wpm must be positive")
	}
	if h.DefaultErrorRate < 0 || h.DefaultErrorRate > 1 {
		return fmt.Errorf("default_error_rate must be in [0, 1]")
	}
	if h.FittsA < 0 || h.FittsB < 0 || h.TremorPx < 0 {
		return fmt.Errorf("fitts_a, fitts_b and tremor_px must not be negative")
	}
	return nil
}
