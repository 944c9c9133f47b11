// Filename: internal/humanoid/humanoid.go
package humanoid

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/charterbots/internal/config"
)

// ErrNoBoundingBox is returned by executors when an element exists but has no layout box.
var ErrNoBoundingBox = errors.New("humanoid: element has no bounding box")

// Config holds the tuning of the timing models.
type Config struct {
	// Sigma is the shape parameter of the log-normal reaction model.
	Sigma float64
	// WaitJitter is the fractional spread used by WaitHuman.
	WaitJitter float64
	// ThinkMeanMs is the mean used when a caller asks for a default think pause.
	ThinkMeanMs float64
	// FittsA and FittsB are the intercept and slope, in milliseconds, of the
	// pointer movement time model.
	FittsA float64
	FittsB float64
	// TremorPx is the peak amplitude of the hand tremor laid over a pointer path.
	TremorPx float64
	// Seed makes the random source deterministic when non-zero.
	Seed int64
}

// DefaultConfig returns the stock timing model.
func DefaultConfig() Config {
	return Config{
		Sigma:       0.6,
		WaitJitter:  0.35,
		ThinkMeanMs: 900,
		FittsA:      80,
		FittsB:      110,
		TremorPx:    1.2,
	}
}

// ConfigFrom maps the application configuration onto the timing model.
func ConfigFrom(hc config.HumanoidConfig) Config {
	cfg := DefaultConfig()
	if hc.LogNormalSigma > 0 {
		cfg.Sigma = hc.LogNormalSigma
	}
	if hc.WaitJitter >= 0 && hc.WaitJitter < 1 {
		cfg.WaitJitter = hc.WaitJitter
	}
	if hc.ThinkMeanMs > 0 {
		cfg.ThinkMeanMs = hc.ThinkMeanMs
	}
	if hc.FittsA > 0 {
		cfg.FittsA = hc.FittsA
	}
	if hc.FittsB > 0 {
		cfg.FittsB = hc.FittsB
	}
	if hc.TremorPx > 0 {
		cfg.TremorPx = hc.TremorPx
	}
	cfg.Seed = hc.Seed
	return cfg
}

// Humanoid drives one simulated actor. It is owned by a single journey; the
// mutex only guards the random source and the tracked cursor position.
type Humanoid struct {
	cfg      Config
	executor Executor
	logger   *zap.Logger

	mu         sync.Mutex
	rng        *rand.Rand
	noiseX     *PinkNoiseGenerator
	noiseY     *PinkNoiseGenerator
	currentPos Vector2D
}

var _ Controller = (*Humanoid)(nil)

// New creates a Humanoid bound to executor.
func New(cfg Config, logger *zap.Logger, executor Executor) *Humanoid {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := rand.New(rand.NewSource(seed))
	return &Humanoid{
		cfg:      cfg,
		executor: executor,
		logger:   logger.Named("humanoid"),
		rng:      rng,
		noiseX:   NewPinkNoiseGenerator(rng, 12),
		noiseY:   NewPinkNoiseGenerator(rng, 12),
	}
}

// NewTestHumanoid returns a deterministic Humanoid with the default model.
func NewTestHumanoid(executor Executor, seed int64) *Humanoid {
	cfg := DefaultConfig()
	cfg.Seed = seed
	return New(cfg, zap.NewNop(), executor)
}

// Config returns the model the Humanoid was built with.
func (h *Humanoid) Config() Config {
	return h.cfg
}
