// Package session runs one journey per browser session and reports each
// session's lifecycle to the telemetry sink.
package session

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/charterbots/api/schemas"
	"github.com/xkilldash9x/charterbots/internal/config"
	"github.com/xkilldash9x/charterbots/internal/humanoid"
	"github.com/xkilldash9x/charterbots/internal/journey"
	"github.com/xkilldash9x/charterbots/internal/persona"
	"github.com/xkilldash9x/charterbots/internal/telemetry"
)

const defaultCloseTimeout = 10 * time.Second

// Browser is a launched browser context scoped to the target application.
type Browser interface {
	journey.Page
	Executor() humanoid.Executor
	// ClientTZ is the timezone the browser reports to the application.
	ClientTZ() string
	Close(ctx context.Context) error
}

// Launcher opens a fresh browser context for one session.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) (Browser, error)

func (f LauncherFunc) Launch(ctx context.Context) (Browser, error) { return f(ctx) }

// ControllerFactory builds the humanoid controller for one persona.
type ControllerFactory func(exec humanoid.Executor, p persona.Persona) humanoid.Controller

// Result is the outcome of one session.
type Result struct {
	SessionID string
	Persona   string
	Role      persona.Role
	Journey   string
	Started   time.Time
	Duration  time.Duration
	Err       error
}

// OK reports whether the journey finished without a hard failure.
func (r Result) OK() bool { return r.Err == nil }

// Runner executes sessions. It is safe for concurrent use; every Run owns its
// own browser and controller.
type Runner struct {
	launcher       Launcher
	sink           telemetry.Sink
	logger         *zap.Logger
	routes         config.RoutesConfig
	sessionTimeout time.Duration
	closeTimeout   time.Duration
	fallbackTZ     string
	newController  ControllerFactory
}

// Option configures a Runner.
type Option func(*Runner)

// WithRoutes sets the per-role entry paths.
func WithRoutes(routes config.RoutesConfig) Option {
	return func(r *Runner) { r.routes = routes }
}

// WithSessionTimeout bounds each session. Zero means no bound.
func WithSessionTimeout(d time.Duration) Option {
	return func(r *Runner) { r.sessionTimeout = d }
}

// WithCloseTimeout bounds the browser teardown.
func WithCloseTimeout(d time.Duration) Option {
	return func(r *Runner) { r.closeTimeout = d }
}

// WithControllerFactory replaces how controllers are built.
func WithControllerFactory(f ControllerFactory) Option {
	return func(r *Runner) { r.newController = f }
}

// WithHumanoidConfig builds controllers from cfg. A non-zero seed is mixed
// with the persona name so concurrent personas do not share a random stream.
func WithHumanoidConfig(cfg humanoid.Config) Option {
	return func(r *Runner) {
		logger := r.logger
		r.newController = func(exec humanoid.Executor, p persona.Persona) humanoid.Controller {
			c := cfg
			if c.Seed != 0 {
				c.Seed ^= nameSeed(p.Name)
			}
			return humanoid.New(c, logger.With(zap.String("persona", p.Name)), exec)
		}
	}
}

// WithFallbackTimezone is reported when no browser could be launched.
func WithFallbackTimezone(tz string) Option {
	return func(r *Runner) { r.fallbackTZ = tz }
}

// NewRunner creates a Runner. A nil sink discards telemetry.
func NewRunner(launcher Launcher, sink telemetry.Sink, logger *zap.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	r := &Runner{
		launcher:     launcher,
		sink:         sink,
		logger:       logger.Named("session"),
		closeTimeout: defaultCloseTimeout,
		fallbackTZ:   schemas.DefaultFingerprint.Timezone,
	}
	WithHumanoidConfig(humanoid.DefaultConfig())(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run launches a browser, runs exactly one journey for p and always closes
// the browser. The returned Result carries the journey's hard failure, if any;
// Run itself never panics on a journey failure.
func (r *Runner) Run(ctx context.Context, p persona.Persona, j journey.Journey) Result {
	res := Result{
		SessionID: uuid.NewString(),
		Persona:   p.Name,
		Role:      p.Role,
		Journey:   j.Name,
		Started:   time.Now(),
	}
	label := "run:" + res.SessionID
	logger := r.logger.With(
		zap.String("session_id", res.SessionID),
		zap.String("persona", p.Name),
		zap.String("journey", j.Name),
	)

	if r.sessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.sessionTimeout)
		defer cancel()
	}

	b, err := r.launcher.Launch(ctx)
	if err != nil {
		res.Err = fmt.Errorf("failed to launch browser: %w", err)
		res.Duration = time.Since(res.Started)
		logger.Error("❌ Session could not start.", zap.Error(res.Err))
		r.emit(p, schemas.ActionSessionError, r.fallbackTZ, label, map[string]interface{}{
			"persona": p.Name,
			"journey": j.Name,
			"error":   res.Err.Error(),
		})
		return res
	}
	defer r.closeBrowser(ctx, b, logger)

	tz := b.ClientTZ()
	logger.Info("Session started.", zap.String("client_tz", tz))
	r.emit(p, schemas.ActionStartSession, tz, label, map[string]interface{}{
		"persona": p.Name,
		"journey": j.Name,
	})

	res.Err = journey.Run(ctx, j, journey.Env{
		Page:    b,
		Human:   r.newController(b.Executor(), p),
		Persona: p,
		Logger:  logger,
		Route:   journey.RouteFor(p.Role, r.routes),
	})
	res.Duration = time.Since(res.Started)

	if res.Err != nil {
		logger.Warn("Session ended with an error.", zap.Duration("duration", res.Duration), zap.Error(res.Err))
		r.emit(p, schemas.ActionSessionError, tz, label, map[string]interface{}{
			"persona": p.Name,
			"journey": j.Name,
			"error":   res.Err.Error(),
		})
		return res
	}

	logger.Info("Session finished.", zap.Duration("duration", res.Duration))
	r.emit(p, schemas.ActionEndSession, tz, label, map[string]interface{}{
		"persona":     p.Name,
		"journey":     j.Name,
		"duration_ms": res.Duration.Milliseconds(),
	})
	return res
}

// closeBrowser runs on its own deadline so that an expired session still
// releases its browser.
func (r *Runner) closeBrowser(ctx context.Context, b Browser, logger *zap.Logger) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.closeTimeout)
	defer cancel()
	if err := b.Close(closeCtx); err != nil {
		logger.Warn("Failed to close browser.", zap.Error(err))
	}
}

func (r *Runner) emit(p persona.Persona, action, tz, label string, payload map[string]interface{}) {
	r.sink.Emit(schemas.TelemetryEvent{
		ActorRole: string(p.Role),
		Action:    action,
		Payload:   payload,
		ClientTZ:  tz,
		Context:   label,
	})
}

func nameSeed(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
