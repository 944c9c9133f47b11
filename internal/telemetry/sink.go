// Package telemetry ships session lifecycle events to an optional external
// collector. Delivery is best-effort and at-most-once: events may be dropped
// under back-pressure and failed posts are never retried. Nothing here can fail
// a journey.
package telemetry

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/charterbots/api/schemas"
	"github.com/xkilldash9x/charterbots/internal/config"
	"github.com/xkilldash9x/charterbots/internal/network"
)

// Sink accepts lifecycle events. Emit must never block the caller.
type Sink interface {
	Emit(ev schemas.TelemetryEvent)
	// Close flushes what it can before ctx expires and releases resources.
	Close(ctx context.Context) error
}

// NopSink discards everything. It is used when no collector is configured.
type NopSink struct{}

func (NopSink) Emit(schemas.TelemetryEvent) {}

func (NopSink) Close(context.Context) error { return nil }

// New returns an HTTP sink for the configured endpoint, or a NopSink when
// telemetry is disabled.
func New(cfg config.TelemetryConfig, ignoreTLSErrors bool, logger *zap.Logger) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled() {
		logger.Debug("No telemetry endpoint configured; events will be discarded.")
		return NopSink{}
	}

	clientCfg := network.NewDefaultClientConfig()
	clientCfg.IgnoreTLSErrors = ignoreTLSErrors
	clientCfg.Logger = logger
	if cfg.Timeout > 0 {
		clientCfg.RequestTimeout = cfg.Timeout
	}
	return NewHTTPSink(cfg, network.NewClient(clientCfg), logger)
}
