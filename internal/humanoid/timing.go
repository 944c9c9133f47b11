package humanoid

import (
	"context"
	"time"
)

// WaitHuman sleeps avgMs·(1 − j + 2j·U) with the configured jitter j.
func (h *Humanoid) WaitHuman(ctx context.Context, avgMs float64) error {
	return h.WaitJitter(ctx, avgMs, h.cfg.WaitJitter)
}

// WaitJitter is WaitHuman with an explicit jitter fraction.
func (h *Humanoid) WaitJitter(ctx context.Context, avgMs, jitter float64) error {
	factor := 1 - jitter + 2*jitter*h.Uniform(0, 1)
	return h.sleepMs(ctx, avgMs*factor)
}

// Think pauses for a log-normal reaction time. avgMs <= 0 uses the configured mean.
func (h *Humanoid) Think(ctx context.Context, avgMs float64) error {
	if avgMs <= 0 {
		avgMs = h.cfg.ThinkMeanMs
	}
	return h.sleepMs(ctx, h.LogNormalSample(avgMs, h.cfg.Sigma))
}

// pause sleeps a uniformly drawn number of milliseconds.
func (h *Humanoid) pause(ctx context.Context, minMs, maxMs float64) error {
	return h.sleepMs(ctx, h.Uniform(minMs, maxMs))
}

func (h *Humanoid) sleepMs(ctx context.Context, ms float64) error {
	if ms <= 0 {
		return nil
	}
	return h.executor.Sleep(ctx, time.Duration(ms*float64(time.Millisecond)))
}
