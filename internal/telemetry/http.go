package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/charterbots/api/schemas"
	"github.com/xkilldash9x/charterbots/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultQueueSize     = 256
	defaultBatchSize     = 16
	defaultFlushInterval = time.Second
	defaultTimeout       = 5 * time.Second
)

// Stats is a snapshot of delivery counters.
type Stats struct {
	Sent    int64
	Dropped int64
	Failed  int64
}

// HTTPSink posts batches of events as a JSON array from a single background
// worker. Emit enqueues without blocking; a full queue drops the event.
type HTTPSink struct {
	endpoint      string
	client        *http.Client
	limiter       *rate.Limiter
	logger        *zap.Logger
	batchSize     int
	flushInterval time.Duration
	timeout       time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan schemas.TelemetryEvent

	workerCtx    context.Context
	cancelWorker context.CancelFunc
	workerDone   chan struct{}
	closeOnce    sync.Once

	sent    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewHTTPSink starts the worker immediately. Zero values in cfg take defaults.
func NewHTTPSink(cfg config.TelemetryConfig, client *http.Client, logger *zap.Logger) *HTTPSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = http.DefaultClient
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flush := cfg.FlushInterval
	if flush <= 0 {
		flush = defaultFlushInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &HTTPSink{
		endpoint:      cfg.Endpoint,
		client:        client,
		limiter:       rate.NewLimiter(limit, 1),
		logger:        logger.Named("telemetry"),
		batchSize:     batchSize,
		flushInterval: flush,
		timeout:       timeout,
		queue:         make(chan schemas.TelemetryEvent, queueSize),
		workerCtx:     ctx,
		cancelWorker:  cancel,
		workerDone:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Emit enqueues ev. It never blocks; events emitted after Close are discarded.
func (s *HTTPSink) Emit(ev schemas.TelemetryEvent) {
	if ev.EmittedAt.IsZero() {
		ev.EmittedAt = time.Now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- ev:
	default:
		s.dropped.Add(1)
		s.logger.Warn("Telemetry queue full, dropping event.",
			zap.String("action", ev.Action), zap.String("actor_role", ev.ActorRole))
	}
}

// Close stops accepting events and waits for queued ones to be posted. If ctx
// expires first, in-flight work is cancelled and the remainder is dropped.
func (s *HTTPSink) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})

	select {
	case <-s.workerDone:
		s.cancelWorker()
		return nil
	case <-ctx.Done():
		s.cancelWorker()
		<-s.workerDone
		return fmt.Errorf("telemetry: close interrupted before queue drained: %w", ctx.Err())
	}
}

// Stats returns the delivery counters.
func (s *HTTPSink) Stats() Stats {
	return Stats{Sent: s.sent.Load(), Dropped: s.dropped.Load(), Failed: s.failed.Load()}
}

func (s *HTTPSink) run() {
	defer close(s.workerDone)

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]schemas.TelemetryEvent, 0, s.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.post(batch)
		batch = make([]schemas.TelemetryEvent, 0, s.batchSize)
	}

	for {
		select {
		case ev, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// post sends one batch. Failures are counted and logged, never retried.
func (s *HTTPSink) post(batch []schemas.TelemetryEvent) {
	if s.workerCtx.Err() != nil {
		s.dropped.Add(int64(len(batch)))
		return
	}
	if err := s.limiter.Wait(s.workerCtx); err != nil {
		s.dropped.Add(int64(len(batch)))
		return
	}

	if err := s.send(batch); err != nil {
		s.failed.Add(int64(len(batch)))
		s.logger.Warn("Failed to deliver telemetry batch.", zap.Int("events", len(batch)), zap.Error(err))
		return
	}
	s.sent.Add(int64(len(batch)))
}

func (s *HTTPSink) send(batch []schemas.TelemetryEvent) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	ctx, cancel := context.WithTimeout(s.workerCtx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("collector responded with status %d", resp.StatusCode)
	}
	return nil
}
