package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/charterbots/api/schemas"
	"github.com/xkilldash9x/charterbots/internal/config"
	"github.com/xkilldash9x/charterbots/internal/humanoid"
	"github.com/xkilldash9x/charterbots/internal/journey"
	"github.com/xkilldash9x/charterbots/internal/locate"
	"github.com/xkilldash9x/charterbots/internal/persona"
)

// instantExecutor satisfies humanoid.Executor without a browser or real sleeps.
type instantExecutor struct{}

func (instantExecutor) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
func (instantExecutor) Hover(context.Context, string) error              { return nil }
func (instantExecutor) GetElementGeometry(context.Context, string) (*schemas.ElementGeometry, error) {
	return nil, humanoid.ErrNoBoundingBox
}
func (instantExecutor) DispatchMouseEvent(context.Context, schemas.MouseEventData) error { return nil }
func (instantExecutor) Click(context.Context, string, time.Duration) error             { return nil }
func (instantExecutor) SendKeys(context.Context, string, string) error                 { return nil }
func (instantExecutor) SetValue(context.Context, string, string) error                 { return nil }

// spyBrowser is a browser whose page never matches anything.
type spyBrowser struct {
	mu        sync.Mutex
	closes    int
	closeErr  error
	closedCtx error
	routes    []string
	failRoute string
}

func (b *spyBrowser) Probe(context.Context, locate.Locator) (string, bool, error) { return "", false, nil }
func (b *spyBrowser) ClearState(context.Context) error                            { return nil }
func (b *spyBrowser) WaitNetworkIdle(context.Context) error                       { return nil }
func (b *spyBrowser) Executor() humanoid.Executor                                 { return instantExecutor{} }
func (b *spyBrowser) ClientTZ() string                                            { return "Europe/Zurich" }

func (b *spyBrowser) Navigate(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes = append(b.routes, path)
	if b.failRoute != "" && path == b.failRoute {
		return errors.New("net::ERR_NAME_NOT_RESOLVED")
	}
	return nil
}

func (b *spyBrowser) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	b.closedCtx = ctx.Err()
	return b.closeErr
}

func (b *spyBrowser) closeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}

// recordingSink keeps every event in memory.
type recordingSink struct {
	mu     sync.Mutex
	events []schemas.TelemetryEvent
}

func (s *recordingSink) Emit(ev schemas.TelemetryEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) Close(context.Context) error { return nil }

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Action
	}
	return out
}

func (s *recordingSink) all() []schemas.TelemetryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schemas.TelemetryEvent(nil), s.events...)
}

func launcherFor(b *spyBrowser) Launcher {
	return LauncherFunc(func(context.Context) (Browser, error) { return b, nil })
}

func broker(t *testing.T) persona.Persona {
	t.Helper()
	reg, err := persona.NewRegistry(persona.Default())
	require.NoError(t, err)
	p, err := reg.Lookup("james-broker")
	require.NoError(t, err)
	return p
}

func TestRunner_SuccessEmitsStartAndEnd(t *testing.T) {
	b := &spyBrowser{}
	sink := &recordingSink{}
	r := NewRunner(launcherFor(b), sink, zaptest.NewLogger(t))
	p := broker(t)

	res := r.Run(context.Background(), p, journey.Broker(journey.DefaultCharterRequest))
	require.NoError(t, res.Err)
	assert.True(t, res.OK())
	assert.Equal(t, 1, b.closeCount())
	assert.Equal(t, []string{schemas.ActionStartSession, schemas.ActionEndSession}, sink.actions())

	for _, ev := range sink.all() {
		assert.Equal(t, "broker", ev.ActorRole)
		assert.Equal(t, "Europe/Zurich", ev.ClientTZ)
		assert.Equal(t, "run:"+res.SessionID, ev.Context)
		assert.Equal(t, p.Name, ev.Payload["persona"])
		assert.Equal(t, "broker", ev.Payload["journey"])
	}
	assert.Contains(t, sink.all()[1].Payload, "duration_ms")
	assert.Equal(t, []string{"/broker"}, b.routes)
}

func TestRunner_ClosesExactlyOnceWhenJourneyFails(t *testing.T) {
	boom := errors.New("element is not attached to the page document")
	failing := journey.New("exploding", persona.RoleBroker, "/broker", func(context.Context, *journey.Script) error {
		return boom
	})

	b := &spyBrowser{}
	sink := &recordingSink{}
	r := NewRunner(launcherFor(b), sink, zaptest.NewLogger(t))

	res := r.Run(context.Background(), broker(t), failing)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, 1, b.closeCount())

	assert.Equal(t, []string{schemas.ActionStartSession, schemas.ActionSessionError}, sink.actions())
	msg, ok := sink.all()[1].Payload["error"].(string)
	require.True(t, ok)
	assert.Contains(t, msg, boom.Error())
}

func TestRunner_ClosesExactlyOnceWhenJourneyPanics(t *testing.T) {
	panicking := journey.New("panicking", persona.RoleBroker, "/broker", func(context.Context, *journey.Script) error {
		panic("nil selector")
	})

	b := &spyBrowser{}
	sink := &recordingSink{}
	r := NewRunner(launcherFor(b), sink, zaptest.NewLogger(t))

	var res Result
	require.NotPanics(t, func() { res = r.Run(context.Background(), broker(t), panicking) })
	require.Error(t, res.Err)
	assert.Equal(t, 1, b.closeCount())
	assert.Equal(t, schemas.ActionSessionError, sink.actions()[1])
}

func TestRunner_CloseErrorIsOnlyLogged(t *testing.T) {
	b := &spyBrowser{closeErr: errors.New("target already closed")}
	r := NewRunner(launcherFor(b), &recordingSink{}, zaptest.NewLogger(t))

	res := r.Run(context.Background(), broker(t), journey.Broker(journey.DefaultCharterRequest))
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, b.closeCount())
}

func TestRunner_LaunchFailure(t *testing.T) {
	launchErr := errors.New("chrome not found")
	sink := &recordingSink{}
	r := NewRunner(LauncherFunc(func(context.Context) (Browser, error) { return nil, launchErr }), sink, zaptest.NewLogger(t),
		WithFallbackTimezone("UTC"))

	res := r.Run(context.Background(), broker(t), journey.Broker(journey.DefaultCharterRequest))
	assert.ErrorIs(t, res.Err, launchErr)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, schemas.ActionSessionError, events[0].Action)
	assert.Equal(t, "UTC", events[0].ClientTZ)
	assert.True(t, strings.HasPrefix(events[0].Context, "run:"))
}

func TestRunner_SessionTimeoutStillCloses(t *testing.T) {
	blocking := journey.New("blocking", persona.RoleBroker, "/broker", func(ctx context.Context, _ *journey.Script) error {
		<-ctx.Done()
		return ctx.Err()
	})

	b := &spyBrowser{}
	r := NewRunner(launcherFor(b), &recordingSink{}, zaptest.NewLogger(t), WithSessionTimeout(30*time.Millisecond))

	res := r.Run(context.Background(), broker(t), blocking)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Equal(t, 1, b.closeCount())
	assert.NoError(t, b.closedCtx, "teardown gets a fresh deadline")
}

func TestRunner_UsesConfiguredRoute(t *testing.T) {
	b := &spyBrowser{}
	r := NewRunner(launcherFor(b), nil, zaptest.NewLogger(t),
		WithRoutes(config.RoutesConfig{Broker: "/app/broker"}))

	res := r.Run(context.Background(), broker(t), journey.Broker(journey.DefaultCharterRequest))
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"/app/broker"}, b.routes)
}

func TestRunner_ControllerFactoryPerSession(t *testing.T) {
	var built atomic.Int32
	b := &spyBrowser{}
	r := NewRunner(launcherFor(b), nil, zaptest.NewLogger(t),
		WithControllerFactory(func(exec humanoid.Executor, p persona.Persona) humanoid.Controller {
			built.Add(1)
			return humanoid.NewTestHumanoid(exec, 7)
		}))

	r.Run(context.Background(), broker(t), journey.Broker(journey.DefaultCharterRequest))
	r.Run(context.Background(), broker(t), journey.Broker(journey.DefaultCharterRequest))
	assert.Equal(t, int32(2), built.Load())
}

func TestNameSeed_DiffersPerPersona(t *testing.T) {
	assert.NotEqual(t, nameSeed("james-broker"), nameSeed("olivia-operator"))
	assert.Equal(t, nameSeed("marco-pilot"), nameSeed("marco-pilot"))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
