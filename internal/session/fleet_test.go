package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/charterbots/internal/config"
	"github.com/xkilldash9x/charterbots/internal/persona"
)

// gatedLauncher tracks how many browsers are open at once.
type gatedLauncher struct {
	mu        sync.Mutex
	browsers  []*spyBrowser
	active    atomic.Int32
	peak      atomic.Int32
	failRoute string
}

func (l *gatedLauncher) Launch(context.Context) (Browser, error) {
	n := l.active.Add(1)
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}
	b := &spyBrowser{failRoute: l.failRoute}
	l.mu.Lock()
	l.browsers = append(l.browsers, b)
	l.mu.Unlock()
	return &countingBrowser{spyBrowser: b, done: func() { l.active.Add(-1) }}, nil
}

type countingBrowser struct {
	*spyBrowser
	done func()
}

func (b *countingBrowser) Close(ctx context.Context) error {
	defer b.done()
	return b.spyBrowser.Close(ctx)
}

func TestFleet_RunAllBoundsConcurrencyAndIsolatesFailures(t *testing.T) {
	launcher := &gatedLauncher{failRoute: "/pilot-down"}
	sink := &recordingSink{}
	runner := NewRunner(launcher, sink, zaptest.NewLogger(t),
		WithRoutes(config.RoutesConfig{Pilot: "/pilot-down"}))
	fleet := NewFleet(runner, 2, zaptest.NewLogger(t))

	personas := persona.Default()
	sum, err := fleet.RunAll(context.Background(), personas)
	require.NoError(t, err)

	require.Len(t, sum.Results, len(personas))
	for i, p := range personas {
		assert.Equal(t, p.Name, sum.Results[i].Persona, "results follow persona order")
	}
	assert.Equal(t, len(personas)-1, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	assert.LessOrEqual(t, launcher.peak.Load(), int32(2))
	assert.Equal(t, int32(0), launcher.active.Load())

	for _, b := range launcher.browsers {
		assert.Equal(t, 1, b.closeCount())
	}

	require.Error(t, sum.Err())
	assert.Contains(t, sum.Err().Error(), "marco-pilot")
	assert.Len(t, sink.all(), 2*len(personas))
}

func TestFleet_UnknownRoleFailsBeforeLaunching(t *testing.T) {
	var launches atomic.Int32
	launcher := LauncherFunc(func(context.Context) (Browser, error) {
		launches.Add(1)
		return &spyBrowser{}, nil
	})
	fleet := NewFleet(NewRunner(launcher, nil, zaptest.NewLogger(t)), 4, nil)

	personas := persona.Default()
	personas = append(personas, persona.Persona{Name: "ghost", Role: persona.Role("dispatcher")})

	_, err := fleet.RunAll(context.Background(), personas)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
	assert.Equal(t, int32(0), launches.Load())
}

func TestFleet_ConcurrencyFloor(t *testing.T) {
	f := NewFleet(NewRunner(LauncherFunc(func(context.Context) (Browser, error) { return nil, errors.New("unused") }), nil, nil), 0, nil)
	assert.Equal(t, 1, f.concurrency)
}

func TestSummary_ErrNilWhenAllSucceed(t *testing.T) {
	assert.NoError(t, Summary{Results: []Result{{Persona: "a"}, {Persona: "b"}}}.Err())

	boom := errors.New("boom")
	err := Summary{Results: []Result{{Persona: "a"}, {Persona: "b", Err: boom}}}.Err()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "b: boom")
}
