package humanoid

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xkilldash9x/charterbots/api/schemas"
)

// mockExecutor implements Executor for tests. It records every call and never
// actually sleeps.
//
// If a Mock* override is set it replaces the default behavior; the override can
// call the matching Default* method when the recording is still wanted.
// Overrides must not touch the Humanoid's mutex.
type mockExecutor struct {
	t  *testing.T
	mu sync.Mutex

	dispatchedEvents []schemas.MouseEventData
	sentKeys         []string
	sleepDurations   []time.Duration
	hovered          []string
	clicked          []string
	values           map[string]string

	MockGetElementGeometry func(ctx context.Context, selector string) (*schemas.ElementGeometry, error)
	MockSleep              func(ctx context.Context, d time.Duration) error
	MockSendKeys           func(ctx context.Context, selector, keys string) error
	MockHover              func(ctx context.Context, selector string) error
}

func newMockExecutor(t *testing.T) *mockExecutor {
	return &mockExecutor{t: t, values: make(map[string]string)}
}

func (m *mockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	if m.MockSleep != nil {
		return m.MockSleep(ctx, d)
	}
	return m.DefaultSleep(ctx, d)
}

func (m *mockExecutor) DefaultSleep(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleepDurations = append(m.sleepDurations, d)
	return nil
}

func (m *mockExecutor) Hover(ctx context.Context, selector string) error {
	if m.MockHover != nil {
		return m.MockHover(ctx, selector)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hovered = append(m.hovered, selector)
	return nil
}

// GetElementGeometry defaults to a 100x40 box at (10,20).
func (m *mockExecutor) GetElementGeometry(ctx context.Context, selector string) (*schemas.ElementGeometry, error) {
	if m.MockGetElementGeometry != nil {
		return m.MockGetElementGeometry(ctx, selector)
	}
	return &schemas.ElementGeometry{
		Vertices: []float64{10, 20, 110, 20, 110, 60, 10, 60},
		Width:    100,
		Height:   40,
		TagName:  "BUTTON",
	}, nil
}

func (m *mockExecutor) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchedEvents = append(m.dispatchedEvents, data)
	return nil
}

func (m *mockExecutor) Click(ctx context.Context, selector string, pressDelay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicked = append(m.clicked, selector)
	return nil
}

func (m *mockExecutor) SendKeys(ctx context.Context, selector, keys string) error {
	if m.MockSendKeys != nil {
		return m.MockSendKeys(ctx, selector, keys)
	}
	return m.DefaultSendKeys(ctx, selector, keys)
}

func (m *mockExecutor) DefaultSendKeys(ctx context.Context, selector, keys string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentKeys = append(m.sentKeys, keys)
	return nil
}

func (m *mockExecutor) SetValue(ctx context.Context, selector, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[selector] = value
	return nil
}

// -- accessors --

func (m *mockExecutor) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sentKeys...)
}

func (m *mockExecutor) sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.sleepDurations...)
}

func (m *mockExecutor) events(kind schemas.MouseEventType) []schemas.MouseEventData {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []schemas.MouseEventData
	for _, e := range m.dispatchedEvents {
		if e.Type == kind {
			out = append(out, e)
		}
	}
	return out
}

// clickCount counts both coordinate presses and coordinate-free clicks.
func (m *mockExecutor) clickCount() int {
	presses := len(m.events(schemas.MousePress))
	m.mu.Lock()
	defer m.mu.Unlock()
	return presses + len(m.clicked)
}
