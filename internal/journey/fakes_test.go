package journey

import (
	"context"
	"sync"

	"github.com/xkilldash9x/charterbots/internal/humanoid"
	"github.com/xkilldash9x/charterbots/internal/locate"
)

// fakePage resolves locators from a fixed table.
type fakePage struct {
	mu        sync.Mutex
	elements  map[locate.Locator]string
	probes    int
	routes    []string
	cleared   int
	idleWaits int

	navigateErr error
	idleErr     error
	// appearAfter makes every element invisible until that many probes ran.
	appearAfter int
}

func newFakePage(elements map[locate.Locator]string) *fakePage {
	if elements == nil {
		elements = map[locate.Locator]string{}
	}
	return &fakePage{elements: elements}
}

func (p *fakePage) Probe(_ context.Context, l locate.Locator) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probes++
	if p.probes <= p.appearAfter {
		return "", false, nil
	}
	sel, ok := p.elements[l]
	return sel, ok, nil
}

func (p *fakePage) Navigate(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes = append(p.routes, path)
	return p.navigateErr
}

func (p *fakePage) ClearState(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleared++
	return nil
}

func (p *fakePage) WaitNetworkIdle(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idleWaits++
	return p.idleErr
}

type fill struct {
	Selector  string
	Text      string
	ErrorRate float64
}

// fakeHuman records interactions instead of driving a browser. Uniform
// returns the midpoint so runs are deterministic.
type fakeHuman struct {
	mu      sync.Mutex
	clicks  []string
	fills   []fill
	selects []fill
	keys    []humanoid.ControlKey
	thinks  []float64
	waits   []float64
	scrolls int

	failClick     map[string]error
	panicOnScroll bool
}

var _ humanoid.Controller = (*fakeHuman)(nil)

func (h *fakeHuman) Uniform(min, max float64) float64 { return (min + max) / 2 }

func (h *fakeHuman) WaitHuman(_ context.Context, avgMs float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.waits = append(h.waits, avgMs)
	return nil
}

func (h *fakeHuman) Think(_ context.Context, avgMs float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.thinks = append(h.thinks, avgMs)
	return nil
}

func (h *fakeHuman) TypeHuman(_ context.Context, selector, text string, _, errorRate float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fills = append(h.fills, fill{Selector: selector, Text: text, ErrorRate: errorRate})
	return nil
}

func (h *fakeHuman) ClickHuman(_ context.Context, selector string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.failClick[selector]; err != nil {
		return err
	}
	h.clicks = append(h.clicks, selector)
	return nil
}

func (h *fakeHuman) ScrollHuman(context.Context) error {
	if h.panicOnScroll {
		panic("wheel event on detached frame")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scrolls++
	return nil
}

func (h *fakeHuman) SelectHuman(_ context.Context, selector, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selects = append(h.selects, fill{Selector: selector, Text: value})
	return nil
}

func (h *fakeHuman) FillHuman(ctx context.Context, selector, text string, wpm, errorRate float64) error {
	return h.TypeHuman(ctx, selector, text, wpm, errorRate)
}

func (h *fakeHuman) PressKey(_ context.Context, key humanoid.ControlKey) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = append(h.keys, key)
	return nil
}

func (h *fakeHuman) clickCount(selector string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.clicks {
		if c == selector {
			n++
		}
	}
	return n
}
