// internal/browser/executor.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/charterbots/api/schemas"
	"github.com/xkilldash9x/charterbots/internal/humanoid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrElementNotFound is returned when a selector matches nothing in the document.
var ErrElementNotFound = errors.New("browser: element not found")

// jsGeometry returns {missing:true} when nothing matches, null when the
// element has no usable box, and the border-box vertices otherwise.
const jsGeometry = `(function(sel) {
	const node = document.querySelector(sel);
	if (!node) return { missing: true };
	const rect = node.getBoundingClientRect();
	const style = window.getComputedStyle(node);
	if (!(rect.width > 0 && rect.height > 0) || style.display === 'none' || style.visibility === 'hidden') {
		return null;
	}
	return {
		vertices: [rect.left, rect.top, rect.right, rect.top, rect.right, rect.bottom, rect.left, rect.bottom],
		width: Math.round(rect.width),
		height: Math.round(rect.height),
		tagName: node.tagName || '',
		type: node.type || ''
	};
})(%s)`

// jsHover fires the pointer-enter events for elements without a layout box.
const jsHover = `(function(sel) {
	const el = document.querySelector(sel);
	if (!el) return false;
	['pointerover', 'mouseover', 'mouseenter'].forEach(t => el.dispatchEvent(new MouseEvent(t, { bubbles: t !== 'mouseenter' })));
	return true;
})(%s)`

// jsClick presses, holds for the given delay and releases before clicking.
const jsClick = `(function(sel, holdMs) {
	const el = document.querySelector(sel);
	if (!el) return Promise.resolve(false);
	el.dispatchEvent(new MouseEvent('mousedown', { bubbles: true, button: 0 }));
	return new Promise(resolve => setTimeout(() => {
		el.dispatchEvent(new MouseEvent('mouseup', { bubbles: true, button: 0 }));
		el.click();
		resolve(true);
	}, holdMs));
})(%s, %d)`

// jsSetValue picks a select option by value or visible text, or assigns the
// value of any other control, then fires the events frameworks listen for.
const jsSetValue = `(function(sel, value) {
	const el = document.querySelector(sel);
	if (!el) return false;
	if (el.tagName === 'SELECT') {
		const want = String(value).trim().toLowerCase();
		const opt = Array.from(el.options).find(o => o.value === value) ||
			Array.from(el.options).find(o => o.text.trim().toLowerCase() === want);
		if (!opt) return false;
		el.value = opt.value;
	} else {
		const proto = el.tagName === 'TEXTAREA' ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
		const setter = Object.getOwnPropertyDescriptor(proto, 'value');
		if (setter && setter.set) { setter.set.call(el, value); } else { el.value = value; }
	}
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})(%s, %s)`

// cdpExecutor implements humanoid.Executor on top of chromedp actions.
type cdpExecutor struct {
	logger         *zap.Logger
	timeout        time.Duration
	runActionsFunc func(ctx context.Context, actions ...chromedp.Action) error
}

var _ humanoid.Executor = (*cdpExecutor)(nil)

// Sleep pauses execution for the specified duration, respecting the context.
func (e *cdpExecutor) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runWithTimeout applies the per-operation timeout and labels a timeout error.
func (e *cdpExecutor) runWithTimeout(ctx context.Context, op string, actions ...chromedp.Action) error {
	timeout := e.timeout
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := e.runActionsFunc(opCtx, actions...)
	if err != nil && errors.Is(opCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		e.logger.Debug("cdpExecutor operation timed out.", zap.String("op", op), zap.Duration("timeout", timeout))
		return fmt.Errorf("cdpExecutor %s timed out after %v: %w", op, timeout, opCtx.Err())
	}
	if err != nil {
		return fmt.Errorf("cdpExecutor %s failed: %w", op, err)
	}
	return nil
}

// DispatchMouseEvent dispatches a single mouse event via CDP.
func (e *cdpExecutor) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	p := input.DispatchMouseEvent(input.MouseType(data.Type), data.X, data.Y).
		WithButton(input.MouseButton(data.Button)).
		WithButtons(data.Buttons).
		WithClickCount(int64(data.ClickCount))

	if data.Type == schemas.MouseWheel {
		p = p.WithDeltaX(data.DeltaX).WithDeltaY(data.DeltaY)
	}
	return e.runWithTimeout(ctx, "DispatchMouseEvent", p)
}

// GetElementGeometry retrieves the border box of the first element matching selector.
func (e *cdpExecutor) GetElementGeometry(ctx context.Context, selector string) (*schemas.ElementGeometry, error) {
	script := fmt.Sprintf(jsGeometry, jsonEncode(selector))

	var res []byte
	if err := e.runWithTimeout(ctx, "GetElementGeometry", chromedp.Evaluate(script, &res, returnByValue)); err != nil {
		return nil, err
	}
	return decodeGeometry(selector, res)
}

func decodeGeometry(selector string, raw []byte) (*schemas.ElementGeometry, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: %s", humanoid.ErrNoBoundingBox, selector)
	}
	var probe struct {
		Missing bool `json:"missing"`
		schemas.ElementGeometry
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode geometry for %s: %w", selector, err)
	}
	if probe.Missing {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	if len(probe.Vertices) < 8 {
		return nil, fmt.Errorf("%w: %s", humanoid.ErrNoBoundingBox, selector)
	}
	geo := probe.ElementGeometry
	return &geo, nil
}

// Hover moves the real pointer to the element's center. Elements without a
// layout box receive synthetic hover events instead.
func (e *cdpExecutor) Hover(ctx context.Context, selector string) error {
	geo, err := e.GetElementGeometry(ctx, selector)
	if err == nil {
		if x, y, ok := geo.Center(); ok {
			return e.DispatchMouseEvent(ctx, schemas.MouseEventData{Type: schemas.MouseMove, X: x, Y: y, Button: schemas.ButtonNone})
		}
	} else if !errors.Is(err, humanoid.ErrNoBoundingBox) {
		return err
	}

	var ok bool
	if err := e.runWithTimeout(ctx, "Hover", chromedp.Evaluate(fmt.Sprintf(jsHover, jsonEncode(selector)), &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

// Click activates the element through the DOM. It is the fallback for
// elements the pointer cannot reach.
func (e *cdpExecutor) Click(ctx context.Context, selector string, pressDelay time.Duration) error {
	script := fmt.Sprintf(jsClick, jsonEncode(selector), pressDelay.Milliseconds())
	var ok bool
	if err := e.runWithTimeout(ctx, "Click", chromedp.Evaluate(script, &ok, awaitPromise)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

// SendKeys types into the element matched by selector, or into whatever has
// focus when selector is empty.
func (e *cdpExecutor) SendKeys(ctx context.Context, selector, keys string) error {
	var action chromedp.Action
	if selector == "" {
		action = chromedp.KeyEvent(keys)
	} else {
		action = chromedp.SendKeys(selector, keys, chromedp.ByQuery)
	}
	return e.runWithTimeout(ctx, "SendKeys", action)
}

// SetValue sets a control's value the way a user selection would.
func (e *cdpExecutor) SetValue(ctx context.Context, selector, value string) error {
	script := fmt.Sprintf(jsSetValue, jsonEncode(selector), jsonEncode(value))
	var ok bool
	if err := e.runWithTimeout(ctx, "SetValue", chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no control or option for %q at %s", ErrElementNotFound, value, selector)
	}
	return nil
}

func returnByValue(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithReturnByValue(true)
}

// jsonEncode quotes s as a JS string literal.
func jsonEncode(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
