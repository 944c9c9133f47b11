package humanoid

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/charterbots/api/schemas"
)

// ClickHuman glides the pointer onto the target, hovers it, hesitates, nudges
// the pointer a few pixels inside its top-left corner, hesitates again and
// clicks with a short press. Once hovered the pointer stays inside the box.
// When the element has no resolvable box the pointer is not moved and the
// click is delivered without coordinates. Either way exactly one click happens.
func (h *Humanoid) ClickHuman(ctx context.Context, selector string) error {
	b, hasBox := h.resolveBox(ctx, selector)
	if hasBox {
		if err := h.approach(ctx, b); err != nil {
			return err
		}
	}

	if err := h.executor.Hover(ctx, selector); err != nil {
		return fmt.Errorf("humanoid: failed to hover '%s': %w", selector, err)
	}
	if hasBox {
		// Hover parks the real pointer on the centre.
		h.setPosition(b.mid)
	}
	if err := h.WaitHuman(ctx, h.Uniform(140, 420)); err != nil {
		return err
	}

	var target Vector2D
	if hasBox {
		var err error
		if target, err = h.nudge(ctx, b); err != nil {
			return err
		}
	}

	if err := h.WaitHuman(ctx, h.Uniform(40, 160)); err != nil {
		return err
	}

	pressDelay := time.Duration(h.Uniform(40, 120) * float64(time.Millisecond))
	if !hasBox {
		if err := h.executor.Click(ctx, selector, pressDelay); err != nil {
			return fmt.Errorf("humanoid: failed to click '%s': %w", selector, err)
		}
		return nil
	}
	return h.pressAt(ctx, target, pressDelay)
}

// SelectHuman clicks a select control and picks value.
func (h *Humanoid) SelectHuman(ctx context.Context, selector, value string) error {
	if err := h.ClickHuman(ctx, selector); err != nil {
		return err
	}
	if err := h.pause(ctx, 200, 500); err != nil {
		return err
	}
	if err := h.executor.SetValue(ctx, selector, value); err != nil {
		return fmt.Errorf("humanoid: failed to select '%s' on '%s': %w", value, selector, err)
	}
	return h.pause(ctx, 100, 300)
}

// FillHuman focuses a field by clicking it and types text into it.
func (h *Humanoid) FillHuman(ctx context.Context, selector, text string, wpm, errorRate float64) error {
	if err := h.ClickHuman(ctx, selector); err != nil {
		return err
	}
	if err := h.pause(ctx, 100, 300); err != nil {
		return err
	}
	if err := h.TypeHuman(ctx, selector, text, wpm, errorRate); err != nil {
		return err
	}
	return h.pause(ctx, 200, 500)
}

func (h *Humanoid) pressAt(ctx context.Context, at Vector2D, pressDelay time.Duration) error {
	press := schemas.MouseEventData{
		Type:       schemas.MousePress,
		X:          at.X,
		Y:          at.Y,
		Button:     schemas.ButtonLeft,
		Buttons:    1,
		ClickCount: 1,
	}
	if err := h.executor.DispatchMouseEvent(ctx, press); err != nil {
		return fmt.Errorf("humanoid: mouse press failed: %w", err)
	}

	release := press
	release.Type = schemas.MouseRelease
	release.Buttons = 0

	if err := h.executor.Sleep(ctx, pressDelay); err != nil {
		// Never leave the button held down.
		_ = h.executor.DispatchMouseEvent(context.Background(), release)
		return err
	}
	if err := h.executor.DispatchMouseEvent(ctx, release); err != nil {
		return fmt.Errorf("humanoid: mouse release failed: %w", err)
	}
	return nil
}
