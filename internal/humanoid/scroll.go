package humanoid

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/charterbots/api/schemas"
)

// ScrollHuman performs one or two downward wheel bursts at the cursor.
func (h *Humanoid) ScrollHuman(ctx context.Context) error {
	h.mu.Lock()
	bursts := 1 + h.rng.Intn(2)
	pos := h.currentPos
	h.mu.Unlock()

	for i := 0; i < bursts; i++ {
		if err := h.executor.DispatchMouseEvent(ctx, schemas.MouseEventData{
			Type:   schemas.MouseWheel,
			X:      pos.X,
			Y:      pos.Y,
			Button: schemas.ButtonNone,
			DeltaY: h.Uniform(300, 900),
		}); err != nil {
			return fmt.Errorf("humanoid: wheel burst %d failed: %w", i+1, err)
		}
		if i < bursts-1 {
			if err := h.pause(ctx, 250, 800); err != nil {
				return err
			}
		}
	}
	return nil
}
