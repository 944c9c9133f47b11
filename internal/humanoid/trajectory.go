package humanoid

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xkilldash9x/charterbots/api/schemas"
)

const (
	// moveStepInterval is the nominal spacing of pointer samples.
	moveStepInterval = 10 * time.Millisecond
	maxMoveSteps     = 120
	// maxBow bounds the sideways bend of a path as a fraction of its length.
	maxBow = 0.18
)

// easeInOutCubic gives a move its acceleration and deceleration profile.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// movementTime applies Fitts's law to a move of distance px onto a target
// width px wide, with ±15% variation.
func (h *Humanoid) movementTime(distance, width float64) time.Duration {
	if width < 1 {
		width = 1
	}
	id := math.Log2(1.0 + distance/width)
	mt := h.cfg.FittsA + h.cfg.FittsB*id
	mt += mt * h.Uniform(-0.15, 0.15)
	return time.Duration(mt * float64(time.Millisecond))
}

// bezierPath samples a cubic Bézier curve from start to end in steps points.
// bow is the signed sideways offset of the first control point as a fraction
// of the distance; the second control point bends half as far.
func bezierPath(start, end Vector2D, bow float64, steps int) []Vector2D {
	mainVec := end.Sub(start)
	dist := mainVec.Mag()
	if dist < 1.0 || steps <= 1 {
		return []Vector2D{end}
	}

	dir := mainVec.Normalize()
	normal := dir.Perp()
	p0, p3 := start, end
	p1 := start.Add(dir.Mul(dist / 3.0)).Add(normal.Mul(bow * dist))
	p2 := start.Add(dir.Mul(dist * 2.0 / 3.0)).Add(normal.Mul(bow * dist * 0.5))

	path := make([]Vector2D, steps)
	for i := range path {
		t := float64(i) / float64(steps-1)
		omt := 1.0 - t
		path[i] = p0.Mul(omt * omt * omt).
			Add(p1.Mul(3 * omt * omt * t)).
			Add(p2.Mul(3 * omt * t * t)).
			Add(p3.Mul(t * t * t))
	}
	return path
}

// simulateTrajectory glides the pointer from its tracked position to end
// along a bowed, eased path with tremor. Every dispatched point becomes the
// tracked position, the last one is exactly end, and with bounds set no
// point leaves it.
func (h *Humanoid) simulateTrajectory(ctx context.Context, end Vector2D, targetWidth float64, bounds *box) error {
	h.mu.Lock()
	start := h.currentPos
	h.mu.Unlock()

	dist := start.Dist(end)
	if dist < 0.5 {
		return nil
	}

	duration := h.movementTime(dist, targetWidth)
	steps := int(duration / moveStepInterval)
	if steps < 2 {
		steps = 2
	}
	if steps > maxMoveSteps {
		steps = maxMoveSteps
	}

	path := bezierPath(start, end, h.Uniform(-maxBow, maxBow), steps)
	last := len(path) - 1
	pause := duration / time.Duration(len(path))

	for i := range path {
		if err := ctx.Err(); err != nil {
			return err
		}

		pos := end
		if i < last {
			t := float64(i) / float64(last)
			pos = path[int(easeInOutCubic(t)*float64(last))]
			// Tremor fades out so the pointer settles on the target.
			pos = pos.Add(h.tremor(1 - t))
			if bounds != nil {
				pos = bounds.clamp(pos)
			}
		}

		if err := h.executor.DispatchMouseEvent(ctx, schemas.MouseEventData{
			Type:   schemas.MouseMove,
			X:      pos.X,
			Y:      pos.Y,
			Button: schemas.ButtonNone,
		}); err != nil {
			return fmt.Errorf("humanoid: pointer move failed: %w", err)
		}
		h.setPosition(pos)

		if i < last {
			if err := h.executor.Sleep(ctx, pause); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Humanoid) tremor(scale float64) Vector2D {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Vector2D{X: h.noiseX.Next(), Y: h.noiseY.Next()}.Mul(h.cfg.TremorPx * scale)
}

func (h *Humanoid) setPosition(p Vector2D) {
	h.mu.Lock()
	h.currentPos = p
	h.mu.Unlock()
}

// Position returns the tracked pointer position.
func (h *Humanoid) Position() Vector2D {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentPos
}
