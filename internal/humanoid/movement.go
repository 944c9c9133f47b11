package humanoid

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/xkilldash9x/charterbots/api/schemas"
)

// box is an element's axis-aligned layout box in viewport coordinates.
type box struct {
	Min, Max Vector2D
	// corner is the first vertex of the quad, mid its centroid.
	corner, mid Vector2D
}

// boxFromGeometry bounds the element's quad. Collapsed or incomplete
// geometry has no box.
func boxFromGeometry(geo *schemas.ElementGeometry) (box, bool) {
	if geo == nil || geo.Width <= 0 || geo.Height <= 0 {
		return box{}, false
	}
	left, top, ok := geo.TopLeft()
	if !ok {
		return box{}, false
	}
	cx, cy, _ := geo.Center()
	b := box{
		corner: Vector2D{X: left, Y: top},
		mid:    Vector2D{X: cx, Y: cy},
		Min: Vector2D{X: math.Inf(1), Y: math.Inf(1)},
		Max: Vector2D{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for i := 0; i < 8; i += 2 {
		x, y := geo.Vertices[i], geo.Vertices[i+1]
		b.Min.X, b.Max.X = math.Min(b.Min.X, x), math.Max(b.Max.X, x)
		b.Min.Y, b.Max.Y = math.Min(b.Min.Y, y), math.Max(b.Max.Y, y)
	}
	if b.width() <= 0 || b.height() <= 0 {
		return box{}, false
	}
	return b, true
}

func (b box) width() float64 { return b.Max.X - b.Min.X }
func (b box) height() float64 { return b.Max.Y - b.Min.Y }

func (b box) contains(p Vector2D) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// clamp pulls p inside the box, keeping up to a pixel clear of the border.
func (b box) clamp(p Vector2D) Vector2D {
	insetX := math.Min(1, b.width()/4)
	insetY := math.Min(1, b.height()/4)
	return Vector2D{
		X: math.Max(b.Min.X+insetX, math.Min(b.Max.X-insetX, p.X)),
		Y: math.Max(b.Min.Y+insetY, math.Min(b.Max.Y-insetY, p.Y)),
	}
}

// resolveBox looks up the element's box. Any lookup failure means no box.
func (h *Humanoid) resolveBox(ctx context.Context, selector string) (box, bool) {
	geo, err := h.executor.GetElementGeometry(ctx, selector)
	if err != nil {
		if !errors.Is(err, ErrNoBoundingBox) {
			h.logger.Debug("Geometry lookup failed, clicking without pointer move.", zap.String("selector", selector), zap.Error(err))
		}
		return box{}, false
	}
	return boxFromGeometry(geo)
}

// approach glides the pointer onto the centre of b, the point a driver hover
// lands on.
func (h *Humanoid) approach(ctx context.Context, b box) error {
	return h.simulateTrajectory(ctx, b.mid, b.width(), nil)
}

// nudge moves the pointer from wherever it rests inside b to a point a few
// pixels in from the top-left corner without leaving b.
func (h *Humanoid) nudge(ctx context.Context, b box) (Vector2D, error) {
	target := b.clamp(b.corner.Add(Vector2D{X: h.Uniform(2, 6), Y: h.Uniform(2, 6)}))
	if err := h.simulateTrajectory(ctx, target, b.width(), &b); err != nil {
		return Vector2D{}, err
	}
	return target, nil
}
