package humanoid

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/charterbots/api/schemas"
)

func TestEaseInOutCubic(t *testing.T) {
	assert.Equal(t, 0.0, easeInOutCubic(0))
	assert.Equal(t, 1.0, easeInOutCubic(1))
	assert.InDelta(t, 0.5, easeInOutCubic(0.5), 1e-9)

	prev := 0.0
	for i := 1; i <= 100; i++ {
		v := easeInOutCubic(float64(i) / 100)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestBezierPath(t *testing.T) {
	start, end := Vector2D{X: 0, Y: 0}, Vector2D{X: 300, Y: 0}

	t.Run("Endpoints", func(t *testing.T) {
		path := bezierPath(start, end, 0.15, 25)
		require.Len(t, path, 25)
		assert.Equal(t, start, path[0])
		assert.InDelta(t, end.X, path[24].X, 1e-9)
		assert.InDelta(t, end.Y, path[24].Y, 1e-9)
	})

	t.Run("BowBendsSideways", func(t *testing.T) {
		straight := bezierPath(start, end, 0, 11)
		bowed := bezierPath(start, end, 0.15, 11)
		for _, p := range straight {
			assert.InDelta(t, 0.0, p.Y, 1e-9)
		}
		assert.Greater(t, bowed[5].Y, 10.0)
	})

	t.Run("ShortDistance", func(t *testing.T) {
		assert.Equal(t, []Vector2D{{X: 0.5, Y: 0}}, bezierPath(start, Vector2D{X: 0.5}, 0.1, 10))
	})
}

func TestMovementTime_FittsLaw(t *testing.T) {
	h := NewTestHumanoid(newMockExecutor(t), 3)

	// Zero distance costs only the intercept.
	for i := 0; i < 50; i++ {
		d := h.movementTime(0, 100)
		assert.GreaterOrEqual(t, d, 68*time.Millisecond)
		assert.LessOrEqual(t, d, 92*time.Millisecond)
	}

	near := h.movementTime(50, 100)
	far := h.movementTime(2000, 100)
	assert.Greater(t, far, near)
}

func TestSimulateTrajectory_EndsOnTarget(t *testing.T) {
	mock := newMockExecutor(t)
	h := NewTestHumanoid(mock, 11)
	end := Vector2D{X: 300, Y: 200}

	require.NoError(t, h.simulateTrajectory(context.Background(), end, 80, nil))

	moves := mock.events(schemas.MouseMove)
	require.GreaterOrEqual(t, len(moves), 2)
	last := moves[len(moves)-1]
	assert.Equal(t, end, Vector2D{X: last.X, Y: last.Y})
	assert.Equal(t, end, h.Position())
	assert.Len(t, mock.sleeps(), len(moves)-1, "one pause between samples")
}

func TestSimulateTrajectory_Bounded(t *testing.T) {
	b := box{Min: Vector2D{X: 10, Y: 20}, Max: Vector2D{X: 30, Y: 28}}

	for seed := int64(1); seed <= 10; seed++ {
		mock := newMockExecutor(t)
		h := NewTestHumanoid(mock, seed)
		// A thin box and a long tremor make an unclamped path wander outside.
		h.cfg.TremorPx = 8
		h.setPosition(Vector2D{X: 29, Y: 27})

		require.NoError(t, h.simulateTrajectory(context.Background(), Vector2D{X: 12, Y: 22}, b.width(), &b))
		for _, m := range mock.events(schemas.MouseMove) {
			assert.Truef(t, b.contains(Vector2D{X: m.X, Y: m.Y}), "seed %d: (%.2f, %.2f) outside", seed, m.X, m.Y)
		}
	}
}

func TestSimulateTrajectory_AlreadyThere(t *testing.T) {
	mock := newMockExecutor(t)
	h := NewTestHumanoid(mock, 1)
	h.setPosition(Vector2D{X: 40, Y: 40})

	require.NoError(t, h.simulateTrajectory(context.Background(), Vector2D{X: 40.2, Y: 40}, 50, nil))
	assert.Empty(t, mock.events(schemas.MouseMove))
}

func TestSimulateTrajectory_Cancelled(t *testing.T) {
	mock := newMockExecutor(t)
	h := NewTestHumanoid(mock, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.simulateTrajectory(ctx, Vector2D{X: 100, Y: 100}, 50, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Vector2D{}, h.Position())
}
