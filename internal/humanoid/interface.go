// Filename: internal/humanoid/interface.go
package humanoid

import (
	"context"
	"time"

	"github.com/xkilldash9x/charterbots/api/schemas"
)

// Controller is the set of human-like interactions a journey script composes.
type Controller interface {
	// Uniform draws from [min, max) using the controller's random source.
	Uniform(min, max float64) float64
	// WaitHuman sleeps around avgMs using the configured jitter.
	WaitHuman(ctx context.Context, avgMs float64) error
	// Think sleeps for a log-normally distributed reaction time around avgMs.
	Think(ctx context.Context, avgMs float64) error
	TypeHuman(ctx context.Context, selector, text string, wpm, errorRate float64) error
	ClickHuman(ctx context.Context, selector string) error
	ScrollHuman(ctx context.Context) error
	SelectHuman(ctx context.Context, selector, value string) error
	FillHuman(ctx context.Context, selector, text string, wpm, errorRate float64) error
	PressKey(ctx context.Context, key ControlKey) error
}

// Executor defines the interface for interacting with the browser automation layer.
// This interface is designed to be agnostic of the underlying technology.
type Executor interface {
	// Sleep pauses execution, respecting context cancellation.
	Sleep(ctx context.Context, d time.Duration) error

	// Hover moves the pointer onto the element matched by selector.
	Hover(ctx context.Context, selector string) error

	// GetElementGeometry returns the border box of the first element matching the selector.
	// It returns ErrNoBoundingBox when the element has no layout.
	GetElementGeometry(ctx context.Context, selector string) (*schemas.ElementGeometry, error)

	// DispatchMouseEvent sends a mouse event using agnostic data structures.
	DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error

	// Click activates the element without pointer coordinates, holding the
	// press for pressDelay where the driver supports it.
	Click(ctx context.Context, selector string, pressDelay time.Duration) error

	// SendKeys types keys into the element matched by selector, or into the
	// focused element when selector is empty.
	SendKeys(ctx context.Context, selector, keys string) error

	// SetValue selects an option (or sets the value) of a form control.
	SetValue(ctx context.Context, selector, value string) error
}

// ControlKey defines constants for common control characters used in SendKeys.
type ControlKey string

const (
	KeyBackspace ControlKey = "\b"
	KeyEnter     ControlKey = "\r"
	KeyTab       ControlKey = "\t"
	KeyEscape    ControlKey = "\x1b"
)
