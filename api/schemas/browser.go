package schemas

// -- Browser Fingerprint Schemas --

// Fingerprint encapsulates the properties applied to every browser context a bot opens,
// so all synthetic sessions present the same consistent client.
type Fingerprint struct {
	UserAgent string   `json:"userAgent"`
	Platform  string   `json:"platform"`
	Languages []string `json:"languages"`
	Width     int64    `json:"width"`
	Height    int64    `json:"height"`
	Mobile    bool     `json:"mobile"`
	Timezone  string   `json:"timezoneId"`
	Locale    string   `json:"locale"`
}

// DefaultFingerprint provides a fallback fingerprint if none is configured.
var DefaultFingerprint = Fingerprint{
	UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	Platform:  "MacIntel",
	Languages: []string{"en-GB", "en"},
	Width:     1440,
	Height:    900,
	Mobile:    false,
	Timezone:  "Europe/London",
	Locale:    "en-GB",
}

// -- Humanoid Low-Level Interaction Schemas --

// ElementGeometry defines the bounding box, vertices, and metadata of a DOM element.
type ElementGeometry struct {
	// Border box vertices [x0, y0, x1, y1, x2, y2, x3, y3], clockwise from top-left.
	Vertices []float64 `json:"vertices"`
	Width    int64     `json:"width"`
	Height   int64     `json:"height"`
	TagName  string    `json:"tagName"`
	Type     string    `json:"type,omitempty"`
}

// TopLeft returns the top-left vertex of the geometry. ok is false when the
// vertex list is incomplete.
func (g *ElementGeometry) TopLeft() (x, y float64, ok bool) {
	if g == nil || len(g.Vertices) < 8 {
		return 0, 0, false
	}
	return g.Vertices[0], g.Vertices[1], true
}

// Center returns the geometric center of the four vertices.
func (g *ElementGeometry) Center() (x, y float64, ok bool) {
	if g == nil || len(g.Vertices) < 8 {
		return 0, 0, false
	}
	x = (g.Vertices[0] + g.Vertices[2] + g.Vertices[4] + g.Vertices[6]) / 4
	y = (g.Vertices[1] + g.Vertices[3] + g.Vertices[5] + g.Vertices[7]) / 4
	return x, y, true
}

// MouseEventType defines the type of a mouse event.
type MouseEventType string

const (
	MouseMove    MouseEventType = "mouseMoved"
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
	MouseWheel   MouseEventType = "mouseWheel"
)

// MouseButton defines the mouse button being pressed.
type MouseButton string

const (
	ButtonNone   MouseButton = "none"
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// MouseEventData encapsulates all data for a mouse event.
type MouseEventData struct {
	Type       MouseEventType `json:"type"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Button     MouseButton    `json:"button"`
	Buttons    int64          `json:"buttons"`
	ClickCount int            `json:"clickCount"`
	DeltaX     float64        `json:"deltaX"`
	DeltaY     float64        `json:"deltaY"`
}
