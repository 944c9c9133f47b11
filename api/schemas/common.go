package schemas

import "time"

// -- Common Schemas --

// Credential holds an opaque login pair for a synthetic actor. The engine never
// interprets it; journeys only type it into the target application.
type Credential struct {
	Username string `json:"username" mapstructure:"username" yaml:"username"`
	Password string `json:"password" mapstructure:"password" yaml:"password"`
}

// -- Telemetry Schemas --

// Lifecycle actions emitted by the session runner.
const (
	ActionStartSession = "start_session"
	ActionEndSession   = "end_session"
	ActionSessionError = "session_error"
)

// TelemetryEvent is a single lifecycle record posted to the optional collector.
// The collector receives these as a JSON array.
type TelemetryEvent struct {
	ActorRole string                 `json:"actor_role"`
	Action    string                 `json:"action"`
	Payload   map[string]interface{} `json:"payload"`
	ClientTZ  string                 `json:"client_tz"`
	Context   string                 `json:"context"`
	// EmittedAt is local bookkeeping for queue diagnostics and is not part of the wire contract.
	EmittedAt time.Time `json:"-"`
}
