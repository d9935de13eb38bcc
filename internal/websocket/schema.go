package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSignal Action = "signal"
	ActionPing   Action = "ping"
)

// RequestPayload carries one inbound relay message. Data is forwarded
// opaquely; the relay never inspects signaling payloads.
type RequestPayload struct {
	Action Action `json:"action"`
	Data   string `json:"data,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventSignal Event = "signal"
	EventPong   Event = "pong"
)

// SignalResponse forwards a relayed payload to the peer.
type SignalResponse struct {
	Event Event  `json:"event"`
	From  int    `json:"from,omitempty"`
	Data  string `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
