package model

// ConnectionState tracks the lifecycle of the single physical connection.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateAwaitingAuthAck
	StateAuthenticated
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingAuthAck:
		return "awaiting_auth_ack"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "disconnected"
	}
}

// Session is a point-in-time snapshot of the session store. Invariant: at
// most one active physical connection per session.
type Session struct {
	Identity          string          `json:"identity"`
	SessionId         string          `json:"session_id"`
	State             ConnectionState `json:"state"`
	ReconnectAttempts int             `json:"reconnect_attempts"`
}
