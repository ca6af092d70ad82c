package client

import (
	"encoding/json"

	"llamasearch-client/internal/constant"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Session lifecycle event names, published on the session events topic.
const (
	SessionConnected    = "connected"
	SessionDisconnected = "disconnected"

	// SessionExpired is terminal: the reconnect budget is spent or the
	// credential is no longer accepted. Consumers should force a fresh
	// login.
	SessionExpired = "session_expired"
)

// SessionEvent describes one transition of the connection lifecycle.
type SessionEvent struct {
	Event     string `json:"event"`
	SessionId string `json:"session_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func (m *Manager) publishSessionEvent(ev SessionEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		m.logger.Error("WS", "Failed to encode session event", map[string]interface{}{"error": err.Error()})
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event", ev.Event)
	if err := m.publisher.Publish(constant.TopicSessionEvents, msg); err != nil {
		m.logger.Error("WS", "Failed to publish session event", map[string]interface{}{"error": err.Error()})
	}
}
