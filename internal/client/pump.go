package client

import (
	"context"
	"errors"
	"time"

	"llamasearch-client/internal/auth"
	"llamasearch-client/internal/codec"
	"llamasearch-client/internal/constant"
	"llamasearch-client/internal/model"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// metadataFrameType is the message metadata key carrying the decoded frame
// type, so subscribers can route without re-parsing the payload.
const metadataFrameType = "frame_type"

// readPump receives frames for the lifetime of one physical connection.
// Frames that decode cleanly are published to the chat events topic; frames
// that do not are logged and dropped, never fatal. A read error ends the
// pump and hands the connection over to the disconnect policy.
func (m *Manager) readPump(conn connReader) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleDisconnect(conn, err)
			return
		}

		event, err := codec.Decode(data)
		if err != nil {
			if errors.Is(err, codec.ErrUnknownType) {
				m.logger.Debug("WS", "Dropping frame of unknown type", map[string]interface{}{"error": err.Error()})
			} else {
				m.logger.Warn("WS", "Dropping malformed frame", map[string]interface{}{"error": err.Error()})
			}
			continue
		}
		if _, isPing := event.(codec.Ping); isPing {
			continue
		}

		msg := message.NewMessage(watermill.NewUUID(), data)
		msg.Metadata.Set(metadataFrameType, event.EventType())
		if err := m.publisher.Publish(constant.TopicChatEvents, msg); err != nil {
			m.logger.Error("WS", "Failed to publish inbound frame", map[string]interface{}{"error": err.Error()})
		}
	}
}

// connReader is the slice of *websocket.Conn the pump needs; tests feed the
// pump scripted frames through it.
type connReader interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

// handleDisconnect runs once per lost connection. A deliberate Close and a
// stale pump (a newer connection already replaced this one) are both
// no-ops; everything else enters the reconnect schedule.
func (m *Manager) handleDisconnect(conn connReader, cause error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.conn != nil && connReader(m.conn) != conn {
		m.mu.Unlock()
		return
	}
	// Clearing the conn and leaving Authenticated is one atomic step, so a
	// concurrent Connect sees either the live connection or a clean
	// Disconnected state, never the half-torn-down window in between.
	m.conn = nil
	m.sessions.SetState(model.StateDisconnected)
	m.mu.Unlock()

	m.logger.Warn("WS", "Connection lost", map[string]interface{}{"error": cause.Error()})
	m.publishSessionEvent(SessionEvent{Event: SessionDisconnected, SessionId: m.sessions.SessionId(), Reason: cause.Error()})

	m.scheduleReconnect()
}

// scheduleReconnect arms the next automatic attempt, or emits the
// session-expired signal exactly once when the budget is spent.
func (m *Manager) scheduleReconnect() {
	attempts := m.sessions.Attempts()
	if attempts >= m.opts.MaxAttempts {
		m.emitSessionExpired()
		return
	}

	m.sessions.IncrementAttempts()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	delay := m.backoff.NextBackOff()
	m.retryTimer = time.AfterFunc(delay, m.retryConnect)
	m.mu.Unlock()

	m.logger.Info("WS", "Scheduling reconnection attempt", map[string]interface{}{
		"attempt":  attempts + 1,
		"max":      m.opts.MaxAttempts,
		"delay_ms": delay.Milliseconds(),
	})
}

// retryConnect is the timer callback for one automatic attempt. Transport
// failure rolls into the next scheduled attempt; a spent credential or an
// explicit authentication rejection cannot be fixed by retrying, so they
// terminate the loop through the expiry signal.
func (m *Manager) retryConnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.retryTimer = nil
	m.mu.Unlock()

	_, err := m.Connect(context.Background())
	if err == nil {
		return
	}

	var handshakeErr *HandshakeError
	switch {
	case errors.Is(err, ErrConnectInProgress):
		// A manual Connect raced the timer; let it finish.
	case errors.As(err, &handshakeErr):
		m.logger.Error("WS", "Reconnection rejected by backend", map[string]interface{}{"reason": handshakeErr.Reason})
		m.emitSessionExpired()
	case isCredentialError(err):
		m.logger.Error("WS", "Credential unavailable during reconnection", map[string]interface{}{"error": err.Error()})
		m.emitSessionExpired()
	default:
		m.logger.Warn("WS", "Reconnection attempt failed", map[string]interface{}{"error": err.Error()})
		m.scheduleReconnect()
	}
}

func isCredentialError(err error) bool {
	return errors.Is(err, auth.ErrUnauthenticated)
}

// emitSessionExpired publishes the terminal expiry signal at most once per
// connection epoch. Consumers treat it as "re-authenticate from scratch".
func (m *Manager) emitSessionExpired() {
	m.mu.Lock()
	already := m.expired
	m.expired = true
	m.mu.Unlock()
	if already {
		return
	}

	m.logger.Error("WS", "Reconnection attempts exhausted, session expired", map[string]interface{}{
		"attempts": m.sessions.Attempts(),
	})
	m.publishSessionEvent(SessionEvent{Event: SessionExpired, SessionId: m.sessions.SessionId()})
}
