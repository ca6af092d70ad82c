// Package client owns the single physical duplex connection to the
// backend: the authenticated handshake, session resumption, the
// exponential-backoff reconnection state machine, and the outbound send
// path. Decoded inbound frames are published on the event bus for the
// stream assembler and any other subscriber.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"llamasearch-client/internal/auth"
	"llamasearch-client/internal/codec"
	"llamasearch-client/internal/constant"
	"llamasearch-client/internal/dto"
	"llamasearch-client/internal/model"
	"llamasearch-client/internal/pkg/logger"
	"llamasearch-client/internal/session"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

var (
	// ErrNotConnected is reported when a send is attempted with no open,
	// authenticated connection. The send path logs and returns it; it
	// never panics and never tears anything down.
	ErrNotConnected = errors.New("websocket is not open")

	// ErrConnectInProgress serializes concurrent connect attempts (a
	// reconnect timer firing while a manual Connect is in flight).
	ErrConnectInProgress = errors.New("connection attempt already in progress")

	// ErrReconnectExhausted is terminal: the reconnect budget is spent and
	// a session-expired signal has been emitted.
	ErrReconnectExhausted = errors.New("reconnection attempts exhausted")
)

// HandshakeError means the backend explicitly refused authentication. Not
// retried.
type HandshakeError struct {
	Reason string
}

func (e *HandshakeError) Error() string {
	return "authentication failed: " + e.Reason
}

// TransportError wraps a failure of the physical connection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "transport " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Options configures the connection manager. Zero values fall back to the
// protocol defaults.
type Options struct {
	// BaseURL is the backend's HTTP base address.
	BaseURL string

	// BaseDelay seeds the reconnect schedule: attempt N waits
	// BaseDelay * 2^N.
	BaseDelay time.Duration

	// MaxAttempts caps automatic reconnection before the session-expired
	// signal fires.
	MaxAttempts int

	// HandshakeTimeout bounds the dial plus the wait for a terminal
	// handshake frame.
	HandshakeTimeout time.Duration

	// CredentialRetryDelay is the fixed pause before the single credential
	// fetch retry.
	CredentialRetryDelay time.Duration
}

func (o *Options) applyDefaults() {
	if o.BaseDelay == 0 {
		o.BaseDelay = constant.ReconnectBaseDelay
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = constant.ReconnectMaxAttempts
	}
	if o.HandshakeTimeout == 0 {
		o.HandshakeTimeout = constant.HandshakeTimeout
	}
	if o.CredentialRetryDelay == 0 {
		o.CredentialRetryDelay = constant.CredentialRetryDelay
	}
}

// Manager drives the connection state machine. All protocol work happens on
// the read pump goroutine or inside timer callbacks; shared state is guarded
// by mu and serialized through ConnectionState checks.
type Manager struct {
	opts      Options
	endpoint  string
	creds     auth.CredentialSupplier
	sessions  *session.Store
	publisher message.Publisher
	logger    logger.ILogger

	mu         sync.Mutex
	writeMu    sync.Mutex
	conn       *websocket.Conn
	closed     bool
	expired    bool
	retryTimer *time.Timer
	backoff    *backoff.ExponentialBackOff
}

func NewManager(opts Options, creds auth.CredentialSupplier, sessions *session.Store, publisher message.Publisher, log logger.ILogger) (*Manager, error) {
	opts.applyDefaults()

	endpoint, err := DeriveEndpoint(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     opts.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         opts.BaseDelay << uint(opts.MaxAttempts),
		MaxElapsedTime:      0,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	return &Manager{
		opts:      opts,
		endpoint:  endpoint,
		creds:     creds,
		sessions:  sessions,
		publisher: publisher,
		logger:    log,
		backoff:   b,
	}, nil
}

// Connect opens the physical connection and runs the authenticated
// handshake, returning the backend-assigned session id.
//
// Idempotent: when already authenticated it returns the existing session id
// without opening a second connection. Credential failure is retried once
// after a fixed delay and then propagated; it never enters the reconnect
// loop.
func (m *Manager) Connect(ctx context.Context) (string, error) {
	m.mu.Lock()
	switch m.sessions.State() {
	case model.StateAuthenticated:
		if m.conn != nil {
			sessionId := m.sessions.SessionId()
			m.mu.Unlock()
			return sessionId, nil
		}
	case model.StateConnecting, model.StateAwaitingAuthAck:
		m.mu.Unlock()
		return "", ErrConnectInProgress
	}
	m.closed = false
	m.sessions.SetState(model.StateConnecting)
	m.mu.Unlock()

	token, err := m.credential(ctx)
	if err != nil {
		m.sessions.SetState(model.StateDisconnected)
		return "", err
	}

	dialer := websocket.Dialer{HandshakeTimeout: m.opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, m.endpoint, nil)
	if err != nil {
		m.sessions.SetState(model.StateDisconnected)
		return "", &TransportError{Op: "dial", Err: err}
	}

	sessionId, err := m.handshake(conn, token)
	if err != nil {
		conn.Close()
		m.sessions.SetState(model.StateDisconnected)
		return "", err
	}

	// The conn swap, the state transition and the backoff reset form one
	// atomic step: a pump observing the old connection's death must see
	// either the pre- or the post-handshake world, never a mix.
	m.mu.Lock()
	if m.closed {
		// Close raced the handshake; honor it.
		m.mu.Unlock()
		conn.Close()
		return "", ErrNotConnected
	}
	m.conn = conn
	m.expired = false
	m.backoff.Reset()
	m.sessions.SetSessionId(sessionId)
	m.sessions.SetState(model.StateAuthenticated)
	m.mu.Unlock()

	m.publishSessionEvent(SessionEvent{Event: SessionConnected, SessionId: sessionId})
	m.logger.Info("WS", "Session authenticated", map[string]interface{}{"session_id": sessionId})

	go m.readPump(conn)
	return sessionId, nil
}

// credential fetches the bearer header, retrying once after a fixed short
// delay. Credential failure is a distinct error class from transport
// failure.
func (m *Manager) credential(ctx context.Context) (string, error) {
	token, err := m.creds.AuthHeader(ctx)
	if err == nil {
		return token, nil
	}
	m.logger.Warn("WS", "Credential fetch failed, retrying once", map[string]interface{}{"error": err.Error()})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(m.opts.CredentialRetryDelay):
	}

	token, err = m.creds.AuthHeader(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching credential: %w", err)
	}
	return token, nil
}

// handshake sends the auth frame and waits for exactly one terminal
// handshake frame. Anything received before it is ignored.
func (m *Manager) handshake(conn *websocket.Conn, token string) (string, error) {
	m.sessions.SetState(model.StateAwaitingAuthAck)

	frame, err := codec.EncodeAuth(token, m.sessions.SessionId())
	if err != nil {
		return "", fmt.Errorf("encoding auth frame: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return "", &TransportError{Op: "write auth", Err: err}
	}

	deadline := time.Now().Add(m.opts.HandshakeTimeout)
	conn.SetReadDeadline(deadline)
	defer conn.SetReadDeadline(time.Time{})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return "", &TransportError{Op: "handshake read", Err: err}
		}
		event, err := codec.Decode(data)
		if err != nil {
			m.logger.Warn("WS", "Ignoring undecodable frame during handshake", map[string]interface{}{"error": err.Error()})
			continue
		}
		switch ev := event.(type) {
		case codec.AuthSuccess:
			return ev.SessionId, nil
		case codec.AuthFailed:
			return "", &HandshakeError{Reason: ev.Reason}
		default:
			// Normal frames are routed only once authenticated.
		}
	}
}

// SendQuery frames one query with its inline attachments and transmits it
// on the active connection. With no open connection the condition is logged
// and reported as ErrNotConnected; the send path never brings the
// connection down.
func (m *Manager) SendQuery(ctx context.Context, query string, files []dto.AttachedFile) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil || m.sessions.State() != model.StateAuthenticated {
		m.logger.Error("WS", "Cannot send query: websocket is not open", map[string]interface{}{"state": m.sessions.State().String()})
		return ErrNotConnected
	}

	frame, err := codec.EncodeQuery(query, files, m.sessions.SessionId())
	if err != nil {
		return fmt.Errorf("encoding query frame: %w", err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
		defer conn.SetWriteDeadline(time.Time{})
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		m.logger.Error("WS", "Query transmission failed", map[string]interface{}{"error": err.Error()})
		return &TransportError{Op: "write query", Err: err}
	}
	return nil
}

// Close tears the connection down and suppresses the reconnect policy. Any
// scheduled retry is cancelled and the reconnect budget resets, so a later
// manual Connect starts fresh.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.expired = false
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	conn := m.conn
	m.conn = nil
	m.backoff.Reset()
	m.sessions.SetState(model.StateDisconnected)
	m.sessions.ResetAttempts()
	m.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return conn.Close()
	}
	return nil
}

// State reports the connection state machine's current position.
func (m *Manager) State() model.ConnectionState {
	return m.sessions.State()
}
