package session

import (
	"testing"

	"llamasearch-client/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestSessionIdPerIdentity(t *testing.T) {
	s := NewStore()

	s.SetIdentity("alice")
	s.SetSessionId("sess-alice")
	assert.Equal(t, "sess-alice", s.SessionId())

	// Switching identity must never resume the previous user's session.
	s.SetIdentity("bob")
	assert.Empty(t, s.SessionId())

	s.SetSessionId("sess-bob")
	s.SetIdentity("alice")
	assert.Equal(t, "sess-alice", s.SessionId())
}

func TestAnonymousSessionId(t *testing.T) {
	s := NewStore()

	s.SetSessionId("sess-anon")
	assert.Equal(t, "sess-anon", s.SessionId(), "session id persists without an installed identity")
}

func TestLogoutDropsSession(t *testing.T) {
	s := NewStore()
	s.SetIdentity("alice")
	s.SetSessionId("sess-alice")
	s.SetState(model.StateAuthenticated)
	s.IncrementAttempts()

	s.SetIdentity("")

	assert.Equal(t, model.StateDisconnected, s.State())
	assert.Zero(t, s.Attempts())

	s.SetIdentity("alice")
	assert.Empty(t, s.SessionId(), "logout invalidates the persisted session id")
}

func TestAuthenticatedResetsAttempts(t *testing.T) {
	s := NewStore()
	s.IncrementAttempts()
	s.IncrementAttempts()
	assert.Equal(t, 2, s.Attempts())

	s.SetState(model.StateConnecting)
	assert.Equal(t, 2, s.Attempts(), "attempts survive intermediate states")

	s.SetState(model.StateAuthenticated)
	assert.Zero(t, s.Attempts(), "a successful handshake resets the reconnect budget")
}

func TestSnapshot(t *testing.T) {
	s := NewStore()
	s.SetIdentity("alice")
	s.SetSessionId("sess-1")
	s.SetState(model.StateAwaitingAuthAck)
	s.IncrementAttempts()

	snap := s.Snapshot()
	assert.Equal(t, "alice", snap.Identity)
	assert.Equal(t, "sess-1", snap.SessionId)
	assert.Equal(t, model.StateAwaitingAuthAck, snap.State)
	assert.Equal(t, 1, snap.ReconnectAttempts)
}
