// Package codec is the total, bidirectional mapping between typed
// intents/events and the JSON wire representation of the session protocol.
package codec

import (
	"encoding/json"

	"llamasearch-client/internal/dto"
)

// Frame type discriminators. Outbound:
const (
	TypeAuth  = "auth"
	TypeQuery = "query"
)

// Inbound:
const (
	TypeAuthSuccess    = "authentication_success"
	TypeAuthFailed     = "authentication_failed"
	TypeChunk          = "chunk"
	TypeMetadata       = "metadata"
	TypeEndStream      = "end_stream"
	TypeError          = "error"
	TypePing           = "ping"
	TypeUploadProgress = "upload_progress"
)

// AuthFrame opens the handshake. SessionId is included only when a
// previously persisted session id exists, to request resumption.
type AuthFrame struct {
	Type      string `json:"type"`
	Token     string `json:"token"`
	SessionId string `json:"session_id,omitempty"`
}

// QueryFrame carries one query with its inline file attachments. Files is
// always present on the wire, [] when there are none.
type QueryFrame struct {
	Type      string             `json:"type"`
	Query     string             `json:"query"`
	Stream    bool               `json:"stream"`
	SessionId string             `json:"session_id"`
	Files     []dto.AttachedFile `json:"files"`
}

// EncodeAuth serializes the handshake frame. The token is the full header
// value, e.g. "Bearer <credential>".
func EncodeAuth(token, sessionId string) ([]byte, error) {
	return json.Marshal(AuthFrame{
		Type:      TypeAuth,
		Token:     token,
		SessionId: sessionId,
	})
}

// EncodeQuery serializes a query frame. A nil files slice is normalized to
// an empty array so the backend never sees "files": null.
func EncodeQuery(query string, files []dto.AttachedFile, sessionId string) ([]byte, error) {
	if files == nil {
		files = []dto.AttachedFile{}
	}
	return json.Marshal(QueryFrame{
		Type:      TypeQuery,
		Query:     query,
		Stream:    true,
		SessionId: sessionId,
		Files:     files,
	})
}
