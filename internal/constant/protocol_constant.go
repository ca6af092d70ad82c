package constant

import "time"

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// Websocket endpoint path, appended to the API base URL after the
	// scheme is rewritten to ws/wss.
	WebsocketPath = "/ws"

	// REST endpoints used outside the duplex connection.
	LoginPath      = "/api/v1/login"
	LogoutPath     = "/api/v1/logout"
	UploadFilePath = "/api/v1/uploadfile"

	// Session cookie set by the backend on login. The websocket handshake
	// presents the same id for resumption.
	SessionCookieName = "llamasearch_session"

	// Event bus topics.
	TopicChatEvents    = "chat.events"
	TopicSessionEvents = "session.events"

	// Reconnection policy defaults. The Nth automatic attempt fires
	// ReconnectBaseDelay * 2^N after the triggering disconnect.
	ReconnectBaseDelay   = 5000 * time.Millisecond
	ReconnectMaxAttempts = 5

	HandshakeTimeout     = 10 * time.Second
	CredentialRetryDelay = 1 * time.Second

	// Attachment policy enforced by the chat service before the file
	// encoder runs.
	MaxAttachmentBytes = 10 * 1024 * 1024
	MaxAttachments     = 5
)
