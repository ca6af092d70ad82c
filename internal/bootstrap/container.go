package bootstrap

import (
	"context"
	"fmt"

	"llamasearch-client/internal/auth"
	"llamasearch-client/internal/client"
	"llamasearch-client/internal/config"
	"llamasearch-client/internal/constant"
	"llamasearch-client/internal/pkg/logger"
	"llamasearch-client/internal/service"
	"llamasearch-client/internal/session"
	"llamasearch-client/internal/transcript"
	"llamasearch-client/internal/upload"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Container wires the client stack: the event bus, the session and
// transcript stores, the connection manager, and the services on top.
type Container struct {
	Logger      logger.ILogger
	Bus         *gochannel.GoChannel
	Sessions    *session.Store
	Transcript  *transcript.Store
	Connection  *client.Manager
	ChatService service.IChatService
	AuthClient  *auth.RestClient
	Uploads     *upload.Client
}

func NewContainer(ctx context.Context, cfg *config.Config, tokens auth.TokenSource) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// The connection and the assembler log on hot paths while the chat
	// surface owns the terminal, so they write to the file only.
	wsLogger := logger.NewIsolatedLogger("logs/protocol.log")

	// Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Stores
	sessions := session.NewStore()
	transcriptStore := transcript.NewStore()

	// Connection
	creds := auth.NewBearerSupplier(tokens)
	manager, err := client.NewManager(client.Options{
		BaseURL:          cfg.App.BaseURL,
		BaseDelay:        cfg.Chat.ReconnectBaseDelay,
		MaxAttempts:      cfg.Chat.ReconnectAttempts,
		HandshakeTimeout: cfg.Chat.HandshakeTimeout,
	}, creds, sessions, pubSub, wsLogger)
	if err != nil {
		return nil, fmt.Errorf("building connection manager: %w", err)
	}

	// Stream Assembler (Worker)
	assembler := transcript.NewAssembler(transcriptStore, wsLogger)
	frames, err := pubSub.Subscribe(ctx, constant.TopicChatEvents)
	if err != nil {
		return nil, fmt.Errorf("subscribing to chat events: %w", err)
	}
	go assembler.Run(ctx, frames)

	chatService := service.NewChatService(manager, transcriptStore, service.Limits{
		MaxAttachmentBytes: cfg.Chat.MaxAttachmentBytes,
		MaxAttachments:     cfg.Chat.MaxAttachments,
	}, wsLogger)

	return &Container{
		Logger:      sysLogger,
		Bus:         pubSub,
		Sessions:    sessions,
		Transcript:  transcriptStore,
		Connection:  manager,
		ChatService: chatService,
		AuthClient:  auth.NewRestClient(cfg.App.BaseURL, sysLogger),
		Uploads:     upload.NewClient(cfg.App.BaseURL, sysLogger),
	}, nil
}

// SessionEvents exposes the lifecycle topic for callers that react to
// disconnects and expiry (the interactive shell, tests).
func (c *Container) SessionEvents(ctx context.Context) (<-chan *message.Message, error) {
	return c.Bus.Subscribe(ctx, constant.TopicSessionEvents)
}

// Shutdown closes the connection and flushes everything.
func (c *Container) Shutdown() {
	if err := c.Connection.Close(); err != nil {
		c.Logger.Warn("Bootstrap", "Connection close reported an error", map[string]interface{}{"error": err.Error()})
	}
	if err := c.Bus.Close(); err != nil {
		c.Logger.Warn("Bootstrap", "Event bus close reported an error", map[string]interface{}{"error": err.Error()})
	}
	_ = c.Logger.Sync()
}
