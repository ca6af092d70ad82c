package service

import (
	"context"
	"errors"
	"fmt"

	"llamasearch-client/internal/client"
	"llamasearch-client/internal/constant"
	"llamasearch-client/internal/dto"
	"llamasearch-client/internal/fileenc"
	"llamasearch-client/internal/model"
	"llamasearch-client/internal/pkg/logger"
	"llamasearch-client/internal/transcript"

	"github.com/go-playground/validator/v10"
)

// ConnectionSender is the slice of the connection manager the chat service
// needs.
type ConnectionSender interface {
	SendQuery(ctx context.Context, query string, files []dto.AttachedFile) error
	State() model.ConnectionState
}

// IChatService is the application-facing conversation API: it validates a
// send intent, enforces the attachment policy, records the user turn, and
// hands the frame to the connection.
type IChatService interface {
	Send(ctx context.Context, req dto.SendQueryRequest) error
	Transcript() []model.ConversationTurn
}

// Limits caps outbound attachments. Violations are reported to the caller
// before anything touches the wire.
type Limits struct {
	MaxAttachmentBytes int64
	MaxAttachments     int
}

type chatService struct {
	sender     ConnectionSender
	transcript *transcript.Store
	limits     Limits
	validate   *validator.Validate
	logger     logger.ILogger
}

func NewChatService(sender ConnectionSender, store *transcript.Store, limits Limits, log logger.ILogger) IChatService {
	if limits.MaxAttachmentBytes == 0 {
		limits.MaxAttachmentBytes = constant.MaxAttachmentBytes
	}
	if limits.MaxAttachments == 0 {
		limits.MaxAttachments = constant.MaxAttachments
	}
	return &chatService{
		sender:     sender,
		transcript: store,
		limits:     limits,
		validate:   validator.New(),
		logger:     log,
	}
}

// Send validates and transmits one query. The user turn is appended and the
// waiting indicator raised before transmission; if transmission fails, a
// system turn records the failure so the conversation view stays honest.
func (s *chatService) Send(ctx context.Context, req dto.SendQueryRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid query request: %w", err)
	}
	if err := s.checkAttachments(req.Files); err != nil {
		return err
	}

	files := make([]dto.AttachedFile, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, dto.AttachedFile{
			Name:    f.Name,
			Content: fileenc.StripDataURI(f.Content),
		})
	}

	s.transcript.Append(constant.ChatMessageRoleUser, req.Query)
	s.transcript.SetWaiting(true)
	s.transcript.SetTyping(true)

	if err := s.sender.SendQuery(ctx, req.Query, files); err != nil {
		s.transcript.SetWaiting(false)
		s.transcript.SetTyping(false)
		s.transcript.Append(constant.ChatMessageRoleSystem, "Your message could not be delivered.")
		s.logger.Error("Chat", "Query delivery failed", map[string]interface{}{"error": err.Error()})
		if errors.Is(err, client.ErrNotConnected) {
			return err
		}
		return fmt.Errorf("sending query: %w", err)
	}
	return nil
}

func (s *chatService) checkAttachments(files []dto.AttachedFile) error {
	if len(files) > s.limits.MaxAttachments {
		return fmt.Errorf("too many attachments: %d exceeds the limit of %d", len(files), s.limits.MaxAttachments)
	}
	for _, f := range files {
		pending := fileenc.Pending(dto.AttachedFile{Name: f.Name, Content: fileenc.StripDataURI(f.Content)})
		if pending.SizeBytes > s.limits.MaxAttachmentBytes {
			return fmt.Errorf("attachment %q is too large: %d bytes exceeds the limit of %d", f.Name, pending.SizeBytes, s.limits.MaxAttachmentBytes)
		}
	}
	return nil
}

func (s *chatService) Transcript() []model.ConversationTurn {
	return s.transcript.Turns()
}
