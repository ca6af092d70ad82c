package transcript

import (
	"context"

	"llamasearch-client/internal/codec"
	"llamasearch-client/internal/constant"
	"llamasearch-client/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Assembler folds the inbound event sequence into the transcript. The fold
// is append-only and lossless: the same ordered event sequence always
// produces the same transcript.
type Assembler struct {
	store  *Store
	logger logger.ILogger
}

func NewAssembler(store *Store, log logger.ILogger) *Assembler {
	return &Assembler{store: store, logger: log}
}

// Run consumes decoded frames from the event bus until the subscription
// channel closes or the context is cancelled. It is the transcript's single
// writer.
func (a *Assembler) Run(ctx context.Context, messages <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			event, err := codec.Decode(msg.Payload)
			if err != nil {
				// The connection manager already validated the frame;
				// a failure here means the bus payload was corrupted.
				a.logger.Error("TRANSCRIPT", "Dropping undecodable bus payload", map[string]interface{}{"error": err.Error()})
				msg.Ack()
				continue
			}
			a.Apply(event)
			msg.Ack()
		}
	}
}

// Apply folds one event into the transcript.
func (a *Assembler) Apply(event codec.Event) {
	switch ev := event.(type) {
	case codec.Metadata:
		// Metadata precedes its chunks: record the side-channel data and
		// open the assistant turn that the chunks will fill.
		meta := ev.ResponseMetadata
		a.store.SetMetadata(&meta)
		a.store.OpenAssistantTurn(meta.Citations)

	case codec.Chunk:
		a.store.SetTyping(false)
		a.store.AppendAssistantDelta(ev.Content)

	case codec.EndStream:
		a.store.SetWaiting(false)
		a.store.SetTyping(false)

	case codec.StreamError:
		content := ev.Content
		if content == "" {
			content = "The assistant failed to answer."
		}
		a.store.Append(constant.ChatMessageRoleSystem, content)
		a.store.SetWaiting(false)
		a.store.SetTyping(false)

	case codec.UploadProgress:
		a.store.SetUploadProgress(ev.Filename, ev.Progress)

	case codec.Ping:
		// Heartbeat, nothing to fold.

	default:
		// Handshake frames are consumed by the connection manager before
		// the pump starts publishing; anything else is ignored here.
	}
}
