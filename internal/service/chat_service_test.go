package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"llamasearch-client/internal/client"
	"llamasearch-client/internal/constant"
	"llamasearch-client/internal/dto"
	"llamasearch-client/internal/model"
	"llamasearch-client/internal/pkg/logger"
	"llamasearch-client/internal/transcript"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	err       error
	lastQuery string
	lastFiles []dto.AttachedFile
	calls     int
}

func (f *fakeSender) SendQuery(ctx context.Context, query string, files []dto.AttachedFile) error {
	f.calls++
	f.lastQuery = query
	f.lastFiles = files
	return f.err
}

func (f *fakeSender) State() model.ConnectionState {
	return model.StateAuthenticated
}

func newService(sender *fakeSender, limits Limits) (IChatService, *transcript.Store) {
	store := transcript.NewStore()
	return NewChatService(sender, store, limits, logger.NewNoopLogger()), store
}

func TestSendRecordsUserTurn(t *testing.T) {
	sender := &fakeSender{}
	svc, store := newService(sender, Limits{})

	err := svc.Send(context.Background(), dto.SendQueryRequest{Query: "what is RAG?"})
	require.NoError(t, err)

	turns := store.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, constant.ChatMessageRoleUser, turns[0].Role)
	assert.Equal(t, "what is RAG?", turns[0].Content)
	assert.True(t, store.Waiting())
	assert.True(t, store.Typing())
	assert.Equal(t, 1, sender.calls)
}

func TestSendRejectsEmptyQuery(t *testing.T) {
	sender := &fakeSender{}
	svc, store := newService(sender, Limits{})

	err := svc.Send(context.Background(), dto.SendQueryRequest{Query: ""})
	assert.Error(t, err)
	assert.Zero(t, sender.calls, "nothing reaches the wire")
	assert.Zero(t, store.Len())
}

func TestSendStripsDataURIs(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := newService(sender, Limits{})

	err := svc.Send(context.Background(), dto.SendQueryRequest{
		Query: "summarize",
		Files: []dto.AttachedFile{{Name: "a.txt", Content: "data:text/plain;base64,aGVsbG8="}},
	})
	require.NoError(t, err)
	require.Len(t, sender.lastFiles, 1)
	assert.Equal(t, "aGVsbG8=", sender.lastFiles[0].Content)
}

func TestSendEnforcesAttachmentCount(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := newService(sender, Limits{MaxAttachments: 1, MaxAttachmentBytes: 1024})

	err := svc.Send(context.Background(), dto.SendQueryRequest{
		Query: "q",
		Files: []dto.AttachedFile{{Name: "a"}, {Name: "b"}},
	})
	assert.Error(t, err)
	assert.Zero(t, sender.calls)
}

func TestSendEnforcesAttachmentSize(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := newService(sender, Limits{MaxAttachments: 5, MaxAttachmentBytes: 4})

	big := base64.StdEncoding.EncodeToString([]byte("five!"))
	err := svc.Send(context.Background(), dto.SendQueryRequest{
		Query: "q",
		Files: []dto.AttachedFile{{Name: "big.bin", Content: big}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
	assert.Zero(t, sender.calls)
}

func TestSendFailureAppendsSystemTurn(t *testing.T) {
	sender := &fakeSender{err: client.ErrNotConnected}
	svc, store := newService(sender, Limits{})

	err := svc.Send(context.Background(), dto.SendQueryRequest{Query: "hello"})
	assert.ErrorIs(t, err, client.ErrNotConnected)

	turns := store.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, turns[0].Role)
	assert.Equal(t, constant.ChatMessageRoleSystem, turns[1].Role)
	assert.False(t, store.Waiting())
	assert.False(t, store.Typing())
}

func TestSendWrapsTransportFailure(t *testing.T) {
	cause := errors.New("broken pipe")
	sender := &fakeSender{err: cause}
	svc, _ := newService(sender, Limits{})

	err := svc.Send(context.Background(), dto.SendQueryRequest{Query: "hello"})
	assert.ErrorIs(t, err, cause)
}
