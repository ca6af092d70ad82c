// Package transcript owns the observable conversation state: the ordered
// turn sequence, the waiting/typing indicators, and the pending response
// metadata. The stream assembler is the only writer; any number of
// observers read snapshots.
package transcript

import (
	"sync"
	"time"

	"llamasearch-client/internal/constant"
	"llamasearch-client/internal/model"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	turns    []model.ConversationTurn
	waiting  bool
	typing   bool
	metadata *model.ResponseMetadata
	progress map[string]float64
}

func NewStore() *Store {
	return &Store{
		progress: make(map[string]float64),
	}
}

// Append adds a completed turn (user input, system notices).
func (s *Store) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, model.ConversationTurn{
		Id:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

// OpenAssistantTurn starts a new assistant turn with empty content and the
// given citations. While the stream is open this turn stays the last
// element of the transcript and is the only turn mutated in place.
func (s *Store) OpenAssistantTurn(citations []model.Citation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, model.ConversationTurn{
		Id:        uuid.New(),
		Role:      constant.ChatMessageRoleAssistant,
		Citations: citations,
		CreatedAt: time.Now(),
	})
}

// AppendAssistantDelta appends streamed content to the open assistant turn.
// If the last turn is not an assistant turn (the metadata frame was skipped
// or lost), a new assistant turn is opened with the delta as its initial
// content.
func (s *Store) AppendAssistantDelta(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.turns); n > 0 && s.turns[n-1].Role == constant.ChatMessageRoleAssistant {
		s.turns[n-1].Content += content
		return
	}
	s.turns = append(s.turns, model.ConversationTurn{
		Id:        uuid.New(),
		Role:      constant.ChatMessageRoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

func (s *Store) SetWaiting(waiting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waiting = waiting
}

func (s *Store) Waiting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.waiting
}

func (s *Store) SetTyping(typing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing = typing
}

func (s *Store) Typing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.typing
}

func (s *Store) SetMetadata(meta *model.ResponseMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = meta
}

func (s *Store) Metadata() *model.ResponseMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata
}

func (s *Store) SetUploadProgress(filename string, progress float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[filename] = progress
}

func (s *Store) UploadProgress() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.progress))
	for k, v := range s.progress {
		out[k] = v
	}
	return out
}

// Turns returns a copy of the transcript.
func (s *Store) Turns() []model.ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Last returns the most recent turn, if any.
func (s *Store) Last() (model.ConversationTurn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.turns) == 0 {
		return model.ConversationTurn{}, false
	}
	return s.turns[len(s.turns)-1], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Clear drops the conversation (new chat, logout).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	s.waiting = false
	s.typing = false
	s.metadata = nil
	s.progress = make(map[string]float64)
}
