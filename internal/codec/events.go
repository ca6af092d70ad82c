package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"llamasearch-client/internal/model"
)

// Event is one decoded inbound frame. The set is closed: Decode maps
// unknown type discriminators to ErrUnknownType so callers can drop them
// without tearing down the connection.
type Event interface {
	EventType() string
}

type AuthSuccess struct {
	SessionId string
}

type AuthFailed struct {
	Reason string
}

type Chunk struct {
	Content string
}

type Metadata struct {
	model.ResponseMetadata
}

type EndStream struct{}

type StreamError struct {
	Content string
}

type Ping struct{}

type UploadProgress struct {
	Filename string
	Progress float64
}

func (AuthSuccess) EventType() string    { return TypeAuthSuccess }
func (AuthFailed) EventType() string     { return TypeAuthFailed }
func (Chunk) EventType() string          { return TypeChunk }
func (Metadata) EventType() string       { return TypeMetadata }
func (EndStream) EventType() string      { return TypeEndStream }
func (StreamError) EventType() string    { return TypeError }
func (Ping) EventType() string           { return TypePing }
func (UploadProgress) EventType() string { return TypeUploadProgress }

// ErrUnknownType marks a well-formed frame whose type is outside the closed
// event set. Dropped by the caller, never fatal.
var ErrUnknownType = errors.New("unknown frame type")

// DecodeError marks a malformed inbound frame. The frame is dropped and
// logged; the connection stays alive.
type DecodeError struct {
	FrameType string
	Cause     error
}

func (e *DecodeError) Error() string {
	if e.FrameType != "" {
		return fmt.Sprintf("malformed %q frame: %v", e.FrameType, e.Cause)
	}
	return fmt.Sprintf("malformed frame: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// envelope is the superset of every inbound frame shape. Metadata payloads
// have shipped in two layouts: citations nested under content
// ({"content":{"context":[...]}}) and flattened to the top level
// ({"context":[...]}); both are accepted.
type envelope struct {
	Type       string               `json:"type"`
	SessionId  string               `json:"session_id"`
	Content    json.RawMessage      `json:"content"`
	Context    []model.Citation     `json:"context"`
	Query      string               `json:"query"`
	FileUpload []model.UploadResult `json:"file_upload"`
	Filename   string               `json:"filename"`
	Progress   float64              `json:"progress"`
}

// Decode parses one inbound frame into its typed event.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Cause: err}
	}

	switch env.Type {
	case TypeAuthSuccess:
		if env.SessionId == "" {
			return nil, &DecodeError{FrameType: env.Type, Cause: errors.New("missing session_id")}
		}
		return AuthSuccess{SessionId: env.SessionId}, nil

	case TypeAuthFailed:
		return AuthFailed{Reason: contentString(env.Content)}, nil

	case TypeChunk:
		var content string
		if err := json.Unmarshal(env.Content, &content); err != nil {
			return nil, &DecodeError{FrameType: env.Type, Cause: err}
		}
		return Chunk{Content: content}, nil

	case TypeMetadata:
		meta := model.ResponseMetadata{
			Citations:  env.Context,
			Query:      env.Query,
			FileUpload: env.FileUpload,
		}
		if len(env.Content) > 0 {
			var nested model.ResponseMetadata
			if err := json.Unmarshal(env.Content, &nested); err != nil {
				return nil, &DecodeError{FrameType: env.Type, Cause: err}
			}
			if len(nested.Citations) > 0 {
				meta = nested
			}
		}
		return Metadata{ResponseMetadata: meta}, nil

	case TypeEndStream:
		return EndStream{}, nil

	case TypeError:
		return StreamError{Content: contentString(env.Content)}, nil

	case TypePing:
		return Ping{}, nil

	case TypeUploadProgress:
		return UploadProgress{Filename: env.Filename, Progress: env.Progress}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// contentString renders a content field that may arrive as a bare string or
// as an object (older backends wrap error text in {"error": "..."}).
func contentString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err == nil {
		if msg, ok := obj["error"]; ok {
			return msg
		}
	}
	return string(raw)
}
