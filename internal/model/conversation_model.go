package model

import (
	"time"

	"github.com/google/uuid"
)

// Citation is a reference to a source document backing an assistant turn.
// Immutable once attached to a turn.
type Citation struct {
	FileName     string `json:"file_name"`
	FilePath     string `json:"file_path"`
	LastModified string `json:"last_modified"`
	DocumentId   string `json:"document_id"`
}

// ConversationTurn is one message in the transcript. Content is mutated in
// place only while the turn is the most recent assistant turn and a stream
// is open; the transcript store owns that discipline.
type ConversationTurn struct {
	Id        uuid.UUID  `json:"id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ResponseMetadata is the side-channel data carried by a metadata frame for
// the pending response.
type ResponseMetadata struct {
	Citations  []Citation     `json:"context,omitempty"`
	Query      string         `json:"query,omitempty"`
	FileUpload []UploadResult `json:"file_upload,omitempty"`
}

// UploadResult reports the backend's handling of one attached file.
type UploadResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Location string `json:"location,omitempty"`
}

// PendingFileTransfer exists only for the duration of one outbound send
// operation; it is never persisted.
type PendingFileTransfer struct {
	Name           string
	SizeBytes      int64
	EncodedPayload string
}
