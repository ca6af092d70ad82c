package dto

// SendQueryRequest is the application-level send intent, validated by the
// chat service before any frame is encoded.
type SendQueryRequest struct {
	Query string         `json:"query" validate:"required"`
	Files []AttachedFile `json:"files" validate:"dive"`
}

// AttachedFile is one file ready for inline transmission: Content is the
// transport-safe (base64) payload produced by the file encoder.
type AttachedFile struct {
	Name    string `json:"name" validate:"required"`
	Content string `json:"content,omitempty"`
}

// LoginResponse is the REST login reply. Older backend revisions return the
// session id in the body; newer ones only set the session cookie.
type LoginResponse struct {
	Message   string `json:"message"`
	SessionId string `json:"session_id,omitempty"`
}

// UploadFileResponse is the REST upload reply for the pre-conversation
// attachment flow.
type UploadFileResponse struct {
	FileUpload []UploadFileResult `json:"file_upload"`
}

type UploadFileResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Location string `json:"location,omitempty"`
}
