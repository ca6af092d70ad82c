// Package upload implements the REST attachment path: files pushed to the
// backend's document store ahead of a conversation, as opposed to the
// inline attachments carried inside a query frame.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"llamasearch-client/internal/constant"
	"llamasearch-client/internal/dto"
	"llamasearch-client/internal/pkg/logger"
)

// multipartField is the form field name the backend reads files from.
const multipartField = "files"

// File is one upload input: a name and its content stream.
type File struct {
	Name   string
	Reader io.Reader
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.ILogger
}

func NewClient(baseURL string, log logger.ILogger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     log,
	}
}

// Upload pushes the given files in a single multipart request and returns
// the backend's per-file results.
func (c *Client) Upload(ctx context.Context, authHeader string, files []File) ([]dto.UploadFileResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := writer.CreateFormFile(multipartField, filepath.Base(f.Name))
		if err != nil {
			return nil, fmt.Errorf("creating form part for %q: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("reading %q: %w", f.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+constant.UploadFilePath, &body)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Upload", "Upload request failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("uploading files: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Upload", "Upload rejected by backend", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(payload),
		})
		return nil, fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	var parsed dto.UploadFileResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}

	c.logger.Info("Upload", "Files uploaded", map[string]interface{}{"count": len(parsed.FileUpload)})
	return parsed.FileUpload, nil
}
