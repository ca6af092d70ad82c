// Package fileenc makes attached binary files safe to embed in the textual
// frame protocol: full content is base64-encoded and inlined into the query
// frame's files array.
package fileenc

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"llamasearch-client/internal/dto"
	"llamasearch-client/internal/model"
)

// Encode reads the full byte content from r and produces the inline
// attachment for one file.
func Encode(name string, r io.Reader) (dto.AttachedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return dto.AttachedFile{}, fmt.Errorf("reading %s: %w", name, err)
	}
	return dto.AttachedFile{
		Name:    name,
		Content: base64.StdEncoding.EncodeToString(data),
	}, nil
}

// EncodePath encodes the file at path, using its base name on the wire.
func EncodePath(path string) (dto.AttachedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return dto.AttachedFile{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Encode(filepath.Base(path), f)
}

// Pending describes the transfer for one encoded file without re-reading
// it. SizeBytes is the exact decoded size.
func Pending(file dto.AttachedFile) model.PendingFileTransfer {
	return model.PendingFileTransfer{
		Name:           file.Name,
		SizeBytes:      decodedSize(file.Content),
		EncodedPayload: file.Content,
	}
}

// decodedSize counts the bytes the payload decodes to. Caller-supplied
// content may arrive without padding, so the trailing partial quantum is
// counted from the character remainder rather than assumed padded.
func decodedSize(content string) int64 {
	trimmed := strings.TrimRight(content, "=")
	size := int64(len(trimmed)) / 4 * 3
	switch len(trimmed) % 4 {
	case 2:
		size++
	case 3:
		size += 2
	}
	return size
}

// StripDataURI removes a data-URI prefix ("data:<mime>;base64,") from an
// already-encoded payload. Browser file readers produce these; the backend
// expects the bare encoding.
func StripDataURI(content string) string {
	if !strings.HasPrefix(content, "data:") {
		return content
	}
	if i := strings.Index(content, ";base64,"); i >= 0 {
		return content[i+len(";base64,"):]
	}
	return content
}

// Decode reverses Encode; the receiving side of the round trip.
func Decode(content string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(StripDataURI(content))
}
