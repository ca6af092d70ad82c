package fileenc

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"llamasearch-client/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRoundTrip(t *testing.T) {
	payload := []byte{0x00, 0xff, 0x10, 0x80, 'a', 'b'}

	file, err := Encode("blob.bin", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "blob.bin", file.Name)

	decoded, err := Decode(file.Content)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestEncodePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	file, err := EncodePath(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", file.Name, "wire name is the base name, not the path")

	decoded, err := Decode(file.Content)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(decoded))
}

func TestEncodePathMissing(t *testing.T) {
	_, err := EncodePath(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestStripDataURI(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bare encoding untouched", "aGVsbG8=", "aGVsbG8="},
		{"data uri stripped", "data:application/pdf;base64,aGVsbG8=", "aGVsbG8="},
		{"data uri without base64 marker untouched", "data:text/plain,hello", "data:text/plain,hello"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripDataURI(tt.content))
		})
	}
}

func TestPendingSizeWithoutPadding(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int64
	}{
		{"padded", "aGVsbG8=", 5},
		{"unpadded", "aGVsbG8", 5},
		{"unpadded four bytes", "aGVsbA", 4},
		{"full quantum", "aGVsbG8h", 6},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pending := Pending(dto.AttachedFile{Name: "f", Content: tt.content})
			assert.Equal(t, tt.want, pending.SizeBytes)
		})
	}
}

func TestPending(t *testing.T) {
	file, err := Encode("doc.pdf", bytes.NewReader(make([]byte, 1024)))
	require.NoError(t, err)

	pending := Pending(file)
	assert.Equal(t, "doc.pdf", pending.Name)
	assert.Equal(t, int64(1024), pending.SizeBytes)
	assert.Equal(t, file.Content, pending.EncodedPayload)
}
