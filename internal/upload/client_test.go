package upload

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"llamasearch-client/internal/constant"
	"llamasearch-client/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, constant.UploadFilePath, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		parts := r.MultipartForm.File["files"]
		require.Len(t, parts, 2)
		assert.Equal(t, "a.txt", parts[0].Filename)
		assert.Equal(t, "b.txt", parts[1].Filename)

		f, err := parts[0].Open()
		require.NoError(t, err)
		defer f.Close()
		buf := make([]byte, 16)
		n, _ := f.Read(buf)
		assert.Equal(t, "alpha", string(buf[:n]))

		w.Write([]byte(`{"file_upload":[{"filename":"a.txt","status":"ok"},{"filename":"b.txt","status":"ok"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.NewNoopLogger())
	results, err := c.Upload(context.Background(), "Bearer tok", []File{
		{Name: "a.txt", Reader: strings.NewReader("alpha")},
		{Name: "/tmp/dir/b.txt", Reader: strings.NewReader("beta")},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ok", results[0].Status)
}

func TestUploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.NewNoopLogger())
	_, err := c.Upload(context.Background(), "Bearer tok", []File{{Name: "a", Reader: strings.NewReader("x")}})
	assert.Error(t, err)
}

func TestUploadWithNoFiles(t *testing.T) {
	c := NewClient("http://localhost:1", logger.NewNoopLogger())
	_, err := c.Upload(context.Background(), "Bearer tok", nil)
	assert.Error(t, err)
}
