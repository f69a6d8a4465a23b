package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sesmt-backend/internal/storage"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartRequest(t *testing.T, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestUploadAndServe(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewLocalStore(root, "/api/files")
	require.NoError(t, err)
	h := NewUploadHandler(store)

	w := serve(h.Upload, multipartRequest(t, pngHeader))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data storage.FileInfo `json:"data"`
	}
	decodeBody(t, w, &resp)
	require.True(t, strings.HasPrefix(resp.Data.URL, "/api/files/photos/"), resp.Data.URL)
	assert.True(t, strings.HasSuffix(resp.Data.URL, ".png"))

	rel := strings.TrimPrefix(resp.Data.URL, "/api/files/")
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)

	w = serve(h.ServeFile, httptest.NewRequest(http.MethodGet, resp.Data.URL, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = serve(h.ServeFile, httptest.NewRequest(http.MethodGet, "/api/files/photos/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpload_RejectsNonImages(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/api/files")
	require.NoError(t, err)
	h := NewUploadHandler(store)

	w := serve(h.Upload, multipartRequest(t, []byte("%PDF-1.4 not a photo")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not allowed")
}
