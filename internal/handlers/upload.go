package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"sesmt-backend/internal/storage"
)

// Photo uploads are limited to common image types.
const maxUploadSize = 5 << 20 // 5 MB

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// pathResolver is implemented by stores that keep files on local disk.
type pathResolver interface {
	Resolve(path string) (string, error)
}

// UploadHandler handles file upload requests.
// It depends on the storage.Store interface, not a specific implementation.
type UploadHandler struct {
	store storage.Store
}

// NewUploadHandler creates an UploadHandler with the given storage backend.
func NewUploadHandler(store storage.Store) *UploadHandler {
	return &UploadHandler{store: store}
}

// Upload handles multipart photo uploads.
// Accepts: POST with multipart/form-data containing a "file" field.
// Returns: file metadata (url, name, size, type) as JSON.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		JSONError(w, http.StatusBadRequest, "File too large. Maximum size is 5MB.")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Missing 'file' field in form data.")
		return
	}
	defer file.Close()

	// MIME sniffing on the first 512 bytes; the client's header is not trusted.
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		JSONError(w, http.StatusBadRequest, "Could not read file.")
		return
	}
	contentType := http.DetectContentType(buffer[:n])

	ext, ok := allowedTypes[contentType]
	if !ok {
		JSONError(w, http.StatusBadRequest, fmt.Sprintf(
			"File type '%s' not allowed. Accepted: JPG, PNG, WEBP.", contentType,
		))
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to process file.")
		return
	}

	storagePath := "photos/" + uuid.NewString() + ext

	info, err := h.store.Save(r.Context(), storagePath, file, contentType)
	if err != nil {
		log.Printf("Upload failed: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to save file.")
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{"data": info})
}

// ServeFile serves uploaded files.
// Remote stores redirect to their public URL; local stores serve from disk.
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filePath := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if filePath == "" || filePath == r.URL.Path {
		JSONError(w, http.StatusBadRequest, "File path required.")
		return
	}

	resolver, ok := h.store.(pathResolver)
	if !ok {
		http.Redirect(w, r, h.store.URL(filePath), http.StatusTemporaryRedirect)
		return
	}

	full, err := resolver.Resolve(filePath)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid file path.")
		return
	}
	if _, err := os.Stat(full); errors.Is(err, os.ErrNotExist) {
		JSONError(w, http.StatusNotFound, "File not found.")
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, filepath.Clean(full))
}
