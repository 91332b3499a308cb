package http

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"careconnect-backend/internal/storage"
)

// BlobHandler serves the mock blob store's upload and download endpoints,
// standing in for S3 presigned URLs in development.
type BlobHandler struct {
	store storage.BlobStore
}

func NewBlobHandler(store storage.BlobStore) *BlobHandler {
	return &BlobHandler{store: store}
}

var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

var uploadExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

type presignRequest struct {
	Purpose     string `json:"purpose"` // "avatar" or "credential"
	ContentType string `json:"content_type"`
}

type presignResponse struct {
	Key         string `json:"key"`
	UploadURL   string `json:"upload_url"`
	DownloadURL string `json:"download_url"`
}

// HandlePresign issues an upload URL for the caller's avatar or credential
// document. The key is namespaced by user id so uploads cannot collide or
// overwrite another user's files.
func (h *BlobHandler) HandlePresign(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req presignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Purpose != "avatar" && req.Purpose != "credential" {
		writeError(w, http.StatusBadRequest, "purpose must be avatar or credential")
		return
	}
	ext, ok := uploadExtensions[req.ContentType]
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported content type")
		return
	}

	key := fmt.Sprintf("%s/%d/%s%s", req.Purpose, claims.UserID, uuid.New().String(), ext)
	uploadURL, err := h.store.GeneratePresignedUploadURL(r.Context(), key, req.ContentType, 15*time.Minute)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate upload URL")
		return
	}
	downloadURL, err := h.store.GeneratePresignedDownloadURL(r.Context(), key, 24*time.Hour)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate download URL")
		return
	}

	writeSuccess(w, http.StatusOK, presignResponse{Key: key, UploadURL: uploadURL, DownloadURL: downloadURL})
}

// HandleUpload accepts PUTs against mock presigned URLs. Avatars are images;
// provider credential documents may be PDFs.
func (h *BlobHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing key parameter")
		return
	}

	if !allowedUploadTypes[r.Header.Get("Content-Type")] {
		writeError(w, http.StatusBadRequest, "unsupported content type")
		return
	}

	if err := h.store.SaveFile(key, r.Body); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	// Mimic the headers a real object store would return.
	w.Header().Set("ETag", `"mock-etag-success"`)
	w.WriteHeader(http.StatusOK)
}

func (h *BlobHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing key parameter")
		return
	}

	file, err := h.store.ReadFile(key)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer file.Close()

	contentType := "application/octet-stream"
	switch filepath.Ext(key) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".pdf":
		contentType = "application/pdf"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	io.Copy(w, file)
}

// RegisterBlobRoutes registers the mock blob store HTTP endpoints
func RegisterBlobRoutes(router *mux.Router, store storage.BlobStore) {
	handler := NewBlobHandler(store)
	router.HandleFunc("/api/v1/upload/{token}", handler.HandleUpload).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/download/{key}", handler.HandleDownload).Methods(http.MethodGet)
}
