package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"careconnect-backend/internal/logger"
)

// MockBlobStore keeps files on the local filesystem and hands out URLs that
// point back at this server. For development and tests only.
type MockBlobStore struct {
	baseURL  string // e.g. "http://localhost:8080"
	filesDir string
}

func NewMockBlobStore(baseURL, uploadsDir string) (*MockBlobStore, error) {
	filesDir := filepath.Join(uploadsDir, "files")
	if err := os.MkdirAll(filesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	return &MockBlobStore{
		baseURL:  baseURL,
		filesDir: filesDir,
	}, nil
}

// GeneratePresignedUploadURL returns an upload URL handled by this server.
// The key travels in a query parameter so the upload handler knows where to
// write.
func (m *MockBlobStore) GeneratePresignedUploadURL(_ context.Context, key string, _ string, _ time.Duration) (string, error) {
	uploadToken := uuid.New().String()
	return fmt.Sprintf("%s/api/v1/upload/%s?key=%s", m.baseURL, uploadToken, key), nil
}

func (m *MockBlobStore) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return fmt.Sprintf("%s/api/v1/download/%s?key=%s", m.baseURL, encodeKey(key), key), nil
}

func (m *MockBlobStore) FileExists(_ context.Context, key string) (bool, int64, error) {
	info, err := os.Stat(filepath.Join(m.filesDir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, info.Size(), nil
}

func (m *MockBlobStore) DeleteFile(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(m.filesDir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (m *MockBlobStore) SaveFile(key string, reader io.Reader) error {
	fullPath := filepath.Join(m.filesDir, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Debug("Mock blob stored", "key", key)
	return nil
}

func (m *MockBlobStore) ReadFile(key string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(m.filesDir, key))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// encodeKey creates a URL-safe hash of the key
func encodeKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16])
}
