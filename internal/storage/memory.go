package storage

import (
	"bitwise74/file-catalog/internal/service"
	"bitwise74/file-catalog/pkg/apperr"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

type memoryBlob struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// MemoryStore keeps blobs in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]memoryBlob)}
}

func (m *MemoryStore) Store(ctx context.Context, r io.Reader, name, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read blob data, %w", err)
	}

	id, err := newBlobID()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.blobs[id] = memoryBlob{data: data, contentType: contentType, modTime: time.Now()}
	m.mu.Unlock()

	return id, nil
}

func (m *MemoryStore) Fetch(ctx context.Context, blobID string) (io.ReadCloser, error) {
	m.mu.RLock()
	b, ok := m.blobs[blobID]
	m.mu.RUnlock()

	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "fetch", "blob not found")
	}

	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (m *MemoryStore) Delete(ctx context.Context, blobID string) error {
	m.mu.Lock()
	delete(m.blobs, blobID)
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) ListBlobs(ctx context.Context, fn func(service.BlobInfo) error) error {
	m.mu.RLock()
	infos := make([]service.BlobInfo, 0, len(m.blobs))
	for id, b := range m.blobs {
		infos = append(infos, service.BlobInfo{ID: id, ModTime: b.modTime})
	}
	m.mu.RUnlock()

	for _, info := range infos {
		if err := fn(info); err != nil {
			return err
		}
	}

	return nil
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.blobs)
}

// Touch overrides the modification time of a blob.
func (m *MemoryStore) Touch(blobID string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.blobs[blobID]; ok {
		b.modTime = t
		m.blobs[blobID] = b
	}
}
