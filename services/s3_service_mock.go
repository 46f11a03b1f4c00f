package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockObjectStorage is an in-memory ObjectStorage for testing
type MockObjectStorage struct {
	objects      map[string][]byte
	contentTypes map[string]string
	mu           sync.RWMutex

	// PutErr, when set, fails every upload
	PutErr error
}

// NewMockObjectStorage creates an empty mock storage
func NewMockObjectStorage() *MockObjectStorage {
	return &MockObjectStorage{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// SetAsMockForTesting sets this mock as the global object storage for testing
func (m *MockObjectStorage) SetAsMockForTesting() {
	SetObjectStorage(m)
}

// PutObject stores body in memory
func (m *MockObjectStorage) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	m.objects[key] = append([]byte(nil), body...)
	m.contentTypes[key] = contentType
	m.mu.Unlock()
	return nil
}

// PresignGet returns a fake URL for stored objects
func (m *MockObjectStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.objects[key]
	m.mu.RUnlock()
	if !exists {
		return "", fmt.Errorf("file not found in mock S3: %s", key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// DeleteObject removes key from memory
func (m *MockObjectStorage) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	delete(m.contentTypes, key)
	m.mu.Unlock()
	return nil
}

// FileExists reports whether key is stored
func (m *MockObjectStorage) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.objects[key]
	return exists
}

// ContentType returns the content type key was stored with
func (m *MockObjectStorage) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[key]
}

// Keys returns every stored key
func (m *MockObjectStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
