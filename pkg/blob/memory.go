package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

// MemoryStore keeps objects in process. Used when no bucket is configured
// and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]*Object
}

func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		objects: make(map[string]*Object),
	}
}

func (s *MemoryStore) Put(_ context.Context, name string, r io.Reader, contentType string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = &Object{
		Name:        name,
		ContentType: contentType,
		Content:     content,
		Size:        int64(len(content)),
		Updated:     time.Now(),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, ErrObjectNotFound
	}
	cp := *obj
	cp.ContentType = InferContentType(name, obj.ContentType)
	return &cp, nil
}

func (s *MemoryStore) SignedURL(name string, expiry time.Duration) (string, error) {
	expires := time.Now().Add(expiry).Unix()
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s?X-Goog-Expires=%d", s.bucket, url.PathEscape(name), expires), nil
}

// Names lists stored object names.
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.objects))
	for n := range s.objects {
		names = append(names, n)
	}
	return names
}
