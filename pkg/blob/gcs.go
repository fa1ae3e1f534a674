package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client     *storage.Client
	ProjectId  string
	BucketName string
}

func NewGCSStore(ctx context.Context, projectId, bucketName, saKeyPath string) (*GCSStore, error) {
	var opts []option.ClientOption
	if saKeyPath != "" {
		if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", saKeyPath)
		}
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCSStore{
		client:     client,
		ProjectId:  projectId,
		BucketName: bucketName,
	}, nil
}

func (s *GCSStore) Put(ctx context.Context, name string, r io.Reader, contentType string) error {
	writer := s.client.Bucket(s.BucketName).Object(name).NewWriter(ctx)
	writer.ContentType = contentType
	// Single-shot upload.
	writer.ChunkSize = 0

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to copy to GCS object %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", name, err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, name string) (*Object, error) {
	obj := s.client.Bucket(s.BucketName).Object(name)

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read GCS attrs for %s: %w", name, err)
	}

	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %s: %w", name, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %s: %w", name, err)
	}

	return &Object{
		Name:        name,
		ContentType: InferContentType(name, attrs.ContentType),
		Content:     content,
		Size:        attrs.Size,
		Updated:     attrs.Updated,
	}, nil
}

// SignedURL issues a V4 GET URL. Signing credentials come from the client.
func (s *GCSStore) SignedURL(name string, expiry time.Duration) (string, error) {
	u, err := s.client.Bucket(s.BucketName).SignedURL(name, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", name, err)
	}
	return u, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
