package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"regexp"
	"strings"
	"time"

	"ai-dataviz-be/internal/dto"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/pkg/logger"
	"ai-dataviz-be/pkg/blob"

	"github.com/google/uuid"
)

const (
	maxDatasetSize = 50 * 1024 * 1024
	datasetPrefix  = "datasets/"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type IDatasetService interface {
	Upload(ctx context.Context, userId uuid.UUID, file *multipart.FileHeader) (*dto.UploadDatasetResponse, error)
	Fetch(ctx context.Context, url string) (*dto.FetchDatasetResponse, error)
	// ResolveURL re-signs URLs of datasets stored in our bucket so the
	// generation service never receives an expired link.
	ResolveURL(url string) string
}

type datasetService struct {
	store  blob.Store
	bucket string
	expiry time.Duration
	logger logger.ILogger
}

func NewDatasetService(store blob.Store, bucket string, expiry time.Duration, log logger.ILogger) IDatasetService {
	return &datasetService{
		store:  store,
		bucket: bucket,
		expiry: expiry,
		logger: log,
	}
}

func (s *datasetService) Upload(ctx context.Context, userId uuid.UUID, file *multipart.FileHeader) (*dto.UploadDatasetResponse, error) {
	if file == nil {
		return nil, apperror.Validation("No file uploaded")
	}
	if file.Size > maxDatasetSize {
		return nil, apperror.Validation("File too large (max 50MB)")
	}

	name := sanitizeFileName(file.Filename)
	ext := strings.ToLower(path.Ext(name))
	if ext != ".csv" && ext != ".json" {
		return nil, apperror.Validation("Only .csv and .json datasets are supported")
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	objectName := fmt.Sprintf("%s%s-%s", datasetPrefix, uuid.New().String(), name)
	contentType := blob.InferContentType(name, file.Header.Get("Content-Type"))

	if err := s.store.Put(ctx, objectName, src, contentType); err != nil {
		return nil, fmt.Errorf("store dataset: %w", err)
	}

	url, err := s.store.SignedURL(objectName, s.expiry)
	if err != nil {
		return nil, err
	}

	s.logger.Info("DATASET", "Dataset uploaded", map[string]interface{}{
		"user_id": userId.String(),
		"object":  objectName,
		"size":    file.Size,
	})

	return &dto.UploadDatasetResponse{Url: url, ObjectName: objectName}, nil
}

func (s *datasetService) Fetch(ctx context.Context, url string) (*dto.FetchDatasetResponse, error) {
	name, err := blob.ObjectNameFromURL(url, s.bucket)
	if err != nil {
		return nil, apperror.Validation("Invalid dataset URL")
	}

	obj, err := s.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return nil, apperror.NotFound("Dataset")
		}
		return nil, err
	}

	return &dto.FetchDatasetResponse{
		Content:     string(obj.Content),
		ContentType: obj.ContentType,
		FileName:    path.Base(obj.Name),
		Size:        obj.Size,
		Updated:     obj.Updated,
	}, nil
}

func (s *datasetService) ResolveURL(url string) string {
	name, err := blob.ObjectNameFromURL(url, s.bucket)
	if err != nil || !strings.HasPrefix(name, datasetPrefix) || !strings.Contains(url, s.bucket) {
		return url
	}
	signed, err := s.store.SignedURL(name, s.expiry)
	if err != nil {
		s.logger.Warn("DATASET", "Failed to re-sign dataset url", map[string]interface{}{"object": name, "error": err.Error()})
		return url
	}
	return signed
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFileChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "_" {
		return "dataset"
	}
	return name
}
