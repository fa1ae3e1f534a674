package blob

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

var ErrObjectNotFound = errors.New("blob: object not found")

// Object is a fetched blob with its metadata.
type Object struct {
	Name        string
	ContentType string
	Content     []byte
	Size        int64
	Updated     time.Time
}

// Store is an opaque object store with signed-URL read access.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader, contentType string) error
	Get(ctx context.Context, name string) (*Object, error)
	SignedURL(name string, expiry time.Duration) (string, error)
}

// InferContentType fills in a generic content type from the file extension.
func InferContentType(name, contentType string) string {
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	}
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

// ObjectNameFromURL extracts the object name from a signed or public URL of
// bucket, ignoring query parameters.
func ObjectNameFromURL(rawURL, bucket string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	p := strings.TrimPrefix(u.Path, "/")
	if bucket != "" {
		p = strings.TrimPrefix(p, bucket+"/")
	}
	if p == "" {
		return "", errors.New("blob: url has no object path")
	}
	return p, nil
}
