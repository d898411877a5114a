// Package media stores recipe images on local disk or in S3-compatible
// object storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("media: object not found")

// ErrUnsupportedType is returned by Validate for anything that is not an image
// format browsers render.
var ErrUnsupportedType = errors.New("media: unsupported content type")

// ErrTooLarge is returned by Validate when an upload exceeds the size limit.
var ErrTooLarge = errors.New("media: upload too large")

// Storage is an object store addressed by opaque keys.
type Storage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload is a validated image held in memory.
type Upload struct {
	Data        []byte
	ContentType string
}

// Validate reads at most maxBytes from r and sniffs the content type.
func Validate(r io.Reader, maxBytes int64) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	ct := http.DetectContentType(data)
	if _, ok := extensions[ct]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return &Upload{Data: data, ContentType: ct}, nil
}

// NewKey returns a fresh storage key under prefix for the content type.
func NewKey(prefix, contentType string) string {
	return path.Join(prefix, uuid.NewString()+extensions[contentType])
}

// PutUpload stores a validated upload under key.
func PutUpload(ctx context.Context, s Storage, key string, u *Upload) error {
	return s.Put(ctx, key, u.ContentType, bytes.NewReader(u.Data), int64(len(u.Data)))
}
