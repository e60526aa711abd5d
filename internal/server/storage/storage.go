// Package storage keeps uploaded media (note images, page images, the site
// logo and avatars) in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// MaxUploadSize bounds a single uploaded file.
const MaxUploadSize = 5 << 20

// KeyPrefix starts every object key this package creates.
const KeyPrefix = "media/"

// SiteOwner is the owner segment of page images and the site logo.
const SiteOwner = "site"

var (
	ErrNotImage = errors.New("file is not an image")
	ErrTooLarge = errors.New("file is too large")
)

// Store is the media object store.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	// PresignGet returns a short-lived URL that serves the object.
	PresignGet(ctx context.Context, key string) (string, error)
}

// Upload is a file received from a form.
type Upload struct {
	Filename string
	Data     []byte
}

var formats = map[string]struct {
	ext         string
	contentType string
}{
	"png":  {".png", "image/png"},
	"jpeg": {".jpg", "image/jpeg"},
	"gif":  {".gif", "image/gif"},
	"webp": {".webp", "image/webp"},
}

// DetectImage decodes the header of data and returns the file extension and
// content type for it. Anything that is not png, jpeg, gif or webp is
// ErrNotImage.
func DetectImage(data []byte) (ext, contentType string, err error) {
	if len(data) > MaxUploadSize {
		return "", "", ErrTooLarge
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", "", ErrNotImage
	}
	f, ok := formats[format]
	if !ok {
		return "", "", ErrNotImage
	}
	return f.ext, f.contentType, nil
}

// NewKey returns a fresh object key under the owner's prefix.
func NewKey(owner, ext string) string {
	return fmt.Sprintf("%s%s/%s%s", KeyPrefix, owner, uuid.NewString(), ext)
}

// SaveImage validates u, stores it under a new key for owner and returns the
// key.
func SaveImage(ctx context.Context, st Store, owner string, u *Upload) (string, error) {
	ext, contentType, err := DetectImage(u.Data)
	if err != nil {
		return "", err
	}
	key := NewKey(owner, ext)
	if err := st.Put(ctx, key, contentType, u.Data); err != nil {
		return "", fmt.Errorf("error storing image: %w", err)
	}
	return key, nil
}
