package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrInvalidKey is returned for empty keys or keys escaping the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// Object describes an uploaded profile picture.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service stores profile pictures in remote or local object storage.
type Service interface {
	Put(ctx context.Context, obj Object) error
	Delete(ctx context.Context, key string) error
	// URL returns a location clients can fetch the object from.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}
