// Package core defines the object storage contract the table files are kept
// behind.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Driver names a storage backend.
type Driver string

const (
	// DriverFilesystem keeps each key as a file under the data directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 keeps each key as an object in an S3 or MinIO bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps objects in process memory.
	DriverMemory Driver = "memory"
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
}

// Info describes a stored object.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store holds whole objects by key. Put replaces any existing object and
// readers never observe a partially written one.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	Driver() Driver
}

// Appender is implemented by backends able to extend an existing object in
// place. Callers fall back to Put with the full content otherwise.
type Appender interface {
	Append(ctx context.Context, key string, r io.Reader) (Info, error)
}

// ErrNotFound is returned (wrapped) when a key does not exist.
var ErrNotFound = errors.New("blobstore: not found")

// NotFound wraps ErrNotFound with the missing key.
func NotFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}
