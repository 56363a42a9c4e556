package blob

import (
	"context"
	"fmt"

	"sspdb/internal/infra/blob/fs"
	"sspdb/internal/infra/blob/memory"
	"sspdb/internal/infra/blob/s3"
)

// S3Config configures the s3 driver.
type S3Config = s3.Config

// Options selects and configures a backend.
type Options struct {
	Driver Driver
	// Root is the data directory for the fs driver.
	Root string
	S3   S3Config
}

// Open returns the backend named by opts.Driver. An empty driver means fs.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverFilesystem, "":
		return NewFilesystem(opts.Root)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", opts.Driver)
	}
}

// NewFilesystem keeps objects as files under root, creating it if needed.
func NewFilesystem(root string) (Store, error) { return fs.New(root) }

// NewMemory keeps objects in process memory.
func NewMemory() Store { return memory.New() }

// NewS3 keeps objects in an S3 or MinIO bucket.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return s3.New(ctx, cfg) }

// NewMockS3ForTests returns the s3 driver wired to an in-process fake
// endpoint.
func NewMockS3ForTests() Store { return s3.NewMockForTests() }
