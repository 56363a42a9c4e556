// Package blob is the entry point to the storage backends: it re-exports the
// contract from blob/core and opens a backend from Options.
package blob

import (
	"sspdb/internal/blob/core"
)

type (
	// Driver names a storage backend.
	Driver = core.Driver
	// PutOptions configures a write.
	PutOptions = core.PutOptions
	// Info describes a stored object.
	Info = core.Info
	// Store holds whole objects by key.
	Store = core.Store
	// Appender is the optional in-place append capability.
	Appender = core.Appender
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

// ErrNotFound indicates a missing key.
var ErrNotFound = core.ErrNotFound
