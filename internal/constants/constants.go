// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Upload constants
const (
	// MaxUploadSize is the maximum multipart request size in bytes (20MB)
	MaxUploadSize = 20 << 20

	// MaxMemoryUpload is how much of a multipart form is kept in memory
	MaxMemoryUpload = 8 << 20
)

// Server constants
const (
	// RequestTimeout bounds a single API request, including a full catalog scan
	RequestTimeout = 2 * time.Minute

	// ShutdownTimeout is how long the server waits for in-flight requests
	ShutdownTimeout = 10 * time.Second
)

// Import constants
const (
	// DefaultImportWorkers is the default number of images fingerprinted in parallel
	DefaultImportWorkers = 4
)

// ImageExtensions lists the file extensions picked up by directory import.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}
