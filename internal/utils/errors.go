package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrRingNotFound       = errors.New("RING_NOT_FOUND")
	ErrSlugExists         = errors.New("SLUG_EXISTS")
	ErrInvalidRing        = errors.New("INVALID_RING")
	ErrInvalidImage       = errors.New("INVALID_IMAGE")
	ErrImageTooLarge      = errors.New("IMAGE_TOO_LARGE")
	ErrInvalidImageURL    = errors.New("INVALID_IMAGE_URL")
	ErrImportRunning      = errors.New("IMPORT_RUNNING")
	ErrTooManyAttempts    = errors.New("TOO_MANY_ATTEMPTS")

	// ErrStorageUnconfigured is returned by image and import operations when
	// the server started without object store credentials.
	ErrStorageUnconfigured = errors.New("STORAGE_UNCONFIGURED")
)
