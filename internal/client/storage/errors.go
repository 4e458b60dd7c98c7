package storage

import "errors"

// Common errors for backend construction.
var (
	ErrInvalidConfig = errors.New("invalid storage configuration")
	ErrInvalidDriver = errors.New("invalid storage driver")
)

// ErrCorruptFile is returned by FileBackend reads when the file is not valid
// JSON.
var ErrCorruptFile = errors.New("storage file is corrupt")
