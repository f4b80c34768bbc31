package library

import "errors"

var (
	// ErrNotFound is returned when a path has no cache row.
	ErrNotFound = errors.New("library: not found")
	// ErrUnsupportedFormat is returned by a TagWriter for files it cannot edit.
	ErrUnsupportedFormat = errors.New("library: unsupported format")
)
