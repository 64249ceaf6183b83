package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateEmail indicates a unique-email violation on insert.
	ErrDuplicateEmail = errors.New("repository: email already registered")
)
