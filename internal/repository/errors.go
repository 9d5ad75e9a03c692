package repository

import "errors"

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a unique constraint rejects an insert.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrLockNotAcquired is returned when another holder owns a URL lock.
	ErrLockNotAcquired = errors.New("lock held by another holder")
)
