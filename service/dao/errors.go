package dao

import "errors"

var (
	// ErrNotFound is returned by Load and by updates of a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidID is returned when a record has an empty key.
	ErrInvalidID = errors.New("record key is empty")
	// ErrNilEntity is returned when a nil record is saved.
	ErrNilEntity = errors.New("record is nil")
)
