package repo

import "errors"

var (
	// ErrNotFound is returned when a document does not exist in the store.
	ErrNotFound = errors.New("document not found")

	// ErrConnection is returned when the backing store cannot be reached.
	ErrConnection = errors.New("state store connection failed")
)
