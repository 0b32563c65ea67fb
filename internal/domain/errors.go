package domain

import "errors"

// Sentinel errors checked across package boundaries.
var (
	// ErrEmptyQuery rejects a search request with a blank target.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrNotFound is returned by repositories for missing records.
	ErrNotFound = errors.New("record not found")
)
