package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrDatasetUnavailable means no candidate file for a reference dataset could be loaded
	ErrDatasetUnavailable = goerr.New("dataset unavailable")

	// ErrUnknownField is returned when an update targets a field outside the record schema
	ErrUnknownField = goerr.New("unknown field")

	// ErrEntityNotFound is returned when a lookup or removal target does not exist
	ErrEntityNotFound = goerr.New("entity not found")

	// ErrPersistenceFailure wraps any failure to write a session record
	ErrPersistenceFailure = goerr.New("persistence failure")

	// ErrMalformedRecord marks a single reference record that could not be decoded
	ErrMalformedRecord = goerr.New("malformed reference record")

	ErrInvalidStatus = goerr.New("invalid status")
)
