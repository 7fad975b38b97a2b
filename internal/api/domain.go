package api

import "errors"

// Sentinel domain errors. Services and repositories wrap these with
// fmt.Errorf("...: %w", ...) and handlers translate them into status codes.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrValidation      = errors.New("invalid input")
)
