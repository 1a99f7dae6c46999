// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrNotFound indicates that a referenced row does not exist,
// while ErrEmailExists and ErrStoreExists signal unique-key violations
// that handlers translate into conflict responses.
package repository

import "errors"

// ErrNotFound is returned when a referenced user or store does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user insert collides with the
// unique email index. Handlers should translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrStoreExists is returned when a store insert collides with the
// unique name index. Handlers should translate this into HTTP 409.
var ErrStoreExists = errors.New("store already exists")

// ErrInvalidRating is returned when a rating value falls outside the
// accepted [1,5] range. Handlers should translate this into HTTP 400.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")
