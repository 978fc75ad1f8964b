package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidQuality is returned when a quality rating falls outside [MinQuality, MaxQuality].
	ErrInvalidQuality = errors.New("quality must be between 0 and 5")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized is returned when a request carries no authenticated user.
	ErrUnauthorized = errors.New("unauthorized")
)
