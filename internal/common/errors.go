// Package common defines shared constants and sentinel errors used across
// the client and server layers of Narratlas. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound  = errors.New("not found")
	ErrMissingID = errors.New("entry has no id")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors detected before any network or storage call.
	ErrMissingTitle       = errors.New("title is required")
	ErrMissingDescription = errors.New("description is required")
	ErrMissingPhoto       = errors.New("photo is required")
	ErrPhotoTooLarge      = errors.New("photo exceeds the size limit")
	ErrPartialCoordinates = errors.New("lat and lon must be set together")

	// ErrRejected marks a request the server understood and refused.
	ErrRejected = errors.New("rejected by server")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrEmailTaken is returned on registration with an already known email.
	ErrEmailTaken = errors.New("email already registered")
)
