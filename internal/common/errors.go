// Package common defines shared constants and sentinel errors used across
// the notes server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorUnauthorized = errors.New("unauthorized")

	// Credential errors.
	ErrEmailTaken       = errors.New("email already registered")
	ErrUnknownEmail     = errors.New("unknown email")
	ErrAccountNotFound  = errors.New("account not found")
	ErrPasswordRequired = errors.New("password required")
	ErrPasswordTooShort = errors.New("password too short")

	// Content errors.
	ErrSlugTaken = errors.New("slug already in use")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
