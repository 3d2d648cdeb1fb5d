// Package common defines the sentinel errors shared by repositories, services
// and handlers. Callers should match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")

	// Caller-correctable input errors.
	ErrInvalidInput = errors.New("invalid input")

	// Authentication errors. They are intentionally uninformative.
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidCurrentPassword = errors.New("invalid current password")
	ErrInvalidToken           = errors.New("invalid token")

	// Authorization errors.
	ErrUsernameExists = errors.New("username already exists")
	ErrForbidden      = errors.New("forbidden")

	// ErrNotFoundOrForbidden is returned for any access to a row that either
	// does not exist or is not owned by the caller. The two causes are never
	// distinguished.
	ErrNotFoundOrForbidden = errors.New("not found or forbidden")
)
