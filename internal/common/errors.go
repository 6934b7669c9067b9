// Package common holds the sentinel errors shared by the storage backends
// and the services built on them. Callers match them with errors.Is.
package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrConflict is returned when an optimistic update kept losing to
	// concurrent writers and gave up.
	ErrConflict = errors.New("concurrent update conflict")

	// service specific errors
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorInvalidInput = errors.New("invalid input")
)
