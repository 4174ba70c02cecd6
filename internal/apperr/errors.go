// Package apperr defines the sentinel errors shared by every layer.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrCycle         = errors.New("folder cycle")

	// ErrConfirmationRequired is returned by destructive operations invoked
	// without an explicit confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrNoSelection          = errors.New("select a note")
)
