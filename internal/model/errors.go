package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrTimedOut is returned when an audit run exceeds its maximum wait.
	ErrTimedOut = errors.New("timed out")
	// ErrClosed is returned when an operation is requested on a disposed component.
	ErrClosed = errors.New("closed")
)
