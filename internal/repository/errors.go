package repository

import "errors"

var (
	// ErrNotFound is returned when a requested row doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrBusy is returned when the database stayed locked through every retry
	ErrBusy = errors.New("database busy")

	// ErrInvalidInput is returned when a row cannot be written as given
	ErrInvalidInput = errors.New("invalid input")
)
