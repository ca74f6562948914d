package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches the lookup or the conditional update.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key (email, order id) is already taken.
	ErrDuplicate = errors.New("duplicate")
)
