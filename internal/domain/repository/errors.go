package repository

import "errors"

var (
	// ErrStaleBill is returned when a conditional bill update finds the row already changed
	ErrStaleBill = errors.New("bill was modified by another writer")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("duplicate key")
)
