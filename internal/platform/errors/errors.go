package apperrors

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrLockTimeout  = errors.New("lock timeout")
	ErrCorrupted    = errors.New("corrupted record")
)
