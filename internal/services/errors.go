package services

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyRegistered = errors.New("email already registered")
	ErrInvalidInput      = errors.New("invalid input")
)
