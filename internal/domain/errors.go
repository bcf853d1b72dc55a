package domain

import "errors"

// Sentinel errors shared across services and repositories. Controllers map
// these onto HTTP statuses; everything else is treated as an internal error.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyBooked = errors.New("already booked")
)
