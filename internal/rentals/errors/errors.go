package errors

import "errors"

var (
	ErrNotFound = errors.New("rental not found")

	ErrAlreadyCompleted = errors.New("rental already completed")

	ErrDuplicateBookingNumber = errors.New("booking number already exists")
)
