package domain

import "errors"

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrSeatNotAvailable = errors.New("seat is not available")
	ErrAlreadyConfirmed = errors.New("reservation is already confirmed")
	ErrStorageFailure   = errors.New("storage write did not take effect")
)
