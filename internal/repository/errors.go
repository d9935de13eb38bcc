package repository

import "errors"

// Sentinel errors shared by the data access layer. Services match on these
// with errors.Is and map them to API error codes.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("record already exists")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
)
