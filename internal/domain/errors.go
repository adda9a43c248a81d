package domain

import "errors"

var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrPersistence = errors.New("persistence error")
	ErrUnknown     = errors.New("unexpected error")
	ErrBatchFailed = errors.New("batch failed")
)
