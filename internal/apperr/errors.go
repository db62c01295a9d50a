package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidContent = errors.New("invalid content")
	ErrPathConflict   = errors.New("path conflict")
	ErrNotReady       = errors.New("index not built")
)
