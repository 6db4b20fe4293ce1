package service

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrDataIntegrity          = errors.New("data integrity violation")
)
