package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUpstream        = errors.New("upstream service error")
	ErrEmptyQueue      = errors.New("message queue is empty")
	ErrCompanyNotFound = errors.New("company not found in session")
	ErrNoSelection     = errors.New("no company selected")
	ErrLocked          = errors.New("user event dispatch is locked")
)
