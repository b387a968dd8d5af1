package models

import "errors"

// Store errors
var (
	ErrResourceNotFound     = errors.New("resource not found")
	ErrResourceExists       = errors.New("resource already exists")
	ErrReadOnlySession      = errors.New("session is read only")
	ErrSessionClosed        = errors.New("session is closed")
	ErrStorageMisconfigured = errors.New("user storage location does not exist")
)

// Service errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrUserExists         = errors.New("user with this username or email already exists")
)
