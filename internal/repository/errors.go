package repository

import "errors"

// Sentinel errors returned by the repositories.  Handlers and services use
// errors.Is against these to decide on status codes; anything else is a
// storage fault and maps to a generic server error.
var (
	ErrUserExists      = errors.New("username or email already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("refresh session not found")
	ErrCompanyNotFound = errors.New("company not found")
	ErrJobNotFound     = errors.New("job not found")
)
