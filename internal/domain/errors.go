package domain

import "errors"

var (
	// ErrNotFound indicates the resource does not exist or is not owned by the caller
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request input
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates missing or invalid credentials
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUsernameExists indicates the username is already registered
	ErrUsernameExists = errors.New("username already exists")
	// ErrInvalidCredentials indicates a failed login attempt
	ErrInvalidCredentials = errors.New("invalid username or password")
)
