package services

import "errors"

// Sentinel errors returned by the services and mapped to HTTP statuses in
// the handlers. Anything else that comes back is treated as a server error
// and never leaks internal detail to the client.
var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrValidation         = errors.New("missing required fields")
)
