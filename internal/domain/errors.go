package domain

import "errors"

var (
	ErrProjectNotRegistered = errors.New("project not registered")
	ErrInvalidProjectKey    = errors.New("invalid project key")
)
