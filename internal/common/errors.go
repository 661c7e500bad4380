// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Startup errors.
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// Panel errors.
	ErrPanelRequest = errors.New("panel request failed")

	// Transfer errors.
	ErrTransfer = errors.New("file transfer failed")

	// Parsing errors.
	ErrParse = errors.New("parse failed")

	// Local filesystem errors.
	ErrWorkspace = errors.New("workspace error")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Stage returns the name of the sync stage an error originated from,
// or "unknown" when it does not wrap one of the stage sentinels.
func Stage(err error) string {
	switch {
	case errors.Is(err, ErrPanelRequest):
		return "panel"
	case errors.Is(err, ErrTransfer):
		return "transfer"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrWorkspace):
		return "workspace"
	case errors.Is(err, ErrInvalidArguments), errors.Is(err, ErrInvalidConfig):
		return "startup"
	default:
		return "unknown"
	}
}
