package domain

import "errors"

var (
	// ErrNotFound is returned when a session or user does not exist for the caller
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write lost a race or an id is already taken
	ErrConflict = errors.New("conflict")

	// ErrSessionBusy is returned when the per-session lock could not be acquired in time
	ErrSessionBusy = errors.New("session is busy")

	// ErrEmailTaken is returned on registration with an existing email
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for a malformed, expired or wrong-kind token
	ErrInvalidToken = errors.New("invalid token")

	// ErrBlankContent is returned when a title or message is empty after trimming
	ErrBlankContent = errors.New("content must not be blank")

	// ErrNoUserMessage is returned when a title is requested for a session without user turns
	ErrNoUserMessage = errors.New("session has no user message")
)
