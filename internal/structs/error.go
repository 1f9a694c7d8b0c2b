package structs

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNotOwner           = errors.New("actor does not own this job")
	ErrJobAlreadyTaken    = errors.New("job already taken")
	ErrNotFound           = errors.New("no rows in result set")
	ErrNotificationFailed = errors.New("notification delivery failed")
	ErrNoRowsAffected     = errors.New("no rows affected")
	ErrUniqueViolation    = errors.New("unique violation error")
	ErrUserBlocked        = errors.New("user blocked")
	ErrUnauthorized       = errors.New("unauthorized")
)
