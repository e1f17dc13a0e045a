package warsession

import "errors"

var (
	ErrOutOfRange           = errors.New("value out of range")
	ErrCapacityExceeded     = errors.New("roster capacity exceeded")
	ErrAlreadyPresent       = errors.New("participant already present")
	ErrNotFound             = errors.New("participant not found")
	ErrNotAParticipant      = errors.New("not a participant")
	ErrUninitializedSession = errors.New("war session is not initialized")
	ErrInvalidParticipant   = errors.New("invalid participant")
	ErrUnknownActionKind    = errors.New("unknown action kind")
	ErrOpponentRequired     = errors.New("opponent name is required")
)
