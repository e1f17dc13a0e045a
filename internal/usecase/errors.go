package usecase

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/warsession"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/warstats"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// classify tags a domain error with the usecase category adapters map to
// status codes. The domain sentinel stays reachable through errors.Is.
func classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrDependencyUnavailable):
		return err
	case errors.Is(err, warsession.ErrOutOfRange),
		errors.Is(err, warsession.ErrInvalidParticipant),
		errors.Is(err, warsession.ErrUnknownActionKind),
		errors.Is(err, warsession.ErrOpponentRequired),
		errors.Is(err, warstats.ErrInvalidWindow):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, warsession.ErrNotFound),
		errors.Is(err, warsession.ErrNotAParticipant),
		errors.Is(err, warstats.ErrNoData):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, warsession.ErrCapacityExceeded),
		errors.Is(err, warsession.ErrAlreadyPresent),
		errors.Is(err, warsession.ErrUninitializedSession),
		errors.Is(err, snapshot.ErrDuplicateSnapshot):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", ErrDependencyUnavailable, err)
	}
}

func errorsIsDependency(err error) bool {
	return errors.Is(err, ErrDependencyUnavailable)
}
