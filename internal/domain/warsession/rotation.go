package warsession

import (
	"fmt"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
)

// RotationManager changes roles and roster order of a RosterSession.
type RotationManager struct {
	session *RosterSession
}

func NewRotationManager(session *RosterSession) *RotationManager {
	return &RotationManager{session: session}
}

// SwapRole toggles Primary and Reserve. The participant's actions are cleared
// because the offense slot depends on the role; stars are kept.
func (m *RotationManager) SwapRole(id participant.ID) (participant.Participant, error) {
	s := m.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return participant.Participant{}, ErrUninitializedSession
	}
	current, exists := s.participants[id]
	if !exists {
		return participant.Participant{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := current.Role.Toggle()
	if next == participant.RolePrimary && s.primaryCountLocked()+1 > MaxPrimary {
		return participant.Participant{}, fmt.Errorf("%w: max %d primary participants", ErrCapacityExceeded, MaxPrimary)
	}

	current.Role = next
	s.participants[id] = current
	s.ledger.ClearAllFor(id)

	return current, nil
}

// MoveToPosition reinserts the participant at newPosition and shifts the others.
func (m *RotationManager) MoveToPosition(id participant.ID, newPosition int) ([]participant.Participant, error) {
	s := m.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil, ErrUninitializedSession
	}
	current, exists := s.participants[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if newPosition < 1 || newPosition > len(s.order) {
		return nil, fmt.Errorf("%w: position must be between 1 and %d, got %d", ErrOutOfRange, len(s.order), newPosition)
	}

	s.order = moveID(s.order, current.Position-1, newPosition-1)
	s.reindexLocked()

	return s.participantsLocked(), nil
}

func moveID(order []participant.ID, from, to int) []participant.ID {
	if from == to {
		return order
	}

	id := order[from]
	out := make([]participant.ID, 0, len(order))
	out = append(out, order[:from]...)
	out = append(out, order[from+1:]...)

	out = append(out, "")
	copy(out[to+1:], out[to:])
	out[to] = id

	return out
}
