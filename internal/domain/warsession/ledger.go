package warsession

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
)

// ActionKind is one of the three daily war actions.
type ActionKind string

const (
	ActionDefense ActionKind = "defense"
	ActionProbe   ActionKind = "probe"
	ActionOffense ActionKind = "offense"
)

// ActionKinds lists every kind in board order.
var ActionKinds = []ActionKind{ActionDefense, ActionProbe, ActionOffense}

const (
	MinActionValue = 1
	MaxActionValue = 20
)

func ParseActionKind(raw string) (ActionKind, error) {
	kind := ActionKind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownActionKind, raw)
	}
	return kind, nil
}

func (k ActionKind) Valid() bool {
	switch k {
	case ActionDefense, ActionProbe, ActionOffense:
		return true
	default:
		return false
	}
}

// ActionLedger stores at most one value per (participant, kind) for the current day.
// Repeated submissions overwrite the previous value; no history is kept.
// It is not safe for concurrent use; RosterSession serializes access.
type ActionLedger struct {
	entries map[ActionKind]map[participant.ID]int
}

func NewActionLedger() *ActionLedger {
	l := &ActionLedger{}
	l.Reset()
	return l
}

func (l *ActionLedger) Set(id participant.ID, kind ActionKind, value int) error {
	if err := validateAction(kind, value); err != nil {
		return err
	}

	l.entries[kind][id] = value
	return nil
}

func (l *ActionLedger) Get(id participant.ID, kind ActionKind) (int, bool) {
	values, ok := l.entries[kind]
	if !ok {
		return 0, false
	}
	v, ok := values[id]
	return v, ok
}

func (l *ActionLedger) Clear(id participant.ID, kind ActionKind) {
	if values, ok := l.entries[kind]; ok {
		delete(values, id)
	}
}

func (l *ActionLedger) ClearAllFor(id participant.ID) {
	for _, kind := range ActionKinds {
		l.Clear(id, kind)
	}
}

// MissingKinds returns the kinds without an entry, in board order.
func (l *ActionLedger) MissingKinds(id participant.ID) []ActionKind {
	out := make([]ActionKind, 0, len(ActionKinds))
	for _, kind := range ActionKinds {
		if _, ok := l.Get(id, kind); !ok {
			out = append(out, kind)
		}
	}
	return out
}

func (l *ActionLedger) Reset() {
	l.entries = make(map[ActionKind]map[participant.ID]int, len(ActionKinds))
	for _, kind := range ActionKinds {
		l.entries[kind] = make(map[participant.ID]int)
	}
}

func (l *ActionLedger) valuePtr(id participant.ID, kind ActionKind) *int {
	v, ok := l.Get(id, kind)
	if !ok {
		return nil
	}
	return &v
}

func validateAction(kind ActionKind, value int) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownActionKind, kind)
	}
	if value < MinActionValue || value > MaxActionValue {
		return fmt.Errorf("%w: %s value must be between %d and %d, got %d", ErrOutOfRange, kind, MinActionValue, MaxActionValue, value)
	}
	return nil
}
