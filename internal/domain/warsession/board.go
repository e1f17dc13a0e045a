package warsession

import (
	"time"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
)

// CelebrationStarThreshold is the star count that earns a shout-out.
const CelebrationStarThreshold = 3

// BoardEntry is one roster row as an adapter would display it.
type BoardEntry struct {
	Participant participant.Participant
	Defense     *int
	Probe       *int
	Offense     *int
	Stars       int
	Missing     []ActionKind
}

// Board is a read-only copy of the session state taken under lock.
type Board struct {
	Active         bool
	BoardReference string
	SeasonStart    time.Time
	Entries        []BoardEntry
	PrimaryCount   int
	ReserveCount   int
	Capacity       int
}

// IncompleteReport groups participants by the actions they still owe.
type IncompleteReport struct {
	Missing  map[ActionKind][]participant.Participant
	Complete []participant.Participant
}

// Celebration lists the day's top performers and everyone who took part.
type Celebration struct {
	Champions []participant.Participant
	Everyone  []participant.Participant
}

func (s *RosterSession) Board() Board {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	board := Board{
		Active:         s.active,
		BoardReference: s.boardReference,
		SeasonStart:    s.seasonStart,
		Entries:        make([]BoardEntry, 0, len(s.order)),
		Capacity:       MaxParticipants,
	}
	for _, p := range s.participantsLocked() {
		if p.Role == participant.RolePrimary {
			board.PrimaryCount++
		} else {
			board.ReserveCount++
		}
		board.Entries = append(board.Entries, BoardEntry{
			Participant: p,
			Defense:     s.ledger.valuePtr(p.ID, ActionDefense),
			Probe:       s.ledger.valuePtr(p.ID, ActionProbe),
			Offense:     s.ledger.valuePtr(p.ID, ActionOffense),
			Stars:       s.stars[p.ID],
			Missing:     s.ledger.MissingKinds(p.ID),
		})
	}

	return board
}

func (s *RosterSession) Incomplete() (IncompleteReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return IncompleteReport{}, ErrUninitializedSession
	}

	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	report := IncompleteReport{
		Missing: make(map[ActionKind][]participant.Participant, len(ActionKinds)),
	}
	for _, p := range s.participantsLocked() {
		missing := s.ledger.MissingKinds(p.ID)
		if len(missing) == 0 {
			report.Complete = append(report.Complete, p)
			continue
		}
		for _, kind := range missing {
			report.Missing[kind] = append(report.Missing[kind], p)
		}
	}

	return report, nil
}

func (s *RosterSession) Celebration() (Celebration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return Celebration{}, ErrUninitializedSession
	}

	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	out := Celebration{}
	for _, p := range s.participantsLocked() {
		if s.stars[p.ID] >= CelebrationStarThreshold {
			out.Champions = append(out.Champions, p)
		}
		out.Everyone = append(out.Everyone, p)
	}

	return out, nil
}
