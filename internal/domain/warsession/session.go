package warsession

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
)

const (
	MaxParticipants = 26
	MaxPrimary      = 20
	MinStars        = 0
	MaxStars        = 6
)

// RosterSession is the authoritative state of the current war day.
//
// Structural operations (initialize, add, remove, rotation, reset, freeze) hold
// the write lock for their whole duration. Action and star submissions hold the
// read lock, so they never interleave with a structural change, and take entryMu
// only around the map write so submissions for different participants do not
// wait on each other's validation.
type RosterSession struct {
	mu      sync.RWMutex
	entryMu sync.Mutex

	active         bool
	participants   map[participant.ID]participant.Participant
	order          []participant.ID
	ledger         *ActionLedger
	stars          map[participant.ID]int
	boardReference string
	seasonStart    time.Time
}

func NewRosterSession() *RosterSession {
	return &RosterSession{
		participants: make(map[participant.ID]participant.Participant),
		ledger:       NewActionLedger(),
		stars:        make(map[participant.ID]int),
	}
}

// Initialize replaces the roster. The first MaxPrimary members become Primary.
func (s *RosterSession) Initialize(members []participant.Participant, boardReference string) error {
	if len(members) > MaxParticipants {
		return fmt.Errorf("%w: max %d participants, got %d", ErrCapacityExceeded, MaxParticipants, len(members))
	}

	seen := make(map[participant.ID]struct{}, len(members))
	for _, member := range members {
		if err := member.ValidateIdentity(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParticipant, err)
		}
		if _, exists := seen[member.ID]; exists {
			return fmt.Errorf("%w: %s", ErrAlreadyPresent, member.ID)
		}
		seen[member.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.participants = make(map[participant.ID]participant.Participant, len(members))
	s.order = make([]participant.ID, 0, len(members))
	for i, member := range members {
		role := participant.RolePrimary
		if i >= MaxPrimary {
			role = participant.RoleReserve
		}
		s.participants[member.ID] = participant.Participant{
			ID:          member.ID,
			DisplayName: strings.TrimSpace(member.DisplayName),
			Mention:     strings.TrimSpace(member.Mention),
			Role:        role,
			Position:    i + 1,
		}
		s.order = append(s.order, member.ID)
	}
	s.clearEntries()
	s.boardReference = strings.TrimSpace(boardReference)
	s.active = true

	return nil
}

// Destroy returns the session to its uninitialized state.
func (s *RosterSession) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.destroyLocked()
}

func (s *RosterSession) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active
}

// Add appends a participant as Reserve at the next position.
func (s *RosterSession) Add(member participant.Participant) (participant.Participant, error) {
	if err := member.ValidateIdentity(); err != nil {
		return participant.Participant{}, fmt.Errorf("%w: %v", ErrInvalidParticipant, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return participant.Participant{}, ErrUninitializedSession
	}
	if _, exists := s.participants[member.ID]; exists {
		return participant.Participant{}, fmt.Errorf("%w: %s", ErrAlreadyPresent, member.ID)
	}
	if len(s.order)+1 > MaxParticipants {
		return participant.Participant{}, fmt.Errorf("%w: max %d participants", ErrCapacityExceeded, MaxParticipants)
	}

	added := participant.Participant{
		ID:          member.ID,
		DisplayName: strings.TrimSpace(member.DisplayName),
		Mention:     strings.TrimSpace(member.Mention),
		Role:        participant.RoleReserve,
		Position:    len(s.order) + 1,
	}
	s.participants[added.ID] = added
	s.order = append(s.order, added.ID)

	return added, nil
}

// Remove deletes the participant with its actions and stars and compacts positions.
func (s *RosterSession) Remove(id participant.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return ErrUninitializedSession
	}
	current, exists := s.participants[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	idx := current.Position - 1
	s.order = append(s.order[:idx], s.order[idx+1:]...)
	delete(s.participants, id)
	s.ledger.ClearAllFor(id)
	delete(s.stars, id)
	s.reindexLocked()

	return nil
}

func (s *RosterSession) SubmitAction(id participant.ID, kind ActionKind, value int) error {
	if err := validateAction(kind, value); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireParticipantLocked(id); err != nil {
		return err
	}

	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	return s.ledger.Set(id, kind, value)
}

// ClearActions removes the given kinds for one participant, or every kind when none are given.
func (s *RosterSession) ClearActions(id participant.ID, kinds ...ActionKind) error {
	for _, kind := range kinds {
		if !kind.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownActionKind, kind)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireParticipantLocked(id); err != nil {
		return err
	}

	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	if len(kinds) == 0 {
		s.ledger.ClearAllFor(id)
		return nil
	}
	for _, kind := range kinds {
		s.ledger.Clear(id, kind)
	}
	return nil
}

func (s *RosterSession) AwardStars(id participant.ID, count int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireParticipantLocked(id); err != nil {
		return err
	}
	if count < MinStars || count > MaxStars {
		return fmt.Errorf("%w: stars must be between %d and %d, got %d", ErrOutOfRange, MinStars, MaxStars, count)
	}

	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	if count == 0 {
		delete(s.stars, id)
		return nil
	}
	s.stars[id] = count
	return nil
}

// ResetActions clears every action and star. With keepRoster=false the roster and
// board reference are dropped too and the session becomes uninitialized.
func (s *RosterSession) ResetActions(keepRoster bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return ErrUninitializedSession
	}
	if !keepRoster {
		s.destroyLocked()
		return nil
	}
	s.clearEntries()
	return nil
}

// Freeze captures the day into a snapshot and clears actions and stars.
func (s *RosterSession) Freeze(date time.Time, opponentName string) (snapshot.DailySnapshot, error) {
	return s.FreezeWith(date, opponentName, nil)
}

// FreezeWith captures the day and calls commit before clearing. If commit fails the
// session is left untouched, so a failed save never loses the day's entries.
func (s *RosterSession) FreezeWith(date time.Time, opponentName string, commit func(snapshot.DailySnapshot) error) (snapshot.DailySnapshot, error) {
	opponentName = strings.TrimSpace(opponentName)
	if opponentName == "" {
		return snapshot.DailySnapshot{}, ErrOpponentRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return snapshot.DailySnapshot{}, ErrUninitializedSession
	}

	captured := snapshot.DailySnapshot{
		Date:         snapshot.FormatDate(date),
		OpponentName: opponentName,
		Participants: make([]snapshot.ParticipantSummary, 0, len(s.order)),
	}
	for _, id := range s.order {
		p := s.participants[id]
		captured.Participants = append(captured.Participants, snapshot.ParticipantSummary{
			ID:      p.ID,
			Name:    p.DisplayName,
			Mention: p.Mention,
			Role:    p.Role,
			Stars:   s.stars[id],
			Defense: s.ledger.valuePtr(id, ActionDefense),
			Probe:   s.ledger.valuePtr(id, ActionProbe),
			Offense: s.ledger.valuePtr(id, ActionOffense),
		})
	}

	if commit != nil {
		if err := commit(captured.Clone()); err != nil {
			return snapshot.DailySnapshot{}, err
		}
	}

	s.clearEntries()
	return captured, nil
}

func (s *RosterSession) SetBoardReference(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return ErrUninitializedSession
	}
	s.boardReference = strings.TrimSpace(ref)
	return nil
}

func (s *RosterSession) BoardReference() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.boardReference
}

func (s *RosterSession) SetSeasonStart(start time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seasonStart = start
}

func (s *RosterSession) SeasonStart() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.seasonStart
}

func (s *RosterSession) Participant(id participant.ID) (participant.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[id]
	return p, ok
}

// Participants returns the roster ordered by position.
func (s *RosterSession) Participants() []participant.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.participantsLocked()
}

func (s *RosterSession) MissingKinds(id participant.ID) ([]ActionKind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireParticipantLocked(id); err != nil {
		return nil, err
	}

	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	return s.ledger.MissingKinds(id), nil
}

func (s *RosterSession) Stars(id participant.ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	return s.stars[id]
}

func (s *RosterSession) Action(id participant.ID, kind ActionKind) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	return s.ledger.Get(id, kind)
}

func (s *RosterSession) requireParticipantLocked(id participant.ID) error {
	if !s.active {
		return ErrUninitializedSession
	}
	if _, exists := s.participants[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotAParticipant, id)
	}
	return nil
}

func (s *RosterSession) participantsLocked() []participant.Participant {
	out := make([]participant.Participant, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.participants[id])
	}
	return out
}

func (s *RosterSession) primaryCountLocked() int {
	count := 0
	for _, p := range s.participants {
		if p.Role == participant.RolePrimary {
			count++
		}
	}
	return count
}

func (s *RosterSession) reindexLocked() {
	for i, id := range s.order {
		p := s.participants[id]
		p.Position = i + 1
		s.participants[id] = p
	}
}

// clearEntries is called with the write lock held, which already excludes submitters.
func (s *RosterSession) clearEntries() {
	s.ledger.Reset()
	s.stars = make(map[participant.ID]int)
}

func (s *RosterSession) destroyLocked() {
	s.active = false
	s.participants = make(map[participant.ID]participant.Participant)
	s.order = nil
	s.clearEntries()
	s.boardReference = ""
	s.seasonStart = time.Time{}
}
