package warsession

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
)

func members(n int) []participant.Participant {
	out := make([]participant.Participant, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, participant.Participant{
			ID:          participant.ID(fmt.Sprintf("p%02d", i)),
			DisplayName: fmt.Sprintf("Player %02d", i),
			Mention:     fmt.Sprintf("<@%d>", 1000+i),
		})
	}
	return out
}

func newActiveSession(t *testing.T, n int) *RosterSession {
	t.Helper()

	s := NewRosterSession()
	if err := s.Initialize(members(n), "board-1"); err != nil {
		t.Fatalf("initialize session: %v", err)
	}
	return s
}

func assertContiguous(t *testing.T, roster []participant.Participant) {
	t.Helper()

	for i, p := range roster {
		if p.Position != i+1 {
			t.Fatalf("position gap at index %d: participant %s has position %d", i, p.ID, p.Position)
		}
	}
}

func TestRosterSession_InitializeAssignsRoles(t *testing.T) {
	s := newActiveSession(t, 22)

	roster := s.Participants()
	if len(roster) != 22 {
		t.Fatalf("unexpected roster size: %d", len(roster))
	}
	assertContiguous(t, roster)
	for i, p := range roster {
		want := participant.RolePrimary
		if i >= 20 {
			want = participant.RoleReserve
		}
		if p.Role != want {
			t.Fatalf("participant %s at position %d: expected role %s, got %s", p.ID, p.Position, want, p.Role)
		}
	}

	for i := 23; i <= 26; i++ {
		if _, err := s.Add(participant.Participant{ID: participant.ID(fmt.Sprintf("extra-%d", i)), DisplayName: "Extra"}); err != nil {
			t.Fatalf("add participant %d: %v", i, err)
		}
	}
	_, err := s.Add(participant.Participant{ID: "p27", DisplayName: "One Too Many"})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded for 27th participant, got %v", err)
	}
}

func TestRosterSession_InitializeRejectsInvalidRoster(t *testing.T) {
	tests := []struct {
		name      string
		roster    []participant.Participant
		targetErr error
	}{
		{name: "too many", roster: members(27), targetErr: ErrCapacityExceeded},
		{name: "duplicate id", roster: append(members(2), participant.Participant{ID: "p01", DisplayName: "dup"}), targetErr: ErrAlreadyPresent},
		{name: "blank id", roster: []participant.Participant{{ID: " ", DisplayName: "x"}}, targetErr: ErrInvalidParticipant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRosterSession()
			if err := s.Initialize(tt.roster, ""); !errors.Is(err, tt.targetErr) {
				t.Fatalf("expected %v, got %v", tt.targetErr, err)
			}
			if s.IsActive() {
				t.Fatalf("session must stay uninitialized after a rejected initialize")
			}
		})
	}
}

func TestRosterSession_RequiresInitialization(t *testing.T) {
	s := NewRosterSession()

	if _, err := s.Add(participant.Participant{ID: "p1", DisplayName: "A"}); !errors.Is(err, ErrUninitializedSession) {
		t.Fatalf("add: expected ErrUninitializedSession, got %v", err)
	}
	if err := s.SubmitAction("p1", ActionDefense, 3); !errors.Is(err, ErrUninitializedSession) {
		t.Fatalf("submit: expected ErrUninitializedSession, got %v", err)
	}
	if _, err := s.Freeze(time.Now(), "Rivals"); !errors.Is(err, ErrUninitializedSession) {
		t.Fatalf("freeze: expected ErrUninitializedSession, got %v", err)
	}
	if err := s.ResetActions(true); !errors.Is(err, ErrUninitializedSession) {
		t.Fatalf("reset: expected ErrUninitializedSession, got %v", err)
	}
}

func TestRosterSession_AddAndRemove(t *testing.T) {
	s := newActiveSession(t, 3)

	added, err := s.Add(participant.Participant{ID: "p04", DisplayName: "Player 04"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.Role != participant.RoleReserve || added.Position != 4 {
		t.Fatalf("unexpected added participant: %+v", added)
	}
	if _, err := s.Add(participant.Participant{ID: "p04", DisplayName: "again"}); !errors.Is(err, ErrAlreadyPresent) {
		t.Fatalf("expected ErrAlreadyPresent, got %v", err)
	}

	if err := s.Remove("p02"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove("p02"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	roster := s.Participants()
	assertContiguous(t, roster)
	if len(roster) != 3 || roster[1].ID != "p03" || roster[2].ID != "p04" {
		t.Fatalf("unexpected roster after remove: %+v", roster)
	}
}

func TestRosterSession_RemoveCascadesEntries(t *testing.T) {
	s := newActiveSession(t, 3)

	if err := s.SubmitAction("p02", ActionOffense, 12); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.AwardStars("p02", 5); err != nil {
		t.Fatalf("award: %v", err)
	}
	if err := s.Remove("p02"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Add(participant.Participant{ID: "p02", DisplayName: "Player 02"}); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	missing, err := s.MissingKinds("p02")
	if err != nil {
		t.Fatalf("missing kinds: %v", err)
	}
	if len(missing) != 3 {
		t.Fatalf("expected no residual actions, missing=%v", missing)
	}
	if stars := s.Stars("p02"); stars != 0 {
		t.Fatalf("expected no residual stars, got %d", stars)
	}
}

func TestRosterSession_SubmitActionAndStars(t *testing.T) {
	s := newActiveSession(t, 2)

	if err := s.SubmitAction("ghost", ActionDefense, 5); !errors.Is(err, ErrNotAParticipant) {
		t.Fatalf("expected ErrNotAParticipant, got %v", err)
	}
	if err := s.SubmitAction("p01", ActionDefense, 25); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := s.AwardStars("ghost", 2); !errors.Is(err, ErrNotAParticipant) {
		t.Fatalf("expected ErrNotAParticipant, got %v", err)
	}
	if err := s.AwardStars("p01", 7); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := s.AwardStars("p01", 6); err != nil {
		t.Fatalf("award max stars: %v", err)
	}
	if err := s.SubmitAction("p01", ActionProbe, 9); err != nil {
		t.Fatalf("submit probe: %v", err)
	}

	missing, _ := s.MissingKinds("p01")
	if len(missing) != 2 || missing[0] != ActionDefense || missing[1] != ActionOffense {
		t.Fatalf("unexpected missing kinds: %v", missing)
	}
}

func TestRosterSession_ClearActions(t *testing.T) {
	s := newActiveSession(t, 1)
	for _, kind := range ActionKinds {
		if err := s.SubmitAction("p01", kind, 4); err != nil {
			t.Fatalf("submit %s: %v", kind, err)
		}
	}

	if err := s.ClearActions("p01", ActionOffense); err != nil {
		t.Fatalf("clear offense: %v", err)
	}
	if _, ok := s.Action("p01", ActionOffense); ok {
		t.Fatalf("offense should be cleared")
	}
	if _, ok := s.Action("p01", ActionDefense); !ok {
		t.Fatalf("defense should be kept")
	}

	if err := s.ClearActions("p01"); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if missing, _ := s.MissingKinds("p01"); len(missing) != 3 {
		t.Fatalf("expected all kinds missing, got %v", missing)
	}
}

func TestRosterSession_ResetActions(t *testing.T) {
	s := newActiveSession(t, 2)
	_ = s.SubmitAction("p01", ActionDefense, 2)
	_ = s.AwardStars("p02", 3)

	if err := s.ResetActions(true); err != nil {
		t.Fatalf("reset keep roster: %v", err)
	}
	if len(s.Participants()) != 2 || s.BoardReference() != "board-1" {
		t.Fatalf("roster or board reference changed by reset")
	}
	if _, ok := s.Action("p01", ActionDefense); ok {
		t.Fatalf("actions should be cleared")
	}
	if s.Stars("p02") != 0 {
		t.Fatalf("stars should be cleared")
	}

	if err := s.ResetActions(false); err != nil {
		t.Fatalf("reset drop roster: %v", err)
	}
	if s.IsActive() || len(s.Participants()) != 0 || s.BoardReference() != "" {
		t.Fatalf("expected uninitialized session after reset without roster")
	}
}

func TestRosterSession_FreezeCapturesAndClears(t *testing.T) {
	s := newActiveSession(t, 3)
	_ = s.SubmitAction("p01", ActionDefense, 1)
	_ = s.SubmitAction("p01", ActionOffense, 15)
	_ = s.AwardStars("p01", 6)
	_ = s.AwardStars("p03", 2)

	before := s.Participants()
	day := time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)

	snap, err := s.Freeze(day, "  Night Owls ")
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if snap.Date != "2026-03-02" || snap.OpponentName != "Night Owls" {
		t.Fatalf("unexpected snapshot header: %+v", snap)
	}
	if len(snap.Participants) != 3 {
		t.Fatalf("unexpected snapshot size: %d", len(snap.Participants))
	}
	first := snap.Participants[0]
	if first.ID != "p01" || first.Stars != 6 || first.Defense == nil || *first.Defense != 1 || first.Offense == nil || *first.Offense != 15 || first.Probe != nil {
		t.Fatalf("unexpected first summary: %+v", first)
	}
	if snap.Participants[1].Stars != 0 || snap.Participants[1].Defense != nil {
		t.Fatalf("participant without entries should be captured empty: %+v", snap.Participants[1])
	}

	after := s.Participants()
	if len(after) != len(before) {
		t.Fatalf("roster changed by freeze")
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("roster entry %d changed: before=%+v after=%+v", i, before[i], after[i])
		}
	}
	for _, p := range after {
		missing, _ := s.MissingKinds(p.ID)
		if len(missing) != 3 {
			t.Fatalf("participant %s still has actions after freeze", p.ID)
		}
		if s.Stars(p.ID) != 0 {
			t.Fatalf("participant %s still has stars after freeze", p.ID)
		}
	}
	if s.BoardReference() != "board-1" {
		t.Fatalf("board reference must survive freeze")
	}
}

func TestRosterSession_FreezeWithFailedCommitKeepsEntries(t *testing.T) {
	s := newActiveSession(t, 1)
	_ = s.SubmitAction("p01", ActionOffense, 8)
	_ = s.AwardStars("p01", 4)

	commitErr := errors.New("store down")
	_, err := s.FreezeWith(time.Now(), "Rivals", func(snapshot.DailySnapshot) error { return commitErr })
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if _, ok := s.Action("p01", ActionOffense); !ok || s.Stars("p01") != 4 {
		t.Fatalf("entries must survive a failed commit")
	}

	if _, err := s.Freeze(time.Now(), " "); !errors.Is(err, ErrOpponentRequired) {
		t.Fatalf("expected ErrOpponentRequired, got %v", err)
	}
}

func TestRosterSession_IncompleteAndCelebration(t *testing.T) {
	s := newActiveSession(t, 3)
	for _, kind := range ActionKinds {
		_ = s.SubmitAction("p01", kind, 5)
	}
	_ = s.SubmitAction("p02", ActionDefense, 5)
	_ = s.AwardStars("p01", 3)
	_ = s.AwardStars("p02", 2)

	report, err := s.Incomplete()
	if err != nil {
		t.Fatalf("incomplete: %v", err)
	}
	if len(report.Complete) != 1 || report.Complete[0].ID != "p01" {
		t.Fatalf("unexpected complete list: %+v", report.Complete)
	}
	if len(report.Missing[ActionDefense]) != 1 || len(report.Missing[ActionProbe]) != 2 || len(report.Missing[ActionOffense]) != 2 {
		t.Fatalf("unexpected missing groups: %+v", report.Missing)
	}

	celebration, err := s.Celebration()
	if err != nil {
		t.Fatalf("celebration: %v", err)
	}
	if len(celebration.Champions) != 1 || celebration.Champions[0].ID != "p01" || len(celebration.Everyone) != 3 {
		t.Fatalf("unexpected celebration: %+v", celebration)
	}
}

func TestRosterSession_ConcurrentOperationsKeepPositionsDense(t *testing.T) {
	s := newActiveSession(t, 10)
	rotation := NewRotationManager(s)

	var wg sync.WaitGroup
	for i := 11; i <= 26; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Add(participant.Participant{ID: participant.ID(fmt.Sprintf("p%02d", i)), DisplayName: "late"})
		}(i)
	}
	for i := 1; i <= 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.SubmitAction(participant.ID(fmt.Sprintf("p%02d", i)), ActionDefense, i)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _ = rotation.MoveToPosition(participant.ID(fmt.Sprintf("p%02d", i)), 1)
		}(i)
	}
	wg.Wait()

	roster := s.Participants()
	if len(roster) != 26 {
		t.Fatalf("expected full roster, got %d", len(roster))
	}
	assertContiguous(t, roster)
	for i := 1; i <= 10; i++ {
		if v, ok := s.Action(participant.ID(fmt.Sprintf("p%02d", i)), ActionDefense); !ok || v != i {
			t.Fatalf("lost action for p%02d: v=%d ok=%t", i, v, ok)
		}
	}
}
