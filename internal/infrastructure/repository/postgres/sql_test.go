package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get snapshot: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to match")
	}
	if isNotFound(fmt.Errorf("connection reset")) {
		t.Fatalf("expected unrelated error to be ignored")
	}
}

func TestSnapshotModel_RoundTrip(t *testing.T) {
	offense := 18
	in := snapshot.DailySnapshot{
		Date:         "2026-03-02",
		OpponentName: "Night Owls",
		Participants: []snapshot.ParticipantSummary{
			{ID: "p1", Name: "One", Mention: "<@1>", Role: participant.RolePrimary, Stars: 6, Offense: &offense},
		},
	}

	insert, err := newSnapshotInsertModel(in)
	if err != nil {
		t.Fatalf("build insert model: %v", err)
	}
	if insert.SnapshotDate != "2026-03-02" || insert.Participants == "" {
		t.Fatalf("unexpected insert model: %+v", insert)
	}

	row := snapshotTableModel{
		SnapshotDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		OpponentName: insert.OpponentName,
		Participants: []byte(insert.Participants),
	}
	out, err := row.toDomain()
	if err != nil {
		t.Fatalf("to domain: %v", err)
	}
	if out.Date != in.Date || len(out.Participants) != 1 {
		t.Fatalf("unexpected snapshot: %+v", out)
	}
	got := out.Participants[0]
	if got.Offense == nil || *got.Offense != 18 || got.Defense != nil || got.Role != participant.RolePrimary {
		t.Fatalf("unexpected participant: %+v", got)
	}
}

func TestSnapshotModel_EmptyParticipantsEncodeAsArray(t *testing.T) {
	insert, err := newSnapshotInsertModel(snapshot.DailySnapshot{Date: "2026-03-02", OpponentName: "X"})
	if err != nil {
		t.Fatalf("build insert model: %v", err)
	}
	if insert.Participants != "[]" {
		t.Fatalf("expected empty json array, got %s", insert.Participants)
	}
}
