package warstats

import (
	"math"
	"testing"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
)

func summary(id string, role participant.Role, stars int) snapshot.ParticipantSummary {
	return snapshot.ParticipantSummary{
		ID:      participant.ID(id),
		Name:    "Player " + id,
		Mention: "<@" + id + ">",
		Role:    role,
		Stars:   stars,
	}
}

func day(date, opponent string, items ...snapshot.ParticipantSummary) snapshot.DailySnapshot {
	return snapshot.DailySnapshot{Date: date, OpponentName: opponent, Participants: items}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestOffenseSuccessLabel(t *testing.T) {
	tests := []struct {
		stars int
		want  string
	}{
		{stars: 0, want: "0/2"},
		{stars: 1, want: "1/2"},
		{stars: 3, want: "1/2"},
		{stars: 4, want: "2/2"},
		{stars: 6, want: "2/2"},
	}

	for _, tt := range tests {
		if got := OffenseSuccessLabel(tt.stars); got != tt.want {
			t.Fatalf("stars=%d: expected %s, got %s", tt.stars, tt.want, got)
		}
	}
}

func TestSuccessRate(t *testing.T) {
	if got := SuccessRate(3, 6); !almostEqual(got, 50) {
		t.Fatalf("expected 50, got %f", got)
	}
	if got := SuccessRate(5, 0); got != 0 {
		t.Fatalf("expected 0 for zero max, got %f", got)
	}
}

func TestPlayerStats_SingleDayScenario(t *testing.T) {
	snapshots := []snapshot.DailySnapshot{
		day("2026-03-02", "Night Owls",
			summary("A", participant.RolePrimary, 6),
			summary("B", participant.RolePrimary, 3),
			summary("C", participant.RolePrimary, 0),
		),
	}

	a := PlayerStats(snapshots, "A")
	if a.TotalStars != 6 || a.DaysAsPrimary != 1 || a.SuccessfulOffenseActions != 2 || a.TotalOffenseActions != 2 {
		t.Fatalf("unexpected totals for A: %+v", a)
	}
	if !almostEqual(a.SuccessRate, 100) || !almostEqual(a.AvgStarsPerDay, 6) || !almostEqual(a.OffenseSuccessRate, 100) {
		t.Fatalf("unexpected rates for A: %+v", a)
	}

	b := PlayerStats(snapshots, "B")
	if b.SuccessfulOffenseActions != 1 || !almostEqual(b.SuccessRate, 50) {
		t.Fatalf("unexpected stats for B: %+v", b)
	}

	ranked := RankAll(snapshots)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked players, got %d", len(ranked))
	}
	for i, want := range []participant.ID{"A", "B", "C"} {
		if ranked[i].ID != want {
			t.Fatalf("rank %d: expected %s, got %s", i+1, want, ranked[i].ID)
		}
	}
}

func TestPlayerStats_ReserveDaysExcluded(t *testing.T) {
	snapshots := []snapshot.DailySnapshot{
		day("2026-03-02", "X", summary("A", participant.RolePrimary, 4)),
		day("2026-03-03", "Y", summary("A", participant.RoleReserve, 6)),
		day("2026-03-04", "Z", summary("A", participant.RolePrimary, 2)),
	}

	stats := PlayerStats(snapshots, "A")
	if stats.DaysAsPrimary != 2 || stats.TotalStars != 6 || stats.TotalOffenseActions != 4 || stats.SuccessfulOffenseActions != 3 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if !almostEqual(stats.SuccessRate, 50) || !almostEqual(stats.AvgStarsPerDay, 3) || !almostEqual(stats.OffenseSuccessRate, 75) {
		t.Fatalf("unexpected rates: %+v", stats)
	}
	if len(stats.DailyPerformances) != 2 || stats.DailyPerformances[1].Opponent != "Z" || stats.DailyPerformances[0].OffenseLabel != "2/2" {
		t.Fatalf("unexpected daily performances: %+v", stats.DailyPerformances)
	}

	reserveOnly := PlayerStats(snapshots[1:2], "A")
	if reserveOnly.DaysAsPrimary != 0 || reserveOnly.SuccessRate != 0 || reserveOnly.AvgStarsPerDay != 0 {
		t.Fatalf("reserve-only history must yield zero stats: %+v", reserveOnly)
	}
}

func TestRankAll_ZeroStarPrimaryDays(t *testing.T) {
	snapshots := []snapshot.DailySnapshot{
		day("2026-03-02", "X", summary("A", participant.RolePrimary, 0), summary("B", participant.RolePrimary, 0)),
		day("2026-03-03", "Y", summary("B", participant.RolePrimary, 0), summary("A", participant.RolePrimary, 0)),
	}

	ranked := RankAll(snapshots)
	for _, player := range ranked {
		if player.SuccessRate != 0 || player.AvgStarsPerDay != 0 {
			t.Fatalf("expected zero rates for %s, got %+v", player.ID, player.AggregatedPlayerStats)
		}
	}
	if ranked[0].ID != "A" || ranked[1].ID != "B" {
		t.Fatalf("ties must keep first-appearance order, got %s,%s", ranked[0].ID, ranked[1].ID)
	}
}

func TestRankAll_TieBreakAndLatestIdentity(t *testing.T) {
	first := summary("A", participant.RolePrimary, 3)
	renamed := summary("A", participant.RolePrimary, 3)
	renamed.Name = "Renamed"

	snapshots := []snapshot.DailySnapshot{
		day("2026-03-02", "X", first, summary("B", participant.RolePrimary, 6)),
		day("2026-03-03", "Y", renamed, summary("B", participant.RoleReserve, 0)),
	}

	ranked := RankAll(snapshots)
	if ranked[0].ID != "B" || !almostEqual(ranked[0].SuccessRate, 100) {
		t.Fatalf("expected B first with 100%%, got %+v", ranked[0])
	}
	if ranked[1].Name != "Renamed" {
		t.Fatalf("expected latest name, got %s", ranked[1].Name)
	}

	standings := Standings(ranked)
	if standings[1].Rank != 2 || standings[1].MaxPossibleStars != 12 {
		t.Fatalf("unexpected standing: %+v", standings[1])
	}
}

func TestDailyRows(t *testing.T) {
	rows := DailyRows(day("2026-03-02", "X",
		summary("A", participant.RolePrimary, 3),
		summary("B", participant.RoleReserve, 3),
	))

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !almostEqual(rows[0].SuccessRate, 50) || rows[0].OffenseLabel != "1/2" {
		t.Fatalf("unexpected primary row: %+v", rows[0])
	}
	if rows[1].SuccessRate != 0 {
		t.Fatalf("reserve row must have zero success rate, got %f", rows[1].SuccessRate)
	}
}
