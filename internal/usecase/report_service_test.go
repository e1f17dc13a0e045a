package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/warstats"
	"github.com/riskibarqy/guild-war-tracker/internal/infrastructure/repository/memory"
	snapshotmock "github.com/riskibarqy/guild-war-tracker/internal/mocks/domain/snapshot"
	"github.com/riskibarqy/guild-war-tracker/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func warDay(date, opponent string, stars map[string]int) snapshot.DailySnapshot {
	day := snapshot.DailySnapshot{Date: date, OpponentName: opponent}
	for _, id := range []string{"alpha", "bravo", "charlie"} {
		role := participant.RolePrimary
		if id == "charlie" {
			role = participant.RoleReserve
		}
		day.Participants = append(day.Participants, snapshot.ParticipantSummary{
			ID:    participant.ID(id),
			Name:  id,
			Role:  role,
			Stars: stars[id],
		})
	}
	return day
}

func seededReports(t *testing.T) (*ReportService, *memory.SnapshotRepository) {
	t.Helper()

	repo := memory.NewSnapshotRepository(
		warDay("2026-03-02", "Ravens", map[string]int{"alpha": 6, "bravo": 3}),
		warDay("2026-03-03", "Wolves", map[string]int{"alpha": 2, "bravo": 6}),
		warDay("2026-03-05", "Bears", map[string]int{"alpha": 4, "bravo": 4, "charlie": 6}),
	)
	return NewReportService(repo, 3, logging.NewNop(), nil), repo
}

func TestReportService_BuildWeek(t *testing.T) {
	t.Parallel()

	svc, _ := seededReports(t)

	report, err := svc.Build(context.Background(), warstats.WindowWeek, mustDay(t, "2026-03-02"))
	if err != nil {
		t.Fatalf("build week: %v", err)
	}
	if report.WindowStart != "2026-03-02" || report.WindowEnd != "2026-03-07" {
		t.Fatalf("unexpected window %s..%s", report.WindowStart, report.WindowEnd)
	}
	if len(report.PerDay) != 3 {
		t.Fatalf("expected 3 stored days, got %d", len(report.PerDay))
	}
	if report.Ranked[0].ID != "bravo" || report.Ranked[0].TotalStars != 13 {
		t.Fatalf("expected bravo first with 13 stars, got %+v", report.Ranked[0])
	}
	if report.Ranked[2].ID != "charlie" || report.Ranked[2].DaysAsPrimary != 0 {
		t.Fatalf("reserve-only participant must rank last with no counted days, got %+v", report.Ranked[2])
	}
}

func TestReportService_BuildErrors(t *testing.T) {
	t.Parallel()

	svc, _ := seededReports(t)
	ctx := context.Background()

	if _, err := svc.Build(ctx, warstats.WindowSeason, mustDay(t, "2026-03-03")); !errors.Is(err, ErrInvalidInput) || !errors.Is(err, warstats.ErrInvalidWindow) {
		t.Fatalf("expected invalid window, got %v", err)
	}
	if _, err := svc.Build(ctx, warstats.WindowWeek, mustDay(t, "2026-03-09")); !errors.Is(err, ErrNotFound) || !errors.Is(err, warstats.ErrNoData) {
		t.Fatalf("expected no data, got %v", err)
	}
	if _, err := svc.Build(ctx, warstats.WindowDay, mustDay(t, "2026-03-04")); !errors.Is(err, warstats.ErrNoData) {
		t.Fatalf("expected no data for a skipped day, got %v", err)
	}
}

func TestReportService_BuildStoreFailure(t *testing.T) {
	t.Parallel()

	repo := snapshotmock.NewRepository(t)
	svc := NewReportService(repo, 1, logging.NewNop(), nil)

	repo.On("LoadRange", mock.Anything, "2026-03-02", "2026-03-02").Return(nil, errors.New("connection reset")).Once()

	_, err := svc.Build(context.Background(), warstats.WindowDay, mustDay(t, "2026-03-02"))
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestReportService_BuildManyKeepsOrder(t *testing.T) {
	t.Parallel()

	svc, _ := seededReports(t)

	windows := make([]warstats.Window, 0, 6)
	for _, raw := range []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"} {
		window, err := warstats.NewWindow(warstats.WindowDay, mustDay(t, raw))
		if err != nil {
			t.Fatalf("window %s: %v", raw, err)
		}
		windows = append(windows, window)
	}

	results, err := svc.BuildMany(context.Background(), windows)
	if err != nil {
		t.Fatalf("build many: %v", err)
	}
	if len(results) != len(windows) {
		t.Fatalf("expected %d results, got %d", len(windows), len(results))
	}
	for i, item := range results {
		if item.Window.StartDate() != windows[i].StartDate() {
			t.Fatalf("result %d out of order: %s", i, item.Window.StartDate())
		}
	}

	missing := map[string]bool{"2026-03-04": true, "2026-03-06": true}
	for _, item := range results {
		date := item.Window.StartDate()
		if missing[date] {
			if !errors.Is(item.Err, warstats.ErrNoData) {
				t.Fatalf("%s: expected no data, got %v", date, item.Err)
			}
			continue
		}
		if item.Err != nil || item.Report.WindowStart != date || len(item.Report.DailyRows) != 3 {
			t.Fatalf("%s: unexpected result %+v", date, item)
		}
	}
}

func TestReportService_SeasonOverviewAndBreakdown(t *testing.T) {
	t.Parallel()

	svc, repo := seededReports(t)
	ctx := context.Background()
	if err := repo.Save(ctx, warDay("2026-03-10", "Hawks", map[string]int{"alpha": 6, "bravo": 0})); err != nil {
		t.Fatalf("seed second week: %v", err)
	}

	overview, err := svc.SeasonOverview(ctx, mustDay(t, "2026-03-02"))
	if err != nil {
		t.Fatalf("season overview: %v", err)
	}
	if overview.WindowEnd != "2026-03-13" || overview.DaysPlayed != 4 {
		t.Fatalf("unexpected overview header: %+v", overview)
	}
	if overview.Standings[0].Rank != 1 || overview.Standings[0].ID != "alpha" {
		t.Fatalf("expected alpha to lead the season, got %+v", overview.Standings[0])
	}
	if overview.Standings[0].MaxPossibleStars != 24 {
		t.Fatalf("expected 24 possible stars over 4 primary days, got %d", overview.Standings[0].MaxPossibleStars)
	}

	breakdown, err := svc.SeasonBreakdown(ctx, mustDay(t, "2026-03-02"))
	if err != nil {
		t.Fatalf("season breakdown: %v", err)
	}
	if len(breakdown.Weeks) != 2 {
		t.Fatalf("expected two week reports, got %d", len(breakdown.Weeks))
	}
	if breakdown.Weeks[0].WindowStart != "2026-03-02" || breakdown.Weeks[1].WindowStart != "2026-03-09" {
		t.Fatalf("unexpected week order: %s, %s", breakdown.Weeks[0].WindowStart, breakdown.Weeks[1].WindowStart)
	}
	if len(breakdown.Season.PerDay) != 4 {
		t.Fatalf("expected 4 season days, got %d", len(breakdown.Season.PerDay))
	}
}

func TestReportService_Snapshots(t *testing.T) {
	t.Parallel()

	svc, _ := seededReports(t)
	ctx := context.Background()

	got, err := svc.GetSnapshot(ctx, "2026-03-03")
	if err != nil || got.OpponentName != "Wolves" {
		t.Fatalf("get snapshot: %+v err=%v", got, err)
	}
	if _, err := svc.GetSnapshot(ctx, "03/03/2026"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid date, got %v", err)
	}
	if _, err := svc.GetSnapshot(ctx, "2026-03-04"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	items, err := svc.ListSnapshots(ctx, "2026-03-03", "2026-03-31")
	if err != nil || len(items) != 2 {
		t.Fatalf("list snapshots: %d err=%v", len(items), err)
	}
	if _, err := svc.ListSnapshots(ctx, "2026-03-05", "2026-03-01"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected reversed range to be rejected, got %v", err)
	}

	if err := svc.DeleteSnapshot(ctx, officer, "2026-03-03"); err != nil {
		t.Fatalf("delete snapshot: %v", err)
	}
	if err := svc.DeleteSnapshot(ctx, officer, "2026-03-03"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second delete to miss, got %v", err)
	}
	if err := svc.DeleteSnapshot(ctx, "", "2026-03-02"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected acting user to be required, got %v", err)
	}
}
