package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/warstats"
	"github.com/riskibarqy/guild-war-tracker/internal/metrics"
	"github.com/riskibarqy/guild-war-tracker/internal/platform/logging"
)

const defaultReportWorkers = 4

// ReportResult is one window of a batch build. Err is set instead of Report
// when that window could not be built.
type ReportResult struct {
	Window warstats.Window
	Report warstats.Report
	Err    error
}

// SeasonOverview is the season leaderboard with rank and star ceiling per row.
type SeasonOverview struct {
	WindowStart string              `json:"window_start"`
	WindowEnd   string              `json:"window_end"`
	DaysPlayed  int                 `json:"days_played"`
	Standings   []warstats.Standing `json:"standings"`
}

// SeasonBreakdown holds the season report and both of its week reports.
// Weeks without any snapshot are omitted.
type SeasonBreakdown struct {
	Season warstats.Report   `json:"season"`
	Weeks  []warstats.Report `json:"weeks"`
}

type ReportService struct {
	repo    snapshot.Repository
	logger  *logging.Logger
	metrics *metrics.Recorder
	workers int
}

func NewReportService(repo snapshot.Repository, workers int, logger *logging.Logger, recorder *metrics.Recorder) *ReportService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = defaultReportWorkers
	}

	return &ReportService{
		repo:    repo,
		logger:  logger,
		metrics: recorder,
		workers: workers,
	}
}

// Build loads the snapshots of one window and ranks them.
func (s *ReportService) Build(ctx context.Context, kind warstats.WindowKind, start time.Time) (warstats.Report, error) {
	window, err := warstats.NewWindow(kind, start)
	if err != nil {
		return warstats.Report{}, classify(err)
	}
	return s.BuildWindow(ctx, window)
}

func (s *ReportService) BuildWindow(ctx context.Context, window warstats.Window) (warstats.Report, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.BuildWindow")
	defer span.End()

	started := time.Now()
	report, err := s.buildWindow(ctx, window)
	if err != nil {
		outcome := metrics.OutcomeError
		if !errorsIsDependency(err) {
			outcome = metrics.OutcomeRejected
		}
		s.metrics.RecordReport(string(window.Kind), outcome, time.Since(started))
		return warstats.Report{}, err
	}

	s.metrics.RecordReport(string(window.Kind), metrics.OutcomeOK, time.Since(started))
	s.logger.DebugContext(ctx, "report built",
		"kind", window.Kind,
		"window_start", report.WindowStart,
		"window_end", report.WindowEnd,
		"days", len(report.PerDay),
		"ranked", len(report.Ranked),
	)
	return report, nil
}

func (s *ReportService) buildWindow(ctx context.Context, window warstats.Window) (warstats.Report, error) {
	items, err := s.repo.LoadRange(ctx, window.StartDate(), window.EndDate())
	if err != nil {
		return warstats.Report{}, classify(fmt.Errorf("load snapshots %s..%s: %w", window.StartDate(), window.EndDate(), err))
	}

	report, err := warstats.Aggregate(window, items)
	if err != nil {
		return warstats.Report{}, classify(err)
	}
	return report, nil
}

// BuildMany builds every window on a bounded worker pool. Results keep the
// order of windows; a failing window does not fail the batch.
func (s *ReportService) BuildMany(ctx context.Context, windows []warstats.Window) ([]ReportResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.BuildMany")
	defer span.End()

	results := make([]ReportResult, len(windows))
	if len(windows) == 0 {
		return results, nil
	}

	workerCount := s.workers
	if workerCount > len(windows) {
		workerCount = len(windows)
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create report worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for i, window := range windows {
		i, window := i, window
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			report, err := s.BuildWindow(ctx, window)
			results[i] = ReportResult{Window: window, Report: report, Err: err}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return nil, fmt.Errorf("submit report to worker pool: %w", err)
		}
	}
	workers.Wait()

	return results, nil
}

// SeasonOverview ranks the whole season and numbers the standings.
func (s *ReportService) SeasonOverview(ctx context.Context, start time.Time) (SeasonOverview, error) {
	report, err := s.Build(ctx, warstats.WindowSeason, start)
	if err != nil {
		return SeasonOverview{}, err
	}

	return SeasonOverview{
		WindowStart: report.WindowStart,
		WindowEnd:   report.WindowEnd,
		DaysPlayed:  len(report.PerDay),
		Standings:   warstats.Standings(report.Ranked),
	}, nil
}

// SeasonBreakdown builds the season report together with its two week windows.
func (s *ReportService) SeasonBreakdown(ctx context.Context, start time.Time) (SeasonBreakdown, error) {
	season, err := warstats.NewWindow(warstats.WindowSeason, start)
	if err != nil {
		return SeasonBreakdown{}, classify(err)
	}

	windows := []warstats.Window{season}
	for weekStart := season.Start; !weekStart.After(season.End); weekStart = weekStart.AddDate(0, 0, 7) {
		week, err := warstats.NewWindow(warstats.WindowWeek, weekStart)
		if err != nil {
			return SeasonBreakdown{}, classify(err)
		}
		windows = append(windows, week)
	}

	results, err := s.BuildMany(ctx, windows)
	if err != nil {
		return SeasonBreakdown{}, err
	}
	if results[0].Err != nil {
		return SeasonBreakdown{}, results[0].Err
	}

	out := SeasonBreakdown{Season: results[0].Report}
	for _, item := range results[1:] {
		if item.Err != nil {
			if errorsIsDependency(item.Err) {
				return SeasonBreakdown{}, item.Err
			}
			continue
		}
		out.Weeks = append(out.Weeks, item.Report)
	}
	return out, nil
}

func (s *ReportService) GetSnapshot(ctx context.Context, rawDate string) (snapshot.DailySnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.GetSnapshot")
	defer span.End()

	date, err := snapshot.ParseDate(rawDate)
	if err != nil {
		return snapshot.DailySnapshot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	key := snapshot.FormatDate(date)

	item, exists, err := s.repo.Load(ctx, key)
	if err != nil {
		return snapshot.DailySnapshot{}, classify(fmt.Errorf("load snapshot %s: %w", key, err))
	}
	if !exists {
		return snapshot.DailySnapshot{}, fmt.Errorf("%w: snapshot=%s", ErrNotFound, key)
	}
	return item, nil
}

// ListSnapshots returns the stored days in [from, to] in date order.
func (s *ReportService) ListSnapshots(ctx context.Context, rawFrom, rawTo string) ([]snapshot.DailySnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.ListSnapshots")
	defer span.End()

	from, err := snapshot.ParseDate(rawFrom)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	to, err := snapshot.ParseDate(rawTo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s is before start %s", ErrInvalidInput, snapshot.FormatDate(to), snapshot.FormatDate(from))
	}

	items, err := s.repo.LoadRange(ctx, snapshot.FormatDate(from), snapshot.FormatDate(to))
	if err != nil {
		return nil, classify(fmt.Errorf("load snapshots: %w", err))
	}
	return items, nil
}

// DeleteSnapshot drops a stored day so it can be frozen again.
func (s *ReportService) DeleteSnapshot(ctx context.Context, actor, rawDate string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.DeleteSnapshot")
	defer span.End()

	actor = strings.TrimSpace(actor)
	if actor == "" {
		return fmt.Errorf("%w: acting user is required", ErrInvalidInput)
	}
	date, err := snapshot.ParseDate(rawDate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	key := snapshot.FormatDate(date)

	deleted, err := s.repo.Delete(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "delete snapshot failed", "date", key, "acting_user", actor, "error", err)
		return classify(fmt.Errorf("delete snapshot %s: %w", key, err))
	}
	if !deleted {
		return fmt.Errorf("%w: snapshot=%s", ErrNotFound, key)
	}

	s.logger.InfoContext(ctx, "snapshot deleted", "date", key, "acting_user", actor)
	return nil
}
